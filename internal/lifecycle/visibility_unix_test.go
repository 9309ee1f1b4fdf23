//go:build !windows

package lifecycle

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatchVisibilityMapsSignals(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan bool, 4)
	WatchVisibility(ctx, func(visible bool) { got <- visible })

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))
	select {
	case v := <-got:
		assert.False(t, v)
	case <-time.After(2 * time.Second):
		t.Fatal("hidden signal not delivered")
	}

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR2))
	select {
	case v := <-got:
		assert.True(t, v)
	case <-time.After(2 * time.Second):
		t.Fatal("visible signal not delivered")
	}

	cancel()
}

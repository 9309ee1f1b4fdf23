package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"slices"
)

// WatchVisibility calls set on every visibility signal until ctx is done.
// It returns once the signal handlers are installed.
func WatchVisibility(ctx context.Context, set func(visible bool)) {
	hidden, visible := VisibilitySignals()
	if len(hidden)+len(visible) == 0 {
		return
	}

	ch := make(chan os.Signal, 4)
	signal.Notify(ch, append(slices.Clone(hidden), visible...)...)
	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-ch:
				set(!slices.Contains(hidden, sig))
			}
		}
	}()
}

package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go2tv.app/tizenbridge/internal/domain"
)

func TestStateMachineEdges(t *testing.T) {
	tests := []struct {
		name string
		from domain.State
		to   domain.State
		ok   bool
	}{
		{name: "load", from: domain.StateIdle, to: domain.StateLoading, ok: true},
		{name: "idle cannot play", from: domain.StateIdle, to: domain.StatePlaying},
		{name: "ready plays", from: domain.StateReady, to: domain.StatePlaying, ok: true},
		{name: "ended seeks", from: domain.StateEnded, to: domain.StateSeeking, ok: true},
		{name: "seek restores waiting", from: domain.StateSeeking, to: domain.StateWaiting, ok: true},
		{name: "error reloads", from: domain.StateError, to: domain.StateLoading, ok: true},
		{name: "error cannot play", from: domain.StateError, to: domain.StatePlaying},
		{name: "any to error", from: domain.StatePaused, to: domain.StateError, ok: true},
		{name: "any to destroyed", from: domain.StateLoading, to: domain.StateDestroyed, ok: true},
		{name: "invalid only destroys", from: domain.StateInvalid, to: domain.StateIdle},
		{name: "destroyed is terminal", from: domain.StateDestroyed, to: domain.StateIdle},
		{name: "destroyed takes no error", from: domain.StateDestroyed, to: domain.StateError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewStateMachine(tc.from)
			err := m.SetState(tc.to)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.to, m.Current())
				return
			}
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tc.from, m.Current())
		})
	}
}

func TestPendingTransitionGuardsSetState(t *testing.T) {
	m := NewStateMachine(domain.StateReady)
	require.NoError(t, m.StartTransitionTo(domain.StatePlaying))

	assert.True(t, m.IsTransitingTo(domain.StatePlaying))
	assert.Equal(t, &Transition{From: domain.StateReady, To: domain.StatePlaying}, m.PendingTransition())

	err := m.SetState(domain.StatePaused)
	assert.ErrorIs(t, err, ErrTransitionConflict)
	assert.Equal(t, domain.StateReady, m.Current())

	require.NoError(t, m.SetState(domain.StatePlaying))
	assert.Nil(t, m.PendingTransition())
	assert.True(t, m.IsIn(domain.StatePlaying))
}

func TestStartTransitionReplacesPending(t *testing.T) {
	m := NewStateMachine(domain.StatePlaying)
	require.NoError(t, m.StartTransitionTo(domain.StatePaused))
	require.NoError(t, m.StartTransitionTo(domain.StateIdle))

	assert.Equal(t, domain.StateIdle, m.PendingTransition().To)

	m.AbortPendingTransition()
	assert.Nil(t, m.PendingTransition())
	require.NoError(t, m.SetState(domain.StatePaused))
}

func TestSameStateIsNoop(t *testing.T) {
	m := NewStateMachine(domain.StateIdle)
	entered := 0
	m.OnEnter(func(domain.State, domain.State) { entered++ })

	require.NoError(t, m.StartTransitionTo(domain.StateIdle))
	assert.Nil(t, m.PendingTransition())
	require.NoError(t, m.SetState(domain.StateIdle))
	assert.Zero(t, entered)

	require.NoError(t, m.SetState(domain.StateLoading))
	assert.Equal(t, 1, entered)
}

func TestOnEnterReceivesPreviousState(t *testing.T) {
	m := NewStateMachine(domain.StateIdle)
	var got [][2]domain.State
	m.OnEnter(func(prev, next domain.State) { got = append(got, [2]domain.State{prev, next}) })

	require.NoError(t, m.SetState(domain.StateLoading))
	require.NoError(t, m.SetState(domain.StateError))

	assert.Equal(t, [][2]domain.State{
		{domain.StateIdle, domain.StateLoading},
		{domain.StateLoading, domain.StateError},
	}, got)
}

func TestInvalidStartTransitionKeepsPending(t *testing.T) {
	m := NewStateMachine(domain.StateIdle)
	require.NoError(t, m.StartTransitionTo(domain.StateLoading))

	assert.ErrorIs(t, m.StartTransitionTo(domain.StatePlaying), ErrInvalidTransition)
	assert.True(t, m.IsTransitingTo(domain.StateLoading))
}

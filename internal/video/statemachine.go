package video

import (
	"errors"
	"fmt"

	"go2tv.app/tizenbridge/internal/domain"
)

var (
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrTransitionConflict = errors.New("state conflicts with pending transition")
)

// Transition is an outstanding move that waits for plugin confirmation.
type Transition struct {
	From domain.State
	To   domain.State
}

var transitions = map[domain.State][]domain.State{
	domain.StateIdle:    {domain.StateLoading},
	domain.StateLoading: {domain.StateReady, domain.StateIdle},
	domain.StateReady:   {domain.StatePlaying, domain.StatePaused, domain.StateSeeking, domain.StateWaiting, domain.StateIdle},
	domain.StatePlaying: {domain.StatePaused, domain.StateWaiting, domain.StateSeeking, domain.StateEnded, domain.StateIdle},
	domain.StatePaused:  {domain.StatePlaying, domain.StateWaiting, domain.StateSeeking, domain.StateEnded, domain.StateIdle},
	domain.StateWaiting: {domain.StatePlaying, domain.StatePaused, domain.StateSeeking, domain.StateEnded, domain.StateReady, domain.StateIdle},
	domain.StateSeeking: {domain.StatePlaying, domain.StatePaused, domain.StateReady, domain.StateWaiting, domain.StateEnded, domain.StateIdle},
	domain.StateEnded:   {domain.StateSeeking, domain.StatePlaying, domain.StatePaused, domain.StateIdle},
	domain.StateError:   {domain.StateLoading, domain.StateIdle},
	domain.StateInvalid: {domain.StateDestroyed},
}

// reachableFromAny lists targets every non-terminal state may move to.
var reachableFromAny = []domain.State{domain.StateError, domain.StateDestroyed, domain.StateInvalid}

// StateMachine is the single authoritative state of one adapter. It is not
// safe for concurrent use; the adapter only touches it from its loop.
type StateMachine struct {
	current domain.State
	pending *Transition
	onEnter []func(prev, next domain.State)
}

func NewStateMachine(initial domain.State) *StateMachine {
	return &StateMachine{current: initial}
}

func (m *StateMachine) Current() domain.State { return m.current }

func (m *StateMachine) IsIn(s domain.State) bool { return m.current == s }

func (m *StateMachine) IsNotIn(s domain.State) bool { return m.current != s }

func (m *StateMachine) IsTransitingTo(s domain.State) bool {
	return m.pending != nil && m.pending.To == s
}

// PendingTransition returns a copy of the outstanding transition, or nil.
func (m *StateMachine) PendingTransition() *Transition {
	if m.pending == nil {
		return nil
	}
	t := *m.pending
	return &t
}

func (m *StateMachine) AbortPendingTransition() {
	m.pending = nil
}

// OnEnter registers fn to run after every state change.
func (m *StateMachine) OnEnter(fn func(prev, next domain.State)) {
	m.onEnter = append(m.onEnter, fn)
}

// Can reports whether the edge from the current state to s exists.
func (m *StateMachine) Can(s domain.State) bool {
	return allowed(m.current, s)
}

// StartTransitionTo records a pending move to s, replacing any other
// pending transition. Starting a transition to the current state is a no-op.
func (m *StateMachine) StartTransitionTo(s domain.State) error {
	if s == m.current {
		return nil
	}
	if !allowed(m.current, s) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current, s)
	}
	m.pending = &Transition{From: m.current, To: s}
	return nil
}

// SetState moves to s and completes a pending transition that targets s.
// It fails when another target is pending, so a late callback cannot
// override a state reached through a different path.
func (m *StateMachine) SetState(s domain.State) error {
	if m.pending != nil && m.pending.To != s {
		return fmt.Errorf("%w: %s -> %s while %s -> %s is pending",
			ErrTransitionConflict, m.current, s, m.pending.From, m.pending.To)
	}
	if s == m.current {
		m.pending = nil
		return nil
	}
	if !allowed(m.current, s) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current, s)
	}

	prev := m.current
	m.current = s
	m.pending = nil
	for _, fn := range m.onEnter {
		fn(prev, s)
	}
	return nil
}

func allowed(from, to domain.State) bool {
	if from == domain.StateDestroyed {
		return false
	}
	for _, s := range reachableFromAny {
		if s == to {
			return true
		}
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Package loop provides a single-goroutine event loop. Everything posted to
// a Loop runs in order on the same goroutine, so state owned by the loop
// needs no locking.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrClosed is returned by Call once the loop stopped.
var ErrClosed = errors.New("event loop closed")

type Loop struct {
	logger zerolog.Logger

	mu     sync.Mutex
	queue  []func()
	closed bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

func New(logger zerolog.Logger) *Loop {
	l := &Loop{
		logger: logger,
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go l.run()
	return l
}

// Post queues fn without blocking. It is safe to call from vendor
// callbacks fired inside a call the loop is currently making. Returns
// false when the loop is closed and fn was dropped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Call runs fn on the loop and waits for its result. It must not be called
// from the loop goroutine.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	if !l.Post(func() { result <- fn() }) {
		return ErrClosed
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		select {
		case err := <-result:
			return err
		default:
			return ErrClosed
		}
	}
}

// Every posts fn every d until the returned stop is called or the loop
// closes. stop waits for the ticker goroutine to exit.
func (l *Loop) Every(d time.Duration, fn func()) (stop func()) {
	cancel := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Post(fn)
			case <-cancel:
				return
			case <-l.quit:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(cancel)
			<-exited
		})
	}
}

// Close stops the loop after the function currently running. Queued
// functions are dropped.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	l.queue = nil
	l.mu.Unlock()

	close(l.quit)
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.quit:
			return
		case <-l.wake:
		}

		for {
			l.mu.Lock()
			if l.closed || len(l.queue) == 0 {
				l.mu.Unlock()
				break
			}
			fn := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			l.mu.Unlock()

			l.invoke(fn)
		}
	}
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().Err(fmt.Errorf("%v", r)).Msg("loop_task_panic")
		}
	}()
	fn()
}

// Manual is a Post implementation for tests: functions queue up until
// Drain runs them on the caller's goroutine. Post may be called from any
// goroutine.
type Manual struct {
	mu    sync.Mutex
	queue []func()
}

func (m *Manual) Post(fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, fn)
	return true
}

// Drain runs queued functions, including ones posted while draining, and
// returns how many ran.
func (m *Manual) Drain() int {
	n := 0
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return n
		}
		fn := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		fn()
		n++
	}
}

func (m *Manual) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

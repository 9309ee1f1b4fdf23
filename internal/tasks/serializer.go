// Package tasks runs playback-affecting operations one at a time.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"go2tv.app/tizenbridge/internal/log"
	"go2tv.app/tizenbridge/internal/metrics"
)

// Kind discriminates tasks for de-duplication.
type Kind int

const (
	KindPlay Kind = iota
	KindStop
	KindSuspend
)

func (k Kind) String() string {
	switch k {
	case KindPlay:
		return "play"
	case KindStop:
		return "stop"
	case KindSuspend:
		return "suspend"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	// ErrSuperseded is delivered to a queued task replaced by a newer one of the same kind.
	ErrSuperseded = errors.New("task superseded by a newer task of the same kind")
	// ErrClosed is delivered to tasks that were queued when the serializer closed.
	ErrClosed = errors.New("task serializer closed")
)

// Runner is the body of a task. The context is cancelled when the
// serializer closes.
type Runner func(ctx context.Context) error

type record struct {
	kind Kind
	run  Runner
	done chan error
}

// Serializer is a single-slot FIFO. Queuing a kind drops any queued,
// not yet started record of that kind; running tasks are never touched.
type Serializer struct {
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	queue   []*record
	running bool
	current Kind
	closed  bool
}

func New(logger zerolog.Logger) *Serializer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Serializer{
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		current: -1,
	}
}

// Add queues run under kind. The returned channel receives exactly one
// value: the task result, ErrSuperseded or ErrClosed.
func (s *Serializer) Add(kind Kind, run Runner) <-chan error {
	rec := &record{kind: kind, run: run, done: make(chan error, 1)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		rec.done <- ErrClosed
		return rec.done
	}

	kept := s.queue[:0]
	for _, queued := range s.queue {
		if queued.kind == kind {
			queued.done <- ErrSuperseded
			metrics.TasksTotal.WithLabelValues(kind.String(), "superseded").Inc()
			continue
		}
		kept = append(kept, queued)
	}
	s.queue = append(kept, rec)

	start := !s.running
	if start {
		s.running = true
		s.wg.Add(1)
	}
	s.mu.Unlock()

	if start {
		go s.drain()
	}
	return rec.done
}

// Pending lists the kinds queued behind the running task.
func (s *Serializer) Pending() []Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Kind, 0, len(s.queue))
	for _, rec := range s.queue {
		out = append(out, rec.kind)
	}
	return out
}

// Running reports the kind of the task in the slot, if any.
func (s *Serializer) Running() (Kind, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.running && s.current >= 0
}

// Close drops queued tasks, cancels the running one and waits for it.
func (s *Serializer) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		for _, rec := range s.queue {
			rec.done <- ErrClosed
		}
		s.queue = nil
		s.cancel()
	}
	s.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Serializer) drain() {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.running = false
			s.current = -1
			s.mu.Unlock()
			return
		}
		rec := s.queue[0]
		s.queue = s.queue[1:]
		s.current = rec.kind
		s.mu.Unlock()

		err := s.runOne(rec)
		rec.done <- err

		outcome := "ok"
		if err != nil {
			outcome = "failed"
			s.logger.Warn().Err(err).Str(log.FieldTask, rec.kind.String()).Msg("task_failed")
		} else {
			s.logger.Debug().Str(log.FieldTask, rec.kind.String()).Msg("task_done")
		}
		metrics.TasksTotal.WithLabelValues(rec.kind.String(), outcome).Inc()
	}
}

func (s *Serializer) runOne(rec *record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", rec.kind, r)
		}
	}()
	if rec.run == nil {
		return fmt.Errorf("task %s has no runner", rec.kind)
	}
	return rec.run(s.ctx)
}

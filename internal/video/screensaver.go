package video

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"go2tv.app/tizenbridge/internal/adapters"
	"go2tv.app/tizenbridge/internal/metrics"
)

// screensaverWorker applies screensaver changes off the loop, in request
// order. The goroutine exits once the queue is empty.
type screensaverWorker struct {
	screen   adapters.AppCommon
	timeout  time.Duration
	inflight *sync.WaitGroup
	logger   zerolog.Logger

	mu      sync.Mutex
	queue   []bool
	running bool
}

func (w *screensaverWorker) request(enabled bool) {
	w.mu.Lock()
	w.queue = append(w.queue, enabled)
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.inflight.Add(1)
	w.mu.Unlock()

	go w.run()
}

func (w *screensaverWorker) run() {
	defer w.inflight.Done()
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			w.running = false
			w.mu.Unlock()
			return
		}
		enabled := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		w.apply(enabled)
	}
}

func (w *screensaverWorker) apply(enabled bool) {
	target := "on"
	if !enabled {
		target = "off"
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := w.screen.SetScreenSaver(ctx, enabled); err != nil {
		w.logger.Debug().Err(err).Str("target", target).Msg("screensaver_change_failed")
		return
	}
	metrics.ScreensaverCallsTotal.WithLabelValues(target).Inc()
	w.logger.Debug().Str("target", target).Msg("screensaver_changed")
}

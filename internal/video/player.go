package video

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"go2tv.app/tizenbridge/internal/adapters"
	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/drm"
	"go2tv.app/tizenbridge/internal/loop"
	"go2tv.app/tizenbridge/internal/tasks"
	"go2tv.app/tizenbridge/internal/viewport"
)

const (
	defaultPlayTimeout = 30 * time.Second

	// A load interrupted by the application being hidden is repeated at
	// most this many times.
	maxHiddenReloads = 2
)

// ErrStopped is returned by a play task whose load was stopped meanwhile.
var ErrStopped = errors.New("playback stopped")

// Status is a point-in-time view of a Player.
type Status struct {
	AdapterID   string               `json:"adapter_id"`
	State       domain.State         `json:"state"`
	PluginState adapters.PlayerState `json:"plugin_state"`
	URL         string               `json:"url,omitempty"`
	PositionMS  int                  `json:"position_ms"`
	DurationMS  int                  `json:"duration_ms"`
	Live        bool                 `json:"live"`
	Volume      int                  `json:"volume"`
	Muted       bool                 `json:"muted"`
	Rate        int                  `json:"rate"`
	Pending     *Transition          `json:"pending,omitempty"`
}

type PlayerOptions struct {
	// PlayTimeout bounds how long a play task waits for Ready and Playing.
	PlayTimeout time.Duration
	// PollInterval overrides how often the plugin state is sampled.
	PollInterval time.Duration
}

// Player owns one Adapter together with the loop it runs on and the task
// serializer guarding play, stop and suspend. All methods are safe for
// concurrent use.
type Player struct {
	logger      zerolog.Logger
	loop        *loop.Loop
	tasks       *tasks.Serializer
	adapter     *Adapter
	stopPoll    func()
	playTimeout time.Duration

	mu        sync.Mutex
	hidden    bool
	hideCount int
	visible   chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewPlayer builds the adapter from cfg on a fresh loop. cfg.Post is set
// by the player.
func NewPlayer(cfg Config, opts PlayerOptions) (*Player, error) {
	logger := cfg.Logger
	l := loop.New(logger)
	cfg.Post = l.Post

	var adapter *Adapter
	err := l.Call(context.Background(), func() error {
		var err error
		adapter, err = New(cfg)
		if err != nil && adapter != nil {
			adapter.Destroy()
		}
		return err
	})
	if err != nil {
		l.Close()
		return nil, err
	}

	if opts.PlayTimeout <= 0 {
		opts.PlayTimeout = defaultPlayTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = PollInterval
	}
	visible := make(chan struct{})
	close(visible)

	p := &Player{
		logger:      logger,
		loop:        l,
		tasks:       tasks.New(logger),
		adapter:     adapter,
		playTimeout: opts.PlayTimeout,
		visible:     visible,
	}
	p.stopPoll = l.Every(opts.PollInterval, adapter.CheckState)
	return p, nil
}

func (p *Player) ID() string { return p.adapter.ID() }

// Play queues a play task: load url, wait for Ready, start playback and
// wait for Playing. A queued, not yet started play is replaced.
func (p *Player) Play(ctx context.Context, url string, opts PrepareOptions) error {
	return p.wait(ctx, p.tasks.Add(tasks.KindPlay, p.playTask(url, opts)))
}

// Stop queues a stop task.
func (p *Player) Stop(ctx context.Context) error {
	return p.wait(ctx, p.tasks.Add(tasks.KindStop, p.stopTask()))
}

func (p *Player) Pause(ctx context.Context) error {
	return p.loop.Call(ctx, p.adapter.Pause)
}

// Resume continues a paused or ended playback.
func (p *Player) Resume(ctx context.Context) error {
	return p.loop.Call(ctx, p.adapter.Play)
}

func (p *Player) Seek(ctx context.Context, positionMS int) error {
	return p.loop.Call(ctx, func() error { return p.adapter.SetPosition(positionMS) })
}

func (p *Player) SetVolume(ctx context.Context, volume int) error {
	return p.loop.Call(ctx, func() error { return p.adapter.SetVolume(volume) })
}

func (p *Player) SetMuted(ctx context.Context, muted bool) error {
	return p.loop.Call(ctx, func() error { return p.adapter.SetMuted(muted) })
}

func (p *Player) SetPlaybackRate(ctx context.Context, rate int) error {
	return p.loop.Call(ctx, func() error { return p.adapter.SetPlaybackRate(rate) })
}

func (p *Player) AttachDRM(ctx context.Context, client drm.Client) error {
	return p.loop.Call(ctx, func() error { return p.adapter.AttachDRM(client) })
}

func (p *Player) DetachDRM(ctx context.Context, t domain.DRMType) error {
	return p.loop.Call(ctx, func() error {
		p.adapter.DetachDRM(t)
		return nil
	})
}

// WithViewport runs fn on the loop with the adapter's viewport.
func (p *Player) WithViewport(ctx context.Context, fn func(*viewport.ViewPort) error) error {
	return p.loop.Call(ctx, func() error { return fn(p.adapter.Viewport()) })
}

// Subscribe registers fn for adapter events. fn runs on the loop and must
// not call back into the Player.
func (p *Player) Subscribe(ctx context.Context, fn func(Event)) (unsubscribe func(), err error) {
	var remove func()
	err = p.loop.Call(ctx, func() error {
		remove = p.adapter.Subscribe(fn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return func() { p.loop.Post(remove) }, nil
}

func (p *Player) Status(ctx context.Context) (Status, error) {
	var st Status
	err := p.loop.Call(ctx, func() error {
		a := p.adapter
		st = Status{
			AdapterID:   a.ID(),
			State:       a.State(),
			PluginState: a.PluginState(),
			URL:         a.GetURL(),
			Rate:        a.GetPlaybackRate(),
			Pending:     a.PendingTransition(),
		}
		if a.State() == domain.StateDestroyed {
			return nil
		}
		st.PositionMS = a.GetPosition()
		if d := a.GetDuration(); d == Infinite {
			st.Live = true
		} else {
			st.DurationMS = d
		}
		var errs []error
		var err error
		if st.Volume, err = a.GetVolume(); err != nil {
			errs = append(errs, fmt.Errorf("volume: %w", err))
		}
		if st.Muted, err = a.GetMuted(); err != nil {
			errs = append(errs, fmt.Errorf("muted: %w", err))
		}
		return errors.Join(errs...)
	})
	return st, err
}

// SetVisible reports application visibility. Hiding the application
// during playback suspends the plugin until it becomes visible again.
func (p *Player) SetVisible(visible bool) {
	p.mu.Lock()
	switch {
	case !visible && !p.hidden:
		p.hidden = true
		p.hideCount++
		p.visible = make(chan struct{})
	case visible && p.hidden:
		p.hidden = false
		close(p.visible)
	default:
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if !visible {
		p.onHidden()
	}
}

func (p *Player) onHidden() {
	var suspend bool
	err := p.loop.Call(context.Background(), func() error {
		switch p.adapter.PluginState() {
		case adapters.PlayerPlaying, adapters.PlayerPaused:
			suspend = p.adapter.State() != domain.StateEnded
		}
		return nil
	})
	if err != nil || !suspend {
		return
	}
	p.tasks.Add(tasks.KindSuspend, p.suspendTask())
}

func (p *Player) visibility() (hideCount int, visible <-chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hideCount, p.visible
}

// Close stops polling, cancels running tasks and destroys the adapter.
func (p *Player) Close(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.stopPoll()
		var errs []error
		if err := p.tasks.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close tasks: %w", err))
		}
		if err := p.loop.Call(ctx, func() error {
			p.adapter.Destroy()
			return nil
		}); err != nil {
			errs = append(errs, fmt.Errorf("destroy adapter: %w", err))
		}
		p.loop.Close()
		p.adapter.Wait()
		p.closeErr = errors.Join(errs...)
	})
	return p.closeErr
}

func (p *Player) wait(ctx context.Context, done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Player) playTask(url string, opts PrepareOptions) tasks.Runner {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, p.playTimeout)
		defer cancel()

		for attempt := 0; ; attempt++ {
			if err := p.stopIfLoaded(ctx); err != nil {
				return err
			}

			hides, _ := p.visibility()
			err := p.await(ctx, domain.StateReady, func() error { return p.adapter.Prepare(url, opts) })
			if err != nil {
				return err
			}

			// A load that overlapped with the application being hidden
			// tends to play without events, so it is repeated.
			if now, _ := p.visibility(); now != hides && attempt < maxHiddenReloads {
				p.logger.Info().Int("attempt", attempt+1).Msg("reload_after_hidden")
				continue
			}
			break
		}

		return p.await(ctx, domain.StatePlaying, p.adapter.Play)
	}
}

func (p *Player) stopTask() tasks.Runner {
	return func(ctx context.Context) error {
		return p.stopIfLoaded(ctx)
	}
}

func (p *Player) stopIfLoaded(ctx context.Context) error {
	var idle bool
	if err := p.loop.Call(ctx, func() error {
		idle = p.adapter.State() == domain.StateIdle
		return nil
	}); err != nil {
		return err
	}
	if idle {
		return nil
	}
	return p.await(ctx, domain.StateIdle, p.adapter.Stop)
}

func (p *Player) suspendTask() tasks.Runner {
	return func(ctx context.Context) error {
		if err := p.loop.Call(ctx, p.adapter.Suspend); err != nil {
			return err
		}

		_, visible := p.visibility()
		select {
		case <-visible:
		case <-ctx.Done():
			return ctx.Err()
		}

		return p.loop.Call(ctx, p.adapter.Restore)
	}
}

// await runs start on the loop and waits until the adapter enters want.
// An error event, destruction or an unexpected return to Idle ends the
// wait early.
func (p *Player) await(ctx context.Context, want domain.State, start func() error) error {
	reached := make(chan error, 1)
	signal := func(err error) {
		select {
		case reached <- err:
		default:
		}
	}

	var unsubscribe func()
	err := p.loop.Call(ctx, func() error {
		unsubscribe = p.adapter.Subscribe(func(ev Event) {
			switch {
			case ev.Kind == EventError:
				if ev.Err != nil {
					signal(ev.Err)
				} else {
					signal(errors.New(ev.Message))
				}
			case ev.Kind != EventStateChange:
			case ev.State == want:
				signal(nil)
			case ev.State == domain.StateDestroyed:
				signal(domain.ErrDestroyed)
			case ev.State == domain.StateIdle:
				signal(ErrStopped)
			}
		})
		if err := start(); err != nil {
			return err
		}
		if p.adapter.State() == want && p.adapter.PendingTransition() == nil {
			signal(nil)
		}
		return nil
	})
	defer p.loop.Post(func() {
		if unsubscribe != nil {
			unsubscribe()
		}
	})
	if err != nil {
		return err
	}

	select {
	case err := <-reached:
		return err
	case <-ctx.Done():
		return fmt.Errorf("waiting for %s: %w", want, ctx.Err())
	}
}

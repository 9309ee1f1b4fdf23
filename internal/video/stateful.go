// Package video implements the stateful video adapter on top of the media
// plugin. An Adapter is confined to one goroutine: every method, and every
// function it hands to Config.Post, must run on the same event loop.
package video

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"go2tv.app/tizenbridge/internal/adapters"
	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/drm"
	"go2tv.app/tizenbridge/internal/log"
	"go2tv.app/tizenbridge/internal/metrics"
	"go2tv.app/tizenbridge/internal/version"
	"go2tv.app/tizenbridge/internal/viewport"
)

const (
	// PollInterval is how often the owner should call CheckState.
	PollInterval = 100 * time.Millisecond

	// Infinite is the duration reported for live streams.
	Infinite = math.MaxInt

	// Below this platform version 4K playback must be requested explicitly.
	explicit4KVersion = "5.0.0"

	screensaverTimeout = 2 * time.Second
)

// PrepareOptions are the optional parts of a Prepare request.
type PrepareOptions struct {
	Is4K bool
	Is8K bool
	// StartPosition in milliseconds, applied before the plugin prepares.
	StartPosition *int
}

type Config struct {
	Plugin  adapters.AVPlay
	Audio   adapters.AudioControl
	Screen  adapters.AppCommon
	Product adapters.ProductInfo
	Surface adapters.VideoSurface

	// Post schedules a function on the adapter's event loop. It must not
	// run fn synchronously.
	Post func(fn func()) bool

	PanelResolution domain.Resolution
	AppResolution   domain.Resolution
	PlatformVersion string

	Logger zerolog.Logger
	Now    func() time.Time
}

func (c Config) validate() error {
	var errs []error
	if c.Plugin == nil {
		errs = append(errs, errors.New("plugin is required"))
	}
	if c.Audio == nil {
		errs = append(errs, errors.New("audio control is required"))
	}
	if c.Screen == nil {
		errs = append(errs, errors.New("screensaver control is required"))
	}
	if c.Product == nil {
		errs = append(errs, errors.New("product info is required"))
	}
	if c.Surface == nil {
		errs = append(errs, errors.New("video surface is required"))
	}
	if c.Post == nil {
		errs = append(errs, errors.New("post function is required"))
	}
	return errors.Join(errs...)
}

type Adapter struct {
	id      string
	plugin  adapters.AVPlay
	audio   adapters.AudioControl
	product adapters.ProductInfo
	surface adapters.VideoSurface
	post    func(fn func()) bool
	version string
	logger  zerolog.Logger
	now     func() time.Time

	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup

	machine  *StateMachine
	viewport *viewport.ViewPort
	events   emitter

	ready              readiness
	loadingSince       time.Time
	pluginState        adapters.PlayerState
	callbackActive     bool
	url                string
	rate               int
	stateBeforeSeeking domain.State
	stateBeforeWaiting domain.State
	// episode changes on every prepare, stop and destroy; async work
	// started in one episode is dropped when it completes in another.
	episode     int
	hooks       map[domain.DRMType]drm.Hook
	screensaver *bool
	screenJobs  *screensaverWorker
}

// New builds an adapter in Idle. Missing dependencies are reported without
// an adapter. When setup itself fails the adapter is returned in Invalid
// together with the error; only Destroy is useful on it then.
func New(cfg Config) (*Adapter, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("video adapter: %w", err)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	a := &Adapter{
		id:      id,
		plugin:  cfg.Plugin,
		audio:   cfg.Audio,
		product: cfg.Product,
		surface: cfg.Surface,
		post:    cfg.Post,
		version: cfg.PlatformVersion,
		logger:  cfg.Logger.With().Str(log.FieldComponent, "video").Str(log.FieldAdapterID, id).Logger(),
		now:     cfg.Now,
		ctx:     ctx,
		cancel:  cancel,
		machine: NewStateMachine(domain.StateIdle),
		ready:   newReadiness(),
		rate:    1,
		hooks:   map[domain.DRMType]drm.Hook{},
	}
	a.screenJobs = &screensaverWorker{
		screen:   cfg.Screen,
		timeout:  screensaverTimeout,
		inflight: &a.inflight,
		logger:   a.logger,
	}

	if err := a.init(cfg); err != nil {
		_ = a.machine.SetState(domain.StateInvalid)
		return a, fmt.Errorf("video adapter: %w", err)
	}
	return a, nil
}

func (a *Adapter) init(cfg Config) error {
	if cfg.PanelResolution.Width <= 0 || cfg.PanelResolution.Height <= 0 {
		return fmt.Errorf("panel resolution %dx%d is unusable", cfg.PanelResolution.Width, cfg.PanelResolution.Height)
	}
	if cfg.AppResolution.Width <= 0 || cfg.AppResolution.Height <= 0 {
		return fmt.Errorf("application resolution %dx%d is unusable", cfg.AppResolution.Width, cfg.AppResolution.Height)
	}

	a.plugin.SetListener(a.listener())
	a.callbackActive = true
	a.pluginState = a.plugin.State()

	a.machine.OnEnter(a.onStateEnter)

	// The audio channel keeps one listener; this replaces any previous one.
	a.audio.SetVolumeChangeListener(func(volume int) {
		a.post(func() {
			a.emit(Event{Kind: EventVolumeChange, Value: volume})
		})
	})

	a.viewport = viewport.New(a.plugin, a.surface, cfg.PanelResolution, cfg.AppResolution, cfg.PlatformVersion, a.logger)
	return nil
}

func (a *Adapter) ID() string { return a.id }

func (a *Adapter) State() domain.State { return a.machine.Current() }

func (a *Adapter) PendingTransition() *Transition { return a.machine.PendingTransition() }

// Subscribe registers fn for every event. The returned function removes it.
func (a *Adapter) Subscribe(fn func(Event)) (unsubscribe func()) {
	return a.events.subscribe(fn)
}

func (a *Adapter) Viewport() *viewport.ViewPort { return a.viewport }

func (a *Adapter) GetURL() string { return a.url }

func (a *Adapter) Prepare(url string, opts PrepareOptions) error {
	if err := a.alive(); err != nil {
		return err
	}
	if err := a.machine.StartTransitionTo(domain.StateLoading); err != nil {
		return err
	}
	a.ready = newReadiness()
	a.loadingSince = a.now()
	a.episode++

	if opts.Is4K && !a.product.IsUDPanelSupported() {
		err := domain.NewUnsupportedFeature("4K")
		a.onError(err, "unsupported")
		return err
	}
	if opts.Is8K && !a.product.Is8KPanelSupported() {
		err := domain.NewUnsupportedFeature("8K")
		a.onError(err, "unsupported")
		return err
	}

	if err := a.failToError(func() error { return a.plugin.Open(url) }); err != nil {
		return err
	}
	a.url = url
	a.checkState()

	if len(a.hooks) > 0 {
		a.prepareWithHooks(opts)
	} else if err := a.prepareSource(opts); err != nil {
		return err
	}

	a.setState(domain.StateLoading)
	return nil
}

// prepareWithHooks prepares every DRM hook in parallel and prepares the
// plugin once all of them succeeded.
func (a *Adapter) prepareWithHooks(opts PrepareOptions) {
	hooks := make([]drm.Hook, 0, len(a.hooks))
	for _, h := range a.hooks {
		hooks = append(hooks, h)
	}
	episode := a.episode
	ctx := a.ctx

	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		g, gctx := errgroup.WithContext(ctx)
		for _, h := range hooks {
			g.Go(func() error { return h.Prepare(gctx) })
		}
		err := g.Wait()

		a.post(func() {
			if err != nil {
				if a.machine.IsIn(domain.StateDestroyed) || a.machine.IsTransitingTo(domain.StateDestroyed) {
					a.debug("drm prepare failed during destroy: %v", err)
					return
				}
				if episode != a.episode {
					a.debug("drm prepare of a previous source failed: %v", err)
					return
				}
				a.onError(err, "drm")
				return
			}
			if episode != a.episode || a.machine.IsIn(domain.StateDestroyed) {
				a.debug("drm prepared for a previous source")
				return
			}
			_ = a.prepareSource(opts)
		})
	}()
}

func (a *Adapter) prepareSource(opts PrepareOptions) error {
	if (opts.Is4K || opts.Is8K) && version.IsLT(a.version, explicit4KVersion) {
		err := a.failToError(func() error {
			return a.plugin.SetStreamingProperty(adapters.StreamingPropertyMode4K, "TRUE")
		})
		if err != nil {
			return err
		}
	}

	if opts.StartPosition != nil {
		// Seeking before prepare completes synchronously and never calls back.
		if err := a.failToError(func() error { return a.plugin.SeekTo(*opts.StartPosition, nil, nil) }); err != nil {
			return err
		}
	}

	_ = a.viewport.UpdateViewPort()

	episode := a.episode
	return a.failToError(func() error {
		return a.plugin.PrepareAsync(
			func() {
				a.post(func() {
					if episode == a.episode {
						a.guarded("prepared", a.onPrepared)
					}
				})
			},
			a.asyncError("prepare"),
		)
	})
}

func (a *Adapter) Play() error {
	if err := a.alive(); err != nil {
		return err
	}
	a.emit(Event{Kind: EventWillPlay})
	if err := a.machine.StartTransitionTo(domain.StatePlaying); err != nil {
		return err
	}
	if err := a.failToError(a.plugin.Play); err != nil {
		return err
	}
	a.checkState()
	a.confirm(domain.StatePlaying, adapters.PlayerPlaying)
	return nil
}

func (a *Adapter) Pause() error {
	if err := a.alive(); err != nil {
		return err
	}
	a.emit(Event{Kind: EventWillPause})
	if err := a.machine.StartTransitionTo(domain.StatePaused); err != nil {
		return err
	}
	if err := a.failToError(a.plugin.Pause); err != nil {
		return err
	}
	a.checkState()
	a.confirm(domain.StatePaused, adapters.PlayerPaused)
	return nil
}

// confirm settles a pending transition the plugin had already reached
// before the call, as when playing from Ended where it never left PLAYING.
func (a *Adapter) confirm(target domain.State, plugin adapters.PlayerState) {
	if a.machine.IsTransitingTo(target) && a.pluginState == plugin {
		a.setState(target)
	}
}

func (a *Adapter) Stop() error {
	if err := a.alive(); err != nil {
		return err
	}
	a.emit(Event{Kind: EventWillStop})
	a.ready = newReadiness()
	a.episode++

	// NONE covers a prepare that failed before the plugin opened.
	st := a.plugin.State()
	wasIdle := st == adapters.PlayerIdle || st == adapters.PlayerNone
	if err := a.failToError(a.plugin.Stop); err != nil {
		return err
	}
	if err := a.failToError(a.plugin.Close); err != nil {
		return err
	}

	a.url = ""
	a.rate = 1

	// Stopped before the plugin ever left IDLE: no confirmation will follow.
	if wasIdle {
		a.machine.AbortPendingTransition()
		a.setState(domain.StateIdle)
	} else if err := a.machine.StartTransitionTo(domain.StateIdle); err != nil {
		return err
	}
	a.checkState()
	return nil
}

// GetPosition returns the playback position in milliseconds. In Ended
// some firmwares report past the duration, so the value is clamped.
func (a *Adapter) GetPosition() int {
	pos := a.plugin.CurrentTime()
	if a.machine.IsIn(domain.StateEnded) {
		if d := a.plugin.Duration(); d > 0 && pos > d {
			return d
		}
	}
	return pos
}

func (a *Adapter) SetPosition(position int) error {
	if err := a.alive(); err != nil {
		return err
	}
	a.emit(Event{Kind: EventWillSeek, Value: position})

	// A seek supersedes any unconfirmed transition.
	a.machine.AbortPendingTransition()
	if !a.machine.IsIn(domain.StateSeeking) {
		if !a.machine.Can(domain.StateSeeking) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.machine.Current(), domain.StateSeeking)
		}
		a.stateBeforeSeeking = a.machine.Current()
	}

	episode := a.episode
	err := a.failToError(func() error {
		return a.plugin.SeekTo(position,
			func() {
				a.post(func() {
					if episode == a.episode {
						a.guarded("seek completed", a.onSeekCompleted)
					}
				})
			},
			a.asyncError("seek"),
		)
	})
	if err != nil {
		return err
	}
	a.setState(domain.StateSeeking)
	return nil
}

// GetDuration returns the duration in milliseconds, or Infinite for live
// streams.
func (a *Adapter) GetDuration() int {
	if live, err := a.plugin.StreamingProperty(adapters.StreamingPropertyIsLive); err == nil && live == "1" {
		return Infinite
	}
	return a.plugin.Duration()
}

func (a *Adapter) GetVolume() (int, error) {
	return a.audio.Volume()
}

// SetVolume clamps volume to [0, 100]. Setting the current value is a no-op.
func (a *Adapter) SetVolume(volume int) error {
	if err := a.alive(); err != nil {
		return err
	}
	normalized := min(100, max(0, volume))

	current, err := a.audio.Volume()
	if err != nil {
		return err
	}
	if current == normalized {
		return nil
	}

	a.emit(Event{Kind: EventWillChangeVolume, Value: normalized})
	return a.audio.SetVolume(normalized)
}

// VolumeUp raises the volume by step, or by the platform's own step when
// step is nil, and returns the resulting volume.
func (a *Adapter) VolumeUp(step *int) (int, error) {
	return a.stepVolume(step, 1, a.audio.VolumeUp)
}

func (a *Adapter) VolumeDown(step *int) (int, error) {
	return a.stepVolume(step, -1, a.audio.VolumeDown)
}

func (a *Adapter) stepVolume(step *int, sign int, platformStep func() error) (int, error) {
	if err := a.alive(); err != nil {
		return 0, err
	}
	if step == nil {
		if err := platformStep(); err != nil {
			return 0, err
		}
		return a.audio.Volume()
	}

	current, err := a.audio.Volume()
	if err != nil {
		return 0, err
	}
	if err := a.SetVolume(current + sign*(*step)); err != nil {
		return 0, err
	}
	return a.audio.Volume()
}

func (a *Adapter) GetMuted() (bool, error) {
	return a.audio.Muted()
}

func (a *Adapter) SetMuted(muted bool) error {
	if err := a.alive(); err != nil {
		return err
	}
	return a.audio.SetMuted(muted)
}

func (a *Adapter) GetPlaybackRate() int { return a.rate }

func (a *Adapter) SetPlaybackRate(rate int) error {
	if err := a.alive(); err != nil {
		return err
	}
	a.emit(Event{Kind: EventWillChangeRate, Value: rate})
	a.rate = rate
	if err := a.failToError(func() error { return a.plugin.SetSpeed(rate) }); err != nil {
		return err
	}
	a.emit(Event{Kind: EventRateChange, Value: rate})
	return nil
}

// IsDRMSupported reports whether AttachDRM accepts clients of type t.
func (a *Adapter) IsDRMSupported(t domain.DRMType) bool { return drm.IsSupported(t) }

func (a *Adapter) CanHandleMultiDRM() bool { return drm.CanHandleMultiDRM() }

// AttachDRM binds client to the plugin. A hook already attached for the
// same scheme is destroyed first.
func (a *Adapter) AttachDRM(client drm.Client) error {
	if err := a.alive(); err != nil {
		return err
	}
	if !drm.IsSupported(client.Type()) {
		return domain.NewUnsupportedFeature(fmt.Sprintf("%s DRM", client.Type()))
	}
	// The previous hook unregisters from its client on Destroy, so it goes
	// before the new hook registers; the client may be the same instance.
	if prev, ok := a.hooks[client.Type()]; ok {
		prev.SetErrorHandler(nil)
		prev.Destroy()
		delete(a.hooks, client.Type())
	}
	hook, err := drm.New(client, a.plugin, a.version, a.logger)
	if err != nil {
		return err
	}
	hook.SetErrorHandler(func(err error) {
		a.post(func() { a.onError(err, "drm") })
	})
	a.hooks[client.Type()] = hook
	a.logger.Info().Str(log.FieldDRM, string(client.Type())).Msg("drm_attached")
	return nil
}

func (a *Adapter) DetachDRM(t domain.DRMType) {
	hook, ok := a.hooks[t]
	if !ok {
		return
	}
	hook.SetErrorHandler(nil)
	hook.Destroy()
	delete(a.hooks, t)
	a.logger.Info().Str(log.FieldDRM, string(t)).Msg("drm_detached")
}

// Suspend releases the plugin's decoder while the application is hidden.
func (a *Adapter) Suspend() error {
	if err := a.alive(); err != nil {
		return err
	}
	return a.failToError(a.plugin.Suspend)
}

// Restore reacquires the decoder. Suspension resets the display, so the
// viewport is pushed again.
func (a *Adapter) Restore() error {
	if err := a.alive(); err != nil {
		return err
	}
	if err := a.failToError(a.plugin.Restore); err != nil {
		return err
	}
	_ = a.viewport.UpdateViewPort()
	return nil
}

// PluginState is the last plugin state seen by CheckState.
func (a *Adapter) PluginState() adapters.PlayerState { return a.pluginState }

// Destroy releases the plugin. Every step runs even when an earlier one
// fails. The adapter ends in Destroyed and rejects further operations.
func (a *Adapter) Destroy() {
	if a.machine.IsIn(domain.StateDestroyed) {
		return
	}
	a.machine.AbortPendingTransition()
	_ = a.machine.StartTransitionTo(domain.StateDestroyed)
	a.ready = newReadiness()
	a.episode++

	if err := a.plugin.Stop(); err != nil {
		a.debug("stop during destroy failed: %v", err)
	}

	// DRM sessions are finalized between plugin stop and close.
	for t, hook := range a.hooks {
		hook.SetErrorHandler(nil)
		hook.Destroy()
		delete(a.hooks, t)
	}

	if err := a.plugin.Close(); err != nil {
		a.debug("close during destroy failed: %v", err)
	}

	a.audio.UnsetVolumeChangeListener()
	a.callbackActive = false
	a.rate = 1
	a.url = ""
	a.cancel()
	a.surface.Remove()

	a.setState(domain.StateDestroyed)
	a.logger.Info().Msg("video_adapter_destroyed")
}

// Wait blocks until background DRM preparation has returned. Call it
// after Destroy and off the loop.
func (a *Adapter) Wait() { a.inflight.Wait() }

func (a *Adapter) alive() error {
	if a.machine.IsIn(domain.StateDestroyed) {
		return domain.ErrDestroyed
	}
	return nil
}

// CheckState samples the plugin state and reacts to a change. It is the
// single path for both the poll tick and post-callback re-samples.
func (a *Adapter) CheckState() {
	if a.machine.IsIn(domain.StateDestroyed) {
		return
	}
	a.checkState()
}

func (a *Adapter) checkState() {
	next := a.plugin.State()
	if next == a.pluginState {
		return
	}
	a.logger.Debug().
		Str(log.FieldOldState, string(a.pluginState)).
		Str(log.FieldNewState, string(next)).
		Msg("plugin_state_changed")
	a.pluginState = next
	a.guarded("plugin state change", func() { a.onPluginState(next) })
}

func (a *Adapter) onPluginState(next adapters.PlayerState) {
	a.debug("plugin state change detected %s", next)
	pending := a.machine.PendingTransition()

	switch next {
	case adapters.PlayerReady:
		a.ready.pluginReady = true
		a.maybeReady()
	case adapters.PlayerPlaying:
		a.setState(domain.StatePlaying)
	case adapters.PlayerPaused:
		a.setState(domain.StatePaused)
	case adapters.PlayerIdle:
		// stop is always paired with close, so IDLE is normally skipped
		// straight to NONE. Only a load abandoned mid-prepare lands here.
		if pending != nil && pending.From == domain.StateLoading && pending.To == domain.StateIdle {
			a.setState(domain.StateIdle)
		}
	case adapters.PlayerNone:
		// The only confirmation of an implicit stop or close.
		if a.machine.IsNotIn(domain.StateIdle) && a.machine.IsNotIn(domain.StateDestroyed) {
			a.setState(domain.StateIdle)
		}
	}
}

func (a *Adapter) onPrepared() {
	a.debug("prepare callback")
	a.ready.prepareCallback = true
	a.maybeReady()
	// READY may be missed if playback starts before the next poll tick.
	a.checkState()
}

func (a *Adapter) onSeekCompleted() {
	a.emit(Event{Kind: EventSeeked, Value: a.GetPosition()})

	prior := a.stateBeforeSeeking
	a.stateBeforeSeeking = ""
	switch prior {
	case domain.StateEnded:
		// The plugin stays PLAYING through end of stream, so it has to be
		// told to play again.
		a.setState(domain.StatePlaying)
		_ = a.failToError(a.plugin.Play)
	case "":
	default:
		a.setState(prior)
	}
	a.checkState()
}

func (a *Adapter) maybeReady() {
	if !a.ready.complete() || a.machine.IsNotIn(domain.StateLoading) {
		return
	}
	// Early viewport pushes get lost on some devices; repeat once loaded.
	_ = a.viewport.UpdateViewPort()
	if a.setState(domain.StateReady) {
		metrics.ReadinessSeconds.Observe(a.now().Sub(a.loadingSince).Seconds())
		a.emit(Event{Kind: EventDurationChange, Value: a.GetDuration()})
	}
}

// failToError runs a vendor call and routes its failure into the Error
// state before handing it back to the caller.
func (a *Adapter) failToError(fn func() error) error {
	err := fn()
	if err != nil {
		a.onError(err, "vendor_call")
	}
	return err
}

// guarded runs a callback handler; a panic inside it is treated like a
// failed vendor call.
func (a *Adapter) guarded(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			a.onError(fmt.Errorf("%s: panic: %v", name, r), "vendor_callback")
		}
	}()
	fn()
}

// asyncError adapts a plugin error callback onto the loop.
func (a *Adapter) asyncError(operation string) func(error) {
	return func(err error) {
		a.post(func() {
			if err == nil {
				err = fmt.Errorf("%s failed", operation)
			}
			a.onError(err, "vendor_callback")
		})
	}
}

func (a *Adapter) onError(err error, source string) {
	a.machine.AbortPendingTransition()
	message := domain.AsPlaybackError(err).Error()

	if a.machine.IsIn(domain.StateDestroyed) {
		metrics.PlaybackErrorsTotal.WithLabelValues("destroyed").Inc()
		a.debug("error happened in destroyed state: %s", message)
		return
	}

	if a.machine.IsNotIn(domain.StateError) {
		a.setState(domain.StateError)
	}
	metrics.PlaybackErrorsTotal.WithLabelValues(source).Inc()
	a.logger.Warn().Err(err).Str("source", source).Msg("playback_error")
	a.emit(Event{Kind: EventError, State: a.machine.Current(), Message: message, Err: err})
}

// setState applies s and reports whether it took effect. Rejections are
// the state helper's own and only get logged.
func (a *Adapter) setState(s domain.State) bool {
	if err := a.machine.SetState(s); err != nil {
		reason := "invalid"
		if errors.Is(err, ErrTransitionConflict) {
			reason = "conflict"
		}
		metrics.RejectedTransitionsTotal.WithLabelValues(reason).Inc()
		a.debug("state %s rejected: %v", s, err)
		return false
	}
	return true
}

func (a *Adapter) onStateEnter(prev, next domain.State) {
	metrics.StateTransitionsTotal.WithLabelValues(string(next)).Inc()
	a.logger.Debug().
		Str(log.FieldOldState, string(prev)).
		Str(log.FieldNewState, string(next)).
		Msg("state_entered")
	a.manageScreensaver(next)
	a.emit(Event{Kind: EventStateChange, State: next, Prev: prev})
}

// manageScreensaver keeps the screensaver off while media is active.
func (a *Adapter) manageScreensaver(state domain.State) {
	enabled := true
	switch state {
	case domain.StateLoading, domain.StateWaiting, domain.StatePlaying, domain.StateSeeking:
		enabled = false
	}
	if a.screensaver != nil && *a.screensaver == enabled {
		return
	}
	a.screensaver = &enabled

	a.screenJobs.request(enabled)
}

func (a *Adapter) emit(ev Event) {
	if ev.State == "" {
		ev.State = a.machine.Current()
	}
	a.events.emit(ev)
}

func (a *Adapter) debug(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	a.logger.Debug().Str(log.FieldEvent, "debug").Msg(message)
	a.emit(Event{Kind: EventDebug, Message: message})
}

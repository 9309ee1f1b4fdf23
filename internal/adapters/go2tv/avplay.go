package go2tv

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go2tv.app/go2tv/v2/httphandlers"
	"go2tv.app/go2tv/v2/soapcalls"
	"go2tv.app/go2tv/v2/utils"

	"go2tv.app/tizenbridge/internal/adapters"
	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/log"
)

const (
	defaultMonitorInterval = 500 * time.Millisecond
	callbackQueueSize      = 16

	// The renderer fetches the URL itself; the local server only carries
	// UPnP event callbacks, so the media it would serve is a placeholder.
	directMediaPlaceholder = "dlna-direct-url-placeholder"
)

// ErrNotPrepared is returned by playback calls before PrepareAsync succeeded.
var ErrNotPrepared = errors.New("dlna plugin: source is not prepared")

// StreamServer is the callback server started for every prepared source.
type StreamServer interface {
	StartServer(serverStarted chan<- error, media, subtitles any, tvpayload *soapcalls.TVPayload, screen httphandlers.Screen)
	StopServer()
}

type StreamServerFactory interface {
	New(addr string) StreamServer
}

type httpServerFactory struct{}

func (httpServerFactory) New(addr string) StreamServer {
	return httphandlers.NewServer(addr)
}

type AVPlayOptions struct {
	// RendererURL is the device description URL of the DLNA renderer.
	RendererURL     string
	Factory         adapters.DLNAFactory
	Servers         StreamServerFactory
	MonitorInterval time.Duration
	Logger          zerolog.Logger
}

var _ adapters.AVPlay = (*AVPlay)(nil)

// AVPlay drives a DLNA media renderer through the media plugin contract.
// Open starts a session that lasts until Close; PrepareAsync connects to
// the renderer and a monitor goroutine turns transport changes into
// plugin callbacks.
type AVPlay struct {
	renderer string
	factory  adapters.DLNAFactory
	servers  StreamServerFactory
	interval time.Duration
	logger   zerolog.Logger

	mu       sync.Mutex
	state    adapters.PlayerState
	url      string
	listener adapters.PlaybackListener
	props    map[string]string

	ctx    context.Context
	cancel context.CancelFunc
	bg     sync.WaitGroup

	payload   adapters.DLNAPayload
	server    StreamServer
	transport string
	started   bool
	ended     bool
	resume    bool
	startAt   int

	durationMS int
	positionMS int
}

func NewAVPlay(opts AVPlayOptions) (*AVPlay, error) {
	if opts.Factory == nil {
		return nil, errors.New("dlna plugin: payload factory is required")
	}
	if strings.TrimSpace(opts.RendererURL) == "" {
		return nil, errors.New("dlna plugin: renderer url is required")
	}
	if opts.Servers == nil {
		opts.Servers = httpServerFactory{}
	}
	if opts.MonitorInterval <= 0 {
		opts.MonitorInterval = defaultMonitorInterval
	}
	return &AVPlay{
		renderer: opts.RendererURL,
		factory:  opts.Factory,
		servers:  opts.Servers,
		interval: opts.MonitorInterval,
		logger:   opts.Logger.With().Str(log.FieldComponent, "dlna_plugin").Str(log.FieldRenderer, opts.RendererURL).Logger(),
		state:    adapters.PlayerNone,
		props:    map[string]string{},
	}, nil
}

// Open starts a session for mediaURL, closing any previous one.
func (p *AVPlay) Open(mediaURL string) error {
	if _, err := url.ParseRequestURI(mediaURL); err != nil {
		return fmt.Errorf("dlna plugin: invalid url: %w", err)
	}
	if utils.IsHLSStream(mediaURL, "") {
		return domain.NewUnsupportedFeature("HLS playlists on DLNA renderers")
	}
	if err := p.Close(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.url = mediaURL
	p.state = adapters.PlayerIdle
	return nil
}

// Close ends the session and waits for its goroutines.
func (p *AVPlay) Close() error {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.bg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.server != nil {
		p.server.StopServer()
		p.server = nil
	}
	p.reset()
	p.ctx = nil
	p.state = adapters.PlayerNone
	return nil
}

func (p *AVPlay) reset() {
	p.url = ""
	p.payload = nil
	p.transport = ""
	p.started = false
	p.ended = false
	p.resume = false
	p.startAt = 0
	p.durationMS = 0
	p.positionMS = 0
	p.props = map[string]string{}
}

func (p *AVPlay) PrepareAsync(onSuccess func(), onError func(error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != adapters.PlayerIdle || p.ctx == nil {
		return fmt.Errorf("dlna plugin: prepare in state %s", p.state)
	}

	ctx, mediaURL := p.ctx, p.url
	p.bg.Add(1)
	go func() {
		defer p.bg.Done()
		payload, server, callbacks, err := p.connect(ctx, mediaURL)

		p.mu.Lock()
		if ctx.Err() != nil {
			p.mu.Unlock()
			if server != nil {
				server.StopServer()
			}
			return
		}
		if err != nil {
			p.mu.Unlock()
			p.logger.Warn().Err(err).Msg("dlna_prepare_failed")
			if onError != nil {
				onError(err)
			}
			return
		}
		p.payload = payload
		p.server = server
		p.state = adapters.PlayerReady
		p.bg.Add(1)
		go p.monitor(ctx, payload, callbacks)
		p.mu.Unlock()

		p.logger.Info().Str(log.FieldURL, mediaURL).Msg("dlna_source_prepared")
		if onSuccess != nil {
			onSuccess()
		}
	}()
	return nil
}

func (p *AVPlay) connect(ctx context.Context, mediaURL string) (adapters.DLNAPayload, StreamServer, <-chan string, error) {
	payload, err := p.factory.NewTVPayload(&soapcalls.Options{
		Ctx:   ctx,
		DMR:   p.renderer,
		Media: mediaURL,
		Mtype: mediaTypeFor(mediaURL),
		Seek:  true,
	})
	if err != nil {
		return nil, nil, nil, &domain.PlaybackError{Name: "PLAYER_ERROR_CONNECTION_FAILED", Message: err.Error(), Err: err}
	}
	payload.SetContext(ctx)

	callbacks := make(chan string, callbackQueueSize)
	server := p.servers.New(payload.ListenAddress())
	started := make(chan error, 1)
	go server.StartServer(started, []byte(directMediaPlaceholder), "", payload.RawPayload(), &callbackScreen{stateCh: callbacks})
	select {
	case err := <-started:
		if err != nil {
			return nil, nil, nil, fmt.Errorf("start callback server: %w", err)
		}
	case <-ctx.Done():
		return nil, server, nil, ctx.Err()
	}

	payload.SetMediaURL(mediaURL)
	return payload, server, callbacks, nil
}

// Play starts the prepared source, or resumes it. After the end of the
// stream the source is loaded again.
func (p *AVPlay) Play() error {
	p.mu.Lock()
	payload := p.payload
	if payload == nil {
		p.mu.Unlock()
		return ErrNotPrepared
	}
	action := "Play"
	if !p.started || p.ended {
		action = "Play1"
	}
	p.mu.Unlock()

	if err := payload.SendtoTV(action); err != nil {
		return fmt.Errorf("dlna %s: %w", action, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = true
	p.ended = false
	p.transport = ""
	p.state = adapters.PlayerPlaying
	if action == "Play1" && p.startAt > 0 {
		p.seekLocked(payload, p.startAt, nil, nil)
		p.startAt = 0
	}
	return nil
}

func (p *AVPlay) Pause() error {
	return p.send("Pause", adapters.PlayerPaused)
}

func (p *AVPlay) Stop() error {
	p.mu.Lock()
	if p.payload == nil {
		if p.state != adapters.PlayerNone {
			p.state = adapters.PlayerIdle
		}
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	if err := p.send("Stop", adapters.PlayerIdle); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = false
	p.ended = false
	return nil
}

func (p *AVPlay) send(action string, next adapters.PlayerState) error {
	p.mu.Lock()
	payload := p.payload
	p.mu.Unlock()
	if payload == nil {
		return ErrNotPrepared
	}
	if err := payload.SendtoTV(action); err != nil {
		return fmt.Errorf("dlna %s: %w", action, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transport = ""
	p.state = next
	return nil
}

// SeekTo before preparation only records the start position and never
// calls back.
func (p *AVPlay) SeekTo(ms int, onSuccess func(), onError func(error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == adapters.PlayerNone {
		return errors.New("dlna plugin: seek without a source")
	}
	if p.payload == nil {
		p.startAt = max(0, ms)
		return nil
	}
	if p.ended || !p.started {
		// The renderer dropped the source; it is applied on the next Play.
		p.startAt = max(0, ms)
		p.positionMS = p.startAt
		p.async(onSuccess)
		return nil
	}
	p.seekLocked(p.payload, ms, onSuccess, onError)
	return nil
}

func (p *AVPlay) seekLocked(payload adapters.DLNAPayload, ms int, onSuccess func(), onError func(error)) {
	ms = max(0, ms)
	p.bg.Add(1)
	go func() {
		defer p.bg.Done()
		if err := payload.Seek(clockTime(ms)); err != nil {
			p.logger.Debug().Err(err).Int("position_ms", ms).Msg("dlna_seek_failed")
			if onError != nil {
				onError(fmt.Errorf("dlna seek: %w", err))
			}
			return
		}
		p.mu.Lock()
		p.positionMS = ms
		p.mu.Unlock()
		if onSuccess != nil {
			onSuccess()
		}
	}()
}

func (p *AVPlay) async(fn func()) {
	if fn == nil {
		return
	}
	p.bg.Add(1)
	go func() {
		defer p.bg.Done()
		fn()
	}()
}

func (p *AVPlay) JumpForward(ms int, onSuccess func(), onError func(error)) error {
	return p.SeekTo(p.CurrentTime()+ms, onSuccess, onError)
}

func (p *AVPlay) JumpBackward(ms int, onSuccess func(), onError func(error)) error {
	return p.SeekTo(p.CurrentTime()-ms, onSuccess, onError)
}

func (p *AVPlay) State() adapters.PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *AVPlay) Duration() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.durationMS
}

func (p *AVPlay) CurrentTime() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionMS
}

func (p *AVPlay) SetSpeed(rate int) error {
	if rate != 1 {
		return domain.NewUnsupportedFeature("Playback rate on DLNA renderers")
	}
	return nil
}

// The renderer owns its screen; geometry calls are accepted and ignored.
func (p *AVPlay) SetDisplayRect(x, y, width, height int) error { return nil }
func (p *AVPlay) SetDisplayMethod(method string) error         { return nil }

func (p *AVPlay) SetStreamingProperty(name, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.props[name] = value
	return nil
}

// StreamingProperty answers IS_LIVE from the renderer when it was not set:
// a source that plays without a duration is live.
func (p *AVPlay) StreamingProperty(name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := p.props[name]; ok {
		return v, nil
	}
	if name == adapters.StreamingPropertyIsLive {
		if p.started && p.transport == "playing" && p.durationMS == 0 {
			return "1", nil
		}
		return "0", nil
	}
	return "", fmt.Errorf("dlna plugin: unknown streaming property %s", name)
}

func (p *AVPlay) SetListener(listener adapters.PlaybackListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = listener
}

// Suspend pauses a playing renderer; Restore resumes it.
func (p *AVPlay) Suspend() error {
	p.mu.Lock()
	playing := p.state == adapters.PlayerPlaying && !p.ended
	p.mu.Unlock()
	if !playing {
		return nil
	}
	if err := p.send("Pause", adapters.PlayerPaused); err != nil {
		return err
	}
	p.mu.Lock()
	p.resume = true
	p.mu.Unlock()
	return nil
}

func (p *AVPlay) Restore() error {
	p.mu.Lock()
	resume := p.resume
	p.resume = false
	p.mu.Unlock()
	if !resume {
		return nil
	}
	return p.send("Play", adapters.PlayerPlaying)
}

func (p *AVPlay) SetDRM(drmType, operation, payload string) (string, error) {
	return "", domain.NewUnsupportedFeature(drmType + " DRM on DLNA renderers")
}

func (p *AVPlay) UID(drmType string) (string, error) {
	return "", domain.NewUnsupportedFeature(drmType + " DRM on DLNA renderers")
}

func (p *AVPlay) monitor(ctx context.Context, payload adapters.DLNAPayload, callbacks <-chan string) {
	defer p.bg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-callbacks:
			p.observe(normalizeDLNAState(msg), nil)
		case <-ticker.C:
			p.poll(payload)
		}
	}
}

func (p *AVPlay) poll(payload adapters.DLNAPayload) {
	transport, err := payload.GetTransportInfo()
	if err != nil {
		p.logger.Debug().Err(err).Msg("dlna_transport_info_failed")
		return
	}
	state := normalizeDLNATransport(transport)

	var position []string
	if state == "playing" || state == "paused" {
		if position, err = payload.GetPositionInfo(); err != nil {
			p.logger.Debug().Err(err).Msg("dlna_position_info_failed")
			position = nil
		}
	}
	p.observe(state, position)
}

// observe folds one renderer observation into the plugin state and fires
// the callbacks it implies. position is [duration, reltime] when known.
func (p *AVPlay) observe(state string, position []string) {
	if state == "" {
		return
	}

	var fire []func(adapters.PlaybackListener)
	p.mu.Lock()
	if len(position) >= 2 {
		if d, ok := parseClockTime(position[0]); ok {
			p.durationMS = d
		}
		if pos, ok := parseClockTime(position[1]); ok {
			p.positionMS = pos
		}
	}

	prev := p.transport
	p.transport = state
	live := p.started && !p.ended

	switch state {
	case "playing":
		if live {
			p.state = adapters.PlayerPlaying
		}
		if prev == "buffering" {
			fire = append(fire, func(l adapters.PlaybackListener) { call(l.OnBufferingComplete) })
		}
		if live && len(position) >= 2 {
			ms := p.positionMS
			fire = append(fire, func(l adapters.PlaybackListener) {
				if l.OnCurrentPlayTime != nil {
					l.OnCurrentPlayTime(ms)
				}
			})
		}
	case "paused":
		if live {
			p.state = adapters.PlayerPaused
		}
	case "buffering":
		if prev != "buffering" {
			fire = append(fire, func(l adapters.PlaybackListener) { call(l.OnBufferingStart) })
		}
	case "stopped":
		// The plugin keeps reporting PLAYING after the end of the stream,
		// as the TV plugin does, until it is stopped or played again.
		if live && p.state == adapters.PlayerPlaying && (prev == "playing" || prev == "buffering") {
			p.ended = true
			if p.durationMS > 0 {
				p.positionMS = p.durationMS
			}
			fire = append(fire, func(l adapters.PlaybackListener) { call(l.OnStreamCompleted) })
		}
	default:
		fire = append(fire, func(l adapters.PlaybackListener) {
			if l.OnEvent != nil {
				l.OnEvent("PLAYER_MSG_TRANSPORT", state)
			}
		})
	}
	listener := p.listener
	p.mu.Unlock()

	for _, f := range fire {
		f(listener)
	}
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

// callbackScreen receives renderer event notifications from the callback
// server.
type callbackScreen struct {
	stateCh chan<- string
}

func (c *callbackScreen) EmitMsg(msg string) {
	select {
	case c.stateCh <- msg:
	default:
	}
}

func (c *callbackScreen) Fini() {}

func (c *callbackScreen) SetMediaType(string) {}

func normalizeDLNAState(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	switch s {
	case "playing":
		return "playing"
	case "paused", "paused_playback":
		return "paused"
	case "stopped", "no_media_present":
		return "stopped"
	case "buffering", "transitioning":
		return "buffering"
	default:
		return s
	}
}

func normalizeDLNATransport(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return normalizeDLNAState(v[0])
}

func mediaTypeFor(mediaURL string) string {
	u, err := url.Parse(mediaURL)
	if err != nil {
		return "application/octet-stream"
	}
	guessed := mime.TypeByExtension(strings.ToLower(path.Ext(u.Path)))
	if guessed == "" {
		return "application/octet-stream"
	}
	mediaType, _, _ := strings.Cut(guessed, ";")
	return strings.TrimSpace(mediaType)
}

// clockTime formats milliseconds as the H:MM:SS used by AVTransport.
func clockTime(ms int) string {
	s := ms / 1000
	return fmt.Sprintf("%d:%02d:%02d", s/3600, s/60%60, s%60)
}

// parseClockTime reads H+:MM:SS with optional fractional seconds.
// NOT_IMPLEMENTED and other non-times report false.
func parseClockTime(v string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 3 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || sec < 0 || sec >= 60 {
		return 0, false
	}
	return (h*3600+m*60)*1000 + int(sec*1000), true
}

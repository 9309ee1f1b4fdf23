package go2tv

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go2tv.app/go2tv/v2/httphandlers"
	"go2tv.app/go2tv/v2/soapcalls"

	"go2tv.app/tizenbridge/internal/adapters"
	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/log"
)

const (
	testRenderer = "http://192.168.1.50:9197/dmr"
	testMedia    = "http://192.168.1.20:8080/media/movie.mp4"
)

type fakePayload struct {
	mu        sync.Mutex
	actions   []string
	seeks     []string
	transport string
	position  []string
	mediaURL  string
	failOn    map[string]error
}

func (f *fakePayload) SendtoTV(action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[action]; err != nil {
		return err
	}
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakePayload) GetTransportInfo() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transport == "" {
		return nil, errors.New("no transport")
	}
	return []string{f.transport, "OK", "1"}, nil
}

func (f *fakePayload) GetPositionInfo() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position, nil
}

func (f *fakePayload) Seek(reltime string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, reltime)
	return nil
}

func (f *fakePayload) ListenAddress() string            { return "192.168.1.20:3500" }
func (f *fakePayload) SetContext(context.Context)       {}
func (f *fakePayload) RawPayload() *soapcalls.TVPayload { return nil }

func (f *fakePayload) servedURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mediaURL
}

func (f *fakePayload) SetMediaURL(mediaURL string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mediaURL = mediaURL
}

func (f *fakePayload) set(transport string, position ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transport = transport
	f.position = position
}

func (f *fakePayload) Actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.actions...)
}

func (f *fakePayload) Seeks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seeks...)
}

type fakeFactory struct {
	payload *fakePayload
	err     error
	opts    *soapcalls.Options
}

func (f *fakeFactory) NewTVPayload(o *soapcalls.Options) (adapters.DLNAPayload, error) {
	f.opts = o
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

type fakeServer struct {
	mu      sync.Mutex
	started bool
	stopped bool
	screen  httphandlers.Screen
}

func (s *fakeServer) StartServer(serverStarted chan<- error, _, _ any, _ *soapcalls.TVPayload, screen httphandlers.Screen) {
	s.mu.Lock()
	s.started = true
	s.screen = screen
	s.mu.Unlock()
	serverStarted <- nil
}

func (s *fakeServer) StopServer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

func (s *fakeServer) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

type fakeServers struct{ server *fakeServer }

func (f fakeServers) New(string) StreamServer { return f.server }

type recorder struct {
	mu     sync.Mutex
	events []string
	times  []int
}

func (r *recorder) add(ev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) listener() adapters.PlaybackListener {
	return adapters.PlaybackListener{
		OnBufferingStart:    func() { r.add("bufferingstart") },
		OnBufferingComplete: func() { r.add("bufferingcomplete") },
		OnStreamCompleted:   func() { r.add("streamcompleted") },
		OnCurrentPlayTime: func(ms int) {
			r.mu.Lock()
			r.times = append(r.times, ms)
			r.mu.Unlock()
		},
	}
}

type harness struct {
	plugin   *AVPlay
	payload  *fakePayload
	factory  *fakeFactory
	server   *fakeServer
	recorder *recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		payload:  &fakePayload{},
		server:   &fakeServer{},
		recorder: &recorder{},
	}
	h.factory = &fakeFactory{payload: h.payload}
	p, err := NewAVPlay(AVPlayOptions{
		RendererURL:     testRenderer,
		Factory:         h.factory,
		Servers:         fakeServers{server: h.server},
		MonitorInterval: 5 * time.Millisecond,
		Logger:          log.Nop(),
	})
	require.NoError(t, err)
	p.SetListener(h.recorder.listener())
	h.plugin = p
	return h
}

func (h *harness) prepare(t *testing.T) {
	t.Helper()
	require.NoError(t, h.plugin.Open(testMedia))
	prepared := make(chan error, 1)
	require.NoError(t, h.plugin.PrepareAsync(func() { prepared <- nil }, func(err error) { prepared <- err }))
	select {
	case err := <-prepared:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("prepare did not complete")
	}
}

func TestAVPlayPrepareConnectsToRenderer(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness(t)
	assert.Equal(t, adapters.PlayerNone, h.plugin.State())

	h.prepare(t)

	assert.Equal(t, adapters.PlayerReady, h.plugin.State())
	assert.Equal(t, testRenderer, h.factory.opts.DMR)
	assert.Equal(t, testMedia, h.factory.opts.Media)
	assert.Equal(t, testMedia, h.payload.servedURL())
	assert.Empty(t, h.payload.Actions())

	require.NoError(t, h.plugin.Close())
	assert.True(t, h.server.Stopped())
	assert.Equal(t, adapters.PlayerNone, h.plugin.State())
}

func TestAVPlayPlayPauseStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness(t)
	h.prepare(t)
	defer h.plugin.Close()

	require.NoError(t, h.plugin.Play())
	assert.Equal(t, adapters.PlayerPlaying, h.plugin.State())
	require.NoError(t, h.plugin.Pause())
	assert.Equal(t, adapters.PlayerPaused, h.plugin.State())
	require.NoError(t, h.plugin.Play())
	require.NoError(t, h.plugin.Stop())
	assert.Equal(t, adapters.PlayerIdle, h.plugin.State())

	assert.Equal(t, []string{"Play1", "Pause", "Play", "Stop"}, h.payload.Actions())
}

func TestAVPlayCallsBeforePrepare(t *testing.T) {
	h := newHarness(t)

	assert.ErrorIs(t, h.plugin.Play(), ErrNotPrepared)
	assert.Error(t, h.plugin.SeekTo(1000, nil, nil))
	assert.Error(t, h.plugin.PrepareAsync(nil, nil))

	require.NoError(t, h.plugin.Open(testMedia))
	require.NoError(t, h.plugin.Stop())
	assert.Equal(t, adapters.PlayerIdle, h.plugin.State())
	require.NoError(t, h.plugin.Close())
}

func TestAVPlayStartPositionAppliedOnFirstPlay(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness(t)
	require.NoError(t, h.plugin.Open(testMedia))
	require.NoError(t, h.plugin.SeekTo(65_000, nil, nil))

	prepared := make(chan struct{})
	require.NoError(t, h.plugin.PrepareAsync(func() { close(prepared) }, nil))
	<-prepared
	defer h.plugin.Close()

	require.NoError(t, h.plugin.Play())
	require.Eventually(t, func() bool { return len(h.payload.Seeks()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"0:01:05"}, h.payload.Seeks())
}

func TestAVPlaySeekCallsBack(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness(t)
	h.prepare(t)
	defer h.plugin.Close()
	require.NoError(t, h.plugin.Play())

	done := make(chan error, 1)
	require.NoError(t, h.plugin.SeekTo(3_725_000, func() { done <- nil }, func(err error) { done <- err }))
	require.NoError(t, <-done)

	assert.Equal(t, []string{"1:02:05"}, h.payload.Seeks())
	assert.Equal(t, 3_725_000, h.plugin.CurrentTime())
}

func TestAVPlayMonitorReportsPlaybackAndEnd(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness(t)
	h.prepare(t)
	defer h.plugin.Close()
	require.NoError(t, h.plugin.Play())

	h.payload.set("TRANSITIONING")
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"bufferingstart"}, h.recorder.Events())
	}, time.Second, 5*time.Millisecond)

	h.payload.set("PLAYING", "0:10:00", "0:00:05")
	require.Eventually(t, func() bool { return h.plugin.CurrentTime() == 5000 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 600_000, h.plugin.Duration())

	h.payload.set("STOPPED")
	require.Eventually(t, func() bool {
		events := h.recorder.Events()
		return len(events) > 0 && events[len(events)-1] == "streamcompleted"
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"bufferingstart", "bufferingcomplete", "streamcompleted"}, h.recorder.Events())
	assert.Equal(t, adapters.PlayerPlaying, h.plugin.State())
	assert.Equal(t, 600_000, h.plugin.CurrentTime())

	require.NoError(t, h.plugin.Play())
	assert.Equal(t, []string{"Play1", "Play1"}, h.payload.Actions())
}

func TestAVPlayRendererPauseIsObserved(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness(t)
	h.prepare(t)
	defer h.plugin.Close()
	require.NoError(t, h.plugin.Play())

	h.server.mu.Lock()
	screen := h.server.screen
	h.server.mu.Unlock()
	screen.EmitMsg("Paused")

	require.Eventually(t, func() bool { return h.plugin.State() == adapters.PlayerPaused }, time.Second, 5*time.Millisecond)
}

func TestAVPlayPrepareFailure(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness(t)
	h.factory.err = errors.New("connection refused")
	require.NoError(t, h.plugin.Open(testMedia))

	failed := make(chan error, 1)
	require.NoError(t, h.plugin.PrepareAsync(func() { failed <- nil }, func(err error) { failed <- err }))
	err := <-failed

	var pErr *domain.PlaybackError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, "PLAYER_ERROR_CONNECTION_FAILED connection refused", pErr.Error())
	assert.Equal(t, adapters.PlayerIdle, h.plugin.State())
	require.NoError(t, h.plugin.Close())
}

func TestAVPlaySuspendRestore(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness(t)
	h.prepare(t)
	defer h.plugin.Close()
	require.NoError(t, h.plugin.Play())

	require.NoError(t, h.plugin.Suspend())
	assert.Equal(t, adapters.PlayerPaused, h.plugin.State())
	require.NoError(t, h.plugin.Restore())
	require.NoError(t, h.plugin.Restore())

	assert.Equal(t, []string{"Play1", "Pause", "Play"}, h.payload.Actions())
}

func TestAVPlayUnsupportedFeatures(t *testing.T) {
	h := newHarness(t)

	var unsupported *domain.UnsupportedFeature
	assert.ErrorAs(t, h.plugin.Open("http://example.com/live/index.m3u8"), &unsupported)
	assert.ErrorAs(t, h.plugin.SetSpeed(2), &unsupported)
	assert.NoError(t, h.plugin.SetSpeed(1))
	_, err := h.plugin.SetDRM(adapters.DRMTypePlayReady, adapters.DRMOperationSetProperties, "{}")
	assert.ErrorAs(t, err, &unsupported)
	_, err = h.plugin.UID(adapters.DRMTypeVerimatrix)
	assert.ErrorAs(t, err, &unsupported)
	assert.Error(t, h.plugin.Open("not a url"))
}

func TestAVPlayStreamingProperties(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.plugin.SetStreamingProperty(adapters.StreamingPropertyMode4K, "TRUE"))

	v, err := h.plugin.StreamingProperty(adapters.StreamingPropertyMode4K)
	require.NoError(t, err)
	assert.Equal(t, "TRUE", v)

	v, err = h.plugin.StreamingProperty(adapters.StreamingPropertyIsLive)
	require.NoError(t, err)
	assert.Equal(t, "0", v)

	_, err = h.plugin.StreamingProperty("CURRENT_BANDWIDTH")
	assert.Error(t, err)
}

func TestClockTime(t *testing.T) {
	assert.Equal(t, "0:00:00", clockTime(0))
	assert.Equal(t, "0:01:05", clockTime(65_400))
	assert.Equal(t, "12:00:01", clockTime(43_201_000))

	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{in: "0:00:05", want: 5000, ok: true},
		{in: "01:02:03.500", want: 3_723_500, ok: true},
		{in: "NOT_IMPLEMENTED"},
		{in: "0:61:00"},
		{in: ""},
	}
	for _, tc := range tests {
		got, ok := parseClockTime(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNormalizeDLNAState(t *testing.T) {
	assert.Equal(t, "paused", normalizeDLNAState("PAUSED_PLAYBACK"))
	assert.Equal(t, "stopped", normalizeDLNAState("NO_MEDIA_PRESENT"))
	assert.Equal(t, "buffering", normalizeDLNAState(" Transitioning "))
	assert.Equal(t, "", normalizeDLNATransport(nil))
}

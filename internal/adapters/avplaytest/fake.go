// Package avplaytest provides an in-memory media plugin for tests.
package avplaytest

import (
	"fmt"
	"strings"
	"sync"

	"go2tv.app/tizenbridge/internal/adapters"
)

// Plugin is a scriptable adapters.AVPlay. Every call is appended to Calls
// as "Method(args)". Fail maps a method name to the error it returns.
//
// Async completions are not fired automatically: PrepareAsync and SeekTo
// park their callbacks until the test calls CompletePrepare or CompleteSeek.
type Plugin struct {
	mu sync.Mutex

	state       adapters.PlayerState
	duration    int
	currentTime int
	props       map[string]string
	listener    adapters.PlaybackListener
	calls       []string
	fail        map[string]error

	prepareOK  func()
	prepareErr func(error)
	seekOK     func()
	seekErr    func(error)

	// Transitions applied by the corresponding calls.
	PlayMovesTo  adapters.PlayerState
	PauseMovesTo adapters.PlayerState
}

var _ adapters.AVPlay = (*Plugin)(nil)

func New() *Plugin {
	return &Plugin{
		state:        adapters.PlayerNone,
		props:        map[string]string{},
		fail:         map[string]error{},
		PlayMovesTo:  adapters.PlayerPlaying,
		PauseMovesTo: adapters.PlayerPaused,
	}
}

func (p *Plugin) record(format string, args ...any) error {
	call := fmt.Sprintf(format, args...)
	p.calls = append(p.calls, call)
	name, _, _ := strings.Cut(call, "(")
	return p.fail[name]
}

// Calls returns a copy of the recorded calls.
func (p *Plugin) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// CallsTo returns the recorded calls of one method.
func (p *Plugin) CallsTo(method string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, c := range p.calls {
		if strings.HasPrefix(c, method+"(") {
			out = append(out, c)
		}
	}
	return out
}

func (p *Plugin) ResetCalls() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
}

// Fail makes method return err until cleared with a nil err.
func (p *Plugin) Fail(method string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.fail, method)
		return
	}
	p.fail[method] = err
}

func (p *Plugin) SetState(s adapters.PlayerState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

func (p *Plugin) SetDuration(ms int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.duration = ms
}

func (p *Plugin) SetCurrentTime(ms int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentTime = ms
}

func (p *Plugin) SetProperty(name, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.props[name] = value
}

// Listener returns the callback table registered by the code under test.
func (p *Plugin) Listener() adapters.PlaybackListener {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.listener
}

// CompletePrepare fires the parked PrepareAsync callback. A nil err
// succeeds and moves the plugin to READY first.
func (p *Plugin) CompletePrepare(err error) bool {
	p.mu.Lock()
	ok, fail := p.prepareOK, p.prepareErr
	p.prepareOK, p.prepareErr = nil, nil
	if ok != nil && err == nil {
		p.state = adapters.PlayerReady
	}
	p.mu.Unlock()

	if ok == nil {
		return false
	}
	if err != nil {
		if fail != nil {
			fail(err)
		}
		return true
	}
	ok()
	return true
}

// CompleteSeek fires the parked SeekTo callback.
func (p *Plugin) CompleteSeek(err error) bool {
	p.mu.Lock()
	ok, fail := p.seekOK, p.seekErr
	p.seekOK, p.seekErr = nil, nil
	p.mu.Unlock()

	if ok == nil && fail == nil {
		return false
	}
	if err != nil {
		if fail != nil {
			fail(err)
		}
		return true
	}
	if ok != nil {
		ok()
	}
	return true
}

func (p *Plugin) Open(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("Open(%s)", url); err != nil {
		return err
	}
	p.state = adapters.PlayerIdle
	return nil
}

func (p *Plugin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("Close()"); err != nil {
		return err
	}
	p.state = adapters.PlayerNone
	return nil
}

func (p *Plugin) PrepareAsync(onSuccess func(), onError func(error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("PrepareAsync()"); err != nil {
		return err
	}
	p.prepareOK, p.prepareErr = onSuccess, onError
	return nil
}

func (p *Plugin) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("Play()"); err != nil {
		return err
	}
	if p.PlayMovesTo != "" {
		p.state = p.PlayMovesTo
	}
	return nil
}

func (p *Plugin) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("Pause()"); err != nil {
		return err
	}
	if p.PauseMovesTo != "" {
		p.state = p.PauseMovesTo
	}
	return nil
}

func (p *Plugin) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("Stop()"); err != nil {
		return err
	}
	if p.state != adapters.PlayerNone {
		p.state = adapters.PlayerIdle
	}
	return nil
}

func (p *Plugin) SeekTo(ms int, onSuccess func(), onError func(error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("SeekTo(%d)", ms); err != nil {
		return err
	}
	p.currentTime = ms
	if onSuccess != nil || onError != nil {
		p.seekOK, p.seekErr = onSuccess, onError
	}
	return nil
}

func (p *Plugin) JumpForward(ms int, onSuccess func(), onError func(error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("JumpForward(%d)", ms); err != nil {
		return err
	}
	p.currentTime += ms
	p.seekOK, p.seekErr = onSuccess, onError
	return nil
}

func (p *Plugin) JumpBackward(ms int, onSuccess func(), onError func(error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("JumpBackward(%d)", ms); err != nil {
		return err
	}
	p.currentTime = max(0, p.currentTime-ms)
	p.seekOK, p.seekErr = onSuccess, onError
	return nil
}

func (p *Plugin) State() adapters.PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Plugin) Duration() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *Plugin) CurrentTime() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentTime
}

func (p *Plugin) SetSpeed(rate int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record("SetSpeed(%d)", rate)
}

func (p *Plugin) SetDisplayRect(x, y, width, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record("SetDisplayRect(%d,%d,%d,%d)", x, y, width, height)
}

func (p *Plugin) SetDisplayMethod(method string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record("SetDisplayMethod(%s)", method)
}

func (p *Plugin) SetStreamingProperty(name, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("SetStreamingProperty(%s,%s)", name, value); err != nil {
		return err
	}
	p.props[name] = value
	return nil
}

func (p *Plugin) StreamingProperty(name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.props[name], nil
}

func (p *Plugin) SetListener(listener adapters.PlaybackListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = listener
}

func (p *Plugin) Suspend() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record("Suspend()")
}

func (p *Plugin) Restore() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record("Restore()")
}

func (p *Plugin) SetDRM(drmType, operation, payload string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("SetDRM(%s,%s,%s)", drmType, operation, payload); err != nil {
		return "", err
	}
	return "", nil
}

func (p *Plugin) UID(drmType string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("UID(%s)", drmType); err != nil {
		return "", err
	}
	return "uid-" + strings.ToLower(drmType), nil
}

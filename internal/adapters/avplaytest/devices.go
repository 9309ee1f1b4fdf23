package avplaytest

import (
	"context"
	"sync"

	"go2tv.app/tizenbridge/internal/adapters"
	"go2tv.app/tizenbridge/internal/domain"
)

// Audio is an in-memory adapters.AudioControl.
type Audio struct {
	mu       sync.Mutex
	volume   int
	muted    bool
	step     int
	listener func(int)
	Sets     []int
}

var _ adapters.AudioControl = (*Audio)(nil)

func NewAudio(volume int) *Audio {
	return &Audio{volume: volume, step: 1}
}

func (a *Audio) Volume() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.volume, nil
}

func (a *Audio) SetVolume(volume int) error {
	a.mu.Lock()
	a.volume = volume
	a.Sets = append(a.Sets, volume)
	listener := a.listener
	a.mu.Unlock()
	if listener != nil {
		listener(volume)
	}
	return nil
}

func (a *Audio) VolumeUp() error {
	a.mu.Lock()
	v := min(100, a.volume+a.step)
	a.mu.Unlock()
	return a.SetVolume(v)
}

func (a *Audio) VolumeDown() error {
	a.mu.Lock()
	v := max(0, a.volume-a.step)
	a.mu.Unlock()
	return a.SetVolume(v)
}

func (a *Audio) Muted() (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.muted, nil
}

func (a *Audio) SetMuted(muted bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.muted = muted
	return nil
}

func (a *Audio) SetVolumeChangeListener(listener func(int)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = listener
}

func (a *Audio) UnsetVolumeChangeListener() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = nil
}

// HasListener reports whether a volume listener is registered.
func (a *Audio) HasListener() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listener != nil
}

// Screensaver records SetScreenSaver calls.
type Screensaver struct {
	mu    sync.Mutex
	calls []bool
}

var _ adapters.AppCommon = (*Screensaver)(nil)

func (s *Screensaver) SetScreenSaver(_ context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, enabled)
	return nil
}

func (s *Screensaver) Calls() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.calls...)
}

// Product answers panel capability questions with fixed values.
type Product struct {
	UHD   bool
	UHD8K bool
}

var _ adapters.ProductInfo = Product{}

func (p Product) IsUDPanelSupported() bool { return p.UHD }
func (p Product) Is8KPanelSupported() bool { return p.UHD8K }
func (p Product) DUID() string             { return "TESTDUID0001" }
func (p Product) Firmware() string         { return "T-KTMAKUC-1250.3" }

// Surface records geometry updates.
type Surface struct {
	mu       sync.Mutex
	geometry []domain.Rect
	removed  bool
}

var _ adapters.VideoSurface = (*Surface)(nil)

func (s *Surface) SetGeometry(rect domain.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.geometry = append(s.geometry, rect)
}

func (s *Surface) Remove() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = true
}

func (s *Surface) Removed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removed
}

func (s *Surface) Geometry() []domain.Rect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Rect(nil), s.geometry...)
}

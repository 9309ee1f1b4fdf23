package desktop

import (
	"sync"

	"go2tv.app/tizenbridge/internal/adapters"
)

var _ adapters.AudioControl = (*Audio)(nil)

// Audio is a software volume channel. The renderer is told about volume
// changes through the change listener.
type Audio struct {
	mu       sync.Mutex
	volume   int
	muted    bool
	listener func(int)
}

func NewAudio(volume int) *Audio {
	return &Audio{volume: clampVolume(volume)}
}

func clampVolume(v int) int { return min(100, max(0, v)) }

func (a *Audio) Volume() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.volume, nil
}

func (a *Audio) SetVolume(volume int) error {
	a.mu.Lock()
	volume = clampVolume(volume)
	changed := volume != a.volume
	a.volume = volume
	listener := a.listener
	a.mu.Unlock()

	if changed && listener != nil {
		listener(volume)
	}
	return nil
}

func (a *Audio) VolumeUp() error {
	v, _ := a.Volume()
	return a.SetVolume(v + 1)
}

func (a *Audio) VolumeDown() error {
	v, _ := a.Volume()
	return a.SetVolume(v - 1)
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

// SetVolumeChangeListener replaces the current listener.
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

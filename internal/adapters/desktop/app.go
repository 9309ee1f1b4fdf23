package desktop

import (
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"go2tv.app/tizenbridge/internal/adapters"
	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/log"
)

var _ adapters.InputDevice = (*Keys)(nil)

// Keys keeps the set of registered remote keys. A desktop has no remote,
// so registration only records intent.
type Keys struct {
	logger zerolog.Logger

	mu   sync.Mutex
	keys []string
}

func NewKeys(logger zerolog.Logger) *Keys {
	return &Keys{logger: logger.With().Str(log.FieldComponent, "keys").Logger()}
}

func (k *Keys) RegisterKey(name string) error {
	if name == "" {
		return errors.New("empty key name")
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if !slices.Contains(k.keys, name) {
		k.keys = append(k.keys, name)
	}
	k.logger.Debug().Str("key", name).Msg("key_registered")
	return nil
}

func (k *Keys) UnregisterKey(name string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	i := slices.Index(k.keys, name)
	if i < 0 {
		return errors.New("key " + name + " is not registered")
	}
	k.keys = slices.Delete(k.keys, i, i+1)
	return nil
}

func (k *Keys) Registered() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return slices.Clone(k.keys)
}

var _ adapters.VideoSurface = (*Surface)(nil)

// Surface tracks where the picture would be drawn. The renderer owns the
// real screen, so only the geometry is kept.
type Surface struct {
	logger zerolog.Logger

	mu       sync.Mutex
	geometry domain.Rect
	removed  bool
}

func NewSurface(logger zerolog.Logger) *Surface {
	return &Surface{logger: logger.With().Str(log.FieldComponent, "surface").Logger()}
}

func (s *Surface) SetGeometry(rect domain.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.geometry = rect
	s.removed = false
	s.logger.Debug().Str("rect", rect.String()).Msg("surface_geometry")
}

func (s *Surface) Remove() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = true
}

func (s *Surface) Geometry() (domain.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.geometry, !s.removed
}

var _ adapters.Application = (*Application)(nil)

// Application maps exit and hide onto process callbacks. The launch
// payload, when set, is served as the PAYLOAD app control entry.
type Application struct {
	onExit  func()
	onHide  func()
	payload string
}

func NewApplication(payload string, onExit, onHide func()) *Application {
	return &Application{payload: payload, onExit: onExit, onHide: onHide}
}

func (a *Application) Exit() {
	if a.onExit != nil {
		a.onExit()
	}
}

func (a *Application) Hide() {
	if a.onHide != nil {
		a.onHide()
	}
}

func (a *Application) AppControlData(key string) ([]string, bool) {
	if key != "PAYLOAD" || a.payload == "" {
		return nil, false
	}
	return []string{a.payload}, true
}

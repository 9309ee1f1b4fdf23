package avplaytest

import (
	"context"
	"errors"
	"maps"
	"sync"

	"go2tv.app/tizenbridge/internal/adapters"
)

// ErrNoProperty is returned by SystemInfo for a property it does not hold.
var ErrNoProperty = errors.New("property not available")

// SystemInfo is an in-memory adapters.SystemInfo. Properties listed in
// Block wait for the context to end.
type SystemInfo struct {
	Capabilities map[string]string
	Properties   map[string]map[string]string
	Block        map[string]bool

	mu      sync.Mutex
	fetched []string
}

var _ adapters.SystemInfo = (*SystemInfo)(nil)

func (s *SystemInfo) Capability(key string) (string, error) {
	v, ok := s.Capabilities[key]
	if !ok {
		return "", ErrNoProperty
	}
	return v, nil
}

func (s *SystemInfo) Property(ctx context.Context, name string) (map[string]string, error) {
	s.mu.Lock()
	s.fetched = append(s.fetched, name)
	s.mu.Unlock()

	if s.Block[name] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	v, ok := s.Properties[name]
	if !ok {
		return nil, ErrNoProperty
	}
	return maps.Clone(v), nil
}

// Fetched returns the requested property names in call order.
func (s *SystemInfo) Fetched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.fetched...)
}

// Keys records key registrations. Keys listed in Fail are refused.
type Keys struct {
	Fail map[string]bool

	mu         sync.Mutex
	registered []string
}

var _ adapters.InputDevice = (*Keys)(nil)

func (k *Keys) RegisterKey(name string) error {
	if k.Fail[name] {
		return errors.New("key " + name + " is not available")
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.registered = append(k.registered, name)
	return nil
}

func (k *Keys) UnregisterKey(name string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	for i, r := range k.registered {
		if r == name {
			k.registered = append(k.registered[:i], k.registered[i+1:]...)
			return nil
		}
	}
	return errors.New("key " + name + " is not registered")
}

func (k *Keys) Registered() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]string(nil), k.registered...)
}

// Application is an in-memory adapters.Application.
type Application struct {
	Control map[string][]string

	mu     sync.Mutex
	exited bool
	hidden bool
}

var _ adapters.Application = (*Application)(nil)

func (a *Application) Exit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.exited = true
}

func (a *Application) Hide() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hidden = true
}

func (a *Application) AppControlData(key string) ([]string, bool) {
	v, ok := a.Control[key]
	return v, ok
}

func (a *Application) Exited() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.exited
}

func (a *Application) Hidden() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hidden
}

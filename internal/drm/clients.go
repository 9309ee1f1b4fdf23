package drm

import (
	"context"
	"sync"

	"go2tv.app/tizenbridge/internal/domain"
)

// StaticPlayReady is a PlayReady client whose credentials are known up
// front, as when they come from configuration.
type StaticPlayReady struct {
	Data   string
	Server string

	mu      sync.Mutex
	handler func(error)
}

var _ PlayReadyClient = (*StaticPlayReady)(nil)

func (c *StaticPlayReady) Type() domain.DRMType          { return domain.DRMPlayReady }
func (c *StaticPlayReady) Init(context.Context) error    { return nil }
func (c *StaticPlayReady) Prepare(context.Context) error { return nil }
func (c *StaticPlayReady) CustomData() string            { return c.Data }
func (c *StaticPlayReady) LicenseServer() string         { return c.Server }

func (c *StaticPlayReady) SetErrorHandler(handler func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

// StaticVerimatrix is the Verimatrix counterpart of StaticPlayReady.
type StaticVerimatrix struct {
	Config VerimatrixParams

	mu      sync.Mutex
	handler func(error)
}

var _ VerimatrixClient = (*StaticVerimatrix)(nil)

func (c *StaticVerimatrix) Type() domain.DRMType          { return domain.DRMVerimatrix }
func (c *StaticVerimatrix) Init(context.Context) error    { return nil }
func (c *StaticVerimatrix) Prepare(context.Context) error { return nil }
func (c *StaticVerimatrix) Params() VerimatrixParams      { return c.Config }

func (c *StaticVerimatrix) SetErrorHandler(handler func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

// Package drm drives the media plugin's DRM channel for each supported
// content protection scheme.
package drm

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"go2tv.app/tizenbridge/internal/adapters"
	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/log"
	"go2tv.app/tizenbridge/internal/metrics"
	"go2tv.app/tizenbridge/internal/version"
)

// Platforms from this version finalize the DRM session on plugin close.
const implicitFinalizeVersion = "5.0"

// Client is the application side of a DRM session.
type Client interface {
	Type() domain.DRMType
	Init(ctx context.Context) error
	Prepare(ctx context.Context) error
	// SetErrorHandler registers the single receiver of asynchronous client
	// errors; nil unregisters.
	SetErrorHandler(handler func(error))
}

type PlayReadyClient interface {
	Client
	CustomData() string
	LicenseServer() string
}

type VerimatrixParams struct {
	Company string `json:"company" yaml:"company"`
	Address string `json:"address" yaml:"address"`
	IPTV    string `json:"iptv" yaml:"iptv"`
}

type VerimatrixClient interface {
	Client
	Params() VerimatrixParams
}

// Hook binds one Client to the plugin for the duration of one open/close
// bracket. Prepare must complete before the plugin's own prepare; Destroy
// must run between plugin stop and plugin close.
type Hook interface {
	Type() domain.DRMType
	Prepare(ctx context.Context) error
	Destroy()
	OnAVPlayEvent(data map[string]any)
	SetErrorHandler(handler func(error))
}

// IsSupported reports whether New accepts clients of type t.
func IsSupported(t domain.DRMType) bool {
	return t == domain.DRMPlayReady || t == domain.DRMVerimatrix
}

// CanHandleMultiDRM reports that several hooks may be attached at once.
func CanHandleMultiDRM() bool { return true }

// TypeFromVendor maps the plugin's DRM identifiers to domain types.
func TypeFromVendor(vendorType string) (domain.DRMType, bool) {
	switch vendorType {
	case adapters.DRMTypePlayReady:
		return domain.DRMPlayReady, true
	case adapters.DRMTypeVerimatrix:
		return domain.DRMVerimatrix, true
	}
	return "", false
}

// New builds the hook for the client's scheme and starts its async init.
func New(client Client, plugin adapters.AVPlay, platformVersion string, logger zerolog.Logger) (Hook, error) {
	switch client.Type() {
	case domain.DRMPlayReady:
		c, ok := client.(PlayReadyClient)
		if !ok {
			return nil, fmt.Errorf("client of type %s does not expose PlayReady credentials", client.Type())
		}
		h := &PlayReadyHook{client: c}
		h.base = newBase(client, plugin, adapters.DRMTypePlayReady, platformVersion, logger)
		h.start(h.base.initClient)
		return h, nil
	case domain.DRMVerimatrix:
		c, ok := client.(VerimatrixClient)
		if !ok {
			return nil, fmt.Errorf("client of type %s does not expose Verimatrix params", client.Type())
		}
		h := &VerimatrixHook{client: c}
		h.base = newBase(client, plugin, adapters.DRMTypeVerimatrix, platformVersion, logger)
		h.start(h.init)
		return h, nil
	default:
		return nil, domain.NewUnsupportedFeature(fmt.Sprintf("%s DRM", client.Type()))
	}
}

type base struct {
	client       Client
	plugin       adapters.AVPlay
	vendorType   string
	higherThan5  bool
	logger       zerolog.Logger
	ctx          context.Context
	cancel       context.CancelFunc
	initDone     chan struct{}
	initErr      error
	mu           sync.Mutex
	destroyed    bool
	propertiesOK bool
	onError      func(error)
}

func newBase(client Client, plugin adapters.AVPlay, vendorType, platformVersion string, logger zerolog.Logger) *base {
	ctx, cancel := context.WithCancel(context.Background())
	b := &base{
		client:      client,
		plugin:      plugin,
		vendorType:  vendorType,
		higherThan5: version.IsGTE(platformVersion, implicitFinalizeVersion),
		logger:      logger.With().Str(log.FieldDRM, string(client.Type())).Logger(),
		ctx:         ctx,
		cancel:      cancel,
		initDone:    make(chan struct{}),
	}
	client.SetErrorHandler(b.emit)
	metrics.DRMHooksActive.WithLabelValues(string(client.Type())).Inc()
	return b
}

func (b *base) start(init func(ctx context.Context) error) {
	go func() {
		defer close(b.initDone)
		b.initErr = init(b.ctx)
	}()
}

func (b *base) initClient(ctx context.Context) error {
	return b.client.Init(ctx)
}

func (b *base) Type() domain.DRMType { return b.client.Type() }

func (b *base) SetErrorHandler(handler func(error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = handler
}

func (b *base) OnAVPlayEvent(map[string]any) {}

func (b *base) emit(err error) {
	if err == nil {
		return
	}
	b.mu.Lock()
	handler := b.onError
	b.mu.Unlock()
	if handler != nil {
		handler(err)
		return
	}
	b.logger.Warn().Err(err).Msg("drm_error_unhandled")
}

func (b *base) assertAlive() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return domain.ErrHookDestroyed
	}
	return nil
}

// prepareClient waits for init, then prepares the client.
func (b *base) prepareClient(ctx context.Context) error {
	select {
	case <-b.initDone:
	case <-ctx.Done():
		return ctx.Err()
	}
	if b.initErr != nil {
		if err := b.assertAlive(); err != nil {
			return err
		}
		return fmt.Errorf("%s init: %w", b.client.Type(), b.initErr)
	}
	if err := b.assertAlive(); err != nil {
		return err
	}
	if err := b.client.Prepare(ctx); err != nil {
		return fmt.Errorf("%s prepare: %w", b.client.Type(), err)
	}
	return b.assertAlive()
}

// setProperties issues the property call. Failures go to the error handler.
func (b *base) setProperties(operation, payload string) {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return
	}
	_, err := b.plugin.SetDRM(b.vendorType, operation, payload)
	if err == nil {
		b.propertiesOK = true
	}
	b.mu.Unlock()

	if err != nil {
		b.emit(fmt.Errorf("%s %s: %w", b.vendorType, operation, err))
		return
	}
	b.logger.Debug().Str(log.FieldOperation, operation).Msg("drm_properties_set")
}

func (b *base) Destroy() {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return
	}
	b.destroyed = true
	finalize := b.propertiesOK && !b.higherThan5
	b.onError = nil
	b.mu.Unlock()

	b.cancel()
	if finalize {
		if _, err := b.plugin.SetDRM(b.vendorType, adapters.DRMOperationFinalize, ""); err != nil {
			b.logger.Warn().Err(err).Msg("drm_finalize_failed")
		}
	}
	b.client.SetErrorHandler(nil)
	metrics.DRMHooksActive.WithLabelValues(string(b.client.Type())).Dec()
}

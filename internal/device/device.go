// Package device exposes the platform around the video adapter: identity,
// network, input keys, screensaver and launch parameters.
package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"go2tv.app/tizenbridge/internal/adapters"
	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/log"
	"go2tv.app/tizenbridge/internal/metrics"
	"go2tv.app/tizenbridge/internal/video"
	"go2tv.app/tizenbridge/internal/viewport"
)

const (
	launchPayloadKey   = "PAYLOAD"
	screensaverTimeout = 5 * time.Second
)

type Config struct {
	System  adapters.SystemInfo
	Product adapters.ProductInfo
	Audio   adapters.AudioControl
	Screen  adapters.AppCommon
	Keys    adapters.InputDevice
	App     adapters.Application
	Plugin  adapters.AVPlay
	Surface adapters.VideoSurface

	// AppResolution is the resolution the application lays out at.
	AppResolution domain.Resolution
	// PlatformVersion overrides the version reported by the platform.
	PlatformVersion string
	PropertyTimeout time.Duration

	Logger zerolog.Logger
}

type Device struct {
	cfg    Config
	logger zerolog.Logger
	info   *Info
	input  *Input

	ready     chan struct{}
	readyOnce sync.Once

	// screensaverMu serializes screensaver jobs in request order.
	screensaverMu sync.Mutex
}

// Detect reports whether system reports a platform this package can drive.
func Detect(system adapters.SystemInfo) bool {
	if system == nil {
		return false
	}
	v, err := system.Capability(adapters.CapabilityPlatformVersion)
	return err == nil && v != ""
}

func New(cfg Config) (*Device, error) {
	var errs []error
	if cfg.System == nil {
		errs = append(errs, errors.New("system info is required"))
	}
	if cfg.Product == nil {
		errs = append(errs, errors.New("product info is required"))
	}
	if cfg.Screen == nil {
		errs = append(errs, errors.New("screensaver control is required"))
	}
	if cfg.Keys == nil {
		errs = append(errs, errors.New("input device is required"))
	}
	if cfg.App == nil {
		errs = append(errs, errors.New("application is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("device: %w", err)
	}
	if cfg.AppResolution.Width == 0 {
		cfg.AppResolution = domain.ResolutionFHD
	}

	return &Device{
		cfg:    cfg,
		logger: cfg.Logger.With().Str(log.FieldComponent, "device").Logger(),
		info:   NewInfo(cfg.System, cfg.Product, cfg.PropertyTimeout, cfg.Logger),
		input:  NewInput(cfg.Keys, cfg.Logger),
		ready:  make(chan struct{}),
	}, nil
}

// Init loads the device info and then marks the device ready.
func (d *Device) Init(ctx context.Context) error {
	if err := d.info.Init(ctx); err != nil {
		return err
	}
	d.readyOnce.Do(func() { close(d.ready) })
	d.logger.Info().
		Str("model", d.info.Model()).
		Str("platform_version", d.PlatformVersion()).
		Str("locale", d.info.Locale()).
		Msg("device_ready")
	return nil
}

// Ready is closed once Init has completed.
func (d *Device) Ready() <-chan struct{} { return d.ready }

func (d *Device) Info() *Info   { return d.info }
func (d *Device) Input() *Input { return d.input }

// PlatformVersion is the configured override or the reported version.
func (d *Device) PlatformVersion() string {
	if d.cfg.PlatformVersion != "" {
		return d.cfg.PlatformVersion
	}
	return d.info.Version()
}

// PanelResolution falls back to the product panel flags when the platform
// does not report a screen size.
func (d *Device) PanelResolution() domain.Resolution {
	r, err := d.info.PanelResolution()
	if err == nil {
		return r
	}
	d.logger.Debug().Err(err).Msg("panel_resolution_from_product")
	switch {
	case d.cfg.Product.Is8KPanelSupported():
		return domain.ResolutionUHD8K
	case d.cfg.Product.IsUDPanelSupported():
		return domain.ResolutionUHD4K
	default:
		return domain.ResolutionFHD
	}
}

// CreateVideo builds a player on the device plugin. A non-empty area is
// applied to the viewport before the player is returned.
func (d *Device) CreateVideo(ctx context.Context, area domain.Rect, opts video.PlayerOptions) (*video.Player, error) {
	if d.cfg.Plugin == nil || d.cfg.Surface == nil || d.cfg.Audio == nil {
		return nil, errors.New("device: media plugin is not configured")
	}
	p, err := video.NewPlayer(video.Config{
		Plugin:          d.cfg.Plugin,
		Audio:           d.cfg.Audio,
		Screen:          d.cfg.Screen,
		Product:         d.cfg.Product,
		Surface:         d.cfg.Surface,
		PanelResolution: d.PanelResolution(),
		AppResolution:   d.cfg.AppResolution,
		PlatformVersion: d.PlatformVersion(),
		Logger:          d.cfg.Logger,
	}, opts)
	if err != nil {
		return nil, err
	}
	if area == (domain.Rect{}) {
		return p, nil
	}
	if err := p.WithViewport(ctx, func(v *viewport.ViewPort) error { return v.SetArea(area) }); err != nil {
		return nil, errors.Join(fmt.Errorf("set video area: %w", err), p.Close(ctx))
	}
	return p, nil
}

// MAC prefers the wired interface.
func (d *Device) MAC() string { return d.network("macAddress") }

// IP prefers the wired interface.
func (d *Device) IP() string { return d.network("ipAddress") }

func (d *Device) network(field string) string {
	if v := d.info.Property(PropertyEthernet)[field]; v != "" {
		return v
	}
	return d.info.Property(PropertyWifi)[field]
}

func (d *Device) Exit() { d.cfg.App.Exit() }
func (d *Device) Hide() { d.cfg.App.Hide() }

func (d *Device) IsUHDSupported() bool { return d.cfg.Product.IsUDPanelSupported() }

// LaunchParams decodes the parameters the application was launched with.
// The PAYLOAD entry holds JSON whose "values" member is itself a JSON
// document. Anything malformed yields an empty map.
func (d *Device) LaunchParams() map[string]any {
	params := map[string]any{}
	data, ok := d.cfg.App.AppControlData(launchPayloadKey)
	if !ok || len(data) == 0 {
		return params
	}

	var payload struct {
		Values string `json:"values"`
	}
	if err := json.Unmarshal([]byte(data[0]), &payload); err != nil {
		d.logger.Warn().Err(err).Msg("launch_payload_malformed")
		return params
	}
	if payload.Values == "" {
		return params
	}
	if err := json.Unmarshal([]byte(payload.Values), &params); err != nil {
		d.logger.Warn().Err(err).Msg("launch_params_malformed")
		return map[string]any{}
	}
	return params
}

// EnableScreensaver turns the platform screensaver on or off. Concurrent
// calls run one at a time in the order they acquire the device.
func (d *Device) EnableScreensaver(ctx context.Context, enabled bool) error {
	d.screensaverMu.Lock()
	defer d.screensaverMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, screensaverTimeout)
	defer cancel()
	if err := d.cfg.Screen.SetScreenSaver(ctx, enabled); err != nil {
		d.logger.Error().Err(err).Bool("enabled", enabled).Msg("screensaver_change_failed")
		return fmt.Errorf("set screensaver: %w", err)
	}
	target := "off"
	if enabled {
		target = "on"
	}
	metrics.ScreensaverCallsTotal.WithLabelValues(target).Inc()
	return nil
}

func (d *Device) HasOSDOpacityFeature() bool       { return false }
func (d *Device) HasOSDAlphaBlendingFeature() bool { return true }
func (d *Device) HasOSDChromaKeyFeature() bool     { return false }

func (d *Device) SetOSDOpacity(float64) error {
	return domain.NewUnsupportedFeature("OSD opacity setting")
}

func (d *Device) OSDOpacity() (float64, error) {
	return 0, domain.NewUnsupportedFeature("OSD opacity getting")
}

func (d *Device) SetOSDChromaKey(string) error {
	return domain.NewUnsupportedFeature("OSD chroma key setting")
}

func (d *Device) OSDChromaKey() (string, error) {
	return "", domain.NewUnsupportedFeature("OSD chroma key getting")
}

func (d *Device) RemoveOSDChromaKey() error {
	return domain.NewUnsupportedFeature("OSD chroma key removing")
}

func (d *Device) Environment() (map[string]string, error) {
	return nil, domain.NewUnsupportedFeature("Environment getting")
}

// Package config loads the bridge configuration: defaults, then an
// optional YAML file, then TIZENBRIDGE_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/drm"
	"go2tv.app/tizenbridge/internal/log"
	"go2tv.app/tizenbridge/internal/version"
)

const EnvPrefix = "TIZENBRIDGE_"

type Config struct {
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`

	Renderer RendererConfig `yaml:"renderer"`
	Video    VideoConfig    `yaml:"video"`
	Device   DeviceConfig   `yaml:"device"`
	DRM      DRMConfig      `yaml:"drm"`
}

// RendererConfig selects the DLNA renderer that backs the media plugin.
type RendererConfig struct {
	// Address is the renderer's device description URL. Empty means the
	// first renderer found by discovery.
	Address          string        `yaml:"address"`
	DiscoveryTimeout time.Duration `yaml:"discovery_timeout"`
}

type VideoConfig struct {
	// AppResolution names the layout resolution: HD, FHD, 4K or 8K.
	AppResolution   string        `yaml:"app_resolution"`
	PlatformVersion string        `yaml:"platform_version"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	PlayTimeout     time.Duration `yaml:"play_timeout"`
}

// DeviceConfig describes the host when it is not a TV.
type DeviceConfig struct {
	DUID          string                       `yaml:"duid"`
	Firmware      string                       `yaml:"firmware"`
	UHD           bool                         `yaml:"uhd"`
	UHD8K         bool                         `yaml:"uhd_8k"`
	Volume        int                          `yaml:"volume"`
	Capabilities  map[string]string            `yaml:"capabilities"`
	Properties    map[string]map[string]string `yaml:"properties"`
	LaunchPayload string                       `yaml:"launch_payload"`
}

type DRMConfig struct {
	PlayReady  *PlayReadyConfig      `yaml:"playready"`
	Verimatrix *drm.VerimatrixParams `yaml:"verimatrix"`
}

type PlayReadyConfig struct {
	CustomData    string `yaml:"custom_data"`
	LicenseServer string `yaml:"license_server"`
}

func Defaults() Config {
	return Config{
		LogLevel: "info",
		Renderer: RendererConfig{DiscoveryTimeout: 3 * time.Second},
		Video: VideoConfig{
			AppResolution: domain.ResolutionFHD.Name,
			PollInterval:  100 * time.Millisecond,
			PlayTimeout:   30 * time.Second,
		},
		Device: DeviceConfig{
			DUID:     "TIZENBRIDGE0001",
			Firmware: "desktop",
			Volume:   50,
		},
	}
}

// Loader applies the configuration layers in order.
type Loader struct {
	path   string
	lookup func(string) (string, bool)
	logger zerolog.Logger
}

func NewLoader(path string) *Loader {
	return &Loader{
		path:   path,
		lookup: os.LookupEnv,
		logger: log.WithComponent("config"),
	}
}

// Load returns the validated configuration: ENV > file > defaults.
func (l *Loader) Load() (Config, error) {
	cfg := Defaults()

	if l.path != "" {
		if err := l.loadFile(&cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := l.mergeEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (l *Loader) loadFile(cfg *Config) error {
	path := filepath.Clean(l.path)
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- the path is provided by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("config file contains multiple documents or trailing content")
	}
	l.logger.Debug().Str("path", path).Msg("config_file_loaded")
	return nil
}

func (l *Loader) mergeEnv(cfg *Config) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := l.env(key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := l.env(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	str("LOG_LEVEL", &cfg.LogLevel)
	str("METRICS_ADDR", &cfg.MetricsAddr)
	str("RENDERER", &cfg.Renderer.Address)
	dur("DISCOVERY_TIMEOUT", &cfg.Renderer.DiscoveryTimeout)
	str("APP_RESOLUTION", &cfg.Video.AppResolution)
	str("PLATFORM_VERSION", &cfg.Video.PlatformVersion)
	dur("POLL_INTERVAL", &cfg.Video.PollInterval)
	dur("PLAY_TIMEOUT", &cfg.Video.PlayTimeout)
	str("LAUNCH_PAYLOAD", &cfg.Device.LaunchPayload)

	if v, ok := l.env("VOLUME"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sVOLUME: %w", EnvPrefix, err))
		} else {
			cfg.Device.Volume = n
		}
	}

	if v, ok := l.env("PLAYREADY_LICENSE_SERVER"); ok {
		if cfg.DRM.PlayReady == nil {
			cfg.DRM.PlayReady = &PlayReadyConfig{}
		}
		cfg.DRM.PlayReady.LicenseServer = v
	}
	if v, ok := l.env("PLAYREADY_CUSTOM_DATA"); ok {
		if cfg.DRM.PlayReady == nil {
			cfg.DRM.PlayReady = &PlayReadyConfig{}
		}
		cfg.DRM.PlayReady.CustomData = v
	}
	return errors.Join(errs...)
}

// env looks up EnvPrefix+key. Empty values count as unset.
func (l *Loader) env(key string) (string, bool) {
	v, ok := l.lookup(EnvPrefix + key)
	if !ok || v == "" {
		return "", false
	}
	l.logger.Debug().Str("key", EnvPrefix+key).Str("source", "environment").Msg("using environment variable")
	return v, true
}

func (c Config) Validate() error {
	var errs []error
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level %q: %w", c.LogLevel, err))
	}
	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			errs = append(errs, fmt.Errorf("metrics_addr %q: %w", c.MetricsAddr, err))
		}
	}
	if c.Renderer.DiscoveryTimeout <= 0 {
		errs = append(errs, errors.New("renderer.discovery_timeout must be positive"))
	}
	if _, err := c.AppResolution(); err != nil {
		errs = append(errs, err)
	}
	if v := c.Video.PlatformVersion; v != "" && !version.IsValid(v) {
		errs = append(errs, fmt.Errorf("video.platform_version %q is not a dotted version", v))
	}
	if c.Video.PollInterval < 10*time.Millisecond {
		errs = append(errs, errors.New("video.poll_interval must be at least 10ms"))
	}
	if c.Video.PlayTimeout <= 0 {
		errs = append(errs, errors.New("video.play_timeout must be positive"))
	}
	if c.Device.Volume < 0 || c.Device.Volume > 100 {
		errs = append(errs, fmt.Errorf("device.volume %d is outside 0..100", c.Device.Volume))
	}
	if vmx := c.DRM.Verimatrix; vmx != nil && vmx.Address == "" {
		errs = append(errs, errors.New("drm.verimatrix.address is required"))
	}
	return errors.Join(errs...)
}

// AppResolution resolves Video.AppResolution by name.
func (c Config) AppResolution() (domain.Resolution, error) {
	for _, r := range domain.KnownResolutions {
		if strings.EqualFold(r.Name, c.Video.AppResolution) {
			return r, nil
		}
	}
	return domain.Resolution{}, fmt.Errorf("video.app_resolution %q is not one of HD, FHD, 4K, 8K", c.Video.AppResolution)
}

// DRMClients builds a client for every configured scheme.
func (c Config) DRMClients() []drm.Client {
	var clients []drm.Client
	if pr := c.DRM.PlayReady; pr != nil {
		clients = append(clients, &drm.StaticPlayReady{Data: pr.CustomData, Server: pr.LicenseServer})
	}
	if vmx := c.DRM.Verimatrix; vmx != nil {
		clients = append(clients, &drm.StaticVerimatrix{Config: *vmx})
	}
	return clients
}

package device

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"go2tv.app/tizenbridge/internal/adapters"
	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/log"
)

// System properties fetched by Info.Init.
const (
	PropertyBuild    = "BUILD"
	PropertyWifi     = "WIFI_NETWORK"
	PropertyDisplay  = "DISPLAY"
	PropertyEthernet = "ETHERNET_NETWORK"
	PropertyLocale   = "LOCALE"
)

const defaultPropertyTimeout = 3 * time.Second

var initProperties = []string{PropertyBuild, PropertyWifi, PropertyDisplay, PropertyEthernet, PropertyLocale}

// Info caches device identity and the system properties fetched at Init.
// Accessors are synchronous and safe for concurrent use.
type Info struct {
	system  adapters.SystemInfo
	product adapters.ProductInfo
	timeout time.Duration
	logger  zerolog.Logger

	mu         sync.RWMutex
	properties map[string]map[string]string
}

func NewInfo(system adapters.SystemInfo, product adapters.ProductInfo, timeout time.Duration, logger zerolog.Logger) *Info {
	if timeout <= 0 {
		timeout = defaultPropertyTimeout
	}
	return &Info{
		system:     system,
		product:    product,
		timeout:    timeout,
		logger:     logger.With().Str(log.FieldComponent, "device_info").Logger(),
		properties: map[string]map[string]string{},
	}
}

// Init fetches the system properties concurrently. A property that fails
// or times out is stored empty; only cancellation of ctx is an error.
func (i *Info) Init(ctx context.Context) error {
	values := make([]map[string]string, len(initProperties))

	g, gctx := errgroup.WithContext(ctx)
	for n, name := range initProperties {
		g.Go(func() error {
			values[n] = i.fetch(gctx, name)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("fetch system properties: %w", err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	for n, name := range initProperties {
		i.properties[name] = values[n]
	}
	return nil
}

func (i *Info) fetch(ctx context.Context, name string) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	v, err := i.system.Property(ctx, name)
	if err != nil {
		i.logger.Warn().Err(err).Str("property", name).Msg("system_property_unavailable")
		return map[string]string{}
	}
	if v == nil {
		return map[string]string{}
	}
	return v
}

// Property returns a copy of a fetched property, empty when unknown.
func (i *Info) Property(name string) map[string]string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	v := maps.Clone(i.properties[name])
	if v == nil {
		v = map[string]string{}
	}
	return v
}

func (i *Info) Type() string         { return "tizen" }
func (i *Info) Manufacturer() string { return "Samsung" }

func (i *Info) Model() string { return i.Property(PropertyBuild)["model"] }

func (i *Info) SerialNumber() string { return i.product.DUID() }

// Version is the platform version, empty when the capability is missing.
func (i *Info) Version() string { return i.capability(adapters.CapabilityPlatformVersion) }

func (i *Info) SoftwareVersion() string { return i.capability(adapters.CapabilityWebAPIVersion) }

func (i *Info) HardwareVersion() string { return i.capability(adapters.CapabilityNativeAPIVersion) }

func (i *Info) Firmware() string { return i.product.Firmware() }

func (i *Info) capability(key string) string {
	v, err := i.system.Capability(key)
	if err != nil {
		i.logger.Debug().Err(err).Str("capability", key).Msg("capability_unavailable")
		return ""
	}
	return v
}

// OSDResolution is the resolution the UI layer renders at.
func (i *Info) OSDResolution() domain.Resolution {
	display := i.Property(PropertyDisplay)
	width, _ := strconv.Atoi(display["resolutionWidth"])
	height, _ := strconv.Atoi(display["resolutionHeight"])
	if r, ok := domain.ResolutionBySize(width, height); ok {
		return r
	}
	return domain.ResolutionHD
}

// PanelResolution is the physical screen size reported by the platform.
func (i *Info) PanelResolution() (domain.Resolution, error) {
	width, err := strconv.Atoi(i.capability(adapters.CapabilityScreenWidth))
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("screen width: %w", err)
	}
	height, err := strconv.Atoi(i.capability(adapters.CapabilityScreenHeight))
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("screen height: %w", err)
	}
	if r, ok := domain.ResolutionBySize(width, height); ok {
		return r, nil
	}
	return domain.Resolution{Name: fmt.Sprintf("%dx%d", width, height), Width: width, Height: height}, nil
}

// Locale is the UI language as a BCP 47 tag, e.g. "en-US".
func (i *Info) Locale() string {
	return normalizeLocale(i.Property(PropertyLocale)["language"])
}

func normalizeLocale(raw string) string {
	locale := strings.Replace(raw, "_", "-", 1)
	locale, _, _ = strings.Cut(locale, ".")
	return locale
}

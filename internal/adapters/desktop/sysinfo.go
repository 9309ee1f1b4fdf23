package desktop

import (
	"context"
	"errors"
	"maps"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"

	"go2tv.app/tizenbridge/internal/adapters"
	"go2tv.app/tizenbridge/internal/buildinfo"
	"go2tv.app/tizenbridge/internal/domain"
)

// ErrPropertyUnavailable is returned for properties the host cannot provide.
var ErrPropertyUnavailable = errors.New("system property is not available")

var _ adapters.SystemInfo = (*SystemInfo)(nil)

// SystemInfo answers capability and property lookups from configuration,
// falling back to what can be read from the host.
type SystemInfo struct {
	capabilities map[string]string
	properties   map[string]map[string]string
	display      domain.Resolution
	interfaces   func() ([]net.Interface, error)
	lookupEnv    func(string) (string, bool)
}

// NewSystemInfo builds the lookups. Configured entries take precedence;
// the platform version and screen size default to the given values.
func NewSystemInfo(capabilities map[string]string, properties map[string]map[string]string, platformVersion string, panel, display domain.Resolution) *SystemInfo {
	caps := map[string]string{
		adapters.CapabilityPlatformVersion:  platformVersion,
		adapters.CapabilityWebAPIVersion:    platformVersion,
		adapters.CapabilityNativeAPIVersion: platformVersion,
		adapters.CapabilityScreenWidth:      strconv.Itoa(panel.Width),
		adapters.CapabilityScreenHeight:     strconv.Itoa(panel.Height),
		adapters.CapabilityManufacturer:     "Samsung",
		adapters.CapabilityModelName:        buildinfo.Name,
	}
	maps.Copy(caps, capabilities)
	return &SystemInfo{
		capabilities: caps,
		properties:   properties,
		display:      display,
		interfaces:   net.Interfaces,
		lookupEnv:    os.LookupEnv,
	}
}

func (s *SystemInfo) Capability(key string) (string, error) {
	if v := s.capabilities[key]; v != "" {
		return v, nil
	}
	return "", ErrPropertyUnavailable
}

func (s *SystemInfo) Property(ctx context.Context, name string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if v, ok := s.properties[name]; ok {
		return maps.Clone(v), nil
	}

	switch name {
	case "BUILD":
		return map[string]string{
			"model":        buildinfo.Name,
			"manufacturer": runtime.GOOS,
			"buildVersion": buildinfo.Version,
		}, nil
	case "DISPLAY":
		return map[string]string{
			"resolutionWidth":  strconv.Itoa(s.display.Width),
			"resolutionHeight": strconv.Itoa(s.display.Height),
		}, nil
	case "LOCALE":
		return s.locale()
	case "ETHERNET_NETWORK":
		return s.network(false)
	case "WIFI_NETWORK":
		return s.network(true)
	}
	return nil, ErrPropertyUnavailable
}

func (s *SystemInfo) locale() (map[string]string, error) {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v, ok := s.lookupEnv(key); ok && v != "" && v != "C" && v != "POSIX" {
			return map[string]string{"language": v}, nil
		}
	}
	return nil, ErrPropertyUnavailable
}

// network reports the first up, non-loopback interface with an IPv4
// address. Interfaces named wl* count as wireless.
func (s *SystemInfo) network(wireless bool) (map[string]string, error) {
	ifaces, err := s.interfaces()
	if err != nil {
		return nil, err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if strings.HasPrefix(iface.Name, "wl") != wireless {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok || ipNet.IP.To4() == nil {
				continue
			}
			return map[string]string{
				"macAddress": iface.HardwareAddr.String(),
				"ipAddress":  ipNet.IP.String(),
			}, nil
		}
	}
	return nil, ErrPropertyUnavailable
}

var _ adapters.ProductInfo = Product{}

// Product reports panel capabilities from configuration.
type Product struct {
	ID       string
	Version  string
	UHDPanel bool
	UHD8K    bool
}

func (p Product) IsUDPanelSupported() bool { return p.UHDPanel || p.UHD8K }
func (p Product) Is8KPanelSupported() bool { return p.UHD8K }
func (p Product) DUID() string             { return p.ID }
func (p Product) Firmware() string         { return p.Version }

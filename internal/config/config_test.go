package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/drm"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func loaderWithEnv(path string, env map[string]string) *Loader {
	l := NewLoader(path)
	l.lookup = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	return l
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loaderWithEnv("", nil).Load()
	require.NoError(t, err)

	assert.Equal(t, Defaults(), cfg)
	res, err := cfg.AppResolution()
	require.NoError(t, err)
	assert.Equal(t, domain.ResolutionFHD, res)
	assert.Empty(t, cfg.DRMClients())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeConfig(t, "bridge.yaml", `
log_level: debug
metrics_addr: 127.0.0.1:9464
renderer:
  address: http://192.168.1.50:9197/dmr
video:
  app_resolution: hd
  platform_version: "4.0"
  poll_interval: 250ms
device:
  uhd: true
  volume: 30
  capabilities:
    http://tizen.org/feature/screen.width: "3840"
drm:
  playready:
    license_server: https://license.example.com/rightsmanager.asmx
  verimatrix:
    company: acme
    address: vcas.example.com:12686
`)
	env := map[string]string{
		"TIZENBRIDGE_PLATFORM_VERSION":      "6.5",
		"TIZENBRIDGE_PLAYREADY_CUSTOM_DATA": "token",
		"TIZENBRIDGE_METRICS_ADDR":          "",
	}

	cfg, err := loaderWithEnv(path, env).Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:9464", cfg.MetricsAddr)
	assert.Equal(t, "http://192.168.1.50:9197/dmr", cfg.Renderer.Address)
	assert.Equal(t, 3*time.Second, cfg.Renderer.DiscoveryTimeout)
	assert.Equal(t, "6.5", cfg.Video.PlatformVersion)
	assert.Equal(t, 250*time.Millisecond, cfg.Video.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.Video.PlayTimeout)
	assert.True(t, cfg.Device.UHD)
	assert.Equal(t, 30, cfg.Device.Volume)
	assert.Equal(t, "TIZENBRIDGE0001", cfg.Device.DUID)
	assert.Equal(t, "3840", cfg.Device.Capabilities["http://tizen.org/feature/screen.width"])

	res, err := cfg.AppResolution()
	require.NoError(t, err)
	assert.Equal(t, domain.ResolutionHD, res)

	clients := cfg.DRMClients()
	require.Len(t, clients, 2)
	pr, ok := clients[0].(*drm.StaticPlayReady)
	require.True(t, ok)
	assert.Equal(t, "token", pr.CustomData())
	assert.Equal(t, "https://license.example.com/rightsmanager.asmx", pr.LicenseServer())
	vmx, ok := clients[1].(*drm.StaticVerimatrix)
	require.True(t, ok)
	assert.Equal(t, drm.VerimatrixParams{Company: "acme", Address: "vcas.example.com:12686"}, vmx.Params())
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "bridge.yaml", "renderer:\n  adress: http://typo\n")

	_, err := loaderWithEnv(path, nil).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strict config parse error")
}

func TestLoadRejectsOtherFormats(t *testing.T) {
	path := writeConfig(t, "bridge.json", "{}")

	_, err := loaderWithEnv(path, nil).Load()
	assert.ErrorContains(t, err, "only YAML supported")
}

func TestLoadRejectsMultipleDocuments(t *testing.T) {
	path := writeConfig(t, "bridge.yml", "log_level: info\n---\nlog_level: debug\n")

	_, err := loaderWithEnv(path, nil).Load()
	assert.ErrorContains(t, err, "multiple documents")
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "bridge.yaml", "")

	cfg, err := loaderWithEnv(path, nil).Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadReportsBadEnvironment(t *testing.T) {
	env := map[string]string{
		"TIZENBRIDGE_POLL_INTERVAL": "fast",
		"TIZENBRIDGE_VOLUME":        "loud",
	}

	_, err := loaderWithEnv("", env).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TIZENBRIDGE_POLL_INTERVAL")
	assert.Contains(t, err.Error(), "TIZENBRIDGE_VOLUME")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "log level", mutate: func(c *Config) { c.LogLevel = "loud" }, want: "log_level"},
		{name: "metrics addr", mutate: func(c *Config) { c.MetricsAddr = "9464" }, want: "metrics_addr"},
		{name: "resolution", mutate: func(c *Config) { c.Video.AppResolution = "2K" }, want: "app_resolution"},
		{name: "platform version", mutate: func(c *Config) { c.Video.PlatformVersion = "six" }, want: "platform_version"},
		{name: "poll interval", mutate: func(c *Config) { c.Video.PollInterval = time.Millisecond }, want: "poll_interval"},
		{name: "play timeout", mutate: func(c *Config) { c.Video.PlayTimeout = 0 }, want: "play_timeout"},
		{name: "discovery timeout", mutate: func(c *Config) { c.Renderer.DiscoveryTimeout = 0 }, want: "discovery_timeout"},
		{name: "volume", mutate: func(c *Config) { c.Device.Volume = 101 }, want: "device.volume"},
		{name: "verimatrix", mutate: func(c *Config) { c.DRM.Verimatrix = &drm.VerimatrixParams{Company: "acme"} }, want: "drm.verimatrix.address"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}
	assert.NoError(t, Defaults().Validate())
}

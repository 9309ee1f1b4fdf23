package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"go2tv.app/tizenbridge/internal/adapters"
	"go2tv.app/tizenbridge/internal/adapters/avplaytest"
	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/log"
	"go2tv.app/tizenbridge/internal/video"
)

type failingScreen struct{}

func (failingScreen) SetScreenSaver(context.Context, bool) error {
	return errors.New("appcommon unavailable")
}

func newTestDevice(t *testing.T, system *avplaytest.SystemInfo, app *avplaytest.Application) (*Device, *avplaytest.Screensaver) {
	t.Helper()
	screen := &avplaytest.Screensaver{}
	d, err := New(Config{
		System:  system,
		Product: avplaytest.Product{UHD: true},
		Audio:   avplaytest.NewAudio(10),
		Screen:  screen,
		Keys:    &avplaytest.Keys{},
		App:     app,
		Plugin:  avplaytest.New(),
		Surface: &avplaytest.Surface{},
		Logger:  log.Nop(),
	})
	require.NoError(t, err)
	return d, screen
}

func TestNewRequiresPlatformDependencies(t *testing.T) {
	_, err := New(Config{Logger: log.Nop()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "system info is required")
	assert.Contains(t, err.Error(), "application is required")
}

func TestDeviceInitSignalsReady(t *testing.T) {
	d, _ := newTestDevice(t, testSystem(), &avplaytest.Application{})

	select {
	case <-d.Ready():
		t.Fatal("ready before init")
	default:
	}

	require.NoError(t, d.Init(context.Background()))
	select {
	case <-d.Ready():
	default:
		t.Fatal("not ready after init")
	}
	assert.Equal(t, "6.5", d.PlatformVersion())
}

func TestDeviceNetworkFallsBackToWifi(t *testing.T) {
	system := testSystem()
	d, _ := newTestDevice(t, system, &avplaytest.Application{})
	require.NoError(t, d.Init(context.Background()))

	assert.Equal(t, "5c:49:7d:aa:bb:cc", d.MAC())
	assert.Equal(t, "192.168.1.44", d.IP())

	system.Properties[PropertyEthernet] = map[string]string{"macAddress": "00:11:22:33:44:55", "ipAddress": "10.0.0.2"}
	require.NoError(t, d.Init(context.Background()))
	assert.Equal(t, "00:11:22:33:44:55", d.MAC())
	assert.Equal(t, "10.0.0.2", d.IP())

	delete(system.Properties, PropertyEthernet)
	delete(system.Properties, PropertyWifi)
	require.NoError(t, d.Init(context.Background()))
	assert.Empty(t, d.MAC())
	assert.Empty(t, d.IP())
}

func TestDeviceLaunchParams(t *testing.T) {
	tests := []struct {
		name    string
		control map[string][]string
		want    map[string]any
	}{
		{name: "no app control", want: map[string]any{}},
		{
			name:    "payload",
			control: map[string][]string{"PAYLOAD": {`{"values":"{\"contentId\":\"42\",\"autoplay\":true}"}`}},
			want:    map[string]any{"contentId": "42", "autoplay": true},
		},
		{name: "empty values", control: map[string][]string{"PAYLOAD": {`{}`}}, want: map[string]any{}},
		{name: "malformed payload", control: map[string][]string{"PAYLOAD": {`{values`}}, want: map[string]any{}},
		{name: "malformed values", control: map[string][]string{"PAYLOAD": {`{"values":"{oops"}`}}, want: map[string]any{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, _ := newTestDevice(t, testSystem(), &avplaytest.Application{Control: tc.control})
			assert.Equal(t, tc.want, d.LaunchParams())
		})
	}
}

func TestDeviceApplicationControl(t *testing.T) {
	app := &avplaytest.Application{}
	d, _ := newTestDevice(t, testSystem(), app)

	d.Hide()
	assert.True(t, app.Hidden())
	d.Exit()
	assert.True(t, app.Exited())
	assert.True(t, d.IsUHDSupported())
}

func TestDeviceOSDIsUnsupported(t *testing.T) {
	d, _ := newTestDevice(t, testSystem(), &avplaytest.Application{})

	assert.False(t, d.HasOSDOpacityFeature())
	assert.False(t, d.HasOSDChromaKeyFeature())
	assert.True(t, d.HasOSDAlphaBlendingFeature())

	_, err := d.OSDOpacity()
	errs := []error{d.SetOSDOpacity(0.5), err, d.SetOSDChromaKey("#00ff00"), d.RemoveOSDChromaKey()}
	_, err = d.OSDChromaKey()
	errs = append(errs, err)
	_, err = d.Environment()
	errs = append(errs, err)

	for _, err := range errs {
		var unsupported *domain.UnsupportedFeature
		assert.True(t, errors.As(err, &unsupported), "%v", err)
	}
}

func TestDeviceEnableScreensaver(t *testing.T) {
	d, screen := newTestDevice(t, testSystem(), &avplaytest.Application{})

	require.NoError(t, d.EnableScreensaver(context.Background(), false))
	require.NoError(t, d.EnableScreensaver(context.Background(), true))
	assert.Equal(t, []bool{false, true}, screen.Calls())

	d.cfg.Screen = failingScreen{}
	assert.ErrorContains(t, d.EnableScreensaver(context.Background(), true), "appcommon unavailable")
}

func TestDetect(t *testing.T) {
	assert.True(t, Detect(testSystem()))
	assert.False(t, Detect(&avplaytest.SystemInfo{}))
	assert.False(t, Detect(nil))
}

func TestDevicePanelResolutionFallback(t *testing.T) {
	system := testSystem()
	delete(system.Capabilities, adapters.CapabilityScreenWidth)
	d, _ := newTestDevice(t, system, &avplaytest.Application{})

	assert.Equal(t, domain.ResolutionUHD4K, d.PanelResolution())
}

func TestDeviceCreateVideoAppliesArea(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	d, _ := newTestDevice(t, testSystem(), &avplaytest.Application{})
	require.NoError(t, d.Init(context.Background()))
	surface := d.cfg.Surface.(*avplaytest.Surface)

	area := domain.Rect{X: 960, Y: 0, Width: 960, Height: 540}
	p, err := d.CreateVideo(context.Background(), area, video.PlayerOptions{PlayTimeout: time.Second})
	require.NoError(t, err)

	st, err := p.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, st.State)
	assert.Contains(t, surface.Geometry(), area)

	require.NoError(t, p.Close(context.Background()))
	assert.True(t, surface.Removed())
}

package viewport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go2tv.app/tizenbridge/internal/adapters"
	"go2tv.app/tizenbridge/internal/adapters/avplaytest"
	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/log"
)

type fakeSurface struct {
	geometry []domain.Rect
	removed  bool
}

func (f *fakeSurface) SetGeometry(rect domain.Rect) { f.geometry = append(f.geometry, rect) }
func (f *fakeSurface) Remove()                      { f.removed = true }

func newViewPort(t *testing.T, platformVersion string, app domain.Resolution) (*ViewPort, *avplaytest.Plugin, *fakeSurface) {
	t.Helper()
	plugin := avplaytest.New()
	plugin.SetState(adapters.PlayerIdle)
	surface := &fakeSurface{}
	return New(plugin, surface, domain.ResolutionUHD4K, app, platformVersion, log.Nop()), plugin, surface
}

func TestUpdateViewPortTranslatesToReferenceFrame(t *testing.T) {
	vp, plugin, surface := newViewPort(t, "5.5", domain.ResolutionFHD)

	require.NoError(t, vp.UpdateViewPort())

	assert.Equal(t, []string{
		"SetDisplayMethod(" + adapters.DisplayModeAutoAspectRatio + ")",
		"SetDisplayRect(0,0,1920,1080)",
	}, plugin.Calls())
	assert.Equal(t, []domain.Rect{{Width: 1920, Height: 1080}}, surface.geometry)
}

func TestUpdateViewPortScalesHDApplication(t *testing.T) {
	vp, plugin, _ := newViewPort(t, "6.0", domain.ResolutionHD)

	require.NoError(t, vp.SetArea(domain.Rect{X: 640, Y: 360, Width: 640, Height: 360}))

	assert.Equal(t, []string{"SetDisplayRect(960,540,960,540)"}, plugin.CallsTo("SetDisplayRect"))
}

func TestFromReferenceInvertsToReference(t *testing.T) {
	vp, _, _ := newViewPort(t, "6.0", domain.ResolutionHD)
	r := domain.Rect{X: 128, Y: 72, Width: 640, Height: 360}

	assert.Equal(t, r, vp.FromReference(vp.ToReference(r)))
}

func TestUpdateViewPortSkipsPluginOutsidePlayableStates(t *testing.T) {
	vp, plugin, surface := newViewPort(t, "5.0", domain.ResolutionFHD)
	plugin.SetState(adapters.PlayerNone)

	require.NoError(t, vp.UpdateViewPort())

	assert.Empty(t, plugin.Calls())
	assert.Len(t, surface.geometry, 1)
}

func TestImplicitFullscreenVersionSkipsRect(t *testing.T) {
	vp, plugin, _ := newViewPort(t, "2.4.0", domain.ResolutionFHD)

	require.NoError(t, vp.UpdateViewPort())
	assert.Empty(t, plugin.CallsTo("SetDisplayRect"))
	assert.Len(t, plugin.CallsTo("SetDisplayMethod"), 1)

	require.NoError(t, vp.SetArea(domain.Rect{Width: 960, Height: 540}))
	assert.Equal(t, []string{"SetDisplayRect(0,0,960,540)"}, plugin.CallsTo("SetDisplayRect"))
}

func TestDisplayMethodTiers(t *testing.T) {
	zoom169 := domain.AspectRatio{Proportion: domain.Proportion16x9, Transferring: domain.TransferringLetterbox}
	zoom43 := domain.AspectRatio{Proportion: domain.Proportion4x3, Transferring: domain.TransferringLetterbox}
	auto := domain.AspectRatio{Proportion: domain.ProportionAuto, Transferring: domain.TransferringAuto}
	stretch := domain.AspectRatio{Proportion: domain.ProportionAuto, Transferring: domain.TransferringStretch}

	cases := []struct {
		version  string
		ratio    domain.AspectRatio
		want     bool
		wantMode string
	}{
		{"2.3", zoom169, true, adapters.DisplayModeZoom16x9},
		{"2.3", zoom43, true, adapters.DisplayModeZoomThreeQuarter},
		{"2.3", auto, true, adapters.DisplayModeOriginSize},
		{"3.0", zoom169, false, ""},
		{"3.0", auto, true, adapters.DisplayModeOriginSize},
		{"4.0", auto, true, adapters.DisplayModeAutoAspectRatio},
		{"4.0", zoom43, false, ""},
		{"6.5", stretch, true, adapters.DisplayModeFullScreen},
	}

	for _, tc := range cases {
		t.Run(tc.version+"_"+tc.ratio.String(), func(t *testing.T) {
			vp, plugin, _ := newViewPort(t, tc.version, domain.ResolutionFHD)
			assert.Equal(t, tc.want, vp.IsAspectRatioSupported(tc.ratio))

			err := vp.SetAspectRatio(tc.ratio)
			if !tc.want {
				var unsupported *domain.UnsupportedFeature
				require.ErrorAs(t, err, &unsupported)
				assert.Empty(t, plugin.Calls())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"SetDisplayMethod(" + tc.wantMode + ")"}, plugin.CallsTo("SetDisplayMethod"))
		})
	}
}

func TestUpdateViewPortKeepsPushingRectWhenMethodFails(t *testing.T) {
	vp, plugin, _ := newViewPort(t, "5.0", domain.ResolutionFHD)
	plugin.Fail("SetDisplayMethod", errors.New("PLAYER_ERROR_INVALID_PARAMETER"))

	err := vp.UpdateViewPort()

	require.Error(t, err)
	assert.Len(t, plugin.CallsTo("SetDisplayRect"), 1)
}

func TestSetFullScreenRestoresContainer(t *testing.T) {
	vp, _, _ := newViewPort(t, "5.0", domain.ResolutionFHD)
	require.NoError(t, vp.SetArea(domain.Rect{X: 10, Y: 10, Width: 100, Height: 100}))
	assert.False(t, vp.IsFullScreen())

	require.NoError(t, vp.SetFullScreen(true))
	assert.True(t, vp.IsFullScreen())
	assert.Equal(t, vp.ContainerRect(), vp.CurrentArea())
}

func TestSetAreaRejectsEmptyRect(t *testing.T) {
	vp, plugin, _ := newViewPort(t, "5.0", domain.ResolutionFHD)

	require.Error(t, vp.SetArea(domain.Rect{Width: 0, Height: 10}))
	assert.Empty(t, plugin.Calls())
}

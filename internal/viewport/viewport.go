// Package viewport positions the video surface and translates application
// rectangles into the coordinate frame the media plugin expects.
package viewport

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"go2tv.app/tizenbridge/internal/adapters"
	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/version"
)

// Reference is the frame setDisplayRect works in, whatever the panel is.
var Reference = domain.ResolutionFHD

const (
	// Platforms in the 2.4 line reset the display method whenever a
	// fullscreen rect is pushed, so the rect is skipped there.
	implicitFullscreenVersion = "2.4.0"

	midTierVersion    = "2.4"
	newestTierVersion = "4"
)

type displayMethod struct {
	name  string
	ratio domain.AspectRatio
}

// ViewPort owns the current area and aspect ratio of one video surface.
type ViewPort struct {
	plugin  adapters.AVPlay
	surface adapters.VideoSurface
	panel   domain.Resolution
	app     domain.Resolution
	version string
	methods []displayMethod
	logger  zerolog.Logger

	container domain.Rect
	area      domain.Rect
	ratio     domain.AspectRatio
}

func New(plugin adapters.AVPlay, surface adapters.VideoSurface, panel, app domain.Resolution, platformVersion string, logger zerolog.Logger) *ViewPort {
	container := app.Canvas()
	return &ViewPort{
		plugin:    plugin,
		surface:   surface,
		panel:     panel,
		app:       app,
		version:   platformVersion,
		methods:   displayMethodsFor(platformVersion),
		logger:    logger,
		container: container,
		area:      container,
		ratio:     domain.AspectRatio{Proportion: domain.ProportionAuto, Transferring: domain.TransferringAuto},
	}
}

// displayMethodsFor returns the methods the platform accepts. From 4.0 on
// anything outside the newest table raises an invalid parameter error.
func displayMethodsFor(platformVersion string) []displayMethod {
	auto := domain.AspectRatio{Proportion: domain.ProportionAuto, Transferring: domain.TransferringAuto}
	letterbox := domain.AspectRatio{Proportion: domain.ProportionAuto, Transferring: domain.TransferringLetterbox}
	stretch := domain.AspectRatio{Proportion: domain.ProportionAuto, Transferring: domain.TransferringStretch}

	switch {
	case version.IsGTE(platformVersion, newestTierVersion):
		return []displayMethod{
			{adapters.DisplayModeAutoAspectRatio, auto},
			{adapters.DisplayModeLetterBox, letterbox},
			{adapters.DisplayModeFullScreen, stretch},
		}
	case version.IsGTE(platformVersion, midTierVersion):
		return []displayMethod{
			{adapters.DisplayModeOriginSize, auto},
			{adapters.DisplayModeLetterBox, letterbox},
			{adapters.DisplayModeFullScreen, stretch},
		}
	default:
		return []displayMethod{
			{adapters.DisplayModeOriginSize, auto},
			{adapters.DisplayModeLetterBox, letterbox},
			{adapters.DisplayModeFullScreen, stretch},
			{adapters.DisplayModeZoom16x9, domain.AspectRatio{Proportion: domain.Proportion16x9, Transferring: domain.TransferringLetterbox}},
			{adapters.DisplayModeZoomThreeQuarter, domain.AspectRatio{Proportion: domain.Proportion4x3, Transferring: domain.TransferringLetterbox}},
		}
	}
}

func (v *ViewPort) HasAspectRatioFeature() bool { return true }
func (v *ViewPort) HasAreaChangeFeature() bool  { return true }

func (v *ViewPort) IsAspectRatioSupported(ratio domain.AspectRatio) bool {
	_, ok := v.displayMethodFor(ratio)
	return ok
}

func (v *ViewPort) AspectRatio() domain.AspectRatio { return v.ratio }

// SetAspectRatio stores the ratio and pushes it to the plugin.
func (v *ViewPort) SetAspectRatio(ratio domain.AspectRatio) error {
	if !v.IsAspectRatioSupported(ratio) {
		return domain.NewUnsupportedFeature(fmt.Sprintf("aspect ratio %s", ratio))
	}
	v.ratio = ratio
	return v.UpdateViewPort()
}

func (v *ViewPort) CurrentArea() domain.Rect { return v.area }

func (v *ViewPort) ContainerRect() domain.Rect { return v.container }

// SetArea moves the video to rect, given in application pixels.
func (v *ViewPort) SetArea(rect domain.Rect) error {
	if rect.Width <= 0 || rect.Height <= 0 {
		return fmt.Errorf("invalid viewport area %s", rect)
	}
	v.area = rect
	return v.UpdateViewPort()
}

func (v *ViewPort) IsFullScreen() bool { return v.area == v.container }

// SetFullScreen switches to the whole container. Leaving fullscreen keeps
// the current area until SetArea is called.
func (v *ViewPort) SetFullScreen(fullscreen bool) error {
	if fullscreen {
		v.area = v.container
	}
	return v.UpdateViewPort()
}

// UpdateViewPort repositions the surface and, when the plugin can take it,
// pushes the display method and rect. Early pushes are silently dropped by
// some devices, so callers repeat this once the plugin becomes ready.
func (v *ViewPort) UpdateViewPort() error {
	if v.surface != nil {
		v.surface.SetGeometry(v.area)
	}

	switch v.plugin.State() {
	case adapters.PlayerIdle, adapters.PlayerReady, adapters.PlayerPlaying, adapters.PlayerPaused:
	default:
		return nil
	}

	var errs []error
	// Call order matters on some models: method first, then rect.
	if method, ok := v.displayMethodFor(v.ratio); ok {
		if err := v.plugin.SetDisplayMethod(method); err != nil {
			errs = append(errs, fmt.Errorf("set display method %s: %w", method, err))
		}
	}

	implicitFullscreen := version.IsEq(version.UpTo(v.version, 1), version.UpTo(implicitFullscreenVersion, 1))
	if !implicitFullscreen || !v.IsFullScreen() {
		r := v.ToReference(v.area)
		if err := v.plugin.SetDisplayRect(r.X, r.Y, r.Width, r.Height); err != nil {
			errs = append(errs, fmt.Errorf("set display rect %s: %w", r, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		v.logger.Warn().Err(err).Str("area", v.area.String()).Msg("viewport_update_failed")
		return err
	}
	return nil
}

// ToReference maps an application rect into the reference frame.
func (v *ViewPort) ToReference(r domain.Rect) domain.Rect {
	return scale(r, v.app, Reference)
}

// FromReference is the inverse of ToReference.
func (v *ViewPort) FromReference(r domain.Rect) domain.Rect {
	return scale(r, Reference, v.app)
}

func (v *ViewPort) displayMethodFor(ratio domain.AspectRatio) (string, bool) {
	for _, m := range v.methods {
		if m.ratio == ratio {
			return m.name, true
		}
	}
	return "", false
}

func scale(r domain.Rect, from, to domain.Resolution) domain.Rect {
	if from.Width == 0 || from.Height == 0 {
		return r
	}
	return domain.Rect{
		X:      r.X * to.Width / from.Width,
		Y:      r.Y * to.Height / from.Height,
		Width:  r.Width * to.Width / from.Width,
		Height: r.Height * to.Height / from.Height,
	}
}

// PanelResolution is the native panel size, reported for diagnostics only;
// the rect translation never depends on it.
func (v *ViewPort) PanelResolution() domain.Resolution { return v.panel }

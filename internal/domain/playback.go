package domain

import "fmt"

// State is the externally observable playback state of a video adapter.
type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateReady     State = "ready"
	StatePlaying   State = "playing"
	StatePaused    State = "paused"
	StateWaiting   State = "waiting"
	StateSeeking   State = "seeking"
	StateEnded     State = "ended"
	StateError     State = "error"
	StateDestroyed State = "destroyed"
	StateInvalid   State = "invalid"
)

func (s State) String() string { return string(s) }

// Rect is an axis-aligned rectangle in pixels.
type Rect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

func (r Rect) String() string {
	return fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.Width, r.Height)
}

// Resolution is a display resolution tier.
type Resolution struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

var (
	ResolutionHD    = Resolution{Name: "HD", Width: 1280, Height: 720}
	ResolutionFHD   = Resolution{Name: "FHD", Width: 1920, Height: 1080}
	ResolutionUHD4K = Resolution{Name: "4K", Width: 3840, Height: 2160}
	ResolutionUHD8K = Resolution{Name: "8K", Width: 7680, Height: 4320}
)

// KnownResolutions lists tiers from smallest to largest.
var KnownResolutions = []Resolution{ResolutionHD, ResolutionFHD, ResolutionUHD4K, ResolutionUHD8K}

// ResolutionBySize returns the tier with exactly the given size.
func ResolutionBySize(width, height int) (Resolution, bool) {
	for _, r := range KnownResolutions {
		if r.Width == width && r.Height == height {
			return r, true
		}
	}
	return Resolution{}, false
}

// Canvas is the full rectangle of the resolution.
func (r Resolution) Canvas() Rect {
	return Rect{Width: r.Width, Height: r.Height}
}

// Proportion is the requested picture proportion.
type Proportion string

const (
	ProportionAuto Proportion = "auto"
	Proportion16x9 Proportion = "16x9"
	Proportion4x3  Proportion = "4x3"
)

// Transferring is the fill policy used to fit the picture into the area.
type Transferring string

const (
	TransferringAuto      Transferring = "auto"
	TransferringLetterbox Transferring = "letterbox"
	TransferringStretch   Transferring = "stretch"
)

// AspectRatio pairs a proportion with a fill policy.
type AspectRatio struct {
	Proportion   Proportion   `json:"proportion"`
	Transferring Transferring `json:"transferring"`
}

func (a AspectRatio) String() string {
	return string(a.Proportion) + "/" + string(a.Transferring)
}

// DRMType identifies a content protection scheme.
type DRMType string

const (
	DRMPlayReady  DRMType = "playready"
	DRMVerimatrix DRMType = "verimatrix"
	DRMWidevine   DRMType = "widevine"
)

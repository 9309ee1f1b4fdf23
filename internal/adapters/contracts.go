package adapters

import (
	"context"

	"go2tv.app/go2tv/v2/devices"
	"go2tv.app/go2tv/v2/soapcalls"

	"go2tv.app/tizenbridge/internal/domain"
)

// PlayerState is the coarse state reported by the media plugin.
type PlayerState string

const (
	PlayerNone    PlayerState = "NONE"
	PlayerIdle    PlayerState = "IDLE"
	PlayerReady   PlayerState = "READY"
	PlayerPlaying PlayerState = "PLAYING"
	PlayerPaused  PlayerState = "PAUSED"
)

// Display methods accepted by SetDisplayMethod.
const (
	DisplayModeLetterBox        = "PLAYER_DISPLAY_MODE_LETTER_BOX"
	DisplayModeOriginSize       = "PLAYER_DISPLAY_MODE_ORIGIN_SIZE"
	DisplayModeFullScreen       = "PLAYER_DISPLAY_MODE_FULL_SCREEN"
	DisplayModeZoom16x9         = "PLAYER_DISPLAY_MODE_ZOOM_16_9"
	DisplayModeZoomThreeQuarter = "PLAYER_DISPLAY_MODE_ZOOM_THREE_QUARTERS"
	DisplayModeAutoAspectRatio  = "PLAYER_DISPLAY_MODE_AUTO_ASPECT_RATIO"
)

// Streaming properties used by the video adapter.
const (
	StreamingPropertyMode4K = "SET_MODE_4K"
	StreamingPropertyIsLive = "IS_LIVE"
)

// DRM channel identifiers and operations.
const (
	DRMTypePlayReady  = "PLAYREADY"
	DRMTypeVerimatrix = "VERIMATRIX"

	DRMOperationSetProperties = "SETPROPERTIES"
	DRMOperationInitialize    = "INITIALIZE"
	DRMOperationFinalize      = "FINALIZE"
	DRMOperationGetUID        = "GETUID"
)

// PlaybackListener is the single callback table the media plugin accepts.
// Nil members are not called. Callbacks may arrive on any goroutine.
type PlaybackListener struct {
	OnBufferingStart    func()
	OnBufferingProgress func(percent int)
	OnBufferingComplete func()
	OnCurrentPlayTime   func(ms int)
	OnStreamCompleted   func()
	OnEvent             func(eventType, data string)
	OnError             func(eventType string)
	OnDRMEvent          func(drmType string, data map[string]any)
	OnSubtitleChange    func(duration int, text string)
	OnHTTPErrorEvent    func(data string)
	OnUserData          func(data string)
}

// AVPlay is the media plugin. Synchronous methods fail by returning an
// error; asynchronous ones report through their callbacks. Passing nil
// callbacks to SeekTo makes the seek synchronous, which is how the plugin
// behaves before it has been prepared.
type AVPlay interface {
	Open(url string) error
	Close() error
	PrepareAsync(onSuccess func(), onError func(error)) error
	Play() error
	Pause() error
	Stop() error
	SeekTo(ms int, onSuccess func(), onError func(error)) error
	JumpForward(ms int, onSuccess func(), onError func(error)) error
	JumpBackward(ms int, onSuccess func(), onError func(error)) error
	State() PlayerState
	Duration() int
	CurrentTime() int
	SetSpeed(rate int) error
	SetDisplayRect(x, y, width, height int) error
	SetDisplayMethod(method string) error
	SetStreamingProperty(name, value string) error
	StreamingProperty(name string) (string, error)
	SetListener(listener PlaybackListener)
	Suspend() error
	Restore() error
	SetDRM(drmType, operation, payload string) (string, error)
	UID(drmType string) (string, error)
}

// System info capability keys.
const (
	CapabilityPlatformVersion  = "http://tizen.org/feature/platform.version"
	CapabilityWebAPIVersion    = "http://tizen.org/feature/platform.web.api.version"
	CapabilityNativeAPIVersion = "http://tizen.org/feature/platform.native.api.version"
	CapabilityScreenWidth      = "http://tizen.org/feature/screen.width"
	CapabilityScreenHeight     = "http://tizen.org/feature/screen.height"
	CapabilityManufacturer     = "http://tizen.org/system/manufacturer"
	CapabilityModelName        = "http://tizen.org/system/model_name"
	CapabilityTizenID          = "http://tizen.org/system/tizenid"
)

// SystemInfo exposes capability lookups and asynchronously fetched properties
// such as BUILD, DISPLAY or LOCALE.
type SystemInfo interface {
	Capability(key string) (string, error)
	Property(ctx context.Context, name string) (map[string]string, error)
}

// AudioControl is the shared system volume channel. It keeps a single
// change listener; setting a new one replaces the previous.
type AudioControl interface {
	Volume() (int, error)
	SetVolume(volume int) error
	VolumeUp() error
	VolumeDown() error
	Muted() (bool, error)
	SetMuted(muted bool) error
	SetVolumeChangeListener(listener func(volume int))
	UnsetVolumeChangeListener()
}

// AppCommon controls the platform screensaver.
type AppCommon interface {
	SetScreenSaver(ctx context.Context, enabled bool) error
}

// ProductInfo answers panel capability questions.
type ProductInfo interface {
	IsUDPanelSupported() bool
	Is8KPanelSupported() bool
	DUID() string
	Firmware() string
}

// InputDevice registers remote keys with the platform.
type InputDevice interface {
	RegisterKey(name string) error
	UnregisterKey(name string) error
}

// Application is the running application.
type Application interface {
	Exit()
	Hide()
	// AppControlData returns the values of the requested app control entry,
	// or ok=false when the application was not launched with it.
	AppControlData(key string) (values []string, ok bool)
}

// VideoSurface is the on-screen element the plugin renders behind.
type VideoSurface interface {
	SetGeometry(rect domain.Rect)
	Remove()
}

// Discovery searches the LAN for media renderers.
type Discovery interface {
	LoadAllDevices(delaySeconds int) ([]devices.Device, error)
}

// DLNAPayload represents a DLNA control channel.
type DLNAPayload interface {
	SendtoTV(action string) error
	GetTransportInfo() ([]string, error)
	GetPositionInfo() ([]string, error)
	// Seek moves playback to reltime, formatted as H:MM:SS.
	Seek(reltime string) error
	ListenAddress() string
	SetContext(ctx context.Context)
	// SetMediaURL records the source URL the renderer is told to play.
	SetMediaURL(mediaURL string)
	RawPayload() *soapcalls.TVPayload
}

// DLNAFactory creates DLNA payload/controller instances.
type DLNAFactory interface {
	NewTVPayload(o *soapcalls.Options) (DLNAPayload, error)
}

package device

import (
	"github.com/rs/zerolog"

	"go2tv.app/tizenbridge/internal/adapters"
	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/log"
)

// Key is a platform independent remote control key.
type Key string

const (
	KeyLeft      Key = "left"
	KeyRight     Key = "right"
	KeyUp        Key = "up"
	KeyDown      Key = "down"
	KeyEnter     Key = "enter"
	KeyBack      Key = "back"
	KeyExit      Key = "exit"
	KeyMenu      Key = "menu"
	KeyInfo      Key = "info"
	KeyPlay      Key = "play"
	KeyPause     Key = "pause"
	KeyPlayPause Key = "play_pause"
	KeyStop      Key = "stop"
	KeyForward   Key = "fwd"
	KeyRewind    Key = "rew"
	KeyPageUp    Key = "page_up"
	KeyPageDown  Key = "page_down"
	KeyVolumeUp  Key = "volume_up"
	KeyVolumeDn  Key = "volume_down"
	KeyMute      Key = "mute"
	KeyRed       Key = "red"
	KeyGreen     Key = "green"
	KeyYellow    Key = "yellow"
	KeyBlue      Key = "blue"
	KeyDigit0    Key = "digit_0"
	KeyDigit1    Key = "digit_1"
	KeyDigit2    Key = "digit_2"
	KeyDigit3    Key = "digit_3"
	KeyDigit4    Key = "digit_4"
	KeyDigit5    Key = "digit_5"
	KeyDigit6    Key = "digit_6"
	KeyDigit7    Key = "digit_7"
	KeyDigit8    Key = "digit_8"
	KeyDigit9    Key = "digit_9"
)

// DefaultKeys are the platform key names registered on construction. Keys
// outside this set are consumed by the system and never reach the app.
var DefaultKeys = []string{
	"0", "1", "2", "3", "4", "5", "6", "7", "8", "9",
	"ChannelDown", "ChannelUp", "PreviousChannel",
	"ColorF0Red", "ColorF1Green", "ColorF2Yellow", "ColorF3Blue",
	"MediaPause", "MediaPlay", "MediaPlayPause", "MediaStop",
	"MediaFastForward", "MediaRewind", "MediaTrackNext", "MediaTrackPrevious",
	"MediaRecord",
}

// keyCodes maps remote key codes to keys. Menu and Info share a code on
// this platform; Info wins.
var keyCodes = map[int]Key{
	37: KeyLeft, 39: KeyRight, 38: KeyUp, 40: KeyDown,

	48: KeyDigit0, 49: KeyDigit1, 50: KeyDigit2, 51: KeyDigit3, 52: KeyDigit4,
	53: KeyDigit5, 54: KeyDigit6, 55: KeyDigit7, 56: KeyDigit8, 57: KeyDigit9,

	415: KeyPlay, 19: KeyPause, 10252: KeyPlayPause, 413: KeyStop,
	417: KeyForward, 412: KeyRewind,

	10009: KeyBack, 13: KeyEnter, 457: KeyInfo,
	427: KeyPageUp, 428: KeyPageDown,
	448: KeyVolumeDn, 447: KeyVolumeUp, 449: KeyMute,

	403: KeyRed, 404: KeyGreen, 405: KeyYellow, 406: KeyBlue,

	10182: KeyExit,
}

type Input struct {
	device adapters.InputDevice
	logger zerolog.Logger
}

// NewInput registers DefaultKeys with device. A key the platform refuses
// is logged and skipped.
func NewInput(device adapters.InputDevice, logger zerolog.Logger) *Input {
	in := &Input{
		device: device,
		logger: logger.With().Str(log.FieldComponent, "input").Logger(),
	}
	for _, name := range DefaultKeys {
		_ = in.RegisterKey(name)
	}
	return in
}

func (in *Input) RegisterKey(name string) error {
	if err := in.device.RegisterKey(name); err != nil {
		in.logger.Error().Err(err).Str("key", name).Msg("key_registration_failed")
		return err
	}
	return nil
}

// KeyFor translates a remote key code.
func (in *Input) KeyFor(code int) (Key, bool) {
	key, ok := keyCodes[code]
	in.logger.Debug().Int("code", code).Str("key", string(key)).Msg("key_event")
	return key, ok
}

func (in *Input) IsPointingDeviceSupported() bool { return true }

func (in *Input) EnablePointingDevice() error {
	return domain.NewUnsupportedFeature("Pointing device enabling")
}

func (in *Input) DisablePointingDevice() error {
	return domain.NewUnsupportedFeature("Pointing device disabling")
}

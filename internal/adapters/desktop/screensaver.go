package desktop

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"

	"go2tv.app/tizenbridge/internal/adapters"
	"go2tv.app/tizenbridge/internal/buildinfo"
	"go2tv.app/tizenbridge/internal/log"
)

const (
	screensaverDest  = "org.freedesktop.ScreenSaver"
	screensaverPath  = "/org/freedesktop/ScreenSaver"
	screensaverIface = "org.freedesktop.ScreenSaver"

	inhibitReason = "media playback"
)

// caller is the part of dbus.BusObject the screensaver needs.
type caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...any) *dbus.Call
}

var _ adapters.AppCommon = (*Screensaver)(nil)

// Screensaver drives the session screensaver over D-Bus. Disabling it takes
// an inhibit cookie, enabling releases it. Without a session bus every call
// succeeds and does nothing.
type Screensaver struct {
	logger zerolog.Logger
	conn   *dbus.Conn
	obj    caller

	mu     sync.Mutex
	cookie uint32
	held   bool
}

func NewScreensaver(logger zerolog.Logger) *Screensaver {
	logger = logger.With().Str(log.FieldComponent, "screensaver").Logger()

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		logger.Debug().Err(err).Msg("screensaver: cannot connect to D-Bus session bus")
		return &Screensaver{logger: logger}
	}
	s := newScreensaver(conn.Object(screensaverDest, screensaverPath), logger)
	s.conn = conn
	return s
}

func newScreensaver(obj caller, logger zerolog.Logger) *Screensaver {
	return &Screensaver{logger: logger, obj: obj}
}

// Supported reports whether a session bus is connected.
func (s *Screensaver) Supported() bool { return s.obj != nil }

func (s *Screensaver) SetScreenSaver(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.obj == nil {
		s.logger.Debug().Bool("enabled", enabled).Msg("screensaver: not supported, skipping")
		return nil
	}

	if enabled {
		if !s.held {
			return nil
		}
		if err := s.obj.CallWithContext(ctx, screensaverIface+".UnInhibit", 0, s.cookie).Err; err != nil {
			return fmt.Errorf("screensaver uninhibit: %w", err)
		}
		s.held = false
		s.logger.Debug().Uint32("cookie", s.cookie).Msg("screensaver: released")
		return nil
	}

	if s.held {
		return nil
	}
	var cookie uint32
	if err := s.obj.CallWithContext(ctx, screensaverIface+".Inhibit", 0, buildinfo.Name, inhibitReason).Store(&cookie); err != nil {
		return fmt.Errorf("screensaver inhibit: %w", err)
	}
	s.cookie = cookie
	s.held = true
	s.logger.Debug().Uint32("cookie", cookie).Msg("screensaver: inhibited")
	return nil
}

// Close releases a held inhibition and the bus connection.
func (s *Screensaver) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.obj != nil && s.held {
		_ = s.obj.CallWithContext(context.Background(), screensaverIface+".UnInhibit", 0, s.cookie).Err
		s.held = false
	}
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.obj = nil
	return err
}

package video

import (
	"encoding/json"
	"fmt"
	"strings"

	"go2tv.app/tizenbridge/internal/adapters"
	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/drm"
)

// listener builds the plugin callback table. Every callback is moved onto
// the loop; the main handlers are dropped once the adapter is destroyed.
func (a *Adapter) listener() adapters.PlaybackListener {
	return adapters.PlaybackListener{
		OnBufferingStart: func() {
			a.active("onbufferingstart", a.onBufferingStart)
		},
		OnBufferingComplete: func() {
			a.active("onbufferingcomplete", a.onBufferingComplete)
		},
		OnCurrentPlayTime: func(ms int) {
			a.active("oncurrentplaytime", func() { a.onCurrentTime(ms) })
		},
		OnStreamCompleted: func() {
			a.active("onstreamcompleted", a.onStreamCompleted)
		},
		OnDRMEvent: func(drmType string, data map[string]any) {
			a.active("ondrmevent", func() { a.onDRMEvent(drmType, data) })
		},
		OnError: func(eventType string) {
			a.active("onerror", func() {
				a.onError(&domain.PlaybackError{Name: "PlaybackError", Message: eventType}, "vendor_callback")
			})
		},
		OnBufferingProgress: func(percent int) {
			a.noise("onbufferingprogress", percent)
		},
		OnEvent: func(eventType, data string) {
			a.noise("onevent", eventType, data)
		},
		OnSubtitleChange: func(duration int, text string) {
			a.noise("onsubtitlechange", duration, text)
		},
		OnHTTPErrorEvent: func(data string) {
			a.noise("onhttperrorevent", data)
		},
		OnUserData: func(data string) {
			a.noise("onuserdata", data)
		},
	}
}

func (a *Adapter) active(name string, handler func()) {
	a.post(func() {
		if !a.callbackActive {
			a.debug("plugin %s but callback is not active", name)
			return
		}
		a.guarded(name, handler)
	})
}

func (a *Adapter) noise(name string, args ...any) {
	a.post(func() {
		a.debug("plugin %s %s", name, joinArgs(args))
	})
}

func joinArgs(args []any) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprint(arg)
	}
	return strings.Join(parts, ", ")
}

func (a *Adapter) onBufferingStart() {
	a.debug("plugin bufferingstart")
	if a.machine.IsIn(domain.StateLoading) {
		a.ready.bufferingSettled = false
		return
	}
	if a.machine.IsIn(domain.StateSeeking) {
		return
	}

	switch a.plugin.State() {
	// Speculative caching while nothing plays; only Loading and Playing
	// care about buffering.
	case adapters.PlayerReady, adapters.PlayerIdle, adapters.PlayerPaused:
		return
	// Buffering with no media source at all.
	case adapters.PlayerNone:
		return
	}

	// Rates other than 1 sometimes report duplicate starts.
	if a.machine.IsIn(domain.StateWaiting) {
		return
	}

	prev := a.machine.Current()
	if a.setState(domain.StateWaiting) {
		a.stateBeforeWaiting = prev
	}
}

func (a *Adapter) onBufferingComplete() {
	a.debug("plugin bufferingcomplete")
	if a.machine.IsIn(domain.StateLoading) {
		a.ready.bufferingSettled = true
		a.maybeReady()
		return
	}
	if a.machine.IsIn(domain.StateSeeking) {
		return
	}

	switch a.plugin.State() {
	case adapters.PlayerIdle, adapters.PlayerPaused, adapters.PlayerNone:
		return
	}

	if a.machine.IsIn(domain.StateWaiting) && a.stateBeforeWaiting != "" {
		prev := a.stateBeforeWaiting
		a.stateBeforeWaiting = ""
		a.setState(prev)
	}
}

func (a *Adapter) onCurrentTime(ms int) {
	if a.machine.IsIn(domain.StatePlaying) && a.machine.PendingTransition() == nil {
		a.emit(Event{Kind: EventTimeUpdate, Value: ms})
	}
}

// onStreamCompleted moves to Ended while the plugin itself stays PLAYING
// until stopped; leaving Ended is handled by SetPosition and Play.
func (a *Adapter) onStreamCompleted() {
	a.setState(domain.StateEnded)
	a.checkState()
}

func (a *Adapter) onDRMEvent(vendorType string, data map[string]any) {
	raw, _ := json.Marshal(data)
	a.debug("drmevent %s %s", vendorType, raw)

	t, ok := drm.TypeFromVendor(vendorType)
	if !ok {
		return
	}
	if hook, ok := a.hooks[t]; ok {
		hook.OnAVPlayEvent(data)
	}
}

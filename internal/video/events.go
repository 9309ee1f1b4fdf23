package video

import "go2tv.app/tizenbridge/internal/domain"

type EventKind string

const (
	EventStateChange      EventKind = "state_change"
	EventWillPlay         EventKind = "will_play"
	EventWillPause        EventKind = "will_pause"
	EventWillStop         EventKind = "will_stop"
	EventWillSeek         EventKind = "will_seek"
	EventSeeked           EventKind = "seeked"
	EventTimeUpdate       EventKind = "time_update"
	EventDurationChange   EventKind = "duration_change"
	EventVolumeChange     EventKind = "volume_change"
	EventWillChangeVolume EventKind = "will_change_volume"
	EventWillChangeRate   EventKind = "will_change_rate"
	EventRateChange       EventKind = "rate_change"
	EventError            EventKind = "error"
	EventDebug            EventKind = "debug"
)

// Event is delivered to subscribers on the adapter's loop. Value carries
// the position, volume or rate the kind refers to.
type Event struct {
	Kind    EventKind    `json:"kind"`
	State   domain.State `json:"state,omitempty"`
	Prev    domain.State `json:"prev,omitempty"`
	Value   int          `json:"value,omitempty"`
	Message string       `json:"message,omitempty"`
	Err     error        `json:"-"`
}

type subscriber struct {
	id int
	fn func(Event)
}

type emitter struct {
	subs []subscriber
	next int
}

func (e *emitter) subscribe(fn func(Event)) func() {
	e.next++
	id := e.next
	e.subs = append(e.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

func (e *emitter) emit(ev Event) {
	for _, s := range e.subs {
		s.fn(ev)
	}
}

// Package metrics holds the Prometheus collectors of the bridge.
// Labels stay low-cardinality: no adapter ids or URLs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// StateTransitionsTotal counts adapter state entries by target state.
	StateTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tizenbridge_state_transitions_total",
		Help: "Total number of video adapter state entries, by state.",
	}, []string{"state"})

	// RejectedTransitionsTotal counts transitions refused by the state helper.
	RejectedTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tizenbridge_rejected_transitions_total",
		Help: "Total number of refused state transitions, by reason.",
	}, []string{"reason"})

	// PlaybackErrorsTotal counts error events by source.
	PlaybackErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tizenbridge_playback_errors_total",
		Help: "Total number of playback errors, by source (vendor_call, vendor_callback, drm, destroyed).",
	}, []string{"source"})

	// ReadinessSeconds observes the time from Loading to Ready.
	ReadinessSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tizenbridge_readiness_seconds",
		Help:    "Time between entering Loading and reaching Ready.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
	})

	// TasksTotal counts serialized tasks by kind and outcome.
	TasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tizenbridge_tasks_total",
		Help: "Total number of serialized playback tasks, by kind and outcome.",
	}, []string{"kind", "outcome"})

	// ScreensaverCallsTotal counts screensaver toggles that reached the device.
	ScreensaverCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tizenbridge_screensaver_calls_total",
		Help: "Total number of screensaver calls issued, by target (on/off).",
	}, []string{"target"})

	// DRMHooksActive tracks attached DRM hooks by scheme.
	DRMHooksActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tizenbridge_drm_hooks_active",
		Help: "Current number of attached DRM hooks, by scheme.",
	}, []string{"scheme"})

	// HostCallsTotal counts host bridge tool calls by tool and result code.
	HostCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tizenbridge_host_calls_total",
		Help: "Total number of host bridge tool calls, by tool and error code (empty on success).",
	}, []string{"tool", "code"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

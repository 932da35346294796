// Package metrics holds the Prometheus instruments for resolution, sessions
// and visibility transitions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the visibility engine and the live
// session layer. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Resolutions by control kind ("select", "checkbox") and mode ("change", "init")
	Resolutions *prometheus.CounterVec

	// Visibility transitions by change kind ("group_shown", "group_hidden", ...)
	Transitions *prometheus.CounterVec

	// Duration of one top-level apply, cascades included
	ApplyLatency prometheus.Histogram

	// Authoring errors rejected when a definition is compiled
	DefinitionErrors prometheus.Counter

	ActiveSessions prometheus.Gauge

	// Session lifecycle events by type ("session_opened", "session_closed")
	SessionEvents *prometheus.CounterVec
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "formvis_resolutions_total",
			Help: "Control field resolutions by control kind and mode",
		}, []string{"kind", "mode"}),

		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "formvis_transitions_total",
			Help: "Applied state transitions by kind",
		}, []string{"kind"}),

		ApplyLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "formvis_apply_duration_seconds",
			Help:    "Duration of applying one change including cascades",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),

		DefinitionErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "formvis_definition_errors_total",
			Help: "Form definitions rejected for authoring defects",
		}),

		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "formvis_active_sessions",
			Help: "Live form sessions currently held in memory",
		}),

		SessionEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "formvis_session_events_total",
			Help: "Session lifecycle events by type",
		}, []string{"type"}),
	}
}

// IncResolution records one control field resolution.
func (m *Metrics) IncResolution(kind, mode string) {
	if m != nil {
		m.Resolutions.WithLabelValues(kind, mode).Inc()
	}
}

// IncTransition records one applied transition.
func (m *Metrics) IncTransition(kind string) {
	if m != nil {
		m.Transitions.WithLabelValues(kind).Inc()
	}
}

// ObserveApply records the duration of a top-level apply.
func (m *Metrics) ObserveApply(d time.Duration) {
	if m != nil {
		m.ApplyLatency.Observe(d.Seconds())
	}
}

// IncDefinitionError records a rejected definition.
func (m *Metrics) IncDefinitionError() {
	if m != nil {
		m.DefinitionErrors.Inc()
	}
}

// SetActiveSessions reports the current session count.
func (m *Metrics) SetActiveSessions(n int) {
	if m != nil {
		m.ActiveSessions.Set(float64(n))
	}
}

// IncSessionEvent records one session lifecycle event.
func (m *Metrics) IncSessionEvent(typ string) {
	if m != nil {
		m.SessionEvents.WithLabelValues(typ).Inc()
	}
}

// Package metrics exposes Prometheus instrumentation for the planning and
// completion paths. Counters are fed by domain events, so command handlers
// stay free of instrumentation concerns.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/studyflow/studyflow/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLLECTORS
// ══════════════════════════════════════════════════════════════════════════════

// Metrics holds all collectors. One instance per process, registered on its
// own registry so tests can construct throwaway instances.
type Metrics struct {
	registry *prometheus.Registry

	SchedulesGenerated *prometheus.CounterVec
	SynthesisFallbacks prometheus.Counter
	Completions        *prometheus.CounterVec
	XPGranted          prometheus.Counter
	BadgesAwarded      prometheus.Counter
	StreaksAtRisk      prometheus.Counter

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: registry,

		SchedulesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studyflow",
			Name:      "schedules_generated_total",
			Help:      "Daily schedules reconciled into storage, by synthesis source.",
		}, []string{"source", "replan"}),

		SynthesisFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studyflow",
			Name:      "synthesis_fallbacks_total",
			Help:      "Plans produced after the primary strategy failed.",
		}),

		Completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studyflow",
			Name:      "completions_total",
			Help:      "Completion transactions committed, by kind.",
		}, []string{"kind"}),

		XPGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studyflow",
			Name:      "xp_granted_total",
			Help:      "XP points granted across all users.",
		}),

		BadgesAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studyflow",
			Name:      "badges_awarded_total",
			Help:      "Badges attached to profiles.",
		}),

		StreaksAtRisk: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studyflow",
			Name:      "streaks_at_risk_total",
			Help:      "Habits flagged by the evening streak sweep.",
		}),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studyflow",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status class.",
		}, []string{"route", "method", "status"}),

		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "studyflow",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	registry.MustRegister(
		m.SchedulesGenerated,
		m.SynthesisFallbacks,
		m.Completions,
		m.XPGranted,
		m.BadgesAwarded,
		m.StreaksAtRisk,
		m.HTTPRequests,
		m.HTTPDuration,
	)

	return m
}

// Handler returns the scrape endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT RECORDER
// ══════════════════════════════════════════════════════════════════════════════

// Recorder translates domain events into counter increments. Subscribe it to
// the event bus as a global handler.
type Recorder struct {
	metrics *Metrics
}

// NewRecorder creates a recorder over the given metrics.
func NewRecorder(m *Metrics) *Recorder {
	return &Recorder{metrics: m}
}

// HandleEvent implements shared.EventHandler.
func (r *Recorder) HandleEvent(event shared.Event) error {
	switch e := event.(type) {
	case shared.ScheduleGeneratedEvent:
		replan := "false"
		if e.Replan {
			replan = "true"
		}
		r.metrics.SchedulesGenerated.WithLabelValues(e.Source, replan).Inc()

	case shared.SynthesisFellBackEvent:
		r.metrics.SynthesisFallbacks.Inc()

	case shared.CompletionEvent:
		switch e.Type {
		case shared.EventTaskCompleted:
			r.metrics.Completions.WithLabelValues("task").Inc()
		case shared.EventHabitCompleted:
			r.metrics.Completions.WithLabelValues("habit").Inc()
		case shared.EventBlockCompleted:
			r.metrics.Completions.WithLabelValues("block").Inc()
		}
		if e.XPGained > 0 {
			r.metrics.XPGranted.Add(float64(e.XPGained))
		}

	case shared.BadgeAwardedEvent:
		r.metrics.BadgesAwarded.Inc()

	case shared.StreakAtRiskEvent:
		r.metrics.StreaksAtRisk.Inc()
	}

	return nil
}

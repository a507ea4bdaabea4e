// Package metrics exposes pipeline outcomes as prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "support_router"

// StatsSource is satisfied by the output validator's statistics.
type StatsSource interface {
	Total() int64
	Valid() int64
	Invalid() int64
}

// Metrics is safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	queries     *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	toolCalls   *prometheus.CounterVec
	stageErrors *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "queries_total",
			Help:      "Processed queries by final intent and outcome",
		}, []string{"intent", "outcome"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "End to end query processing latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"intent"}),
		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tools",
			Name:      "calls_total",
			Help:      "Tool invocations by tool name",
		}, []string{"tool"}),
		stageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "errors_total",
			Help:      "Non-fatal diagnostics by kind",
		}, []string{"kind"}),
	}
}

// RegisterValidatorStats exports the validator's cumulative counters.
func RegisterValidatorStats(reg prometheus.Registerer, stats StatsSource) {
	factory := promauto.With(reg)
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "validator",
		Name:      "checks_total",
		Help:      "Answers checked by the output validator",
	}, func() float64 { return float64(stats.Total()) })
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "validator",
		Name:      "valid_total",
		Help:      "Answers that passed validation",
	}, func() float64 { return float64(stats.Valid()) })
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "validator",
		Name:      "invalid_total",
		Help:      "Answers that failed validation",
	}, func() float64 { return float64(stats.Invalid()) })
}

func (m *Metrics) ObserveQuery(intent, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(intent, outcome).Inc()
	m.latency.WithLabelValues(intent).Observe(took.Seconds())
}

func (m *Metrics) ObserveToolCall(tool string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool).Inc()
}

// ObserveError counts a diagnostic by the text before its first colon,
// e.g. "Router error" or "Input safety".
func (m *Metrics) ObserveError(kind string) {
	if m == nil {
		return
	}
	m.stageErrors.WithLabelValues(kind).Inc()
}

// Package metrics exposes Prometheus metrics for debate sessions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcomes.
const (
	OutcomeReplied   = "replied"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Manager owns the session metrics and the registry they live on.
type Manager struct {
	namespace string
	subsystem string
	buckets   []float64
	registry  *prometheus.Registry

	turns          *prometheus.CounterVec
	rejected       *prometheus.CounterVec
	modelLatency   prometheus.Histogram
	scoresRecorded prometheus.Counter
	averageScore   prometheus.Gauge
}

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace overrides the metric namespace.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem overrides the metric subsystem.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithHistogramBuckets sets the latency buckets, in seconds.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.buckets = buckets
		}
	}
}

// WithRegistry registers metrics on r instead of a fresh registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// NewManager creates a Manager on its own registry so the default Go
// collectors stay out of the exposition.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "debatecoach",
		subsystem: "session",
		buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)
	m.turns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "turns_total",
		Help:      "Resolved turns by outcome",
	}, []string{"outcome"})
	m.rejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rejected_submissions_total",
		Help:      "Submissions rejected at the boundary by reason",
	}, []string{"reason"})
	m.modelLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_request_duration_seconds",
		Help:      "Latency of model collaborator calls",
		Buckets:   m.buckets,
	})
	m.scoresRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scores_recorded_total",
		Help:      "Replies that carried a parseable score",
	})
	m.averageScore = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "average_score",
		Help:      "Running average of parsed scores",
	})
	return m
}

// Registry returns the registry backing this manager.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// ObserveTurn records a resolved turn and the model call latency.
func (m *Manager) ObserveTurn(outcome string, elapsed time.Duration) {
	m.turns.WithLabelValues(outcome).Inc()
	if outcome != OutcomeCancelled {
		m.modelLatency.Observe(elapsed.Seconds())
	}
}

// ObserveRejection records a submission rejected before reaching the model.
func (m *Manager) ObserveRejection(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

// ObserveScore records a parsed score and the new running average.
func (m *Manager) ObserveScore(_ float64, average float64) {
	m.scoresRecorded.Inc()
	m.averageScore.Set(average)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Queue state machine metrics
	TransitionsApplied  *prometheus.CounterVec
	TransitionConflicts *prometheus.CounterVec
	TransitionsRejected *prometheus.CounterVec
	TransitionLatency   *prometheus.HistogramVec
	ActiveEntries       *prometheus.GaugeVec

	// Triage metrics
	TriageValidationFailures *prometheus.CounterVec

	// Notification metrics
	NotificationsSent   *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics on the default
// registry.
func NewMetrics(namespace, subsystem string) *Metrics {
	return NewMetricsWithRegistry(namespace, subsystem, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry registers on a caller-supplied registry; tests use
// a fresh prometheus.NewRegistry to avoid duplicate registration.
func NewMetricsWithRegistry(namespace, subsystem string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TransitionsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "queue_transitions_applied_total",
			Help:      "Total number of queue transitions applied, by event",
		}, []string{"event"}),
		TransitionConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "queue_transition_conflicts_total",
			Help:      "Total number of conditional updates lost to a concurrent writer",
		}, []string{"event"}),
		TransitionsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "queue_transitions_rejected_total",
			Help:      "Total number of transitions rejected by a guard",
		}, []string{"event", "reason"}),
		TransitionLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "queue_transition_duration_seconds",
			Help:      "Time spent applying a queue transition",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"event"}),
		ActiveEntries: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "queue_active_entries",
			Help:      "Current number of active queue entries, by stage",
		}, []string{"stage"}),
		TriageValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "triage_validation_failures_total",
			Help:      "Total number of vitals submissions rejected, by field",
		}, []string{"field"}),
		NotificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_sent_total",
			Help:      "Total number of queue events dispatched, by channel",
		}, []string{"channel"}),
		NotificationsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_failed_total",
			Help:      "Total number of queue event dispatch failures, by channel",
		}, []string{"channel"}),
	}
}

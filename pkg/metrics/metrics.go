package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Reminder dispatch metrics
	RemindersDispatched prometheus.Counter
	RemindersFailed     prometheus.Counter
	RemindersSkipped    prometheus.Counter
	SweepDuration       prometheus.Histogram
	DueQueueSize        prometheus.Gauge
	StaleReclaimed      prometheus.Counter

	// Database metrics
	DatabaseOperations *prometheus.CounterVec

	// Notification transport metrics
	TransportSends *prometheus.CounterVec
}

// New creates and registers all application metrics under a namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		RemindersDispatched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_dispatched_total",
			Help:      "Total number of reminders successfully dispatched",
		}),
		RemindersFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_failed_total",
			Help:      "Total number of reminder dispatch failures",
		}),
		RemindersSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_skipped_total",
			Help:      "Reminders skipped because they were already sent, cancelled or unreachable",
		}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Time spent per dispatch sweep",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		DueQueueSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "due_queue_size",
			Help:      "Number of due reminders claimed by the last sweep",
		}),
		StaleReclaimed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_reminders_reclaimed_total",
			Help:      "Processing reminders reclaimed to pending after the staleness timeout",
		}),
		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		TransportSends: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_sends_total",
			Help:      "Notification transport send attempts",
		}, []string{"channel", "status"}),
	}
}

// NewUnregistered builds the same metric set without registering it, for use
// in tests that construct more than one dispatcher.
func NewUnregistered(namespace string) *Metrics {
	return &Metrics{
		RemindersDispatched: prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "reminders_dispatched_total"}),
		RemindersFailed:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "reminders_failed_total"}),
		RemindersSkipped:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "reminders_skipped_total"}),
		SweepDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "sweep_duration_seconds"}),
		DueQueueSize:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "due_queue_size"}),
		StaleReclaimed:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "stale_reminders_reclaimed_total"}),
		DatabaseOperations:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "database_operations_total"}, []string{"operation", "status"}),
		TransportSends:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "transport_sends_total"}, []string{"channel", "status"}),
	}
}

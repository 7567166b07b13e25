package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ConfirmationsTotal counts confirmation calls by outcome.
	ConfirmationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nightsafe",
		Subsystem: "priority",
		Name:      "confirmations_total",
		Help:      "Total number of report confirmations, labeled by store and result.",
	}, []string{"store", "result"})

	// ConfirmationRetriesTotal counts optimistic-concurrency retries.
	ConfirmationRetriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nightsafe",
		Subsystem: "priority",
		Name:      "confirmation_retries_total",
		Help:      "Total number of confirmation transactions retried after a version conflict.",
	}, []string{"store"})

	// ComputeDurationSeconds is the time spent in one pure computation per request.
	ComputeDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nightsafe",
		Subsystem: "engine",
		Name:      "compute_duration_seconds",
		Help:      "Time to compute heatmaps, danger zones, segment risks and route plans.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
	}, []string{"op"})

	// InputSize tracks how many reports a computation ran over.
	InputSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nightsafe",
		Subsystem: "engine",
		Name:      "input_reports",
		Help:      "Number of reports fed into one computation.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 9),
	}, []string{"op"})

	PublishErrorTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nightsafe",
		Subsystem: "events",
		Name:      "publish_error_total",
		Help:      "Total number of report event publish errors.",
	})
)

// Register registers metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ConfirmationsTotal,
			ConfirmationRetriesTotal,
			ComputeDurationSeconds,
			InputSize,
			PublishErrorTotal,
		)
	})
}

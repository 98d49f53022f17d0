package notify

import "github.com/prometheus/client_golang/prometheus"

var (
	dispatchedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "notify",
		Name:      "dispatched_total",
		Help:      "Number of notifications drained from the queue and marked delivered.",
	})

	relayFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "notify",
		Name:      "relay_failures_total",
		Help:      "Number of notifications that failed to relay to Kafka.",
	})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fitcoach",
		Subsystem: "notify",
		Name:      "batch_duration_seconds",
		Help:      "Time spent claiming, delivering, and marking notification batches.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(dispatchedCounter, relayFailures, batchDuration)
}

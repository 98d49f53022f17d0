package cache

import "github.com/prometheus/client_golang/prometheus"

var (
	hitCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Number of cache reads served from the backend.",
	})
	missCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Number of cache reads that fell through to the document store, including backend failures.",
	})
	errorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "cache",
		Name:      "errors_total",
		Help:      "Number of cache backend failures by operation.",
	}, []string{"op"})
	invalidationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "cache",
		Name:      "invalidations_total",
		Help:      "Number of write-side invalidations by resource kind.",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(hitCounter, missCounter, errorCounter, invalidationCounter)
}

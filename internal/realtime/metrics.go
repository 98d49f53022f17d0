package realtime

import "github.com/prometheus/client_golang/prometheus"

var (
	connectionGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fitcoach",
		Subsystem: "realtime",
		Name:      "connections",
		Help:      "Number of live connections registered with the hub.",
	})
	roomGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fitcoach",
		Subsystem: "realtime",
		Name:      "rooms",
		Help:      "Number of rooms with at least one member.",
	})
	publishCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitcoach",
		Subsystem: "realtime",
		Name:      "events_published_total",
		Help:      "Number of events fanned out, by event name.",
	}, []string{"event"})
)

func init() {
	prometheus.MustRegister(connectionGauge, roomGauge, publishCounter)
}

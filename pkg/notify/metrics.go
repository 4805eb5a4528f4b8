package notify

import "github.com/prometheus/client_golang/prometheus"

var (
	eventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "laporkit",
		Subsystem: "notify",
		Name:      "events_total",
		Help:      "Total stream events handled by event type.",
	}, []string{"type"})

	reconnectsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "laporkit",
		Subsystem: "notify",
		Name:      "reconnects_total",
		Help:      "Total reconnect attempts scheduled after stream failures.",
	})

	parseFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "laporkit",
		Subsystem: "notify",
		Name:      "parse_failures_total",
		Help:      "Total stream messages dropped because they could not be parsed.",
	})
)

func init() {
	prometheus.MustRegister(
		eventsTotal,
		reconnectsTotal,
		parseFailuresTotal,
	)
}

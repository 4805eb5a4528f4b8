package resilient

import "github.com/prometheus/client_golang/prometheus"

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "laporkit",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total outbound requests by method and final status code.",
	}, []string{"method", "status"})

	retriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "laporkit",
		Subsystem: "http",
		Name:      "retries_total",
		Help:      "Total retry attempts by method.",
	}, []string{"method"})

	authExpiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "laporkit",
		Subsystem: "http",
		Name:      "auth_expired_total",
		Help:      "Total 401 responses that cleared the local session.",
	})

	exhaustedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "laporkit",
		Subsystem: "http",
		Name:      "retries_exhausted_total",
		Help:      "Total calls that failed after the full retry budget.",
	}, []string{"method"})
)

func init() {
	prometheus.MustRegister(
		requestsTotal,
		retriesTotal,
		authExpiredTotal,
		exhaustedTotal,
	)
}

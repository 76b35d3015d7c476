package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "coffeeshop"

var (
	DrinkOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drink_operations_total",
			Help:      "Total number of drink operations, labeled by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Total number of rejected requests on protected routes, labeled by error code.",
		},
		[]string{"code"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency (seconds), labeled by method, route and status.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		DrinkOperationsTotal,
		AuthFailuresTotal,
		HTTPRequestDurationSeconds,
	)
}

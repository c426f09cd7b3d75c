package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorhub_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "creatorhub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	QuotaChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorhub_quota_checks_total",
			Help: "Total number of quota checks, by feature and outcome.",
		},
		[]string{"feature", "result"},
	)

	UsageIncrementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorhub_usage_increments_total",
			Help: "Total number of recorded usage increments, by feature.",
		},
		[]string{"feature"},
	)

	QuotaResetsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "creatorhub_quota_resets_total",
			Help: "Total number of lazy usage-window resets.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		QuotaChecksTotal,
		UsageIncrementsTotal,
		QuotaResetsTotal,
	)
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Upstream and mapping metrics.
var (
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream API requests",
		},
		[]string{"api", "status"},
	)

	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"api"},
	)

	UpstreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Total upstream API errors",
		},
		[]string{"api", "error_type"},
	)

	MappedRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mapped_records_total",
			Help:      "Hits normalized into records, by mapping strategy",
		},
		[]string{"strategy"},
	)

	SchemaReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_reloads_total",
			Help:      "Schema document loads",
		},
		[]string{"result"}, // "ok" / "error"
	)
)

var registerUpstream sync.Once

// RegisterUpstreamMetrics registers the upstream and mapping collectors. Safe to call more than once.
func RegisterUpstreamMetrics() {
	registerUpstream.Do(func() {
		prometheus.MustRegister(
			UpstreamRequestsTotal,
			UpstreamRequestDuration,
			UpstreamErrorsTotal,
			MappedRecordsTotal,
			SchemaReloadsTotal,
		)
	})
}

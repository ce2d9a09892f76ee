package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Счётчик вызовов методов репозитория
	RepositoryCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repository_calls_total",
			Help: "Total number of repository method calls",
		},
		[]string{"method", "status"},
	)

	RepositoryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repository_duration_seconds",
			Help:    "Duration of repository method calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	AuthOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_operations_total",
			Help: "Total number of authentication operations by result",
		},
		[]string{"operation", "result"},
	)

	BlacklistCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_blacklist_cache_lookups_total",
			Help: "Blacklist lookups served by the cache (hit) or the database (miss, error)",
		},
		[]string{"result"},
	)

	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// InitMetrics registers all collectors with reg.
func InitMetrics(reg prometheus.Registerer) {
	reg.MustRegister(
		RepositoryCalls,
		RepositoryDuration,
		AuthOperations,
		BlacklistCacheLookups,
		RequestCounter,
		RequestDuration,
	)
}

func RecordAuth(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	AuthOperations.WithLabelValues(operation, result).Inc()
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// Database query latency in seconds.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "table"},
	)

	// Engine operation outcomes, labelled by operation and result kind.
	TaskOperationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_operation_count",
			Help: "Total number of task aggregate operations",
		},
		[]string{"operation", "status"},
	)

	// Cache effectiveness for projected aggregates.
	CacheHitCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_cache_hit_count",
			Help: "Projected task cache hits and misses",
		},
		[]string{"result"},
	)
)

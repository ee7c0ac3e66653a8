// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_searches_total",
			Help: "Total number of match searches by outcome",
		},
		[]string{"outcome", "strategy"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "matching_search_duration_seconds",
			Help: "Duration of match search processing in seconds",
		},
		[]string{"strategy"},
	)

	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_cache_operations_total",
			Help: "Cache operations by result (hit, miss, eviction)",
		},
		[]string{"result"},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matching_cache_entries",
			Help: "Number of entries currently held in the local cache tier",
		},
	)

	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_rate_limit_rejections_total",
			Help: "Total number of requests rejected by admission control",
		},
	)
)

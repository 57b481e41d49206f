package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recall_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recall_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recall_searches_total",
			Help: "Total number of memory searches by serving tier.",
		},
		[]string{"tier"},
	)

	SearchTierDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recall_search_tier_duration_seconds",
			Help:    "Per-tier search latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tier"},
	)

	TierFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recall_search_tier_fallbacks_total",
			Help: "Total number of tier fallbacks during search.",
		},
		[]string{"from", "to"},
	)

	EmbeddingFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recall_embedding_fallbacks_total",
			Help: "Total number of times the remote embedding model was unavailable and the hash fallback served.",
		},
	)

	MemoriesStoredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recall_memories_stored_total",
			Help: "Total number of memories stored by entity type.",
		},
		[]string{"entity_type"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SearchesTotal,
		SearchTierDuration,
		TierFallbacksTotal,
		EmbeddingFallbacksTotal,
		MemoriesStoredTotal,
	)
}

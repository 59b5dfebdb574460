package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// PagesFetched counts signed GET requests issued against the Coinbase API.
	PagesFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger_reporter",
		Name:      "api_pages_fetched_total",
		Help:      "Number of pages fetched from the Coinbase API.",
	})

	// CacheHits counts fetches satisfied from the request cache.
	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger_reporter",
		Name:      "request_cache_hits_total",
		Help:      "Number of fetches answered from the request cache.",
	})

	// CacheMisses counts fetches that had to go to the network.
	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger_reporter",
		Name:      "request_cache_misses_total",
		Help:      "Number of fetches that went to the network.",
	})

	// HTTPRequestDuration observes API handler latency.
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ledger_reporter",
		Name:      "http_request_duration_seconds",
		Help:      "Latency of HTTP API requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

// MustRegisterMetrics registers all collectors with the default registry.
// Called once from the API binary before the server starts.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		PagesFetched,
		CacheHits,
		CacheMisses,
		HTTPRequestDuration,
	)
}

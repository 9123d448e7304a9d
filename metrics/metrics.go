// Package metrics provides Prometheus metrics collection for the RxU API.
// It exports HTTP request metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - http_response_size_bytes: Histogram of response body sizes per path
//
// and domain metrics for the resolver, the catalog and the tiered sentiment store.
//
// All metrics are automatically registered with the Prometheus default registry
// during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	HTTPResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response body size",
			Buckets: prometheus.ExponentialBuckets(128, 4, 7),
		},
		[]string{"path"},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (clients seen since the last cleanup)",
		},
	)

	ResolverQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_queries_total",
			Help: "Drug name resolutions by outcome (match, empty, blank)",
		},
		[]string{"outcome"},
	)

	CatalogDrugs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_drugs",
			Help: "Number of drugs in the current catalog index",
		},
	)

	StorageTierRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_tier_requests_total",
			Help: "Sentiment blob lookups per storage tier and outcome (hit, miss, error)",
		},
		[]string{"tier", "outcome"},
	)

	StorageTierDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_tier_duration_seconds",
			Help:    "Latency of durable storage tier lookups",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .25, .5, 1, 3},
		},
		[]string{"tier"},
	)

	StorageCoalescedFetches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storage_coalesced_fetches_total",
			Help: "Fetch results shared between concurrent callers of the same key",
		},
	)

	StorageUnavailable = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storage_unavailable_total",
			Help: "Fetches that exhausted every storage tier",
		},
	)

	StorageCacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "storage_cache_entries",
			Help: "Entries currently held by the in-memory cache tier",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(HTTPResponseSize)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(ResolverQueries)
	prometheus.MustRegister(CatalogDrugs)
	prometheus.MustRegister(StorageTierRequests)
	prometheus.MustRegister(StorageTierDuration)
	prometheus.MustRegister(StorageCoalescedFetches)
	prometheus.MustRegister(StorageUnavailable)
	prometheus.MustRegister(StorageCacheEntries)
}

// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the build pipeline and the query server:
// - API endpoint latency and throughput
// - Feature ingestion outcomes and build phases
// - Upstream geodata client and circuit breaker
// - Binary store loads and section decodes
// - Query latency and merge cache efficiency

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Build Metrics
	BuildFeatures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "build_features_total",
			Help: "Features seen by the build, by outcome",
		},
		[]string{"outcome"}, // "accepted", "invalid_skipped", "outside_time_range", "out_of_range", ...
	)

	BuildPhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "build_phase_duration_seconds",
			Help:    "Duration of build phases in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"phase"}, // "discover", "accumulate", "finalize", "write"
	)

	BuildOutputBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_output_bytes",
			Help: "Size of the last written binary file sections in bytes",
		},
		[]string{"section"}, // "metadata", "heatmaps", "histograms"
	)

	// Upstream Metrics
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of upstream geodata page requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	UpstreamChunks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_chunks_total",
			Help: "Spatial chunks fetched from the upstream source, by result",
		},
		[]string{"result"}, // "success", "failure", "capped"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Store Metrics
	StoreLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_loads_total",
			Help: "Binary store initialization attempts, by result",
		},
		[]string{"result"}, // "success", "open_error", "decode_error"
	)

	StoreLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "store_load_duration_seconds",
			Help:    "Duration of binary store initialization in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	StoreSectionDecodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_section_decode_duration_seconds",
			Help:    "Duration of binary store section decodes in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"section"},
	)

	StoreState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_state",
			Help: "Query service state (0=uninitialized, 1=initializing, 2=ready, 3=failed)",
		},
	)

	// Query Metrics
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "query_duration_seconds",
			Help:    "Duration of heatmap and histogram queries in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"kind"}, // "heatmap", "histogram"
	)

	QueryResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_results_total",
			Help: "Queries answered, by kind and result",
		},
		[]string{"kind", "result"}, // result: "success", "not_found", "unsupported", "error"
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordBuildFeatures adds n features with the given outcome.
func RecordBuildFeatures(outcome string, n int) {
	if n <= 0 {
		return
	}
	BuildFeatures.WithLabelValues(outcome).Add(float64(n))
}

// RecordBuildPhase records how long a build phase took.
func RecordBuildPhase(phase string, duration time.Duration) {
	BuildPhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordBuildOutput records the byte size of a written section.
func RecordBuildOutput(section string, bytes int) {
	BuildOutputBytes.WithLabelValues(section).Set(float64(bytes))
}

// RecordUpstreamRequest records one upstream page request.
func RecordUpstreamRequest(status string, duration time.Duration) {
	UpstreamRequestDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordUpstreamChunk records the result of one spatial chunk.
func RecordUpstreamChunk(result string) {
	UpstreamChunks.WithLabelValues(result).Inc()
}

// RecordStoreLoad records a binary store initialization attempt.
func RecordStoreLoad(result string, duration time.Duration) {
	StoreLoads.WithLabelValues(result).Inc()
	StoreLoadDuration.Observe(duration.Seconds())
}

// RecordSectionDecode records the decode time of one store section.
func RecordSectionDecode(section string, duration time.Duration) {
	StoreSectionDecodeDuration.WithLabelValues(section).Observe(duration.Seconds())
}

// SetStoreState publishes the query service state.
func SetStoreState(state int) {
	StoreState.Set(float64(state))
}

// RecordQuery records a query result and its latency.
func RecordQuery(kind, result string, duration time.Duration) {
	QueryResults.WithLabelValues(kind, result).Inc()
	QueryDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordCacheLookup counts a cache hit or miss.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		CacheMisses.WithLabelValues(cacheType).Inc()
	}
}

// SetCacheSize publishes the number of cached entries.
func SetCacheSize(cacheType string, entries int) {
	CacheSize.WithLabelValues(cacheType).Set(float64(entries))
}

// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package middleware

import (
	"cmp"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/tomtom215/chronogrid/internal/logging"
)

// RequestMetrics is one observed request.
type RequestMetrics struct {
	Endpoint   string
	Method     string
	DurationMS int64
	StatusCode int
	Timestamp  time.Time
}

// EndpointStats aggregates the retained samples of one endpoint.
type EndpointStats struct {
	Endpoint     string  `json:"endpoint"`
	RequestCount int64   `json:"requestCount"`
	ErrorCount   int64   `json:"errorCount"`
	AvgDuration  float64 `json:"avgDurationMs"`
	P50Duration  int64   `json:"p50Ms"`
	P95Duration  int64   `json:"p95Ms"`
	P99Duration  int64   `json:"p99Ms"`
	MaxDuration  int64   `json:"maxMs"`
}

// PerformanceMonitor keeps the latest request samples in a ring buffer and
// reports latency percentiles per endpoint.
type PerformanceMonitor struct {
	mu      sync.RWMutex
	samples []RequestMetrics
	next    int
	full    bool

	slowThreshold time.Duration
}

// NewPerformanceMonitor keeps up to maxSamples requests. Requests slower
// than slowThreshold are logged; zero disables the log.
func NewPerformanceMonitor(maxSamples int, slowThreshold time.Duration) *PerformanceMonitor {
	if maxSamples <= 0 {
		maxSamples = 1000
	}
	return &PerformanceMonitor{
		samples:       make([]RequestMetrics, maxSamples),
		slowThreshold: slowThreshold,
	}
}

// RecordRequest adds a sample, overwriting the oldest when full.
func (pm *PerformanceMonitor) RecordRequest(m RequestMetrics) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.samples[pm.next] = m
	pm.next = (pm.next + 1) % len(pm.samples)
	if pm.next == 0 {
		pm.full = true
	}
}

func (pm *PerformanceMonitor) retained() []RequestMetrics {
	if pm.full {
		return pm.samples
	}
	return pm.samples[:pm.next]
}

// GetStats returns per-endpoint statistics, busiest endpoint first.
func (pm *PerformanceMonitor) GetStats() []EndpointStats {
	pm.mu.RLock()
	byEndpoint := make(map[string][]RequestMetrics)
	for _, m := range pm.retained() {
		key := m.Method + " " + m.Endpoint
		byEndpoint[key] = append(byEndpoint[key], m)
	}
	pm.mu.RUnlock()

	stats := make([]EndpointStats, 0, len(byEndpoint))
	for endpoint, samples := range byEndpoint {
		durations := make([]int64, len(samples))
		var sum, errs int64
		for i, m := range samples {
			durations[i] = m.DurationMS
			sum += m.DurationMS
			if m.StatusCode >= http.StatusInternalServerError {
				errs++
			}
		}
		slices.Sort(durations)
		stats = append(stats, EndpointStats{
			Endpoint:     endpoint,
			RequestCount: int64(len(durations)),
			ErrorCount:   errs,
			AvgDuration:  float64(sum) / float64(len(durations)),
			P50Duration:  percentile(durations, 0.50),
			P95Duration:  percentile(durations, 0.95),
			P99Duration:  percentile(durations, 0.99),
			MaxDuration:  durations[len(durations)-1],
		})
	}
	slices.SortFunc(stats, func(a, b EndpointStats) int {
		if c := cmp.Compare(b.RequestCount, a.RequestCount); c != 0 {
			return c
		}
		return cmp.Compare(a.Endpoint, b.Endpoint)
	})
	return stats
}

// Middleware samples every request passing through it.
func (pm *PerformanceMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		elapsed := time.Since(start)

		endpoint := routePattern(r)
		pm.RecordRequest(RequestMetrics{
			Endpoint:   endpoint,
			Method:     r.Method,
			DurationMS: elapsed.Milliseconds(),
			StatusCode: wrapper.statusCode,
			Timestamp:  start,
		})

		if pm.slowThreshold > 0 && elapsed > pm.slowThreshold {
			logging.Ctx(r.Context()).Warn().
				Str("method", r.Method).
				Str("endpoint", endpoint).
				Dur("duration", elapsed).
				Msg("Slow request detected")
		}
	})
}

// percentile reads the p-th value from a sorted slice.
func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}

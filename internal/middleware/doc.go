// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

/*
Package middleware provides the HTTP middleware used by the query server.

Components:

  - RequestID: X-Request-ID propagation into chi and the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern
  - Compression: gzip for clients sending Accept-Encoding: gzip
  - PerformanceMonitor: in-process latency percentiles served by the stats
    endpoint

All middleware has the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression)
*/
package middleware

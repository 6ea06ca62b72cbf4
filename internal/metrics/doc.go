// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and
are exposed by the query server at /metrics:

	curl http://localhost:3960/metrics

# Available Metrics

HTTP Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
  - api_active_requests: In-flight requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)

Build Metrics:
  - build_features_total: Features by outcome (counter)
  - build_phase_duration_seconds: Phase timings (histogram)
    Labels: phase (discover, accumulate, finalize, write)
  - build_output_bytes: Section sizes of the last written file (gauge)

Upstream Metrics:
  - upstream_request_duration_seconds: Page request latency (histogram)
  - upstream_chunks_total: Chunk results (counter)
  - circuit_breaker_*: Breaker state, requests, failures and transitions

Store and Query Metrics:
  - store_loads_total, store_load_duration_seconds: Initialization attempts
  - store_section_decode_duration_seconds: Section decode timings
  - store_state: Query service state
  - query_duration_seconds, query_results_total: Query latency and outcomes
  - cache_hits_total, cache_misses_total, cache_entries: Merge cache efficiency

The preprocess command runs once and exits, so its metrics are only useful
when the process is scraped during long builds or pushed by a wrapper.
*/
package metrics

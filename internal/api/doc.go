// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

/*
Package api serves the Chronogrid query store over HTTP.

Routes (chi router):

	GET /api/v1/metadata                     store metadata
	GET /api/v1/heatmaps                     merged heatmap timeline
	GET /api/v1/histogram                    merged histogram
	GET /api/v1/available-tags               tags per record type selection
	GET /api/v1/tags/search                  tag name completion (prefix, limit)
	GET /api/v1/tag-combinations             tags that extend an AND selection
	GET /api/v1/tag-combinations/validate    split a selection into valid and invalid tags
	GET /api/v1/stats                        store, cache and latency statistics
	GET /api/v1/health, /health/live, /health/ready
	GET /metrics                             Prometheus

Query parameters are recordTypes and tags (comma-separated), tagOperator
(AND or OR, default AND), period (a time slice key such as 1850_1900) and
resolution (e.g. 75x75, default the primary resolution).

Heatmap and histogram responses keep the query service shape
{heatmapTimeline|histogram, recordTypes, tags, resolution, success, message,
processingTime}. Every other endpoint uses the APIResponse envelope. Error
status codes follow the query error kind: not found is 404, unsupported is
422, not ready is 503 and anything else is 500.

Cacheable responses carry an FNV-1a ETag of the store build id and the
query string. A matching If-None-Match yields 304 before any merge runs.
*/
package api

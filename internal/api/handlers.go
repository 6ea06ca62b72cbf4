// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/chronogrid/internal/logging"
	"github.com/tomtom215/chronogrid/internal/middleware"
	"github.com/tomtom215/chronogrid/internal/query"
)

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct, constructor and shared helpers
//   - handlers_query.go: metadata, heatmap, histogram and tag endpoints
//   - handlers_health.go: health probes and stats
type Handler struct {
	service   *query.Service
	perfMon   *middleware.PerformanceMonitor
	version   string
	startTime time.Time
}

// NewHandler creates a Handler. perfMon may be nil, in which case the stats
// endpoint reports no endpoint latencies.
//
// Example:
//
//	svc := query.NewServiceFromFile(cfg.Store.Path, binstore.Options{UseMmap: true}, query.Options{})
//	handler := api.NewHandler(svc, middleware.NewPerformanceMonitor(1000, time.Second), version)
//	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(&cfg.Security))
//	http.ListenAndServe(":3960", router.SetupChi())
func NewHandler(service *query.Service, perfMon *middleware.PerformanceMonitor, version string) *Handler {
	return &Handler{
		service:   service,
		perfMon:   perfMon,
		version:   version,
		startTime: time.Now(),
	}
}

// cacheCheck returns the ETag for r and reports whether a 304 has already
// been written. Without a loaded store there is no ETag.
func (h *Handler) cacheCheck(w http.ResponseWriter, r *http.Request, cacheControl string) (string, bool) {
	meta, err := h.service.Metadata(r.Context())
	if err != nil {
		return "", false
	}
	etag := generateETag(meta.BuildID, r)
	return etag, notModified(w, r, etag, cacheControl)
}

// logQueryFailure logs server-side query failures. Client errors are
// expected and only reach debug level.
func logQueryFailure(r *http.Request, status int, err error) {
	event := logging.Ctx(r.Context()).Debug()
	if status >= http.StatusInternalServerError {
		event = logging.Ctx(r.Context()).Error()
	}
	event.Err(err).
		Str("path", r.URL.Path).
		Str("query", r.URL.RawQuery).
		Int("status", status).
		Msg("Query failed")
}

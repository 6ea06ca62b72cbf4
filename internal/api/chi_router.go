// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/chronogrid/internal/middleware"
)

// Router wires handlers and middleware into a chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. A nil chiMiddleware means the defaults.
func NewRouter(handler *Handler, chiMiddleware *ChiMiddleware) *Router {
	if chiMiddleware == nil {
		chiMiddleware = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: chiMiddleware}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(middleware.PrometheusMetrics)
	if router.handler.perfMon != nil {
		r.Use(router.handler.perfMon.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.Compression)

		r.Get("/metadata", router.handler.Metadata)
		r.Get("/heatmaps", router.handler.Heatmaps)
		r.Get("/histogram", router.handler.Histogram)
		r.Get("/available-tags", router.handler.AvailableTags)
		r.Get("/tags/search", router.handler.SearchTags)
		r.Get("/tag-combinations", router.handler.TagCombinations)
		r.Get("/tag-combinations/validate", router.handler.ValidateTagCombination)
		r.Get("/stats", router.handler.Stats)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/chronogrid/internal/config"
	"github.com/tomtom215/chronogrid/internal/metrics"
)

// ChiMiddlewareConfig holds configuration for the Chi middleware factories.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	CORSExposedHeaders []string
	CORSMaxAge         int // seconds

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// DefaultChiMiddlewareConfig returns a read-only API configuration with no
// CORS origins allowed.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{},
		CORSAllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		CORSAllowedHeaders: []string{"Content-Type", "If-None-Match", "X-Request-ID"},
		CORSExposedHeaders: []string{"ETag", "X-Request-ID"},
		CORSMaxAge:         86400,

		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
	}
}

// NewChiMiddlewareFromConfig builds the middleware from the security
// section of the configuration.
func NewChiMiddlewareFromConfig(sec *config.SecurityConfig) *ChiMiddleware {
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = sec.CORSOrigins
	cfg.RateLimitRequests = sec.RateLimitReqs
	cfg.RateLimitWindow = sec.RateLimitWindow
	cfg.RateLimitDisabled = sec.RateLimitDisabled
	return NewChiMiddleware(cfg)
}

// ChiMiddleware provides Chi-compatible middleware factories.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates the factories. A nil config means the defaults.
func NewChiMiddleware(cfg *ChiMiddlewareConfig) *ChiMiddleware {
	if cfg == nil {
		cfg = DefaultChiMiddlewareConfig()
	}
	return &ChiMiddleware{
		config: cfg,
		cors: cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: cfg.CORSAllowedMethods,
			AllowedHeaders: cfg.CORSAllowedHeaders,
			ExposedHeaders: cfg.CORSExposedHeaders,
			MaxAge:         cfg.CORSMaxAge,
		}),
	}
}

// CORS returns the go-chi/cors handler.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimitConfig is a request budget per client IP.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// RateLimitHealth is the budget for health probes, generous enough for
// frequent monitoring.
var RateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}

// RateLimit limits the query API per client IP with the configured budget.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitConfig{
		Requests: m.config.RateLimitRequests,
		Window:   m.config.RateLimitWindow,
	})
}

// RateLimitHealth limits health probes per client IP.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitHealth)
}

// RateLimitCustom limits per client IP with the given budget. Rejections
// are counted by route and answered with the APIResponse envelope.
func (m *ChiMiddleware) RateLimitCustom(rl RateLimitConfig) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.Limit(
		rl.Requests,
		rl.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimited),
	)
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()
	respondError(w, r, http.StatusTooManyRequests, ErrCodeRateLimited, "Too many requests", nil)
}

// APISecurityHeaders adds headers that keep browsers from sniffing or
// framing API responses.
func APISecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

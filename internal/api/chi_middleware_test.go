// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package api

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/tomtom215/chronogrid/internal/config"
)

func TestNewChiMiddleware_DefaultConfig(t *testing.T) {
	m := NewChiMiddleware(nil)
	if len(m.config.CORSAllowedOrigins) != 0 {
		t.Errorf("CORSAllowedOrigins = %v, want []", m.config.CORSAllowedOrigins)
	}
	if slices.Contains(m.config.CORSAllowedMethods, http.MethodPost) {
		t.Error("read-only API should not allow POST")
	}
	if m.config.RateLimitRequests != 100 || m.config.RateLimitWindow != time.Minute {
		t.Errorf("rate limit = %d/%v, want 100/1m", m.config.RateLimitRequests, m.config.RateLimitWindow)
	}
}

func TestNewChiMiddlewareFromConfig(t *testing.T) {
	m := NewChiMiddlewareFromConfig(&config.SecurityConfig{
		RateLimitReqs:     250,
		RateLimitWindow:   30 * time.Second,
		RateLimitDisabled: true,
		CORSOrigins:       []string{"*"},
	})
	if m.config.RateLimitRequests != 250 || m.config.RateLimitWindow != 30*time.Second {
		t.Errorf("rate limit = %d/%v", m.config.RateLimitRequests, m.config.RateLimitWindow)
	}
	if !m.config.RateLimitDisabled {
		t.Error("RateLimitDisabled = false")
	}
	if !slices.Equal(m.config.CORSAllowedOrigins, []string{"*"}) {
		t.Errorf("CORSAllowedOrigins = %v", m.config.CORSAllowedOrigins)
	}
}

func TestRateLimitDisabledIsPassthrough(t *testing.T) {
	m := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitRequests: 1, RateLimitWindow: time.Minute, RateLimitDisabled: true})
	handler := m.RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for range 5 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
	}
}

func TestAPISecurityHeaders(t *testing.T) {
	handler := APISecurityHeaders()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	tests := []struct {
		name     string
		proto    string
		wantHSTS bool
	}{
		{"plain http", "", false},
		{"behind TLS proxy", "https", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tt.proto)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Header().Get("X-Frame-Options") != "DENY" {
				t.Error("missing X-Frame-Options")
			}
			if got := rec.Header().Get("Strict-Transport-Security") != ""; got != tt.wantHSTS {
				t.Errorf("HSTS present = %v, want %v", got, tt.wantHSTS)
			}
		})
	}
}

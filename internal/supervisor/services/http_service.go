// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/chronogrid/internal/logging"
)

// HTTPServer is the part of *http.Server the service drives.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService runs the query API under the supervisor. Cancelling
// the Serve context triggers a graceful shutdown bounded by grace.
type HTTPServerService struct {
	srv   HTTPServer
	grace time.Duration
}

// NewHTTPServerService wraps srv. A non-positive grace period means 10s.
func NewHTTPServerService(srv HTTPServer, grace time.Duration) *HTTPServerService {
	if grace <= 0 {
		grace = 10 * time.Second
	}
	return &HTTPServerService{srv: srv, grace: grace}
}

func (h *HTTPServerService) Serve(ctx context.Context) error {
	served := make(chan error, 1)
	go func() { served <- h.srv.ListenAndServe() }()

	ev := logging.Info()
	if s, ok := h.srv.(*http.Server); ok {
		ev = ev.Str("addr", s.Addr)
	}
	ev.Msg("Query API listening")

	select {
	case err := <-served:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	// ctx is already done; the shutdown gets its own deadline.
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.grace)
	defer cancel()

	logging.Info().Dur("grace", h.grace).Msg("Draining query API")
	if err := h.srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if err := <-served; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return ctx.Err()
}

func (h *HTTPServerService) String() string { return "http-server" }

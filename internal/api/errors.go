// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/chronogrid/internal/query"
)

// Error codes for APIResponse errors.
const (
	ErrCodeValidation  = "VALIDATION_ERROR"
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeUnsupported = "UNSUPPORTED_QUERY"
	ErrCodeNotReady    = "STORE_NOT_READY"
	ErrCodeInternal    = "INTERNAL_ERROR"
	ErrCodeRateLimited = "RATE_LIMIT_EXCEEDED"
	ErrCodeTimeout     = "REQUEST_TIMEOUT"
)

// statusForError maps a query error to an HTTP status and error code.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, query.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, query.ErrUnsupported):
		return http.StatusUnprocessableEntity, ErrCodeUnsupported
	case errors.Is(err, query.ErrNotReady):
		return http.StatusServiceUnavailable, ErrCodeNotReady
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrCodeTimeout
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

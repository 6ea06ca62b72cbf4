// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package api

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/chronogrid/internal/logging"
)

// Cache-Control values. The store only changes when a new file is built, so
// metadata is cached longest.
const (
	cacheMetadata  = "public, max-age=86400"
	cacheHeatmaps  = "public, max-age=3600"
	cacheHistogram = "public, max-age=1800"
	cacheTags      = "public, max-age=3600"
	cacheNone      = "no-store"
)

// APIResponse is the envelope for non-query endpoints.
//
//	{
//	  "status": "error",
//	  "data": null,
//	  "metadata": {"timestamp": "2026-01-01T12:00:00Z"},
//	  "error": {"code": "NOT_FOUND", "message": "not found: tag \"x\""}
//	}
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata describes how a response was produced.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
}

// APIError is a machine-readable code with a human-readable message.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func successResponse(r *http.Request, data any, start time.Time) *APIResponse {
	return &APIResponse{
		Status: "success",
		Data:   data,
		Metadata: Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			RequestID:   logging.RequestIDFromContext(r.Context()),
		},
	}
}

// respondJSON writes v. Successful responses get cacheControl and, when
// etag is set, an ETag header; errors are never cacheable.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any, cacheControl, etag string) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	if status == http.StatusOK {
		h.Set("Cache-Control", cacheControl)
		if etag != "" {
			h.Set("ETag", etag)
		}
	} else {
		h.Set("Cache-Control", cacheNone)
	}
	w.WriteHeader(status)
	writeBody(w, r, data)
}

// notModified answers 304 when If-None-Match matches etag.
func notModified(w http.ResponseWriter, r *http.Request, etag, cacheControl string) bool {
	if !etagMatches(r.Header.Get("If-None-Match"), etag) {
		return false
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", cacheControl)
	w.WriteHeader(http.StatusNotModified)
	return true
}

func writeBody(w http.ResponseWriter, r *http.Request, data []byte) {
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write JSON response")
	}
}

func errorEnvelope(r *http.Request, code, message string, details map[string]any) *APIResponse {
	return &APIResponse{
		Status: "error",
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Error: &APIError{Code: code, Message: message, Details: details},
	}
}

// respondError writes an APIResponse error envelope. Server-side failures
// are logged with the request context.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil && status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().
			Str("code", code).
			Str("path", r.URL.Path).
			Err(err).
			Msg("API error")
	}
	respondJSON(w, r, status, errorEnvelope(r, code, message, nil), cacheNone, "")
}

// respondQueryError writes the error envelope for err.
func respondQueryError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	respondError(w, r, status, code, message, err)
}

// generateETag hashes the build id and the canonical query string with
// FNV-1a. A response is a pure function of both, so the tag can be checked
// before any merging happens.
func generateETag(buildID string, r *http.Request) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(buildID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(r.URL.Path))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(r.URL.Query().Encode()))
	return fmt.Sprintf("\"%016x\"", h.Sum64())
}

// etagMatches implements the weak comparison of If-None-Match. "*" never
// matches: the check runs before the query, when it is not yet known
// whether a representation exists.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for candidate := range strings.SplitSeq(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

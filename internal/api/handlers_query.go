// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/chronogrid/internal/query"
)

// TagsData is the payload of the tag listing endpoints.
type TagsData struct {
	RecordTypes []string           `json:"recordTypes"`
	Selected    []string           `json:"selected,omitempty"`
	Tags        []query.TagSummary `json:"tags"`
}

// Metadata returns the store metadata: grid dimensions per resolution, the
// cell blueprint, time slices, vocabulary and build statistics.
func (h *Handler) Metadata(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	meta, err := h.service.Metadata(r.Context())
	if err != nil {
		respondQueryError(w, r, err)
		return
	}
	etag := generateETag(meta.BuildID, r)
	if notModified(w, r, etag, cacheMetadata) {
		return
	}
	respondJSON(w, r, http.StatusOK, successResponse(r, meta, start), cacheMetadata, etag)
}

// Heatmaps returns the merged heatmap for every time slice, or for the
// slice named by period.
//
// Query: recordTypes, tags, tagOperator, period, resolution.
func (h *Handler) Heatmaps(w http.ResponseWriter, r *http.Request) {
	p, apiErr := parseQueryParams(r)
	if apiErr != nil {
		respondJSON(w, r, http.StatusBadRequest, &query.HeatmapResponse{
			RecordTypes: p.RecordTypes,
			Tags:        p.Tags,
			Message:     apiErr.Message,
		}, cacheNone, "")
		return
	}

	etag, done := h.cacheCheck(w, r, cacheHeatmaps)
	if done {
		return
	}

	resp, err := h.service.HeatmapTimeline(r.Context(), p.request())
	if err != nil {
		status, _ := statusForError(err)
		logQueryFailure(r, status, err)
		respondJSON(w, r, status, resp, cacheNone, "")
		return
	}
	respondJSON(w, r, http.StatusOK, resp, cacheHeatmaps, etag)
}

// Histogram returns the merged per-slice counts. period and resolution are
// accepted but do not change the result.
func (h *Handler) Histogram(w http.ResponseWriter, r *http.Request) {
	p, apiErr := parseQueryParams(r)
	if apiErr != nil {
		respondJSON(w, r, http.StatusBadRequest, &query.HistogramResponse{
			RecordTypes: p.RecordTypes,
			Tags:        p.Tags,
			Message:     apiErr.Message,
		}, cacheNone, "")
		return
	}

	etag, done := h.cacheCheck(w, r, cacheHistogram)
	if done {
		return
	}

	resp, err := h.service.Histogram(r.Context(), p.request())
	if err != nil {
		status, _ := statusForError(err)
		logQueryFailure(r, status, err)
		respondJSON(w, r, status, resp, cacheNone, "")
		return
	}
	respondJSON(w, r, http.StatusOK, resp, cacheHistogram, etag)
}

// AvailableTags lists the tags carried by the selected record types, most
// frequent first.
func (h *Handler) AvailableTags(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, apiErr := parseQueryParams(r)
	if apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}
	etag, done := h.cacheCheck(w, r, cacheTags)
	if done {
		return
	}

	tags, err := h.service.AvailableTags(r.Context(), p.RecordTypes)
	if err != nil {
		respondQueryError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, successResponse(r, TagsData{
		RecordTypes: p.RecordTypes,
		Tags:        tags,
	}, start), cacheTags, etag)
}

// SearchTags completes a tag name prefix over the selected record types.
func (h *Handler) SearchTags(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, apiErr := parseQueryParams(r)
	if apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}
	sp, apiErr := parseSearchParams(r)
	if apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}
	etag, done := h.cacheCheck(w, r, cacheTags)
	if done {
		return
	}

	tags, err := h.service.SearchTags(r.Context(), p.RecordTypes, sp.Prefix, sp.Limit)
	if err != nil {
		respondQueryError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, successResponse(r, TagsData{
		RecordTypes: p.RecordTypes,
		Tags:        tags,
	}, start), cacheTags, etag)
}

// TagCombinations lists the tags that can be ANDed with the selected tags
// and still match features.
func (h *Handler) TagCombinations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, apiErr := parseQueryParams(r)
	if apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}
	etag, done := h.cacheCheck(w, r, cacheTags)
	if done {
		return
	}

	tags, err := h.service.TagCombinations(r.Context(), p.RecordTypes, p.Tags)
	if err != nil {
		respondQueryError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, successResponse(r, TagsData{
		RecordTypes: p.RecordTypes,
		Selected:    p.Tags,
		Tags:        tags,
	}, start), cacheTags, etag)
}

// ValidateTagCombination splits the selected tags into those that can be
// combined and those that cannot.
func (h *Handler) ValidateTagCombination(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, apiErr := parseQueryParams(r)
	if apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}
	etag, done := h.cacheCheck(w, r, cacheTags)
	if done {
		return
	}

	v, err := h.service.ValidateTagCombination(r.Context(), p.RecordTypes, p.Tags)
	if err != nil {
		respondQueryError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, successResponse(r, v, start), cacheTags, etag)
}

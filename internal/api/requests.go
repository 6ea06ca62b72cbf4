// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/chronogrid/internal/query"
	"github.com/tomtom215/chronogrid/internal/validation"
)

// queryParams are the facet parameters shared by the query endpoints.
type queryParams struct {
	RecordTypes []string `json:"recordTypes" validate:"max=64,dive,facet"`
	Tags        []string `json:"tags" validate:"max=64,dive,facet"`
	TagOperator string   `json:"tagOperator" validate:"omitempty,oneof=AND OR"`
	Period      string   `json:"period" validate:"omitempty,slicekey"`
	Resolution  string   `json:"resolution" validate:"omitempty,resolution"`
}

// parseQueryParams reads and validates the facet parameters.
func parseQueryParams(r *http.Request) (queryParams, *validation.APIError) {
	q := r.URL.Query()
	p := queryParams{
		RecordTypes: query.SplitList(q.Get("recordTypes")),
		Tags:        query.SplitList(q.Get("tags")),
		TagOperator: strings.ToUpper(strings.TrimSpace(q.Get("tagOperator"))),
		Period:      strings.TrimSpace(q.Get("period")),
		Resolution:  strings.TrimSpace(q.Get("resolution")),
	}
	if verr := validation.ValidateStruct(&p); verr != nil {
		return p, verr.ToAPIError()
	}
	return p, nil
}

// searchParams are the extra parameters of the tag search endpoint.
type searchParams struct {
	Prefix string `json:"prefix" validate:"omitempty,facet"`
	Limit  int    `json:"limit" validate:"min=0,max=500"`
}

func parseSearchParams(r *http.Request) (searchParams, *validation.APIError) {
	q := r.URL.Query()
	p := searchParams{Prefix: strings.TrimSpace(q.Get("prefix")), Limit: 20}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, &validation.APIError{
				Code:    ErrCodeValidation,
				Message: "limit must be an integer",
				Details: map[string]any{"field": "limit", "value": raw},
			}
		}
		p.Limit = n
	}
	if verr := validation.ValidateStruct(&p); verr != nil {
		return p, verr.ToAPIError()
	}
	return p, nil
}

// request converts validated parameters into a query request.
func (p queryParams) request() query.Request {
	op := query.OperatorAND
	if p.TagOperator == string(query.OperatorOR) {
		op = query.OperatorOR
	}
	return query.Request{
		RecordTypes: p.RecordTypes,
		Tags:        p.Tags,
		TagOperator: op,
		Period:      p.Period,
		Resolution:  p.Resolution,
	}
}

func respondValidationError(w http.ResponseWriter, r *http.Request, apiErr *validation.APIError) {
	respondJSON(w, r, http.StatusBadRequest, errorEnvelope(r, apiErr.Code, apiErr.Message, apiErr.Details), cacheNone, "")
}

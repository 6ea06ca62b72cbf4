// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

// Package validation validates HTTP request structs with go-playground
// validator v10.
//
// A single validator instance is shared and caches struct metadata. Field
// names in messages come from json tags, so errors name the query parameter
// the client sent. Custom tags:
//
//	facet       record type or tag name without '+' or ','
//	slicekey    time slice key, e.g. 1850_1900
//	resolution  grid resolution key, e.g. 75x75
//
// Example:
//
//	type heatmapParams struct {
//	    Tags        []string `json:"tags" validate:"max=32,dive,facet"`
//	    TagOperator string   `json:"tagOperator" validate:"omitempty,oneof=AND OR"`
//	}
//
//	if verr := validation.ValidateStruct(&p); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    ...
//	}
package validation

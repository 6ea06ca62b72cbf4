// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package query

import (
	"time"

	"github.com/tomtom215/chronogrid/internal/aggregate"
)

// HeatmapResponse is a merged heatmap per time slice.
type HeatmapResponse struct {
	HeatmapTimeline map[string]aggregate.Heatmap `json:"heatmapTimeline,omitempty"`
	RecordTypes     []string                     `json:"recordTypes"`
	Tags            []string                     `json:"tags"`
	Resolution      string                       `json:"resolution,omitempty"`
	Success         bool                         `json:"success"`
	Message         string                       `json:"message,omitempty"`
	ProcessingTime  int64                        `json:"processingTime"`
}

// HistogramResponse is a merged histogram.
type HistogramResponse struct {
	Histogram      *aggregate.Histogram `json:"histogram,omitempty"`
	RecordTypes    []string             `json:"recordTypes"`
	Tags           []string             `json:"tags"`
	Success        bool                 `json:"success"`
	Message        string               `json:"message,omitempty"`
	ProcessingTime int64                `json:"processingTime"`
}

// TagSummary describes one selectable tag.
type TagSummary struct {
	Name          string   `json:"name"`
	TotalFeatures int      `json:"totalFeatures"`
	RecordTypes   []string `json:"recordTypes"`
}

// TagValidation splits a tag selection into tags that can be combined and
// tags that cannot.
type TagValidation struct {
	ValidTags   []string `json:"validTags"`
	InvalidTags []string `json:"invalidTags"`
}

func elapsedMillis(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

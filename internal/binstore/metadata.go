// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package binstore

import (
	"fmt"
	"strings"

	"github.com/tomtom215/chronogrid/internal/grid"
	"github.com/tomtom215/chronogrid/internal/temporal"
)

// FormatVersion is written into every file. Readers accept files with the
// same major version.
const FormatVersion = "2.0.0"

// Section locates one block inside the data region.
type Section struct {
	Offset uint64 `json:"offset" msgpack:"offset"`
	Length uint64 `json:"length" msgpack:"length"`
}

// Sections locates every block of the data region.
type Sections struct {
	Heatmaps   Section `json:"heatmaps" msgpack:"heatmaps"`
	Histograms Section `json:"histograms" msgpack:"histograms"`
}

// Stats summarizes the build that produced a file.
type Stats struct {
	TotalFeatures         int            `json:"totalFeatures" msgpack:"totalFeatures"`
	FeaturesPerRecordType SortedMap[int] `json:"featuresPerRecordType" msgpack:"featuresPerRecordType"`
	TimeSliceCount        int            `json:"timeSliceCount" msgpack:"timeSliceCount"`
	GridCellCount         int            `json:"gridCellCount" msgpack:"gridCellCount"`
	ResolutionCount       int            `json:"resolutionCount" msgpack:"resolutionCount"`
}

// Metadata describes the content and layout of a file.
type Metadata struct {
	Version              string                     `json:"version" msgpack:"version"`
	BuildID              string                     `json:"buildId" msgpack:"buildId"`
	Timestamp            string                     `json:"timestamp" msgpack:"timestamp"`
	HeatmapDimensions    grid.Dimensions            `json:"heatmapDimensions" msgpack:"heatmapDimensions"`
	HeatmapBlueprint     grid.Blueprint             `json:"heatmapBlueprint" msgpack:"heatmapBlueprint"`
	TimeSlices           []temporal.TimeSlice       `json:"timeSlices" msgpack:"timeSlices"`
	TimeRange            temporal.TimeRange         `json:"timeRange" msgpack:"timeRange"`
	RecordTypes          []string                   `json:"recordTypes" msgpack:"recordTypes"`
	Tags                 []string                   `json:"tags" msgpack:"tags"`
	Resolutions          []grid.Resolution          `json:"resolutions" msgpack:"resolutions"`
	ResolutionDimensions SortedMap[grid.Dimensions] `json:"resolutionDimensions" msgpack:"resolutionDimensions"`
	MaxCombinationSize   int                        `json:"maxCombinationSize" msgpack:"maxCombinationSize"`
	Sections             Sections                   `json:"sections" msgpack:"sections"`
	Stats                Stats                      `json:"stats" msgpack:"stats"`
}

// PrimaryResolution returns the key of the first resolution.
func (m *Metadata) PrimaryResolution() string {
	if len(m.Resolutions) == 0 {
		return ""
	}
	return m.Resolutions[0].Key()
}

// Dimensions returns the grid of a resolution key.
func (m *Metadata) Dimensions(resolution string) (grid.Dimensions, bool) {
	d, ok := m.ResolutionDimensions[resolution]
	return d, ok
}

func (m *Metadata) validateLayout() error {
	if len(m.Resolutions) == 0 {
		return fmt.Errorf("metadata declares no resolutions")
	}
	for _, r := range m.Resolutions {
		d, ok := m.ResolutionDimensions[r.Key()]
		if !ok {
			return fmt.Errorf("metadata has no dimensions for resolution %s", r.Key())
		}
		if d.ColsAmount != r.Cols || d.RowsAmount != r.Rows {
			return fmt.Errorf("dimensions of resolution %s are %dx%d", r.Key(), d.ColsAmount, d.RowsAmount)
		}
	}
	if len(m.TimeSlices) == 0 {
		return fmt.Errorf("metadata declares no time slices")
	}
	return nil
}

func compatibleVersion(v string) bool {
	major, _, _ := strings.Cut(v, ".")
	want, _, _ := strings.Cut(FormatVersion, ".")
	return major == want
}

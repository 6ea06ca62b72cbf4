// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package aggregate

import (
	"errors"
	"fmt"

	"github.com/tomtom215/chronogrid/internal/temporal"
)

// ErrLengthMismatch is returned when arrays of different grids are combined.
var ErrLengthMismatch = errors.New("array length mismatch")

// Heatmap holds the counts of one facet on one grid and their densities.
type Heatmap struct {
	CountArray   []uint32  `json:"countArray"`
	DensityArray []float32 `json:"densityArray"`
}

// NewHeatmap derives densities for counts. counts is retained.
func NewHeatmap(counts []uint32) Heatmap {
	return Heatmap{CountArray: counts, DensityArray: Density(counts)}
}

// Len returns the number of cells.
func (h Heatmap) Len() int {
	return len(h.CountArray)
}

// Total returns the sum of all cell counts.
func (h Heatmap) Total() uint64 {
	var sum uint64
	for _, c := range h.CountArray {
		sum += uint64(c)
	}
	return sum
}

// Density normalizes counts by their maximum. All-zero input yields zeros.
func Density(counts []uint32) []float32 {
	density := make([]float32, len(counts))
	var peak uint32
	for _, c := range counts {
		peak = max(peak, c)
	}
	if peak == 0 {
		return density
	}
	for i, c := range counts {
		density[i] = float32(float64(c) / float64(peak))
	}
	return density
}

// SumHeatmaps adds counts cell by cell and recomputes density from the sums.
// Every input must have the same length.
func SumHeatmaps(heatmaps ...Heatmap) (Heatmap, error) {
	if len(heatmaps) == 0 {
		return Heatmap{}, fmt.Errorf("no heatmaps to merge")
	}
	n := heatmaps[0].Len()
	sum := make([]uint32, n)
	for i, h := range heatmaps {
		if h.Len() != n {
			return Heatmap{}, fmt.Errorf("%w: heatmap %d has %d cells, expected %d", ErrLengthMismatch, i, h.Len(), n)
		}
		for j, c := range h.CountArray {
			sum[j] += c
		}
	}
	return NewHeatmap(sum), nil
}

// RecordTypeHeatmaps is the heatmap set of one record type in one time slice.
// Tags holds single tags and combination keys.
type RecordTypeHeatmaps struct {
	Base Heatmap            `json:"base"`
	Tags map[string]Heatmap `json:"tags"`
}

// HeatmapTimeline maps slice key -> record type -> heatmaps.
type HeatmapTimeline map[string]map[string]*RecordTypeHeatmaps

// HeatmapResolutions maps resolution key -> timeline.
type HeatmapResolutions map[string]HeatmapTimeline

// HistogramBin is the count of one time slice.
type HistogramBin struct {
	TimeSlice temporal.TimeSlice `json:"timeSlice"`
	Count     int                `json:"count"`
}

// Histogram is the per-slice count of one facet.
type Histogram struct {
	Bins          []HistogramBin     `json:"bins"`
	RecordTypes   []string           `json:"recordTypes,omitempty"`
	Tags          []string           `json:"tags,omitempty"`
	MaxCount      int                `json:"maxCount"`
	TimeRange     temporal.TimeRange `json:"timeRange"`
	TotalFeatures int                `json:"totalFeatures"`
}

// NewHistogram pairs counts with slices and derives MaxCount and
// TotalFeatures from them. len(counts) must equal len(slices).
func NewHistogram(slices []temporal.TimeSlice, counts []uint32) (Histogram, error) {
	if len(counts) != len(slices) {
		return Histogram{}, fmt.Errorf("%w: %d counts for %d time slices", ErrLengthMismatch, len(counts), len(slices))
	}
	h := Histogram{
		Bins:      make([]HistogramBin, len(slices)),
		TimeRange: temporal.Span(slices),
	}
	for i, s := range slices {
		c := int(counts[i])
		h.Bins[i] = HistogramBin{TimeSlice: s, Count: c}
		h.TotalFeatures += c
		h.MaxCount = max(h.MaxCount, c)
	}
	return h, nil
}

// Counts returns the bin counts in slice order.
func (h Histogram) Counts() []uint32 {
	out := make([]uint32, len(h.Bins))
	for i, b := range h.Bins {
		out[i] = uint32(b.Count)
	}
	return out
}

// TimeSlices returns the bin slices in order.
func (h Histogram) TimeSlices() []temporal.TimeSlice {
	out := make([]temporal.TimeSlice, len(h.Bins))
	for i, b := range h.Bins {
		out[i] = b.TimeSlice
	}
	return out
}

// SumHistograms adds bins slice by slice. Every input must cover the same
// slices in the same order.
func SumHistograms(histograms ...Histogram) (Histogram, error) {
	if len(histograms) == 0 {
		return Histogram{}, fmt.Errorf("no histograms to merge")
	}
	first := histograms[0]
	sum := make([]uint32, len(first.Bins))
	for i, h := range histograms {
		if len(h.Bins) != len(first.Bins) {
			return Histogram{}, fmt.Errorf("%w: histogram %d has %d bins, expected %d", ErrLengthMismatch, i, len(h.Bins), len(first.Bins))
		}
		for j, b := range h.Bins {
			if b.TimeSlice.Key != first.Bins[j].TimeSlice.Key {
				return Histogram{}, fmt.Errorf("%w: histogram %d bin %d is %s, expected %s",
					ErrLengthMismatch, i, j, b.TimeSlice.Key, first.Bins[j].TimeSlice.Key)
			}
			sum[j] += uint32(b.Count)
		}
	}
	return NewHistogram(first.TimeSlices(), sum)
}

// RecordTypeHistograms is the histogram set of one record type.
type RecordTypeHistograms struct {
	Base Histogram            `json:"base"`
	Tags map[string]Histogram `json:"tags"`
}

// Histograms maps record type -> histograms.
type Histograms map[string]*RecordTypeHistograms

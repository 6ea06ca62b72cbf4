// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package query

import (
	"fmt"
	"slices"

	"github.com/tomtom215/chronogrid/internal/aggregate"
	"github.com/tomtom215/chronogrid/internal/grid"
	"github.com/tomtom215/chronogrid/internal/temporal"
	"github.com/tomtom215/chronogrid/internal/vocabulary"
)

// plan is a request resolved against the store vocabulary.
type plan struct {
	recordTypes []string
	tags        []string
	// keys are the facet keys to sum. The empty key is the base facet.
	keys       []string
	resolution string
	dims       grid.Dimensions
	slices     []temporal.TimeSlice
}

func (st *Store) plan(req Request) (*plan, error) {
	meta := st.Metadata
	p := &plan{tags: req.Tags}

	if len(req.RecordTypes) == 0 {
		p.recordTypes = slices.Clone(meta.RecordTypes)
	} else {
		for _, rt := range req.RecordTypes {
			if !slices.Contains(meta.RecordTypes, rt) {
				return nil, fmt.Errorf("%w: record type %q", ErrNotFound, rt)
			}
		}
		p.recordTypes = req.RecordTypes
	}

	for _, tag := range req.Tags {
		if !slices.Contains(meta.Tags, tag) {
			return nil, fmt.Errorf("%w: tag %q", ErrNotFound, tag)
		}
	}
	switch {
	case len(req.Tags) == 0:
		p.keys = []string{""}
	case len(req.Tags) == 1:
		p.keys = []string{req.Tags[0]}
	case req.TagOperator == OperatorOR:
		p.keys = req.Tags
	default:
		if len(req.Tags) > meta.MaxCombinationSize {
			return nil, fmt.Errorf("%w: %d tags combined with AND, at most %d are precomputed",
				ErrUnsupported, len(req.Tags), meta.MaxCombinationSize)
		}
		p.keys = []string{vocabulary.CombinationKey(req.Tags)}
	}

	p.resolution = req.Resolution
	if p.resolution == "" {
		p.resolution = meta.PrimaryResolution()
	}
	dims, ok := meta.Dimensions(p.resolution)
	if !ok {
		return nil, fmt.Errorf("%w: resolution %q", ErrNotFound, p.resolution)
	}
	p.dims = dims

	if req.Period == "" {
		p.slices = meta.TimeSlices
	} else {
		i := slices.IndexFunc(meta.TimeSlices, func(s temporal.TimeSlice) bool { return s.Key == req.Period })
		if i < 0 {
			return nil, fmt.Errorf("%w: period %q", ErrNotFound, req.Period)
		}
		p.slices = meta.TimeSlices[i : i+1]
	}
	return p, nil
}

func heatmapFacet(h *aggregate.RecordTypeHeatmaps, key string) (aggregate.Heatmap, bool) {
	if h == nil {
		return aggregate.Heatmap{}, false
	}
	if key == "" {
		return h.Base, true
	}
	hm, ok := h.Tags[key]
	return hm, ok
}

func histogramFacet(h *aggregate.RecordTypeHistograms, key string) (aggregate.Histogram, bool) {
	if h == nil {
		return aggregate.Histogram{}, false
	}
	if key == "" {
		return h.Base, true
	}
	hist, ok := h.Tags[key]
	return hist, ok
}

func (p *plan) describe() string {
	if len(p.tags) == 0 {
		return fmt.Sprintf("record types %v", p.recordTypes)
	}
	return fmt.Sprintf("tags %v for record types %v", p.tags, p.recordTypes)
}

// mergeHeatmaps sums the planned facets of every planned slice.
func (st *Store) mergeHeatmaps(p *plan) (map[string]aggregate.Heatmap, error) {
	timeline := st.Heatmaps[p.resolution]
	cells := p.dims.CellCount()
	out := make(map[string]aggregate.Heatmap, len(p.slices))
	found := false

	for _, slice := range p.slices {
		byType := timeline[slice.Key]
		var sources []aggregate.Heatmap
		for _, rt := range p.recordTypes {
			for _, key := range p.keys {
				if h, ok := heatmapFacet(byType[rt], key); ok {
					sources = append(sources, h)
				}
			}
		}

		var merged aggregate.Heatmap
		switch len(sources) {
		case 0:
			merged = aggregate.NewHeatmap(make([]uint32, cells))
		case 1:
			found = true
			merged = sources[0]
		default:
			found = true
			var err error
			if merged, err = aggregate.SumHeatmaps(sources...); err != nil {
				return nil, fmt.Errorf("merge slice %s at %s: %w", slice.Key, p.resolution, err)
			}
		}
		if merged.Len() != cells || len(merged.DensityArray) != cells {
			return nil, fmt.Errorf("%w: slice %s at %s has %d cells, grid has %d",
				ErrLengthMismatch, slice.Key, p.resolution, merged.Len(), cells)
		}
		out[slice.Key] = merged
	}

	if !found {
		return nil, fmt.Errorf("%w: no heatmaps for %s", ErrNotFound, p.describe())
	}
	return out, nil
}

// mergeHistograms sums the planned facets over all time slices.
func (st *Store) mergeHistograms(p *plan) (aggregate.Histogram, error) {
	var sources []aggregate.Histogram
	for _, rt := range p.recordTypes {
		for _, key := range p.keys {
			if h, ok := histogramFacet(st.Histograms[rt], key); ok {
				sources = append(sources, h)
			}
		}
	}
	if len(sources) == 0 {
		return aggregate.Histogram{}, fmt.Errorf("%w: no histograms for %s", ErrNotFound, p.describe())
	}

	merged, err := aggregate.SumHistograms(sources...)
	if err != nil {
		return aggregate.Histogram{}, fmt.Errorf("merge histograms: %w", err)
	}
	merged.RecordTypes = slices.Clone(p.recordTypes)
	merged.Tags = slices.Clone(p.tags)
	return merged, nil
}

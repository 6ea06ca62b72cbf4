// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package aggregate

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/tomtom215/chronogrid/internal/grid"
	"github.com/tomtom215/chronogrid/internal/logging"
	"github.com/tomtom215/chronogrid/internal/temporal"
	"github.com/tomtom215/chronogrid/internal/vocabulary"
)

// ErrFinalized is returned when features are added after Finalize.
var ErrFinalized = errors.New("accumulator already finalized")

// Feature is the minimal form of a record consumed by the accumulator.
type Feature struct {
	RecordType string
	Tags       []string
	Geometry   orb.Geometry
	StartYear  int
	EndYear    int
}

// Config fixes the layout of an Accumulator.
type Config struct {
	// Resolutions holds one grid per resolution; the first is the primary one.
	Resolutions []grid.Dimensions

	// Slices must be ordered.
	Slices []temporal.TimeSlice

	// MaxCombinationSize bounds tag combination keys. Values below 2 disable
	// combinations.
	MaxCombinationSize int
}

// Stats summarizes an accumulation run.
type Stats struct {
	TotalFeatures         int            `json:"totalFeatures"`
	FeaturesPerRecordType map[string]int `json:"featuresPerRecordType"`
	InvalidSkipped        int            `json:"invalidSkipped"`
	OutsideTimeRange      int            `json:"outsideTimeRange"`
	OutsideGrid           map[string]int `json:"outsideGrid"`
}

// Result is the finalized output of an Accumulator.
type Result struct {
	Heatmaps   HeatmapResolutions
	Histograms Histograms
	Stats      Stats
}

// facetCounts holds the base, per-tag and per-combination arrays of one
// record type. Tag arrays are indexed by vocabulary slot and stay nil until
// the first increment.
type facetCounts struct {
	base   []uint32
	tags   [][]uint32
	combos map[string][]uint32
}

func newFacetCounts(tagCount int) *facetCounts {
	return &facetCounts{
		tags:   make([][]uint32, tagCount),
		combos: make(map[string][]uint32),
	}
}

func (f *facetCounts) baseArray(n int) []uint32 {
	if f.base == nil {
		f.base = make([]uint32, n)
	}
	return f.base
}

func (f *facetCounts) tagArray(slot, n int) []uint32 {
	if f.tags[slot] == nil {
		f.tags[slot] = make([]uint32, n)
	}
	return f.tags[slot]
}

func (f *facetCounts) comboArray(key string, n int) []uint32 {
	arr, ok := f.combos[key]
	if !ok {
		arr = make([]uint32, n)
		f.combos[key] = arr
	}
	return arr
}

type resolutionCounts struct {
	dims grid.Dimensions
	key  string
	// cells[slice][typeSlot]
	cells       [][]*facetCounts
	outsideGrid int
}

// Accumulator builds heatmaps and histograms from features.
type Accumulator struct {
	vocab       *vocabulary.Frozen
	tagCount    int
	slices      []temporal.TimeSlice
	maxCombo    int
	resolutions []*resolutionCounts
	// histograms[typeSlot] counts per slice.
	histograms []*facetCounts
	stats      Stats
	finalized  bool
}

// New creates an Accumulator for a frozen vocabulary.
func New(vocab *vocabulary.Frozen, cfg Config) (*Accumulator, error) {
	if vocab == nil {
		return nil, fmt.Errorf("vocabulary is required")
	}
	if len(cfg.Resolutions) == 0 {
		return nil, fmt.Errorf("at least one resolution is required")
	}
	if len(cfg.Slices) == 0 {
		return nil, fmt.Errorf("at least one time slice is required")
	}

	types := vocab.RecordTypes()
	tags := vocab.Tags()

	a := &Accumulator{
		vocab:      vocab,
		tagCount:   len(tags),
		slices:     cfg.Slices,
		maxCombo:   cfg.MaxCombinationSize,
		histograms: make([]*facetCounts, len(types)),
		stats: Stats{
			FeaturesPerRecordType: make(map[string]int, len(types)),
			OutsideGrid:           make(map[string]int, len(cfg.Resolutions)),
		},
	}
	seen := make(map[string]bool, len(cfg.Resolutions))
	for _, dims := range cfg.Resolutions {
		key := dims.Resolution().Key()
		if seen[key] {
			return nil, fmt.Errorf("duplicate resolution %s", key)
		}
		seen[key] = true

		rc := &resolutionCounts{dims: dims, key: key, cells: make([][]*facetCounts, len(cfg.Slices))}
		for s := range rc.cells {
			rc.cells[s] = make([]*facetCounts, len(types))
		}
		a.resolutions = append(a.resolutions, rc)
	}
	for i := range a.histograms {
		a.histograms[i] = newFacetCounts(len(tags))
	}
	return a, nil
}

// Add counts one feature. Features without a representative point are
// skipped and counted as invalid. A record type or tag outside the frozen
// vocabulary is an error.
func (a *Accumulator) Add(f Feature) error {
	if a.finalized {
		return ErrFinalized
	}

	point, ok := RepresentativePoint(f.Geometry)
	if !ok {
		a.stats.InvalidSkipped++
		logging.Debug().Str("record_type", f.RecordType).Msg("Skipping feature without representative point")
		return nil
	}

	tags := vocabulary.NormalizeTags(f.Tags)
	typeSlot, tagSlots, err := a.vocab.Require(f.RecordType, tags)
	if err != nil {
		return fmt.Errorf("accumulate feature: %w", err)
	}

	sliceIdx := temporal.Assign(a.slices, f.StartYear, f.EndYear)
	if len(sliceIdx) == 0 {
		a.stats.OutsideTimeRange++
		return nil
	}
	combos := vocabulary.Combinations(tags, a.maxCombo)

	a.stats.TotalFeatures++
	a.stats.FeaturesPerRecordType[f.RecordType]++

	for _, rc := range a.resolutions {
		cell, inGrid := grid.FlatIndexFor(point, rc.dims)
		if !inGrid {
			rc.outsideGrid++
			continue
		}
		n := rc.dims.CellCount()
		for _, s := range sliceIdx {
			fc := rc.cells[s][typeSlot]
			if fc == nil {
				fc = newFacetCounts(a.tagCount)
				rc.cells[s][typeSlot] = fc
			}
			fc.baseArray(n)[cell]++
			for _, slot := range tagSlots {
				fc.tagArray(slot, n)[cell]++
			}
			for _, key := range combos {
				fc.comboArray(key, n)[cell]++
			}
		}
	}

	hist := a.histograms[typeSlot]
	n := len(a.slices)
	for _, s := range sliceIdx {
		hist.baseArray(n)[s]++
		for _, slot := range tagSlots {
			hist.tagArray(slot, n)[s]++
		}
		for _, key := range combos {
			hist.comboArray(key, n)[s]++
		}
	}
	return nil
}

// Stats returns the counters collected so far.
func (a *Accumulator) Stats() Stats {
	s := a.stats
	s.FeaturesPerRecordType = make(map[string]int, len(a.stats.FeaturesPerRecordType))
	for k, v := range a.stats.FeaturesPerRecordType {
		s.FeaturesPerRecordType[k] = v
	}
	s.OutsideGrid = make(map[string]int, len(a.resolutions))
	for _, rc := range a.resolutions {
		s.OutsideGrid[rc.key] = rc.outsideGrid
	}
	return s
}

// Finalize derives densities and histogram totals. Every record type gets a
// base entry in every slice, and every tag or combination observed for a
// record type gets an entry in every slice of that record type, zero-filled
// where it has no counts. The Accumulator cannot be used afterwards.
func (a *Accumulator) Finalize() (*Result, error) {
	if a.finalized {
		return nil, ErrFinalized
	}
	a.finalized = true

	types := a.vocab.RecordTypes()
	tags := a.vocab.Tags()

	// Facet keys per record type come from the histograms, which count
	// features regardless of grid membership.
	facetKeys := make([][]string, len(types))
	histograms := make(Histograms, len(types))
	for t, rt := range types {
		hist := a.histograms[t]
		entry := &RecordTypeHistograms{Tags: make(map[string]Histogram)}

		base, err := NewHistogram(a.slices, hist.baseArray(len(a.slices)))
		if err != nil {
			return nil, fmt.Errorf("histogram %s base: %w", rt, err)
		}
		base.RecordTypes = []string{rt}
		entry.Base = base

		for slot, counts := range hist.tags {
			if counts == nil {
				continue
			}
			h, err := NewHistogram(a.slices, counts)
			if err != nil {
				return nil, fmt.Errorf("histogram %s tag %s: %w", rt, tags[slot], err)
			}
			h.RecordTypes = []string{rt}
			h.Tags = []string{tags[slot]}
			entry.Tags[tags[slot]] = h
			facetKeys[t] = append(facetKeys[t], tags[slot])
		}
		for key, counts := range hist.combos {
			h, err := NewHistogram(a.slices, counts)
			if err != nil {
				return nil, fmt.Errorf("histogram %s combination %s: %w", rt, key, err)
			}
			h.RecordTypes = []string{rt}
			h.Tags = vocabulary.SplitCombinationKey(key)
			entry.Tags[key] = h
			facetKeys[t] = append(facetKeys[t], key)
		}
		histograms[rt] = entry
	}

	heatmaps := make(HeatmapResolutions, len(a.resolutions))
	for _, rc := range a.resolutions {
		n := rc.dims.CellCount()
		timeline := make(HeatmapTimeline, len(a.slices))
		for s, slice := range a.slices {
			byType := make(map[string]*RecordTypeHeatmaps, len(types))
			for t, rt := range types {
				fc := rc.cells[s][t]
				if fc == nil {
					fc = newFacetCounts(len(tags))
				}
				entry := &RecordTypeHeatmaps{
					Base: NewHeatmap(fc.baseArray(n)),
					Tags: make(map[string]Heatmap, len(facetKeys[t])),
				}
				for _, key := range facetKeys[t] {
					entry.Tags[key] = NewHeatmap(fc.lookup(a.vocab, key, n))
				}
				byType[rt] = entry
			}
			timeline[slice.Key] = byType
		}
		heatmaps[rc.key] = timeline
	}

	return &Result{Heatmaps: heatmaps, Histograms: histograms, Stats: a.Stats()}, nil
}

// lookup returns the array for a tag or combination key, allocating zeros
// when nothing was counted.
func (f *facetCounts) lookup(vocab *vocabulary.Frozen, key string, n int) []uint32 {
	if vocabulary.IsCombinationKey(key) {
		return f.comboArray(key, n)
	}
	slot, ok := vocab.TagSlot(key)
	if !ok {
		return make([]uint32, n)
	}
	return f.tagArray(slot, n)
}

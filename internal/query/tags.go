// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package query

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/tomtom215/chronogrid/internal/vocabulary"
)

func (st *Store) resolveRecordTypes(recordTypes []string) ([]string, error) {
	recordTypes = normalize(recordTypes)
	if len(recordTypes) == 0 {
		return slices.Clone(st.Metadata.RecordTypes), nil
	}
	for _, rt := range recordTypes {
		if !slices.Contains(st.Metadata.RecordTypes, rt) {
			return nil, fmt.Errorf("%w: record type %q", ErrNotFound, rt)
		}
	}
	return recordTypes, nil
}

// facetTotal sums the total features of one facet key over record types and
// returns the record types that carry it.
func (st *Store) facetTotal(recordTypes []string, key string) (int, []string) {
	total := 0
	var carriers []string
	for _, rt := range recordTypes {
		h, ok := histogramFacet(st.Histograms[rt], key)
		if !ok || h.TotalFeatures == 0 {
			continue
		}
		total += h.TotalFeatures
		carriers = append(carriers, rt)
	}
	return total, carriers
}

func sortSummaries(out []TagSummary) {
	slices.SortFunc(out, func(a, b TagSummary) int {
		if c := cmp.Compare(b.TotalFeatures, a.TotalFeatures); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}

// AvailableTags lists the tags present on the given record types, most
// frequent first. Combination entries are not listed.
func (s *Service) AvailableTags(ctx context.Context, recordTypes []string) ([]TagSummary, error) {
	return s.TagCombinations(ctx, recordTypes, nil)
}

// SearchTags lists the tags on the given record types whose name starts
// with prefix, ignoring case, most frequent first. A non-positive limit
// returns every match.
func (s *Service) SearchTags(ctx context.Context, recordTypes []string, prefix string, limit int) ([]TagSummary, error) {
	st, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	rts, err := st.resolveRecordTypes(recordTypes)
	if err != nil {
		return nil, err
	}

	out := []TagSummary{}
	for _, m := range st.tagIndex.Complete(prefix, 0) {
		total, carriers := st.facetTotal(rts, m.Value)
		if total == 0 {
			continue
		}
		out = append(out, TagSummary{Name: m.Value, TotalFeatures: total, RecordTypes: carriers})
	}
	sortSummaries(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// TagCombinations lists the tags that can be added to selected so that the
// AND combination still matches at least one feature. With no selection it
// lists every available tag.
func (s *Service) TagCombinations(ctx context.Context, recordTypes, selected []string) ([]TagSummary, error) {
	st, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	rts, err := st.resolveRecordTypes(recordTypes)
	if err != nil {
		return nil, err
	}
	selected = normalize(selected)
	for _, tag := range selected {
		if !slices.Contains(st.Metadata.Tags, tag) {
			return nil, fmt.Errorf("%w: tag %q", ErrNotFound, tag)
		}
	}

	out := []TagSummary{}
	if len(selected)+1 > max(st.Metadata.MaxCombinationSize, 1) {
		return out, nil
	}
	for _, tag := range st.Metadata.Tags {
		if slices.Contains(selected, tag) {
			continue
		}
		key := vocabulary.CombinationKey(append(slices.Clone(selected), tag))
		total, carriers := st.facetTotal(rts, key)
		if total == 0 {
			continue
		}
		out = append(out, TagSummary{Name: tag, TotalFeatures: total, RecordTypes: carriers})
	}
	sortSummaries(out)
	return out, nil
}

// ValidateTagCombination keeps, in order, each selected tag that still
// matches features when combined with the tags kept before it.
func (s *Service) ValidateTagCombination(ctx context.Context, recordTypes, selected []string) (*TagValidation, error) {
	st, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	rts, err := st.resolveRecordTypes(recordTypes)
	if err != nil {
		return nil, err
	}

	v := &TagValidation{ValidTags: []string{}, InvalidTags: []string{}}
	for _, tag := range selected {
		if slices.Contains(v.ValidTags, tag) {
			continue
		}
		candidate := append(slices.Clone(v.ValidTags), tag)
		ok := slices.Contains(st.Metadata.Tags, tag) && len(candidate) <= max(st.Metadata.MaxCombinationSize, 1)
		if ok {
			total, _ := st.facetTotal(rts, vocabulary.CombinationKey(candidate))
			ok = total > 0
		}
		if ok {
			v.ValidTags = append(v.ValidTags, tag)
		} else {
			v.InvalidTags = append(v.InvalidTags, tag)
		}
	}
	return v, nil
}

// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package query

import (
	"fmt"
	"slices"
	"strings"
)

// Operator combines several tags.
type Operator string

const (
	// OperatorAND selects features carrying every tag.
	OperatorAND Operator = "AND"
	// OperatorOR selects features carrying any tag.
	OperatorOR Operator = "OR"
)

// ParseOperator parses a tag operator. The empty string means AND.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(OperatorAND):
		return OperatorAND, nil
	case string(OperatorOR):
		return OperatorOR, nil
	default:
		return "", fmt.Errorf("%w: tag operator %q", ErrUnsupported, s)
	}
}

// Request selects the facets to merge.
type Request struct {
	RecordTypes []string
	Tags        []string
	TagOperator Operator
	// Period restricts a heatmap timeline to one time slice key.
	Period string
	// Resolution selects the grid. Empty means the primary resolution.
	Resolution string
}

// SplitList splits a comma-separated parameter, dropping blanks.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalize(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}

// normalized returns a copy with sorted, deduplicated lists and a defaulted
// operator.
func (r Request) normalized() Request {
	r.RecordTypes = normalize(r.RecordTypes)
	r.Tags = normalize(r.Tags)
	if r.TagOperator == "" {
		r.TagOperator = OperatorAND
	}
	return r
}

func (r Request) cacheKey(kind string) string {
	return strings.Join([]string{
		kind,
		r.Resolution,
		r.Period,
		string(r.TagOperator),
		strings.Join(r.RecordTypes, ","),
		strings.Join(r.Tags, ","),
	}, "|")
}

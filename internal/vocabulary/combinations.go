// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package vocabulary

import (
	"slices"
	"strings"
)

// NormalizeTags returns the sorted, de-duplicated tags.
func NormalizeTags(tags []string) []string {
	out := slices.Clone(tags)
	slices.Sort(out)
	return slices.Compact(out)
}

// CombinationKey joins tags in sorted order. A single tag is its own key.
func CombinationKey(tags []string) string {
	return strings.Join(NormalizeTags(tags), CombinationDelimiter)
}

// SplitCombinationKey reverses CombinationKey.
func SplitCombinationKey(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, CombinationDelimiter)
}

// IsCombinationKey reports whether key names more than one tag.
func IsCombinationKey(key string) bool {
	return strings.Contains(key, CombinationDelimiter)
}

// Combinations returns the keys of every subset of tags with size 2..maxSize,
// in lexicographic order of the sorted tags.
func Combinations(tags []string, maxSize int) []string {
	sorted := NormalizeTags(tags)
	if maxSize > len(sorted) {
		maxSize = len(sorted)
	}
	var out []string
	pick := make([]string, 0, maxSize)
	var walk func(start, size int)
	walk = func(start, size int) {
		if len(pick) == size {
			out = append(out, strings.Join(pick, CombinationDelimiter))
			return
		}
		for i := start; i <= len(sorted)-(size-len(pick)); i++ {
			pick = append(pick, sorted[i])
			walk(i+1, size)
			pick = pick[:len(pick)-1]
		}
	}
	for size := 2; size <= maxSize; size++ {
		walk(0, size)
	}
	return out
}

// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

/*
Package cache provides the in-memory structures of the query server: a
thread-safe generic LRU cache with TTL support and a weighted prefix Trie.

The query service stores merged heatmap timelines and histograms here so
repeated multi-record-type or OR-tag requests skip the summation work. The
underlying store is immutable, so entries never need invalidation while the
process runs; TTL and capacity only bound memory.

# Usage Example

	c := cache.NewLRU[*query.HeatmapResult](512, 10*time.Minute)
	c.Add("heatmap|75x75|image,text", result)
	if v, ok := c.Get("heatmap|75x75|image,text"); ok {
	    // use v
	}

Expired entries are dropped lazily on Get. CleanupExpired sweeps the whole
list and is run periodically by the supervisor's cache janitor.

The Trie indexes the tag vocabulary of a loaded store for prefix search.
Each tag is weighted by its feature count so common tags complete first.

	idx := cache.NewTrie()
	idx.Insert("castle", 120)
	idx.Complete("cas", 10)

# Thread Safety

All methods take the structure's mutex. Get takes the write lock because it
updates recency order.
*/
package cache

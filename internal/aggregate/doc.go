// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

/*
Package aggregate accumulates per-cell heatmaps and per-slice histograms.

An Accumulator is built from a frozen vocabulary, the grid dimensions of
every resolution and the ordered time slices. Each feature added is reduced
to a representative point and counted, for every time slice it overlaps, in:

  - the base heatmap and histogram of its record type
  - the heatmap and histogram of every tag it carries
  - the heatmap and histogram of every tag combination of size 2 up to the
    configured maximum, keyed by the sorted tags joined with "+"

Spatial and temporal aggregation are independent: a feature outside the grid
of one resolution is still counted in the histograms.

Finalize derives densities (count divided by the array's own maximum) and
histogram totals, and returns the structures the binary store persists.

# Types

	HeatmapResolutions["75x75"]["1850_1900"]["image"].Tags["church+war"]
	Histograms["image"].Tags["church"].Bins[i].Count

An Accumulator is not safe for concurrent use. The build feeds it from a
single goroutine.
*/
package aggregate

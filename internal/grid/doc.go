// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

/*
Package grid maps geographic coordinates onto fixed rectangular grids.

A grid is described by Dimensions: a padded bounding box split into
ColsAmount x RowsAmount equal cells. Cells are addressed by the id
"{row}_{col}" and stored row-major, so row*ColsAmount+col is the index
into every count and density array of that resolution.

# Cell Assignment

	dims, _ := grid.NewDimensions(bounds, 75, 75, 0.05)
	id, ok := grid.CellIDFor(orb.Point{lon, lat}, dims)
	if !ok {
	    // outside the padded bounding box
	}

Cells use an inclusive lower edge and an exclusive upper edge. A point that
is inside the box but lands on col == ColsAmount through floating-point
rounding is clamped to the last column, so a point is either in the grid at
every resolution sharing the box or at none of them.

# Resolutions

Several resolutions share one bounding box. Resolution keys are "{cols}x{rows}"
(for example "75x75"); the first configured resolution is the primary one and
provides the cell blueprint stored in file metadata.
*/
package grid

// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package aggregate

import (
	"math"

	"github.com/paulmach/orb"
)

// RepresentativePoint reduces g to one point: the point itself, or the
// arithmetic mean of the vertices for every other geometry. The mean is not
// weighted by length or area. The repeated closing vertex of a ring is
// counted once. ok is false for empty or unsupported geometries.
func RepresentativePoint(g orb.Geometry) (orb.Point, bool) {
	if g == nil {
		return orb.Point{}, false
	}
	if p, isPoint := g.(orb.Point); isPoint {
		return p, validPoint(p)
	}

	var sumLon, sumLat float64
	var n int
	add := func(points []orb.Point) {
		for _, p := range points {
			sumLon += p.Lon()
			sumLat += p.Lat()
			n++
		}
	}
	addRing := func(r orb.Ring) {
		if len(r) > 1 && r.Closed() {
			r = r[:len(r)-1]
		}
		add(r)
	}

	switch geom := g.(type) {
	case orb.MultiPoint:
		add(geom)
	case orb.LineString:
		add(geom)
	case orb.MultiLineString:
		for _, ls := range geom {
			add(ls)
		}
	case orb.Ring:
		addRing(geom)
	case orb.Polygon:
		for _, r := range geom {
			addRing(r)
		}
	case orb.MultiPolygon:
		for _, poly := range geom {
			for _, r := range poly {
				addRing(r)
			}
		}
	default:
		return orb.Point{}, false
	}
	if n == 0 {
		return orb.Point{}, false
	}
	p := orb.Point{sumLon / float64(n), sumLat / float64(n)}
	return p, validPoint(p)
}

func validPoint(p orb.Point) bool {
	return !math.IsNaN(p.Lon()) && !math.IsNaN(p.Lat())
}

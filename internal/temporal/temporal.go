// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

// Package temporal partitions a year range into fixed-width time slices and
// assigns record intervals to them.
//
// Slices are ordered, start at the global minimum year and share their
// boundary years with their neighbours ([1500,1550], [1550,1600], ...).
// Assignment uses inclusive overlap, so a record whose interval touches a
// boundary year belongs to both adjacent slices.
package temporal

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidRange is returned for empty or reversed year ranges.
var ErrInvalidRange = errors.New("invalid year range")

// TimeRange is an ISO date range, start and end inclusive.
type TimeRange struct {
	Start string `json:"start" msgpack:"start"`
	End   string `json:"end" msgpack:"end"`
}

// YearRange returns the calendar range covering startYear..endYear.
func YearRange(startYear, endYear int) TimeRange {
	return TimeRange{
		Start: fmt.Sprintf("%04d-01-01", startYear),
		End:   fmt.Sprintf("%04d-12-31", endYear),
	}
}

// TimeSlice is one bucket of the timeline.
type TimeSlice struct {
	Key           string    `json:"key" msgpack:"key"`
	Label         string    `json:"label" msgpack:"label"`
	TimeRange     TimeRange `json:"timeRange" msgpack:"timeRange"`
	StartYear     int       `json:"startYear" msgpack:"startYear"`
	EndYear       int       `json:"endYear" msgpack:"endYear"`
	DurationYears int       `json:"durationYears" msgpack:"durationYears"`
}

// NewSlice builds the slice covering startYear..endYear.
func NewSlice(startYear, endYear int) TimeSlice {
	return TimeSlice{
		Key:           SliceKey(startYear, endYear),
		Label:         strconv.Itoa(startYear) + "-" + strconv.Itoa(endYear),
		TimeRange:     YearRange(startYear, endYear),
		StartYear:     startYear,
		EndYear:       endYear,
		DurationYears: endYear - startYear,
	}
}

// SliceKey returns the "start_end" key.
func SliceKey(startYear, endYear int) string {
	return strconv.Itoa(startYear) + "_" + strconv.Itoa(endYear)
}

// Overlaps reports whether [startYear, endYear] intersects the slice, both
// ends inclusive.
func (s TimeSlice) Overlaps(startYear, endYear int) bool {
	return startYear <= s.EndYear && endYear >= s.StartYear
}

// Partition splits [startYear, endYear] into slices of width years. The last
// slice is cut short at endYear.
func Partition(startYear, endYear, width int) ([]TimeSlice, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: slice width must be positive, got %d", ErrInvalidRange, width)
	}
	if endYear <= startYear {
		return nil, fmt.Errorf("%w: end year %d must be after start year %d", ErrInvalidRange, endYear, startYear)
	}
	slices := make([]TimeSlice, 0, (endYear-startYear+width-1)/width)
	for s := startYear; s < endYear; s += width {
		slices = append(slices, NewSlice(s, min(s+width, endYear)))
	}
	return slices, nil
}

// Span returns the range covered by an ordered slice list.
func Span(slices []TimeSlice) TimeRange {
	if len(slices) == 0 {
		return TimeRange{}
	}
	return YearRange(slices[0].StartYear, slices[len(slices)-1].EndYear)
}

// Assign returns the indexes of every slice overlapping [startYear, endYear].
// slices must be ordered.
func Assign(slices []TimeSlice, startYear, endYear int) []int {
	if endYear < startYear {
		return nil
	}
	var out []int
	for i, s := range slices {
		if s.StartYear > endYear {
			break
		}
		if s.Overlaps(startYear, endYear) {
			out = append(out, i)
		}
	}
	return out
}

// Index maps slice keys to their position.
func Index(slices []TimeSlice) map[string]int {
	idx := make(map[string]int, len(slices))
	for i, s := range slices {
		idx[s.Key] = i
	}
	return idx
}

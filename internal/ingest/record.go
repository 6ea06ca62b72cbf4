// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package ingest

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"path"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/tomtom215/chronogrid/internal/aggregate"
	"github.com/tomtom215/chronogrid/internal/logging"
	"github.com/tomtom215/chronogrid/internal/vocabulary"
)

// RawRecord is a record as served by the geodata API.
type RawRecord struct {
	Dataset    string    `json:"ds"`
	Geom       string    `json:"geom"`
	Period     []float64 `json:"per"`
	Title      string    `json:"tit"`
	URL        string    `json:"url"`
	RecordType string    `json:"recordtype"`
	Type       string    `json:"type"`
	Tags       []string  `json:"tags"`
}

// WGS84 is the valid coordinate range.
var WGS84 = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// InferRecordType derives the record type of a record.
func InferRecordType(explicit, typ, rawURL string) string {
	if rt := strings.ToLower(strings.TrimSpace(explicit)); rt != "" {
		return rt
	}

	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "":
	case "image", "photo", "picture":
		return "image"
	case "text", "document", "article":
		return "text"
	case "event", "happening":
		return "event"
	default:
		return "text"
	}

	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".jpg", ".jpeg", ".png":
		return "image"
	}
	return "text"
}

// ParseGeometry decodes a WKT string and checks it against the WGS84 range.
func ParseGeometry(s string) (orb.Geometry, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidGeometry)
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	if _, ok := aggregate.RepresentativePoint(g); !ok {
		return nil, fmt.Errorf("%w: no representative point", ErrInvalidGeometry)
	}
	b := g.Bound()
	if !WGS84.Contains(b.Min) || !WGS84.Contains(b.Max) {
		return nil, fmt.Errorf("%w: bound %v", ErrOutOfRange, b)
	}
	return g, nil
}

// ParseInterval converts a [start, end] pair to whole years.
func ParseInterval(per []float64) (start, end int, err error) {
	if len(per) != 2 {
		return 0, 0, fmt.Errorf("%w: expected 2 values, got %d", ErrInvalidInterval, len(per))
	}
	for _, v := range per {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, fmt.Errorf("%w: %v", ErrInvalidInterval, per)
		}
	}
	start, end = int(math.Floor(per[0])), int(math.Floor(per[1]))
	if end < start {
		return 0, 0, fmt.Errorf("%w: end %d before start %d", ErrInvalidInterval, end, start)
	}
	return start, end, nil
}

// CleanTags trims tags and drops empty ones and ones that cannot be stored.
// It returns the kept tags and the number dropped for being invalid.
func CleanTags(tags []string) (kept []string, dropped int) {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if vocabulary.ValidateTag(t) != nil {
			dropped++
			continue
		}
		kept = append(kept, t)
	}
	return vocabulary.NormalizeTags(kept), dropped
}

// Convert turns a raw record into a feature, recording the outcome in stats.
// It reports false when the record was skipped.
func Convert(r RawRecord, stats *Stats) (aggregate.Feature, bool) {
	stats.TotalRaw++

	g, err := ParseGeometry(r.Geom)
	if err == nil {
		var start, end int
		start, end, err = ParseInterval(r.Period)
		if err == nil {
			tags, dropped := CleanTags(r.Tags)
			stats.InvalidTags += dropped
			stats.Valid++
			return aggregate.Feature{
				RecordType: InferRecordType(r.RecordType, r.Type, r.URL),
				Tags:       tags,
				Geometry:   g,
				StartYear:  start,
				EndYear:    end,
			}, true
		}
	}

	stats.skip(err)
	logging.Debug().Err(err).Str("url", r.URL).Msg("Skipping record")
	return aggregate.Feature{}, false
}

// Stats counts record outcomes.
type Stats struct {
	TotalRaw        int `json:"totalRaw"`
	Valid           int `json:"valid"`
	InvalidGeometry int `json:"invalidGeometry"`
	InvalidInterval int `json:"invalidInterval"`
	OutOfRange      int `json:"outOfRange"`
	InvalidTags     int `json:"invalidTags"`
	FailedChunks    int `json:"failedChunks"`
	CappedChunks    int `json:"cappedChunks"`
}

func (s *Stats) skip(err error) {
	switch {
	case errors.Is(err, ErrOutOfRange):
		s.OutOfRange++
	case errors.Is(err, ErrInvalidInterval):
		s.InvalidInterval++
	default:
		s.InvalidGeometry++
	}
}

// InvalidSkipped is the number of records dropped for bad data.
func (s Stats) InvalidSkipped() int {
	return s.InvalidGeometry + s.InvalidInterval + s.OutOfRange
}

// Merge adds o to s.
func (s *Stats) Merge(o Stats) {
	s.TotalRaw += o.TotalRaw
	s.Valid += o.Valid
	s.InvalidGeometry += o.InvalidGeometry
	s.InvalidInterval += o.InvalidInterval
	s.OutOfRange += o.OutOfRange
	s.InvalidTags += o.InvalidTags
	s.FailedChunks += o.FailedChunks
	s.CappedChunks += o.CappedChunks
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolution is one cols x rows grid configuration.
type Resolution struct {
	Cols int `json:"cols" msgpack:"cols" koanf:"cols"`
	Rows int `json:"rows" msgpack:"rows" koanf:"rows"`
}

// Key returns the "{cols}x{rows}" form used to index resolutions.
func (r Resolution) Key() string {
	return strconv.Itoa(r.Cols) + "x" + strconv.Itoa(r.Rows)
}

func (r Resolution) String() string {
	return r.Key()
}

// ParseResolution parses "75x75" style keys.
func ParseResolution(s string) (Resolution, error) {
	c, r, found := strings.Cut(strings.TrimSpace(strings.ToLower(s)), "x")
	if !found {
		return Resolution{}, fmt.Errorf("invalid resolution %q: expected {cols}x{rows}", s)
	}
	cols, err := strconv.Atoi(c)
	if err != nil || cols <= 0 {
		return Resolution{}, fmt.Errorf("invalid resolution %q: bad column count", s)
	}
	rows, err := strconv.Atoi(r)
	if err != nil || rows <= 0 {
		return Resolution{}, fmt.Errorf("invalid resolution %q: bad row count", s)
	}
	return Resolution{Cols: cols, Rows: rows}, nil
}

// ParseResolutions parses a list of keys, rejecting duplicates.
func ParseResolutions(keys []string) ([]Resolution, error) {
	out := make([]Resolution, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		res, err := ParseResolution(k)
		if err != nil {
			return nil, err
		}
		if seen[res.Key()] {
			return nil, fmt.Errorf("duplicate resolution %s", res.Key())
		}
		seen[res.Key()] = true
		out = append(out, res)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one resolution is required")
	}
	return out, nil
}

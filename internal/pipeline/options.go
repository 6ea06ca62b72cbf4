// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package pipeline

import (
	"fmt"
	"time"

	"github.com/tomtom215/chronogrid/internal/config"
	"github.com/tomtom215/chronogrid/internal/grid"
	"github.com/tomtom215/chronogrid/internal/spool"
	"github.com/tomtom215/chronogrid/internal/temporal"
)

// Options fixes the layout and destination of a build.
type Options struct {
	OutputPath string

	// Resolutions holds one grid per resolution, primary first. All of them
	// must cover the same padded bounds.
	Resolutions []grid.Dimensions

	Slices []temporal.TimeSlice

	MaxCombinationSize int

	// Spool configures the feature spool. A non-empty Dir is a parent
	// directory; each run spools into its own subdirectory and removes it.
	Spool spool.Config
}

// OptionsFromConfig derives build options from the build section.
func OptionsFromConfig(cfg *config.BuildConfig) (Options, error) {
	dims, err := cfg.Dimensions()
	if err != nil {
		return Options{}, fmt.Errorf("resolutions: %w", err)
	}
	slices, err := cfg.Slices()
	if err != nil {
		return Options{}, fmt.Errorf("time slices: %w", err)
	}
	return Options{
		OutputPath:         cfg.OutputPath,
		Resolutions:        dims,
		Slices:             slices,
		MaxCombinationSize: cfg.MaxCombinationSize,
		Spool: spool.Config{
			Dir:          cfg.SpoolDir,
			Compression:  cfg.SpoolDir != "",
			CloseTimeout: 30 * time.Second,
		},
	}, nil
}

func (o Options) validate() error {
	if o.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if len(o.Resolutions) == 0 {
		return fmt.Errorf("at least one resolution is required")
	}
	primary := o.Resolutions[0].Bounds()
	seen := make(map[string]bool, len(o.Resolutions))
	for _, d := range o.Resolutions {
		key := d.Resolution().Key()
		if seen[key] {
			return fmt.Errorf("duplicate resolution %s", key)
		}
		seen[key] = true
		if d.Bounds() != primary {
			return fmt.Errorf("resolution %s covers different bounds than %s", key, o.Resolutions[0].Resolution().Key())
		}
	}
	if len(o.Slices) == 0 {
		return fmt.Errorf("at least one time slice is required")
	}
	return nil
}

func (o Options) resolutionKeys() []string {
	keys := make([]string, len(o.Resolutions))
	for i, d := range o.Resolutions {
		keys[i] = d.Resolution().Key()
	}
	return keys
}

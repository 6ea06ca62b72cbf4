// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/tomtom215/chronogrid/internal/config"
	"github.com/tomtom215/chronogrid/internal/logging"
	"github.com/tomtom215/chronogrid/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Service:   "chronogrid-preprocess",
	})

	if err := cfg.ValidateBuild(); err != nil {
		logging.Fatal().Err(err).Msg("Invalid build configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error().Err(err).Msg("Build failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	opts, err := pipeline.OptionsFromConfig(&cfg.Build)
	if err != nil {
		return err
	}

	source, closeSource, err := newSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	builder, err := pipeline.New(source, opts)
	if err != nil {
		return err
	}

	report, err := builder.Run(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package logging

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// BuildLogger logs the milestones of a preprocessor run. Every event carries
// the build ID so interleaved runs can be told apart.
type BuildLogger struct {
	logger zerolog.Logger
}

// NewBuildLogger creates a BuildLogger on top of the global logger.
func NewBuildLogger(buildID string) *BuildLogger {
	return NewBuildLoggerWithLogger(Logger(), buildID)
}

// NewBuildLoggerWithLogger creates a BuildLogger on top of logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewBuildLoggerWithLogger(logger zerolog.Logger, buildID string) *BuildLogger {
	return &BuildLogger{
		logger: logger.With().Str("component", "pipeline").Str("build_id", buildID).Logger(),
	}
}

// Logger exposes the underlying logger for ad hoc events.
func (b *BuildLogger) Logger() *zerolog.Logger {
	return &b.logger
}

func (b *BuildLogger) withContext(ctx context.Context) *zerolog.Logger {
	logCtx := b.logger.With()
	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		logCtx = logCtx.Str("correlation_id", correlationID)
	}
	l := logCtx.Logger()
	return &l
}

// LogBuildStarted logs the layout a build is about to produce.
func (b *BuildLogger) LogBuildStarted(ctx context.Context, source string, resolutions []string, slices int) {
	b.withContext(ctx).Info().
		Str("source", source).
		Strs("resolutions", resolutions).
		Int("time_slices", slices).
		Msg("build started")
}

// LogPhaseStarted logs the start of a named phase.
func (b *BuildLogger) LogPhaseStarted(ctx context.Context, phase string) {
	b.withContext(ctx).Info().Str("phase", phase).Msg("phase started")
}

// LogPhaseCompleted logs the end of a named phase with the number of items it handled.
func (b *BuildLogger) LogPhaseCompleted(ctx context.Context, phase string, items int, d time.Duration) {
	b.withContext(ctx).Info().
		Str("phase", phase).
		Int("items", items).
		Dur("duration", d).
		Msg("phase completed")
}

// LogPhaseFailed logs a phase that aborted the build.
func (b *BuildLogger) LogPhaseFailed(ctx context.Context, phase string, err error) {
	b.withContext(ctx).Error().Err(err).Str("phase", phase).Msg("phase failed")
}

// LogVocabulary logs the frozen vocabulary sizes.
func (b *BuildLogger) LogVocabulary(ctx context.Context, recordTypes, tags int) {
	b.withContext(ctx).Info().
		Int("record_types", recordTypes).
		Int("tags", tags).
		Msg("vocabulary frozen")
}

// LogSkipped logs per-reason skip counts when any feature was dropped.
func (b *BuildLogger) LogSkipped(ctx context.Context, reasons map[string]int) {
	total := 0
	for _, n := range reasons {
		total += n
	}
	if total == 0 {
		return
	}
	e := b.withContext(ctx).Warn().Int("total", total)
	for reason, n := range reasons {
		if n > 0 {
			e = e.Int(reason, n)
		}
	}
	e.Msg("features skipped")
}

// LogFileWritten logs the output file of a finished build.
func (b *BuildLogger) LogFileWritten(ctx context.Context, path string, bytes int64, features int, d time.Duration) {
	b.withContext(ctx).Info().
		Str("path", path).
		Int64("bytes", bytes).
		Int("features", features).
		Dur("duration", d).
		Msg("build completed")
}

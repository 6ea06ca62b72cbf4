// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

/*
Package logging provides the process-wide zerolog logger used by the
Chronogrid server and preprocessor.

# Quick Start

	logging.Init(logging.Config{Level: "info", Format: "json"})

	logging.Info().Str("path", path).Msg("Store loaded")
	logging.Err(err).Str("chunk", id).Msg("Chunk fetch failed")
	logging.Ctx(r.Context()).Warn().Msg("Slow query")

Init is normally fed from the LOG_LEVEL, LOG_FORMAT and LOG_CALLER settings
of package config. The logger works with defaults before Init is called.

# Context

HTTP middleware stores a request ID and correlation ID in the request
context. Ctx and CtxWith add both to every event.

# Build Logging

BuildLogger wraps the logger for the preprocessor with a fixed set of
messages for phases, chunks and output files, so build logs stay greppable
across runs.

# slog

SlogHandler adapts the logger to log/slog for libraries that only speak slog,
such as the sutureslog event hook of the supervision tree:

	hook := (&sutureslog.Handler{Logger: logging.NewSlogLogger()}).MustHook()

# Levels

trace, debug, info, warn, error. Always terminate an event with Msg or Send;
an unterminated event is never written.
*/
package logging

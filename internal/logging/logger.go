// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level: trace, debug, info, warn, error,
	// fatal or disabled. Unknown values mean info.
	Level string

	// Format is json (default) or console.
	Format string

	// Caller adds file:line to every entry.
	Caller bool

	Timestamp bool

	// Service, when set, is attached to every entry as "service".
	Service string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns the configuration used before Init is called.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Timestamp: true,
		Output:    os.Stderr,
	}
}

var (
	mu  sync.RWMutex
	log zerolog.Logger
)

//nolint:gochecknoinits // logging must work before Init is called
func init() {
	log = build(DefaultConfig())
}

// Init replaces the global logger. It may be called more than once.
func Init(cfg Config) {
	l := build(cfg)
	mu.Lock()
	log = l
	mu.Unlock()
}

func build(cfg Config) zerolog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.MessageFieldName = "message"

	out := cfg.Output
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(out).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	return ctx.Logger()
}

// parseLevel accepts zerolog level names in any case plus "warning".
// Anything else, including the empty string, is info.
func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return zerolog.WarnLevel
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

func current() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := log
	return &l
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	return *current()
}

// SetLogger replaces the global logger, typically with one writing to a
// test buffer.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	log = l
	mu.Unlock()
}

// With starts a child logger context.
//
//	l := logging.With().Str("resolution", key).Logger()
func With() zerolog.Context {
	return current().With()
}

func Trace() *zerolog.Event { return current().Trace() }
func Debug() *zerolog.Event { return current().Debug() }
func Info() *zerolog.Event  { return current().Info() }
func Warn() *zerolog.Event  { return current().Warn() }
func Error() *zerolog.Event { return current().Error() }

// Fatal logs at fatal level and then calls os.Exit(1).
func Fatal() *zerolog.Event { return current().Fatal() }

// Err starts an error level message carrying err. A nil err logs at info.
func Err(err error) *zerolog.Event { return current().Err(err) }

// NewTestLogger creates a JSON logger writing to w.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newSlog(level zerolog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf).Level(level))), &buf
}

func TestSlogHandler_Enabled(t *testing.T) {
	tests := []struct {
		name   string
		logger zerolog.Level
		slog   slog.Level
		want   bool
	}{
		{"debug at info", zerolog.InfoLevel, slog.LevelDebug, false},
		{"info at info", zerolog.InfoLevel, slog.LevelInfo, true},
		{"error at warn", zerolog.WarnLevel, slog.LevelError, true},
		{"trace at trace", zerolog.TraceLevel, slog.LevelDebug - 4, true},
		{"warn at error", zerolog.ErrorLevel, slog.LevelWarn, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSlogHandlerWithLogger(zerolog.New(nil).Level(tt.logger))
			if got := h.Enabled(context.Background(), tt.slog); got != tt.want {
				t.Errorf("Enabled(%v) = %v, want %v", tt.slog, got, tt.want)
			}
		})
	}
}

func TestSlogHandler_Handle(t *testing.T) {
	l, buf := newSlog(zerolog.DebugLevel)

	l.Warn("service restarted",
		"service", "store-warmup",
		"attempt", 3,
		"backoff", 2*time.Second,
		"ok", false,
		"err", errors.New("file missing"),
	)

	out := buf.String()
	for _, want := range []string{
		`"level":"warn"`,
		`"message":"service restarted"`,
		`"service":"store-warmup"`,
		`"attempt":3`,
		`"ok":false`,
		`"err":"file missing"`,
		`"backoff":`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s should contain %s", out, want)
		}
	}
}

func TestSlogHandler_ContextIDs(t *testing.T) {
	l, buf := newSlog(zerolog.InfoLevel)

	ctx := ContextWithRequestID(ContextWithCorrelationID(context.Background(), "abcd1234"), "req-7")
	l.InfoContext(ctx, "handled")

	out := buf.String()
	if !strings.Contains(out, `"correlation_id":"abcd1234"`) || !strings.Contains(out, `"request_id":"req-7"`) {
		t.Errorf("context IDs missing: %s", out)
	}
}

func TestSlogHandler_AttrsAndGroups(t *testing.T) {
	tests := []struct {
		name string
		log  func(*slog.Logger)
		want []string
	}{
		{
			name: "with attrs",
			log:  func(l *slog.Logger) { l.With("tree", "chronogrid").Info("m") },
			want: []string{`"tree":"chronogrid"`},
		},
		{
			name: "group prefixes later keys",
			log:  func(l *slog.Logger) { l.With("a", 1).WithGroup("supervisor").Info("m", "b", 2) },
			want: []string{`"a":1`, `"supervisor.b":2`},
		},
		{
			name: "nested groups",
			log:  func(l *slog.Logger) { l.WithGroup("x").WithGroup("y").With("k", "v").Info("m") },
			want: []string{`"x.y.k":"v"`},
		},
		{
			name: "group attribute",
			log:  func(l *slog.Logger) { l.Info("m", slog.Group("req", "path", "/api/v1/metadata", "status", 200)) },
			want: []string{`"req.path":"/api/v1/metadata"`, `"req.status":200`},
		},
		{
			name: "inline group",
			log:  func(l *slog.Logger) { l.Info("m", slog.Group("", "flat", true)) },
			want: []string{`"flat":true`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, buf := newSlog(zerolog.InfoLevel)
			tt.log(l)
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output %s should contain %s", buf.String(), w)
				}
			}
		})
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	tests := []struct {
		in   slog.Level
		want zerolog.Level
	}{
		{slog.LevelDebug - 4, zerolog.TraceLevel},
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelInfo + 2, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
		{slog.LevelError + 4, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := slogToZerologLevel(tt.in); got != tt.want {
			t.Errorf("slogToZerologLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewSlogLogger(t *testing.T) {
	buf := captureGlobal(t)

	NewSlogLogger().Info("via global")

	if !strings.Contains(buf.String(), "via global") {
		t.Errorf("expected message in global output: %s", buf.String())
	}
}

// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// traceIDs are the identifiers a request or build carries through its
// context. Both live under one key so adding one never hides the other.
type traceIDs struct {
	correlation string
	request     string
}

type traceKey struct{}

func idsFrom(ctx context.Context) traceIDs {
	ids, _ := ctx.Value(traceKey{}).(traceIDs)
	return ids
}

// GenerateRequestID returns a full UUID.
func GenerateRequestID() string {
	return uuid.NewString()
}

// ContextWithCorrelationID tags ctx with a correlation ID shared by every
// event of one logical operation (a build, a request chain).
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	ids := idsFrom(ctx)
	ids.correlation = id
	return context.WithValue(ctx, traceKey{}, ids)
}

// ContextWithNewCorrelationID tags ctx with a short random correlation ID.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, uuid.NewString()[:8])
}

func CorrelationIDFromContext(ctx context.Context) string {
	return idsFrom(ctx).correlation
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	ids := idsFrom(ctx)
	ids.request = id
	return context.WithValue(ctx, traceKey{}, ids)
}

func RequestIDFromContext(ctx context.Context) string {
	return idsFrom(ctx).request
}

// CtxWith starts a child of the global logger carrying the IDs in ctx.
func CtxWith(ctx context.Context) zerolog.Context {
	ids := idsFrom(ctx)
	c := current().With()
	if ids.correlation != "" {
		c = c.Str("correlation_id", ids.correlation)
	}
	if ids.request != "" {
		c = c.Str("request_id", ids.request)
	}
	return c
}

// Ctx is CtxWith(ctx).Logger().
//
//	logging.Ctx(ctx).Info().Str("resolution", key).Msg("Heatmap served")
func Ctx(ctx context.Context) *zerolog.Logger {
	l := CtxWith(ctx).Logger()
	return &l
}

// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/chronogrid/internal/logging"
)

// StoreInitializer loads the visualization file. *query.Service satisfies it.
type StoreInitializer interface {
	Initialize(ctx context.Context) error
}

// StoreWarmupService loads the store once at startup.
//
// A failed load waits retryDelay and returns the error so the supervisor
// restarts the service. A successful load returns suture.ErrDoNotRestart.
type StoreWarmupService struct {
	store      StoreInitializer
	retryDelay time.Duration
	name       string
}

// NewStoreWarmupService wraps store. A non-positive retryDelay means 5s.
func NewStoreWarmupService(store StoreInitializer, retryDelay time.Duration) *StoreWarmupService {
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}
	return &StoreWarmupService{
		store:      store,
		retryDelay: retryDelay,
		name:       "store-warmup",
	}
}

// Serve implements suture.Service.
func (s *StoreWarmupService) Serve(ctx context.Context) error {
	err := s.store.Initialize(ctx)
	if err == nil {
		return suture.ErrDoNotRestart
	}

	logging.Warn().Err(err).Dur("retry_in", s.retryDelay).Msg("Store warmup failed")

	timer := time.NewTimer(s.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("store warmup: %w", err)
	}
}

func (s *StoreWarmupService) String() string {
	return s.name
}

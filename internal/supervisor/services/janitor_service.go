// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package services

import (
	"context"
	"time"

	"github.com/tomtom215/chronogrid/internal/logging"
)

// CacheCleaner drops expired cache entries and reports how many it removed.
type CacheCleaner interface {
	CleanupCaches() int
}

// CacheJanitorService sweeps expired query cache entries on an interval.
type CacheJanitorService struct {
	cleaner  CacheCleaner
	interval time.Duration
	name     string
}

// NewCacheJanitorService wraps cleaner. A non-positive interval means 1m.
func NewCacheJanitorService(cleaner CacheCleaner, interval time.Duration) *CacheJanitorService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CacheJanitorService{
		cleaner:  cleaner,
		interval: interval,
		name:     "cache-janitor",
	}
}

// Serve implements suture.Service.
func (j *CacheJanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := j.cleaner.CleanupCaches(); n > 0 {
				logging.Debug().Int("removed", n).Msg("Expired cache entries removed")
			}
		}
	}
}

func (j *CacheJanitorService) String() string {
	return j.name
}

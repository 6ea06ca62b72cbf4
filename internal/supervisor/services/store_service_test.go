// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// flakyStore fails the first n calls to Initialize, n being failures.
type flakyStore struct {
	failures int32
	calls    atomic.Int32
}

func (f *flakyStore) Initialize(context.Context) error {
	if f.calls.Add(1) <= f.failures {
		return errors.New("store file missing")
	}
	return nil
}

func TestStoreWarmupService_Serve(t *testing.T) {
	t.Run("success does not restart", func(t *testing.T) {
		store := &flakyStore{}
		err := NewStoreWarmupService(store, time.Millisecond).Serve(context.Background())
		if !errors.Is(err, suture.ErrDoNotRestart) {
			t.Errorf("Serve() error = %v, want ErrDoNotRestart", err)
		}
	})

	t.Run("failure waits then returns error", func(t *testing.T) {
		store := &flakyStore{failures: 1}
		svc := NewStoreWarmupService(store, 20*time.Millisecond)

		start := time.Now()
		err := svc.Serve(context.Background())
		if err == nil || errors.Is(err, suture.ErrDoNotRestart) {
			t.Fatalf("Serve() error = %v, want load failure", err)
		}
		if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
			t.Errorf("Serve returned after %v, want at least the retry delay", elapsed)
		}
	})

	t.Run("cancellation interrupts the retry delay", func(t *testing.T) {
		store := &flakyStore{failures: 1}
		svc := NewStoreWarmupService(store, time.Hour)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve() error = %v, want DeadlineExceeded", err)
		}
	})

	t.Run("default retry delay", func(t *testing.T) {
		svc := NewStoreWarmupService(&flakyStore{}, 0)
		if svc.retryDelay != 5*time.Second {
			t.Errorf("retryDelay = %v, want 5s", svc.retryDelay)
		}
		if svc.String() != "store-warmup" {
			t.Errorf("String() = %q", svc.String())
		}
	})
}

func TestStoreWarmupService_RetriedBySupervisor(t *testing.T) {
	store := &flakyStore{failures: 2}
	sup := suture.New("warmup-test", suture.Spec{
		FailureThreshold: 10,
		FailureBackoff:   time.Millisecond,
		Timeout:          time.Second,
	})
	sup.Add(NewStoreWarmupService(store, 5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sup.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for store.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := store.calls.Load(); got != 3 {
		t.Fatalf("Initialize called %d times, want 3", got)
	}

	// Loaded; the service must not be started again.
	time.Sleep(50 * time.Millisecond)
	if got := store.calls.Load(); got != 3 {
		t.Errorf("Initialize called %d times after success, want 3", got)
	}
}

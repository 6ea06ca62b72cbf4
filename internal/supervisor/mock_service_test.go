// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package supervisor

import (
	"context"
	"errors"
	"sync"
)

var errMockFailure = errors.New("mock failure")

// mockService counts its starts and stops and can be told to fail the first
// few runs.
type mockService struct {
	name string

	mu        sync.Mutex
	starts    int
	stops     int
	failsLeft int
}

func newMockService(name string) *mockService {
	return &mockService{name: name}
}

func (m *mockService) SetFailCount(n int) {
	m.mu.Lock()
	m.failsLeft = n
	m.mu.Unlock()
}

func (m *mockService) Serve(ctx context.Context) error {
	m.mu.Lock()
	m.starts++
	if m.failsLeft > 0 {
		m.failsLeft--
		m.stops++
		m.mu.Unlock()
		return errMockFailure
	}
	m.mu.Unlock()

	<-ctx.Done()

	m.mu.Lock()
	m.stops++
	m.mu.Unlock()
	return ctx.Err()
}

func (m *mockService) String() string { return m.name }

func (m *mockService) StartCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

func (m *mockService) StopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

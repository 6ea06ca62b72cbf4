// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig tunes restart behavior. Zero fields take the values of
// DefaultTreeConfig.
type TreeConfig struct {
	// FailureThreshold failures within the decay window put a layer into
	// backoff for FailureBackoff.
	FailureThreshold float64
	FailureDecay     float64 // seconds
	FailureBackoff   time.Duration

	// ShutdownTimeout bounds how long each service may take to stop.
	ShutdownTimeout time.Duration
}

func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c TreeConfig) withDefaults() TreeConfig {
	d := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

func (c TreeConfig) spec(hook suture.EventHook) suture.Spec {
	return suture.Spec{
		EventHook:        hook,
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// SupervisorTree runs the query server as two independently restarted
// layers under one root:
//
//	chronogrid
//	├── store-layer  (store warmup, cache janitor)
//	└── api-layer    (HTTP server)
//
// While the store layer retries a missing or corrupt visualization file,
// the API layer stays up and the readiness probe answers 503.
type SupervisorTree struct {
	root   *suture.Supervisor
	store  *suture.Supervisor
	api    *suture.Supervisor
	logger *slog.Logger
	config TreeConfig
}

// NewSupervisorTree builds the tree. Supervisor events go to logger.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	config = config.withDefaults()

	// Only the root gets the hook; child supervisors inherit it on Add.
	hook := (&sutureslog.Handler{Logger: logger}).MustHook()

	t := &SupervisorTree{
		root:   suture.New("chronogrid", config.spec(hook)),
		store:  suture.New("store-layer", config.spec(nil)),
		api:    suture.New("api-layer", config.spec(nil)),
		logger: logger,
		config: config,
	}
	t.root.Add(t.store)
	t.root.Add(t.api)
	return t, nil
}

func (t *SupervisorTree) Root() *suture.Supervisor { return t.root }

// AddStoreService registers a service in the store layer.
func (t *SupervisorTree) AddStoreService(svc suture.Service) suture.ServiceToken {
	return t.store.Add(svc)
}

func (t *SupervisorTree) RemoveStoreService(token suture.ServiceToken) error {
	return t.store.Remove(token)
}

// AddAPIService registers a service in the API layer.
func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve blocks until ctx is canceled and every layer has stopped.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that outlived ShutdownTimeout.
// Call it after Serve returns.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

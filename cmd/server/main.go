// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/chronogrid/internal/api"
	"github.com/tomtom215/chronogrid/internal/binstore"
	"github.com/tomtom215/chronogrid/internal/config"
	"github.com/tomtom215/chronogrid/internal/logging"
	"github.com/tomtom215/chronogrid/internal/middleware"
	"github.com/tomtom215/chronogrid/internal/query"
	"github.com/tomtom215/chronogrid/internal/supervisor"
	"github.com/tomtom215/chronogrid/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Service:   "chronogrid-server",
	})

	logging.Info().
		Str("version", version).
		Str("store_path", cfg.Store.Path).
		Bool("mmap", cfg.Store.UseMmap).
		Msg("Starting Chronogrid query server")

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	svc := query.NewServiceFromFile(cfg.Store.Path,
		binstore.Options{UseMmap: cfg.Store.UseMmap},
		query.Options{CacheSize: cfg.Query.CacheSize, CacheTTL: cfg.Query.CacheTTL},
	)

	perfMon := middleware.NewPerformanceMonitor(1000, time.Second)
	handler := api.NewHandler(svc, perfMon, version)
	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(&cfg.Security))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddStoreService(services.NewStoreWarmupService(svc, cfg.Store.InitRetry))
	tree.AddStoreService(services.NewCacheJanitorService(svc, cfg.Query.CacheTTL/2))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, s := range unstopped {
		logging.Warn().Str("service", s.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped")
}

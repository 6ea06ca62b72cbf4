// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

/*
Package supervisor runs the long-lived parts of the query server under a
suture v4 supervision tree.

	RootSupervisor ("chronogrid")
	├── StoreSupervisor ("store-layer")
	│   ├── StoreWarmupService
	│   └── CacheJanitorService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

The HTTP server starts immediately. Until the warmup service has loaded the
visualization file, query endpoints answer STORE_NOT_READY and the readiness
probe returns 503. A failed load is retried by restarting the warmup service
after its retry delay; once loaded, the service exits with
suture.ErrDoNotRestart.

Supervisor events are logged through sutureslog, which is handed the slog
adapter from the logging package so they end up in the zerolog stream.

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddStoreService(services.NewStoreWarmupService(svc, cfg.Store.InitRetry))
	tree.AddStoreService(services.NewCacheJanitorService(svc, time.Minute))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	return tree.Serve(ctx)
*/
package supervisor

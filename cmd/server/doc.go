// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

/*
Command server answers map queries from a prebuilt visualization file.

The file named by STORE_PATH is produced by cmd/preprocess and is never
modified by the server. Startup does not wait for it: the HTTP listener
comes up first and a supervised warmup service loads the file, retrying
every STORE_INIT_RETRY until it succeeds. Until then query endpoints return
STORE_NOT_READY and /api/v1/health/ready returns 503.

	RootSupervisor ("chronogrid")
	├── StoreSupervisor ("store-layer")
	│   ├── StoreWarmupService
	│   └── CacheJanitorService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

# Configuration

Settings come from built-in defaults, an optional config.yaml (or the file
named by CONFIG_PATH) and environment variables, in increasing priority:

	STORE_PATH=/data/visualization.bin
	STORE_USE_MMAP=true
	HTTP_PORT=3960
	QUERY_CACHE_SIZE=512
	CORS_ORIGINS=https://map.example.org
	LOG_LEVEL=info
	LOG_FORMAT=json

# Signals

SIGINT and SIGTERM cancel the supervisor tree. In-flight requests get
SERVER_SHUTDOWN_TIMEOUT to finish before the listener is closed.
*/
package main

// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

/*
Package services adapts query server components to suture's Serve pattern.

  - HTTPServerService runs an *http.Server and shuts it down gracefully when
    its context is canceled.
  - StoreWarmupService loads the visualization file through
    query.Service.Initialize and retries by letting the supervisor restart it.
  - CacheJanitorService periodically calls query.Service.CleanupCaches.

Every service implements fmt.Stringer so supervisor events name it.
*/
package services

// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

/*
Package spool holds features between the two build passes.

The vocabulary must be frozen before any counts are allocated, so every
feature is read twice. Fetching a large corpus twice from the upstream API is
slow and not guaranteed to return the same records, so the first pass writes
each feature to a BadgerDB spool and the second pass replays it.

Keys are "feature:" followed by a big-endian sequence number, so iteration
returns features in insertion order. Values are msgpack records with the
geometry encoded as WKB.

An empty Dir runs Badger in in-memory mode, which tests and small builds use.
*/
package spool

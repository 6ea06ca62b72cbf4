// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

/*
Package query answers heatmap and histogram requests against a binary store.

A Service is constructed explicitly with a Loader and shared by every
request handler. The first call to Initialize loads the store; concurrent
callers wait on the same in-flight load, so a process performs exactly one
load no matter how many requests race at startup. A failed load leaves the
service in StateFailed and a later call may retry.

Once ready, the decoded store is never mutated and queries run without
locks.

# Query Semantics

  - No record types selects every record type in the store.
  - Several record types are merged by summing counts cell by cell; density
    is recomputed from the summed counts.
  - Tags with OperatorAND resolve to the precomputed combination entry.
    Selecting more tags than the store's maximum combination size returns
    ErrUnsupported.
  - Tags with OperatorOR sum each tag's entry. Features carrying several of
    the selected tags are counted once per tag.
  - Unknown record types, tags, periods, resolutions and combinations that
    never occurred return ErrNotFound.

Merging heatmaps of different lengths returns ErrLengthMismatch and is
treated as an internal fault.
*/
package query

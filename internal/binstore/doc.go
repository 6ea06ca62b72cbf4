// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

/*
Package binstore writes and reads the single-file aggregation store.

# File Layout

	[4 bytes]  metadata length, big-endian uint32
	[n bytes]  metadata (msgpack)
	[...]      heatmaps section (msgpack)
	[...]      histograms section (msgpack)

Section offsets in the metadata are relative to the data region that starts
right after the metadata block. A reader decodes the metadata once and then
reads only the section a query needs.

Count and density arrays are stored as packed big-endian byte strings. The
reader rebuilds them with the cell count declared by the grid dimensions of
their resolution (or the number of time slices for histograms) and rejects
any blob whose length disagrees.

# Loading

Options.UseMmap only changes how the bytes reach the Reader: mapped with
golang.org/x/exp/mmap or read into memory. The query service opens the
file, decodes both sections once and closes the Reader, so the mapping
lives only for the duration of a load. Decoded arrays never alias the
mapped region.

# Errors

	ErrOpen        the file could not be opened or mapped; retrying may help
	ErrTruncated   declared lengths run past the end of the file
	ErrDecode      a block could not be decoded; the file must be regenerated

ErrTruncated wraps ErrDecode, so callers that only distinguish "retry" from
"regenerate" can test for ErrOpen and ErrDecode.

# Concurrency

A Reader is immutable after Open. Any number of goroutines may call its read
methods concurrently without locking.
*/
package binstore

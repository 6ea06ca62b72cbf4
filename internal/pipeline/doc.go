// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

/*
Package pipeline builds a visualization file from a record source in two
passes.

The first pass streams every feature from an ingest.Source into a spool while
the vocabulary tracker records the record types and tags seen. The vocabulary
is then frozen, which fixes the shape of every accumulator array. The second
pass replays the spool into the accumulator, and the finalized heatmaps and
histograms are written with binstore.WriteComplete.

	opts, err := pipeline.OptionsFromConfig(&cfg.Build)
	b, err := pipeline.New(source, opts)
	report, err := b.Run(ctx)

Only minimal features travel through the spool, so memory during the first
pass is bounded by the vocabulary rather than the corpus.
*/
package pipeline

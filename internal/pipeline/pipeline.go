// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/chronogrid/internal/aggregate"
	"github.com/tomtom215/chronogrid/internal/binstore"
	"github.com/tomtom215/chronogrid/internal/grid"
	"github.com/tomtom215/chronogrid/internal/ingest"
	"github.com/tomtom215/chronogrid/internal/logging"
	"github.com/tomtom215/chronogrid/internal/metrics"
	"github.com/tomtom215/chronogrid/internal/spool"
	"github.com/tomtom215/chronogrid/internal/temporal"
	"github.com/tomtom215/chronogrid/internal/vocabulary"
)

// Build phases, used as metric labels and in logs.
const (
	PhaseDiscover   = "discover"
	PhaseAccumulate = "accumulate"
	PhaseFinalize   = "finalize"
	PhaseWrite      = "write"
)

// ErrAlreadyRunning is returned when Run is called during another run.
var ErrAlreadyRunning = errors.New("build already in progress")

// Report summarizes a finished build.
type Report struct {
	BuildID    string             `json:"buildId"`
	Source     string             `json:"source"`
	Metadata   *binstore.Metadata `json:"-"`
	Ingest     ingest.Stats       `json:"ingest"`
	Accumulate aggregate.Stats    `json:"accumulate"`
	Spooled    int                `json:"spooled"`
	FileBytes  int64              `json:"fileBytes"`
	StartTime  time.Time          `json:"startTime"`
	EndTime    time.Time          `json:"endTime"`
}

// Duration returns how long the build took.
func (r *Report) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}

// Builder runs builds from one source with fixed options.
type Builder struct {
	source ingest.Source
	opts   Options

	now   func() time.Time
	newID func() string

	mu      sync.Mutex
	running bool
}

// New creates a Builder.
func New(source ingest.Source, opts Options) (*Builder, error) {
	if source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid build options: %w", err)
	}
	return &Builder{
		source: source,
		opts:   opts,
		now:    time.Now,
		newID:  uuid.NewString,
	}, nil
}

// Run executes both passes and writes the output file. A failed run leaves
// any previous file at the output path untouched.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	b.running = true
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	report := &Report{
		BuildID:   b.newID(),
		Source:    b.source.Name(),
		StartTime: b.now(),
	}
	ctx = logging.ContextWithCorrelationID(ctx, report.BuildID[:min(8, len(report.BuildID))])
	blog := logging.NewBuildLogger(report.BuildID)
	blog.LogBuildStarted(ctx, report.Source, b.opts.resolutionKeys(), len(b.opts.Slices))

	sp, cleanup, err := b.openSpool(report.BuildID)
	if err != nil {
		blog.LogPhaseFailed(ctx, PhaseDiscover, err)
		return report, err
	}
	defer cleanup()

	vocab, err := b.discover(ctx, blog, sp, report)
	if err != nil {
		blog.LogPhaseFailed(ctx, PhaseDiscover, err)
		return report, err
	}

	result, err := b.accumulate(ctx, blog, sp, vocab, report)
	if err != nil {
		return report, err
	}

	if err := b.write(ctx, blog, vocab, result, report); err != nil {
		blog.LogPhaseFailed(ctx, PhaseWrite, err)
		return report, err
	}

	report.EndTime = b.now()
	blog.LogFileWritten(ctx, b.opts.OutputPath, report.FileBytes, report.Accumulate.TotalFeatures, report.Duration())
	return report, nil
}

// openSpool opens the spool for one run. On disk, the run gets a private
// subdirectory of the configured directory.
func (b *Builder) openSpool(buildID string) (*spool.Spool, func(), error) {
	cfg := b.opts.Spool
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("create spool parent: %w", err)
		}
		dir, err := os.MkdirTemp(cfg.Dir, "spool-"+buildID[:min(8, len(buildID))]+"-")
		if err != nil {
			return nil, nil, fmt.Errorf("create spool dir: %w", err)
		}
		cfg.Dir = dir
		cfg.RemoveOnClose = true
	}
	sp, err := spool.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open spool: %w", err)
	}
	return sp, func() {
		if err := sp.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing spool")
		}
	}, nil
}

// discover is the first pass: spool every feature and record its vocabulary.
func (b *Builder) discover(ctx context.Context, blog *logging.BuildLogger, sp *spool.Spool, report *Report) (*vocabulary.Frozen, error) {
	start := time.Now()
	blog.LogPhaseStarted(ctx, PhaseDiscover)

	tracker := vocabulary.NewTracker()
	stats, err := b.source.Stream(ctx, func(f aggregate.Feature) error {
		if err := tracker.Observe(f.RecordType, f.Tags); err != nil {
			return fmt.Errorf("observe vocabulary: %w", err)
		}
		return sp.Append(f)
	})
	report.Ingest = stats
	if err != nil {
		return nil, fmt.Errorf("stream %s: %w", b.source.Name(), err)
	}
	if err := sp.Flush(); err != nil {
		return nil, fmt.Errorf("flush spool: %w", err)
	}
	report.Spooled = sp.Len()

	vocab := tracker.Freeze()
	d := time.Since(start)
	metrics.RecordBuildPhase(PhaseDiscover, d)
	metrics.RecordBuildFeatures("invalid_geometry", stats.InvalidGeometry)
	metrics.RecordBuildFeatures("invalid_interval", stats.InvalidInterval)
	metrics.RecordBuildFeatures("out_of_range", stats.OutOfRange)
	blog.LogSkipped(ctx, map[string]int{
		"invalid_geometry": stats.InvalidGeometry,
		"invalid_interval": stats.InvalidInterval,
		"out_of_range":     stats.OutOfRange,
		"invalid_tags":     stats.InvalidTags,
		"failed_chunks":    stats.FailedChunks,
		"capped_chunks":    stats.CappedChunks,
	})
	blog.LogVocabulary(ctx, len(vocab.RecordTypes()), len(vocab.Tags()))
	blog.LogPhaseCompleted(ctx, PhaseDiscover, report.Spooled, d)
	return vocab, nil
}

// accumulate is the second pass: replay the spool into the accumulator and
// finalize it.
func (b *Builder) accumulate(ctx context.Context, blog *logging.BuildLogger, sp *spool.Spool, vocab *vocabulary.Frozen, report *Report) (*aggregate.Result, error) {
	start := time.Now()
	blog.LogPhaseStarted(ctx, PhaseAccumulate)

	acc, err := aggregate.New(vocab, aggregate.Config{
		Resolutions:        b.opts.Resolutions,
		Slices:             b.opts.Slices,
		MaxCombinationSize: b.opts.MaxCombinationSize,
	})
	if err != nil {
		blog.LogPhaseFailed(ctx, PhaseAccumulate, err)
		return nil, fmt.Errorf("create accumulator: %w", err)
	}
	if err := sp.Iterate(ctx, acc.Add); err != nil {
		blog.LogPhaseFailed(ctx, PhaseAccumulate, err)
		return nil, fmt.Errorf("replay spool: %w", err)
	}
	d := time.Since(start)
	metrics.RecordBuildPhase(PhaseAccumulate, d)
	blog.LogPhaseCompleted(ctx, PhaseAccumulate, report.Spooled, d)

	start = time.Now()
	result, err := acc.Finalize()
	if err != nil {
		blog.LogPhaseFailed(ctx, PhaseFinalize, err)
		return nil, fmt.Errorf("finalize: %w", err)
	}
	report.Accumulate = result.Stats
	metrics.RecordBuildFeatures("accepted", result.Stats.TotalFeatures)
	metrics.RecordBuildFeatures("invalid_skipped", result.Stats.InvalidSkipped)
	metrics.RecordBuildFeatures("outside_time_range", result.Stats.OutsideTimeRange)
	d = time.Since(start)
	metrics.RecordBuildPhase(PhaseFinalize, d)
	blog.LogPhaseCompleted(ctx, PhaseFinalize, result.Stats.TotalFeatures, d)
	return result, nil
}

func (b *Builder) write(ctx context.Context, blog *logging.BuildLogger, vocab *vocabulary.Frozen, result *aggregate.Result, report *Report) error {
	start := time.Now()
	blog.LogPhaseStarted(ctx, PhaseWrite)

	meta := b.metadata(report.BuildID, vocab, result.Stats)
	written, err := binstore.WriteComplete(b.opts.OutputPath, meta, result.Heatmaps, result.Histograms)
	if err != nil {
		return fmt.Errorf("write %s: %w", b.opts.OutputPath, err)
	}
	report.Metadata = written
	if info, err := os.Stat(b.opts.OutputPath); err == nil {
		report.FileBytes = info.Size()
	}
	d := time.Since(start)
	metrics.RecordBuildPhase(PhaseWrite, d)
	blog.LogPhaseCompleted(ctx, PhaseWrite, 1, d)
	return nil
}

// metadata describes the layout of the file about to be written.
func (b *Builder) metadata(buildID string, vocab *vocabulary.Frozen, stats aggregate.Stats) binstore.Metadata {
	primary := b.opts.Resolutions[0]
	resolutions := make([]grid.Resolution, len(b.opts.Resolutions))
	dims := make(map[string]grid.Dimensions, len(b.opts.Resolutions))
	for i, d := range b.opts.Resolutions {
		resolutions[i] = d.Resolution()
		dims[d.Resolution().Key()] = d
	}

	perType := make(map[string]int, len(stats.FeaturesPerRecordType))
	for k, v := range stats.FeaturesPerRecordType {
		perType[k] = v
	}

	return binstore.Metadata{
		Version:              binstore.FormatVersion,
		BuildID:              buildID,
		Timestamp:            b.now().UTC().Format(time.RFC3339),
		HeatmapDimensions:    primary,
		HeatmapBlueprint:     grid.NewBlueprint(primary),
		TimeSlices:           b.opts.Slices,
		TimeRange:            temporal.Span(b.opts.Slices),
		RecordTypes:          vocab.RecordTypes(),
		Tags:                 vocab.Tags(),
		Resolutions:          resolutions,
		ResolutionDimensions: dims,
		MaxCombinationSize:   b.opts.MaxCombinationSize,
		Stats: binstore.Stats{
			TotalFeatures:         stats.TotalFeatures,
			FeaturesPerRecordType: perType,
			TimeSliceCount:        len(b.opts.Slices),
			GridCellCount:         primary.CellCount(),
			ResolutionCount:       len(b.opts.Resolutions),
		},
	}
}

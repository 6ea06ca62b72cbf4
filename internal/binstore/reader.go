// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package binstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/exp/mmap"

	"github.com/tomtom215/chronogrid/internal/aggregate"
	"github.com/tomtom215/chronogrid/internal/metrics"
)

// source is the read-only view of a file.
type source interface {
	io.ReaderAt
	Len() int
	Close() error
}

// memSource serves a file loaded into memory.
type memSource struct {
	data []byte
}

func (m *memSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *memSource) Len() int     { return len(m.data) }
func (m *memSource) Close() error { return nil }

// Options controls how a file is opened.
type Options struct {
	// UseMmap maps the file instead of reading it into memory. The mapping
	// is released by Close.
	UseMmap bool
}

// Reader gives random access to the blocks of a store file.
type Reader struct {
	path      string
	src       source
	meta      *Metadata
	dataStart int64
}

// Open opens path and decodes its metadata. Open failures wrap ErrOpen;
// truncated or undecodable metadata wraps ErrDecode.
func Open(path string, opts Options) (*Reader, error) {
	var src source
	if opts.UseMmap {
		m, err := mmap.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
		}
		src = m
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
		}
		src = &memSource{data: data}
	}

	r := &Reader{path: path, src: src}
	if err := r.loadMetadata(); err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// FromBytes wraps an in-memory file.
func FromBytes(data []byte) (*Reader, error) {
	r := &Reader{path: "memory", src: &memSource{data: data}}
	if err := r.loadMetadata(); err != nil {
		return nil, err
	}
	return r, nil
}

// Close releases the mapping.
func (r *Reader) Close() error {
	return r.src.Close()
}

// Path returns the file path.
func (r *Reader) Path() string {
	return r.path
}

// Size returns the file size in bytes.
func (r *Reader) Size() int {
	return r.src.Len()
}

func (r *Reader) readAt(off int64, n uint64) ([]byte, error) {
	size := int64(r.src.Len())
	if n > uint64(size) || off < 0 || off > size-int64(n) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, file has %d", ErrTruncated, n, off, size)
	}
	buf := make([]byte, n)
	if _, err := r.src.ReadAt(buf, off); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: read at %d: %v", ErrOpen, off, err)
	}
	return buf, nil
}

// loadMetadata decodes only the header and the metadata block, then checks
// that every section lies inside the file.
func (r *Reader) loadMetadata() error {
	header, err := r.readAt(0, headerSize)
	if err != nil {
		return fmt.Errorf("header: %w", err)
	}
	metaLen := binary.BigEndian.Uint32(header)
	block, err := r.readAt(headerSize, uint64(metaLen))
	if err != nil {
		return fmt.Errorf("metadata: %w", err)
	}

	var meta Metadata
	if err := unmarshal(block, &meta); err != nil {
		return fmt.Errorf("%w: metadata: %v", ErrDecode, err)
	}
	if !compatibleVersion(meta.Version) {
		return fmt.Errorf("%w: unsupported format version %q, reader supports %s", ErrDecode, meta.Version, FormatVersion)
	}
	if err := meta.validateLayout(); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}

	r.dataStart = headerSize + int64(metaLen)
	available := uint64(int64(r.src.Len()) - r.dataStart)
	for name, s := range map[string]Section{"heatmaps": meta.Sections.Heatmaps, "histograms": meta.Sections.Histograms} {
		if s.Offset > available || s.Length > available-s.Offset {
			return fmt.Errorf("%w: %s section [%d, +%d) exceeds %d data bytes", ErrTruncated, name, s.Offset, s.Length, available)
		}
	}
	r.meta = &meta
	return nil
}

// ReadMetadata returns the decoded metadata. The result is shared and must
// not be modified.
func (r *Reader) ReadMetadata() *Metadata {
	return r.meta
}

func (r *Reader) section(s Section) ([]byte, error) {
	return r.readAt(r.dataStart+int64(s.Offset), s.Length)
}

// ReadHeatmaps decodes the heatmaps section.
func (r *Reader) ReadHeatmaps() (aggregate.HeatmapResolutions, error) {
	start := time.Now()
	defer func() { metrics.RecordSectionDecode("heatmaps", time.Since(start)) }()

	block, err := r.section(r.meta.Sections.Heatmaps)
	if err != nil {
		return nil, fmt.Errorf("heatmaps section: %w", err)
	}
	var wire wireHeatmaps
	if err := unmarshal(block, &wire); err != nil {
		return nil, fmt.Errorf("%w: heatmaps section: %v", ErrDecode, err)
	}
	return decodeHeatmaps(wire, r.meta)
}

// ReadHistograms decodes the histograms section.
func (r *Reader) ReadHistograms() (aggregate.Histograms, error) {
	start := time.Now()
	defer func() { metrics.RecordSectionDecode("histograms", time.Since(start)) }()

	block, err := r.section(r.meta.Sections.Histograms)
	if err != nil {
		return nil, fmt.Errorf("histograms section: %w", err)
	}
	var wire wireHistograms
	if err := unmarshal(block, &wire); err != nil {
		return nil, fmt.Errorf("%w: histograms section: %v", ErrDecode, err)
	}
	return decodeHistograms(wire, r.meta)
}

// Complete is every block of a file, decoded.
type Complete struct {
	Metadata   *Metadata
	Heatmaps   aggregate.HeatmapResolutions
	Histograms aggregate.Histograms
}

// ReadComplete decodes both sections.
func (r *Reader) ReadComplete() (*Complete, error) {
	heatmaps, err := r.ReadHeatmaps()
	if err != nil {
		return nil, err
	}
	histograms, err := r.ReadHistograms()
	if err != nil {
		return nil, err
	}
	return &Complete{Metadata: r.meta, Heatmaps: heatmaps, Histograms: histograms}, nil
}

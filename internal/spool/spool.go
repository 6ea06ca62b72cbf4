// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package spool

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tomtom215/chronogrid/internal/aggregate"
	"github.com/tomtom215/chronogrid/internal/logging"
)

// ErrClosed is returned by operations on a closed spool.
var ErrClosed = errors.New("spool is closed")

const prefixFeature = "feature:"

// Config configures a Spool.
type Config struct {
	// Dir is the BadgerDB directory. Empty means in-memory.
	Dir string
	// Compression enables Snappy compression of value blocks.
	Compression bool
	// RemoveOnClose deletes Dir when the spool is closed.
	RemoveOnClose bool
	// CloseTimeout bounds Close. Zero means 30 seconds.
	CloseTimeout time.Duration
}

// record is the stored form of a feature.
type record struct {
	RecordType string   `msgpack:"r"`
	Tags       []string `msgpack:"t,omitempty"`
	Geometry   []byte   `msgpack:"g"`
	StartYear  int      `msgpack:"s"`
	EndYear    int      `msgpack:"e"`
}

// Spool is an append-only, ordered feature store.
type Spool struct {
	db     *badger.DB
	config Config

	mu     sync.Mutex
	batch  *badger.WriteBatch
	seq    uint64
	closed bool
}

// Open opens a spool.
func Open(cfg Config) (*Spool, error) {
	var opts badger.Options
	if cfg.Dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("create spool dir: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
		opts.SyncWrites = false
	}
	if cfg.Compression {
		opts.Compression = options.Snappy
	}

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := &Spool{db: db, config: cfg, batch: db.NewWriteBatch()}
	logging.Debug().Str("dir", cfg.Dir).Bool("in_memory", cfg.Dir == "").Msg("Spool opened")
	return s, nil
}

func featureKey(seq uint64) []byte {
	key := make([]byte, len(prefixFeature)+8)
	copy(key, prefixFeature)
	binary.BigEndian.PutUint64(key[len(prefixFeature):], seq)
	return key
}

// Append adds a feature. Appended features are visible to Iterate after
// Flush.
func (s *Spool) Append(f aggregate.Feature) error {
	geom, err := wkb.Marshal(f.Geometry)
	if err != nil {
		return fmt.Errorf("encode geometry: %w", err)
	}
	data, err := msgpack.Marshal(record{
		RecordType: f.RecordType,
		Tags:       f.Tags,
		Geometry:   geom,
		StartYear:  f.StartYear,
		EndYear:    f.EndYear,
	})
	if err != nil {
		return fmt.Errorf("encode feature: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.batch.Set(featureKey(s.seq), data); err != nil {
		return fmt.Errorf("spool feature %d: %w", s.seq, err)
	}
	s.seq++
	return nil
}

// Flush commits pending appends.
func (s *Spool) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.batch.Flush(); err != nil {
		return fmt.Errorf("flush spool: %w", err)
	}
	s.batch = s.db.NewWriteBatch()
	return nil
}

// Len returns the number of appended features.
func (s *Spool) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.seq)
}

// Iterate calls fn for every flushed feature in insertion order. An error
// from fn stops the iteration and is returned.
func (s *Spool) Iterate(ctx context.Context, fn func(aggregate.Feature) error) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}

	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixFeature)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			var rec record
			if err := item.Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode spooled feature %x: %w", item.Key(), err)
			}
			geom, err := wkb.Unmarshal(rec.Geometry)
			if err != nil {
				return fmt.Errorf("decode spooled geometry %x: %w", item.Key(), err)
			}

			if err := fn(aggregate.Feature{
				RecordType: rec.RecordType,
				Tags:       rec.Tags,
				Geometry:   geom,
				StartYear:  rec.StartYear,
				EndYear:    rec.EndYear,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close discards pending appends and closes the database.
func (s *Spool) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.batch.Cancel()
	timeout := s.config.CloseTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- s.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
	case <-time.After(timeout):
		logging.Warn().Dur("timeout", timeout).Msg("BadgerDB close timed out")
		return fmt.Errorf("badgerdb close timeout after %v", timeout)
	}

	if s.config.RemoveOnClose && s.config.Dir != "" {
		if err := os.RemoveAll(s.config.Dir); err != nil {
			return fmt.Errorf("remove spool dir: %w", err)
		}
	}
	return nil
}

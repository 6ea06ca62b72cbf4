// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	// DuckDB driver
	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/chronogrid/internal/aggregate"
	"github.com/tomtom215/chronogrid/internal/logging"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DuckDBSource streams records from a DuckDB table with the columns
//
//	geom        VARCHAR  WKT geometry
//	start_year  INTEGER
//	end_year    INTEGER
//	recordtype  VARCHAR  nullable
//	type        VARCHAR  nullable
//	url         VARCHAR  nullable
//	tags        VARCHAR  comma-separated, nullable
type DuckDBSource struct {
	db    *sql.DB
	table string
	owned bool
}

// OpenDuckDB opens the database at path read-only.
func OpenDuckDB(ctx context.Context, path, table string) (*DuckDBSource, error) {
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	db, err := sql.Open("duckdb", path+"?access_mode=read_only")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // best-effort cleanup on error path
		return nil, fmt.Errorf("ping duckdb %s: %w", path, err)
	}
	return &DuckDBSource{db: db, table: table, owned: true}, nil
}

// NewDuckDBSource reads table from an open database. Close does not close db.
func NewDuckDBSource(db *sql.DB, table string) (*DuckDBSource, error) {
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &DuckDBSource{db: db, table: table}, nil
}

// Close closes the database if OpenDuckDB opened it.
func (s *DuckDBSource) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// Name implements Source.
func (s *DuckDBSource) Name() string { return "duckdb" }

// Stream scans the table in one query.
func (s *DuckDBSource) Stream(ctx context.Context, yield func(aggregate.Feature) error) (Stats, error) {
	var stats Stats

	query := fmt.Sprintf(`SELECT
		COALESCE(geom, ''),
		start_year,
		end_year,
		COALESCE(recordtype, ''),
		COALESCE("type", ''),
		COALESCE(url, ''),
		COALESCE(tags, '')
	FROM "%s"`, s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return stats, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec        RawRecord
			start, end sql.NullInt64
			tags       string
		)
		if err := rows.Scan(&rec.Geom, &start, &end, &rec.RecordType, &rec.Type, &rec.URL, &tags); err != nil {
			return stats, fmt.Errorf("scan %s: %w", s.table, err)
		}
		if start.Valid && end.Valid {
			rec.Period = []float64{float64(start.Int64), float64(end.Int64)}
		}
		rec.Tags = splitTags(tags)

		f, ok := Convert(rec, &stats)
		if !ok {
			continue
		}
		if err := yield(f); err != nil {
			return stats, err
		}
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterate %s: %w", s.table, err)
	}

	logging.Info().Str("table", s.table).Int("records", stats.TotalRaw).Int("valid", stats.Valid).Msg("DuckDB table scanned")
	return stats, nil
}

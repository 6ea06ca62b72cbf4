// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/chronogrid/internal/config"
	"github.com/tomtom215/chronogrid/internal/grid"
	"github.com/tomtom215/chronogrid/internal/metrics"
	"github.com/tomtom215/chronogrid/internal/temporal"
)

// maxErrorBodySize limits how much of an error response is read.
const maxErrorBodySize = 64 * 1024

func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// PageQuery selects one page of records.
type PageQuery struct {
	Bounds    grid.Bounds
	TimeRange temporal.TimeRange
	Page      int
	PageSize  int
}

// Values encodes the query string of a geodata request.
func (q PageQuery) Values() url.Values {
	v := url.Values{}
	v.Set("min_lat", strconv.FormatFloat(q.Bounds.MinLat, 'f', -1, 64))
	v.Set("min_lon", strconv.FormatFloat(q.Bounds.MinLon, 'f', -1, 64))
	v.Set("max_lat", strconv.FormatFloat(q.Bounds.MaxLat, 'f', -1, 64))
	v.Set("max_lon", strconv.FormatFloat(q.Bounds.MaxLon, 'f', -1, 64))
	v.Set("start_year", q.TimeRange.Start)
	v.Set("end_year", q.TimeRange.End)
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("page_size", strconv.Itoa(q.PageSize))
	return v
}

// Page is one page of a geodata response.
type Page struct {
	Data       []RawRecord `json:"data"`
	Total      *int        `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	Returned   int         `json:"returned"`
	TotalPages int         `json:"total_pages"`
}

// normalize fills fields some upstream versions omit.
func (p *Page) normalize(requested int) error {
	if p.Data == nil || p.Total == nil {
		return fmt.Errorf("%w: missing data or total", ErrUnexpectedResponse)
	}
	if p.Page == 0 {
		p.Page = requested
	}
	if p.PageSize == 0 {
		p.PageSize = len(p.Data)
	}
	if p.Returned == 0 {
		p.Returned = len(p.Data)
	}
	if p.TotalPages == 0 && p.PageSize > 0 {
		p.TotalPages = (*p.Total + p.PageSize - 1) / p.PageSize
	}
	return nil
}

// HasMore reports whether pages follow this one.
func (p *Page) HasMore() bool {
	return p.Page < p.TotalPages
}

// PageFetcher fetches one page of records.
type PageFetcher interface {
	FetchPage(ctx context.Context, q PageQuery) (*Page, error)
}

// Client talks to the geodata API.
//
// Features:
//   - Token bucket pacing between requests
//   - Automatic retry on HTTP 429 with exponential backoff
//   - Retry-After header support
//
// Thread Safety: safe for concurrent use.
type Client struct {
	baseURL        string
	client         *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient creates a geodata client.
func NewClient(cfg *config.UpstreamConfig) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		client:         &http.Client{Timeout: timeout},
		limiter:        rate.NewLimiter(limit, 1),
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: time.Second,
	}
}

// doRequestWithRateLimit performs a GET, backing off on HTTP 429
// (1s, 2s, 4s, ...) unless the server sends Retry-After.
func (c *Client) doRequestWithRateLimit(ctx context.Context, reqURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		_ = resp.Body.Close()
		if attempt == c.maxRetries {
			lastErr = fmt.Errorf("rate limit exceeded after %d retries (HTTP 429)", c.maxRetries)
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
				delay = time.Duration(seconds) * time.Second
			}
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// FetchPage fetches one page of records.
func (c *Client) FetchPage(ctx context.Context, q PageQuery) (*Page, error) {
	reqURL := c.baseURL + "/api/geodata?" + q.Values().Encode()
	start := time.Now()

	resp, err := c.doRequestWithRateLimit(ctx, reqURL)
	if err != nil {
		metrics.RecordUpstreamRequest("error", time.Since(start))
		return nil, fmt.Errorf("fetch page %d: %w", q.Page, err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return nil, fmt.Errorf("fetch page %d failed with status %d: %s", q.Page, resp.StatusCode, string(body))
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: decode page %d: %v", ErrUnexpectedResponse, q.Page, err)
	}
	if err := page.normalize(q.Page); err != nil {
		return nil, err
	}
	return &page, nil
}

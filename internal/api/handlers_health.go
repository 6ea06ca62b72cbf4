// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/chronogrid/internal/middleware"
	"github.com/tomtom215/chronogrid/internal/query"
)

// HealthStatus is the payload of the health endpoint.
type HealthStatus struct {
	Status     string  `json:"status"`
	StoreState string  `json:"store_state"`
	BuildID    string  `json:"build_id,omitempty"`
	LastError  string  `json:"last_error,omitempty"`
	Version    string  `json:"version"`
	Uptime     float64 `json:"uptime"`
}

// StatsData is the payload of the stats endpoint.
type StatsData struct {
	Service   query.ServiceStats         `json:"service"`
	Endpoints []middleware.EndpointStats `json:"endpoints"`
	Version   string                     `json:"version"`
	Uptime    float64                    `json:"uptime"`
}

// Health reports the store state. It never loads the store itself, so it
// stays cheap while a load is in progress. Returns 503 until the store is
// ready.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats := h.service.Stats()

	health := HealthStatus{
		Status:     "healthy",
		StoreState: stats.State,
		BuildID:    stats.BuildID,
		Version:    h.version,
		Uptime:     time.Since(h.startTime).Seconds(),
	}
	status := http.StatusOK
	if h.service.State() != query.StateReady {
		health.Status = "degraded"
		status = http.StatusServiceUnavailable
		if err := h.service.LastError(); err != nil {
			health.LastError = err.Error()
		}
	}

	resp := successResponse(r, health, start)
	if status != http.StatusOK {
		resp.Status = "error"
	}
	respondJSON(w, r, status, resp, cacheNone, "")
}

// HealthLive returns 200 while the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, successResponse(r, map[string]any{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, time.Now()), cacheNone, "")
}

// HealthReady returns 200 once the store is loaded and 503 before.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.service.State() != query.StateReady {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeNotReady,
			"store is "+h.service.State().String(), nil)
		return
	}
	respondJSON(w, r, http.StatusOK, successResponse(r, map[string]any{
		"ready": true,
	}, time.Now()), cacheNone, "")
}

// Stats reports store statistics, result cache usage and recent endpoint
// latencies.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	data := StatsData{
		Service:   h.service.Stats(),
		Endpoints: []middleware.EndpointStats{},
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Seconds(),
	}
	if h.perfMon != nil {
		data.Endpoints = h.perfMon.GetStats()
	}
	respondJSON(w, r, http.StatusOK, successResponse(r, data, start), cacheNone, "")
}

// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

// Package api provides the small HTTP surface of the pipeline: the manual
// publish trigger, health with adapter status, and Prometheus metrics.
package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/warwatch-io/warwatch/internal/logging"
	"github.com/warwatch-io/warwatch/internal/models"
	"github.com/warwatch-io/warwatch/internal/pipeline"
	"github.com/warwatch-io/warwatch/internal/watch"
)

// PollingStatusSource exposes the polling adapter's snapshot to the health
// endpoint.
type PollingStatusSource interface {
	Status() watch.PollingStatus
}

// PushStatusSource exposes the push adapter's snapshot to the health
// endpoint.
type PushStatusSource interface {
	Status() watch.PushStatus
}

// Handlers holds the pipeline and adapter references for the HTTP surface.
// Either adapter source may be nil when that adapter is disabled.
type Handlers struct {
	pipeline *pipeline.Pipeline
	polling  PollingStatusSource
	push     PushStatusSource
	ready    Pinger
	validate *validator.Validate
}

// NewHandlers creates the HTTP handlers. ready is pinged by the readiness
// endpoint; pass nil to skip the check.
func NewHandlers(p *pipeline.Pipeline, polling PollingStatusSource, push PushStatusSource, ready Pinger) *Handlers {
	return &Handlers{
		pipeline: p,
		polling:  polling,
		push:     push,
		ready:    ready,
		validate: validator.New(),
	}
}

// writeJSON encodes data as JSON and writes it to the response. Encode
// errors are logged, not surfaced, since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("failed to encode JSON response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// PublishRequest is the body of the manual publish trigger: a batch of
// already-fetched conflict events.
type PublishRequest struct {
	Events []models.ConflictEvent `json:"events" validate:"required,min=1,dive"`
}

// PublishStatus handles POST /api/v1/war-alerts/publish. The response is
// always HTTP 200 with a results array reflecting partial failures; only a
// malformed request body yields a 400.
func (h *Handlers) PublishStatus(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	report := h.pipeline.PublishBatch(r.Context(), req.Events, "manual")
	writeJSON(w, http.StatusOK, report)
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status   string               `json:"status"`
	Degraded bool                 `json:"degraded"`
	Polling  *watch.PollingStatus `json:"polling,omitempty"`
	Push     *watch.PushStatus    `json:"push,omitempty"`
}

// Health handles GET /api/v1/health. The push adapter having given up is
// reported as degraded, not as an error; the rest of the pipeline keeps
// running.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "ok"}

	if h.polling != nil {
		status := h.polling.Status()
		resp.Polling = &status
	}
	if h.push != nil {
		status := h.push.Status()
		resp.Push = &status
		if status.GivenUp {
			resp.Status = "degraded"
			resp.Degraded = true
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthLive handles GET /api/v1/health/live: process liveness only.
func (h *Handlers) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReady handles GET /api/v1/health/ready: the service is ready when
// the directory database answers.
func (h *Handlers) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "directory unavailable: " + err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Pinger is implemented by the directory for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

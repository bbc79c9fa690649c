// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warwatch-io/warwatch/internal/logging"
)

// requestIDHeader carries the per-request correlation id.
const requestIDHeader = "X-Request-ID"

// NewRouter configures the HTTP routes.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/health", func(r chi.Router) {
			r.Get("/", h.Health)
			r.Get("/live", h.HealthLive)
			r.Get("/ready", h.HealthReady)
		})
		r.Post("/war-alerts/publish", h.PublishStatus)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// requestID assigns a correlation id to each request, reusing the caller's
// when present, and logs the request with it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		logging.Debug().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("http request")

		next.ServeHTTP(w, r)
	})
}

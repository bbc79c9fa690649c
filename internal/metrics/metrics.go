// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

// Package metrics provides Prometheus instrumentation for the notification
// pipeline: adapter activity, feed health, dispatch outcomes and reconnect
// behavior. Metrics are exposed at /metrics in Prometheus text format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Adapter Metrics
	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warwatch_events_received_total",
			Help: "Conflict events received from the upstream feed",
		},
		[]string{"source"}, // "polling", "push", "manual"
	)

	PollTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warwatch_poll_ticks_total",
			Help: "Polling adapter ticks by outcome",
		},
		[]string{"outcome"}, // "ok", "error"
	)

	Watermark = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "warwatch_watermark_event_id",
			Help: "Last processed numeric event id on the polling path",
		},
	)

	// Feed Metrics
	FeedRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "warwatch_feed_request_duration_seconds",
			Help:    "Duration of upstream feed requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	FeedErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warwatch_feed_errors_total",
			Help: "Upstream feed failures by type",
		},
		[]string{"error_type"}, // "transport", "parse"
	)

	// Dispatch Metrics
	Dispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warwatch_dispatches_total",
			Help: "Per-target delivery attempts by outcome",
		},
		[]string{"outcome"}, // "ok", "failed"
	)

	RoutingMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "warwatch_routing_misses_total",
			Help: "Events that matched no tracked alliance",
		},
	)

	ChannelResolutionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "warwatch_channel_resolution_failures_total",
			Help: "Alliances with no configured or discoverable channel",
		},
	)

	// Reconnect Metrics
	ReconnectAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "warwatch_reconnect_attempts_total",
			Help: "Push transport reconnect attempts",
		},
	)

	ReconnectState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "warwatch_reconnect_state",
			Help: "Push reconnect state (0=idle, 1=connecting, 2=connected, 3=disconnected, 4=given_up)",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "warwatch_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warwatch_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

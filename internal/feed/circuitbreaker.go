// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

package feed

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/warwatch-io/warwatch/internal/logging"
	"github.com/warwatch-io/warwatch/internal/metrics"
	"github.com/warwatch-io/warwatch/internal/models"
)

// CircuitBreakerClient wraps a feed Client with the circuit breaker pattern
// so a dead or slow upstream does not have every polling tick spend its full
// timeout before failing.
//
// The breaker uses real time for its interval and timeout calculations.
// Tests should exercise the wrapped client directly.
type CircuitBreakerClient struct {
	client Client
	cb     *gobreaker.CircuitBreaker[[]models.ConflictEvent]
	name   string
}

// Ensure CircuitBreakerClient implements Client
var _ Client = (*CircuitBreakerClient)(nil)

// NewCircuitBreakerClient wraps client with a circuit breaker.
// Configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewCircuitBreakerClient(client Client) *CircuitBreakerClient {
	cbName := "conflict-feed"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[[]models.ConflictEvent](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("opening feed circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("feed circuit state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &CircuitBreakerClient{client: client, cb: cb, name: cbName}
}

// RecentConflicts executes the wrapped fetch through the circuit breaker.
func (c *CircuitBreakerClient) RecentConflicts(ctx context.Context, limit int) ([]models.ConflictEvent, error) {
	return c.cb.Execute(func() ([]models.ConflictEvent, error) {
		return c.client.RecentConflicts(ctx, limit)
	})
}

// State returns the current circuit breaker state.
func (c *CircuitBreakerClient) State() gobreaker.State {
	return c.cb.State()
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return -1
	}
}

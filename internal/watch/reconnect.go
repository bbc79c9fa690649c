// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

package watch

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/warwatch-io/warwatch/internal/logging"
	"github.com/warwatch-io/warwatch/internal/metrics"
)

// ReconnectState is the state of the push transport's reconnect machine.
type ReconnectState int

const (
	StateIdle ReconnectState = iota
	StateConnecting
	StateConnected
	StateDisconnected
	StateGivenUp
)

func (s ReconnectState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateGivenUp:
		return "given_up"
	default:
		return "unknown"
	}
}

// ReconnectManager governs backoff and retry of the push transport
// connection. Delays double from the base (5s, 10s, 20s, ...) with no
// jitter; after maxAttempts consecutive failures it gives up until the
// owning adapter is externally restarted. A successful connect resets the
// attempt counter and the delay schedule.
type ReconnectManager struct {
	mu          sync.Mutex
	state       ReconnectState
	attempts    int
	maxAttempts int
	nextAttempt time.Time

	bo      *backoff.ExponentialBackOff
	timer   *time.Timer
	connect func()
}

// NewReconnectManager creates a reconnect manager that invokes connect when
// a scheduled retry fires.
func NewReconnectManager(baseDelay time.Duration, maxAttempts int, connect func()) *ReconnectManager {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = baseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = baseDelay << uint(maxAttempts)
	bo.MaxElapsedTime = 0 // the attempt ceiling bounds retries, not elapsed time
	bo.Reset()

	return &ReconnectManager{
		state:       StateIdle,
		maxAttempts: maxAttempts,
		bo:          bo,
		connect:     connect,
	}
}

// Connecting marks a connection attempt in progress.
func (m *ReconnectManager) Connecting() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setState(StateConnecting)
}

// Connected records a successful connect: the attempt counter and the
// delay schedule reset.
func (m *ReconnectManager) Connected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = 0
	m.bo.Reset()
	m.setState(StateConnected)
}

// Disconnected schedules the next reconnect attempt and returns the delay.
// When the attempt ceiling is exhausted it transitions to GivenUp and
// returns scheduled=false; no further attempts occur until Reset.
func (m *ReconnectManager) Disconnected() (delay time.Duration, scheduled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateGivenUp {
		return 0, false
	}
	if m.attempts >= m.maxAttempts {
		logging.Error().Int("attempts", m.attempts).Msg("push reconnect attempts exhausted")
		m.setState(StateGivenUp)
		return 0, false
	}

	delay = m.bo.NextBackOff()
	m.attempts++
	m.nextAttempt = time.Now().Add(delay)
	m.setState(StateDisconnected)
	metrics.ReconnectAttempts.Inc()

	logging.Warn().
		Dur("delay", delay).
		Int("attempt", m.attempts).
		Int("max_attempts", m.maxAttempts).
		Msg("push transport disconnected, reconnect scheduled")

	m.timer = time.AfterFunc(delay, func() {
		m.Connecting()
		m.connect()
	})

	return delay, true
}

// Stop cancels any pending reconnect timer and returns to Idle.
func (m *ReconnectManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.setState(StateIdle)
}

// Reset clears the attempt counter and delay schedule. Called by the
// owning adapter on an explicit restart, the only way out of GivenUp.
func (m *ReconnectManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.attempts = 0
	m.bo.Reset()
	m.setState(StateIdle)
}

// State returns the current state.
func (m *ReconnectManager) State() ReconnectState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Attempts returns the consecutive failed-connect count.
func (m *ReconnectManager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// NextAttempt returns when the pending reconnect fires, zero when none is
// scheduled.
func (m *ReconnectManager) NextAttempt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateDisconnected {
		return time.Time{}
	}
	return m.nextAttempt
}

// setState must be called with mu held.
func (m *ReconnectManager) setState(s ReconnectState) {
	m.state = s
	metrics.ReconnectState.Set(float64(s))
}

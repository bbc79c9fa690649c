// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

package watch

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestReconnectManager_DoublingSchedule(t *testing.T) {
	m := NewReconnectManager(5*time.Second, 5, func() {})
	defer m.Stop()

	want := []time.Duration{
		5 * time.Second,
		10 * time.Second,
		20 * time.Second,
		40 * time.Second,
		80 * time.Second,
	}
	for i, wantDelay := range want {
		delay, scheduled := m.Disconnected()
		if !scheduled {
			t.Fatalf("attempt %d: expected a scheduled retry", i+1)
		}
		if delay != wantDelay {
			t.Errorf("attempt %d: delay = %v, want %v", i+1, delay, wantDelay)
		}
		if m.Attempts() != i+1 {
			t.Errorf("attempt count = %d, want %d", m.Attempts(), i+1)
		}
	}

	// The sixth consecutive failure exhausts the ceiling.
	if _, scheduled := m.Disconnected(); scheduled {
		t.Error("sixth disconnect must not schedule a retry")
	}
	if m.State() != StateGivenUp {
		t.Errorf("state = %v, want %v", m.State(), StateGivenUp)
	}

	// Further disconnects while given up stay inert.
	if _, scheduled := m.Disconnected(); scheduled {
		t.Error("disconnect while given up must not schedule a retry")
	}
}

func TestReconnectManager_ConnectedResetsSchedule(t *testing.T) {
	m := NewReconnectManager(5*time.Second, 5, func() {})
	defer m.Stop()

	m.Disconnected()
	m.Disconnected()
	m.Disconnected()

	m.Connected()
	if m.Attempts() != 0 {
		t.Errorf("attempts after Connected = %d, want 0", m.Attempts())
	}
	if m.State() != StateConnected {
		t.Errorf("state = %v, want %v", m.State(), StateConnected)
	}

	// The schedule restarts from the base delay.
	if delay, _ := m.Disconnected(); delay != 5*time.Second {
		t.Errorf("delay after reset = %v, want 5s", delay)
	}
}

func TestReconnectManager_ResetLeavesGivenUp(t *testing.T) {
	m := NewReconnectManager(5*time.Second, 1, func() {})
	defer m.Stop()

	m.Disconnected()
	if _, scheduled := m.Disconnected(); scheduled {
		t.Fatal("ceiling of 1 should exhaust on the second disconnect")
	}
	if m.State() != StateGivenUp {
		t.Fatalf("state = %v, want %v", m.State(), StateGivenUp)
	}

	m.Reset()
	if m.State() != StateIdle {
		t.Errorf("state after Reset = %v, want %v", m.State(), StateIdle)
	}
	if delay, scheduled := m.Disconnected(); !scheduled || delay != 5*time.Second {
		t.Errorf("after Reset: delay = %v scheduled = %v, want 5s true", delay, scheduled)
	}
}

func TestReconnectManager_TimerInvokesConnect(t *testing.T) {
	var calls atomic.Int32
	m := NewReconnectManager(5*time.Millisecond, 5, func() { calls.Add(1) })
	defer m.Stop()

	if _, scheduled := m.Disconnected(); !scheduled {
		t.Fatal("expected a scheduled retry")
	}

	deadline := time.After(time.Second)
	for calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("connect callback never fired")
		case <-time.After(time.Millisecond):
		}
	}
	if m.State() != StateConnecting {
		t.Errorf("state when retry fires = %v, want %v", m.State(), StateConnecting)
	}
}

func TestReconnectManager_StopCancelsPendingRetry(t *testing.T) {
	var calls atomic.Int32
	m := NewReconnectManager(20*time.Millisecond, 5, func() { calls.Add(1) })

	m.Disconnected()
	m.Stop()

	time.Sleep(60 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("connect fired %d times after Stop, want 0", calls.Load())
	}
	if m.State() != StateIdle {
		t.Errorf("state after Stop = %v, want %v", m.State(), StateIdle)
	}
}

func TestReconnectManager_NextAttempt(t *testing.T) {
	m := NewReconnectManager(5*time.Second, 5, func() {})
	defer m.Stop()

	if !m.NextAttempt().IsZero() {
		t.Error("NextAttempt should be zero before any disconnect")
	}

	before := time.Now()
	m.Disconnected()
	next := m.NextAttempt()
	if next.Before(before.Add(4 * time.Second)) {
		t.Errorf("NextAttempt = %v, want about 5s after %v", next, before)
	}
}

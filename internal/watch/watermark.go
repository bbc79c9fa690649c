// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

package watch

import (
	"strconv"
	"sync"

	"github.com/warwatch-io/warwatch/internal/metrics"
)

// Watermark tracks the last-processed event id for one adapter instance.
// It only moves forward: Advance with an id at or below the current value
// is a no-op, so a failed or stale tick can never rewind it. Lifetime is
// the adapter's process lifetime; it is re-seeded from the feed on start.
type Watermark struct {
	mu    sync.RWMutex
	value string
	set   bool
}

// Value returns the current watermark and whether one has been recorded.
func (w *Watermark) Value() (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.value, w.set
}

// SeenOrBefore reports whether id is at or below the watermark. An unset
// watermark has seen nothing.
func (w *Watermark) SeenOrBefore(id string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.set {
		return false
	}
	return CompareEventIDs(id, w.value) <= 0
}

// Advance moves the watermark forward to id. Calls with an id at or below
// the current value are ignored.
func (w *Watermark) Advance(id string) {
	if id == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.set && CompareEventIDs(id, w.value) <= 0 {
		return
	}
	w.value = id
	w.set = true
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		metrics.Watermark.Set(float64(n))
	}
}

// CompareEventIDs orders two upstream event ids. The upstream assigns
// numeric ids serialized as variable-width strings, so "99" precedes "105";
// plain string comparison would get that wrong. Ids that do not parse as
// integers fall back to lexicographic comparison.
func CompareEventIDs(a, b string) int {
	an, aerr := strconv.ParseInt(a, 10, 64)
	bn, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

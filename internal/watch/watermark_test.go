// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

package watch

import "testing"

func TestCompareEventIDs(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"numeric less", "99", "105", -1},
		{"numeric greater", "105", "99", 1},
		{"numeric equal", "105", "105", 0},
		{"variable width", "9", "10", -1},
		{"large ids", "1000000", "999999", 1},
		{"non-numeric falls back to string", "abc", "abd", -1},
		{"mixed falls back to string", "100", "abc", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareEventIDs(tt.a, tt.b); got != tt.expected {
				t.Errorf("CompareEventIDs(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestWatermark_Unset(t *testing.T) {
	var w Watermark

	if _, set := w.Value(); set {
		t.Error("fresh watermark should be unset")
	}
	if w.SeenOrBefore("1") {
		t.Error("unset watermark has seen nothing")
	}
}

func TestWatermark_Advance(t *testing.T) {
	var w Watermark

	w.Advance("100")
	if value, set := w.Value(); !set || value != "100" {
		t.Errorf("Value() = (%q, %v), want (%q, true)", value, set, "100")
	}

	if !w.SeenOrBefore("100") {
		t.Error("watermark id itself should be seen")
	}
	if !w.SeenOrBefore("99") {
		t.Error("id below watermark should be seen")
	}
	if w.SeenOrBefore("105") {
		t.Error("id above watermark should not be seen")
	}
}

func TestWatermark_NeverRewinds(t *testing.T) {
	var w Watermark

	w.Advance("105")
	w.Advance("100") // stale tick, must be ignored
	w.Advance("")    // no-op

	if value, _ := w.Value(); value != "105" {
		t.Errorf("watermark = %q, want %q", value, "105")
	}
}

func TestWatermark_VariableWidthIDs(t *testing.T) {
	var w Watermark

	w.Advance("99")
	if w.SeenOrBefore("105") {
		t.Error("numeric 105 is after 99 despite string ordering")
	}
	w.Advance("105")
	if value, _ := w.Value(); value != "105" {
		t.Errorf("watermark = %q, want %q", value, "105")
	}
}

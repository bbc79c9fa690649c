// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/warwatch-io/warwatch/internal/models"
)

func TestRenderMessage_AttackerFraming(t *testing.T) {
	ev := event("790", "0")
	ev.Attacker.AllianceName = "Rose"
	ev.Date = time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	ev.Reason = "counter"

	msg := RenderMessage(ev, roseMatch())

	if msg.Title != "War Alert: Attacker Nation declared war on Defender Nation" {
		t.Errorf("title = %q", msg.Title)
	}
	if msg.Description != "Rose is attacking Defender Nation" {
		t.Errorf("description = %q", msg.Description)
	}
	if msg.Color != colorAttacking {
		t.Errorf("color = %#x, want %#x", msg.Color, colorAttacking)
	}
	if !msg.Timestamp.Equal(ev.Date) {
		t.Errorf("timestamp = %v, want %v", msg.Timestamp, ev.Date)
	}

	wantFields := map[string]string{
		"Attacker":          "Attacker Nation",
		"Attacker Alliance": "Rose",
		"War Type":          "RAID",
		"Defender":          "Defender Nation",
		"Defender Alliance": "None",
		"Reason":            "counter",
	}
	if len(msg.Fields) != len(wantFields) {
		t.Fatalf("got %d fields, want %d", len(msg.Fields), len(wantFields))
	}
	for _, f := range msg.Fields {
		if want, ok := wantFields[f.Name]; !ok || f.Value != want {
			t.Errorf("field %q = %q, want %q", f.Name, f.Value, want)
		}
	}
}

func TestRenderMessage_DefenderFraming(t *testing.T) {
	ev := event("821", "790")
	ev.Attacker.AllianceName = "Eclipse"

	match := models.AllianceMatch{
		Alliance: models.Alliance{ID: 1, Name: "Rose"},
		Role:     models.RoleDefender,
	}
	msg := RenderMessage(ev, match)

	if msg.Description != "Rose is defending against Attacker Nation (Eclipse)" {
		t.Errorf("description = %q", msg.Description)
	}
	if msg.Color != colorDefending {
		t.Errorf("color = %#x, want %#x", msg.Color, colorDefending)
	}
}

func TestThreadName(t *testing.T) {
	if got := ThreadName(event("790", "0")); got != "War 105 - Attacker Nation vs Defender Nation" {
		t.Errorf("ThreadName = %q", got)
	}
}

func TestThreadSeed(t *testing.T) {
	seed := ThreadSeed(event("790", "0"))
	for _, want := range []string{
		"politicsandwar.com/nation/war/timeline/war=105",
		"nation/id=1",
		"nation/id=2",
	} {
		if !strings.Contains(seed, want) {
			t.Errorf("seed missing %q:\n%s", want, seed)
		}
	}
}

func TestThreadSeed_MissingNationIDs(t *testing.T) {
	ev := event("790", "0")
	ev.Attacker.NationID = ""
	ev.Defender.NationID = ""

	seed := ThreadSeed(ev)
	if strings.Contains(seed, "nation/id=") {
		t.Errorf("seed should omit nation links without ids:\n%s", seed)
	}
}

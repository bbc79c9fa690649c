// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

package notify

import (
	"fmt"

	"github.com/warwatch-io/warwatch/internal/chat"
	"github.com/warwatch-io/warwatch/internal/models"
)

// Embed colors by role framing.
const (
	colorAttacking = 0xE67E22 // orange
	colorDefending = 0xFF0000 // red
)

const (
	embedFooter    = "Warwatch War Alerts"
	warTimelineURL = "https://politicsandwar.com/nation/war/timeline/war=%s"
	nationURL      = "https://politicsandwar.com/nation/id=%s"
)

// RenderMessage builds the structured notification for one event as seen
// by one alliance: attacking/defending framing, both participants with
// their alliance names, the war category and reason, and the event time.
func RenderMessage(ev *models.ConflictEvent, match models.AllianceMatch) chat.Message {
	var description string
	color := colorDefending
	if match.Role == models.RoleAttacker {
		description = fmt.Sprintf("%s is attacking %s", match.Alliance.Name, participantLabel(ev.Defender))
		color = colorAttacking
	} else {
		description = fmt.Sprintf("%s is defending against %s", match.Alliance.Name, participantLabel(ev.Attacker))
	}

	fields := []chat.Field{
		{Name: "Attacker", Value: ev.Attacker.Name, Inline: true},
		{Name: "Attacker Alliance", Value: allianceLabel(ev.Attacker), Inline: true},
		{Name: "War Type", Value: ev.WarType, Inline: true},
		{Name: "Defender", Value: ev.Defender.Name, Inline: true},
		{Name: "Defender Alliance", Value: allianceLabel(ev.Defender), Inline: true},
		{Name: "Reason", Value: ev.Reason, Inline: false},
	}

	return chat.Message{
		Title:       fmt.Sprintf("War Alert: %s declared war on %s", ev.Attacker.Name, ev.Defender.Name),
		Description: description,
		Color:       color,
		Fields:      fields,
		Timestamp:   ev.Date,
		Footer:      embedFooter,
	}
}

// ThreadName names the companion discussion thread for an event.
func ThreadName(ev *models.ConflictEvent) string {
	return fmt.Sprintf("War %s - %s vs %s", ev.ID, ev.Attacker.Name, ev.Defender.Name)
}

// ThreadSeed builds the cross-reference links the companion thread is
// pre-seeded with.
func ThreadSeed(ev *models.ConflictEvent) string {
	seed := fmt.Sprintf("War timeline: "+warTimelineURL, ev.ID)
	if ev.Attacker.NationID != "" {
		seed += fmt.Sprintf("\nAttacker: "+nationURL, ev.Attacker.NationID)
	}
	if ev.Defender.NationID != "" {
		seed += fmt.Sprintf("\nDefender: "+nationURL, ev.Defender.NationID)
	}
	return seed
}

func participantLabel(p models.Participant) string {
	if p.AllianceName != "" {
		return fmt.Sprintf("%s (%s)", p.Name, p.AllianceName)
	}
	return p.Name
}

func allianceLabel(p models.Participant) string {
	if p.AllianceName != "" {
		return p.AllianceName
	}
	if !p.InAlliance() {
		return "None"
	}
	return p.AllianceID
}

// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

// Package models defines the shared data types for the conflict-event
// notification pipeline: upstream war events, alliances, configured
// delivery targets and per-target delivery outcomes.
package models

import "time"

// Participant is one side of a conflict event as reported by the upstream
// feed. AllianceID is the external alliance identifier; "0" or "" means the
// nation is not in any alliance.
type Participant struct {
	NationID     string `json:"nation_id"`
	AllianceID   string `json:"alliance_id"`
	Name         string `json:"name"`
	AllianceName string `json:"alliance_name,omitempty"`
}

// InAlliance reports whether the participant belongs to an alliance.
func (p Participant) InAlliance() bool {
	return p.AllianceID != "" && p.AllianceID != "0"
}

// ConflictEvent is one externally reported war record. Immutable once
// received; the ID is assigned upstream and is monotonically increasing,
// but not guaranteed fixed-width.
type ConflictEvent struct {
	ID       string      `json:"id" validate:"required"`
	Date     time.Time   `json:"date"`
	Attacker Participant `json:"attacker"`
	Defender Participant `json:"defender"`
	WarType  string      `json:"war_type"`
	Reason   string      `json:"reason"`
}

// Alliance is an internal organizational unit tracked by the administration
// module. ExternalID is the value compared against event participant
// alliance ids. GuildID is the alliance's chat guild, used for fallback
// channel discovery.
type Alliance struct {
	ID         int64  `db:"id" json:"id"`
	ExternalID string `db:"external_id" json:"external_id"`
	Name       string `db:"name" json:"name"`
	GuildID    string `db:"guild_id" json:"guild_id"`
	Active     bool   `db:"is_active" json:"is_active"`
}

// Role records which side of the event an alliance was on. Rendering uses
// it for the attacking/defending framing.
type Role string

const (
	RoleAttacker Role = "attacker"
	RoleDefender Role = "defender"
)

// AllianceMatch pairs a routed alliance with its role in the event.
type AllianceMatch struct {
	Alliance Alliance `json:"alliance"`
	Role     Role     `json:"role"`
}

// DeliveryTarget is a configured destination channel for one alliance and
// notification category. Owned by the administration module; read-only
// here. Discovered marks synthetic targets produced by fallback channel
// discovery rather than configuration.
type DeliveryTarget struct {
	ID         int64             `db:"id" json:"id"`
	AllianceID int64             `db:"alliance_id" json:"alliance_id"`
	Module     string            `db:"module" json:"module"`
	EventType  string            `db:"event_type" json:"event_type"`
	ChannelID  string            `db:"channel_id" json:"channel_id"`
	Active     bool              `db:"is_active" json:"is_active"`
	Settings   map[string]string `db:"-" json:"settings,omitempty"`
	Discovered bool              `db:"-" json:"discovered,omitempty"`
}

// DeliveryResult is the outcome of one send attempt to one target.
// Ephemeral; lives only inside the report returned to the caller.
type DeliveryResult struct {
	Target  DeliveryTarget `json:"target"`
	Success bool           `json:"success"`
	Message string         `json:"message"`
}

// PublishReport aggregates delivery results across all alliances for one
// event batch.
type PublishReport struct {
	Success   bool             `json:"success"`
	Published int              `json:"published"`
	Total     int              `json:"total"`
	Results   []DeliveryResult `json:"results"`
}

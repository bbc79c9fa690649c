// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

// Package notify maps conflict events to interested alliances, resolves
// their delivery channels and fans notifications out to them with isolated
// per-target failure handling.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/warwatch-io/warwatch/internal/directory"
	"github.com/warwatch-io/warwatch/internal/models"
)

// AllianceLookup is the slice of the directory the router needs.
type AllianceLookup interface {
	AllianceByExternalID(ctx context.Context, externalID string) (*models.Alliance, error)
}

// Router resolves which tracked alliances an event touches.
type Router struct {
	alliances AllianceLookup
}

// NewRouter creates a tenant router over the given directory view.
func NewRouter(alliances AllianceLookup) *Router {
	return &Router{alliances: alliances}
}

// Route returns the distinct tracked alliances participating in the event,
// each tagged with its side. An event touching no tracked alliance returns
// an empty slice and no error; that is a routing miss, not a failure.
// When both sides map to the same alliance, the attacker role wins.
func (r *Router) Route(ctx context.Context, ev *models.ConflictEvent) ([]models.AllianceMatch, error) {
	sides := []struct {
		participant models.Participant
		role        models.Role
	}{
		{ev.Attacker, models.RoleAttacker},
		{ev.Defender, models.RoleDefender},
	}

	var matches []models.AllianceMatch
	seen := make(map[int64]bool, 2)

	for _, side := range sides {
		if !side.participant.InAlliance() {
			continue
		}

		alliance, err := r.alliances.AllianceByExternalID(ctx, side.participant.AllianceID)
		if err != nil {
			if errors.Is(err, directory.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("route event %s: %w", ev.ID, err)
		}

		if seen[alliance.ID] {
			continue
		}
		seen[alliance.ID] = true
		matches = append(matches, models.AllianceMatch{Alliance: *alliance, Role: side.role})
	}

	return matches, nil
}

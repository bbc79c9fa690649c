// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/warwatch-io/warwatch/internal/chat"
	"github.com/warwatch-io/warwatch/internal/logging"
	"github.com/warwatch-io/warwatch/internal/models"
)

// ErrNoChannel indicates an alliance has no configured delivery target and
// none could be discovered from its guild channel listing.
var ErrNoChannel = errors.New("no channel configured or found")

// TargetLookup is the slice of the directory the resolver needs.
type TargetLookup interface {
	TargetsFor(ctx context.Context, allianceID int64, module, eventType string) ([]models.DeliveryTarget, error)
}

// Resolver maps one alliance to its delivery targets for a fixed
// notification category, with keyword-based fallback discovery over the
// alliance's guild channels when nothing is configured.
type Resolver struct {
	targets  TargetLookup
	provider chat.Provider

	module    string
	eventType string
	keywords  []string
}

// NewResolver creates a channel resolver. keywords are matched
// case-insensitively against channel names during fallback discovery.
func NewResolver(targets TargetLookup, provider chat.Provider, module, eventType string, keywords []string) *Resolver {
	return &Resolver{
		targets:   targets,
		provider:  provider,
		module:    module,
		eventType: eventType,
		keywords:  keywords,
	}
}

// Resolve returns the alliance's configured active targets, or a single
// discovered target from the fallback heuristic. Returns ErrNoChannel when
// neither yields a destination.
func (r *Resolver) Resolve(ctx context.Context, alliance models.Alliance) ([]models.DeliveryTarget, error) {
	configured, err := r.targets.TargetsFor(ctx, alliance.ID, r.module, r.eventType)
	if err != nil {
		return nil, fmt.Errorf("resolve targets for %s: %w", alliance.Name, err)
	}
	if len(configured) > 0 {
		return configured, nil
	}

	discovered, ok := r.discover(ctx, alliance)
	if !ok {
		return nil, ErrNoChannel
	}
	return []models.DeliveryTarget{discovered}, nil
}

// discover enumerates the alliance's guild channels and picks the first
// whose name contains one of the fallback keywords.
func (r *Resolver) discover(ctx context.Context, alliance models.Alliance) (models.DeliveryTarget, bool) {
	if alliance.GuildID == "" {
		return models.DeliveryTarget{}, false
	}

	client, err := r.provider()
	if err != nil {
		logging.Warn().Err(err).Str("alliance", alliance.Name).Msg("channel discovery skipped, no chat client")
		return models.DeliveryTarget{}, false
	}

	channels, err := client.GuildChannels(ctx, alliance.GuildID)
	if err != nil {
		logging.Warn().Err(err).Str("alliance", alliance.Name).Msg("channel discovery failed")
		return models.DeliveryTarget{}, false
	}

	for _, ch := range channels {
		name := strings.ToLower(ch.Name)
		for _, kw := range r.keywords {
			if strings.Contains(name, strings.ToLower(kw)) {
				logging.Info().
					Str("alliance", alliance.Name).
					Str("channel", ch.Name).
					Msg("discovered fallback channel")
				return models.DeliveryTarget{
					AllianceID: alliance.ID,
					Module:     r.module,
					EventType:  r.eventType,
					ChannelID:  ch.ID,
					Active:     true,
					Discovered: true,
				}, true
			}
		}
	}

	return models.DeliveryTarget{}, false
}

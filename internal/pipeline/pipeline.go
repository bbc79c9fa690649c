// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

// Package pipeline composes the downstream processing chain invoked by both
// event source adapters and the manual publish endpoint: tenant routing,
// channel resolution and notification dispatch.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/warwatch-io/warwatch/internal/logging"
	"github.com/warwatch-io/warwatch/internal/metrics"
	"github.com/warwatch-io/warwatch/internal/models"
	"github.com/warwatch-io/warwatch/internal/notify"
)

// Pipeline is the single downstream chain for conflict events. Both
// adapters and the HTTP publish endpoint feed it; it has no adapter-specific
// state.
type Pipeline struct {
	router     *notify.Router
	resolver   *notify.Resolver
	dispatcher *notify.Dispatcher
}

// New wires the processing chain.
func New(router *notify.Router, resolver *notify.Resolver, dispatcher *notify.Dispatcher) *Pipeline {
	return &Pipeline{router: router, resolver: resolver, dispatcher: dispatcher}
}

// Process handles one event end to end: resolve interested alliances, then
// per alliance resolve channels and dispatch. A routing miss returns no
// results and no error. Channel resolution failures are recorded as failed
// results, never returned as errors; only a directory read failure
// propagates, and the caller absorbs it at the tick or message boundary.
func (p *Pipeline) Process(ctx context.Context, ev *models.ConflictEvent, source string) ([]models.DeliveryResult, error) {
	metrics.EventsReceived.WithLabelValues(source).Inc()

	matches, err := p.router.Route(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("process event %s: %w", ev.ID, err)
	}
	if len(matches) == 0 {
		metrics.RoutingMisses.Inc()
		logging.Debug().Str("event", ev.ID).Msg("event touches no tracked alliance")
		return nil, nil
	}

	var results []models.DeliveryResult
	for _, match := range matches {
		targets, err := p.resolver.Resolve(ctx, match.Alliance)
		if err != nil {
			if errors.Is(err, notify.ErrNoChannel) {
				metrics.ChannelResolutionFailures.Inc()
				results = append(results, models.DeliveryResult{
					Target:  models.DeliveryTarget{AllianceID: match.Alliance.ID},
					Success: false,
					Message: notify.ErrNoChannel.Error(),
				})
				continue
			}
			// Directory read failure for this alliance: record and move on,
			// sibling alliances are unaffected.
			logging.Error().Err(err).Str("alliance", match.Alliance.Name).Msg("channel resolution error")
			results = append(results, models.DeliveryResult{
				Target:  models.DeliveryTarget{AllianceID: match.Alliance.ID},
				Success: false,
				Message: err.Error(),
			})
			continue
		}

		results = append(results, p.dispatcher.Dispatch(ctx, ev, match, targets)...)
	}

	return results, nil
}

// PublishBatch processes events in order and aggregates all delivery
// results into one report. Per-event failures are logged and skipped; the
// batch always completes.
func (p *Pipeline) PublishBatch(ctx context.Context, events []models.ConflictEvent, source string) *models.PublishReport {
	report := &models.PublishReport{Success: true, Results: []models.DeliveryResult{}}

	for i := range events {
		results, err := p.Process(ctx, &events[i], source)
		if err != nil {
			logging.Error().Err(err).Str("event", events[i].ID).Msg("event processing failed")
			continue
		}
		report.Results = append(report.Results, results...)
	}

	report.Total = len(report.Results)
	for _, res := range report.Results {
		if res.Success {
			report.Published++
		}
	}
	return report
}

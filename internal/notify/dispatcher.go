// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

package notify

import (
	"context"
	"sync"

	"github.com/warwatch-io/warwatch/internal/chat"
	"github.com/warwatch-io/warwatch/internal/logging"
	"github.com/warwatch-io/warwatch/internal/metrics"
	"github.com/warwatch-io/warwatch/internal/models"
)

// Dispatcher renders and delivers one event notification to each resolved
// target. Target sends run concurrently and fail independently; the caller
// gets one DeliveryResult per target regardless of outcome.
type Dispatcher struct {
	provider chat.Provider

	// Threads controls whether a companion discussion thread is opened on
	// each successfully sent message.
	Threads bool
}

// NewDispatcher creates a dispatcher resolving its chat client through the
// provider at call time.
func NewDispatcher(provider chat.Provider) *Dispatcher {
	return &Dispatcher{provider: provider, Threads: true}
}

// Dispatch delivers the rendered notification for (event, match) to every
// target. A failed target is recorded and does not prevent the remaining
// sends; the call returns after all sends complete.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *models.ConflictEvent, match models.AllianceMatch, targets []models.DeliveryTarget) []models.DeliveryResult {
	if len(targets) == 0 {
		return nil
	}

	client, err := d.provider()
	if err != nil {
		// No client at all: every target fails the same way.
		results := make([]models.DeliveryResult, len(targets))
		for i, target := range targets {
			results[i] = models.DeliveryResult{Target: target, Success: false, Message: err.Error()}
			metrics.Dispatches.WithLabelValues("failed").Inc()
		}
		return results
	}

	msg := RenderMessage(ev, match)
	results := make([]models.DeliveryResult, len(targets))

	var wg sync.WaitGroup
	for i := range targets {
		wg.Add(1)
		go func(idx int, target models.DeliveryTarget) {
			defer wg.Done()
			results[idx] = d.deliver(ctx, client, ev, target, msg)
		}(i, targets[i])
	}
	wg.Wait()

	return results
}

// deliver sends to one target and optionally opens the companion thread.
// Thread-creation failure does not downgrade the delivery's success.
func (d *Dispatcher) deliver(ctx context.Context, client chat.Client, ev *models.ConflictEvent, target models.DeliveryTarget, msg chat.Message) models.DeliveryResult {
	sent, err := client.SendMessage(ctx, target.ChannelID, msg)
	if err != nil {
		logging.Error().
			Err(err).
			Str("event", ev.ID).
			Str("channel", target.ChannelID).
			Msg("delivery failed")
		metrics.Dispatches.WithLabelValues("failed").Inc()
		return models.DeliveryResult{Target: target, Success: false, Message: err.Error()}
	}

	metrics.Dispatches.WithLabelValues("ok").Inc()
	result := models.DeliveryResult{Target: target, Success: true, Message: "delivered"}

	if d.Threads && sent != nil && sent.ID != "" {
		if err := client.CreateThread(ctx, sent.ChannelID, sent.ID, ThreadName(ev), ThreadSeed(ev)); err != nil {
			logging.Warn().
				Err(err).
				Str("event", ev.ID).
				Str("channel", target.ChannelID).
				Msg("thread creation failed")
		}
	}

	return result
}

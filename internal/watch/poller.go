// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

package watch

import (
	"context"
	"sync"
	"time"

	"github.com/warwatch-io/warwatch/internal/feed"
	"github.com/warwatch-io/warwatch/internal/logging"
	"github.com/warwatch-io/warwatch/internal/metrics"
	"github.com/warwatch-io/warwatch/internal/models"
)

// PollingAdapter periodically fetches the most recent conflict events and
// forwards the ones not yet covered by its watermark.
//
// Each tick fetches the newest PageSize events, scans newest to oldest
// until it hits an id at or below the watermark, then hands the collected
// events to the handler oldest-first so fan-out order within a tick is
// deterministic. The watermark advances only on a successful tick, to the
// newest id observed, even when no collected event routed to any alliance.
//
// Ticks are wall-clock scheduled and not mutually exclusive: a slow tick
// does not hold up the timer. The watermark's forward-only Advance keeps an
// overlapping stale tick from rewinding it.
type PollingAdapter struct {
	feed    feed.Client
	handler Handler
	config  PollingConfig

	mu       sync.RWMutex
	running  bool
	stopChan chan struct{}
	loopWg   sync.WaitGroup

	watermark Watermark
}

// PollingConfig configures the polling adapter.
type PollingConfig struct {
	// Interval is how often to poll the feed.
	Interval time.Duration

	// PageSize is how many recent events each tick fetches.
	PageSize int
}

// DefaultPollingConfig returns production defaults.
func DefaultPollingConfig() PollingConfig {
	return PollingConfig{
		Interval: 30 * time.Second,
		PageSize: 50,
	}
}

// NewPollingAdapter creates a polling adapter. The handler is invoked from
// the adapter's tick goroutines.
func NewPollingAdapter(client feed.Client, handler Handler, config PollingConfig) *PollingAdapter {
	if config.Interval <= 0 {
		config.Interval = DefaultPollingConfig().Interval
	}
	if config.PageSize <= 0 {
		config.PageSize = DefaultPollingConfig().PageSize
	}
	return &PollingAdapter{
		feed:     client,
		handler:  handler,
		config:   config,
		stopChan: make(chan struct{}),
	}
}

// Start seeds the watermark from the feed's most recent event and begins
// the polling loop. Calling Start on a running adapter is a no-op.
func (p *PollingAdapter) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopChan = make(chan struct{})
	p.mu.Unlock()

	p.seedWatermark(ctx)

	logging.Info().Dur("interval", p.config.Interval).Msg("starting polling adapter")

	p.loopWg.Add(1)
	go p.pollLoop(ctx)

	return nil
}

// Stop halts the polling loop. It does not wait for an in-flight tick;
// dispatches already launched are allowed to complete. Idempotent.
func (p *PollingAdapter) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopChan)
	p.mu.Unlock()

	p.loopWg.Wait()
	logging.Info().Msg("polling adapter stopped")
}

// IsRunning returns whether the adapter is active.
func (p *PollingAdapter) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// seedWatermark records the id of the single most recent event so only
// events arriving after start are forwarded. An empty feed leaves the
// watermark unset; a seed failure is logged and the first tick forwards up
// to PageSize events instead (at-least-once is the contract).
func (p *PollingAdapter) seedWatermark(ctx context.Context) {
	events, err := p.feed.RecentConflicts(ctx, 1)
	if err != nil {
		logging.Warn().Err(err).Msg("watermark seed fetch failed")
		return
	}
	if len(events) == 0 {
		return
	}
	p.watermark.Advance(events[0].ID)
	logging.Info().Str("watermark", events[0].ID).Msg("watermark seeded")
}

func (p *PollingAdapter) pollLoop(ctx context.Context) {
	defer p.loopWg.Done()

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("polling adapter context canceled")
			return
		case <-p.stopChan:
			return
		case <-ticker.C:
			// Ticks run detached so a slow fetch never blocks the timer.
			go p.Tick(ctx)
		}
	}
}

// Tick performs one poll: fetch, dedup against the watermark, forward new
// events oldest-first, then advance the watermark. On fetch error the tick
// is abandoned with no watermark change; the next tick proceeds
// independently.
func (p *PollingAdapter) Tick(ctx context.Context) {
	events, err := p.feed.RecentConflicts(ctx, p.config.PageSize)
	if err != nil {
		metrics.PollTicks.WithLabelValues("error").Inc()
		logging.Error().Err(err).Msg("poll tick failed")
		return
	}
	metrics.PollTicks.WithLabelValues("ok").Inc()

	if len(events) == 0 {
		return
	}

	// Feed returns newest first. Collect until the watermark is reached.
	var fresh []models.ConflictEvent
	for i := range events {
		if p.watermark.SeenOrBefore(events[i].ID) {
			break
		}
		fresh = append(fresh, events[i])
	}

	// Forward oldest-first for deterministic ordering within the tick.
	for i := len(fresh) - 1; i >= 0; i-- {
		p.handler(ctx, &fresh[i])
	}

	// Advance to the newest id observed this tick, even when every fresh
	// event routed to zero alliances.
	p.watermark.Advance(events[0].ID)
}

// Watermark returns the current watermark value, empty when unset.
func (p *PollingAdapter) Watermark() string {
	value, _ := p.watermark.Value()
	return value
}

// Status returns a snapshot of the adapter's runtime state.
func (p *PollingAdapter) Status() PollingStatus {
	p.mu.RLock()
	running := p.running
	p.mu.RUnlock()

	value, set := p.watermark.Value()
	return PollingStatus{
		Running:      running,
		Watermark:    value,
		WatermarkSet: set,
		Interval:     p.config.Interval,
	}
}

// PollingStatus is a point-in-time view of the polling adapter.
type PollingStatus struct {
	Running      bool          `json:"running"`
	Watermark    string        `json:"watermark,omitempty"`
	WatermarkSet bool          `json:"watermark_set"`
	Interval     time.Duration `json:"interval"`
}

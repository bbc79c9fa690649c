// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

package watch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/warwatch-io/warwatch/internal/models"
)

// fakeFeed serves scripted responses newest-first, like the real feed.
type fakeFeed struct {
	mu     sync.Mutex
	events []models.ConflictEvent
	err    error
	calls  int
}

func (f *fakeFeed) RecentConflicts(_ context.Context, limit int) ([]models.ConflictEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.events) > limit {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func (f *fakeFeed) set(events []models.ConflictEvent, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = events
	f.err = err
}

// eventRecorder captures forwarded events in order.
type eventRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *eventRecorder) handler(_ context.Context, ev *models.ConflictEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, ev.ID)
}

func (r *eventRecorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func war(id, attackerAlliance, defenderAlliance string) models.ConflictEvent {
	return models.ConflictEvent{
		ID:       id,
		Date:     time.Now().UTC(),
		Attacker: models.Participant{NationID: "1", AllianceID: attackerAlliance, Name: "Attacker Nation"},
		Defender: models.Participant{NationID: "2", AllianceID: defenderAlliance, Name: "Defender Nation"},
		WarType:  "RAID",
		Reason:   "test war",
	}
}

func TestPollingAdapter_SeedsWatermarkOnStart(t *testing.T) {
	feed := &fakeFeed{events: []models.ConflictEvent{war("105", "790", "0")}}
	rec := &eventRecorder{}

	p := NewPollingAdapter(feed, rec.handler, PollingConfig{Interval: time.Hour, PageSize: 10})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer p.Stop()

	if got := p.Watermark(); got != "105" {
		t.Errorf("watermark = %q, want %q", got, "105")
	}
	if len(rec.seen()) != 0 {
		t.Errorf("seeding must not forward events, got %v", rec.seen())
	}
}

func TestPollingAdapter_EmptyFeedLeavesWatermarkUnset(t *testing.T) {
	feed := &fakeFeed{}
	p := NewPollingAdapter(feed, (&eventRecorder{}).handler, PollingConfig{Interval: time.Hour, PageSize: 10})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer p.Stop()

	if status := p.Status(); status.WatermarkSet {
		t.Error("watermark should stay unset on an empty feed")
	}
}

func TestPollingAdapter_DedupAcrossTicks(t *testing.T) {
	feed := &fakeFeed{}
	rec := &eventRecorder{}
	p := NewPollingAdapter(feed, rec.handler, PollingConfig{Interval: time.Hour, PageSize: 10})

	feed.set([]models.ConflictEvent{war("100", "790", "0")}, nil)
	p.Tick(context.Background())

	// Ticks keep re-fetching the same window; already-seen ids must not be
	// forwarded again.
	feed.set([]models.ConflictEvent{war("100", "790", "0")}, nil)
	p.Tick(context.Background())
	p.Tick(context.Background())

	if got := rec.seen(); len(got) != 1 || got[0] != "100" {
		t.Errorf("forwarded ids = %v, want exactly one %q", got, "100")
	}
}

func TestPollingAdapter_ForwardsOldestFirst(t *testing.T) {
	feed := &fakeFeed{}
	rec := &eventRecorder{}
	p := NewPollingAdapter(feed, rec.handler, PollingConfig{Interval: time.Hour, PageSize: 10})

	feed.set([]models.ConflictEvent{war("100", "790", "0")}, nil)
	p.Tick(context.Background())

	feed.set([]models.ConflictEvent{
		war("105", "790", "0"),
		war("104", "0", "42"),
		war("103", "7", "0"),
		war("100", "790", "0"),
	}, nil)
	p.Tick(context.Background())

	want := []string{"100", "103", "104", "105"}
	got := rec.seen()
	if len(got) != len(want) {
		t.Fatalf("forwarded ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("forwarded[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if p.Watermark() != "105" {
		t.Errorf("watermark = %q, want %q", p.Watermark(), "105")
	}
}

func TestPollingAdapter_FailedTickKeepsWatermark(t *testing.T) {
	feed := &fakeFeed{}
	rec := &eventRecorder{}
	p := NewPollingAdapter(feed, rec.handler, PollingConfig{Interval: time.Hour, PageSize: 10})

	feed.set([]models.ConflictEvent{war("100", "790", "0")}, nil)
	p.Tick(context.Background())

	feed.set(nil, errors.New("feed unreachable"))
	p.Tick(context.Background())

	if p.Watermark() != "100" {
		t.Errorf("watermark after failed tick = %q, want %q", p.Watermark(), "100")
	}
	if got := rec.seen(); len(got) != 1 {
		t.Errorf("failed tick must not forward events, got %v", got)
	}

	// The next tick proceeds independently.
	feed.set([]models.ConflictEvent{war("105", "790", "0"), war("100", "790", "0")}, nil)
	p.Tick(context.Background())

	if p.Watermark() != "105" {
		t.Errorf("watermark = %q, want %q", p.Watermark(), "105")
	}
}

func TestPollingAdapter_WatermarkAdvancesWithoutInterestedAlliances(t *testing.T) {
	feed := &fakeFeed{}
	// Handler drops everything, as the pipeline does on a routing miss.
	p := NewPollingAdapter(feed, func(context.Context, *models.ConflictEvent) {}, PollingConfig{Interval: time.Hour, PageSize: 10})

	feed.set([]models.ConflictEvent{war("100", "0", "0")}, nil)
	p.Tick(context.Background())

	if p.Watermark() != "100" {
		t.Errorf("watermark = %q, want %q even with zero interested alliances", p.Watermark(), "100")
	}
}

func TestPollingAdapter_VariableWidthIDs(t *testing.T) {
	feed := &fakeFeed{}
	rec := &eventRecorder{}
	p := NewPollingAdapter(feed, rec.handler, PollingConfig{Interval: time.Hour, PageSize: 10})

	feed.set([]models.ConflictEvent{war("99", "790", "0")}, nil)
	p.Tick(context.Background())

	// "105" < "99" as strings; numeric comparison must still treat it as new.
	feed.set([]models.ConflictEvent{war("105", "790", "0"), war("99", "790", "0")}, nil)
	p.Tick(context.Background())

	got := rec.seen()
	if len(got) != 2 || got[1] != "105" {
		t.Errorf("forwarded ids = %v, want [99 105]", got)
	}
}

func TestPollingAdapter_StopIdempotent(t *testing.T) {
	feed := &fakeFeed{}
	p := NewPollingAdapter(feed, (&eventRecorder{}).handler, PollingConfig{Interval: time.Hour, PageSize: 10})

	// Stop before Start must be safe.
	p.Stop()

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if !p.IsRunning() {
		t.Error("adapter should be running after Start")
	}

	p.Stop()
	p.Stop()
	if p.IsRunning() {
		t.Error("adapter should not be running after Stop")
	}
}

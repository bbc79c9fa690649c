// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/warwatch-io/warwatch/internal/chat"
	"github.com/warwatch-io/warwatch/internal/models"
)

// fakeTargets serves a fixed target list per alliance id.
type fakeTargets struct {
	targets map[int64][]models.DeliveryTarget
	err     error
}

func (f *fakeTargets) TargetsFor(_ context.Context, allianceID int64, _, _ string) ([]models.DeliveryTarget, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.targets[allianceID], nil
}

// fakeChatClient records sends and serves scripted guild channels. failOn
// marks channel ids whose sends fail.
type fakeChatClient struct {
	mu       sync.Mutex
	sent     []string
	threads  []string
	channels []chat.Channel

	failOn      map[string]bool
	channelsErr error
	threadErr   error
}

func (f *fakeChatClient) SendMessage(_ context.Context, channelID string, _ chat.Message) (*chat.SentMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn[channelID] {
		return nil, errors.New("send failed: missing permissions")
	}
	f.sent = append(f.sent, channelID)
	return &chat.SentMessage{ID: "m-" + channelID, ChannelID: channelID}, nil
}

func (f *fakeChatClient) CreateThread(_ context.Context, channelID, _ string, name, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.threadErr != nil {
		return f.threadErr
	}
	f.threads = append(f.threads, channelID+":"+name)
	return nil
}

func (f *fakeChatClient) GuildChannels(_ context.Context, _ string) ([]chat.Channel, error) {
	if f.channelsErr != nil {
		return nil, f.channelsErr
	}
	return f.channels, nil
}

func (f *fakeChatClient) sentTo() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

var defaultKeywords = []string{"status", "announcements", "updates"}

func TestResolver_ConfiguredTarget(t *testing.T) {
	rose := models.Alliance{ID: 1, ExternalID: "790", Name: "Rose", GuildID: "g1"}
	targets := &fakeTargets{targets: map[int64][]models.DeliveryTarget{
		1: {{ID: 10, AllianceID: 1, Module: "war", EventType: "war_alerts", ChannelID: "C1", Active: true}},
	}}
	r := NewResolver(targets, chat.StaticProvider(&fakeChatClient{}), "war", "war_alerts", defaultKeywords)

	got, err := r.Resolve(context.Background(), rose)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(got) != 1 || got[0].ChannelID != "C1" {
		t.Fatalf("targets = %+v, want one with channel C1", got)
	}
	if got[0].Discovered {
		t.Error("configured target must not be marked discovered")
	}
}

func TestResolver_FallbackDiscovery(t *testing.T) {
	rose := models.Alliance{ID: 1, ExternalID: "790", Name: "Rose", GuildID: "g1"}
	client := &fakeChatClient{channels: []chat.Channel{
		{ID: "c-general", Name: "general"},
		{ID: "c-status", Name: "War-Status"},
		{ID: "c-updates", Name: "updates"},
	}}
	r := NewResolver(&fakeTargets{}, chat.StaticProvider(client), "war", "war_alerts", defaultKeywords)

	got, err := r.Resolve(context.Background(), rose)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d targets, want 1", len(got))
	}
	// Keyword matching is case-insensitive and picks the first hit.
	if got[0].ChannelID != "c-status" {
		t.Errorf("channel = %q, want c-status", got[0].ChannelID)
	}
	if !got[0].Discovered || !got[0].Active {
		t.Errorf("discovered target flags = %+v", got[0])
	}
	if got[0].AllianceID != 1 || got[0].Module != "war" || got[0].EventType != "war_alerts" {
		t.Errorf("discovered target not bound to alliance/category: %+v", got[0])
	}
}

func TestResolver_NoChannel(t *testing.T) {
	tests := []struct {
		name     string
		alliance models.Alliance
		client   *fakeChatClient
	}{
		{
			name:     "no keyword match",
			alliance: models.Alliance{ID: 1, Name: "Rose", GuildID: "g1"},
			client:   &fakeChatClient{channels: []chat.Channel{{ID: "c1", Name: "general"}}},
		},
		{
			name:     "no guild bound",
			alliance: models.Alliance{ID: 1, Name: "Rose"},
			client:   &fakeChatClient{channels: []chat.Channel{{ID: "c-status", Name: "status"}}},
		},
		{
			name:     "channel listing fails",
			alliance: models.Alliance{ID: 1, Name: "Rose", GuildID: "g1"},
			client:   &fakeChatClient{channelsErr: errors.New("guild not found")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(&fakeTargets{}, chat.StaticProvider(tt.client), "war", "war_alerts", defaultKeywords)
			_, err := r.Resolve(context.Background(), tt.alliance)
			if !errors.Is(err, ErrNoChannel) {
				t.Errorf("error = %v, want ErrNoChannel", err)
			}
		})
	}
}

func TestResolver_ProviderFailure(t *testing.T) {
	provider := func() (chat.Client, error) { return nil, chat.ErrNotConfigured }
	r := NewResolver(&fakeTargets{}, provider, "war", "war_alerts", defaultKeywords)

	_, err := r.Resolve(context.Background(), models.Alliance{ID: 1, Name: "Rose", GuildID: "g1"})
	if !errors.Is(err, ErrNoChannel) {
		t.Errorf("error = %v, want ErrNoChannel", err)
	}
}

func TestResolver_TargetLookupError(t *testing.T) {
	r := NewResolver(&fakeTargets{err: errors.New("db down")}, chat.StaticProvider(&fakeChatClient{}), "war", "war_alerts", defaultKeywords)
	_, err := r.Resolve(context.Background(), models.Alliance{ID: 1, Name: "Rose"})
	if err == nil || errors.Is(err, ErrNoChannel) {
		t.Errorf("error = %v, want a lookup error distinct from ErrNoChannel", err)
	}
}

// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

/*
client.go - Upstream conflict feed REST client

Fetches the N most recent conflict events ordered newest-first. Partial
payloads are recovered with field defaults rather than rejected; only an
undecodable response or a non-2xx status is treated as an error.
*/

package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/warwatch-io/warwatch/internal/config"
	"github.com/warwatch-io/warwatch/internal/logging"
	"github.com/warwatch-io/warwatch/internal/metrics"
	"github.com/warwatch-io/warwatch/internal/models"
)

// Field defaults applied when the feed omits expected values.
const (
	UnknownNation   = "Unknown Nation"
	NoReasonGiven   = "No reason provided"
	DefaultWarType  = "unknown"
	apiKeyHeader    = "X-Api-Key"
	warsEndpoint    = "/api/wars"
	maxResponseSize = 4 << 20 // 4MB cap on feed responses
)

// Client defines the read side of the upstream feed. Both the direct HTTP
// client and the circuit-breaker wrapper implement this interface.
type Client interface {
	// RecentConflicts returns up to limit events ordered newest-first.
	RecentConflicts(ctx context.Context, limit int) ([]models.ConflictEvent, error)
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)

// HTTPClient provides access to the conflict feed REST API.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient creates a new feed client from config.
func NewHTTPClient(cfg config.FeedConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// feedWar is the wire format of one war record.
type feedWar struct {
	ID       string          `json:"id"`
	Date     time.Time       `json:"date"`
	WarType  string          `json:"war_type"`
	Reason   string          `json:"reason"`
	Attacker feedParticipant `json:"attacker"`
	Defender feedParticipant `json:"defender"`
}

type feedParticipant struct {
	NationID     string `json:"id"`
	AllianceID   string `json:"alliance_id"`
	Name         string `json:"name"`
	AllianceName string `json:"alliance_name"`
}

type feedResponse struct {
	Data []feedWar `json:"data"`
}

// RecentConflicts fetches the limit most recent events, newest first.
func (c *HTTPClient) RecentConflicts(ctx context.Context, limit int) ([]models.ConflictEvent, error) {
	endpoint := fmt.Sprintf("%s%s?limit=%d&order=desc", c.baseURL, warsEndpoint, limit)

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.FeedErrors.WithLabelValues("transport").Inc()
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.FeedRequestDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.FeedErrors.WithLabelValues("transport").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrFeedUnavailable, resp.StatusCode, string(body))
	}

	var parsed feedResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&parsed); err != nil {
		metrics.FeedErrors.WithLabelValues("parse").Inc()
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	events := make([]models.ConflictEvent, 0, len(parsed.Data))
	for i := range parsed.Data {
		ev, ok := normalizeWar(&parsed.Data[i])
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// normalizeWar converts a wire record into a ConflictEvent, filling in
// defaults for missing fields. Records without an id are unusable for
// watermark tracking and are dropped with a warning.
func normalizeWar(w *feedWar) (models.ConflictEvent, bool) {
	if w.ID == "" {
		logging.Warn().Msg("feed returned war record without id, skipping")
		return models.ConflictEvent{}, false
	}

	ev := models.ConflictEvent{
		ID:       w.ID,
		Date:     w.Date,
		WarType:  w.WarType,
		Reason:   w.Reason,
		Attacker: normalizeParticipant(w.Attacker),
		Defender: normalizeParticipant(w.Defender),
	}
	if ev.Date.IsZero() {
		ev.Date = time.Now().UTC()
	}
	if ev.WarType == "" {
		ev.WarType = DefaultWarType
	}
	if ev.Reason == "" {
		ev.Reason = NoReasonGiven
	}
	return ev, true
}

func normalizeParticipant(p feedParticipant) models.Participant {
	out := models.Participant{
		NationID:     p.NationID,
		AllianceID:   p.AllianceID,
		Name:         p.Name,
		AllianceName: p.AllianceName,
	}
	if out.Name == "" {
		out.Name = UnknownNation
	}
	if out.AllianceID == "" {
		out.AllianceID = "0"
	}
	return out
}

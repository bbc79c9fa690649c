// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

/*
discord.go - Discord REST API client

Implements the chat.Client capability against the Discord bot API:
message sends as embeds, thread creation on a sent message, and the guild
channel listing used for fallback discovery.

API Reference: https://discord.com/developers/docs
*/

package chat

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/warwatch-io/warwatch/internal/config"
)

// guildTextChannel is the Discord channel type for plain text channels.
const guildTextChannel = 0

// DiscordClient provides access to the Discord bot REST API.
type DiscordClient struct {
	baseURL    string
	botToken   string
	httpClient *http.Client

	// Cheapest possible send pacing: minimum gap between two sends from
	// this process. Discord enforces per-route limits server-side; this
	// only keeps bursts polite.
	mu        sync.Mutex
	lastSent  time.Time
	rateLimit time.Duration
}

// Ensure DiscordClient implements Client
var _ Client = (*DiscordClient)(nil)

// NewDiscordClient creates a Discord REST client from config.
func NewDiscordClient(cfg config.ChatConfig) *DiscordClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	rateLimit := time.Duration(cfg.RateLimitMs) * time.Millisecond
	if rateLimit == 0 {
		rateLimit = time.Second
	}
	return &DiscordClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		botToken:   cfg.BotToken,
		rateLimit:  rateLimit,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Discord wire structures
type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Footer      discordEmbedFooter  `json:"footer,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbedFooter struct {
	Text string `json:"text,omitempty"`
}

type discordMessagePayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordMessageResponse struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

type discordChannel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type int    `json:"type"`
}

type discordThreadPayload struct {
	Name                string `json:"name"`
	AutoArchiveDuration int    `json:"auto_archive_duration,omitempty"`
}

// SendMessage posts msg as a single embed to the channel.
func (c *DiscordClient) SendMessage(ctx context.Context, channelID string, msg Message) (*SentMessage, error) {
	if err := c.pace(ctx); err != nil {
		return nil, err
	}

	payload := discordMessagePayload{
		Embeds: []discordEmbed{buildEmbed(msg)},
	}

	var sent discordMessageResponse
	endpoint := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, channelID)
	if err := c.doJSON(ctx, http.MethodPost, endpoint, payload, &sent); err != nil {
		return nil, fmt.Errorf("discord send to channel %s: %w", channelID, err)
	}

	if sent.ChannelID == "" {
		sent.ChannelID = channelID
	}
	return &SentMessage{ID: sent.ID, ChannelID: sent.ChannelID}, nil
}

// CreateThread opens a thread on a sent message and seeds it with a short
// text body.
func (c *DiscordClient) CreateThread(ctx context.Context, channelID, messageID, name, seed string) error {
	endpoint := fmt.Sprintf("%s/channels/%s/messages/%s/threads", c.baseURL, channelID, messageID)
	var thread discordChannel
	if err := c.doJSON(ctx, http.MethodPost, endpoint, discordThreadPayload{Name: name}, &thread); err != nil {
		return fmt.Errorf("discord create thread on message %s: %w", messageID, err)
	}

	if seed == "" || thread.ID == "" {
		return nil
	}

	seedEndpoint := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, thread.ID)
	if err := c.doJSON(ctx, http.MethodPost, seedEndpoint, discordMessagePayload{Content: seed}, nil); err != nil {
		return fmt.Errorf("discord seed thread %s: %w", thread.ID, err)
	}
	return nil
}

// GuildChannels lists text channels of a guild.
func (c *DiscordClient) GuildChannels(ctx context.Context, guildID string) ([]Channel, error) {
	endpoint := fmt.Sprintf("%s/guilds/%s/channels", c.baseURL, guildID)
	var raw []discordChannel
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &raw); err != nil {
		return nil, fmt.Errorf("discord list channels for guild %s: %w", guildID, err)
	}

	channels := make([]Channel, 0, len(raw))
	for _, ch := range raw {
		if ch.Type != guildTextChannel {
			continue
		}
		channels = append(channels, Channel{ID: ch.ID, Name: ch.Name, Type: ch.Type})
	}
	return channels, nil
}

// doJSON performs one authenticated request with a JSON body and decodes
// the response into out when out is non-nil.
func (c *DiscordClient) doJSON(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.botToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(detail))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// pace enforces the minimum gap between sends, honoring cancellation.
func (c *DiscordClient) pace(ctx context.Context) error {
	c.mu.Lock()
	wait := c.rateLimit - time.Since(c.lastSent)
	c.lastSent = time.Now().Add(wait)
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildEmbed(msg Message) discordEmbed {
	fields := make([]discordEmbedField, 0, len(msg.Fields))
	for _, f := range msg.Fields {
		fields = append(fields, discordEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}

	embed := discordEmbed{
		Title:       msg.Title,
		Description: msg.Description,
		Color:       msg.Color,
		Fields:      fields,
		Footer:      discordEmbedFooter{Text: msg.Footer},
	}
	if !msg.Timestamp.IsZero() {
		embed.Timestamp = msg.Timestamp.Format(time.RFC3339)
	}
	return embed
}

// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

// Package chat abstracts the chat platform as an opaque "send message to
// channel" capability. The pipeline depends only on the Client interface;
// the Discord REST implementation lives alongside it.
package chat

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured indicates no chat client is available yet.
var ErrNotConfigured = errors.New("chat client not configured")

// Field is one named field of a structured message.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Message is a structured notification: title, colored indicator, named
// fields, timestamp and footer text.
type Message struct {
	Title       string
	Description string
	Color       int
	Fields      []Field
	Timestamp   time.Time
	Footer      string
}

// SentMessage references a delivered message, used to attach a companion
// thread.
type SentMessage struct {
	ID        string
	ChannelID string
}

// Channel is one channel of a guild's channel listing.
type Channel struct {
	ID   string
	Name string
	Type int
}

// Client is the delivery capability the pipeline needs from the chat
// platform.
type Client interface {
	// SendMessage delivers a structured message to a channel.
	SendMessage(ctx context.Context, channelID string, msg Message) (*SentMessage, error)

	// CreateThread opens a threaded sub-conversation on a sent message,
	// pre-seeded with a short text body.
	CreateThread(ctx context.Context, channelID, messageID, name, seed string) error

	// GuildChannels lists the channels of a guild, used for fallback
	// channel discovery.
	GuildChannels(ctx context.Context, guildID string) ([]Channel, error)
}

// Provider resolves the chat client at call time. The pipeline and the
// client bootstrap can initialize in either order; the dispatcher resolves
// the handle lazily through this indirection instead of holding a direct
// reference at construction.
type Provider func() (Client, error)

// StaticProvider returns a Provider that always yields c.
func StaticProvider(c Client) Provider {
	return func() (Client, error) {
		if c == nil {
			return nil, ErrNotConfigured
		}
		return c, nil
	}
}

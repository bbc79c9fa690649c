// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

// Package config loads and validates Warwatch configuration using Koanf v2
// with layered sources: struct defaults, optional YAML file, environment
// variables.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the root configuration for the Warwatch service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Feed     FeedConfig     `koanf:"feed"`
	Push     PushConfig     `koanf:"push"`
	Chat     ChatConfig     `koanf:"chat"`
	Alerts   AlertsConfig   `koanf:"alerts"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig configures the read-only directory database connection.
// The schema is owned by the administration application; this service only
// reads alliances and delivery targets from it.
type DatabaseConfig struct {
	DSN          string        `koanf:"dsn"`
	MaxOpenConns int           `koanf:"max_open_conns"`
	MaxIdleConns int           `koanf:"max_idle_conns"`
	ConnLifetime time.Duration `koanf:"conn_lifetime"`
}

// FeedConfig configures the upstream conflict feed and the polling adapter.
type FeedConfig struct {
	BaseURL        string        `koanf:"base_url"`
	APIKey         string        `koanf:"api_key"`
	Timeout        time.Duration `koanf:"timeout"`
	PollingEnabled bool          `koanf:"polling_enabled"`
	PollInterval   time.Duration `koanf:"poll_interval"`
	PageSize       int           `koanf:"page_size"`
}

// PushConfig configures the push adapter and its reconnect policy.
type PushConfig struct {
	Enabled              bool          `koanf:"enabled"`
	SubscribeURL         string        `koanf:"subscribe_url"`
	SocketURL            string        `koanf:"socket_url"`
	MaxReconnectAttempts int           `koanf:"max_reconnect_attempts"`
	ReconnectBaseDelay   time.Duration `koanf:"reconnect_base_delay"`
}

// ChatConfig configures the chat-platform client used for deliveries.
type ChatConfig struct {
	BaseURL     string        `koanf:"base_url"`
	BotToken    string        `koanf:"bot_token"`
	Timeout     time.Duration `koanf:"timeout"`
	RateLimitMs int           `koanf:"rate_limit_ms"`
}

// AlertsConfig configures the notification category and fallback channel
// discovery keywords.
type AlertsConfig struct {
	Module           string   `koanf:"module"`
	EventType        string   `koanf:"event_type"`
	FallbackKeywords []string `koanf:"fallback_keywords"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all sensible default values. Defaults
// are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8480,
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:          "",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			ConnLifetime: 30 * time.Minute,
		},
		Feed: FeedConfig{
			BaseURL:        "",
			APIKey:         "",
			Timeout:        15 * time.Second,
			PollingEnabled: true,
			PollInterval:   30 * time.Second,
			PageSize:       50,
		},
		Push: PushConfig{
			Enabled:              false,
			SubscribeURL:         "",
			SocketURL:            "",
			MaxReconnectAttempts: 5,
			ReconnectBaseDelay:   5 * time.Second,
		},
		Chat: ChatConfig{
			BaseURL:     "https://discord.com/api/v10",
			BotToken:    "",
			Timeout:     10 * time.Second,
			RateLimitMs: 1000,
		},
		Alerts: AlertsConfig{
			Module:           "war",
			EventType:        "war_alerts",
			FallbackKeywords: []string{"status", "announcements", "updates"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the loaded configuration for values that would prevent
// the service from running.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Feed.PollingEnabled {
		if c.Feed.BaseURL == "" {
			return errors.New("feed.base_url is required when polling is enabled")
		}
		if c.Feed.PollInterval <= 0 {
			return fmt.Errorf("feed.poll_interval must be positive: %s", c.Feed.PollInterval)
		}
		if c.Feed.PageSize <= 0 {
			return fmt.Errorf("feed.page_size must be positive: %d", c.Feed.PageSize)
		}
	}
	if c.Push.Enabled {
		if c.Push.SubscribeURL == "" {
			return errors.New("push.subscribe_url is required when push is enabled")
		}
		if c.Push.MaxReconnectAttempts <= 0 {
			return fmt.Errorf("push.max_reconnect_attempts must be positive: %d", c.Push.MaxReconnectAttempts)
		}
		if c.Push.ReconnectBaseDelay <= 0 {
			return fmt.Errorf("push.reconnect_base_delay must be positive: %s", c.Push.ReconnectBaseDelay)
		}
	}
	if !c.Feed.PollingEnabled && !c.Push.Enabled {
		return errors.New("at least one of feed.polling_enabled or push.enabled must be set")
	}
	if c.Alerts.Module == "" || c.Alerts.EventType == "" {
		return errors.New("alerts.module and alerts.event_type must be set")
	}
	return nil
}

// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

// Command server runs the Warwatch conflict-event notification service:
// the configured event source adapters, the fan-out pipeline and the HTTP
// surface for manual publishes, health and metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/warwatch-io/warwatch/internal/api"
	"github.com/warwatch-io/warwatch/internal/chat"
	"github.com/warwatch-io/warwatch/internal/config"
	"github.com/warwatch-io/warwatch/internal/directory"
	"github.com/warwatch-io/warwatch/internal/feed"
	"github.com/warwatch-io/warwatch/internal/logging"
	"github.com/warwatch-io/warwatch/internal/models"
	"github.com/warwatch-io/warwatch/internal/notify"
	"github.com/warwatch-io/warwatch/internal/pipeline"
	"github.com/warwatch-io/warwatch/internal/watch"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Msg("warwatch starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dir, err := directory.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open directory: %w", err)
	}
	defer func() { _ = dir.Close() }()

	if err := dir.Ping(ctx); err != nil {
		logging.Warn().Err(err).Msg("directory database not reachable yet")
	} else if alliances, err := dir.ActiveAlliances(ctx); err != nil {
		logging.Warn().Err(err).Msg("could not list tracked alliances")
	} else {
		logging.Info().Int("alliances", len(alliances)).Msg("tracked alliances loaded")
	}

	// The chat client resolves lazily so the pipeline and the client
	// bootstrap can initialize in either order.
	discord := chat.NewDiscordClient(cfg.Chat)
	provider := chat.StaticProvider(discord)

	feedClient := feed.NewCircuitBreakerClient(feed.NewHTTPClient(cfg.Feed))

	router := notify.NewRouter(dir)
	resolver := notify.NewResolver(dir, provider, cfg.Alerts.Module, cfg.Alerts.EventType, cfg.Alerts.FallbackKeywords)
	dispatcher := notify.NewDispatcher(provider)
	pipe := pipeline.New(router, resolver, dispatcher)

	var poller *watch.PollingAdapter
	var pusher *watch.PushAdapter

	if cfg.Feed.PollingEnabled {
		poller = watch.NewPollingAdapter(feedClient, handlerFor(pipe, "polling"), watch.PollingConfig{
			Interval: cfg.Feed.PollInterval,
			PageSize: cfg.Feed.PageSize,
		})
		if err := poller.Start(ctx); err != nil {
			return fmt.Errorf("start polling adapter: %w", err)
		}
		defer poller.Stop()
	}

	if cfg.Push.Enabled {
		pusher = watch.NewPushAdapter(cfg.Push, cfg.Feed.APIKey, handlerFor(pipe, "push"))
		if err := pusher.Start(ctx); err != nil {
			return fmt.Errorf("start push adapter: %w", err)
		}
		defer pusher.Stop()
	}

	var pollingStatus api.PollingStatusSource
	if poller != nil {
		pollingStatus = poller
	}
	var pushStatus api.PushStatusSource
	if pusher != nil {
		pushStatus = pusher
	}

	handlers := api.NewHandlers(pipe, pollingStatus, pushStatus, dir)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handlers),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	errChan := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logging.Info().Msg("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("http server shutdown failed")
	}

	logging.Info().Msg("warwatch stopped")
	return nil
}

// handlerFor adapts the pipeline to the adapter handler contract. Errors
// are absorbed at the event boundary so sibling events are unaffected.
func handlerFor(pipe *pipeline.Pipeline, source string) watch.Handler {
	return func(ctx context.Context, ev *models.ConflictEvent) {
		if _, err := pipe.Process(ctx, ev, source); err != nil {
			logging.Error().Err(err).Str("event", ev.ID).Str("source", source).Msg("event processing failed")
		}
	}
}

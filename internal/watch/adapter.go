// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

// Package watch contains the event source adapters that detect new conflict
// events: a polling adapter deduplicating against a watermark and a push
// adapter bound to the upstream subscribe channel, plus the reconnect state
// machine owned by the push adapter.
package watch

import (
	"context"

	"github.com/warwatch-io/warwatch/internal/models"
)

// Handler consumes one newly detected conflict event. Both adapters invoke
// the same handler; it is the entry to the downstream pipeline.
type Handler func(ctx context.Context, ev *models.ConflictEvent)

// EventSourceAdapter produces a lazy sequence of new conflict events to its
// registered handler. Start begins production asynchronously; Stop halts it
// and releases transport resources. Implementations are safe to Stop from
// any state, including before Start completes, and Stop is idempotent.
type EventSourceAdapter interface {
	Start(ctx context.Context) error
	Stop()
}

// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

package feed

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/warwatch-io/warwatch/internal/models"
)

// pushEnvelope is the frame the push channel delivers: either a single
// event or a batch of events, JSON-encoded under "data".
type pushEnvelope struct {
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data"`
}

// DecodePushPayload parses one push message into conflict events. Both
// message types share the feed's wire format; the same field-default
// recovery applies.
func DecodePushPayload(data []byte) ([]models.ConflictEvent, error) {
	var envelope pushEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil, fmt.Errorf("%w: push message without data field", ErrMalformedResponse)
	}

	var batch []feedWar
	if err := json.Unmarshal(envelope.Data, &batch); err == nil {
		events := make([]models.ConflictEvent, 0, len(batch))
		for i := range batch {
			if ev, ok := normalizeWar(&batch[i]); ok {
				events = append(events, ev)
			}
		}
		return events, nil
	}

	var single feedWar
	if err := json.Unmarshal(envelope.Data, &single); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	ev, ok := normalizeWar(&single)
	if !ok {
		return nil, nil
	}
	return []models.ConflictEvent{ev}, nil
}

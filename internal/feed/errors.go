// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

// Package feed provides the client for the upstream conflict-event API.
package feed

import "errors"

// Common feed errors
var (
	// ErrFeedUnavailable indicates the upstream feed could not be reached.
	ErrFeedUnavailable = errors.New("conflict feed unreachable")

	// ErrMalformedResponse indicates the feed returned a payload that could
	// not be decoded.
	ErrMalformedResponse = errors.New("conflict feed returned malformed response")
)

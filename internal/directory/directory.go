// Warwatch - Alliance Conflict Notification Pipeline
// Copyright 2026 Warwatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/warwatch-io/warwatch

// Package directory provides read-only views of the alliance and delivery
// target tables owned by the administration application. This service never
// writes to them.
package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/warwatch-io/warwatch/internal/config"
	"github.com/warwatch-io/warwatch/internal/models"
)

// ErrNotFound indicates no row matched the lookup.
var ErrNotFound = errors.New("directory: not found")

// SQLDirectory reads alliances and delivery targets from the shared
// Postgres database.
type SQLDirectory struct {
	db *sqlx.DB
}

// Open connects to the directory database with pool settings from config.
// The caller owns the returned directory and should Close it on shutdown.
func Open(cfg config.DatabaseConfig) (*SQLDirectory, error) {
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open directory database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnLifetime)
	return &SQLDirectory{db: db}, nil
}

// New wraps an existing connection, used by tests with sqlmock-style
// drivers or a pre-opened pool.
func New(db *sqlx.DB) *SQLDirectory {
	return &SQLDirectory{db: db}
}

// Ping verifies the database connection.
func (d *SQLDirectory) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return d.db.PingContext(ctx)
}

// Close releases the connection pool.
func (d *SQLDirectory) Close() error {
	return d.db.Close()
}

// ActiveAlliances lists alliances with is_active=true and a non-null
// external id, the population eligible for event routing.
func (d *SQLDirectory) ActiveAlliances(ctx context.Context) ([]models.Alliance, error) {
	const query = `
		SELECT id, external_id, name, guild_id, is_active
		FROM alliances
		WHERE is_active = true AND external_id IS NOT NULL AND external_id <> ''
		ORDER BY id`

	var alliances []models.Alliance
	if err := d.db.SelectContext(ctx, &alliances, query); err != nil {
		return nil, fmt.Errorf("list active alliances: %w", err)
	}
	return alliances, nil
}

// AllianceByExternalID looks up one active alliance by its external id.
// Returns ErrNotFound when no tracked alliance matches.
func (d *SQLDirectory) AllianceByExternalID(ctx context.Context, externalID string) (*models.Alliance, error) {
	const query = `
		SELECT id, external_id, name, guild_id, is_active
		FROM alliances
		WHERE is_active = true AND external_id = $1`

	var alliance models.Alliance
	if err := d.db.GetContext(ctx, &alliance, query, externalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup alliance %s: %w", externalID, err)
	}
	return &alliance, nil
}

// TargetsFor lists active delivery targets for one alliance and
// notification category.
func (d *SQLDirectory) TargetsFor(ctx context.Context, allianceID int64, module, eventType string) ([]models.DeliveryTarget, error) {
	const query = `
		SELECT id, alliance_id, module, event_type, channel_id, is_active
		FROM delivery_targets
		WHERE alliance_id = $1 AND module = $2 AND event_type = $3 AND is_active = true
		ORDER BY id`

	var targets []models.DeliveryTarget
	if err := d.db.SelectContext(ctx, &targets, query, allianceID, module, eventType); err != nil {
		return nil, fmt.Errorf("list targets for alliance %d: %w", allianceID, err)
	}
	return targets, nil
}

// Package postgres opens the PostgreSQL database used when STORE_DRIVER=postgres
// and owns its schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"helpinghands/internal/platform/config"
)

// Open connects with lib/pq and verifies the connection.
func Open(ctx context.Context, cfg config.StoreConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Schema creates the tables and indexes the stores expect. Statements are
// idempotent so Migrate runs on every start.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS donors (
		seq             BIGSERIAL,
		id              UUID PRIMARY KEY,
		name            TEXT NOT NULL,
		phone           TEXT NOT NULL UNIQUE,
		email           TEXT NOT NULL UNIQUE,
		blood_group     TEXT NOT NULL,
		city            TEXT NOT NULL,
		address         TEXT NOT NULL,
		available       BOOLEAN NOT NULL DEFAULT TRUE,
		last_donation   TIMESTAMPTZ,
		donation_count  INTEGER NOT NULL DEFAULT 0,
		registered_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS donors_match_idx ON donors (blood_group, city, available)`,
	`CREATE TABLE IF NOT EXISTS emergencies (
		seq             BIGSERIAL,
		id              UUID PRIMARY KEY,
		patient_name    TEXT NOT NULL,
		blood_group     TEXT NOT NULL,
		hospital        TEXT NOT NULL,
		city            TEXT NOT NULL,
		contact         TEXT NOT NULL,
		details         TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL,
		notified_donors UUID[] NOT NULL DEFAULT '{}',
		responders      JSONB NOT NULL DEFAULT '[]',
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL,
		fulfilled_at    TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS emergencies_match_idx ON emergencies (blood_group, city, status)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		seq             BIGSERIAL,
		id              UUID PRIMARY KEY,
		donor_id        UUID NOT NULL,
		emergency_id    UUID,
		type            TEXT NOT NULL,
		message         TEXT NOT NULL,
		read            BOOLEAN NOT NULL DEFAULT FALSE,
		sent_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS notifications_donor_idx ON notifications (donor_id, sent_at)`,
}

// Migrate applies Schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

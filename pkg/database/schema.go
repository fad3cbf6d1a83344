package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// statements are applied in order inside one transaction. Every statement is
// idempotent so Migrate can run on each deploy.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS participants (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'regular' CHECK (category IN ('regular','guest','inactive')),
		rotation_counter INTEGER NOT NULL DEFAULT 0 CHECK (rotation_counter >= 0),
		manual_rank INTEGER CHECK (manual_rank IS NULL OR manual_rank > 0),
		last_hosted_at DATE,
		lifetime_host_count INTEGER NOT NULL DEFAULT 0 CHECK (lifetime_host_count >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS participants_email_key ON participants (LOWER(email))`,
	`CREATE TABLE IF NOT EXISTS venues (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		cuisine TEXT NOT NULL DEFAULT '',
		price_level INTEGER NOT NULL DEFAULT 0,
		visit_count INTEGER NOT NULL DEFAULT 0,
		last_visited DATE,
		avg_group_rating NUMERIC(3,2),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY,
		event_date DATE NOT NULL UNIQUE,
		host_id UUID REFERENCES participants(id),
		venue_id UUID REFERENCES venues(id),
		venue_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		host_acknowledged BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'planned' CHECK (status IN ('planned','completed','cancelled')),
		confirmation_token TEXT UNIQUE,
		attendee_count INTEGER,
		completed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS attendance_facts (
		event_id UUID NOT NULL REFERENCES events(id),
		participant_id UUID NOT NULL REFERENCES participants(id),
		was_host BOOLEAN NOT NULL DEFAULT FALSE,
		rotation_before INTEGER,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (event_id, participant_id)
	)`,
	`CREATE TABLE IF NOT EXISTS ratings (
		id UUID PRIMARY KEY,
		event_id UUID NOT NULL REFERENCES events(id),
		participant_id UUID NOT NULL REFERENCES participants(id),
		token TEXT NOT NULL UNIQUE,
		value INTEGER CHECK (value IS NULL OR value BETWEEN 1 AND 5),
		comment TEXT,
		requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		submitted_at TIMESTAMPTZ,
		UNIQUE (event_id, participant_id)
	)`,
	`CREATE TABLE IF NOT EXISTS notification_log (
		id UUID PRIMARY KEY,
		event_id UUID REFERENCES events(id),
		job_type TEXT NOT NULL,
		recipient_email TEXT NOT NULL,
		recipient_name TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL CHECK (status IN ('pending','sent','failed','skipped_duplicate')),
		provider_message_id TEXT,
		error_message TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS notification_log_active_key
		ON notification_log (COALESCE(event_id, '00000000-0000-0000-0000-000000000000'::uuid), job_type, recipient_email)
		WHERE status IN ('pending','sent')`,
	`CREATE INDEX IF NOT EXISTS notification_log_event_idx ON notification_log (event_id, job_type)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_by UUID,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the schema when missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migrate tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range statements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit migrate tx: %w", err)
	}
	return nil
}

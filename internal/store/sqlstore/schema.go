package sqlstore

import (
	"context"
	"fmt"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name          TEXT,
		role          TEXT NOT NULL DEFAULT 'USER' CHECK (role IN ('USER', 'ADMIN')),
		is_active     BOOLEAN NOT NULL DEFAULT 1,
		created_at    TIMESTAMP NOT NULL,
		updated_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS permit_applications (
		id                 TEXT PRIMARY KEY,
		applicant_name     TEXT NOT NULL,
		applicant_email    TEXT NOT NULL,
		permit_type        TEXT NOT NULL,
		application_status TEXT NOT NULL DEFAULT 'Pending'
			CHECK (application_status IN ('Pending', 'Approved', 'Rejected')),
		submitted_at       TIMESTAMP NOT NULL,
		user_id            TEXT REFERENCES users (id) ON DELETE SET NULL
	)`,
	`CREATE INDEX IF NOT EXISTS permit_applications_submitted_idx
		ON permit_applications (submitted_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS permit_applications_owner_idx
		ON permit_applications (user_id, submitted_at DESC)`,
}

func (s *Store) initSQLite(ctx context.Context) error {
	for _, q := range sqliteSchema {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return nil
}

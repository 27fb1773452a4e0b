package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements create the user record relation. Each statement is
// idempotent and portable between PostgreSQL and SQLite.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS user_records (
		email TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		registration_step TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_records_registration_step
		ON user_records (registration_step, created_at)`,
}

// EnsureSchema creates the user_records table and its index if missing
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

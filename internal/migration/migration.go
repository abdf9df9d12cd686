package migration

import (
	"context"

	"github.com/jmoiron/sqlx"

	"neuromatch/internal/errors"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{version: "1.0.0"}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createCandidateSamplesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create candidate_samples table")
	}
	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}
	return nil
}

func (r *MigrationRunner) createCandidateSamplesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS candidate_samples (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL DEFAULT '',
			external_id TEXT NOT NULL DEFAULT '',
			diagnosis TEXT NOT NULL DEFAULT '',
			age INTEGER,
			pmi_hours DOUBLE PRECISION,
			rin_score DOUBLE PRECISION,
			sex TEXT NOT NULL DEFAULT 'unknown',
			brain_region TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_candidate_samples_diagnosis ON candidate_samples (LOWER(diagnosis))`,
		`CREATE INDEX IF NOT EXISTS idx_candidate_samples_sex ON candidate_samples (sex)`,
		`CREATE INDEX IF NOT EXISTS idx_candidate_samples_age ON candidate_samples (age)`,
	}
	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// SchemaVersion is the schema version this build expects after migrating.
const SchemaVersion = 2

type migration struct {
	Version     int
	Description string
	Up          func(*sql.Tx) error
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

var migrations = []migration{
	{
		Version:     1,
		Description: "drivers, jobs and job matches",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS drivers (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					postcode TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE TABLE IF NOT EXISTS jobs (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					day_number INTEGER NOT NULL,
					job_number INTEGER NOT NULL,
					raw_text TEXT NOT NULL,
					collection_address TEXT NOT NULL DEFAULT '',
					delivery_address TEXT NOT NULL DEFAULT '',
					price REAL NOT NULL DEFAULT 0,
					postcode_collection TEXT NOT NULL DEFAULT '',
					postcode_delivery TEXT NOT NULL DEFAULT '',
					vehicle_details TEXT NOT NULL DEFAULT '',
					contact_info TEXT NOT NULL DEFAULT '',
					notes TEXT NOT NULL DEFAULT '',
					parsed_data TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX IF NOT EXISTS idx_jobs_day ON jobs(day_number, job_number)`,
				`CREATE TABLE IF NOT EXISTS job_matches (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					job_id INTEGER NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
					driver_id INTEGER NOT NULL REFERENCES drivers(id) ON DELETE CASCADE,
					match_score REAL NOT NULL,
					distance_miles REAL NOT NULL,
					reasoning TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX IF NOT EXISTS idx_job_matches_job ON job_matches(job_id)`,
			)
		},
	},
	{
		Version:     2,
		Description: "extraction confidence columns on jobs",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`ALTER TABLE jobs ADD COLUMN overall_confidence REAL NOT NULL DEFAULT 0`,
				`ALTER TABLE jobs ADD COLUMN accuracy_rating TEXT NOT NULL DEFAULT ''`,
			)
		},
	},
}

func (s *Store) migrate(ctx context.Context) error {
	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("update schema version: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}

		s.logger.Info("applied migration",
			zap.Int("version", m.Version),
			zap.String("description", m.Description),
		)
	}

	var final int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&final); err != nil {
		return fmt.Errorf("verify schema version: %w", err)
	}
	if final != SchemaVersion {
		return fmt.Errorf("schema version mismatch: expected %d, got %d", SchemaVersion, final)
	}

	return nil
}

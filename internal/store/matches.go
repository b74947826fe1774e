package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spigell/soto-lp/internal/domain"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertMatch(ctx context.Context, db execer, c domain.MatchCandidate) (int64, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO job_matches (job_id, driver_id, match_score, distance_miles, reasoning)
		VALUES (?, ?, ?, ?, ?)`,
		c.JobID, c.DriverID, c.MatchScore, c.DistanceMiles, c.Reasoning,
	)
	if err != nil {
		return 0, fmt.Errorf("insert match: %w", err)
	}
	return res.LastInsertId()
}

// AddMatch stores a single candidate and returns its id.
func (s *Store) AddMatch(ctx context.Context, c domain.MatchCandidate) (int64, error) {
	return insertMatch(ctx, s.db, c)
}

// ListMatches returns the matches of jobID, or of every job when jobID is 0, ordered by day,
// job number and descending score.
func (s *Store) ListMatches(ctx context.Context, jobID int64) ([]domain.Match, error) {
	query := `
		SELECT m.id, m.job_id, m.driver_id, m.match_score, m.distance_miles, m.reasoning,
			d.name, d.postcode, j.day_number, j.job_number
		FROM job_matches m
		JOIN drivers d ON d.id = m.driver_id
		JOIN jobs j ON j.id = m.job_id`
	var args []any
	if jobID != 0 {
		query += ` WHERE m.job_id = ?`
		args = append(args, jobID)
	}
	query += ` ORDER BY j.day_number, j.job_number, m.match_score DESC, m.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	matches := []domain.Match{}
	for rows.Next() {
		var m domain.Match
		if err := rows.Scan(&m.ID, &m.JobID, &m.DriverID, &m.MatchScore, &m.DistanceMiles, &m.Reasoning,
			&m.DriverName, &m.DriverPostcode, &m.DayNumber, &m.JobNumber); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

// ClearMatches deletes the matches of jobID, or every match when jobID is 0, and returns the
// number removed.
func (s *Store) ClearMatches(ctx context.Context, jobID int64) (int64, error) {
	query := `DELETE FROM job_matches`
	var args []any
	if jobID != 0 {
		query += ` WHERE job_id = ?`
		args = append(args, jobID)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear matches: %w", err)
	}
	return res.RowsAffected()
}

// ReplaceMatches clears the matches of jobIDs and stores candidates in one transaction.
func (s *Store) ReplaceMatches(ctx context.Context, jobIDs []int64, candidates []domain.MatchCandidate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace matches: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range jobIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM job_matches WHERE job_id = ?`, id); err != nil {
			return fmt.Errorf("clear matches of job %d: %w", id, err)
		}
	}

	for _, c := range candidates {
		if _, err := insertMatch(ctx, tx, c); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace matches: %w", err)
	}
	return nil
}

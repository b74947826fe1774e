package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spigell/soto-lp/internal/domain"
)

// AddJob inserts a job. The structured fields are stored both flattened and as JSON.
func (s *Store) AddJob(ctx context.Context, day, number int, raw string, job domain.StructuredJob) (domain.Job, error) {
	parsed, err := json.Marshal(job)
	if err != nil {
		return domain.Job{}, fmt.Errorf("encode parsed job: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (
			day_number, job_number, raw_text,
			collection_address, delivery_address, price,
			postcode_collection, postcode_delivery,
			vehicle_details, contact_info, notes,
			parsed_data, overall_confidence, accuracy_rating
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		day, number, raw,
		job.CollectionAddress, job.DeliveryAddress, job.Price,
		job.PostcodeCollection, job.PostcodeDelivery,
		job.VehicleDetails, job.ContactInfo, job.Notes,
		string(parsed), job.OverallConfidence, string(job.AccuracyRating),
	)
	if err != nil {
		return domain.Job{}, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Job{}, fmt.Errorf("get job id: %w", err)
	}

	return domain.Job{ID: id, DayNumber: day, JobNumber: number, RawText: raw, StructuredJob: job}, nil
}

// ListJobs returns the jobs of day ordered by job number, or every job ordered by day and
// number when day is 0.
func (s *Store) ListJobs(ctx context.Context, day int) ([]domain.Job, error) {
	query := `SELECT id, day_number, job_number, raw_text, parsed_data FROM jobs`
	var args []any
	if day != 0 {
		query += ` WHERE day_number = ?`
		args = append(args, day)
	}
	query += ` ORDER BY day_number, job_number, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	jobs := []domain.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

func (s *Store) GetJob(ctx context.Context, id int64) (domain.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, day_number, job_number, raw_text, parsed_data FROM jobs WHERE id = ?`, id)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Job{}, fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	return job, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (domain.Job, error) {
	var (
		job    domain.Job
		parsed string
	)
	if err := row.Scan(&job.ID, &job.DayNumber, &job.JobNumber, &job.RawText, &parsed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Job{}, err
		}
		return domain.Job{}, fmt.Errorf("scan job: %w", err)
	}

	if err := json.Unmarshal([]byte(parsed), &job.StructuredJob); err != nil {
		return domain.Job{}, fmt.Errorf("decode parsed job %d: %w", job.ID, err)
	}

	return job, nil
}

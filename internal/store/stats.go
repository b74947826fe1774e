package store

import (
	"context"
	"fmt"

	"github.com/spigell/soto-lp/internal/domain"
)

func (s *Store) Statistics(ctx context.Context) (domain.Statistics, error) {
	stats := domain.Statistics{JobsByDay: []domain.DayCount{}}

	counts := []struct {
		table  string
		target *int
	}{
		{table: "drivers", target: &stats.DriverCount},
		{table: "jobs", target: &stats.JobCount},
		{table: "job_matches", target: &stats.MatchCount},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.target); err != nil {
			return domain.Statistics{}, fmt.Errorf("count %s: %w", c.table, err)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT day_number, COUNT(*) FROM jobs GROUP BY day_number ORDER BY day_number`)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("count jobs by day: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dc domain.DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return domain.Statistics{}, fmt.Errorf("scan day count: %w", err)
		}
		stats.JobsByDay = append(stats.JobsByDay, dc)
	}

	return stats, rows.Err()
}

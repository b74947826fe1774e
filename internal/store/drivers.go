package store

import (
	"context"
	"fmt"

	"github.com/spigell/soto-lp/internal/domain"
)

// AddDriver inserts a driver and returns it with its assigned id.
func (s *Store) AddDriver(ctx context.Context, name, postcode string) (domain.Driver, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO drivers (name, postcode) VALUES (?, ?)`, name, postcode)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("insert driver: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Driver{}, fmt.Errorf("get driver id: %w", err)
	}

	return domain.Driver{ID: id, Name: name, Postcode: postcode}, nil
}

// ListDrivers returns every driver ordered by name.
func (s *Store) ListDrivers(ctx context.Context) ([]domain.Driver, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, postcode FROM drivers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query drivers: %w", err)
	}
	defer rows.Close()

	drivers := []domain.Driver{}
	for rows.Next() {
		var d domain.Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.Postcode); err != nil {
			return nil, fmt.Errorf("scan driver: %w", err)
		}
		drivers = append(drivers, d)
	}

	return drivers, rows.Err()
}

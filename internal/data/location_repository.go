package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// LocationRepository handles database operations for locations.
type LocationRepository struct {
	DB *sqlx.DB
}

// NewLocationRepository creates a new LocationRepository.
func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{DB: db}
}

// Create inserts a location and returns its ID.
func (r *LocationRepository) Create(ctx context.Context, location *Location) (int64, error) {
	if location.CreatedAt.IsZero() {
		location.CreatedAt = time.Now().UTC()
	}
	res, err := r.DB.NamedExecContext(ctx,
		`INSERT INTO locations (name, is_published, created_at) VALUES (:name, :is_published, :created_at)`, location)
	if err != nil {
		return 0, fmt.Errorf("failed to create location: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	location.ID = id
	return id, nil
}

// GetByID finds a location by its ID.
func (r *LocationRepository) GetByID(ctx context.Context, id int64) (*Location, error) {
	var location Location
	err := r.DB.GetContext(ctx, &location, `SELECT id, name, is_published, created_at FROM locations WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("failed to get location by id: %w", err)
	}
	return &location, nil
}

// GetAll retrieves locations ordered by name.
func (r *LocationRepository) GetAll(ctx context.Context, onlyPublished bool) ([]*Location, error) {
	var locations []*Location
	query := `SELECT id, name, is_published, created_at FROM locations`
	if onlyPublished {
		query += ` WHERE is_published = 1`
	}
	query += ` ORDER BY name, id`
	if err := r.DB.SelectContext(ctx, &locations, query); err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

// SetPublished toggles the publication flag of a location.
func (r *LocationRepository) SetPublished(ctx context.Context, id int64, published bool) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE locations SET is_published = ? WHERE id = ?`, published, id)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	return expectRow(res)
}

// Delete removes a location. Referencing posts get a NULL location through the foreign key.
func (r *LocationRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	return expectRow(res)
}

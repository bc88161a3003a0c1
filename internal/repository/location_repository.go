package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/tour-booking-api/internal/model"
)

// ErrLocationNotFound indicates that a location was not located in the DB.
var ErrLocationNotFound = errors.New("location not found")

// LocationRepo manages persistence for destination locations.
type LocationRepo struct {
	db *sql.DB
}

// NewLocationRepo constructs a LocationRepo with the given DB handle.
func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

// Create inserts a location and assigns the generated ID back to the
// struct.
func (r *LocationRepo) Create(ctx context.Context, l *model.Location) error {
	const q = `INSERT INTO locations (name, region, country) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, l.Name, l.Region, l.Country)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	const sel = `SELECT id, name, region, country, created_at, updated_at FROM locations WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, l.ID).Scan(&l.ID, &l.Name, &l.Region, &l.Country, &l.CreatedAt, &l.UpdatedAt)
}

// GetByID retrieves a location by its ID.
func (r *LocationRepo) GetByID(ctx context.Context, id uint64) (*model.Location, error) {
	const q = `SELECT id, name, region, country, created_at, updated_at FROM locations WHERE id = ?`
	var l model.Location
	err := r.db.QueryRowContext(ctx, q, id).Scan(&l.ID, &l.Name, &l.Region, &l.Country, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	return &l, nil
}

// List returns all locations ordered by country then name.
func (r *LocationRepo) List(ctx context.Context) ([]model.Location, error) {
	const q = `SELECT id, name, region, country, created_at, updated_at FROM locations ORDER BY country ASC, name ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []model.Location{}
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Region, &l.Country, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update changes a location's attributes.
func (r *LocationRepo) Update(ctx context.Context, l *model.Location) error {
	const q = `UPDATE locations SET name = ?, region = ?, country = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, l.Name, l.Region, l.Country, l.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM locations WHERE id = ? LIMIT 1`, l.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrLocationNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a location.  Locations still referenced by tours are
// protected by a foreign key and reported as ErrConflict.
func (r *LocationRepo) Delete(ctx context.Context, id uint64) error {
	const q = `DELETE FROM locations WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		if isFKConstraintErr(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLocationNotFound
	}
	return nil
}

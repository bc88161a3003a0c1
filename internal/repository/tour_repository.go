// Package repository contains data access logic for the tour
// catalogue. Tours link a category and a location and own their
// departure schedules and gallery images.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/tour-booking-api/internal/model"
)

// ErrTourNotFound indicates that a tour was not located in the DB.
var ErrTourNotFound = errors.New("tour not found")

// TourFilter narrows tour listings.  Zero values mean "no filter".
type TourFilter struct {
	CategoryID uint64 // only tours in this category
	LocationID uint64 // only tours at this location
	ActiveOnly bool   // only publicly bookable tours
}

// TourRepo manages persistence for tours.
type TourRepo struct {
	db *sql.DB
}

// NewTourRepo constructs a TourRepo with the given DB handle.
func NewTourRepo(db *sql.DB) *TourRepo {
	return &TourRepo{db: db}
}

// Create inserts a tour and assigns the generated ID back to the
// struct.  The referenced category and location must exist; a missing
// reference is a foreign-key failure surfaced as ErrConflict.
func (r *TourRepo) Create(ctx context.Context, t *model.Tour) error {
	const q = `INSERT INTO tours (category_id, location_id, name, description, duration_days, is_active)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.CategoryID, t.LocationID, t.Name, t.Description, t.DurationDays, t.IsActive)
	if err != nil {
		if isFKMissingErr(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	const sel = `SELECT id, category_id, location_id, name, description, duration_days, is_active, created_at, updated_at
	             FROM tours WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, t.ID).Scan(
		&t.ID, &t.CategoryID, &t.LocationID, &t.Name, &t.Description,
		&t.DurationDays, &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
	)
}

// GetByID retrieves a tour by its ID.  It returns ErrTourNotFound if
// there is no matching row.
func (r *TourRepo) GetByID(ctx context.Context, id uint64) (*model.Tour, error) {
	const q = `SELECT id, category_id, location_id, name, description, duration_days, is_active, created_at, updated_at
	           FROM tours WHERE id = ?`
	var t model.Tour
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.CategoryID, &t.LocationID, &t.Name, &t.Description,
		&t.DurationDays, &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTourNotFound
		}
		return nil, err
	}
	return &t, nil
}

// List returns tours matching the filter ordered by name.  When
// nothing matches it returns an empty slice and nil error.
func (r *TourRepo) List(ctx context.Context, f TourFilter) ([]model.Tour, error) {
	q := `SELECT id, category_id, location_id, name, description, duration_days, is_active, created_at, updated_at
	      FROM tours WHERE 1=1`
	args := []any{}
	if f.CategoryID != 0 {
		q += " AND category_id = ?"
		args = append(args, f.CategoryID)
	}
	if f.LocationID != 0 {
		q += " AND location_id = ?"
		args = append(args, f.LocationID)
	}
	if f.ActiveOnly {
		q += " AND is_active = 1"
	}
	q += " ORDER BY name ASC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []model.Tour{}
	for rows.Next() {
		var t model.Tour
		if err := rows.Scan(
			&t.ID, &t.CategoryID, &t.LocationID, &t.Name, &t.Description,
			&t.DurationDays, &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update modifies a tour's attributes.
func (r *TourRepo) Update(ctx context.Context, t *model.Tour) error {
	const q = `UPDATE tours
	           SET category_id = ?, location_id = ?, name = ?, description = ?, duration_days = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, t.CategoryID, t.LocationID, t.Name, t.Description, t.DurationDays, t.IsActive, t.ID)
	if err != nil {
		if isFKMissingErr(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM tours WHERE id = ? LIMIT 1`, t.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTourNotFound
			}
			return err
		}
	}
	return nil
}

// SetActive toggles whether a tour is publicly bookable.  Deactivating
// is the preferred alternative to deletion once bookings exist.
func (r *TourRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	const q = `UPDATE tours SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, active, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM tours WHERE id = ? LIMIT 1`, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTourNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a tour together with its images.  Tours that still
// have schedules are protected by a foreign key and reported as
// ErrConflict; deactivate those instead.
func (r *TourRepo) Delete(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()
	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM tours WHERE id = ? LIMIT 1`, id).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTourNotFound
		}
		return err
	}
	var schedules int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedules WHERE tour_id = ?`, id).Scan(&schedules); err != nil {
		return err
	}
	if schedules > 0 {
		err = ErrConflict
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM tour_images WHERE tour_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM tours WHERE id = ?`, id); err != nil {
		// Reviews also reference tours; their FK turns this into 1451.
		if isFKConstraintErr(err) {
			err = ErrConflict
		}
		return err
	}
	return nil
}

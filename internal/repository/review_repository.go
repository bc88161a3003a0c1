// Package repository contains data access logic for tour reviews.
package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/tour-booking-api/internal/model"
)

// ReviewRow is a review joined with the reviewer's display name for
// public tour pages.
type ReviewRow struct {
	model.Review
	CustomerName string // customers.full_name
}

// ReviewRepo manages persistence for reviews.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo constructs a ReviewRepo with the given DB handle.
func NewReviewRepo(db *sql.DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

// CreateTx inserts a review using the provided transaction.  The tour
// and customer identifiers must already have been resolved from the
// reviewed booking; this method trusts its arguments and only
// persists.  On success the generated ID and created_at are populated
// on the given Review.
func (r *ReviewRepo) CreateTx(ctx context.Context, tx *sql.Tx, rv *model.Review) error {
	const q = `INSERT INTO reviews (tour_id, customer_id, rating, comment) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, rv.TourID, rv.CustomerID, rv.Rating, rv.Comment)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	const sel = `SELECT id, tour_id, customer_id, rating, comment, created_at FROM reviews WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, rv.ID).Scan(&rv.ID, &rv.TourID, &rv.CustomerID, &rv.Rating, &rv.Comment, &rv.CreatedAt)
}

// ListByTour returns all reviews of a tour with reviewer names, newest
// first.  When the tour has no reviews it returns an empty slice and
// nil error.
func (r *ReviewRepo) ListByTour(ctx context.Context, tourID uint64) ([]ReviewRow, error) {
	const q = `SELECT rv.id, rv.tour_id, rv.customer_id, rv.rating, rv.comment, rv.created_at, c.full_name
	           FROM reviews rv
	           JOIN customers c ON c.id = rv.customer_id
	           WHERE rv.tour_id = ?
	           ORDER BY rv.created_at DESC, rv.id DESC`
	rows, err := r.db.QueryContext(ctx, q, tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []ReviewRow{}
	for rows.Next() {
		var row ReviewRow
		if err := rows.Scan(&row.ID, &row.TourID, &row.CustomerID, &row.Rating, &row.Comment, &row.CreatedAt, &row.CustomerName); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

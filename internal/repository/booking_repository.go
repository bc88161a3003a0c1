// Package repository contains data access logic for booking operations.
// Bookings move through a small state machine: they are created active,
// and an active booking can be cancelled or marked reviewed, both of
// which are terminal. The guarded updates in this file enforce those
// transitions at the SQL level so concurrent requests cannot double
// cancel or double review.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/tour-booking-api/internal/model"
)

// ErrBookingNotFound indicates that a booking was not located in the DB.
var ErrBookingNotFound = errors.New("booking not found")

// BookingDetail is a booking joined with its schedule and tour for
// customer-facing listings.
type BookingDetail struct {
	model.Booking
	TourID    uint64 // tour the booked schedule belongs to
	TourName  string // tour title for display
	DepartsOn string // departure date "YYYY-MM-DD"
}

// AdminBookingRow is a booking joined with customer identity for the
// admin overview.
type AdminBookingRow struct {
	model.Booking
	CustomerName  string // customers.full_name
	CustomerEmail string // users.email
	TourName      string // tour title
	DepartsOn     string // departure date "YYYY-MM-DD"
}

// BookingRepo manages persistence for bookings.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo with the given DB handle.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// DB exposes the underlying sql.DB for callers that need to begin a
// transaction spanning the booking and schedule repositories.
func (r *BookingRepo) DB() *sql.DB {
	return r.db
}

// CreateTx inserts a new booking using the provided transaction.  The
// caller must commit or roll back; on success the generated ID and
// DB-default fields (status, booked_at, updated_at) are populated on
// the given Booking.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (customer_id, schedule_id, adult_count, child_count, total_price_cents)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.CustomerID, b.ScheduleID, b.AdultCount, b.ChildCount, b.TotalPriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	const sel = `SELECT id, customer_id, schedule_id, adult_count, child_count, total_price_cents, status, booked_at, updated_at
	             FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(
		&b.ID, &b.CustomerID, &b.ScheduleID, &b.AdultCount, &b.ChildCount,
		&b.TotalPriceCents, &b.Status, &b.BookedAt, &b.UpdatedAt,
	)
}

// GetInfoTx loads a booking inside the caller's transaction without an
// ownership constraint.  Admin paths use this.
func (r *BookingRepo) GetInfoTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (*model.Booking, error) {
	const q = `SELECT id, customer_id, schedule_id, adult_count, child_count, total_price_cents, status, booked_at, updated_at
	           FROM bookings WHERE id = ?`
	var b model.Booking
	err := tx.QueryRowContext(ctx, q, bookingID).Scan(
		&b.ID, &b.CustomerID, &b.ScheduleID, &b.AdultCount, &b.ChildCount,
		&b.TotalPriceCents, &b.Status, &b.BookedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// GetInfoForCustomerTx loads a booking inside the caller's transaction
// and verifies ownership.  It returns ErrBookingNotFound when the row
// does not exist and ErrForbidden when it belongs to another customer.
func (r *BookingRepo) GetInfoForCustomerTx(ctx context.Context, tx *sql.Tx, bookingID, customerID uint64) (*model.Booking, error) {
	const q = `SELECT id, customer_id, schedule_id, adult_count, child_count, total_price_cents, status, booked_at, updated_at
	           FROM bookings WHERE id = ?`
	var b model.Booking
	err := tx.QueryRowContext(ctx, q, bookingID).Scan(
		&b.ID, &b.CustomerID, &b.ScheduleID, &b.AdultCount, &b.ChildCount,
		&b.TotalPriceCents, &b.Status, &b.BookedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if b.CustomerID != customerID {
		return nil, ErrForbidden
	}
	return &b, nil
}

// CancelTx moves an active booking to cancelled inside the caller's
// transaction.  The status guard in the WHERE clause makes the
// transition race-safe: when the row was already cancelled or reviewed
// the update matches nothing and ErrConflict is returned, and when the
// booking does not exist at all ErrBookingNotFound is returned.
func (r *BookingRepo) CancelTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	return r.transitionTx(ctx, tx, bookingID, model.BookingCancelled)
}

// MarkReviewedTx moves an active booking to reviewed inside the
// caller's transaction.  Error semantics match CancelTx.
func (r *BookingRepo) MarkReviewedTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	return r.transitionTx(ctx, tx, bookingID, model.BookingReviewed)
}

func (r *BookingRepo) transitionTx(ctx context.Context, tx *sql.Tx, bookingID uint64, to uint8) error {
	const q = `UPDATE bookings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, to, bookingID, model.BookingActive)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM bookings WHERE id = ? LIMIT 1`, bookingID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		return err
	}
	return ErrConflict
}

// ResolveReviewTargetTx resolves the customer and tour a review of the
// given booking must be anchored to, inside the caller's transaction.
// Both identifiers come from the booking row, never from the request,
// so reviews cannot be written for someone else or pinned to an
// unrelated tour.
func (r *BookingRepo) ResolveReviewTargetTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (customerID, tourID uint64, status uint8, err error) {
	const q = `SELECT b.customer_id, s.tour_id, b.status
	           FROM bookings b
	           JOIN schedules s ON s.id = b.schedule_id
	           WHERE b.id = ?`
	err = tx.QueryRowContext(ctx, q, bookingID).Scan(&customerID, &tourID, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrBookingNotFound
		}
		return 0, 0, 0, err
	}
	return customerID, tourID, status, nil
}

// ListByCustomer returns all bookings of a customer joined with tour
// and departure info, newest first.  When the customer has no
// bookings it returns an empty slice and nil error.
func (r *BookingRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]BookingDetail, error) {
	const q = `SELECT b.id, b.customer_id, b.schedule_id, b.adult_count, b.child_count, b.total_price_cents, b.status, b.booked_at, b.updated_at,
	                  s.tour_id, t.name, DATE_FORMAT(s.departs_on, '%Y-%m-%d')
	           FROM bookings b
	           JOIN schedules s ON s.id = b.schedule_id
	           JOIN tours t ON t.id = s.tour_id
	           WHERE b.customer_id = ?
	           ORDER BY b.booked_at DESC, b.id DESC`
	rows, err := r.db.QueryContext(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []BookingDetail{}
	for rows.Next() {
		var d BookingDetail
		if err := rows.Scan(
			&d.ID, &d.CustomerID, &d.ScheduleID, &d.AdultCount, &d.ChildCount,
			&d.TotalPriceCents, &d.Status, &d.BookedAt, &d.UpdatedAt,
			&d.TourID, &d.TourName, &d.DepartsOn,
		); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetDetailForCustomer loads one booking with tour and departure info
// and verifies ownership.  It returns ErrBookingNotFound for missing
// rows and ErrForbidden for bookings owned by another customer.
func (r *BookingRepo) GetDetailForCustomer(ctx context.Context, bookingID, customerID uint64) (*BookingDetail, error) {
	const q = `SELECT b.id, b.customer_id, b.schedule_id, b.adult_count, b.child_count, b.total_price_cents, b.status, b.booked_at, b.updated_at,
	                  s.tour_id, t.name, DATE_FORMAT(s.departs_on, '%Y-%m-%d')
	           FROM bookings b
	           JOIN schedules s ON s.id = b.schedule_id
	           JOIN tours t ON t.id = s.tour_id
	           WHERE b.id = ?`
	var d BookingDetail
	err := r.db.QueryRowContext(ctx, q, bookingID).Scan(
		&d.ID, &d.CustomerID, &d.ScheduleID, &d.AdultCount, &d.ChildCount,
		&d.TotalPriceCents, &d.Status, &d.BookedAt, &d.UpdatedAt,
		&d.TourID, &d.TourName, &d.DepartsOn,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if d.CustomerID != customerID {
		return nil, ErrForbidden
	}
	return &d, nil
}

// ListAll returns every booking joined with customer identity for the
// admin overview, newest first.
func (r *BookingRepo) ListAll(ctx context.Context) ([]AdminBookingRow, error) {
	const q = `SELECT b.id, b.customer_id, b.schedule_id, b.adult_count, b.child_count, b.total_price_cents, b.status, b.booked_at, b.updated_at,
	                  c.full_name, u.email, t.name, DATE_FORMAT(s.departs_on, '%Y-%m-%d')
	           FROM bookings b
	           JOIN customers c ON c.id = b.customer_id
	           JOIN users u ON u.id = c.user_id
	           JOIN schedules s ON s.id = b.schedule_id
	           JOIN tours t ON t.id = s.tour_id
	           ORDER BY b.booked_at DESC, b.id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []AdminBookingRow{}
	for rows.Next() {
		var a AdminBookingRow
		if err := rows.Scan(
			&a.ID, &a.CustomerID, &a.ScheduleID, &a.AdultCount, &a.ChildCount,
			&a.TotalPriceCents, &a.Status, &a.BookedAt, &a.UpdatedAt,
			&a.CustomerName, &a.CustomerEmail, &a.TourName, &a.DepartsOn,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

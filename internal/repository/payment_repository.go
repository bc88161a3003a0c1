// Package repository contains data access logic for payment records.
// Payments are a write-once ledger: one row per booking, enforced by a
// unique key on booking_id, with no updates or deletes.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/tour-booking-api/internal/model"
)

// ErrPaymentExists indicates that the booking already has a recorded
// payment.
var ErrPaymentExists = errors.New("payment already recorded")

// PaymentDetail is a payment joined with its booking for admin
// listings.
type PaymentDetail struct {
	model.Payment
	CustomerID uint64 // bookings.customer_id
	ScheduleID uint64 // bookings.schedule_id
}

// PaymentRepo manages persistence for payment records.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo constructs a PaymentRepo with the given DB handle.
func NewPaymentRepo(db *sql.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

// CreateTx inserts a payment record using the provided transaction.
// The unique key on booking_id turns a duplicate insert into
// ErrPaymentExists, which handlers answer with 409.  On success the
// generated ID and DB-default fields are populated on the given
// Payment.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	const q = `INSERT INTO payments (booking_id, amount_cents) VALUES (?, ?)`
	res, err := tx.ExecContext(ctx, q, p.BookingID, p.AmountCents)
	if err != nil {
		if isDuplicateErr(err) {
			return ErrPaymentExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	const sel = `SELECT id, booking_id, amount_cents, status, paid_at FROM payments WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, p.ID).Scan(&p.ID, &p.BookingID, &p.AmountCents, &p.Status, &p.PaidAt)
}

// GetByBooking returns the payment recorded for a booking.  A missing
// payment is not an error: it returns (nil, nil) so callers can render
// an unpaid booking without special-casing sql.ErrNoRows.
func (r *PaymentRepo) GetByBooking(ctx context.Context, bookingID uint64) (*model.Payment, error) {
	const q = `SELECT id, booking_id, amount_cents, status, paid_at FROM payments WHERE booking_id = ?`
	var p model.Payment
	err := r.db.QueryRowContext(ctx, q, bookingID).Scan(&p.ID, &p.BookingID, &p.AmountCents, &p.Status, &p.PaidAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ListAll returns every payment joined with booking info for the admin
// ledger view, newest first.
func (r *PaymentRepo) ListAll(ctx context.Context) ([]PaymentDetail, error) {
	const q = `SELECT p.id, p.booking_id, p.amount_cents, p.status, p.paid_at, b.customer_id, b.schedule_id
	           FROM payments p
	           JOIN bookings b ON b.id = p.booking_id
	           ORDER BY p.paid_at DESC, p.id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []PaymentDetail{}
	for rows.Next() {
		var d PaymentDetail
		if err := rows.Scan(&d.ID, &d.BookingID, &d.AmountCents, &d.Status, &d.PaidAt, &d.CustomerID, &d.ScheduleID); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

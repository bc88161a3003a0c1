// Package repository contains data access logic for schedule operations.
// The schedule repository owns the seat ledger: the available counter on
// a schedule is only ever changed through the conditional updates defined
// here, which is what keeps it from going negative under concurrent
// bookings.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/tour-booking-api/internal/model"
)

// ErrScheduleNotFound indicates that a schedule was not located in the DB.
var ErrScheduleNotFound = errors.New("schedule not found")

// ErrScheduleClosed indicates the schedule exists but is not accepting
// new bookings.
var ErrScheduleClosed = errors.New("schedule closed")

// ErrCapacityExceeded indicates the schedule does not have enough seats
// left to satisfy the requested reservation.
var ErrCapacityExceeded = errors.New("not enough seats available")

// ScheduleSnapshot is a read of a schedule joined with its tour, taken
// inside a booking transaction. It carries everything needed to price
// and present a booking without a second round trip.
type ScheduleSnapshot struct {
	ID              uint64 // schedule identifier
	TourID          uint64 // owning tour identifier
	TourName        string // tour title for display
	DurationDays    uint32 // tour length in days
	DepartsOn       string // departure date "YYYY-MM-DD"
	AdultPriceCents uint32 // price per adult seat
	ChildPriceCents uint32 // price per child seat
	DiscountPercent uint8  // whole-number discount on the total
	Available       uint32 // seats still bookable at read time
	Status          uint8  // schedule status at read time
}

// ScheduleRepo manages persistence for schedules.
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo constructs a ScheduleRepo with the given DB handle.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories, which the booking
// handlers need when pairing a ledger update with a booking row.
func (r *ScheduleRepo) DB() *sql.DB {
	return r.db
}

// Create inserts a new schedule and assigns the generated ID back to the
// struct.  Status defaults to open and available to the provided seat
// count; created_at and updated_at come from DB defaults and are read
// back after the insert.
func (r *ScheduleRepo) Create(ctx context.Context, s *model.Schedule) error {
	const q = `INSERT INTO schedules (tour_id, departs_on, adult_price_cents, child_price_cents, discount_percent, available, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.TourID, s.DepartsOn.UTC().Format("2006-01-02"), s.AdultPriceCents, s.ChildPriceCents, s.DiscountPercent, s.Available, s.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT id, tour_id, departs_on, adult_price_cents, child_price_cents, discount_percent, available, status, created_at, updated_at
	             FROM schedules WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, s.ID).Scan(
		&s.ID, &s.TourID, &s.DepartsOn, &s.AdultPriceCents, &s.ChildPriceCents,
		&s.DiscountPercent, &s.Available, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
}

// GetByID retrieves a schedule by its ID.  It returns
// ErrScheduleNotFound if there is no matching row.
func (r *ScheduleRepo) GetByID(ctx context.Context, id uint64) (*model.Schedule, error) {
	const q = `SELECT id, tour_id, departs_on, adult_price_cents, child_price_cents, discount_percent, available, status, created_at, updated_at
	           FROM schedules WHERE id = ?`
	var s model.Schedule
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.TourID, &s.DepartsOn, &s.AdultPriceCents, &s.ChildPriceCents,
		&s.DiscountPercent, &s.Available, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByTour returns all schedules for a tour ordered by departure date
// ascending.  It is used by admin endpoints and does not filter on
// status or date.  When no schedules exist it returns an empty slice
// and nil error.
func (r *ScheduleRepo) ListByTour(ctx context.Context, tourID uint64) ([]model.Schedule, error) {
	const q = `SELECT id, tour_id, departs_on, adult_price_cents, child_price_cents, discount_percent, available, status, created_at, updated_at
	           FROM schedules
	           WHERE tour_id = ?
	           ORDER BY departs_on ASC`
	return r.list(ctx, q, tourID)
}

// ListOpenByTour returns schedules for a tour that are open and depart
// today or later.  Public browse endpoints use this so customers never
// see departures they cannot book.
func (r *ScheduleRepo) ListOpenByTour(ctx context.Context, tourID uint64) ([]model.Schedule, error) {
	const q = `SELECT id, tour_id, departs_on, adult_price_cents, child_price_cents, discount_percent, available, status, created_at, updated_at
	           FROM schedules
	           WHERE tour_id = ? AND status = 1 AND departs_on >= CURDATE()
	           ORDER BY departs_on ASC`
	return r.list(ctx, q, tourID)
}

func (r *ScheduleRepo) list(ctx context.Context, q string, args ...any) ([]model.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []model.Schedule{}
	for rows.Next() {
		var s model.Schedule
		if err := rows.Scan(
			&s.ID, &s.TourID, &s.DepartsOn, &s.AdultPriceCents, &s.ChildPriceCents,
			&s.DiscountPercent, &s.Available, &s.Status, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update modifies a schedule's date, pricing, capacity and status.  The
// available counter may be adjusted here by an administrator; the
// booking paths never call Update and only move available through the
// conditional ReserveSeatsTx/ReleaseSeatsTx below.  It returns
// ErrScheduleNotFound when no row matches.
func (r *ScheduleRepo) Update(ctx context.Context, s *model.Schedule) error {
	const q = `UPDATE schedules
	           SET departs_on = ?, adult_price_cents = ?, child_price_cents = ?, discount_percent = ?, available = ?, status = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		s.DepartsOn.UTC().Format("2006-01-02"), s.AdultPriceCents, s.ChildPriceCents,
		s.DiscountPercent, s.Available, s.Status, s.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// The UPDATE also matches zero rows when every value is
		// unchanged, so confirm existence before reporting not found.
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM schedules WHERE id = ? LIMIT 1`, s.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrScheduleNotFound
			}
			return err
		}
	}
	return nil
}

// UpdateStatus opens or closes a schedule for new bookings.  Closing a
// schedule does not touch existing bookings or the available counter.
func (r *ScheduleRepo) UpdateStatus(ctx context.Context, id uint64, status uint8) error {
	const q = `UPDATE schedules SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM schedules WHERE id = ? LIMIT 1`, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrScheduleNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a schedule.  Schedules referenced by bookings are
// protected by a foreign key; MySQL reports that as error 1451, which
// is surfaced as ErrConflict so handlers answer 409 instead of 500.
func (r *ScheduleRepo) Delete(ctx context.Context, id uint64) error {
	const q = `DELETE FROM schedules WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		if isFKConstraintErr(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

// ReserveSeatsTx atomically takes seats from a schedule inside the
// caller's transaction.  The decrement only happens when the schedule
// is open and has at least the requested number of seats, so two
// concurrent bookings can never drive available below zero; the loser
// of the race simply matches zero rows.  When no row was updated the
// schedule is read back to tell the caller why: ErrScheduleNotFound,
// ErrScheduleClosed or ErrCapacityExceeded.
func (r *ScheduleRepo) ReserveSeatsTx(ctx context.Context, tx *sql.Tx, scheduleID uint64, seats uint32) error {
	const q = `UPDATE schedules
	           SET available = available - ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND status = 1 AND available >= ?`
	res, err := tx.ExecContext(ctx, q, seats, scheduleID, seats)
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
	// Disambiguate the failed guard.
	const sel = `SELECT status, available FROM schedules WHERE id = ?`
	var status uint8
	var available uint32
	if err := tx.QueryRowContext(ctx, sel, scheduleID).Scan(&status, &available); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrScheduleNotFound
		}
		return err
	}
	if status != model.ScheduleOpen {
		return ErrScheduleClosed
	}
	return ErrCapacityExceeded
}

// ReleaseSeatsTx returns seats to a schedule inside the caller's
// transaction, reopening the schedule so the freed capacity is
// bookable again.  It is the inverse of ReserveSeatsTx and is called
// when a booking is cancelled.
func (r *ScheduleRepo) ReleaseSeatsTx(ctx context.Context, tx *sql.Tx, scheduleID uint64, seats uint32) error {
	const q = `UPDATE schedules
	           SET available = available + ?, status = 1, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, seats, scheduleID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

// BookingSnapshotTx reads a schedule joined with its tour inside the
// caller's transaction.  Booking creation uses this to price the
// request from current DB values rather than anything supplied by the
// client.  It returns ErrScheduleNotFound when the schedule does not
// exist.
func (r *ScheduleRepo) BookingSnapshotTx(ctx context.Context, tx *sql.Tx, scheduleID uint64) (*ScheduleSnapshot, error) {
	const q = `SELECT s.id, s.tour_id, t.name, t.duration_days,
	                  DATE_FORMAT(s.departs_on, '%Y-%m-%d') AS departs_on,
	                  s.adult_price_cents, s.child_price_cents, s.discount_percent, s.available, s.status
	           FROM schedules s
	           JOIN tours t ON t.id = s.tour_id
	           WHERE s.id = ?`
	var snap ScheduleSnapshot
	err := tx.QueryRowContext(ctx, q, scheduleID).Scan(
		&snap.ID, &snap.TourID, &snap.TourName, &snap.DurationDays, &snap.DepartsOn,
		&snap.AdultPriceCents, &snap.ChildPriceCents, &snap.DiscountPercent, &snap.Available, &snap.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return &snap, nil
}

// BookingSnapshot is the non-transactional form of BookingSnapshotTx,
// used by read-only endpoints that show a customer what a booking
// would cost before they commit to it.
func (r *ScheduleRepo) BookingSnapshot(ctx context.Context, scheduleID uint64) (*ScheduleSnapshot, error) {
	const q = `SELECT s.id, s.tour_id, t.name, t.duration_days,
	                  DATE_FORMAT(s.departs_on, '%Y-%m-%d') AS departs_on,
	                  s.adult_price_cents, s.child_price_cents, s.discount_percent, s.available, s.status
	           FROM schedules s
	           JOIN tours t ON t.id = s.tour_id
	           WHERE s.id = ?`
	var snap ScheduleSnapshot
	err := r.db.QueryRowContext(ctx, q, scheduleID).Scan(
		&snap.ID, &snap.TourID, &snap.TourName, &snap.DurationDays, &snap.DepartsOn,
		&snap.AdultPriceCents, &snap.ChildPriceCents, &snap.DiscountPercent, &snap.Available, &snap.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return &snap, nil
}

package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tour-booking-api/internal/model"
)

func TestCancelTxSuccess(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings").
		WithArgs(model.BookingCancelled, 7, model.BookingActive).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.CancelTx(context.Background(), tx, 7)
	assert.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelTxAlreadyTransitioned(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	// The row exists but its status is no longer active, so the guarded
	// update matches nothing.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings").
		WithArgs(model.BookingCancelled, 7, model.BookingActive).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM bookings").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.CancelTx(context.Background(), tx, 7)
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelTxMissingBooking(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings").
		WithArgs(model.BookingCancelled, 404, model.BookingActive).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM bookings").
		WithArgs(404).
		WillReturnError(sql.ErrNoRows)

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.CancelTx(context.Background(), tx, 404)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReviewedTxSuccess(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings").
		WithArgs(model.BookingReviewed, 7, model.BookingActive).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.MarkReviewedTx(context.Background(), tx, 7)
	assert.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReviewedTxRepeatConflicts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings").
		WithArgs(model.BookingReviewed, 7, model.BookingActive).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM bookings").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.MarkReviewedTx(context.Background(), tx, 7)
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetInfoForCustomerTxForbidden(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, customer_id, schedule_id").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "customer_id", "schedule_id", "adult_count", "child_count",
			"total_price_cents", "status", "booked_at", "updated_at",
		}).AddRow(7, 99, 10, 1, 0, 10000, 1, now, now))

	tx, err := db.Begin()
	require.NoError(t, err)
	_, err = repo.GetInfoForCustomerTx(context.Background(), tx, 7, 5)
	assert.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestReserveSeatsTxSuccess(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScheduleRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE schedules").
		WithArgs(2, 10, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.ReserveSeatsTx(context.Background(), tx, 10, 2)
	assert.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsTxCapacityExceeded(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScheduleRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE schedules").
		WithArgs(3, 10, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status, available FROM schedules").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"status", "available"}).AddRow(1, 2))

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.ReserveSeatsTx(context.Background(), tx, 10, 3)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsTxClosedSchedule(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScheduleRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE schedules").
		WithArgs(1, 10, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status, available FROM schedules").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"status", "available"}).AddRow(0, 5))

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.ReserveSeatsTx(context.Background(), tx, 10, 1)
	assert.ErrorIs(t, err, ErrScheduleClosed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsTxMissingSchedule(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScheduleRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE schedules").
		WithArgs(1, 999, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status, available FROM schedules").
		WithArgs(999).
		WillReturnError(sql.ErrNoRows)

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.ReserveSeatsTx(context.Background(), tx, 999, 1)
	assert.ErrorIs(t, err, ErrScheduleNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseSeatsTxReopensSchedule(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScheduleRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE schedules").
		WithArgs(2, 10).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.ReleaseSeatsTx(context.Background(), tx, 10, 2)
	assert.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseSeatsTxMissingSchedule(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScheduleRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE schedules").
		WithArgs(2, 999).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.ReleaseSeatsTx(context.Background(), tx, 999, 2)
	assert.ErrorIs(t, err, ErrScheduleNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestStoreRefreshInserts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)

	exp := time.Now().UTC().Add(96 * time.Hour)
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(int64(42), "abc123", exp).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.StoreRefresh(context.Background(), 42, "abc123", exp)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateRefreshReturnsOwner(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)

	rows := sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
		AddRow(42, time.Now().UTC().Add(time.Hour), nil)
	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
		WithArgs("abc123").
		WillReturnRows(rows)

	userID, err := repo.ValidateRefresh(context.Background(), "abc123")
	require.NoError(t, err)
	require.Equal(t, uint64(42), userID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateRefreshRevoked(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)

	rows := sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
		AddRow(42, time.Now().UTC().Add(time.Hour), time.Now().UTC())
	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
		WithArgs("abc123").
		WillReturnRows(rows)

	_, err := repo.ValidateRefresh(context.Background(), "abc123")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateRefreshExpired(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)

	rows := sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
		AddRow(42, time.Now().UTC().Add(-time.Minute), nil)
	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
		WithArgs("abc123").
		WillReturnRows(rows)

	_, err := repo.ValidateRefresh(context.Background(), "abc123")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateRefreshUnknownHash(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)

	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}))

	_, err := repo.ValidateRefresh(context.Background(), "missing")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRevokeByHashIdempotent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)

	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").
		WithArgs("abc123").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.RevokeByHash(context.Background(), "abc123"))
	require.NoError(t, mock.ExpectationsWereMet())
}

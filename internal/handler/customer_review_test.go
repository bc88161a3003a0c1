package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tour-booking-api/internal/repository"
)

func newReviewHandler(t *testing.T) (*CustomerReviewHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	h := NewCustomerReviewHandler(
		repository.NewReviewRepo(db),
		repository.NewBookingRepo(db),
		repository.NewCustomerRepo(db),
	)
	return h, mock
}

func TestCreateReviewSuccess(t *testing.T) {
	h, mock := newReviewHandler(t)
	now := time.Now().UTC()

	expectCustomerLookup(mock, 42, 5)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT b.customer_id, s.tour_id, b.status").
		WithArgs(77).
		WillReturnRows(sqlmock.NewRows([]string{"customer_id", "tour_id", "status"}).AddRow(5, 3, 1))
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(3, 5, 5, "Great guide, great views.").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery("SELECT id, tour_id, customer_id, rating, comment").
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "tour_id", "customer_id", "rating", "comment", "created_at",
		}).AddRow(9, 3, 5, 5, "Great guide, great views.", now))
	mock.ExpectExec("UPDATE bookings").
		WithArgs(3, 77, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := jsonContext(t, http.MethodPost, "/v1/bookings/77/reviews",
		`{"rating":5,"comment":"Great guide, great views."}`, 42)
	c.SetParamNames("id")
	c.SetParamValues("77")
	require.NoError(t, h.CreateReview(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		ID     uint64 `json:"id"`
		TourID uint64 `json:"tour_id"`
		Rating uint8  `json:"rating"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(9), resp.ID)
	// The tour comes from the booking row, not the request.
	assert.Equal(t, uint64(3), resp.TourID)
	assert.Equal(t, uint8(5), resp.Rating)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReviewForeignBooking(t *testing.T) {
	h, mock := newReviewHandler(t)

	expectCustomerLookup(mock, 42, 5)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT b.customer_id, s.tour_id, b.status").
		WithArgs(77).
		WillReturnRows(sqlmock.NewRows([]string{"customer_id", "tour_id", "status"}).AddRow(99, 3, 1))
	mock.ExpectRollback()

	c, rec := jsonContext(t, http.MethodPost, "/v1/bookings/77/reviews",
		`{"rating":4}`, 42)
	c.SetParamNames("id")
	c.SetParamValues("77")
	require.NoError(t, h.CreateReview(c))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReviewRepeatConflicts(t *testing.T) {
	h, mock := newReviewHandler(t)

	expectCustomerLookup(mock, 42, 5)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT b.customer_id, s.tour_id, b.status").
		WithArgs(77).
		WillReturnRows(sqlmock.NewRows([]string{"customer_id", "tour_id", "status"}).AddRow(5, 3, 3))
	mock.ExpectRollback()

	c, rec := jsonContext(t, http.MethodPost, "/v1/bookings/77/reviews",
		`{"rating":4}`, 42)
	c.SetParamNames("id")
	c.SetParamValues("77")
	require.NoError(t, h.CreateReview(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already reviewed or cancelled")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReviewRatingOutOfRange(t *testing.T) {
	h, mock := newReviewHandler(t)

	c, rec := jsonContext(t, http.MethodPost, "/v1/bookings/77/reviews",
		`{"rating":6}`, 42)
	c.SetParamNames("id")
	c.SetParamValues("77")
	require.NoError(t, h.CreateReview(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

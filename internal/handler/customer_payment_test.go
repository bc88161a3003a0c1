package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tour-booking-api/internal/repository"
)

func newPaymentHandler(t *testing.T) (*CustomerPaymentHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	h := NewCustomerPaymentHandler(
		repository.NewPaymentRepo(db),
		repository.NewBookingRepo(db),
		repository.NewCustomerRepo(db),
		nil,
	)
	return h, mock
}

func activeBookingRows(bookingID, customerID uint64, total uint32) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "customer_id", "schedule_id", "adult_count", "child_count",
		"total_price_cents", "status", "booked_at", "updated_at",
	}).AddRow(bookingID, customerID, 10, 1, 1, total, 1, now, now)
}

func TestCreatePaymentSuccess(t *testing.T) {
	h, mock := newPaymentHandler(t)
	now := time.Now().UTC()

	expectCustomerLookup(mock, 42, 5)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, customer_id, schedule_id").
		WithArgs(77).
		WillReturnRows(activeBookingRows(77, 5, 13500))
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(77, 13500).
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectQuery("SELECT id, booking_id, amount_cents").
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "booking_id", "amount_cents", "status", "paid_at",
		}).AddRow(4, 77, 13500, "RECORDED", now))
	mock.ExpectCommit()

	c, rec := jsonContext(t, http.MethodPost, "/v1/bookings/77/payments",
		`{"amount_cents":13500}`, 42)
	c.SetParamNames("id")
	c.SetParamValues("77")
	require.NoError(t, h.CreatePayment(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		ID          uint64 `json:"id"`
		AmountCents uint32 `json:"amount_cents"`
		Status      string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(4), resp.ID)
	assert.Equal(t, uint32(13500), resp.AmountCents)
	assert.Equal(t, "RECORDED", resp.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePaymentAmountMismatch(t *testing.T) {
	h, mock := newPaymentHandler(t)

	expectCustomerLookup(mock, 42, 5)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, customer_id, schedule_id").
		WithArgs(77).
		WillReturnRows(activeBookingRows(77, 5, 13500))
	mock.ExpectRollback()

	c, rec := jsonContext(t, http.MethodPost, "/v1/bookings/77/payments",
		`{"amount_cents":100}`, 42)
	c.SetParamNames("id")
	c.SetParamValues("77")
	require.NoError(t, h.CreatePayment(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "must equal booking total")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePaymentDuplicateConflicts(t *testing.T) {
	h, mock := newPaymentHandler(t)

	expectCustomerLookup(mock, 42, 5)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, customer_id, schedule_id").
		WithArgs(77).
		WillReturnRows(activeBookingRows(77, 5, 13500))
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(77, 13500).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '77' for key 'payments.uq_payments_booking'"))
	mock.ExpectRollback()

	c, rec := jsonContext(t, http.MethodPost, "/v1/bookings/77/payments",
		`{"amount_cents":13500}`, 42)
	c.SetParamNames("id")
	c.SetParamValues("77")
	require.NoError(t, h.CreatePayment(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "payment already recorded")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBookingPaymentUnpaid(t *testing.T) {
	h, mock := newPaymentHandler(t)
	now := time.Now().UTC()

	expectCustomerLookup(mock, 42, 5)
	mock.ExpectQuery("SELECT b.id, b.customer_id, b.schedule_id").
		WithArgs(77).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "customer_id", "schedule_id", "adult_count", "child_count",
			"total_price_cents", "status", "booked_at", "updated_at",
			"tour_id", "name", "departs_on",
		}).AddRow(77, 5, 10, 1, 1, 13500, 1, now, now, 3, "Coastal Trek", "2026-10-01"))
	mock.ExpectQuery("SELECT id, booking_id, amount_cents").
		WithArgs(77).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "booking_id", "amount_cents", "status", "paid_at",
		}))

	c, rec := jsonContext(t, http.MethodGet, "/v1/bookings/77/payment", "", 42)
	c.SetParamNames("id")
	c.SetParamValues("77")
	require.NoError(t, h.GetBookingPayment(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no payment recorded")
	require.NoError(t, mock.ExpectationsWereMet())
}

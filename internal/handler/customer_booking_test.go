package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tour-booking-api/internal/repository"
)

func newBookingHandler(t *testing.T) (*CustomerBookingHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	h := NewCustomerBookingHandler(
		repository.NewScheduleRepo(db),
		repository.NewBookingRepo(db),
		repository.NewCustomerRepo(db),
		nil,
	)
	return h, mock
}

func jsonContext(t *testing.T, method, target, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	return c, rec
}

func expectCustomerLookup(mock sqlmock.Sqlmock, userID, customerID uint64) {
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, user_id, full_name, phone").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "full_name", "phone", "created_at", "updated_at",
		}).AddRow(customerID, userID, "Dana Reyes", nil, now, now))
}

func snapshotRows(available uint32, status uint8) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "tour_id", "name", "duration_days", "departs_on",
		"adult_price_cents", "child_price_cents", "discount_percent", "available", "status",
	}).AddRow(10, 3, "Coastal Trek", 4, "2026-10-01", 10000, 5000, 10, available, status)
}

func TestCreateBookingSuccess(t *testing.T) {
	h, mock := newBookingHandler(t)
	now := time.Now().UTC()

	expectCustomerLookup(mock, 42, 5)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT s.id, s.tour_id, t.name").
		WithArgs(10).
		WillReturnRows(snapshotRows(2, 1))
	mock.ExpectExec("UPDATE schedules").
		WithArgs(2, 10, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(5, 10, 1, 1, 13500).
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectQuery("SELECT id, customer_id, schedule_id").
		WithArgs(77).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "customer_id", "schedule_id", "adult_count", "child_count",
			"total_price_cents", "status", "booked_at", "updated_at",
		}).AddRow(77, 5, 10, 1, 1, 13500, 1, now, now))
	mock.ExpectCommit()

	c, rec := jsonContext(t, http.MethodPost, "/v1/bookings",
		`{"schedule_id":10,"adult_count":1,"child_count":1}`, 42)
	require.NoError(t, h.CreateBooking(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		ID              uint64 `json:"id"`
		TourName        string `json:"tour_name"`
		TotalPriceCents uint32 `json:"total_price_cents"`
		Status          uint8  `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// 1*10000 + 1*5000 with a 10% discount.
	assert.Equal(t, uint32(13500), resp.TotalPriceCents)
	assert.Equal(t, uint64(77), resp.ID)
	assert.Equal(t, "Coastal Trek", resp.TourName)
	assert.Equal(t, uint8(1), resp.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingCapacityExceeded(t *testing.T) {
	h, mock := newBookingHandler(t)

	expectCustomerLookup(mock, 42, 5)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT s.id, s.tour_id, t.name").
		WithArgs(10).
		WillReturnRows(snapshotRows(1, 1))
	mock.ExpectExec("UPDATE schedules").
		WithArgs(2, 10, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status, available FROM schedules").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"status", "available"}).AddRow(1, 1))
	mock.ExpectRollback()

	c, rec := jsonContext(t, http.MethodPost, "/v1/bookings",
		`{"schedule_id":10,"adult_count":2}`, 42)
	require.NoError(t, h.CreateBooking(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "not enough seats")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingStalePriceRejected(t *testing.T) {
	h, mock := newBookingHandler(t)

	expectCustomerLookup(mock, 42, 5)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT s.id, s.tour_id, t.name").
		WithArgs(10).
		WillReturnRows(snapshotRows(5, 1))
	mock.ExpectRollback()

	c, rec := jsonContext(t, http.MethodPost, "/v1/bookings",
		`{"schedule_id":10,"adult_count":1,"total_price_cents":9999}`, 42)
	require.NoError(t, h.CreateBooking(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "does not match current pricing")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingCountOverflowRejected(t *testing.T) {
	h, mock := newBookingHandler(t)

	// A uint32 sum of these counts wraps to 1; the request must die in
	// validation before any query runs.
	c, rec := jsonContext(t, http.MethodPost, "/v1/bookings",
		`{"schedule_id":10,"adult_count":4294967295,"child_count":2}`, 42)
	require.NoError(t, h.CreateBooking(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too many seats")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingSeatCap(t *testing.T) {
	h, mock := newBookingHandler(t)

	c, rec := jsonContext(t, http.MethodPost, "/v1/bookings",
		`{"schedule_id":10,"adult_count":101}`, 42)
	require.NoError(t, h.CreateBooking(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too many seats")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingForAnotherCustomer(t *testing.T) {
	h, mock := newBookingHandler(t)
	expectCustomerLookup(mock, 42, 5)

	c, rec := jsonContext(t, http.MethodPost, "/v1/bookings",
		`{"schedule_id":10,"adult_count":1,"customer_id":99}`, 42)
	require.NoError(t, h.CreateBooking(c))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingReleasesSeats(t *testing.T) {
	h, mock := newBookingHandler(t)
	now := time.Now().UTC()

	expectCustomerLookup(mock, 42, 5)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, customer_id, schedule_id").
		WithArgs(77).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "customer_id", "schedule_id", "adult_count", "child_count",
			"total_price_cents", "status", "booked_at", "updated_at",
		}).AddRow(77, 5, 10, 1, 1, 13500, 1, now, now))
	mock.ExpectExec("UPDATE bookings").
		WithArgs(0, 77, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE schedules").
		WithArgs(2, 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := jsonContext(t, http.MethodDelete, "/v1/bookings/77", "", 42)
	c.SetParamNames("id")
	c.SetParamValues("77")
	require.NoError(t, h.CancelBooking(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Cancelled bool   `json:"cancelled"`
		Released  uint32 `json:"released"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Cancelled)
	assert.Equal(t, uint32(2), resp.Released)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingTwiceConflicts(t *testing.T) {
	h, mock := newBookingHandler(t)
	now := time.Now().UTC()

	expectCustomerLookup(mock, 42, 5)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, customer_id, schedule_id").
		WithArgs(77).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "customer_id", "schedule_id", "adult_count", "child_count",
			"total_price_cents", "status", "booked_at", "updated_at",
		}).AddRow(77, 5, 10, 1, 1, 13500, 0, now, now))
	mock.ExpectRollback()

	c, rec := jsonContext(t, http.MethodDelete, "/v1/bookings/77", "", 42)
	c.SetParamNames("id")
	c.SetParamValues("77")
	require.NoError(t, h.CancelBooking(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "not active")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingForeignBooking(t *testing.T) {
	h, mock := newBookingHandler(t)
	now := time.Now().UTC()

	expectCustomerLookup(mock, 42, 5)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, customer_id, schedule_id").
		WithArgs(77).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "customer_id", "schedule_id", "adult_count", "child_count",
			"total_price_cents", "status", "booked_at", "updated_at",
		}).AddRow(77, 99, 10, 1, 1, 13500, 1, now, now))
	mock.ExpectRollback()

	c, rec := jsonContext(t, http.MethodDelete, "/v1/bookings/77", "", 42)
	c.SetParamNames("id")
	c.SetParamValues("77")
	require.NoError(t, h.CancelBooking(c))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleSnapshotQuotesDiscountedTotal(t *testing.T) {
	h, mock := newBookingHandler(t)

	mock.ExpectQuery("SELECT s.id, s.tour_id, t.name").
		WithArgs(10).
		WillReturnRows(snapshotRows(8, 1))

	c, rec := jsonContext(t, http.MethodGet, "/v1/schedules/10/snapshot?adults=2&children=1", "", 42)
	c.SetParamNames("id")
	c.SetParamValues("10")
	require.NoError(t, h.ScheduleSnapshot(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		TotalPriceCents uint32 `json:"total_price_cents"`
		Available       uint32 `json:"available"`
		Open            bool   `json:"open"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// (2*10000 + 1*5000) with a 10% discount.
	assert.Equal(t, uint32(22500), resp.TotalPriceCents)
	assert.Equal(t, uint32(8), resp.Available)
	assert.True(t, resp.Open)
	require.NoError(t, mock.ExpectationsWereMet())
}

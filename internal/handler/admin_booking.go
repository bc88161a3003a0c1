package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking-api/internal/model"
	"github.com/iliyamo/tour-booking-api/internal/repository"
)

// AdminBookingHandler gives administrators visibility over bookings
// and payments, plus the ability to cancel a booking on a customer's
// behalf.
type AdminBookingHandler struct {
	Bookings  *repository.BookingRepo
	Schedules *repository.ScheduleRepo
	Payments  *repository.PaymentRepo
}

func NewAdminBookingHandler(b *repository.BookingRepo, s *repository.ScheduleRepo, p *repository.PaymentRepo) *AdminBookingHandler {
	return &AdminBookingHandler{Bookings: b, Schedules: s, Payments: p}
}

// ListBookings returns every booking with customer identity, newest
// first.
func (h *AdminBookingHandler) ListBookings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Bookings.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]echo.Map, 0, len(list))
	for _, a := range list {
		out = append(out, echo.Map{
			"id":                a.ID,
			"customer_id":       a.CustomerID,
			"customer_name":     a.CustomerName,
			"customer_email":    a.CustomerEmail,
			"schedule_id":       a.ScheduleID,
			"tour_name":         a.TourName,
			"departs_on":        a.DepartsOn,
			"adult_count":       a.AdultCount,
			"child_count":       a.ChildCount,
			"total_price_cents": a.TotalPriceCents,
			"status":            a.Status,
			"booked_at":         a.BookedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// CancelBooking cancels any active booking and returns its seats to
// the schedule.  It follows the same transactional path as the
// customer-facing cancel, minus the ownership check.
func (h *AdminBookingHandler) CancelBooking(c echo.Context) error {
	bookingID, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tx, err := h.Schedules.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := h.Bookings.GetInfoTx(ctx, tx, bookingID)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if b.Status != model.BookingActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not active"})
	}
	if err := h.Bookings.CancelTx(ctx, tx, bookingID); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not active"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	if err := h.Schedules.ReleaseSeatsTx(ctx, tx, b.ScheduleID, b.Seats()); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{
		"cancelled": true,
		"released":  b.Seats(),
	})
}

type bookingStatusReq struct {
	Status *uint8 `json:"status"`
}

// UpdateBookingStatus forces a booking into one of the known statuses.
// Only 0 (cancelled), 1 (active) and 3 (reviewed) are accepted; the
// only legal transitions start from an active booking, so a terminal
// booking answers 409 unless the request is a no-op.  Cancelling
// through this path releases the booking's seats like the customer
// cancel does.
func (h *AdminBookingHandler) UpdateBookingStatus(c echo.Context) error {
	bookingID, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req bookingStatusReq
	if err := c.Bind(&req); err != nil || req.Status == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status required"})
	}
	target := *req.Status
	if target != model.BookingCancelled && target != model.BookingActive && target != model.BookingReviewed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tx, err := h.Schedules.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := h.Bookings.GetInfoTx(ctx, tx, bookingID)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if b.Status == target {
		return c.JSON(http.StatusOK, echo.Map{"id": b.ID, "status": b.Status, "changed": false})
	}
	if b.Status != model.BookingActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not active"})
	}

	switch target {
	case model.BookingCancelled:
		if err := h.Bookings.CancelTx(ctx, tx, bookingID); err != nil {
			if err == repository.ErrConflict {
				return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not active"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
		}
		if err := h.Schedules.ReleaseSeatsTx(ctx, tx, b.ScheduleID, b.Seats()); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
		}
	case model.BookingReviewed:
		if err := h.Bookings.MarkReviewedTx(ctx, tx, bookingID); err != nil {
			if err == repository.ErrConflict {
				return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not active"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	resp := echo.Map{"id": b.ID, "status": target, "changed": true}
	if target == model.BookingCancelled {
		resp["released"] = b.Seats()
	}
	return c.JSON(http.StatusOK, resp)
}

// ListPayments returns the payment ledger, newest first.
func (h *AdminBookingHandler) ListPayments(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Payments.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]echo.Map, 0, len(list))
	for _, p := range list {
		out = append(out, echo.Map{
			"id":           p.ID,
			"booking_id":   p.BookingID,
			"customer_id":  p.CustomerID,
			"schedule_id":  p.ScheduleID,
			"amount_cents": p.AmountCents,
			"status":       p.Status,
			"paid_at":      p.PaidAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": out})
}

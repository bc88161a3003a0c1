package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking-api/internal/model"
	"github.com/iliyamo/tour-booking-api/internal/queue"
	"github.com/iliyamo/tour-booking-api/internal/repository"
)

// CustomerPaymentHandler records payments against the caller's own
// bookings.  Settlement happens outside this service; this endpoint
// only writes the ledger row.
type CustomerPaymentHandler struct {
	Payments  *repository.PaymentRepo
	Bookings  *repository.BookingRepo
	Customers *repository.CustomerRepo
	Events    EventPublisher
}

func NewCustomerPaymentHandler(p *repository.PaymentRepo, b *repository.BookingRepo, c *repository.CustomerRepo, ev EventPublisher) *CustomerPaymentHandler {
	return &CustomerPaymentHandler{Payments: p, Bookings: b, Customers: c, Events: ev}
}

type createPaymentReq struct {
	AmountCents uint32 `json:"amount_cents"`
}

// CreatePayment records a payment for an active booking owned by the
// caller.  The booking comes from the path; the amount must match the
// booking total exactly, partial payments are not modelled.  A second
// payment for the same booking answers 409 via the unique key on
// booking_id.
func (h *CustomerPaymentHandler) CreatePayment(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req createPaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cust, err := h.Customers.GetByUserID(ctx, uid)
	if err != nil {
		if err == repository.ErrCustomerNotFound {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "no customer profile"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := h.Bookings.GetInfoForCustomerTx(ctx, tx, bookingID, cust.ID)
	if err != nil {
		switch err {
		case repository.ErrBookingNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}
	if b.Status != model.BookingActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not active"})
	}
	if req.AmountCents != b.TotalPriceCents {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount_cents must equal booking total"})
	}

	p := &model.Payment{BookingID: b.ID, AmountCents: req.AmountCents}
	if err := h.Payments.CreateTx(ctx, tx, p); err != nil {
		if err == repository.ErrPaymentExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "payment already recorded"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record payment failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	if h.Events != nil {
		event := queue.BookingEvent{
			Type:            queue.EventPaymentRecorded,
			BookingID:       b.ID,
			CustomerID:      b.CustomerID,
			ScheduleID:      b.ScheduleID,
			TotalPriceCents: b.TotalPriceCents,
			OccurredAt:      time.Now().UTC().Format("2006-01-02 15:04:05"),
		}
		go func() {
			pctx, pcancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer pcancel()
			_ = h.Events.Publish(pctx, event)
		}()
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":           p.ID,
		"booking_id":   p.BookingID,
		"amount_cents": p.AmountCents,
		"status":       p.Status,
		"paid_at":      p.PaidAt.UTC().Format("2006-01-02 15:04:05"),
	})
}

// GetBookingPayment returns the payment recorded for one of the
// caller's bookings, or 404 when the booking is unpaid.
func (h *CustomerPaymentHandler) GetBookingPayment(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cust, err := h.Customers.GetByUserID(ctx, uid)
	if err != nil {
		if err == repository.ErrCustomerNotFound {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "no customer profile"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	// Ownership check runs through the detail query so foreign
	// bookings answer 403 before the payment is looked up.
	if _, err := h.Bookings.GetDetailForCustomer(ctx, bookingID, cust.ID); err != nil {
		switch err {
		case repository.ErrBookingNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}
	p, err := h.Payments.GetByBooking(ctx, bookingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if p == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no payment recorded"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":           p.ID,
		"booking_id":   p.BookingID,
		"amount_cents": p.AmountCents,
		"status":       p.Status,
		"paid_at":      p.PaidAt.UTC().Format("2006-01-02 15:04:05"),
	})
}

package handler

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking-api/internal/model"
	"github.com/iliyamo/tour-booking-api/internal/queue"
	"github.com/iliyamo/tour-booking-api/internal/repository"
)

// EventPublisher sends booking events to the message broker.  The
// handler treats publishing as best effort: a nil publisher or a
// failed publish never affects the HTTP response.
type EventPublisher interface {
	Publish(ctx context.Context, event queue.BookingEvent) error
}

// CustomerBookingHandler bundles dependencies for booking endpoints.
// Creating and cancelling a booking pair a booking-row write with a
// seat-ledger update; both writes share one transaction begun on the
// schedule repository's DB handle.
type CustomerBookingHandler struct {
	Schedules *repository.ScheduleRepo
	Bookings  *repository.BookingRepo
	Customers *repository.CustomerRepo
	Events    EventPublisher
}

func NewCustomerBookingHandler(s *repository.ScheduleRepo, b *repository.BookingRepo, c *repository.CustomerRepo, ev EventPublisher) *CustomerBookingHandler {
	return &CustomerBookingHandler{Schedules: s, Bookings: b, Customers: c, Events: ev}
}

// ----- DTOs -----

type createBookingReq struct {
	ScheduleID uint64 `json:"schedule_id"`
	AdultCount uint32 `json:"adult_count"`
	ChildCount uint32 `json:"child_count"`
	// TotalPriceCents is optional.  The server always computes the
	// price from the schedule; a non-zero client value is only checked
	// against the computed one so stale clients fail loudly.
	TotalPriceCents uint32 `json:"total_price_cents"`
	// CustomerID is optional.  When present it must match the caller's
	// own profile; it exists so API clients that track customer IDs can
	// assert they are booking for the right account.
	CustomerID uint64 `json:"customer_id"`
}

type bookingResp struct {
	ID              uint64 `json:"id"`
	ScheduleID      uint64 `json:"schedule_id"`
	TourID          uint64 `json:"tour_id"`
	TourName        string `json:"tour_name"`
	DepartsOn       string `json:"departs_on"`
	AdultCount      uint32 `json:"adult_count"`
	ChildCount      uint32 `json:"child_count"`
	TotalPriceCents uint32 `json:"total_price_cents"`
	Status          uint8  `json:"status"`
	BookedAt        string `json:"booked_at"`
}

// maxSeatsPerBooking caps a single booking.  The cap keeps the seat
// arithmetic far away from uint32 wraparound; anything larger than a
// real group books through support anyway.
const maxSeatsPerBooking = 100

// totalFor prices a booking from schedule values.  The discount is a
// whole percent applied to the combined total, rounded down.  The
// result stays in uint64 so no combination of counts and prices can
// wrap; callers reject totals that do not fit the stored column.
func totalFor(snap *repository.ScheduleSnapshot, adults, children uint32) uint64 {
	total := uint64(adults)*uint64(snap.AdultPriceCents) + uint64(children)*uint64(snap.ChildPriceCents)
	return total * uint64(100-snap.DiscountPercent) / 100
}

// CreateBooking reserves seats on a schedule for the authenticated
// customer.  The seat decrement and the booking insert commit
// together; the conditional update in ReserveSeatsTx is what keeps
// two concurrent requests from overselling the departure.
func (h *CustomerBookingHandler) CreateBooking(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ScheduleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "schedule_id required"})
	}
	// Sum in uint64: a uint32 sum of hostile counts can wrap to a tiny
	// seat number while the booking row records the raw counts.
	seats64 := uint64(req.AdultCount) + uint64(req.ChildCount)
	if seats64 == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one seat required"})
	}
	if seats64 > maxSeatsPerBooking {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "too many seats requested"})
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
	if req.CustomerID != 0 && req.CustomerID != cust.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot book for another customer"})
	}

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

	snap, err := h.Schedules.BookingSnapshotTx(ctx, tx, req.ScheduleID)
	if err != nil {
		if err == repository.ErrScheduleNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	total := totalFor(snap, req.AdultCount, req.ChildCount)
	if total > math.MaxUint32 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total price out of range"})
	}
	if req.TotalPriceCents != 0 && uint64(req.TotalPriceCents) != total {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_price_cents does not match current pricing"})
	}

	seats := uint32(seats64)
	if err := h.Schedules.ReserveSeatsTx(ctx, tx, req.ScheduleID, seats); err != nil {
		switch err {
		case repository.ErrScheduleNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		case repository.ErrScheduleClosed:
			return c.JSON(http.StatusConflict, echo.Map{"error": "schedule closed"})
		case repository.ErrCapacityExceeded:
			return c.JSON(http.StatusConflict, echo.Map{"error": "not enough seats available"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reserve failed"})
		}
	}

	b := &model.Booking{
		CustomerID:      cust.ID,
		ScheduleID:      req.ScheduleID,
		AdultCount:      req.AdultCount,
		ChildCount:      req.ChildCount,
		TotalPriceCents: uint32(total),
	}
	if err := h.Bookings.CreateTx(ctx, tx, b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	h.publish(queue.BookingEvent{
		Type:            queue.EventBookingConfirmed,
		BookingID:       b.ID,
		CustomerID:      b.CustomerID,
		ScheduleID:      b.ScheduleID,
		TourID:          snap.TourID,
		TourName:        snap.TourName,
		DepartsOn:       snap.DepartsOn,
		AdultCount:      b.AdultCount,
		ChildCount:      b.ChildCount,
		TotalPriceCents: b.TotalPriceCents,
		OccurredAt:      time.Now().UTC().Format("2006-01-02 15:04:05"),
	})

	return c.JSON(http.StatusCreated, bookingResp{
		ID:              b.ID,
		ScheduleID:      b.ScheduleID,
		TourID:          snap.TourID,
		TourName:        snap.TourName,
		DepartsOn:       snap.DepartsOn,
		AdultCount:      b.AdultCount,
		ChildCount:      b.ChildCount,
		TotalPriceCents: b.TotalPriceCents,
		Status:          b.Status,
		BookedAt:        b.BookedAt.UTC().Format("2006-01-02 15:04:05"),
	})
}

// CancelBooking cancels one of the caller's active bookings and
// returns its seats to the schedule.  The status guard in CancelTx
// makes repeat cancellations answer 409 instead of double-crediting
// the ledger.
func (h *CustomerBookingHandler) CancelBooking(c echo.Context) error {
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

	h.publish(queue.BookingEvent{
		Type:            queue.EventBookingCancelled,
		BookingID:       b.ID,
		CustomerID:      b.CustomerID,
		ScheduleID:      b.ScheduleID,
		AdultCount:      b.AdultCount,
		ChildCount:      b.ChildCount,
		TotalPriceCents: b.TotalPriceCents,
		OccurredAt:      time.Now().UTC().Format("2006-01-02 15:04:05"),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"cancelled": true,
		"released":  b.Seats(),
	})
}

// ListMyBookings returns all bookings of the authenticated customer.
func (h *CustomerBookingHandler) ListMyBookings(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
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
	list, err := h.Bookings.ListByCustomer(ctx, cust.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]bookingResp, 0, len(list))
	for _, d := range list {
		out = append(out, bookingResp{
			ID:              d.ID,
			ScheduleID:      d.ScheduleID,
			TourID:          d.TourID,
			TourName:        d.TourName,
			DepartsOn:       d.DepartsOn,
			AdultCount:      d.AdultCount,
			ChildCount:      d.ChildCount,
			TotalPriceCents: d.TotalPriceCents,
			Status:          d.Status,
			BookedAt:        d.BookedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// GetBooking returns one booking of the authenticated customer.
func (h *CustomerBookingHandler) GetBooking(c echo.Context) error {
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
	d, err := h.Bookings.GetDetailForCustomer(ctx, bookingID, cust.ID)
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
	return c.JSON(http.StatusOK, bookingResp{
		ID:              d.ID,
		ScheduleID:      d.ScheduleID,
		TourID:          d.TourID,
		TourName:        d.TourName,
		DepartsOn:       d.DepartsOn,
		AdultCount:      d.AdultCount,
		ChildCount:      d.ChildCount,
		TotalPriceCents: d.TotalPriceCents,
		Status:          d.Status,
		BookedAt:        d.BookedAt.UTC().Format("2006-01-02 15:04:05"),
	})
}

// ScheduleSnapshot shows the ledger state of one departure without
// reserving anything.  Optional adults/children query parameters add a
// priced total so clients can quote a booking before the customer
// commits.
func (h *CustomerBookingHandler) ScheduleSnapshot(c echo.Context) error {
	scheduleID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || scheduleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	adults64, _ := strconv.ParseUint(c.QueryParam("adults"), 10, 32)
	children64, _ := strconv.ParseUint(c.QueryParam("children"), 10, 32)
	adults, children := uint32(adults64), uint32(children64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	snap, err := h.Schedules.BookingSnapshot(ctx, scheduleID)
	if err != nil {
		if err == repository.ErrScheduleNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	resp := echo.Map{
		"schedule_id":       snap.ID,
		"tour_id":           snap.TourID,
		"tour_name":         snap.TourName,
		"duration_days":     snap.DurationDays,
		"departs_on":        snap.DepartsOn,
		"adult_price_cents": snap.AdultPriceCents,
		"child_price_cents": snap.ChildPriceCents,
		"discount_percent":  snap.DiscountPercent,
		"available":         snap.Available,
		"open":              snap.Status == model.ScheduleOpen,
	}
	if adults+children > 0 {
		resp["total_price_cents"] = totalFor(snap, adults, children)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CustomerBookingHandler) publish(event queue.BookingEvent) {
	if h.Events == nil {
		return
	}
	// Detached from the request context: the response has already been
	// sent and a slow broker must not block the worker.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.Events.Publish(ctx, event)
	}()
}

package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking-api/internal/model"
	"github.com/iliyamo/tour-booking-api/internal/repository"
)

// AdminScheduleHandler manages tour departures.  Administrators set
// the initial capacity here; after that the available counter only
// moves through the booking paths.
type AdminScheduleHandler struct {
	Schedules *repository.ScheduleRepo
	Tours     *repository.TourRepo
}

func NewAdminScheduleHandler(s *repository.ScheduleRepo, t *repository.TourRepo) *AdminScheduleHandler {
	return &AdminScheduleHandler{Schedules: s, Tours: t}
}

type scheduleReq struct {
	TourID          uint64 `json:"tour_id"`
	DepartsOn       string `json:"departs_on"` // "YYYY-MM-DD"
	AdultPriceCents uint32 `json:"adult_price_cents"`
	ChildPriceCents uint32 `json:"child_price_cents"`
	DiscountPercent uint8  `json:"discount_percent"`
	Available       uint32 `json:"available"`
	Status          *uint8 `json:"status"`
}

func (r *scheduleReq) validate() (time.Time, string) {
	if r.TourID == 0 {
		return time.Time{}, "tour_id required"
	}
	departs, err := time.ParseInLocation("2006-01-02", r.DepartsOn, time.UTC)
	if err != nil {
		return time.Time{}, "departs_on must be YYYY-MM-DD"
	}
	if r.DiscountPercent > 100 {
		return time.Time{}, "discount_percent must be 0-100"
	}
	return departs, ""
}

// CreateSchedule adds a departure to a tour.
func (h *AdminScheduleHandler) CreateSchedule(c echo.Context) error {
	var req scheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	departs, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	status := model.ScheduleOpen
	if req.Status != nil {
		if *req.Status != model.ScheduleOpen && *req.Status != model.ScheduleClosed {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		status = *req.Status
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Tours.GetByID(ctx, req.TourID); err != nil {
		if err == repository.ErrTourNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	s := &model.Schedule{
		TourID:          req.TourID,
		DepartsOn:       departs,
		AdultPriceCents: req.AdultPriceCents,
		ChildPriceCents: req.ChildPriceCents,
		DiscountPercent: req.DiscountPercent,
		Available:       req.Available,
		Status:          status,
	}
	if err := h.Schedules.Create(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, s)
}

// ListSchedules returns all departures of a tour, including closed and
// past ones.
func (h *AdminScheduleHandler) ListSchedules(c echo.Context) error {
	tourID, err := strconv.ParseUint(c.QueryParam("tour_id"), 10, 64)
	if err != nil || tourID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tour_id required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Schedules.ListByTour(ctx, tourID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"schedules": list})
}

// GetSchedule returns one departure.
func (h *AdminScheduleHandler) GetSchedule(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Schedules.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrScheduleNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, s)
}

// UpdateSchedule changes a departure's date, pricing, capacity and
// status.  Adjusting available while bookings are flowing is the
// administrator's responsibility; the booking paths still refuse to
// take it below zero.
func (h *AdminScheduleHandler) UpdateSchedule(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req scheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	// Updates keep the schedule on its tour, so tour_id is ignored here.
	departs, err := time.ParseInLocation("2006-01-02", req.DepartsOn, time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departs_on must be YYYY-MM-DD"})
	}
	if req.DiscountPercent > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "discount_percent must be 0-100"})
	}
	status := model.ScheduleOpen
	if req.Status != nil {
		if *req.Status != model.ScheduleOpen && *req.Status != model.ScheduleClosed {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		status = *req.Status
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s := &model.Schedule{
		ID:              id,
		DepartsOn:       departs,
		AdultPriceCents: req.AdultPriceCents,
		ChildPriceCents: req.ChildPriceCents,
		DiscountPercent: req.DiscountPercent,
		Available:       req.Available,
		Status:          status,
	}
	if err := h.Schedules.Update(ctx, s); err != nil {
		if err == repository.ErrScheduleNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// SetScheduleStatus opens or closes a departure for new bookings.
func (h *AdminScheduleHandler) SetScheduleStatus(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		Status uint8 `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Status != model.ScheduleOpen && req.Status != model.ScheduleClosed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Schedules.UpdateStatus(ctx, id, req.Status); err != nil {
		if err == repository.ErrScheduleNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// DeleteSchedule removes a departure that has no bookings.
func (h *AdminScheduleHandler) DeleteSchedule(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Schedules.Delete(ctx, id); err != nil {
		switch err {
		case repository.ErrScheduleNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "schedule has bookings"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

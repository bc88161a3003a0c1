package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking-api/internal/model"
	"github.com/iliyamo/tour-booking-api/internal/repository"
)

// CustomerReviewHandler lets customers review tours they have booked.
// The review insert and the booking's transition to reviewed commit in
// one transaction, so a booking can never end up reviewed without its
// review row or vice versa.
type CustomerReviewHandler struct {
	Reviews   *repository.ReviewRepo
	Bookings  *repository.BookingRepo
	Customers *repository.CustomerRepo
}

func NewCustomerReviewHandler(r *repository.ReviewRepo, b *repository.BookingRepo, c *repository.CustomerRepo) *CustomerReviewHandler {
	return &CustomerReviewHandler{Reviews: r, Bookings: b, Customers: c}
}

type createReviewReq struct {
	Rating  uint8   `json:"rating"`
	Comment *string `json:"comment"`
}

// CreateReview writes a review for the tour behind one of the caller's
// active bookings and marks the booking reviewed.  The booking comes
// from the path; the tour and customer the review is anchored to come
// from the booking row, never from the request.  A booking can be
// reviewed once; repeats answer 409 through the status guard.
func (h *CustomerReviewHandler) CreateReview(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req createReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 0 and 5"})
	}
	if req.Comment != nil {
		trimmed := strings.TrimSpace(*req.Comment)
		if trimmed == "" {
			req.Comment = nil
		} else {
			req.Comment = &trimmed
		}
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

	ownerID, tourID, status, err := h.Bookings.ResolveReviewTargetTx(ctx, tx, bookingID)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if ownerID != cust.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
	}
	if status != model.BookingActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking already reviewed or cancelled"})
	}

	rv := &model.Review{
		TourID:     tourID,
		CustomerID: ownerID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	if err := h.Reviews.CreateTx(ctx, tx, rv); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create review failed"})
	}
	if err := h.Bookings.MarkReviewedTx(ctx, tx, bookingID); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking already reviewed or cancelled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark reviewed failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	return c.JSON(http.StatusCreated, echo.Map{
		"id":          rv.ID,
		"tour_id":     rv.TourID,
		"customer_id": rv.CustomerID,
		"rating":      rv.Rating,
		"comment":     rv.Comment,
		"created_at":  rv.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	})
}

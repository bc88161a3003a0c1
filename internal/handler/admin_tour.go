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

// AdminTourHandler manages the tour catalogue and its image galleries.
type AdminTourHandler struct {
	Tours  *repository.TourRepo
	Images *repository.ImageRepo
}

func NewAdminTourHandler(t *repository.TourRepo, i *repository.ImageRepo) *AdminTourHandler {
	return &AdminTourHandler{Tours: t, Images: i}
}

// ----- DTOs -----

type tourReq struct {
	CategoryID   uint64  `json:"category_id"`
	LocationID   uint64  `json:"location_id"`
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	DurationDays uint32  `json:"duration_days"`
	IsActive     *bool   `json:"is_active"`
}

type imageReq struct {
	URL       string  `json:"url"`
	AltText   *string `json:"alt_text"`
	IsPrimary bool    `json:"is_primary"`
}
type imagesReq struct {
	Images []imageReq `json:"images"`
}

func (r *tourReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	switch {
	case r.CategoryID == 0:
		return "category_id required"
	case r.LocationID == 0:
		return "location_id required"
	case r.Name == "":
		return "name required"
	case r.DurationDays == 0:
		return "duration_days required"
	}
	return ""
}

// CreateTour adds a tour to the catalogue.  New tours default to
// active unless the request says otherwise.
func (h *AdminTourHandler) CreateTour(c echo.Context) error {
	var req tourReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t := &model.Tour{
		CategoryID:   req.CategoryID,
		LocationID:   req.LocationID,
		Name:         req.Name,
		Description:  req.Description,
		DurationDays: req.DurationDays,
		IsActive:     active,
	}
	if err := h.Tours.Create(ctx, t); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "unknown category or location"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, t)
}

// ListTours returns the full catalogue including inactive tours,
// optionally filtered by category or location.
func (h *AdminTourHandler) ListTours(c echo.Context) error {
	var f repository.TourFilter
	if v, err := strconv.ParseUint(c.QueryParam("category_id"), 10, 64); err == nil {
		f.CategoryID = v
	}
	if v, err := strconv.ParseUint(c.QueryParam("location_id"), 10, 64); err == nil {
		f.LocationID = v
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Tours.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tours": list})
}

// GetTour returns one tour with its gallery.
func (h *AdminTourHandler) GetTour(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tours.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrTourNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	images, err := h.Images.ListByTour(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tour": t, "images": images})
}

// UpdateTour changes a tour's attributes.
func (h *AdminTourHandler) UpdateTour(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req tourReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t := &model.Tour{
		ID:           id,
		CategoryID:   req.CategoryID,
		LocationID:   req.LocationID,
		Name:         req.Name,
		Description:  req.Description,
		DurationDays: req.DurationDays,
		IsActive:     active,
	}
	if err := h.Tours.Update(ctx, t); err != nil {
		switch err {
		case repository.ErrTourNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "unknown category or location"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// SetTourActive toggles public visibility of a tour.
func (h *AdminTourHandler) SetTourActive(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tours.SetActive(ctx, id, req.IsActive); err != nil {
		if err == repository.ErrTourNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// DeleteTour removes a tour that has no schedules.  Tours with
// departures or reviews answer 409; deactivate those instead.
func (h *AdminTourHandler) DeleteTour(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tours.Delete(ctx, id); err != nil {
		switch err {
		case repository.ErrTourNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "tour has schedules or reviews"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// AddImages appends images to a tour's gallery in one batch.
func (h *AdminTourHandler) AddImages(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req imagesReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.Images) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "images required"})
	}
	images := make([]model.TourImage, 0, len(req.Images))
	for _, img := range req.Images {
		url := strings.TrimSpace(img.URL)
		if url == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "image url required"})
		}
		images = append(images, model.TourImage{URL: url, AltText: img.AltText, IsPrimary: img.IsPrimary})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Images.CreateBulk(ctx, id, images); err != nil {
		if err == repository.ErrTourNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	stored, err := h.Images.ListByTour(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"images": stored})
}

// SetPrimaryImage flags one image as the tour's cover.
func (h *AdminTourHandler) SetPrimaryImage(c echo.Context) error {
	tourID, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	imageID, err := strconv.ParseUint(c.Param("imageID"), 10, 64)
	if err != nil || imageID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid image id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Images.SetPrimary(ctx, tourID, imageID); err != nil {
		if err == repository.ErrImageNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "image not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// DeleteImage removes one image from a tour's gallery.
func (h *AdminTourHandler) DeleteImage(c echo.Context) error {
	tourID, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	imageID, err := strconv.ParseUint(c.Param("imageID"), 10, 64)
	if err != nil || imageID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid image id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Images.Delete(ctx, tourID, imageID); err != nil {
		if err == repository.ErrImageNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "image not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

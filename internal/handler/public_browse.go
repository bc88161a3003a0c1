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

// PublicHandler serves the unauthenticated catalogue: categories,
// locations, tours with their galleries, open departures and reviews.
// Responses are sanitized views; internal fields such as is_active
// and row timestamps are not exposed.
type PublicHandler struct {
	Categories *repository.CategoryRepo
	Locations  *repository.LocationRepo
	Tours      *repository.TourRepo
	Images     *repository.ImageRepo
	Schedules  *repository.ScheduleRepo
	Reviews    *repository.ReviewRepo
}

func NewPublicHandler(cat *repository.CategoryRepo, loc *repository.LocationRepo, t *repository.TourRepo, i *repository.ImageRepo, s *repository.ScheduleRepo, rv *repository.ReviewRepo) *PublicHandler {
	return &PublicHandler{Categories: cat, Locations: loc, Tours: t, Images: i, Schedules: s, Reviews: rv}
}

// ----- sanitized views -----

type publicCategory struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}
type publicLocation struct {
	ID      uint64  `json:"id"`
	Name    string  `json:"name"`
	Region  *string `json:"region,omitempty"`
	Country string  `json:"country"`
}
type publicImage struct {
	ID        uint64  `json:"id"`
	URL       string  `json:"url"`
	AltText   *string `json:"alt_text,omitempty"`
	IsPrimary bool    `json:"is_primary"`
}
type publicSchedule struct {
	ID              uint64  `json:"id"`
	DepartsOn       string  `json:"departs_on"`
	AdultPriceCents uint32  `json:"adult_price_cents"`
	ChildPriceCents uint32  `json:"child_price_cents"`
	DiscountPercent uint8   `json:"discount_percent"`
	Available       uint32  `json:"available"`
	AdultPrice      float64 `json:"adult_price"`
	ChildPrice      float64 `json:"child_price"`
}
type publicReview struct {
	ID           uint64  `json:"id"`
	CustomerName string  `json:"customer_name"`
	Rating       uint8   `json:"rating"`
	Comment      *string `json:"comment,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

func toPublicSchedules(list []model.Schedule) []publicSchedule {
	out := make([]publicSchedule, 0, len(list))
	for _, s := range list {
		out = append(out, publicSchedule{
			ID:              s.ID,
			DepartsOn:       s.DepartsOn.UTC().Format("2006-01-02"),
			AdultPriceCents: s.AdultPriceCents,
			ChildPriceCents: s.ChildPriceCents,
			DiscountPercent: s.DiscountPercent,
			Available:       s.Available,
			AdultPrice:      float64(s.AdultPriceCents) / 100.0,
			ChildPrice:      float64(s.ChildPriceCents) / 100.0,
		})
	}
	return out
}

// ListCategories returns all categories.
func (h *PublicHandler) ListCategories(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Categories.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]publicCategory, 0, len(list))
	for _, cat := range list {
		out = append(out, publicCategory{ID: cat.ID, Name: cat.Name, Description: cat.Description})
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": out})
}

// ListLocations returns all destinations.
func (h *PublicHandler) ListLocations(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Locations.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]publicLocation, 0, len(list))
	for _, l := range list {
		out = append(out, publicLocation{ID: l.ID, Name: l.Name, Region: l.Region, Country: l.Country})
	}
	return c.JSON(http.StatusOK, echo.Map{"locations": out})
}

// SearchTours returns active tours matching the query parameters with
// pagination.
func (h *PublicHandler) SearchTours(c echo.Context) error {
	q := repository.TourSearchQuery{
		Name:     c.QueryParam("name"),
		Category: c.QueryParam("category"),
		Location: c.QueryParam("location"),
		Country:  c.QueryParam("country"),
		Page:     1,
		PageSize: 20,
	}
	if v := c.QueryParam("date_from"); v != "" {
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date_from must be YYYY-MM-DD"})
		}
		q.DateFrom = v
	}
	if v := c.QueryParam("date_to"); v != "" {
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date_to must be YYYY-MM-DD"})
		}
		q.DateTo = v
	}
	if v, err := strconv.ParseUint(c.QueryParam("max_price_cents"), 10, 64); err == nil && v > 0 {
		q.MaxPriceCents = v
	}
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		q.Page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("page_size")); err == nil && v > 0 && v <= 100 {
		q.PageSize = v
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tours, total, err := h.Tours.SearchActive(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"tours":     tours,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}

// GetTour returns one active tour with its gallery and open future
// departures.  Inactive tours answer 404 so deactivation hides them
// completely.
func (h *PublicHandler) GetTour(c echo.Context) error {
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
	if !t.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
	}
	images, err := h.Images.ListByTour(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	schedules, err := h.Schedules.ListOpenByTour(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	outImages := make([]publicImage, 0, len(images))
	for _, img := range images {
		outImages = append(outImages, publicImage{ID: img.ID, URL: img.URL, AltText: img.AltText, IsPrimary: img.IsPrimary})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":            t.ID,
		"name":          t.Name,
		"description":   t.Description,
		"category_id":   t.CategoryID,
		"location_id":   t.LocationID,
		"duration_days": t.DurationDays,
		"images":        outImages,
		"schedules":     toPublicSchedules(schedules),
	})
}

// GetTourSchedules returns the open future departures of an active
// tour.
func (h *PublicHandler) GetTourSchedules(c echo.Context) error {
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
	if !t.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
	}
	schedules, err := h.Schedules.ListOpenByTour(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"schedules": toPublicSchedules(schedules)})
}

// GetTourImages returns the gallery of an active tour, primary image
// first.
func (h *PublicHandler) GetTourImages(c echo.Context) error {
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
	if !t.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
	}
	images, err := h.Images.ListByTour(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]publicImage, 0, len(images))
	for _, img := range images {
		out = append(out, publicImage{ID: img.ID, URL: img.URL, AltText: img.AltText, IsPrimary: img.IsPrimary})
	}
	return c.JSON(http.StatusOK, echo.Map{"images": out})
}

// GetTourReviews returns the reviews of a tour, newest first.  Reviews
// of inactive tours stay reachable since past customers wrote them.
func (h *PublicHandler) GetTourReviews(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Tours.GetByID(ctx, id); err != nil {
		if err == repository.ErrTourNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	list, err := h.Reviews.ListByTour(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]publicReview, 0, len(list))
	for _, rv := range list {
		out = append(out, publicReview{
			ID:           rv.ID,
			CustomerName: rv.CustomerName,
			Rating:       rv.Rating,
			Comment:      rv.Comment,
			CreatedAt:    rv.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"reviews": out})
}

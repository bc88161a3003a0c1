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

// AdminCatalogHandler manages the category and location reference
// data tours are built on.
type AdminCatalogHandler struct {
	Categories *repository.CategoryRepo
	Locations  *repository.LocationRepo
}

func NewAdminCatalogHandler(cat *repository.CategoryRepo, loc *repository.LocationRepo) *AdminCatalogHandler {
	return &AdminCatalogHandler{Categories: cat, Locations: loc}
}

// ----- DTOs -----

type categoryReq struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}
type locationReq struct {
	Name    string  `json:"name"`
	Region  *string `json:"region"`
	Country string  `json:"country"`
}

func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id != 0
}

// CreateCategory adds a new tour category.
func (h *AdminCatalogHandler) CreateCategory(c echo.Context) error {
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cat := &model.Category{Name: req.Name, Description: req.Description}
	if err := h.Categories.Create(ctx, cat); err != nil {
		if err == repository.ErrCategoryExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "category already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, cat)
}

// UpdateCategory renames a category or changes its description.
func (h *AdminCatalogHandler) UpdateCategory(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cat := &model.Category{ID: id, Name: req.Name, Description: req.Description}
	if err := h.Categories.Update(ctx, cat); err != nil {
		switch err {
		case repository.ErrCategoryNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		case repository.ErrCategoryExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "category already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// DeleteCategory removes a category that no tour references.
func (h *AdminCatalogHandler) DeleteCategory(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Categories.Delete(ctx, id); err != nil {
		switch err {
		case repository.ErrCategoryNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "category still has tours"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateLocation adds a new destination.
func (h *AdminCatalogHandler) CreateLocation(c echo.Context) error {
	var req locationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Country = strings.TrimSpace(req.Country)
	if req.Name == "" || req.Country == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/country required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	loc := &model.Location{Name: req.Name, Region: req.Region, Country: req.Country}
	if err := h.Locations.Create(ctx, loc); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, loc)
}

// UpdateLocation changes a destination's attributes.
func (h *AdminCatalogHandler) UpdateLocation(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req locationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Country = strings.TrimSpace(req.Country)
	if req.Name == "" || req.Country == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/country required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	loc := &model.Location{ID: id, Name: req.Name, Region: req.Region, Country: req.Country}
	if err := h.Locations.Update(ctx, loc); err != nil {
		if err == repository.ErrLocationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// DeleteLocation removes a destination that no tour references.
func (h *AdminCatalogHandler) DeleteLocation(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Locations.Delete(ctx, id); err != nil {
		switch err {
		case repository.ErrLocationNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "location still has tours"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

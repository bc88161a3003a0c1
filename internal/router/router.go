package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking-api/internal/handler"
	"github.com/iliyamo/tour-booking-api/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring hit this to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotating refresh: validates, revokes and issues a new pair.
	g.POST("/refresh", a.Refresh)
	// Non-rotating: issues a fresh access token for an existing refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts a refresh_token in the body; no JWT required.
	g.POST("/logout", a.Logout)

	// Protected endpoints.  Both roles may inspect their own identity;
	// profile endpoints only make sense for customers but answer 404
	// for admins rather than 403 to keep the middleware simple.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "CUSTOMER"))
	auth.GET("/me", a.Me)
	auth.GET("/profile", a.Profile)
	auth.PUT("/profile", a.UpdateProfile)

	// Logout with a bearer token revokes every session of the user.
	e.POST("/v1/logout", a.Logout, middleware.JWTAuth(jwtSecret))
}

// RegisterPublic registers unauthenticated browse endpoints on the
// provided Echo instance.  The PublicHandler returns sanitized data
// for categories, locations, tours, schedules and reviews.  These
// routes apply no JWT or role middleware and are intended for guests;
// the optional cache middleware shields the catalogue queries from
// repeat traffic.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	mw := []echo.MiddlewareFunc{}
	if cache != nil {
		mw = append(mw, cache)
	}
	e.GET("/v1/categories", p.ListCategories, mw...)
	e.GET("/v1/locations", p.ListLocations, mw...)
	e.GET("/v1/tours", p.SearchTours, mw...)
	e.GET("/v1/tours/:id", p.GetTour, mw...)
	e.GET("/v1/tours/:id/schedules", p.GetTourSchedules, mw...)
	e.GET("/v1/tours/:id/images", p.GetTourImages, mw...)
	e.GET("/v1/tours/:id/reviews", p.GetTourReviews, mw...)
	e.GET("/v1/search/tours", p.SearchTours, mw...)
}

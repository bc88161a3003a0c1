package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking-api/internal/handler"
	"github.com/iliyamo/tour-booking-api/internal/middleware"
)

// RegisterAdmin registers administration endpoints under /v1/admin.
// All routes require a valid JWT and the ADMIN role.  Admins maintain
// the catalogue (categories, locations, tours, images, schedules) and
// oversee bookings and the payment ledger.
func RegisterAdmin(e *echo.Echo, cat *handler.AdminCatalogHandler, t *handler.AdminTourHandler, s *handler.AdminScheduleHandler, b *handler.AdminBookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	g.POST("/categories", cat.CreateCategory)
	g.PUT("/categories/:id", cat.UpdateCategory)
	g.DELETE("/categories/:id", cat.DeleteCategory)

	g.POST("/locations", cat.CreateLocation)
	g.PUT("/locations/:id", cat.UpdateLocation)
	g.DELETE("/locations/:id", cat.DeleteLocation)

	g.POST("/tours", t.CreateTour)
	g.GET("/tours", t.ListTours)
	g.GET("/tours/:id", t.GetTour)
	g.PUT("/tours/:id", t.UpdateTour)
	g.PATCH("/tours/:id/active", t.SetTourActive)
	g.DELETE("/tours/:id", t.DeleteTour)

	g.POST("/tours/:id/images", t.AddImages)
	g.PATCH("/tours/:id/images/:imageID/primary", t.SetPrimaryImage)
	g.DELETE("/tours/:id/images/:imageID", t.DeleteImage)

	g.POST("/schedules", s.CreateSchedule)
	g.GET("/schedules", s.ListSchedules)
	g.GET("/schedules/:id", s.GetSchedule)
	g.PUT("/schedules/:id", s.UpdateSchedule)
	g.PATCH("/schedules/:id/status", s.SetScheduleStatus)
	g.DELETE("/schedules/:id", s.DeleteSchedule)

	g.GET("/bookings", b.ListBookings)
	g.PATCH("/bookings/:id/status", b.UpdateBookingStatus)
	g.DELETE("/bookings/:id", b.CancelBooking)
	g.GET("/payments", b.ListPayments)
}

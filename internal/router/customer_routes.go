package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking-api/internal/handler"
	"github.com/iliyamo/tour-booking-api/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All
// routes require a valid JWT and the CUSTOMER role.  Customers can
// quote and create bookings, cancel them, record payments and review
// the tours they booked.
func RegisterCustomer(e *echo.Echo, b *handler.CustomerBookingHandler, p *handler.CustomerPaymentHandler, r *handler.CustomerReviewHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	)
	g.GET("/schedules/:id/snapshot", b.ScheduleSnapshot)
	g.POST("/bookings", b.CreateBooking)
	g.GET("/my-bookings", b.ListMyBookings)
	g.GET("/bookings/:id", b.GetBooking)
	g.DELETE("/bookings/:id", b.CancelBooking)

	g.POST("/bookings/:id/payments", p.CreatePayment)
	g.GET("/bookings/:id/payment", p.GetBookingPayment)

	g.POST("/bookings/:id/reviews", r.CreateReview)
}

// Package queue defines message payloads exchanged over the message broker.
package queue

// Booking event types carried in BookingEvent.Type.
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventPaymentRecorded  = "payment.recorded"
)

// BookingEvent is published whenever a booking changes state or a
// payment is recorded for it.  It carries enough information for
// downstream consumers to log, notify, or trigger analytics without
// querying the primary database.
type BookingEvent struct {
	Type            string `json:"type"`
	BookingID       uint64 `json:"booking_id"`
	CustomerID      uint64 `json:"customer_id"`
	ScheduleID      uint64 `json:"schedule_id"`
	TourID          uint64 `json:"tour_id"`
	TourName        string `json:"tour_name"`
	DepartsOn       string `json:"departs_on"`
	AdultCount      uint32 `json:"adult_count"`
	ChildCount      uint32 `json:"child_count"`
	TotalPriceCents uint32 `json:"total_price_cents"`
	OccurredAt      string `json:"occurred_at"`
}

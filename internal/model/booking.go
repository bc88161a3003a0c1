package model

import "time"

// Booking status values. The stored column is a small integer for
// compatibility with the original schema; value 2 is deliberately
// unassigned. The only legal transitions are
// BookingActive → BookingCancelled and BookingActive → BookingReviewed,
// both of which are terminal.
const (
	BookingCancelled uint8 = 0 // seats returned to the schedule
	BookingActive    uint8 = 1 // confirmed, seats counted against the schedule
	BookingReviewed  uint8 = 3 // completed and reviewed exactly once
)

// Booking is a customer's reservation of seats on one schedule.
// Adult and child counts are recorded separately because they are
// priced separately and must be restored exactly on cancellation.
//
// Fields:
//  ID              – primary key identifier.
//  CustomerID      – customer who booked.
//  ScheduleID      – departure being booked.
//  AdultCount      – adult seats reserved.
//  ChildCount      – child seats reserved.
//  TotalPriceCents – total computed from the schedule's prices.
//  Status          – BookingActive, BookingCancelled or BookingReviewed.
//  BookedAt        – creation timestamp.
//  UpdatedAt       – last status change.
type Booking struct {
	ID              uint64    // bookings.id
	CustomerID      uint64    // bookings.customer_id
	ScheduleID      uint64    // bookings.schedule_id
	AdultCount      uint32    // bookings.adult_count
	ChildCount      uint32    // bookings.child_count
	TotalPriceCents uint32    // bookings.total_price_cents
	Status          uint8     // bookings.status
	BookedAt        time.Time // bookings.booked_at
	UpdatedAt       time.Time // bookings.updated_at
}

// Seats returns the total number of seats held by the booking.
func (b *Booking) Seats() uint32 { return b.AdultCount + b.ChildCount }

// Payment is a ledger entry recording that a booking has been paid.
// There is no gateway integration here; settlement happens outside
// this service and only the fact of payment is stored. One payment
// per booking is enforced by a unique key on booking_id.
type Payment struct {
	ID          uint64    // payments.id
	BookingID   uint64    // payments.booking_id (unique)
	AmountCents uint32    // payments.amount_cents
	Status      string    // payments.status (RECORDED)
	PaidAt      time.Time // payments.paid_at
}

// Review is a customer's rating of a tour. Tour and customer are
// always resolved from the reviewed booking, never taken from the
// request, so a caller cannot review on behalf of someone else or
// attach a review to an unrelated tour.
type Review struct {
	ID         uint64    // reviews.id
	TourID     uint64    // reviews.tour_id
	CustomerID uint64    // reviews.customer_id
	Rating     uint8     // reviews.rating (0–5)
	Comment    *string   // reviews.comment (nullable)
	CreatedAt  time.Time // reviews.created_at
}

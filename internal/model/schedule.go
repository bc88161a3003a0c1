package model

import "time"

// Schedule status values. A closed schedule accepts no new bookings;
// cancelling a booking reopens the schedule when seats are returned.
const (
	ScheduleClosed uint8 = 0 // schedules.status = 0
	ScheduleOpen   uint8 = 1 // schedules.status = 1
)

// Schedule is a concrete departure of a tour with its own date,
// pricing and remaining capacity. The Available counter is the
// single source of truth for how many seats can still be booked;
// it is only ever changed through conditional updates in the
// schedule repository so it can never go negative.
//
// Fields:
//  ID              – primary key identifier.
//  TourID          – tour this departure belongs to.
//  DepartsOn       – departure date (UTC, date precision).
//  AdultPriceCents – price per adult seat in cents.
//  ChildPriceCents – price per child seat in cents.
//  DiscountPercent – whole-number discount applied to the total (0–100).
//  Available       – seats still bookable.
//  Status          – ScheduleOpen or ScheduleClosed.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Schedule struct {
	ID              uint64    // schedules.id
	TourID          uint64    // schedules.tour_id
	DepartsOn       time.Time // schedules.departs_on (DATE)
	AdultPriceCents uint32    // schedules.adult_price_cents
	ChildPriceCents uint32    // schedules.child_price_cents
	DiscountPercent uint8     // schedules.discount_percent
	Available       uint32    // schedules.available
	Status          uint8     // schedules.status
	CreatedAt       time.Time // schedules.created_at
	UpdatedAt       time.Time // schedules.updated_at
}

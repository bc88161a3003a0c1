package model

import "time"

// Tour describes a bookable tour product. A tour belongs to one
// category and one location and can have many departure schedules.
// Inactive tours stay in the catalogue so historical bookings keep
// their references, but they are hidden from public browsing.
//
// Fields:
//  ID           – primary key identifier.
//  CategoryID   – category the tour is listed under.
//  LocationID   – destination location.
//  Name         – tour title shown to customers.
//  Description  – optional long description.
//  DurationDays – length of the tour in days.
//  IsActive     – whether the tour is publicly bookable.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Tour struct {
	ID           uint64    // tours.id
	CategoryID   uint64    // tours.category_id
	LocationID   uint64    // tours.location_id
	Name         string    // tours.name
	Description  *string   // tours.description (nullable)
	DurationDays uint32    // tours.duration_days
	IsActive     bool      // tours.is_active
	CreatedAt    time.Time // tours.created_at
	UpdatedAt    time.Time // tours.updated_at
}

// Category groups tours by theme (e.g. beach, trekking, culture).
type Category struct {
	ID          uint64    // categories.id
	Name        string    // categories.name (unique)
	Description *string   // categories.description (nullable)
	CreatedAt   time.Time // categories.created_at
	UpdatedAt   time.Time // categories.updated_at
}

// Location is a destination a tour departs to.
type Location struct {
	ID        uint64    // locations.id
	Name      string    // locations.name
	Region    *string   // locations.region (nullable)
	Country   string    // locations.country
	CreatedAt time.Time // locations.created_at
	UpdatedAt time.Time // locations.updated_at
}

// TourImage is a gallery image attached to a tour. The URL points at
// external media storage; this service only stores the reference.
// At most one image per tour should be flagged primary.
type TourImage struct {
	ID        uint64    // tour_images.id
	TourID    uint64    // tour_images.tour_id
	URL       string    // tour_images.url
	AltText   *string   // tour_images.alt_text (nullable)
	IsPrimary bool      // tour_images.is_primary
	CreatedAt time.Time // tour_images.created_at
}

package model

import "time"

// Customer is the traveller profile attached to a user account.
// Exactly one customer row exists per CUSTOMER user; it is created
// in the same transaction as the account during registration.
// Bookings and reviews reference customers, never users, so the
// auth schema can evolve without touching the booking tables.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owning user account (unique).
//  FullName  – display name used on bookings and reviews.
//  Phone     – contact phone number (optional).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Customer struct {
	ID        uint64    // customers.id
	UserID    uint64    // customers.user_id
	FullName  string    // customers.full_name
	Phone     *string   // customers.phone (nullable)
	CreatedAt time.Time // customers.created_at
	UpdatedAt time.Time // customers.updated_at
}

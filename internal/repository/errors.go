// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by
// someone else, while ErrConflict signals that an operation
// cannot proceed due to existing dependent records (e.g. deleting
// a tour with existing schedules) or a terminal booking status.
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as cancelling a
// booking that is already cancelled or removing a category that
// still has tours. Handlers should translate this into an HTTP
// 409 response.
var ErrConflict = errors.New("conflict")

// isDuplicateErr reports whether err is a MySQL duplicate-key
// violation (error 1062). The driver does not expose a typed error
// for this, so the code is matched in the message.
func isDuplicateErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// isFKConstraintErr reports whether err is a MySQL foreign-key
// violation raised when deleting a row that other rows still
// reference (error 1451).
func isFKConstraintErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1451")
}

// isFKMissingErr reports whether err is a MySQL foreign-key violation
// raised when inserting a row whose parent does not exist (error 1452).
func isFKMissingErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1452")
}

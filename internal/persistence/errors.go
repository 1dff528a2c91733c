package persistence

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("persistence: duplicate")
	// ErrForeignKeyViolation is returned when a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrConstraintViolation is returned for any other integrity violation.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)

// ConflictError is returned when a booking insert loses the race against
// overlapping active bookings committed since the caller last validated.
type ConflictError struct {
	BookingIDs []string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e == nil || len(e.BookingIDs) == 0 {
		return "persistence: booking conflict"
	}
	return fmt.Sprintf("persistence: booking conflict with %s", strings.Join(e.BookingIDs, ", "))
}

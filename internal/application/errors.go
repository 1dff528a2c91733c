package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/booking"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique resource attribute is already taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when authentication input cannot be matched to an account.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled is returned when the account exists but has been disabled.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrSessionExpired is returned when a refresh token points at an expired session.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a refresh token points at a revoked session.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// ConflictError is surfaced by BookingStore implementations when an insert
// loses the race against overlapping bookings committed after validation.
type ConflictError struct {
	BookingIDs []string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e == nil || len(e.BookingIDs) == 0 {
		return "booking conflict"
	}
	return fmt.Sprintf("booking conflict with %s", strings.Join(e.BookingIDs, ", "))
}

// BookingRejectedError reports why a booking request was refused: the policy
// violations found by validation and, for time conflicts, the IDs of the
// bookings already occupying the interval.
type BookingRejectedError struct {
	Violations  []booking.Violation
	ConflictIDs []string
}

// Error implements the error interface.
func (e *BookingRejectedError) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return "booking rejected"
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = string(v)
	}
	return fmt.Sprintf("booking rejected: %s", strings.Join(parts, ", "))
}

// Has reports whether the given violation is present.
func (e *BookingRejectedError) Has(v booking.Violation) bool {
	if e == nil {
		return false
	}
	for _, got := range e.Violations {
		if got == v {
			return true
		}
	}
	return false
}

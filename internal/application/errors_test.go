package application

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/booking"
)

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "unauthorized", err: ErrUnauthorized, want: "unauthorized"},
		{name: "wrapped not found", err: fmt.Errorf("load booking: %w", ErrNotFound), want: "not_found"},
		{name: "already exists", err: ErrAlreadyExists, want: "already_exists"},
		{name: "invalid credentials", err: ErrInvalidCredentials, want: "invalid_credentials"},
		{name: "account disabled", err: ErrAccountDisabled, want: "account_disabled"},
		{name: "session expired", err: ErrSessionExpired, want: "session_expired"},
		{name: "session revoked", err: ErrSessionRevoked, want: "session_revoked"},
		{name: "validation", err: &ValidationError{FieldErrors: map[string]string{"name": "required"}}, want: "validation"},
		{name: "booking rejected", err: &BookingRejectedError{Violations: []booking.Violation{booking.ViolationTooShort}}, want: "booking_rejected"},
		{name: "unexpected", err: errors.New("disk full"), want: "unexpected"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := ErrorKind(tc.err); got != tc.want {
				t.Fatalf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestBookingRejectedError(t *testing.T) {
	t.Parallel()

	rejected := &BookingRejectedError{
		Violations:  []booking.Violation{booking.ViolationTimeConflict, booking.ViolationTooLong},
		ConflictIDs: []string{"b1"},
	}

	if !rejected.Has(booking.ViolationTimeConflict) {
		t.Fatal("expected time_conflict to be present")
	}
	if rejected.Has(booking.ViolationTooShort) {
		t.Fatal("too_short must not be present")
	}
	if got := rejected.Error(); got != "booking rejected: time_conflict, too_long" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestValidationError_Merge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.add("name", "required")

	other := &ValidationError{}
	other.add("capacity", "must be positive")
	base.merge(other)

	if len(base.FieldErrors) != 2 {
		t.Fatalf("expected merged errors, got %v", base.FieldErrors)
	}
	if !base.HasErrors() {
		t.Fatal("expected HasErrors to report true")
	}
}

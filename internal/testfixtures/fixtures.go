// Package testfixtures provides deterministic clocks, identifier generators
// and model builders shared by tests across the repository.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/application"
)

var (
	userCounter    uint64
	roomCounter    uint64
	bookingCounter uint64
)

var referenceTime = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// UserOption configures a generated user fixture.
type UserOption func(*application.User)

// NewUserFixture returns a deterministic user with optional overrides.
func NewUserFixture(opts ...UserOption) application.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := application.User{
		ID:        id,
		Email:     fmt.Sprintf("%s@hcmut.edu.vn", id),
		FullName:  fmt.Sprintf("User %03d", idx),
		Role:      application.RoleStudent,
		Status:    application.UserStatusActive,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserRole overrides the generated role.
func WithUserRole(role string) UserOption {
	return func(u *application.User) {
		u.Role = role
	}
}

// WithUserStatus overrides the generated status.
func WithUserStatus(status string) UserOption {
	return func(u *application.User) {
		u.Status = status
	}
}

// RoomOption configures a generated room fixture.
type RoomOption func(*application.Room)

// NewRoomFixture returns a deterministic room with optional overrides.
func NewRoomFixture(opts ...RoomOption) application.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	room := application.Room{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("B4-%03d", idx),
		Building:  "B4",
		Campus:    "CS2",
		Capacity:  6,
		Status:    application.RoomStatusAvailable,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&room)
	}
	return room
}

// WithRoomCapacity overrides the generated capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(r *application.Room) {
		r.Capacity = capacity
	}
}

// WithRoomStatus overrides the generated status.
func WithRoomStatus(status string) RoomOption {
	return func(r *application.Room) {
		r.Status = status
	}
}

// BookingOption configures a generated booking fixture.
type BookingOption func(*application.Booking)

// NewBookingFixture returns a deterministic booking with optional overrides.
// The interval defaults to a one hour slot starting an hour after the
// reference time.
func NewBookingFixture(opts ...BookingOption) application.Booking {
	idx := atomic.AddUint64(&bookingCounter, 1)
	start := referenceTime.Add(time.Hour)
	model := application.Booking{
		ID:        fmt.Sprintf("booking-%03d", idx),
		RoomID:    "room-001",
		UserID:    "user-001",
		Start:     start,
		End:       start.Add(time.Hour),
		PartySize: 3,
		Status:    application.BookingStatusBooked,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&model)
	}
	return model
}

// WithBookingInterval overrides the booked interval.
func WithBookingInterval(start, end time.Time) BookingOption {
	return func(b *application.Booking) {
		b.Start = start
		b.End = end
	}
}

// WithBookingStatus overrides the booking status.
func WithBookingStatus(status string) BookingOption {
	return func(b *application.Booking) {
		b.Status = status
	}
}

// WithBookingOwner overrides the booking owner.
func WithBookingOwner(userID string) BookingOption {
	return func(b *application.Booking) {
		b.UserID = userID
	}
}

// WithBookingRoom overrides the booked room.
func WithBookingRoom(roomID string) BookingOption {
	return func(b *application.Booking) {
		b.RoomID = roomID
	}
}

package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// DeviceRepository exposes CRUD operations for room devices.
type DeviceRepository interface {
	CreateDevice(ctx context.Context, device Device) error
	UpdateDevice(ctx context.Context, device Device) error
	GetDevice(ctx context.Context, id string) (Device, error)
	ListDevicesForRoom(ctx context.Context, roomID string) ([]Device, error)
	DeleteDevice(ctx context.Context, id string) error
}

// BookingFilter narrows booking queries.
type BookingFilter struct {
	RoomID      string
	UserID      string
	Statuses    []string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// BookingRepository stores reservations. CreateBooking enforces the overlap
// invariant atomically: the conflict probe and the insert run in one
// transaction, and a lost race yields *ConflictError.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) error
	UpdateBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
}

// FeedbackRepository stores booking feedback.
type FeedbackRepository interface {
	CreateFeedback(ctx context.Context, feedback Feedback) error
	ListFeedbackForRoom(ctx context.Context, roomID string) ([]Feedback, error)
}

// ConfigRepository stores the key/value system configuration.
type ConfigRepository interface {
	UpsertConfig(ctx context.Context, entry ConfigEntry) error
	ListConfig(ctx context.Context) ([]ConfigEntry, error)
}

// SessionRepository stores refresh credential state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

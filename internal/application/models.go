package application

import "time"

// Roles recognised by the booking services.
const (
	RoleAdmin      = "admin"
	RoleLecturer   = "lecturer"
	RoleStudent    = "student"
	RoleTechnician = "technician"
)

// User account states.
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// Room availability states.
const (
	RoomStatusAvailable   = "available"
	RoomStatusMaintenance = "maintenance"
	RoomStatusClosed      = "closed"
)

// Booking lifecycle states. A booking occupies its room interval while in
// BookingStatusBooked or BookingStatusCheckedIn.
const (
	BookingStatusBooked     = "booked"
	BookingStatusCheckedIn  = "checked_in"
	BookingStatusCheckedOut = "checked_out"
	BookingStatusCancelled  = "cancelled"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// User represents an account exposed by the application services.
type User struct {
	ID        string
	Email     string
	FullName  string
	Role      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Email    string
	FullName string
	Password string
	Role     string
}

// CreateUserParams wraps the data required to register a user.
type CreateUserParams struct {
	Principal *Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	FullName  string
	Role      string
	Status    string
}

// Room represents a bookable learning space.
type Room struct {
	ID        string
	Name      string
	Building  string
	Campus    string
	Capacity  int
	Status    string
	Devices   []Device
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name     string
	Building string
	Campus   string
	Capacity int
	Status   string
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// Device represents a piece of equipment installed in a room.
type Device struct {
	ID        string
	RoomID    string
	Type      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DeviceInput captures caller provided device fields.
type DeviceInput struct {
	RoomID string
	Type   string
	Status string
}

// Booking represents a reservation of a room for a time interval.
type Booking struct {
	ID        string
	RoomID    string
	UserID    string
	Start     time.Time
	End       time.Time
	PartySize int
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BookingInput captures caller provided booking fields.
type BookingInput struct {
	RoomID    string
	Start     time.Time
	End       time.Time
	PartySize int
}

// CreateBookingParams wraps the data required to create a booking.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// ListBookingsParams wraps the data required to list bookings.
type ListBookingsParams struct {
	Principal   Principal
	RoomID      string
	UserID      string
	Statuses    []string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// Feedback represents a rating left for a completed booking.
type Feedback struct {
	ID        string
	BookingID string
	UserID    string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// CreateFeedbackParams wraps the data required to leave feedback.
type CreateFeedbackParams struct {
	Principal Principal
	BookingID string
	Rating    int
	Comment   string
}

// ConfigEntry represents one key/value pair of the admin-editable system configuration.
type ConfigEntry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Session represents a refresh credential issued to a user.
type Session struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// LoginParams captures the data required to authenticate a user.
type LoginParams struct {
	Email       string
	Password    string
	Fingerprint string
}

// LoginResult captures the outcome of a successful login: a signed access
// token plus the refresh session backing it.
type LoginResult struct {
	User          User
	AccessToken   string
	AccessExpires time.Time
	Session       Session
}

// RefreshSessionParams captures the data required to refresh an existing session.
type RefreshSessionParams struct {
	Token       string
	Fingerprint string
}

// RefreshSessionResult captures the outcome of rotating a session token.
type RefreshSessionResult struct {
	AccessToken   string
	AccessExpires time.Time
	Session       Session
}

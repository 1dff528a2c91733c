package persistence

import "time"

// User represents an account stored for the booking service.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Role         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room represents a bookable learning space.
type Room struct {
	ID        string
	Name      string
	Building  string
	Campus    string
	Capacity  int
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
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

// Feedback represents a rating left for a completed booking.
type Feedback struct {
	ID        string
	BookingID string
	UserID    string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// ConfigEntry represents one key/value pair of the admin-editable system configuration.
type ConfigEntry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Session represents a refresh credential persisted for a user.
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

package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// APIError carries a structured server rejection.
type APIError struct {
	StatusCode  int
	ErrorCode   string
	Message     string
	FieldErrors map[string]string
	Violations  []string
	ConflictIDs []string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "request rejected"
	}
	if e.ErrorCode != "" {
		return fmt.Sprintf("%s (%s, status %d)", msg, e.ErrorCode, e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
}

// HasViolation reports whether the rejection lists the given policy violation.
func (e *APIError) HasViolation(violation string) bool {
	if e == nil {
		return false
	}
	for _, v := range e.Violations {
		if v == violation {
			return true
		}
	}
	return false
}

// User mirrors the account payload returned by the server.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

// Room mirrors the room catalog payload returned by the server.
type Room struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Building string   `json:"building"`
	Campus   string   `json:"campus"`
	Capacity int      `json:"capacity"`
	Status   string   `json:"status"`
	Devices  []Device `json:"devices,omitempty"`
}

// Device mirrors the equipment payload returned by the server.
type Device struct {
	ID     string `json:"id"`
	RoomID string `json:"room_id"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// Booking mirrors the reservation payload returned by the server.
type Booking struct {
	ID        string `json:"id"`
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	PartySize int    `json:"party_size"`
	Status    string `json:"status"`
}

// BookingRequest is the payload for creating a reservation.
type BookingRequest struct {
	RoomID    string    `json:"room_id"`
	Start     time.Time `json:"-"`
	End       time.Time `json:"-"`
	PartySize int       `json:"party_size"`
}

type roomsEnvelope struct {
	Rooms []Room `json:"rooms"`
}

type bookingEnvelope struct {
	Booking Booking `json:"booking"`
}

type bookingsEnvelope struct {
	Bookings []Booking `json:"bookings"`
}

type configEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type configEnvelope struct {
	Config []configEntry `json:"config"`
}

type highlightedDatesEnvelope struct {
	Dates []string `json:"dates"`
}

type createBookingPayload struct {
	RoomID    string `json:"room_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	PartySize int    `json:"party_size"`
}

// Rooms fetches the room catalog.
func (c *Client) Rooms(ctx context.Context) ([]Room, error) {
	var out roomsEnvelope
	if err := c.doJSON(ctx, "GET", "/rooms", nil, &out); err != nil {
		return nil, err
	}
	return out.Rooms, nil
}

// RoomBookings fetches the active bookings for one room, optionally bounded
// by a time window.
func (c *Client) RoomBookings(ctx context.Context, roomID string, from, until *time.Time) ([]Booking, error) {
	query := url.Values{}
	query.Set("room_id", roomID)
	if from != nil {
		query.Set("from", from.UTC().Format(time.RFC3339))
	}
	if until != nil {
		query.Set("until", until.UTC().Format(time.RFC3339))
	}

	var out bookingsEnvelope
	if err := c.doJSON(ctx, "GET", "/bookings?"+query.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Bookings, nil
}

// HighlightedDates fetches the dates carrying at least one active booking for
// one room, for calendar decoration.
func (c *Client) HighlightedDates(ctx context.Context, roomID string) ([]string, error) {
	var out highlightedDatesEnvelope
	if err := c.doJSON(ctx, "GET", "/rooms/"+url.PathEscape(roomID)+"/highlighted-dates", nil, &out); err != nil {
		return nil, err
	}
	return out.Dates, nil
}

// PolicyConfig fetches the booking policy configuration as a key/value map.
func (c *Client) PolicyConfig(ctx context.Context) (map[string]string, error) {
	var out configEnvelope
	if err := c.doJSON(ctx, "GET", "/config", nil, &out); err != nil {
		return nil, err
	}
	values := make(map[string]string, len(out.Config))
	for _, entry := range out.Config {
		values[entry.Key] = entry.Value
	}
	return values, nil
}

// CreateBooking submits a reservation. Policy rejections come back as an
// *APIError carrying the violation list and any conflicting booking IDs.
func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (Booking, error) {
	payload := createBookingPayload{
		RoomID:    req.RoomID,
		Start:     req.Start.UTC().Format(time.RFC3339),
		End:       req.End.UTC().Format(time.RFC3339),
		PartySize: req.PartySize,
	}

	var out bookingEnvelope
	if err := c.doJSON(ctx, "POST", "/bookings", payload, &out); err != nil {
		return Booking{}, err
	}
	return out.Booking, nil
}

// CancelBooking cancels a reservation.
func (c *Client) CancelBooking(ctx context.Context, bookingID string) (Booking, error) {
	var out bookingEnvelope
	if err := c.doJSON(ctx, "DELETE", "/bookings/"+url.PathEscape(bookingID), nil, &out); err != nil {
		return Booking{}, err
	}
	return out.Booking, nil
}

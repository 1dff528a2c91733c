package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/booking"
)

// BookingStoreFilter narrows booking listings.
type BookingStoreFilter struct {
	RoomID      string
	UserID      string
	Statuses    []string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// BookingStore captures the persistence interactions for bookings. CreateBooking
// must reject overlapping active bookings atomically and report the winners
// through *ConflictError.
type BookingStore interface {
	CreateBooking(ctx context.Context, booking Booking) (Booking, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
	UpdateBooking(ctx context.Context, booking Booking) (Booking, error)
	ListBookings(ctx context.Context, filter BookingStoreFilter) ([]Booking, error)
}

// RoomCatalog exposes the room lookups required by the booking service.
type RoomCatalog interface {
	GetRoom(ctx context.Context, id string) (Room, error)
}

// PolicyProvider resolves the booking policy applying to a role.
type PolicyProvider interface {
	PolicyForRole(ctx context.Context, role string) (booking.Policy, error)
	Location() *time.Location
}

// BookingEvent notifies stream subscribers of a booking lifecycle change.
type BookingEvent struct {
	Type    string
	Booking Booking
	At      time.Time
}

// Booking lifecycle event types.
const (
	BookingEventCreated    = "booking_created"
	BookingEventCancelled  = "booking_cancelled"
	BookingEventCheckedIn  = "booking_checked_in"
	BookingEventCheckedOut = "booking_checked_out"
)

// EventPublisher broadcasts booking lifecycle events. Implementations must not block.
type EventPublisher interface {
	PublishBookingEvent(event BookingEvent)
}

// BookingService coordinates reservation creation and lifecycle transitions.
// Creation validates the candidate against the role policy and the room's
// active bookings, then defers the final overlap decision to the store so a
// concurrent insert cannot slip past validation.
type BookingService struct {
	bookings    BookingStore
	rooms       RoomCatalog
	policies    PolicyProvider
	events      EventPublisher
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService constructs a BookingService with the provided dependencies.
func NewBookingService(bookings BookingStore, rooms RoomCatalog, policies PolicyProvider, events EventPublisher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings:    bookings,
		rooms:       rooms,
		policies:    policies,
		events:      events,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// CreateBooking validates and persists a new reservation.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (created Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil || s.rooms == nil || s.policies == nil {
		err = fmt.Errorf("booking service dependencies not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateBooking",
		"user_id", params.Principal.UserID,
		"room_id", params.Input.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "booking creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", created.ID).InfoContext(ctx, "booking created")
	}()

	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}
	if strings.TrimSpace(params.Input.RoomID) == "" {
		vErr := &ValidationError{}
		vErr.add("room_id", "room is required")
		err = vErr
		return
	}

	var room Room
	room, err = s.rooms.GetRoom(ctx, params.Input.RoomID)
	if err != nil {
		return
	}
	if room.Status != RoomStatusAvailable {
		vErr := &ValidationError{}
		vErr.add("room_id", "room is not available for booking")
		err = vErr
		return
	}

	var policy booking.Policy
	policy, err = s.policies.PolicyForRole(ctx, params.Principal.Role)
	if err != nil {
		return
	}

	now := s.now()
	existing, err := s.activeReservations(ctx, room.ID)
	if err != nil {
		return
	}

	candidate := booking.Candidate{
		RoomID:    room.ID,
		Start:     params.Input.Start,
		End:       params.Input.End,
		PartySize: params.Input.PartySize,
	}
	result := booking.Validate(candidate, room.Capacity, existing, policy, now)
	if !result.OK() {
		err = &BookingRejectedError{Violations: result.Violations, ConflictIDs: result.ConflictIDs}
		return
	}

	if err = s.checkWeeklyQuota(ctx, params.Principal, policy, params.Input.Start); err != nil {
		return
	}

	model := Booking{
		ID:        s.idGenerator(),
		RoomID:    room.ID,
		UserID:    params.Principal.UserID,
		Start:     params.Input.Start,
		End:       params.Input.End,
		PartySize: params.Input.PartySize,
		Status:    BookingStatusBooked,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err = s.bookings.CreateBooking(ctx, model)
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			// Lost the race: an overlapping booking committed after validation.
			err = &BookingRejectedError{
				Violations:  []booking.Violation{booking.ViolationTimeConflict},
				ConflictIDs: conflict.BookingIDs,
			}
		}
		return
	}

	s.publish(BookingEventCreated, created, now)
	return
}

// CancelBooking cancels a booking that has not been checked in yet. Only the
// owner or an admin may cancel.
func (s *BookingService) CancelBooking(ctx context.Context, principal Principal, bookingID string) (Booking, error) {
	return s.transition(ctx, "CancelBooking", principal, bookingID, BookingStatusBooked, BookingStatusCancelled, BookingEventCancelled, true)
}

// CheckIn marks a booked reservation as occupied. Only the owner may check in.
func (s *BookingService) CheckIn(ctx context.Context, principal Principal, bookingID string) (Booking, error) {
	return s.transition(ctx, "CheckIn", principal, bookingID, BookingStatusBooked, BookingStatusCheckedIn, BookingEventCheckedIn, false)
}

// CheckOut releases an occupied room. Only the owner may check out.
func (s *BookingService) CheckOut(ctx context.Context, principal Principal, bookingID string) (Booking, error) {
	return s.transition(ctx, "CheckOut", principal, bookingID, BookingStatusCheckedIn, BookingStatusCheckedOut, BookingEventCheckedOut, false)
}

func (s *BookingService) transition(ctx context.Context, operation string, principal Principal, bookingID, fromStatus, toStatus, eventType string, adminMayAct bool) (updated Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking store not configured")
		return
	}

	logger := s.loggerWith(ctx, operation,
		"user_id", principal.UserID,
		"booking_id", bookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "booking transition failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", updated.Status).InfoContext(ctx, "booking transitioned")
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	var current Booking
	current, err = s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return
	}

	if current.UserID != principal.UserID && !(adminMayAct && principal.IsAdmin()) {
		err = ErrUnauthorized
		return
	}
	if current.Status != fromStatus {
		vErr := &ValidationError{}
		vErr.add("status", fmt.Sprintf("booking is %s, expected %s", current.Status, fromStatus))
		err = vErr
		return
	}

	now := s.now()
	current.Status = toStatus
	current.UpdatedAt = now

	updated, err = s.bookings.UpdateBooking(ctx, current)
	if err != nil {
		return
	}

	s.publish(eventType, updated, now)
	return
}

// GetBooking returns one booking. Non-admins may only read their own.
func (s *BookingService) GetBooking(ctx context.Context, principal Principal, bookingID string) (Booking, error) {
	if s == nil || s.bookings == nil {
		return Booking{}, fmt.Errorf("booking store not configured")
	}
	model, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return Booking{}, err
	}
	if model.UserID != principal.UserID && !principal.IsAdmin() {
		return Booking{}, ErrUnauthorized
	}
	return model, nil
}

// ListBookings returns bookings matching the filter. Room-scoped listings are
// open to any authenticated user so availability can be inspected; listing by
// user is restricted to the requester unless they are an admin.
func (s *BookingService) ListBookings(ctx context.Context, params ListBookingsParams) ([]Booking, error) {
	if s == nil || s.bookings == nil {
		return nil, fmt.Errorf("booking store not configured")
	}
	if params.Principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	userID := params.UserID
	if params.RoomID == "" && userID == "" {
		userID = params.Principal.UserID
	}
	if userID != "" && userID != params.Principal.UserID && !params.Principal.IsAdmin() {
		return nil, ErrUnauthorized
	}

	return s.bookings.ListBookings(ctx, BookingStoreFilter{
		RoomID:      params.RoomID,
		UserID:      userID,
		Statuses:    params.Statuses,
		StartsAfter: params.StartsAfter,
		EndsBefore:  params.EndsBefore,
	})
}

// HighlightedDates returns the in-window civil dates on which the room already
// holds at least one active booking, for calendar decoration.
func (s *BookingService) HighlightedDates(ctx context.Context, principal Principal, roomID string) ([]string, error) {
	if s == nil || s.bookings == nil || s.policies == nil {
		return nil, fmt.Errorf("booking service dependencies not configured")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	policy, err := s.policies.PolicyForRole(ctx, principal.Role)
	if err != nil {
		return nil, err
	}
	existing, err := s.activeReservations(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return booking.HighlightedDates(existing, policy, s.now()), nil
}

func (s *BookingService) activeReservations(ctx context.Context, roomID string) ([]booking.Reservation, error) {
	models, err := s.bookings.ListBookings(ctx, BookingStoreFilter{
		RoomID:   roomID,
		Statuses: []string{BookingStatusBooked, BookingStatusCheckedIn},
	})
	if err != nil {
		return nil, err
	}
	reservations := make([]booking.Reservation, 0, len(models))
	for _, model := range models {
		reservations = append(reservations, booking.Reservation{
			ID:     model.ID,
			RoomID: model.RoomID,
			Start:  model.Start,
			End:    model.End,
			Active: model.Status == BookingStatusBooked || model.Status == BookingStatusCheckedIn,
		})
	}
	return reservations, nil
}

// checkWeeklyQuota counts the requester's active bookings inside the
// Monday-start week containing the candidate start.
func (s *BookingService) checkWeeklyQuota(ctx context.Context, principal Principal, policy booking.Policy, start time.Time) error {
	if policy.MaxPerWeek <= 0 {
		return nil
	}

	loc := time.UTC
	if s.policies != nil && s.policies.Location() != nil {
		loc = s.policies.Location()
	}
	weekStart, weekEnd := weekBounds(start, loc)

	existing, err := s.bookings.ListBookings(ctx, BookingStoreFilter{
		UserID:      principal.UserID,
		Statuses:    []string{BookingStatusBooked, BookingStatusCheckedIn},
		StartsAfter: &weekStart,
		EndsBefore:  &weekEnd,
	})
	if err != nil {
		return err
	}
	if len(existing) >= policy.MaxPerWeek {
		return &BookingRejectedError{Violations: []booking.Violation{booking.ViolationWeeklyQuotaExceeded}}
	}
	return nil
}

func (s *BookingService) publish(eventType string, model Booking, at time.Time) {
	if s.events == nil {
		return
	}
	s.events.PublishBookingEvent(BookingEvent{Type: eventType, Booking: model, At: at})
}

// weekBounds returns the half-open [monday, next monday) interval containing t.
func weekBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 7)
}

package main

import (
	"context"
	"errors"
	"time"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/application"
	"github.com/nguyen2966/hcmut-rooms-booking/internal/obs"
	"github.com/nguyen2966/hcmut-rooms-booking/internal/persistence"
)

// mapRepoError translates persistence sentinels into the application error
// vocabulary. Services only ever see application errors; the booking
// conflict carries its loser IDs across the boundary.
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}

	var conflict *persistence.ConflictError
	if errors.As(err, &conflict) {
		return &application.ConflictError{BookingIDs: append([]string(nil), conflict.BookingIDs...)}
	}

	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return application.ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return application.ErrAlreadyExists
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return application.ErrNotFound
	}
	return err
}

type userStoreAdapter struct {
	repo persistence.UserRepository
}

func newUserStoreAdapter(repo persistence.UserRepository) *userStoreAdapter {
	return &userStoreAdapter{repo: repo}
}

func (a *userStoreAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, mapRepoError(err)
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, mapRepoError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapRepoError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userStoreAdapter) UpdateUser(ctx context.Context, user application.User) (application.User, error) {
	current, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, mapRepoError(err)
	}
	if err := a.repo.UpdateUser(ctx, toPersistenceUser(user, current.PasswordHash)); err != nil {
		return application.User{}, mapRepoError(err)
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, mapRepoError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userStoreAdapter) DeleteUser(ctx context.Context, id string) error {
	return mapRepoError(a.repo.DeleteUser(ctx, id))
}

func (a *userStoreAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

type credentialStoreAdapter struct {
	repo persistence.UserRepository
}

func newCredentialStoreAdapter(repo persistence.UserRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, mapRepoError(err)
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *credentialStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapRepoError(err)
	}
	return toApplicationUser(stored), nil
}

type roomStoreAdapter struct {
	repo persistence.RoomRepository
}

func newRoomStoreAdapter(repo persistence.RoomRepository) *roomStoreAdapter {
	return &roomStoreAdapter{repo: repo}
}

func (a *roomStoreAdapter) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.CreateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, mapRepoError(err)
	}
	stored, err := a.repo.GetRoom(ctx, room.ID)
	if err != nil {
		return application.Room{}, mapRepoError(err)
	}
	return toApplicationRoom(stored), nil
}

func (a *roomStoreAdapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, mapRepoError(err)
	}
	return toApplicationRoom(stored), nil
}

func (a *roomStoreAdapter) UpdateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.UpdateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, mapRepoError(err)
	}
	stored, err := a.repo.GetRoom(ctx, room.ID)
	if err != nil {
		return application.Room{}, mapRepoError(err)
	}
	return toApplicationRoom(stored), nil
}

func (a *roomStoreAdapter) DeleteRoom(ctx context.Context, id string) error {
	return mapRepoError(a.repo.DeleteRoom(ctx, id))
}

func (a *roomStoreAdapter) ListRooms(ctx context.Context) ([]application.Room, error) {
	models, err := a.repo.ListRooms(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	rooms := make([]application.Room, 0, len(models))
	for _, model := range models {
		rooms = append(rooms, toApplicationRoom(model))
	}
	return rooms, nil
}

type deviceStoreAdapter struct {
	repo persistence.DeviceRepository
}

func newDeviceStoreAdapter(repo persistence.DeviceRepository) *deviceStoreAdapter {
	return &deviceStoreAdapter{repo: repo}
}

func (a *deviceStoreAdapter) CreateDevice(ctx context.Context, device application.Device) (application.Device, error) {
	if err := a.repo.CreateDevice(ctx, toPersistenceDevice(device)); err != nil {
		return application.Device{}, mapRepoError(err)
	}
	stored, err := a.repo.GetDevice(ctx, device.ID)
	if err != nil {
		return application.Device{}, mapRepoError(err)
	}
	return toApplicationDevice(stored), nil
}

func (a *deviceStoreAdapter) GetDevice(ctx context.Context, id string) (application.Device, error) {
	stored, err := a.repo.GetDevice(ctx, id)
	if err != nil {
		return application.Device{}, mapRepoError(err)
	}
	return toApplicationDevice(stored), nil
}

func (a *deviceStoreAdapter) UpdateDevice(ctx context.Context, device application.Device) (application.Device, error) {
	if err := a.repo.UpdateDevice(ctx, toPersistenceDevice(device)); err != nil {
		return application.Device{}, mapRepoError(err)
	}
	stored, err := a.repo.GetDevice(ctx, device.ID)
	if err != nil {
		return application.Device{}, mapRepoError(err)
	}
	return toApplicationDevice(stored), nil
}

func (a *deviceStoreAdapter) DeleteDevice(ctx context.Context, id string) error {
	return mapRepoError(a.repo.DeleteDevice(ctx, id))
}

func (a *deviceStoreAdapter) ListDevicesForRoom(ctx context.Context, roomID string) ([]application.Device, error) {
	models, err := a.repo.ListDevicesForRoom(ctx, roomID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	devices := make([]application.Device, 0, len(models))
	for _, model := range models {
		devices = append(devices, toApplicationDevice(model))
	}
	return devices, nil
}

type bookingStoreAdapter struct {
	repo persistence.BookingRepository
}

func newBookingStoreAdapter(repo persistence.BookingRepository) *bookingStoreAdapter {
	return &bookingStoreAdapter{repo: repo}
}

func (a *bookingStoreAdapter) CreateBooking(ctx context.Context, booking application.Booking) (application.Booking, error) {
	if err := a.repo.CreateBooking(ctx, toPersistenceBooking(booking)); err != nil {
		return application.Booking{}, mapRepoError(err)
	}
	stored, err := a.repo.GetBooking(ctx, booking.ID)
	if err != nil {
		return application.Booking{}, mapRepoError(err)
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingStoreAdapter) GetBooking(ctx context.Context, id string) (application.Booking, error) {
	stored, err := a.repo.GetBooking(ctx, id)
	if err != nil {
		return application.Booking{}, mapRepoError(err)
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingStoreAdapter) UpdateBooking(ctx context.Context, booking application.Booking) (application.Booking, error) {
	if err := a.repo.UpdateBooking(ctx, toPersistenceBooking(booking)); err != nil {
		return application.Booking{}, mapRepoError(err)
	}
	stored, err := a.repo.GetBooking(ctx, booking.ID)
	if err != nil {
		return application.Booking{}, mapRepoError(err)
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingStoreAdapter) ListBookings(ctx context.Context, filter application.BookingStoreFilter) ([]application.Booking, error) {
	models, err := a.repo.ListBookings(ctx, persistence.BookingFilter{
		RoomID:      filter.RoomID,
		UserID:      filter.UserID,
		Statuses:    append([]string(nil), filter.Statuses...),
		StartsAfter: filter.StartsAfter,
		EndsBefore:  filter.EndsBefore,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	bookings := make([]application.Booking, 0, len(models))
	for _, model := range models {
		bookings = append(bookings, toApplicationBooking(model))
	}
	return bookings, nil
}

type feedbackStoreAdapter struct {
	repo persistence.FeedbackRepository
}

func newFeedbackStoreAdapter(repo persistence.FeedbackRepository) *feedbackStoreAdapter {
	return &feedbackStoreAdapter{repo: repo}
}

func (a *feedbackStoreAdapter) CreateFeedback(ctx context.Context, feedback application.Feedback) (application.Feedback, error) {
	if err := a.repo.CreateFeedback(ctx, toPersistenceFeedback(feedback)); err != nil {
		return application.Feedback{}, mapRepoError(err)
	}
	return feedback, nil
}

func (a *feedbackStoreAdapter) ListFeedbackForRoom(ctx context.Context, roomID string) ([]application.Feedback, error) {
	models, err := a.repo.ListFeedbackForRoom(ctx, roomID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	feedback := make([]application.Feedback, 0, len(models))
	for _, model := range models {
		feedback = append(feedback, toApplicationFeedback(model))
	}
	return feedback, nil
}

type configStoreAdapter struct {
	repo persistence.ConfigRepository
}

func newConfigStoreAdapter(repo persistence.ConfigRepository) *configStoreAdapter {
	return &configStoreAdapter{repo: repo}
}

func (a *configStoreAdapter) UpsertConfig(ctx context.Context, entry application.ConfigEntry) error {
	return mapRepoError(a.repo.UpsertConfig(ctx, persistence.ConfigEntry{
		Key:       entry.Key,
		Value:     entry.Value,
		UpdatedAt: entry.UpdatedAt,
	}))
}

func (a *configStoreAdapter) ListConfig(ctx context.Context) ([]application.ConfigEntry, error) {
	models, err := a.repo.ListConfig(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	entries := make([]application.ConfigEntry, 0, len(models))
	for _, model := range models {
		entries = append(entries, application.ConfigEntry{
			Key:       model.Key,
			Value:     model.Value,
			UpdatedAt: model.UpdatedAt,
		})
	}
	return entries, nil
}

type sessionStoreAdapter struct {
	repo persistence.SessionRepository
}

func newSessionStoreAdapter(repo persistence.SessionRepository) *sessionStoreAdapter {
	return &sessionStoreAdapter{repo: repo}
}

func (a *sessionStoreAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, mapRepoError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionStoreAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, mapRepoError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionStoreAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.UpdateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, mapRepoError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionStoreAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, mapRepoError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionStoreAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return mapRepoError(a.repo.DeleteExpiredSessions(ctx, reference))
}

// meteredBookingService counts booking decisions on top of the real service
// so the decision rate shows up on /metrics.
type meteredBookingService struct {
	service *application.BookingService
}

func newMeteredBookingService(service *application.BookingService) *meteredBookingService {
	return &meteredBookingService{service: service}
}

func (m *meteredBookingService) CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.Booking, error) {
	created, err := m.service.CreateBooking(ctx, params)
	switch {
	case err == nil:
		obs.CountBookingDecision("created")
	case isRejection(err):
		obs.CountBookingDecision("rejected")
	}
	return created, err
}

func (m *meteredBookingService) CancelBooking(ctx context.Context, principal application.Principal, bookingID string) (application.Booking, error) {
	booking, err := m.service.CancelBooking(ctx, principal, bookingID)
	if err == nil {
		obs.CountBookingDecision("cancelled")
	}
	return booking, err
}

func (m *meteredBookingService) CheckIn(ctx context.Context, principal application.Principal, bookingID string) (application.Booking, error) {
	booking, err := m.service.CheckIn(ctx, principal, bookingID)
	if err == nil {
		obs.CountBookingDecision("checked_in")
	}
	return booking, err
}

func (m *meteredBookingService) CheckOut(ctx context.Context, principal application.Principal, bookingID string) (application.Booking, error) {
	booking, err := m.service.CheckOut(ctx, principal, bookingID)
	if err == nil {
		obs.CountBookingDecision("checked_out")
	}
	return booking, err
}

func (m *meteredBookingService) GetBooking(ctx context.Context, principal application.Principal, bookingID string) (application.Booking, error) {
	return m.service.GetBooking(ctx, principal, bookingID)
}

func (m *meteredBookingService) ListBookings(ctx context.Context, params application.ListBookingsParams) ([]application.Booking, error) {
	return m.service.ListBookings(ctx, params)
}

func isRejection(err error) bool {
	var rejected *application.BookingRejectedError
	return errors.As(err, &rejected)
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:        model.ID,
		Email:     model.Email,
		FullName:  model.FullName,
		Role:      model.Role,
		Status:    model.Status,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		FullName:     user.FullName,
		PasswordHash: passwordHash,
		Role:         user.Role,
		Status:       user.Status,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationRoom(model persistence.Room) application.Room {
	return application.Room{
		ID:        model.ID,
		Name:      model.Name,
		Building:  model.Building,
		Campus:    model.Campus,
		Capacity:  model.Capacity,
		Status:    model.Status,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{
		ID:        room.ID,
		Name:      room.Name,
		Building:  room.Building,
		Campus:    room.Campus,
		Capacity:  room.Capacity,
		Status:    room.Status,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}

func toApplicationDevice(model persistence.Device) application.Device {
	return application.Device{
		ID:        model.ID,
		RoomID:    model.RoomID,
		Type:      model.Type,
		Status:    model.Status,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceDevice(device application.Device) persistence.Device {
	return persistence.Device{
		ID:        device.ID,
		RoomID:    device.RoomID,
		Type:      device.Type,
		Status:    device.Status,
		CreatedAt: device.CreatedAt,
		UpdatedAt: device.UpdatedAt,
	}
}

func toApplicationBooking(model persistence.Booking) application.Booking {
	return application.Booking{
		ID:        model.ID,
		RoomID:    model.RoomID,
		UserID:    model.UserID,
		Start:     model.Start,
		End:       model.End,
		PartySize: model.PartySize,
		Status:    model.Status,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceBooking(booking application.Booking) persistence.Booking {
	return persistence.Booking{
		ID:        booking.ID,
		RoomID:    booking.RoomID,
		UserID:    booking.UserID,
		Start:     booking.Start,
		End:       booking.End,
		PartySize: booking.PartySize,
		Status:    booking.Status,
		CreatedAt: booking.CreatedAt,
		UpdatedAt: booking.UpdatedAt,
	}
}

func toApplicationFeedback(model persistence.Feedback) application.Feedback {
	return application.Feedback{
		ID:        model.ID,
		BookingID: model.BookingID,
		UserID:    model.UserID,
		Rating:    model.Rating,
		Comment:   model.Comment,
		CreatedAt: model.CreatedAt,
	}
}

func toPersistenceFeedback(feedback application.Feedback) persistence.Feedback {
	return persistence.Feedback{
		ID:        feedback.ID,
		BookingID: feedback.BookingID,
		UserID:    feedback.UserID,
		Rating:    feedback.Rating,
		Comment:   feedback.Comment,
		CreatedAt: feedback.CreatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:          model.ID,
		UserID:      model.UserID,
		Token:       model.Token,
		Fingerprint: model.Fingerprint,
		ExpiresAt:   model.ExpiresAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		RevokedAt:   cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:          session.ID,
		UserID:      session.UserID,
		Token:       session.Token,
		Fingerprint: session.Fingerprint,
		ExpiresAt:   session.ExpiresAt,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
		RevokedAt:   cloneTime(session.RevokedAt),
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

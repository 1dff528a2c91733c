package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// FeedbackStore captures the persistence operations needed by the feedback service.
type FeedbackStore interface {
	CreateFeedback(ctx context.Context, feedback Feedback) (Feedback, error)
	ListFeedbackForRoom(ctx context.Context, roomID string) ([]Feedback, error)
}

// BookingReader exposes the booking lookup the feedback service needs.
type BookingReader interface {
	GetBooking(ctx context.Context, id string) (Booking, error)
}

// FeedbackService lets users rate a booking after checking out.
type FeedbackService struct {
	feedback    FeedbackStore
	bookings    BookingReader
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewFeedbackService constructs a feedback service with the provided dependencies.
func NewFeedbackService(feedback FeedbackStore, bookings BookingReader, idGenerator func() string, now func() time.Time, logger *slog.Logger) *FeedbackService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &FeedbackService{feedback: feedback, bookings: bookings, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *FeedbackService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "FeedbackService", operation, attrs...)
}

// CreateFeedback records a rating for a booking the principal completed.
func (s *FeedbackService) CreateFeedback(ctx context.Context, params CreateFeedbackParams) (feedback Feedback, err error) {
	if s == nil {
		err = fmt.Errorf("FeedbackService is nil")
		return
	}
	if s.feedback == nil || s.bookings == nil {
		err = fmt.Errorf("feedback service dependencies not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateFeedback",
		"principal_id", params.Principal.UserID,
		"booking_id", params.BookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create feedback", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("feedback_id", feedback.ID).InfoContext(ctx, "feedback created")
	}()

	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	if params.Rating < 1 || params.Rating > 5 {
		vErr.add("rating", "rating must be between 1 and 5")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var model Booking
	model, err = s.bookings.GetBooking(ctx, params.BookingID)
	if err != nil {
		return
	}
	if model.UserID != params.Principal.UserID {
		err = ErrUnauthorized
		return
	}
	if model.Status != BookingStatusCheckedOut {
		vErr.add("booking_id", "feedback is only accepted after checking out")
		err = vErr
		return
	}

	feedback = Feedback{
		ID:        s.idGenerator(),
		BookingID: model.ID,
		UserID:    params.Principal.UserID,
		Rating:    params.Rating,
		Comment:   strings.TrimSpace(params.Comment),
		CreatedAt: s.now(),
	}
	feedback, err = s.feedback.CreateFeedback(ctx, feedback)
	return
}

// ListFeedbackForRoom returns a room's feedback for any authenticated user.
func (s *FeedbackService) ListFeedbackForRoom(ctx context.Context, principal Principal, roomID string) ([]Feedback, error) {
	if s == nil || s.feedback == nil {
		return nil, fmt.Errorf("feedback store not configured")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	return s.feedback.ListFeedbackForRoom(ctx, roomID)
}

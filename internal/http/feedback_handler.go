package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/application"
)

type feedbackService interface {
	CreateFeedback(ctx context.Context, params application.CreateFeedbackParams) (application.Feedback, error)
}

// FeedbackHandler serves feedback submission.
type FeedbackHandler struct {
	service   feedbackService
	responder responder
	logger    *slog.Logger
}

// NewFeedbackHandler constructs a feedback handler.
func NewFeedbackHandler(service feedbackService, logger *slog.Logger) *FeedbackHandler {
	base := defaultLogger(logger)
	return &FeedbackHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *FeedbackHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "FeedbackHandler", operation, attrs...)
}

// Create records a rating for a completed booking.
func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode feedback request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "booking_id", req.BookingID)

	feedback, err := h.service.CreateFeedback(r.Context(), application.CreateFeedbackParams{
		Principal: principal,
		BookingID: strings.TrimSpace(req.BookingID),
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "feedback creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("feedback_id", feedback.ID).InfoContext(r.Context(), "feedback created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, feedbackResponse{Feedback: toFeedbackDTO(feedback)})
}

type feedbackRequest struct {
	BookingID string `json:"booking_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type feedbackResponse struct {
	Feedback feedbackDTO `json:"feedback"`
}

type listFeedbackResponse struct {
	Feedback []feedbackDTO `json:"feedback"`
}

type feedbackDTO struct {
	ID        string `json:"id"`
	BookingID string `json:"booking_id"`
	UserID    string `json:"user_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toFeedbackDTO(feedback application.Feedback) feedbackDTO {
	return feedbackDTO{
		ID:        feedback.ID,
		BookingID: feedback.BookingID,
		UserID:    feedback.UserID,
		Rating:    feedback.Rating,
		Comment:   feedback.Comment,
		CreatedAt: feedback.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toFeedbackDTOs(feedback []application.Feedback) []feedbackDTO {
	if len(feedback) == 0 {
		return nil
	}
	out := make([]feedbackDTO, 0, len(feedback))
	for _, entry := range feedback {
		out = append(out, toFeedbackDTO(entry))
	}
	return out
}

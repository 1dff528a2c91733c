package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/persistence"
)

// FeedbackRepository implements persistence.FeedbackRepository on SQLite.
type FeedbackRepository struct {
	store *Store
}

// NewFeedbackRepository wires a feedback repository onto the store.
func NewFeedbackRepository(store *Store) *FeedbackRepository {
	return &FeedbackRepository{store: store}
}

// CreateFeedback stores a new feedback entry.
func (r *FeedbackRepository) CreateFeedback(ctx context.Context, feedback persistence.Feedback) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO feedback (id, booking_id, user_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		feedback.ID,
		feedback.BookingID,
		feedback.UserID,
		feedback.Rating,
		feedback.Comment,
		formatTime(feedback.CreatedAt),
	)
	return mapError(err)
}

// ListFeedbackForRoom returns feedback joined through the room's bookings.
func (r *FeedbackRepository) ListFeedbackForRoom(ctx context.Context, roomID string) ([]persistence.Feedback, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT f.id, f.booking_id, f.user_id, f.rating, f.comment, f.created_at
		 FROM feedback f
		 JOIN bookings b ON b.id = f.booking_id
		 WHERE b.room_id = ?
		 ORDER BY f.created_at, f.id`,
		roomID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var entries []persistence.Feedback
	for rows.Next() {
		var entry persistence.Feedback
		var createdAt string
		if err := rows.Scan(&entry.ID, &entry.BookingID, &entry.UserID, &entry.Rating, &entry.Comment, &createdAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, persistence.ErrNotFound
			}
			return nil, mapError(err)
		}
		if entry.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

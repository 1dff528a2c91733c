package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository on SQLite.
type BookingRepository struct {
	store *Store
}

// NewBookingRepository wires a booking repository onto the store.
func NewBookingRepository(store *Store) *BookingRepository {
	return &BookingRepository{store: store}
}

const bookingColumns = "id, room_id, user_id, start_at, end_at, party_size, status, created_at, updated_at"

// activeStatuses are the booking states that occupy a room interval.
var activeStatuses = []string{"booked", "checked_in"}

// CreateBooking inserts a booking after probing for overlapping active
// bookings inside the same transaction. Losing the race yields
// *persistence.ConflictError carrying the winning booking IDs.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	return r.store.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM bookings
			 WHERE room_id = ? AND status IN (`+statusPlaceholders(activeStatuses)+`)
			   AND start_at < ? AND end_at > ?
			 ORDER BY id`,
			append(append([]any{booking.RoomID}, statusArgs(activeStatuses)...),
				formatTime(booking.End), formatTime(booking.Start))...,
		)
		if err != nil {
			return mapError(err)
		}
		defer rows.Close()

		var conflicts []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return mapError(err)
			}
			conflicts = append(conflicts, id)
		}
		if err := rows.Err(); err != nil {
			return mapError(err)
		}
		if len(conflicts) > 0 {
			return &persistence.ConflictError{BookingIDs: conflicts}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO bookings (`+bookingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			booking.ID,
			booking.RoomID,
			booking.UserID,
			formatTime(booking.Start),
			formatTime(booking.End),
			booking.PartySize,
			booking.Status,
			formatTime(booking.CreatedAt),
			formatTime(booking.UpdatedAt),
		)
		return mapError(err)
	})
}

// UpdateBooking updates the mutable fields of an existing booking.
func (r *BookingRepository) UpdateBooking(ctx context.Context, booking persistence.Booking) error {
	result, err := r.store.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, party_size = ?, updated_at = ? WHERE id = ?`,
		booking.Status,
		booking.PartySize,
		formatTime(booking.UpdatedAt),
		booking.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// GetBooking retrieves a booking by ID.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	row := r.store.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	return scanBooking(row)
}

// ListBookings returns bookings matching the filter ordered by start time.
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`)
	args := make([]any, 0, 6)

	if filter.RoomID != "" {
		query.WriteString(` AND room_id = ?`)
		args = append(args, filter.RoomID)
	}
	if filter.UserID != "" {
		query.WriteString(` AND user_id = ?`)
		args = append(args, filter.UserID)
	}
	if len(filter.Statuses) > 0 {
		query.WriteString(` AND status IN (` + statusPlaceholders(filter.Statuses) + `)`)
		args = append(args, statusArgs(filter.Statuses)...)
	}
	if filter.StartsAfter != nil {
		query.WriteString(` AND start_at >= ?`)
		args = append(args, formatTime(*filter.StartsAfter))
	}
	if filter.EndsBefore != nil {
		query.WriteString(` AND end_at <= ?`)
		args = append(args, formatTime(*filter.EndsBefore))
	}
	query.WriteString(` ORDER BY start_at, id`)

	rows, err := r.store.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var booking persistence.Booking
	var startAt, endAt, createdAt, updatedAt string
	err := row.Scan(&booking.ID, &booking.RoomID, &booking.UserID, &startAt, &endAt, &booking.PartySize, &booking.Status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Booking{}, persistence.ErrNotFound
		}
		return persistence.Booking{}, mapError(err)
	}
	if booking.Start, err = parseTime(startAt); err != nil {
		return persistence.Booking{}, err
	}
	if booking.End, err = parseTime(endAt); err != nil {
		return persistence.Booking{}, err
	}
	if booking.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Booking{}, err
	}
	if booking.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Booking{}, err
	}
	return booking, nil
}

func statusPlaceholders(statuses []string) string {
	return strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
}

func statusArgs(statuses []string) []any {
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	return args
}

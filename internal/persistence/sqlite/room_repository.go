package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository on SQLite.
type RoomRepository struct {
	store *Store
}

// NewRoomRepository wires a room repository onto the store.
func NewRoomRepository(store *Store) *RoomRepository {
	return &RoomRepository{store: store}
}

const roomColumns = "id, name, building, campus, capacity, status, created_at, updated_at"

// CreateRoom stores a new room.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO rooms (`+roomColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		room.ID,
		room.Name,
		room.Building,
		room.Campus,
		room.Capacity,
		room.Status,
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	return mapError(err)
}

// UpdateRoom updates an existing room.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	result, err := r.store.db.ExecContext(ctx,
		`UPDATE rooms SET name = ?, building = ?, campus = ?, capacity = ?, status = ?, updated_at = ? WHERE id = ?`,
		room.Name,
		room.Building,
		room.Campus,
		room.Capacity,
		room.Status,
		formatTime(room.UpdatedAt),
		room.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// GetRoom retrieves a room by ID.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	row := r.store.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	return scanRoom(row)
}

// ListRooms returns every room ordered by name.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := r.store.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY name, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// DeleteRoom removes a room by ID.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	result, err := r.store.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var room persistence.Room
	var createdAt, updatedAt string
	err := row.Scan(&room.ID, &room.Name, &room.Building, &room.Campus, &room.Capacity, &room.Status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Room{}, persistence.ErrNotFound
		}
		return persistence.Room{}, mapError(err)
	}
	if room.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/persistence"
)

// DeviceRepository implements persistence.DeviceRepository on SQLite.
type DeviceRepository struct {
	store *Store
}

// NewDeviceRepository wires a device repository onto the store.
func NewDeviceRepository(store *Store) *DeviceRepository {
	return &DeviceRepository{store: store}
}

const deviceColumns = "id, room_id, type, status, created_at, updated_at"

// CreateDevice stores a new device.
func (r *DeviceRepository) CreateDevice(ctx context.Context, device persistence.Device) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO devices (`+deviceColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		device.ID,
		device.RoomID,
		device.Type,
		device.Status,
		formatTime(device.CreatedAt),
		formatTime(device.UpdatedAt),
	)
	return mapError(err)
}

// UpdateDevice updates an existing device.
func (r *DeviceRepository) UpdateDevice(ctx context.Context, device persistence.Device) error {
	result, err := r.store.db.ExecContext(ctx,
		`UPDATE devices SET type = ?, status = ?, updated_at = ? WHERE id = ?`,
		device.Type,
		device.Status,
		formatTime(device.UpdatedAt),
		device.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// GetDevice retrieves a device by ID.
func (r *DeviceRepository) GetDevice(ctx context.Context, id string) (persistence.Device, error) {
	row := r.store.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id)
	return scanDevice(row)
}

// ListDevicesForRoom returns the devices installed in a room.
func (r *DeviceRepository) ListDevicesForRoom(ctx context.Context, roomID string) ([]persistence.Device, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE room_id = ? ORDER BY type, id`, roomID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var devices []persistence.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, device)
	}
	return devices, rows.Err()
}

// DeleteDevice removes a device by ID.
func (r *DeviceRepository) DeleteDevice(ctx context.Context, id string) error {
	result, err := r.store.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

func scanDevice(row rowScanner) (persistence.Device, error) {
	var device persistence.Device
	var createdAt, updatedAt string
	err := row.Scan(&device.ID, &device.RoomID, &device.Type, &device.Status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Device{}, persistence.ErrNotFound
		}
		return persistence.Device{}, mapError(err)
	}
	if device.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Device{}, err
	}
	if device.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Device{}, err
	}
	return device, nil
}

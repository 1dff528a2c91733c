package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DeviceRepository captures the persistence operations needed by the device service.
type DeviceRepository interface {
	CreateDevice(ctx context.Context, device Device) (Device, error)
	GetDevice(ctx context.Context, id string) (Device, error)
	UpdateDevice(ctx context.Context, device Device) (Device, error)
	DeleteDevice(ctx context.Context, id string) error
	ListDevicesForRoom(ctx context.Context, roomID string) ([]Device, error)
}

// DeviceService manages the equipment installed in rooms. Admins and
// technicians may create and edit devices; anyone authenticated may list them.
type DeviceService struct {
	devices     DeviceRepository
	rooms       RoomCatalog
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewDeviceService constructs a device service with the provided dependencies.
func NewDeviceService(devices DeviceRepository, rooms RoomCatalog, idGenerator func() string, now func() time.Time, logger *slog.Logger) *DeviceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &DeviceService{devices: devices, rooms: rooms, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *DeviceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DeviceService", operation, attrs...)
}

func canManageDevices(principal Principal) bool {
	return principal.Role == RoleAdmin || principal.Role == RoleTechnician
}

// CreateDevice registers a new device in a room.
func (s *DeviceService) CreateDevice(ctx context.Context, principal Principal, input DeviceInput) (device Device, err error) {
	if s == nil {
		err = fmt.Errorf("DeviceService is nil")
		return
	}
	if s.devices == nil {
		err = fmt.Errorf("device repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateDevice",
		"principal_id", principal.UserID,
		"room_id", input.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create device", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("device_id", device.ID).InfoContext(ctx, "device created")
	}()

	if !canManageDevices(principal) {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(input.RoomID) == "" {
		vErr.add("room_id", "room is required")
	}
	if strings.TrimSpace(input.Type) == "" {
		vErr.add("type", "device type is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if s.rooms != nil {
		if _, err = s.rooms.GetRoom(ctx, input.RoomID); err != nil {
			return
		}
	}

	status := strings.TrimSpace(strings.ToLower(input.Status))
	if status == "" {
		status = "working"
	}

	now := s.now()
	device = Device{
		ID:        s.idGenerator(),
		RoomID:    strings.TrimSpace(input.RoomID),
		Type:      strings.TrimSpace(input.Type),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	device, err = s.devices.CreateDevice(ctx, device)
	return
}

// UpdateDevice edits an existing device, typically to flag it broken or repaired.
func (s *DeviceService) UpdateDevice(ctx context.Context, principal Principal, deviceID string, input DeviceInput) (device Device, err error) {
	if s == nil {
		err = fmt.Errorf("DeviceService is nil")
		return
	}
	if s.devices == nil {
		err = fmt.Errorf("device repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateDevice",
		"principal_id", principal.UserID,
		"device_id", deviceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update device", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("device_id", device.ID).InfoContext(ctx, "device updated")
	}()

	if !canManageDevices(principal) {
		err = ErrUnauthorized
		return
	}

	var existing Device
	existing, err = s.devices.GetDevice(ctx, deviceID)
	if err != nil {
		return
	}

	if deviceType := strings.TrimSpace(input.Type); deviceType != "" {
		existing.Type = deviceType
	}
	if status := strings.TrimSpace(strings.ToLower(input.Status)); status != "" {
		existing.Status = status
	}
	existing.UpdatedAt = s.now()

	device, err = s.devices.UpdateDevice(ctx, existing)
	return
}

// DeleteDevice removes a device.
func (s *DeviceService) DeleteDevice(ctx context.Context, principal Principal, deviceID string) error {
	if s == nil || s.devices == nil {
		return fmt.Errorf("device repository not configured")
	}
	if !canManageDevices(principal) {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteDevice",
		"principal_id", principal.UserID,
		"device_id", deviceID,
	)
	if err := s.devices.DeleteDevice(ctx, deviceID); err != nil {
		logger.ErrorContext(ctx, "failed to delete device", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "device deleted")
	return nil
}

// ListDevicesForRoom returns the devices installed in a room for any authenticated user.
func (s *DeviceService) ListDevicesForRoom(ctx context.Context, principal Principal, roomID string) ([]Device, error) {
	if s == nil || s.devices == nil {
		return nil, fmt.Errorf("device repository not configured")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	return s.devices.ListDevicesForRoom(ctx, roomID)
}

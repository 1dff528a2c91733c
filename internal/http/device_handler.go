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

type deviceService interface {
	CreateDevice(ctx context.Context, principal application.Principal, input application.DeviceInput) (application.Device, error)
	UpdateDevice(ctx context.Context, principal application.Principal, deviceID string, input application.DeviceInput) (application.Device, error)
	DeleteDevice(ctx context.Context, principal application.Principal, deviceID string) error
	ListDevicesForRoom(ctx context.Context, principal application.Principal, roomID string) ([]application.Device, error)
}

// DeviceHandler serves the room equipment endpoints.
type DeviceHandler struct {
	service   deviceService
	responder responder
	logger    *slog.Logger
}

// NewDeviceHandler constructs a device handler.
func NewDeviceHandler(service deviceService, logger *slog.Logger) *DeviceHandler {
	base := defaultLogger(logger)
	return &DeviceHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *DeviceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DeviceHandler", operation, attrs...)
}

// Create registers a device in a room for admins and technicians.
func (h *DeviceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode device request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "room_id", req.RoomID)

	device, err := h.service.CreateDevice(r.Context(), principal, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "device creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("device_id", device.ID).InfoContext(r.Context(), "device created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, deviceResponse{Device: toDeviceDTO(device)})
}

// Update edits a device, typically to flag it broken or repaired.
func (h *DeviceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	deviceID, ok := DeviceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(deviceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDeviceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "device_id", deviceID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode device update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "device_id", deviceID)

	device, err := h.service.UpdateDevice(r.Context(), principal, deviceID, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "device update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "device updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, deviceResponse{Device: toDeviceDTO(device)})
}

// Delete removes a device.
func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	deviceID, ok := DeviceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(deviceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDeviceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "device_id", deviceID)

	if err := h.service.DeleteDevice(r.Context(), principal, deviceID); err != nil {
		logger.ErrorContext(r.Context(), "device delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "device deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// ListForRoom returns the devices installed in a room.
func (h *DeviceHandler) ListForRoom(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID, ok := RoomIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ListForRoom", "principal_id", principal.UserID, "room_id", roomID)

	devices, err := h.service.ListDevicesForRoom(r.Context(), principal, roomID)
	if err != nil {
		logger.ErrorContext(r.Context(), "device list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listDevicesResponse{Devices: toDeviceDTOs(devices)})
}

type deviceRequest struct {
	RoomID string `json:"room_id"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

func (r deviceRequest) toInput() application.DeviceInput {
	return application.DeviceInput{
		RoomID: strings.TrimSpace(r.RoomID),
		Type:   strings.TrimSpace(r.Type),
		Status: strings.TrimSpace(r.Status),
	}
}

type deviceResponse struct {
	Device deviceDTO `json:"device"`
}

type listDevicesResponse struct {
	Devices []deviceDTO `json:"devices"`
}

type deviceDTO struct {
	ID        string `json:"id"`
	RoomID    string `json:"room_id"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toDeviceDTO(device application.Device) deviceDTO {
	return deviceDTO{
		ID:        device.ID,
		RoomID:    device.RoomID,
		Type:      device.Type,
		Status:    device.Status,
		CreatedAt: device.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: device.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toDeviceDTOs(devices []application.Device) []deviceDTO {
	if len(devices) == 0 {
		return nil
	}
	out := make([]deviceDTO, 0, len(devices))
	for _, device := range devices {
		out = append(out, toDeviceDTO(device))
	}
	return out
}

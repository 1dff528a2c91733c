package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/application"
)

type configService interface {
	UpsertConfig(ctx context.Context, principal application.Principal, key, value string) (application.ConfigEntry, error)
	ListConfig(ctx context.Context, principal application.Principal) ([]application.ConfigEntry, error)
}

// ConfigHandler serves the admin-editable booking policy configuration.
type ConfigHandler struct {
	service   configService
	responder responder
	logger    *slog.Logger
}

// NewConfigHandler constructs a config handler.
func NewConfigHandler(service configService, logger *slog.Logger) *ConfigHandler {
	base := defaultLogger(logger)
	return &ConfigHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ConfigHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ConfigHandler", operation, attrs...)
}

// List returns every configuration entry for administrators.
func (h *ConfigHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	entries, err := h.service.ListConfig(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "config list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listConfigResponse{Config: toConfigDTOs(entries)})
}

// Upsert stores one configuration value for administrators.
func (h *ConfigHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Upsert", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode config request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Upsert", "principal_id", principal.UserID, "key", req.Key)

	entry, err := h.service.UpsertConfig(r.Context(), principal, req.Key, req.Value)
	if err != nil {
		logger.ErrorContext(r.Context(), "config save failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "config saved")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, configResponse{Config: toConfigDTO(entry)})
}

type configRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type configResponse struct {
	Config configDTO `json:"config"`
}

type listConfigResponse struct {
	Config []configDTO `json:"config"`
}

type configDTO struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedAt string `json:"updated_at"`
}

func toConfigDTO(entry application.ConfigEntry) configDTO {
	return configDTO{
		Key:       entry.Key,
		Value:     entry.Value,
		UpdatedAt: entry.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toConfigDTOs(entries []application.ConfigEntry) []configDTO {
	if len(entries) == 0 {
		return nil
	}
	out := make([]configDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toConfigDTO(entry))
	}
	return out
}

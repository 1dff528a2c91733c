package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ConfigRepository captures the persistence operations for system configuration.
type ConfigRepository interface {
	UpsertConfig(ctx context.Context, entry ConfigEntry) error
	ListConfig(ctx context.Context) ([]ConfigEntry, error)
}

// PolicyInvalidator drops cached policy snapshots after a configuration change.
type PolicyInvalidator interface {
	Invalidate()
}

// ConfigService lets administrators read and edit the booking policy
// configuration. Writes invalidate the policy cache so new bookings see the
// updated bounds immediately.
type ConfigService struct {
	configs  ConfigRepository
	policies PolicyInvalidator
	now      func() time.Time
	logger   *slog.Logger
}

// NewConfigService constructs a config service with the provided dependencies.
func NewConfigService(configs ConfigRepository, policies PolicyInvalidator, now func() time.Time, logger *slog.Logger) *ConfigService {
	if now == nil {
		now = time.Now
	}
	return &ConfigService{configs: configs, policies: policies, now: now, logger: defaultLogger(logger)}
}

func (s *ConfigService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ConfigService", operation, attrs...)
}

// UpsertConfig stores one configuration value for administrators.
func (s *ConfigService) UpsertConfig(ctx context.Context, principal Principal, key, value string) (entry ConfigEntry, err error) {
	if s == nil {
		err = fmt.Errorf("ConfigService is nil")
		return
	}
	if s.configs == nil {
		err = fmt.Errorf("config repository not configured")
		return
	}

	key = strings.TrimSpace(key)
	logger := s.loggerWith(ctx, "UpsertConfig",
		"principal_id", principal.UserID,
		"key", key,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to save config", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "config saved")
	}()

	if !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	if key == "" {
		vErr := &ValidationError{}
		vErr.add("key", "key is required")
		err = vErr
		return
	}

	entry = ConfigEntry{Key: key, Value: strings.TrimSpace(value), UpdatedAt: s.now()}
	if err = s.configs.UpsertConfig(ctx, entry); err != nil {
		return
	}
	if s.policies != nil {
		s.policies.Invalidate()
	}
	return
}

// ListConfig returns every configuration entry for administrators.
func (s *ConfigService) ListConfig(ctx context.Context, principal Principal) ([]ConfigEntry, error) {
	if s == nil || s.configs == nil {
		return nil, fmt.Errorf("config repository not configured")
	}
	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}
	return s.configs.ListConfig(ctx)
}

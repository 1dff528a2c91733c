package application

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/booking"
)

// Booking policy configuration keys editable by administrators.
const (
	ConfigMinBookingDuration         = "MIN_BOOKING_DURATION"
	ConfigMaxBookingDuration         = "MAX_BOOKING_DURATION"
	ConfigAdvanceBookingDaysStudent  = "ADVANCE_BOOKING_DAYS_STUDENT"
	ConfigAdvanceBookingDaysLecturer = "ADVANCE_BOOKING_DAYS_LECTURER"
	ConfigMaxGroupSize               = "MAX_GROUP_SIZE"
	ConfigMaxBookingsPerWeekStudent  = "MAX_BOOKINGS_PER_WEEK_STUDENT"
	ConfigMaxBookingsPerWeekLecturer = "MAX_BOOKINGS_PER_WEEK_LECTURER"
	ConfigSystemOpenTime             = "SYSTEM_OPEN_TIME"
	ConfigSystemCloseTime            = "SYSTEM_CLOSE_TIME"
)

// ConfigStore exposes the configuration reads required by the policy service.
type ConfigStore interface {
	ListConfig(ctx context.Context) ([]ConfigEntry, error)
}

// PolicyService derives the typed booking policy for a role from the stored
// key/value configuration. Parsed snapshots are cached for a short TTL and
// invalidated whenever an administrator saves new values.
type PolicyService struct {
	configs  ConfigStore
	location *time.Location
	now      func() time.Time
	ttl      time.Duration
	logger   *slog.Logger

	mu        sync.RWMutex
	snapshot  map[string]string
	expiresAt time.Time
}

// NewPolicyService constructs a PolicyService with the provided dependencies.
func NewPolicyService(configs ConfigStore, location *time.Location, now func() time.Time, ttl time.Duration, logger *slog.Logger) *PolicyService {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &PolicyService{
		configs:  configs,
		location: location,
		now:      now,
		ttl:      ttl,
		logger:   defaultLogger(logger),
	}
}

// Location reports the campus timezone used for day arithmetic.
func (s *PolicyService) Location() *time.Location {
	return s.location
}

// Invalidate drops the cached snapshot so the next read hits the store.
func (s *PolicyService) Invalidate() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.snapshot = nil
	s.mu.Unlock()
}

// PolicyForRole resolves the booking policy that applies to the given role.
// Admins book without advance-window or quota limits.
func (s *PolicyService) PolicyForRole(ctx context.Context, role string) (booking.Policy, error) {
	values, err := s.values(ctx)
	if err != nil {
		return booking.Policy{}, err
	}

	policy := booking.Policy{
		MinDuration:  time.Duration(intValue(values, ConfigMinBookingDuration, 30)) * time.Minute,
		MaxDuration:  time.Duration(intValue(values, ConfigMaxBookingDuration, 180)) * time.Minute,
		MaxGroupSize: intValue(values, ConfigMaxGroupSize, 8),
		OpenMinute:   minuteOfDayValue(values, ConfigSystemOpenTime, 7*60),
		CloseMinute:  minuteOfDayValue(values, ConfigSystemCloseTime, 22*60),
		Location:     s.location,
	}

	switch role {
	case RoleLecturer:
		policy.MaxAdvanceDays = intValue(values, ConfigAdvanceBookingDaysLecturer, 5)
		policy.MaxPerWeek = intValue(values, ConfigMaxBookingsPerWeekLecturer, 10)
	case RoleAdmin, RoleTechnician:
		policy.MaxAdvanceDays = -1
		policy.MaxPerWeek = 0
	default:
		policy.MaxAdvanceDays = intValue(values, ConfigAdvanceBookingDaysStudent, 3)
		policy.MaxPerWeek = intValue(values, ConfigMaxBookingsPerWeekStudent, 3)
	}
	return policy, nil
}

func (s *PolicyService) values(ctx context.Context) (map[string]string, error) {
	now := s.now()

	s.mu.RLock()
	snapshot := s.snapshot
	expiresAt := s.expiresAt
	s.mu.RUnlock()
	if snapshot != nil && now.Before(expiresAt) {
		return snapshot, nil
	}

	if s.configs == nil {
		return nil, fmt.Errorf("config store not configured")
	}
	entries, err := s.configs.ListConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load booking policy config: %w", err)
	}

	values := make(map[string]string, len(entries))
	for _, entry := range entries {
		values[entry.Key] = entry.Value
	}

	s.mu.Lock()
	s.snapshot = values
	s.expiresAt = now.Add(s.ttl)
	s.mu.Unlock()
	return values, nil
}

func intValue(values map[string]string, key string, fallback int) int {
	raw, ok := values[key]
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

// minuteOfDayValue parses an "HH:MM" wall-clock string into minutes since
// midnight, falling back when missing or malformed.
func minuteOfDayValue(values map[string]string, key string, fallback int) int {
	raw, ok := values[key]
	if !ok {
		return fallback
	}
	parsed, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return parsed.Hour()*60 + parsed.Minute()
}

package booking

import (
	"sort"
	"time"
)

// Violation identifies a single policy rule broken by a booking candidate.
type Violation string

const (
	// ViolationInvalidRange indicates the end time is not strictly after the start time.
	ViolationInvalidRange Violation = "invalid_range"
	// ViolationTooShort indicates the duration is below the configured minimum.
	ViolationTooShort Violation = "too_short"
	// ViolationTooLong indicates the duration exceeds the configured maximum.
	ViolationTooLong Violation = "too_long"
	// ViolationOutsideAdvanceWindow indicates the date falls outside [today, today+MaxAdvanceDays].
	ViolationOutsideAdvanceWindow Violation = "outside_advance_window"
	// ViolationOutsideOperatingHours indicates the interval falls outside campus opening hours.
	ViolationOutsideOperatingHours Violation = "outside_operating_hours"
	// ViolationPartySizeInvalid indicates the party size is below 1 or above the effective cap.
	ViolationPartySizeInvalid Violation = "party_size_invalid"
	// ViolationTimeConflict indicates an overlap with an active booking for the same room.
	ViolationTimeConflict Violation = "time_conflict"
	// ViolationWeeklyQuotaExceeded indicates the requester already holds the
	// maximum number of active bookings for the week. Validate never emits it;
	// the quota needs bookings across every room, which callers check separately.
	ViolationWeeklyQuotaExceeded Violation = "weekly_quota_exceeded"
)

// Policy carries the admin-controlled bounds governing booking validity.
// Zero values relax the corresponding rule, except MaxAdvanceDays where a
// negative value disables the window and zero restricts bookings to today.
type Policy struct {
	MinDuration    time.Duration
	MaxDuration    time.Duration
	MaxAdvanceDays int
	MaxGroupSize   int
	MaxPerWeek     int

	// OpenMinute and CloseMinute bound the bookable time of day, expressed
	// as minutes from midnight in Location. Both zero means unrestricted.
	OpenMinute  int
	CloseMinute int

	// Location is the campus timezone used for civil-date arithmetic.
	// Nil falls back to UTC.
	Location *time.Location
}

func (p Policy) location() *time.Location {
	if p.Location != nil {
		return p.Location
	}
	return time.UTC
}

// Candidate is a booking request under composition, not yet persisted.
type Candidate struct {
	RoomID    string
	Start     time.Time
	End       time.Time
	PartySize int
}

// Reservation is an existing booking as seen by the validator. Only active
// reservations (booked or checked in) participate in conflict detection.
type Reservation struct {
	ID     string
	RoomID string
	Start  time.Time
	End    time.Time
	Active bool
}

// Result aggregates every violation found for a candidate so callers can
// present all problems at once rather than failing on the first.
type Result struct {
	Violations  []Violation
	ConflictIDs []string
}

// OK reports whether the candidate passed every check.
func (r Result) OK() bool {
	return len(r.Violations) == 0
}

// Has reports whether a specific violation was recorded.
func (r Result) Has(v Violation) bool {
	for _, got := range r.Violations {
		if got == v {
			return true
		}
	}
	return false
}

func (r *Result) add(v Violation) {
	r.Violations = append(r.Violations, v)
}

// Validate checks a candidate against room capacity, policy bounds, and the
// active reservations of the same room. Intervals use half-open [start, end)
// semantics so back-to-back bookings never conflict. When the range itself is
// invalid, duration and overlap checks are skipped because they are undefined.
// Operating hours are measured on the start day: the end bound is the start
// minute plus the duration and can exceed 24*60, so a booking running past
// midnight is rejected even when its end clock time would land inside a
// later day's hours.
func Validate(candidate Candidate, roomCapacity int, existing []Reservation, policy Policy, now time.Time) Result {
	var result Result
	loc := policy.location()

	rangeValid := !candidate.Start.IsZero() && !candidate.End.IsZero() && candidate.End.After(candidate.Start)
	if !rangeValid {
		result.add(ViolationInvalidRange)
	}

	if rangeValid {
		duration := candidate.End.Sub(candidate.Start)
		if policy.MinDuration > 0 && duration < policy.MinDuration {
			result.add(ViolationTooShort)
		}
		if policy.MaxDuration > 0 && duration > policy.MaxDuration {
			result.add(ViolationTooLong)
		}
	}

	if !candidate.Start.IsZero() && policy.MaxAdvanceDays >= 0 {
		offset := daysFromToday(candidate.Start, now, loc)
		if offset < 0 || offset > policy.MaxAdvanceDays {
			result.add(ViolationOutsideAdvanceWindow)
		}
	}

	if rangeValid && policy.CloseMinute > policy.OpenMinute {
		start := candidate.Start.In(loc)
		startMinute := start.Hour()*60 + start.Minute()
		endMinute := startMinute + int(candidate.End.Sub(candidate.Start)/time.Minute)
		if startMinute < policy.OpenMinute || endMinute > policy.CloseMinute {
			result.add(ViolationOutsideOperatingHours)
		}
	}

	if capacity := effectiveCapacity(roomCapacity, policy.MaxGroupSize); candidate.PartySize < 1 || (capacity > 0 && candidate.PartySize > capacity) {
		result.add(ViolationPartySizeInvalid)
	}

	if rangeValid {
		conflicts := conflictingIDs(candidate, existing)
		if len(conflicts) > 0 {
			result.add(ViolationTimeConflict)
			result.ConflictIDs = conflicts
		}
	}

	return result
}

// HighlightedDates returns the civil dates inside the advance window that
// already hold at least one active reservation, formatted as 2006-01-02 and
// sorted ascending. The set decorates calendars only; an unhighlighted date
// is not a promise of availability.
func HighlightedDates(existing []Reservation, policy Policy, now time.Time) []string {
	loc := policy.location()
	seen := make(map[string]struct{})
	for _, reservation := range existing {
		if !reservation.Active || reservation.Start.IsZero() {
			continue
		}
		offset := daysFromToday(reservation.Start, now, loc)
		if offset < 0 {
			continue
		}
		if policy.MaxAdvanceDays >= 0 && offset > policy.MaxAdvanceDays {
			continue
		}
		seen[reservation.Start.In(loc).Format("2006-01-02")] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}
	dates := make([]string, 0, len(seen))
	for date := range seen {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

func conflictingIDs(candidate Candidate, existing []Reservation) []string {
	ids := make([]string, 0)
	for _, reservation := range existing {
		if !reservation.Active {
			continue
		}
		if reservation.RoomID != candidate.RoomID {
			continue
		}
		if candidate.Start.Before(reservation.End) && reservation.Start.Before(candidate.End) {
			ids = append(ids, reservation.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)
	return ids
}

func effectiveCapacity(roomCapacity, maxGroupSize int) int {
	switch {
	case roomCapacity > 0 && maxGroupSize > 0:
		return min(roomCapacity, maxGroupSize)
	case roomCapacity > 0:
		return roomCapacity
	default:
		return maxGroupSize
	}
}

func daysFromToday(t, now time.Time, loc *time.Location) int {
	day := startOfDay(t, loc)
	today := startOfDay(now, loc)
	return int(day.Sub(today) / (24 * time.Hour))
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

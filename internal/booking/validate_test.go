package booking

import (
	"reflect"
	"testing"
	"time"
)

var testPolicy = Policy{
	MinDuration:    30 * time.Minute,
	MaxDuration:    4 * time.Hour,
	MaxAdvanceDays: 3,
	MaxGroupSize:   8,
}

func day(t *testing.T, date string, hour, minute int) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("bad date %q: %v", date, err)
	}
	return parsed.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func TestValidate_Range(t *testing.T) {
	t.Parallel()

	now := day(t, "2025-09-01", 8, 0)

	t.Run("end before start yields invalid range only", func(t *testing.T) {
		t.Parallel()

		existing := []Reservation{{ID: "b1", RoomID: "r1", Start: day(t, "2025-09-01", 9, 0), End: day(t, "2025-09-01", 12, 0), Active: true}}
		candidate := Candidate{RoomID: "r1", Start: day(t, "2025-09-01", 11, 0), End: day(t, "2025-09-01", 10, 0), PartySize: 2}

		result := Validate(candidate, 6, existing, testPolicy, now)
		if !result.Has(ViolationInvalidRange) {
			t.Fatalf("expected invalid range, got %v", result.Violations)
		}
		if result.Has(ViolationTimeConflict) || result.Has(ViolationTooShort) {
			t.Fatalf("overlap and duration must not be evaluated for an invalid range, got %v", result.Violations)
		}
	})

	t.Run("end equal to start is invalid", func(t *testing.T) {
		t.Parallel()

		at := day(t, "2025-09-01", 10, 0)
		result := Validate(Candidate{RoomID: "r1", Start: at, End: at, PartySize: 1}, 6, nil, testPolicy, now)
		if !result.Has(ViolationInvalidRange) {
			t.Fatalf("expected invalid range, got %v", result.Violations)
		}
	})
}

func TestValidate_DurationBounds(t *testing.T) {
	t.Parallel()

	now := day(t, "2025-09-01", 8, 0)

	cases := []struct {
		name     string
		duration time.Duration
		want     []Violation
	}{
		{name: "exactly minimum accepted", duration: 30 * time.Minute, want: nil},
		{name: "exactly maximum accepted", duration: 4 * time.Hour, want: nil},
		{name: "below minimum rejected", duration: 29 * time.Minute, want: []Violation{ViolationTooShort}},
		{name: "above maximum rejected", duration: 4*time.Hour + time.Minute, want: []Violation{ViolationTooLong}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			start := day(t, "2025-09-01", 9, 0)
			result := Validate(Candidate{RoomID: "r1", Start: start, End: start.Add(tc.duration), PartySize: 1}, 6, nil, testPolicy, now)
			if !reflect.DeepEqual(result.Violations, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, result.Violations)
			}
		})
	}
}

func TestValidate_AdvanceWindow(t *testing.T) {
	t.Parallel()

	now := day(t, "2025-09-01", 8, 0)

	t.Run("last day of window accepted", func(t *testing.T) {
		t.Parallel()

		start := day(t, "2025-09-04", 9, 0)
		result := Validate(Candidate{RoomID: "r1", Start: start, End: start.Add(time.Hour), PartySize: 1}, 6, nil, testPolicy, now)
		if !result.OK() {
			t.Fatalf("expected valid, got %v", result.Violations)
		}
	})

	t.Run("one day past window rejected", func(t *testing.T) {
		t.Parallel()

		start := day(t, "2025-09-05", 9, 0)
		result := Validate(Candidate{RoomID: "r1", Start: start, End: start.Add(time.Hour), PartySize: 1}, 6, nil, testPolicy, now)
		if !result.Has(ViolationOutsideAdvanceWindow) {
			t.Fatalf("expected outside advance window, got %v", result.Violations)
		}
	})

	t.Run("past date rejected", func(t *testing.T) {
		t.Parallel()

		start := day(t, "2025-08-31", 9, 0)
		result := Validate(Candidate{RoomID: "r1", Start: start, End: start.Add(time.Hour), PartySize: 1}, 6, nil, testPolicy, now)
		if !result.Has(ViolationOutsideAdvanceWindow) {
			t.Fatalf("expected outside advance window, got %v", result.Violations)
		}
	})

	t.Run("later today accepted", func(t *testing.T) {
		t.Parallel()

		start := day(t, "2025-09-01", 15, 0)
		result := Validate(Candidate{RoomID: "r1", Start: start, End: start.Add(time.Hour), PartySize: 1}, 6, nil, testPolicy, now)
		if !result.OK() {
			t.Fatalf("expected valid, got %v", result.Violations)
		}
	})
}

func TestValidate_PartySize(t *testing.T) {
	t.Parallel()

	now := day(t, "2025-09-01", 8, 0)
	start := day(t, "2025-09-02", 9, 0)

	cases := []struct {
		name      string
		capacity  int
		partySize int
		wantOK    bool
	}{
		{name: "capacity smaller than group cap binds", capacity: 6, partySize: 6, wantOK: true},
		{name: "over capacity rejected", capacity: 6, partySize: 7, wantOK: false},
		{name: "group cap binds when capacity is larger", capacity: 20, partySize: 9, wantOK: false},
		{name: "zero party size rejected", capacity: 6, partySize: 0, wantOK: false},
		{name: "negative party size rejected", capacity: 6, partySize: -1, wantOK: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result := Validate(Candidate{RoomID: "r1", Start: start, End: start.Add(time.Hour), PartySize: tc.partySize}, tc.capacity, nil, testPolicy, now)
			if tc.wantOK != result.OK() {
				t.Fatalf("expected ok=%v, got %v (%v)", tc.wantOK, result.OK(), result.Violations)
			}
			if !tc.wantOK && !result.Has(ViolationPartySizeInvalid) {
				t.Fatalf("expected party size violation, got %v", result.Violations)
			}
		})
	}
}

func TestValidate_Overlap(t *testing.T) {
	t.Parallel()

	now := day(t, "2025-09-01", 8, 0)
	existing := []Reservation{
		{ID: "b1", RoomID: "r1", Start: day(t, "2025-09-02", 10, 0), End: day(t, "2025-09-02", 12, 0), Active: true},
		{ID: "b2", RoomID: "r1", Start: day(t, "2025-09-02", 14, 0), End: day(t, "2025-09-02", 15, 0), Active: false},
		{ID: "b3", RoomID: "r2", Start: day(t, "2025-09-02", 10, 0), End: day(t, "2025-09-02", 12, 0), Active: true},
	}

	t.Run("partial overlap reports conflicting id", func(t *testing.T) {
		t.Parallel()

		result := Validate(Candidate{RoomID: "r1", Start: day(t, "2025-09-02", 11, 0), End: day(t, "2025-09-02", 13, 0), PartySize: 2}, 6, existing, testPolicy, now)
		if !result.Has(ViolationTimeConflict) {
			t.Fatalf("expected time conflict, got %v", result.Violations)
		}
		if !reflect.DeepEqual(result.ConflictIDs, []string{"b1"}) {
			t.Fatalf("expected conflict with b1, got %v", result.ConflictIDs)
		}
	})

	t.Run("back to back booking is allowed", func(t *testing.T) {
		t.Parallel()

		result := Validate(Candidate{RoomID: "r1", Start: day(t, "2025-09-02", 12, 0), End: day(t, "2025-09-02", 13, 0), PartySize: 2}, 6, existing, testPolicy, now)
		if !result.OK() {
			t.Fatalf("expected valid, got %v with conflicts %v", result.Violations, result.ConflictIDs)
		}
	})

	t.Run("candidate ending at existing start is allowed", func(t *testing.T) {
		t.Parallel()

		result := Validate(Candidate{RoomID: "r1", Start: day(t, "2025-09-02", 9, 0), End: day(t, "2025-09-02", 10, 0), PartySize: 2}, 6, existing, testPolicy, now)
		if !result.OK() {
			t.Fatalf("expected valid, got %v", result.Violations)
		}
	})

	t.Run("cancelled bookings never conflict", func(t *testing.T) {
		t.Parallel()

		result := Validate(Candidate{RoomID: "r1", Start: day(t, "2025-09-02", 14, 0), End: day(t, "2025-09-02", 15, 0), PartySize: 2}, 6, existing, testPolicy, now)
		if result.Has(ViolationTimeConflict) {
			t.Fatalf("inactive booking must not conflict, got %v", result.ConflictIDs)
		}
	})

	t.Run("other rooms never conflict", func(t *testing.T) {
		t.Parallel()

		result := Validate(Candidate{RoomID: "r1", Start: day(t, "2025-09-02", 10, 30), End: day(t, "2025-09-02", 11, 30), PartySize: 2}, 6, existing[2:], testPolicy, now)
		if result.Has(ViolationTimeConflict) {
			t.Fatalf("different room must not conflict, got %v", result.ConflictIDs)
		}
	})

	t.Run("envelope overlap reports every conflicting id sorted", func(t *testing.T) {
		t.Parallel()

		both := []Reservation{
			{ID: "b9", RoomID: "r1", Start: day(t, "2025-09-02", 13, 0), End: day(t, "2025-09-02", 14, 0), Active: true},
			{ID: "b1", RoomID: "r1", Start: day(t, "2025-09-02", 10, 0), End: day(t, "2025-09-02", 12, 0), Active: true},
		}
		result := Validate(Candidate{RoomID: "r1", Start: day(t, "2025-09-02", 11, 0), End: day(t, "2025-09-02", 13, 30), PartySize: 2}, 6, both, testPolicy, now)
		if !reflect.DeepEqual(result.ConflictIDs, []string{"b1", "b9"}) {
			t.Fatalf("expected conflicts [b1 b9], got %v", result.ConflictIDs)
		}
	})
}

func TestValidate_OperatingHours(t *testing.T) {
	t.Parallel()

	now := day(t, "2025-09-01", 8, 0)
	policy := testPolicy
	policy.OpenMinute = 7 * 60
	policy.CloseMinute = 22 * 60

	t.Run("inside opening hours accepted", func(t *testing.T) {
		t.Parallel()

		start := day(t, "2025-09-02", 7, 0)
		result := Validate(Candidate{RoomID: "r1", Start: start, End: start.Add(time.Hour), PartySize: 1}, 6, nil, policy, now)
		if !result.OK() {
			t.Fatalf("expected valid, got %v", result.Violations)
		}
	})

	t.Run("before opening rejected", func(t *testing.T) {
		t.Parallel()

		start := day(t, "2025-09-02", 6, 30)
		result := Validate(Candidate{RoomID: "r1", Start: start, End: start.Add(time.Hour), PartySize: 1}, 6, nil, policy, now)
		if !result.Has(ViolationOutsideOperatingHours) {
			t.Fatalf("expected operating hours violation, got %v", result.Violations)
		}
	})

	t.Run("running past closing rejected", func(t *testing.T) {
		t.Parallel()

		start := day(t, "2025-09-02", 21, 30)
		result := Validate(Candidate{RoomID: "r1", Start: start, End: start.Add(time.Hour), PartySize: 1}, 6, nil, policy, now)
		if !result.Has(ViolationOutsideOperatingHours) {
			t.Fatalf("expected operating hours violation, got %v", result.Violations)
		}
	})

	t.Run("running past midnight rejected even when the end clock time is inside hours", func(t *testing.T) {
		t.Parallel()

		start := day(t, "2025-09-02", 21, 0)
		result := Validate(Candidate{RoomID: "r1", Start: start, End: start.Add(12 * time.Hour), PartySize: 1}, 6, nil, policy, now)
		if !result.Has(ViolationOutsideOperatingHours) {
			t.Fatalf("expected operating hours violation, got %v", result.Violations)
		}
	})
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	t.Parallel()

	now := day(t, "2025-09-01", 8, 0)
	start := day(t, "2025-09-20", 9, 0)
	result := Validate(Candidate{RoomID: "r1", Start: start, End: start.Add(10 * time.Minute), PartySize: 50}, 6, nil, testPolicy, now)

	for _, want := range []Violation{ViolationTooShort, ViolationOutsideAdvanceWindow, ViolationPartySizeInvalid} {
		if !result.Has(want) {
			t.Fatalf("expected %s among %v", want, result.Violations)
		}
	}
}

func TestHighlightedDates(t *testing.T) {
	t.Parallel()

	now := day(t, "2025-09-01", 8, 0)
	existing := []Reservation{
		{ID: "b1", RoomID: "r1", Start: day(t, "2025-09-02", 10, 0), End: day(t, "2025-09-02", 12, 0), Active: true},
		{ID: "b2", RoomID: "r1", Start: day(t, "2025-09-02", 14, 0), End: day(t, "2025-09-02", 15, 0), Active: true},
		{ID: "b3", RoomID: "r1", Start: day(t, "2025-09-04", 10, 0), End: day(t, "2025-09-04", 11, 0), Active: true},
		{ID: "b4", RoomID: "r1", Start: day(t, "2025-09-03", 10, 0), End: day(t, "2025-09-03", 11, 0), Active: false},
		{ID: "b5", RoomID: "r1", Start: day(t, "2025-09-10", 10, 0), End: day(t, "2025-09-10", 11, 0), Active: true},
		{ID: "b6", RoomID: "r1", Start: day(t, "2025-08-20", 10, 0), End: day(t, "2025-08-20", 11, 0), Active: true},
	}

	got := HighlightedDates(existing, testPolicy, now)
	want := []string{"2025-09-02", "2025-09-04"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if HighlightedDates(nil, testPolicy, now) != nil {
		t.Fatalf("expected nil for no reservations")
	}
}

package schedule

import (
	"testing"
	"time"
)

func testAllocator() Allocator {
	return Allocator{
		Granularity:   15 * time.Minute,
		LeadTime:      30 * time.Minute,
		ClosingBuffer: 15 * time.Minute,
	}
}

// saturday returns a Saturday at the given clock time.
func saturday(hhmm string) time.Time {
	tod := MustTimeOfDay(hhmm)
	return tod.At(time.Date(2026, time.August, 29, 0, 0, 0, 0, time.UTC))
}

func times(slots []Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Time
	}
	return out
}

func TestSlotsFullEveningShift(t *testing.T) {
	// Saturday 18:30-21:30, asked long before opening: every slot from
	// opening to close-minus-buffer, inclusive.
	slots := testAllocator().Slots(saturday("15:00"), DefaultWeekly(), nil)

	want := []string{
		"18:30", "18:45", "19:00", "19:15", "19:30", "19:45",
		"20:00", "20:15", "20:30", "20:45", "21:00", "21:15",
	}
	got := times(slots)
	if len(got) != len(want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	for _, s := range slots {
		if !s.Available {
			t.Errorf("slot %s should be available", s.Time)
		}
	}
}

func TestSlotsRespectLeadTime(t *testing.T) {
	// At 18:50 with a 30-minute lead, the first offered slot is 19:30:
	// 19:00 and 19:15 are inside the lead window.
	slots := testAllocator().Slots(saturday("18:50"), DefaultWeekly(), nil)

	got := times(slots)
	if len(got) == 0 || got[0] != "19:30" {
		t.Fatalf("first slot = %v, want 19:30", got)
	}
}

func TestSlotsLeadBoundaryIsInclusive(t *testing.T) {
	// At exactly 19:00 the 19:30 slot sits exactly lead-time away and
	// is offered.
	slots := testAllocator().Slots(saturday("19:00"), DefaultWeekly(), nil)

	got := times(slots)
	if len(got) == 0 || got[0] != "19:30" {
		t.Fatalf("first slot = %v, want 19:30", got)
	}
}

func TestSlotsClosedDayIsEmpty(t *testing.T) {
	// A Monday: the diner is closed.
	monday := MustTimeOfDay("12:00").At(time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC))
	slots := testAllocator().Slots(monday, DefaultWeekly(), nil)

	if len(slots) != 0 {
		t.Errorf("expected no slots on a closed day, got %v", times(slots))
	}
}

func TestSlotsAfterLastSlotIsEmpty(t *testing.T) {
	// 21:15 is the last Saturday slot; by 21:10 the lead time pushes
	// past it.
	slots := testAllocator().Slots(saturday("21:10"), DefaultWeekly(), nil)

	if len(slots) != 0 {
		t.Errorf("expected no slots, got %v", times(slots))
	}
}

func TestSlotsFridayHasBothShifts(t *testing.T) {
	// Friday carries a lunch and an evening shift.
	friday := MustTimeOfDay("09:00").At(time.Date(2026, time.August, 28, 0, 0, 0, 0, time.UTC))
	got := times(testAllocator().Slots(friday, DefaultWeekly(), nil))

	if len(got) == 0 {
		t.Fatal("expected slots")
	}
	if got[0] != "11:30" {
		t.Errorf("first slot = %s, want 11:30", got[0])
	}
	if got[len(got)-1] != "21:15" {
		t.Errorf("last slot = %s, want 21:15", got[len(got)-1])
	}
	// The lunch shift ends at 13:30, so 13:15 is the last lunch slot
	// and 18:30 the first evening one; nothing in between.
	for _, s := range got {
		if s > "13:15" && s < "18:30" {
			t.Errorf("unexpected slot %s between shifts", s)
		}
	}
}

func TestSlotsSundayClosesEarlier(t *testing.T) {
	sunday := MustTimeOfDay("15:00").At(time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC))
	got := times(testAllocator().Slots(sunday, DefaultWeekly(), nil))

	if len(got) == 0 {
		t.Fatal("expected slots")
	}
	if got[len(got)-1] != "20:45" {
		t.Errorf("last Sunday slot = %s, want 20:45", got[len(got)-1])
	}
}

func TestSlotsMarkTakenUnavailable(t *testing.T) {
	taken := map[string]bool{"19:00": true, "20:30": true}
	slots := testAllocator().Slots(saturday("15:00"), DefaultWeekly(), taken)

	seen := map[string]bool{}
	for _, s := range slots {
		seen[s.Time] = true
		if taken[s.Time] == s.Available {
			t.Errorf("slot %s availability = %v", s.Time, s.Available)
		}
	}
	// Taken slots stay in the list so the grid keeps its shape.
	if !seen["19:00"] || !seen["20:30"] {
		t.Error("taken slots must remain listed")
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"00:00", 0, false},
		{"11:30", 11*60 + 30, false},
		{"23:59", 23*60 + 59, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTimeOfDay(%q) error = %v", tt.in, err)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseTimeOfDay(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTimeOfDayString(t *testing.T) {
	if got := MustTimeOfDay("09:05").String(); got != "09:05" {
		t.Errorf("String() = %q, want 09:05", got)
	}
}

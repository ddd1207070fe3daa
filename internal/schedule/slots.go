// Package schedule computes the pickup slots offered at checkout. It is
// deliberately free of storage concerns: callers feed it the current
// instant and the set of already-claimed times, and get back an ordered
// availability list.
package schedule

import (
	"fmt"
	"time"
)

// Shift is one opening window within a day, expressed as times of day.
type Shift struct {
	Start TimeOfDay
	End   TimeOfDay
}

// TimeOfDay is minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay reads "HH:MM" into a TimeOfDay.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// MustTimeOfDay is ParseTimeOfDay for compile-time constants such as the
// default weekly schedule.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// At anchors the time of day onto the given date.
func (t TimeOfDay) At(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), int(t)/60, int(t)%60, 0, 0, day.Location())
}

// Weekly maps a weekday to its opening shifts. Days absent from the map
// are closed.
type Weekly map[time.Weekday][]Shift

// Slot is one bookable pickup time for today.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// Allocator holds the slot-generation tuning. Granularity is the step
// between slots, LeadTime the minimum distance from "now" to the first
// offered slot, and ClosingBuffer how long before shift close the last
// slot must sit.
type Allocator struct {
	Granularity   time.Duration
	LeadTime      time.Duration
	ClosingBuffer time.Duration
}

// Slots generates today's pickup slots. taken holds the "HH:MM" times
// already claimed by non-cancelled orders; matching slots are kept in
// the list but flagged unavailable. A closed day yields an empty list.
func (a Allocator) Slots(now time.Time, weekly Weekly, taken map[string]bool) []Slot {
	shifts, open := weekly[now.Weekday()]
	if !open {
		return []Slot{}
	}

	minTime := now.Add(a.LeadTime)
	slots := []Slot{}

	for _, shift := range shifts {
		last := shift.End.At(now).Add(-a.ClosingBuffer)

		for cur := shift.Start.At(now); !cur.After(last); cur = cur.Add(a.Granularity) {
			if !cur.After(now) || cur.Before(minTime) {
				continue
			}
			t := TimeOfDay(cur.Hour()*60 + cur.Minute()).String()
			slots = append(slots, Slot{Time: t, Available: !taken[t]})
		}
	}

	return slots
}

// DefaultWeekly mirrors the diner's opening hours: Friday lunch and
// dinner, Saturday and Sunday dinner only.
func DefaultWeekly() Weekly {
	return Weekly{
		time.Friday: {
			{Start: MustTimeOfDay("11:30"), End: MustTimeOfDay("13:30")},
			{Start: MustTimeOfDay("18:30"), End: MustTimeOfDay("21:30")},
		},
		time.Saturday: {
			{Start: MustTimeOfDay("18:30"), End: MustTimeOfDay("21:30")},
		},
		time.Sunday: {
			{Start: MustTimeOfDay("18:30"), End: MustTimeOfDay("21:00")},
		},
	}
}

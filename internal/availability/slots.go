package availability

import (
	"sort"
	"time"

	"github.com/mira-santoso/salonbook-api/internal/models"
)

// Interval is a half-open booked span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Slot is a candidate bookable interval of exactly the requested duration,
// aligned to its window's grid.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// WindowRule is one bookable window with its slot granularity, in minute
// offsets from civil midnight.
type WindowRule struct {
	StartMinute     int
	EndMinute       int
	IntervalMinutes int
}

// DayWindows yields the bookable windows for a weekday (0 = Sunday). The
// generator treats every source identically, so the week schedule, the
// legacy flat rules and per-date overrides are interchangeable here.
type DayWindows interface {
	WindowsFor(weekday time.Weekday) []WindowRule
}

// Generate computes the free slots for one civil date.
//
// date carries the calendar day; its civil midnight is resolved in loc using
// full IANA zone rules, so results stay correct across DST transitions. The
// weekday is the one observed in loc, not the caller's zone. A day without
// windows yields an empty list, never an error. Candidates step through each
// window from its start to end-duration inclusive on the window's grid, and
// are dropped when they intersect a booked interval under half-open
// semantics: a slot touching a booking's edge survives. Output is sorted by
// start time regardless of window order, and the function is deterministic —
// no hidden clock.
func Generate(date time.Time, loc *time.Location, src DayWindows, durationMinutes int, booked []Interval) []Slot {
	slots := []Slot{}
	if src == nil || durationMinutes <= 0 {
		return slots
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)

	for _, w := range src.WindowsFor(dayStart.Weekday()) {
		if w.IntervalMinutes <= 0 {
			continue
		}
		// A window shorter than the requested duration emits nothing.
		for offset := w.StartMinute; offset <= w.EndMinute-durationMinutes; offset += w.IntervalMinutes {
			start := dayStart.Add(time.Duration(offset) * time.Minute)
			end := start.Add(time.Duration(durationMinutes) * time.Minute)
			if overlapsAny(start, end, booked) {
				continue
			}
			slots = append(slots, Slot{Start: start, End: end})
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})
	return slots
}

// Contains reports whether start is one of the generated slot starts.
func Contains(slots []Slot, start time.Time) bool {
	for _, s := range slots {
		if s.Start.Equal(start) {
			return true
		}
	}
	return false
}

func overlapsAny(start, end time.Time, booked []Interval) bool {
	for _, b := range booked {
		// [start,end) overlaps [b.Start,b.End) iff start < b.End && b.Start < end.
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}

// WeekScheduleSource adapts the recurring WeekSchedule, applying one global
// slot interval to every window.
type WeekScheduleSource struct {
	Schedule        models.WeekSchedule
	IntervalMinutes int
}

func (s WeekScheduleSource) WindowsFor(weekday time.Weekday) []WindowRule {
	day := s.Schedule.DayFor(weekday)
	if !day.IsAvailable {
		return nil
	}
	rules := make([]WindowRule, 0, len(day.TimeWindows))
	for _, w := range day.TimeWindows {
		rules = append(rules, WindowRule{
			StartMinute:     w.StartMinute,
			EndMinute:       w.EndMinute,
			IntervalMinutes: s.IntervalMinutes,
		})
	}
	return rules
}

// LegacyRuleSource adapts the flat availability_rules rows, each carrying its
// own slot granularity.
type LegacyRuleSource struct {
	Rules []models.AvailabilityRule
}

func (s LegacyRuleSource) WindowsFor(weekday time.Weekday) []WindowRule {
	var rules []WindowRule
	for _, r := range s.Rules {
		if r.Weekday != int(weekday) {
			continue
		}
		rules = append(rules, WindowRule{
			StartMinute:     r.StartMinute,
			EndMinute:       r.EndMinute,
			IntervalMinutes: r.SlotIntervalMinutes,
		})
	}
	return rules
}

// StaticWindows serves a fixed window list for any weekday. Used for date
// overrides, which replace the recurring schedule for their date.
type StaticWindows struct {
	Windows []WindowRule
}

func (s StaticWindows) WindowsFor(time.Weekday) []WindowRule {
	return s.Windows
}

package models

import "time"

// TimeWindow is a bookable span within one day, expressed as minute offsets
// from civil midnight in the business timezone. Invariant: 0 <= Start < End <= 1440.
type TimeWindow struct {
	StartMinute int `db:"start_minute" json:"start_minute" validate:"min=0,max=1439"`
	EndMinute   int `db:"end_minute" json:"end_minute" validate:"min=1,max=1440"`
}

// DaySchedule is the recurring availability for one weekday (0 = Sunday).
// If IsAvailable is false the day carries no windows.
type DaySchedule struct {
	Weekday     int          `db:"weekday" json:"weekday" validate:"min=0,max=6"`
	IsAvailable bool         `db:"is_available" json:"is_available"`
	TimeWindows []TimeWindow `json:"time_windows"`
}

// WeekSchedule is the full recurring schedule: exactly seven DaySchedule
// entries, one per weekday. It is replaced wholesale, never merged.
type WeekSchedule struct {
	Days      [7]DaySchedule `json:"days"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// DayFor returns the schedule for the given weekday.
func (w WeekSchedule) DayFor(weekday time.Weekday) DaySchedule {
	return w.Days[int(weekday)%7]
}

// AvailabilityRule is the legacy flat representation of recurring
// availability: one window per row carrying its own slot granularity. Rules
// are consulted only for weekdays the week schedule does not cover.
type AvailabilityRule struct {
	ID                  string `db:"id" json:"id"`
	Weekday             int    `db:"weekday" json:"weekday"`
	StartMinute         int    `db:"start_minute" json:"start_minute"`
	EndMinute           int    `db:"end_minute" json:"end_minute"`
	SlotIntervalMinutes int    `db:"slot_interval_minutes" json:"slot_interval_minutes"`
}

// BlockedDate removes a whole calendar date from booking regardless of the
// recurring schedule.
type BlockedDate struct {
	Date      time.Time `db:"blocked_on" json:"date"`
	Reason    string    `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DateOverride replaces the recurring windows for a single calendar date.
// An override with zero windows makes the date unbookable.
type DateOverride struct {
	Date        time.Time    `db:"override_on" json:"date"`
	TimeWindows []TimeWindow `json:"time_windows"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// CivilDate truncates an instant to its calendar date as observed in loc.
// The result carries year/month/day only; callers must not rely on its
// location or clock fields.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// DateOnly truncates a date carrier to its literal year/month/day,
// ignoring its location. Use CivilDate when converting an instant; use
// DateOnly when the value already names a calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey formats a civil date as its canonical YYYY-MM-DD form.
func DateKey(date time.Time) string {
	return date.Format("2006-01-02")
}

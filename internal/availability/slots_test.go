package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mira-santoso/salonbook-api/internal/models"
)

func tuesdayOnlySchedule(windows ...models.TimeWindow) models.WeekSchedule {
	var week models.WeekSchedule
	for i := range week.Days {
		week.Days[i] = models.DaySchedule{Weekday: i}
	}
	week.Days[2] = models.DaySchedule{Weekday: 2, IsAvailable: true, TimeWindows: windows}
	return week
}

func TestGenerateSkipsOverlapsKeepsAdjacent(t *testing.T) {
	// Tuesday 09:00-12:00, 30 min grid, 60 min duration, one booking
	// 10:00-10:30. The 09:30 and 10:00 candidates run into the booking;
	// 10:30 touches the booking's end and survives.
	loc := time.UTC
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, loc) // a Tuesday
	src := WeekScheduleSource{
		Schedule:        tuesdayOnlySchedule(models.TimeWindow{StartMinute: 540, EndMinute: 720}),
		IntervalMinutes: 30,
	}
	booked := []Interval{{Start: date.Add(10 * time.Hour), End: date.Add(10*time.Hour + 30*time.Minute)}}

	slots := Generate(date, loc, src, 60, booked)

	require.Len(t, slots, 3)
	assert.True(t, slots[0].Start.Equal(date.Add(9*time.Hour)))
	assert.True(t, slots[1].Start.Equal(date.Add(10*time.Hour+30*time.Minute)))
	assert.True(t, slots[2].Start.Equal(date.Add(11*time.Hour)))
	for _, s := range slots {
		assert.True(t, s.End.Equal(s.Start.Add(60*time.Minute)))
	}
}

func TestGenerateUnavailableDayIsEmpty(t *testing.T) {
	loc := time.UTC
	date := time.Date(2026, 3, 11, 0, 0, 0, 0, loc) // Wednesday, not scheduled
	src := WeekScheduleSource{
		Schedule:        tuesdayOnlySchedule(models.TimeWindow{StartMinute: 540, EndMinute: 720}),
		IntervalMinutes: 30,
	}

	slots := Generate(date, loc, src, 30, nil)
	assert.Empty(t, slots)

	// Booked intervals are irrelevant when the day has no windows.
	booked := []Interval{{Start: date.Add(9 * time.Hour), End: date.Add(10 * time.Hour)}}
	assert.Empty(t, Generate(date, loc, src, 30, booked))
}

func TestGenerateWindowShorterThanDuration(t *testing.T) {
	loc := time.UTC
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	src := WeekScheduleSource{
		Schedule:        tuesdayOnlySchedule(models.TimeWindow{StartMinute: 540, EndMinute: 570}),
		IntervalMinutes: 15,
	}

	assert.Empty(t, Generate(date, loc, src, 60, nil))
}

func TestGenerateSortsAcrossUnorderedWindows(t *testing.T) {
	loc := time.UTC
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	src := WeekScheduleSource{
		Schedule: tuesdayOnlySchedule(
			models.TimeWindow{StartMinute: 840, EndMinute: 960}, // afternoon stored first
			models.TimeWindow{StartMinute: 540, EndMinute: 660},
		),
		IntervalMinutes: 60,
	}

	slots := Generate(date, loc, src, 60, nil)
	require.Len(t, slots, 4)
	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i-1].Start.Before(slots[i].Start))
	}
	assert.True(t, slots[0].Start.Equal(date.Add(9*time.Hour)))
}

func TestGenerateGridAlignment(t *testing.T) {
	loc := time.UTC
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	src := WeekScheduleSource{
		Schedule:        tuesdayOnlySchedule(models.TimeWindow{StartMinute: 555, EndMinute: 720}),
		IntervalMinutes: 25,
	}

	windowStart := date.Add(555 * time.Minute)
	for _, s := range Generate(date, loc, src, 40, nil) {
		offset := s.Start.Sub(windowStart)
		assert.Zero(t, offset%(25*time.Minute))
	}
}

func TestGenerateDeterministic(t *testing.T) {
	loc := time.UTC
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	src := WeekScheduleSource{
		Schedule:        tuesdayOnlySchedule(models.TimeWindow{StartMinute: 540, EndMinute: 720}),
		IntervalMinutes: 30,
	}
	booked := []Interval{{Start: date.Add(10 * time.Hour), End: date.Add(11 * time.Hour)}}

	first := Generate(date, loc, src, 30, booked)
	second := Generate(date, loc, src, 30, booked)
	assert.Equal(t, first, second)
}

func TestGenerateLegacyRulesPerRuleInterval(t *testing.T) {
	loc := time.UTC
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	src := LegacyRuleSource{Rules: []models.AvailabilityRule{
		{Weekday: 2, StartMinute: 540, EndMinute: 660, SlotIntervalMinutes: 60},
		{Weekday: 2, StartMinute: 780, EndMinute: 840, SlotIntervalMinutes: 20},
		{Weekday: 3, StartMinute: 540, EndMinute: 660, SlotIntervalMinutes: 60}, // other weekday
	}}

	slots := Generate(date, loc, src, 20, nil)
	starts := make([]time.Duration, 0, len(slots))
	for _, s := range slots {
		starts = append(starts, s.Start.Sub(date))
	}
	assert.Equal(t, []time.Duration{
		540 * time.Minute, 600 * time.Minute,
		780 * time.Minute, 800 * time.Minute, 820 * time.Minute,
	}, starts)
}

func TestGenerateDSTSpringForward(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2026-03-08: clocks jump 02:00 -> 03:00. Civil midnight is still EST
	// (UTC-5), so a fixed-offset conversion would be wrong for the rest of
	// the day.
	date := time.Date(2026, 3, 8, 0, 0, 0, 0, ny) // Sunday
	var week models.WeekSchedule
	week.Days[0] = models.DaySchedule{Weekday: 0, IsAvailable: true, TimeWindows: []models.TimeWindow{{StartMinute: 540, EndMinute: 600}}}
	src := WeekScheduleSource{Schedule: week, IntervalMinutes: 30}

	slots := Generate(date, ny, src, 30, nil)
	require.Len(t, slots, 2)

	// Midnight EST is 05:00 UTC; 540 minutes later is 14:00 UTC, which reads
	// 10:00 EDT on the wall clock after the jump.
	assert.True(t, slots[0].Start.Equal(time.Date(2026, 3, 8, 14, 0, 0, 0, time.UTC)))
}

func TestGenerateWeekdayObservedInZone(t *testing.T) {
	// Kiritimati is UTC+14: its Tuesday midnight falls on Monday in UTC. The
	// weekday must come from the business zone, not the instant's UTC day.
	kir, err := time.LoadLocation("Pacific/Kiritimati")
	require.NoError(t, err)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, kir) // Tuesday locally
	src := WeekScheduleSource{
		Schedule:        tuesdayOnlySchedule(models.TimeWindow{StartMinute: 540, EndMinute: 600}),
		IntervalMinutes: 30,
	}

	slots := Generate(date, kir, src, 30, nil)
	require.NotEmpty(t, slots)
	assert.Equal(t, time.Monday, slots[0].Start.UTC().Weekday())
}

func TestGenerateZeroDurationOrNilSource(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	src := WeekScheduleSource{Schedule: tuesdayOnlySchedule(models.TimeWindow{StartMinute: 540, EndMinute: 600}), IntervalMinutes: 30}

	assert.Empty(t, Generate(date, time.UTC, src, 0, nil))
	assert.Empty(t, Generate(date, time.UTC, nil, 30, nil))
}

func TestStaticWindowsIgnoresWeekday(t *testing.T) {
	src := StaticWindows{Windows: []WindowRule{{StartMinute: 600, EndMinute: 660, IntervalMinutes: 30}}}
	date := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC) // Friday

	slots := Generate(date, time.UTC, src, 30, nil)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].Start.Equal(date.Add(10*time.Hour)))
}

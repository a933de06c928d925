package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mira-santoso/salonbook-api/internal/availability"
	"github.com/mira-santoso/salonbook-api/internal/models"
	"github.com/mira-santoso/salonbook-api/internal/repository"
	appErrors "github.com/mira-santoso/salonbook-api/pkg/errors"
)

type slotFixture struct {
	schedules    *stubSchedules
	blocked      *stubBlocked
	overrides    *stubOverrides
	appointments *stubAppointments
	slots        *SlotService
}

func newSlotFixture(t *testing.T, cache *CacheService) *slotFixture {
	t.Helper()
	catalog := NewCatalogService(&stubCatalog{rows: map[string]repository.RawService{
		"svc-cut":   rawService("svc-cut", "Haircut", 30, 50000),
		"svc-color": rawService("svc-color", "Coloring", 45, 150000),
	}}, zap.NewNop())

	f := &slotFixture{
		schedules:    &stubSchedules{week: fullWeekSchedule(9*60, 12*60)},
		blocked:      &stubBlocked{blocked: map[string]bool{}},
		overrides:    &stubOverrides{},
		appointments: &stubAppointments{},
	}
	f.slots = NewSlotService(f.schedules, f.blocked, f.overrides, f.appointments, catalog, cache, nil,
		SlotConfig{Location: time.UTC, CacheTTL: time.Minute}, zap.NewNop())
	return f
}

func newTestCache(t *testing.T) *CacheService {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	repo := repository.NewCacheRepository(client, zap.NewNop())
	return NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
}

func TestSlotsForDateGeneratesGrid(t *testing.T) {
	f := newSlotFixture(t, nil)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	slots, err := f.slots.SlotsForDate(context.Background(), day, 30)
	require.NoError(t, err)
	// 09:00 through 11:30 on a 30-minute grid.
	require.Len(t, slots, 6)
	assert.True(t, slots[0].Start.Equal(day.Add(9*time.Hour)))
	assert.True(t, slots[5].Start.Equal(day.Add(11*time.Hour+30*time.Minute)))
}

func TestSlotsForDateBlockedIsEmpty(t *testing.T) {
	f := newSlotFixture(t, nil)
	f.blocked.blocked["2026-03-10"] = true
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	slots, err := f.slots.SlotsForDate(context.Background(), day, 30)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSlotsForDateDropsBookedKeepsAdjacent(t *testing.T) {
	f := newSlotFixture(t, nil)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f.appointments.booked = []availability.Interval{
		{Start: day.Add(10 * time.Hour), End: day.Add(10*time.Hour + 30*time.Minute)},
	}

	slots, err := f.slots.SlotsForDate(context.Background(), day, 30)
	require.NoError(t, err)
	require.Len(t, slots, 5)
	for _, s := range slots {
		assert.False(t, s.Start.Equal(day.Add(10*time.Hour)), "booked slot must be dropped")
	}
	// The slots touching the booking's edges survive.
	assert.True(t, availability.Contains(slots, day.Add(9*time.Hour+30*time.Minute)))
	assert.True(t, availability.Contains(slots, day.Add(10*time.Hour+30*time.Minute)))
}

func TestSlotsForDateOverrideReplacesWeek(t *testing.T) {
	f := newSlotFixture(t, nil)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f.overrides.overrides = map[string]models.DateOverride{
		"2026-03-10": {Date: day, TimeWindows: []models.TimeWindow{{StartMinute: 13 * 60, EndMinute: 14 * 60}}},
	}

	slots, err := f.slots.SlotsForDate(context.Background(), day, 30)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].Start.Equal(day.Add(13*time.Hour)))
	assert.True(t, slots[1].Start.Equal(day.Add(13*time.Hour+30*time.Minute)))
}

func TestSlotsForDateEmptyOverrideClosesDay(t *testing.T) {
	f := newSlotFixture(t, nil)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f.overrides.overrides = map[string]models.DateOverride{
		"2026-03-10": {Date: day},
	}

	slots, err := f.slots.SlotsForDate(context.Background(), day, 30)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSlotsForDateLegacyRulesWhenNoWeekSchedule(t *testing.T) {
	f := newSlotFixture(t, nil)
	f.schedules.week = nil
	// 2026-03-10 is a Tuesday.
	f.schedules.rules = []models.AvailabilityRule{
		{ID: "r1", Weekday: 2, StartMinute: 10 * 60, EndMinute: 11 * 60, SlotIntervalMinutes: 15},
		{ID: "r2", Weekday: 3, StartMinute: 9 * 60, EndMinute: 17 * 60, SlotIntervalMinutes: 30},
	}
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	slots, err := f.slots.SlotsForDate(context.Background(), day, 30)
	require.NoError(t, err)
	// 10:00, 10:15, 10:30 on the rule's own 15-minute grid.
	require.Len(t, slots, 3)
	assert.True(t, slots[1].Start.Equal(day.Add(10*time.Hour+15*time.Minute)))
}

func TestSlotsForDateWindowShorterThanDuration(t *testing.T) {
	f := newSlotFixture(t, nil)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	slots, err := f.slots.SlotsForDate(context.Background(), day, 240)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSlotsForDateCachesListing(t *testing.T) {
	f := newSlotFixture(t, newTestCache(t))
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	first, err := f.slots.SlotsForDate(context.Background(), day, 30)
	require.NoError(t, err)
	require.Len(t, first, 6)

	// A new booking does not show through the cache until invalidation.
	f.appointments.booked = []availability.Interval{
		{Start: day.Add(9 * time.Hour), End: day.Add(9*time.Hour + 30*time.Minute)},
	}
	cached, err := f.slots.SlotsForDate(context.Background(), day, 30)
	require.NoError(t, err)
	assert.Len(t, cached, 6)

	f.slots.InvalidateSlots(context.Background())
	fresh, err := f.slots.SlotsForDate(context.Background(), day, 30)
	require.NoError(t, err)
	assert.Len(t, fresh, 5)
}

func TestFreshSlotsBypassCache(t *testing.T) {
	f := newSlotFixture(t, newTestCache(t))
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := f.slots.SlotsForDate(context.Background(), day, 30)
	require.NoError(t, err)

	f.appointments.booked = []availability.Interval{
		{Start: day.Add(9 * time.Hour), End: day.Add(9*time.Hour + 30*time.Minute)},
	}
	fresh, err := f.slots.FreshSlotsForDate(context.Background(), day, 30)
	require.NoError(t, err)
	assert.Len(t, fresh, 5)
}

func TestSlotsForRange(t *testing.T) {
	f := newSlotFixture(t, nil)
	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)

	days, err := f.slots.SlotsForRange(context.Background(), from, to, 30)
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, "2026-03-10", days[0].Date)
	assert.Equal(t, "2026-03-12", days[2].Date)
	assert.Len(t, days[0].Slots, 6)
}

func TestSlotsForRangeRejectsInvertedBounds(t *testing.T) {
	f := newSlotFixture(t, nil)
	from := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := f.slots.SlotsForRange(context.Background(), from, to, 30)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSlotsForRangeCapped(t *testing.T) {
	f := newSlotFixture(t, nil)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 40)

	_, err := f.slots.SlotsForRange(context.Background(), from, to, 30)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResolveDuration(t *testing.T) {
	f := newSlotFixture(t, nil)
	ctx := context.Background()

	got, err := f.slots.ResolveDuration(ctx, nil, 45)
	require.NoError(t, err)
	assert.Equal(t, 45, got)

	got, err = f.slots.ResolveDuration(ctx, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 30, got)

	got, err = f.slots.ResolveDuration(ctx, []string{"svc-cut", "svc-color"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 75, got)

	_, err = f.slots.ResolveDuration(ctx, []string{"svc-missing"}, 0)
	require.Error(t, err)
}

func TestSlotsForDateRejectsNonPositiveDuration(t *testing.T) {
	f := newSlotFixture(t, nil)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := f.slots.SlotsForDate(context.Background(), day, 0)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

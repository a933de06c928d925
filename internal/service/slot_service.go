package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mira-santoso/salonbook-api/internal/availability"
	"github.com/mira-santoso/salonbook-api/internal/models"
	appErrors "github.com/mira-santoso/salonbook-api/pkg/errors"
)

type weekScheduleReader interface {
	GetWeekSchedule(ctx context.Context) (*models.WeekSchedule, error)
	ListLegacyRules(ctx context.Context) ([]models.AvailabilityRule, error)
}

type blockedDateReader interface {
	IsBlocked(ctx context.Context, date time.Time) (bool, error)
}

type overrideReader interface {
	GetByDate(ctx context.Context, date time.Time) (*models.DateOverride, error)
}

type bookedIntervalReader interface {
	ListBookedIntervals(ctx context.Context, from, to time.Time) ([]availability.Interval, error)
}

// SlotConfig carries the tunables the slot listing path needs.
type SlotConfig struct {
	Location               *time.Location
	DefaultIntervalMinutes int
	CacheTTL               time.Duration
	MaxRangeDays           int
}

// DaySlots is one day's free-slot listing.
type DaySlots struct {
	Date  string              `json:"date"`
	Slots []availability.Slot `json:"slots"`
}

// SlotService derives concrete bookable slots for civil dates from the
// recurring schedule, per-date overrides, blackout dates and the live
// appointment ledger.
type SlotService struct {
	schedules    weekScheduleReader
	blocked      blockedDateReader
	overrides    overrideReader
	appointments bookedIntervalReader
	catalog      *CatalogService
	cache        *CacheService
	metrics      *MetricsService
	cfg          SlotConfig
	logger       *zap.Logger
}

// NewSlotService builds a SlotService.
func NewSlotService(
	schedules weekScheduleReader,
	blocked blockedDateReader,
	overrides overrideReader,
	appointments bookedIntervalReader,
	catalog *CatalogService,
	cache *CacheService,
	metrics *MetricsService,
	cfg SlotConfig,
	logger *zap.Logger,
) *SlotService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DefaultIntervalMinutes <= 0 {
		cfg.DefaultIntervalMinutes = 30
	}
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = 31
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlotService{
		schedules:    schedules,
		blocked:      blocked,
		overrides:    overrides,
		appointments: appointments,
		catalog:      catalog,
		cache:        cache,
		metrics:      metrics,
		cfg:          cfg,
		logger:       logger,
	}
}

// Location exposes the configured business timezone.
func (s *SlotService) Location() *time.Location {
	return s.cfg.Location
}

// ResolveDuration turns a listing request into a concrete duration: an
// explicit override wins, otherwise the requested services' durations are
// summed through the catalog.
func (s *SlotService) ResolveDuration(ctx context.Context, serviceIDs []string, overrideMinutes int) (int, error) {
	if overrideMinutes > 0 {
		return overrideMinutes, nil
	}
	if len(serviceIDs) == 0 {
		return s.cfg.DefaultIntervalMinutes, nil
	}
	total := 0
	for _, id := range serviceIDs {
		svc, err := s.catalog.Get(ctx, id)
		if err != nil {
			return 0, err
		}
		total += svc.DurationMinutes
	}
	return total, nil
}

// SlotsForDate lists the free slots of one civil date for the given
// duration. A blocked or unconfigured day yields an empty list, never an
// error.
func (s *SlotService) SlotsForDate(ctx context.Context, date time.Time, durationMinutes int) ([]availability.Slot, error) {
	if durationMinutes <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "duration must be positive")
	}

	civil := models.DateOnly(date)
	cacheKey := fmt.Sprintf("slots:%s:%d", models.DateKey(civil), durationMinutes)
	var cached []availability.Slot
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	slots, err := s.computeSlots(ctx, civil, durationMinutes)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, slots, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("slot cache write failed", zap.String("key", cacheKey), zap.Error(err))
	}
	s.metrics.ObserveSlotsGenerated(len(slots))
	return slots, nil
}

// FreshSlotsForDate is the listing path with the cache bypassed. The
// conflict validator uses it so an authorization decision never rides on a
// stale cached listing.
func (s *SlotService) FreshSlotsForDate(ctx context.Context, date time.Time, durationMinutes int) ([]availability.Slot, error) {
	if durationMinutes <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "duration must be positive")
	}
	return s.computeSlots(ctx, models.DateOnly(date), durationMinutes)
}

// SlotsForRange lists free slots per day across [from, to] inclusive.
func (s *SlotService) SlotsForRange(ctx context.Context, from, to time.Time, durationMinutes int) ([]DaySlots, error) {
	start := models.DateOnly(from)
	end := models.DateOnly(to)
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "range end precedes start")
	}
	if int(end.Sub(start).Hours()/24) >= s.cfg.MaxRangeDays {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("range exceeds %d days", s.cfg.MaxRangeDays))
	}

	var out []DaySlots
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		slots, err := s.SlotsForDate(ctx, day, durationMinutes)
		if err != nil {
			return nil, err
		}
		out = append(out, DaySlots{Date: models.DateKey(day), Slots: slots})
	}
	return out, nil
}

// computeSlots is the uncached generation path. Blackout dominates
// everything; a date override replaces the recurring windows for its date;
// the legacy flat rules only apply when no week schedule is configured.
func (s *SlotService) computeSlots(ctx context.Context, civil time.Time, durationMinutes int) ([]availability.Slot, error) {
	blocked, err := s.blocked.IsBlocked(ctx, civil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "blocked date lookup failed")
	}
	if blocked {
		return []availability.Slot{}, nil
	}

	src, err := s.windowSource(ctx, civil)
	if err != nil {
		return nil, err
	}

	dayStart := time.Date(civil.Year(), civil.Month(), civil.Day(), 0, 0, 0, 0, s.cfg.Location)
	dayEnd := dayStart.AddDate(0, 0, 1)
	booked, err := s.appointments.ListBookedIntervals(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "booked interval lookup failed")
	}

	return availability.Generate(civil, s.cfg.Location, src, durationMinutes, booked), nil
}

func (s *SlotService) windowSource(ctx context.Context, civil time.Time) (availability.DayWindows, error) {
	override, err := s.overrides.GetByDate(ctx, civil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "date override lookup failed")
	}
	if override != nil {
		windows := make([]availability.WindowRule, 0, len(override.TimeWindows))
		for _, w := range override.TimeWindows {
			windows = append(windows, availability.WindowRule{
				StartMinute:     w.StartMinute,
				EndMinute:       w.EndMinute,
				IntervalMinutes: s.cfg.DefaultIntervalMinutes,
			})
		}
		return availability.StaticWindows{Windows: windows}, nil
	}

	week, err := s.schedules.GetWeekSchedule(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "week schedule lookup failed")
	}
	if week != nil {
		return availability.WeekScheduleSource{Schedule: *week, IntervalMinutes: s.cfg.DefaultIntervalMinutes}, nil
	}

	rules, err := s.schedules.ListLegacyRules(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "availability rule lookup failed")
	}
	return availability.LegacyRuleSource{Rules: rules}, nil
}

// InvalidateSlots drops every cached slot listing. Called after any write
// that can change availability.
func (s *SlotService) InvalidateSlots(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "slots:*"); err != nil {
		s.logger.Warn("slot cache invalidation failed", zap.Error(err))
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mira-santoso/salonbook-api/internal/models"
	appErrors "github.com/mira-santoso/salonbook-api/pkg/errors"
)

type weekScheduleStore interface {
	GetWeekSchedule(ctx context.Context) (*models.WeekSchedule, error)
	ReplaceWeekSchedule(ctx context.Context, week models.WeekSchedule) error
}

type blockedDateStore interface {
	Add(ctx context.Context, dates []models.BlockedDate) error
	Remove(ctx context.Context, dates []time.Time) error
	ListRange(ctx context.Context, from, to time.Time) ([]models.BlockedDate, error)
}

type overrideStore interface {
	Upsert(ctx context.Context, override models.DateOverride) error
	Remove(ctx context.Context, date time.Time) error
	GetByDate(ctx context.Context, date time.Time) (*models.DateOverride, error)
}

type slotInvalidator interface {
	InvalidateSlots(ctx context.Context)
}

// ScheduleService owns the administrative write surface feeding the slot
// generator: the recurring week schedule, blackout dates and per-date
// overrides. Every successful write invalidates the cached slot listings.
type ScheduleService struct {
	schedules weekScheduleStore
	blocked   blockedDateStore
	overrides overrideStore
	slots     slotInvalidator
	location  *time.Location
	logger    *zap.Logger
}

// NewScheduleService builds a ScheduleService.
func NewScheduleService(
	schedules weekScheduleStore,
	blocked blockedDateStore,
	overrides overrideStore,
	slots slotInvalidator,
	location *time.Location,
	logger *zap.Logger,
) *ScheduleService {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		schedules: schedules,
		blocked:   blocked,
		overrides: overrides,
		slots:     slots,
		location:  location,
		logger:    logger,
	}
}

// GetWeek returns the recurring schedule, or nil when none is configured.
func (s *ScheduleService) GetWeek(ctx context.Context) (*models.WeekSchedule, error) {
	week, err := s.schedules.GetWeekSchedule(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load week schedule")
	}
	return week, nil
}

// ReplaceWeek swaps the whole recurring schedule. The payload must carry
// exactly seven days, weekday 0 through 6, with internally consistent
// windows; there is no partial merge.
func (s *ScheduleService) ReplaceWeek(ctx context.Context, week models.WeekSchedule) error {
	if err := validateWeekSchedule(week); err != nil {
		return err
	}
	if err := s.schedules.ReplaceWeekSchedule(ctx, week); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace week schedule")
	}
	s.slots.InvalidateSlots(ctx)
	s.logger.Info("week schedule replaced")
	return nil
}

// ListBlocked returns the blackout dates within [from, to].
func (s *ScheduleService) ListBlocked(ctx context.Context, from, to time.Time) ([]models.BlockedDate, error) {
	start := models.DateOnly(from)
	end := models.DateOnly(to)
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "range end precedes start")
	}
	dates, err := s.blocked.ListRange(ctx, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list blocked dates")
	}
	return dates, nil
}

// BlockDates marks one or more calendar dates as unbookable.
func (s *ScheduleService) BlockDates(ctx context.Context, dates []models.BlockedDate) error {
	if len(dates) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "no dates supplied")
	}
	for i := range dates {
		dates[i].Date = models.DateOnly(dates[i].Date)
	}
	if err := s.blocked.Add(ctx, dates); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to block dates")
	}
	s.slots.InvalidateSlots(ctx)
	return nil
}

// UnblockDates removes blackout markers.
func (s *ScheduleService) UnblockDates(ctx context.Context, dates []time.Time) error {
	if len(dates) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "no dates supplied")
	}
	civil := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		civil = append(civil, models.DateOnly(d))
	}
	if err := s.blocked.Remove(ctx, civil); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unblock dates")
	}
	s.slots.InvalidateSlots(ctx)
	return nil
}

// GetOverride returns the override for a date, or nil when none exists.
func (s *ScheduleService) GetOverride(ctx context.Context, date time.Time) (*models.DateOverride, error) {
	override, err := s.overrides.GetByDate(ctx, models.DateOnly(date))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load date override")
	}
	return override, nil
}

// SetOverride replaces the recurring windows for a single date. Zero
// windows is legal and makes the date unbookable.
func (s *ScheduleService) SetOverride(ctx context.Context, override models.DateOverride) error {
	override.Date = models.DateOnly(override.Date)
	if err := validateWindows(override.TimeWindows); err != nil {
		return err
	}
	if err := s.overrides.Upsert(ctx, override); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save date override")
	}
	s.slots.InvalidateSlots(ctx)
	return nil
}

// RemoveOverride restores the recurring schedule for a date.
func (s *ScheduleService) RemoveOverride(ctx context.Context, date time.Time) error {
	if err := s.overrides.Remove(ctx, models.DateOnly(date)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove date override")
	}
	s.slots.InvalidateSlots(ctx)
	return nil
}

func validateWeekSchedule(week models.WeekSchedule) error {
	for i, day := range week.Days {
		if day.Weekday != i {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("day %d carries weekday %d", i, day.Weekday))
		}
		if !day.IsAvailable {
			if len(day.TimeWindows) > 0 {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("weekday %d is unavailable but has windows", i))
			}
			continue
		}
		if err := validateWindows(day.TimeWindows); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("weekday %d: %s", i, appErrors.FromError(err).Message))
		}
	}
	return nil
}

func validateWindows(windows []models.TimeWindow) error {
	for i, w := range windows {
		if w.StartMinute < 0 || w.EndMinute > 24*60 || w.StartMinute >= w.EndMinute {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("window %d has invalid bounds [%d,%d)", i, w.StartMinute, w.EndMinute))
		}
		for j := 0; j < i; j++ {
			prev := windows[j]
			if w.StartMinute < prev.EndMinute && prev.StartMinute < w.EndMinute {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("window %d overlaps window %d", i, j))
			}
		}
	}
	return nil
}

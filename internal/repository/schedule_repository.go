package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mira-santoso/salonbook-api/internal/models"
)

// ScheduleRepository persists the recurring weekly schedule and the legacy
// flat availability rules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

type dayRow struct {
	Weekday     int       `db:"weekday"`
	IsAvailable bool      `db:"is_available"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type windowRow struct {
	Weekday     int `db:"weekday"`
	StartMinute int `db:"start_minute"`
	EndMinute   int `db:"end_minute"`
}

// GetWeekSchedule loads the full 7-day schedule. It returns (nil, nil) when
// no schedule has been configured yet.
func (r *ScheduleRepository) GetWeekSchedule(ctx context.Context) (*models.WeekSchedule, error) {
	var days []dayRow
	if err := r.db.SelectContext(ctx, &days, `SELECT weekday, is_available, updated_at FROM week_schedule ORDER BY weekday`); err != nil {
		return nil, fmt.Errorf("load week schedule: %w", err)
	}
	if len(days) == 0 {
		return nil, nil
	}

	var windows []windowRow
	if err := r.db.SelectContext(ctx, &windows, `SELECT weekday, start_minute, end_minute FROM schedule_windows ORDER BY weekday, start_minute`); err != nil {
		return nil, fmt.Errorf("load schedule windows: %w", err)
	}

	var week models.WeekSchedule
	for i := range week.Days {
		week.Days[i] = models.DaySchedule{Weekday: i}
	}
	for _, d := range days {
		if d.Weekday < 0 || d.Weekday > 6 {
			continue
		}
		week.Days[d.Weekday].IsAvailable = d.IsAvailable
		if d.UpdatedAt.After(week.UpdatedAt) {
			week.UpdatedAt = d.UpdatedAt
		}
	}
	for _, w := range windows {
		if w.Weekday < 0 || w.Weekday > 6 {
			continue
		}
		week.Days[w.Weekday].TimeWindows = append(week.Days[w.Weekday].TimeWindows, models.TimeWindow{
			StartMinute: w.StartMinute,
			EndMinute:   w.EndMinute,
		})
	}
	return &week, nil
}

// ReplaceWeekSchedule swaps the whole 7-day schedule in one transaction.
// There is no partial merge.
func (r *ScheduleRepository) ReplaceWeekSchedule(ctx context.Context, week models.WeekSchedule) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace week schedule: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_windows`); err != nil {
		return fmt.Errorf("clear schedule windows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM week_schedule`); err != nil {
		return fmt.Errorf("clear week schedule: %w", err)
	}

	now := time.Now().UTC()
	for _, day := range week.Days {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO week_schedule (weekday, is_available, updated_at) VALUES ($1, $2, $3)`,
			day.Weekday, day.IsAvailable, now); err != nil {
			return fmt.Errorf("insert week schedule day %d: %w", day.Weekday, err)
		}
		for _, w := range day.TimeWindows {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO schedule_windows (weekday, start_minute, end_minute) VALUES ($1, $2, $3)`,
				day.Weekday, w.StartMinute, w.EndMinute); err != nil {
				return fmt.Errorf("insert schedule window: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace week schedule: %w", err)
	}
	return nil
}

// ListLegacyRules returns the flat availability rules, ordered for
// deterministic generation.
func (r *ScheduleRepository) ListLegacyRules(ctx context.Context) ([]models.AvailabilityRule, error) {
	const query = `SELECT id, weekday, start_minute, end_minute, slot_interval_minutes
FROM availability_rules ORDER BY weekday, start_minute`
	var rules []models.AvailabilityRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("list availability rules: %w", err)
	}
	return rules, nil
}

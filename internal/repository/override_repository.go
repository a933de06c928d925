package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mira-santoso/salonbook-api/internal/models"
)

// OverrideRepository persists per-date schedule overrides.
type OverrideRepository struct {
	db *sqlx.DB
}

// NewOverrideRepository constructs the repository.
func NewOverrideRepository(db *sqlx.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

// Upsert replaces the override (and its windows) for one date.
func (r *OverrideRepository) Upsert(ctx context.Context, override models.DateOverride) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert override: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	key := models.DateKey(override.Date)
	if _, err := tx.ExecContext(ctx, `DELETE FROM date_override_windows WHERE override_on = $1`, key); err != nil {
		return fmt.Errorf("clear override windows: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO date_overrides (override_on, created_at) VALUES ($1, $2)
ON CONFLICT (override_on) DO NOTHING`, key, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert override: %w", err)
	}
	for _, w := range override.TimeWindows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO date_override_windows (override_on, start_minute, end_minute) VALUES ($1, $2, $3)`,
			key, w.StartMinute, w.EndMinute); err != nil {
			return fmt.Errorf("insert override window: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert override: %w", err)
	}
	return nil
}

// Remove deletes the override for one date.
func (r *OverrideRepository) Remove(ctx context.Context, date time.Time) error {
	key := models.DateKey(date)
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove override: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM date_override_windows WHERE override_on = $1`, key); err != nil {
		return fmt.Errorf("remove override windows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM date_overrides WHERE override_on = $1`, key); err != nil {
		return fmt.Errorf("remove override: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit remove override: %w", err)
	}
	return nil
}

// GetByDate returns the override for one civil date, or (nil, nil) when none
// exists.
func (r *OverrideRepository) GetByDate(ctx context.Context, date time.Time) (*models.DateOverride, error) {
	key := models.DateKey(date)
	var override models.DateOverride
	err := r.db.GetContext(ctx, &override, `SELECT override_on, created_at FROM date_overrides WHERE override_on = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load override: %w", err)
	}

	var windows []windowOverrideRow
	if err := r.db.SelectContext(ctx, &windows,
		`SELECT start_minute, end_minute FROM date_override_windows WHERE override_on = $1 ORDER BY start_minute`, key); err != nil {
		return nil, fmt.Errorf("load override windows: %w", err)
	}
	for _, w := range windows {
		override.TimeWindows = append(override.TimeWindows, models.TimeWindow{StartMinute: w.StartMinute, EndMinute: w.EndMinute})
	}
	return &override, nil
}

type windowOverrideRow struct {
	StartMinute int `db:"start_minute"`
	EndMinute   int `db:"end_minute"`
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mira-santoso/salonbook-api/internal/models"
)

// BlockedDateRepository persists blackout dates.
type BlockedDateRepository struct {
	db *sqlx.DB
}

// NewBlockedDateRepository constructs the repository.
func NewBlockedDateRepository(db *sqlx.DB) *BlockedDateRepository {
	return &BlockedDateRepository{db: db}
}

// Add inserts one or more blocked dates, ignoring ones already present.
func (r *BlockedDateRepository) Add(ctx context.Context, dates []models.BlockedDate) error {
	const query = `INSERT INTO blocked_dates (blocked_on, reason, created_at) VALUES ($1, $2, $3)
ON CONFLICT (blocked_on) DO UPDATE SET reason = EXCLUDED.reason`
	now := time.Now().UTC()
	for _, d := range dates {
		if _, err := r.db.ExecContext(ctx, query, models.DateKey(d.Date), d.Reason, now); err != nil {
			return fmt.Errorf("add blocked date %s: %w", models.DateKey(d.Date), err)
		}
	}
	return nil
}

// Remove deletes the given dates from the blackout list.
func (r *BlockedDateRepository) Remove(ctx context.Context, dates []time.Time) error {
	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = models.DateKey(d)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM blocked_dates WHERE blocked_on = ANY($1)`, pq.Array(keys)); err != nil {
		return fmt.Errorf("remove blocked dates: %w", err)
	}
	return nil
}

// IsBlocked reports whether the given civil date is blacked out.
func (r *BlockedDateRepository) IsBlocked(ctx context.Context, date time.Time) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM blocked_dates WHERE blocked_on = $1`, models.DateKey(date)); err != nil {
		return false, fmt.Errorf("check blocked date: %w", err)
	}
	return count > 0, nil
}

// ListRange returns blocked dates within [from, to], ordered by date.
func (r *BlockedDateRepository) ListRange(ctx context.Context, from, to time.Time) ([]models.BlockedDate, error) {
	const query = `SELECT blocked_on, reason, created_at FROM blocked_dates
WHERE blocked_on >= $1 AND blocked_on <= $2 ORDER BY blocked_on`
	var dates []models.BlockedDate
	if err := r.db.SelectContext(ctx, &dates, query, models.DateKey(from), models.DateKey(to)); err != nil {
		return nil, fmt.Errorf("list blocked dates: %w", err)
	}
	return dates, nil
}

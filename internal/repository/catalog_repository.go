package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// RawService is a catalog row as stored, before boundary validation. The
// catalog service turns it into a fully populated models.Service or rejects
// it — nullable columns never leak zero-value defaults into the engine.
type RawService struct {
	ID              string          `db:"id"`
	Name            sql.NullString  `db:"name"`
	DurationMinutes sql.NullInt64   `db:"duration_minutes"`
	Price           sql.NullFloat64 `db:"price"`
	CostBasis       sql.NullFloat64 `db:"cost_basis"`
	PromoPrice      sql.NullFloat64 `db:"promo_price"`
	PromoUntil      sql.NullTime    `db:"promo_until"`
	Active          bool            `db:"active"`
}

// CatalogRepository reads the service catalog store.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const rawServiceColumns = `id, name, duration_minutes, price, cost_basis, promo_price, promo_until, active`

// GetByID fetches one catalog row, or (nil, nil) when absent.
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*RawService, error) {
	query := fmt.Sprintf(`SELECT %s FROM services WHERE id = $1`, rawServiceColumns)
	var raw RawService
	if err := r.db.GetContext(ctx, &raw, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load service %s: %w", id, err)
	}
	return &raw, nil
}

// ListActive returns raw rows for all active services.
func (r *CatalogRepository) ListActive(ctx context.Context) ([]RawService, error) {
	query := fmt.Sprintf(`SELECT %s FROM services WHERE active ORDER BY name`, rawServiceColumns)
	var raws []RawService
	if err := r.db.SelectContext(ctx, &raws, query); err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return raws, nil
}

// PromoActiveAt reports whether the row carries a promotional price valid at
// the given instant.
func (raw RawService) PromoActiveAt(now time.Time) bool {
	if !raw.PromoPrice.Valid {
		return false
	}
	return !raw.PromoUntil.Valid || now.Before(raw.PromoUntil.Time)
}

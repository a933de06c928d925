package models

import "time"

// Service is a fully validated catalog entry. The catalog boundary rejects
// rows it cannot populate completely; a zero duration never reaches the
// booking path.
type Service struct {
	ID              string     `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"`
	Price           float64    `db:"price" json:"price"`
	CostBasis       float64    `db:"cost_basis" json:"cost_basis"`
	PromoPrice      *float64   `db:"promo_price" json:"promo_price,omitempty"`
	PromoUntil      *time.Time `db:"promo_until" json:"promo_until,omitempty"`
	Active          bool       `db:"active" json:"active"`
}

// EffectivePrice returns the promotional price when one is active at now,
// otherwise the list price.
func (s Service) EffectivePrice(now time.Time) float64 {
	if s.PromoPrice != nil && (s.PromoUntil == nil || now.Before(*s.PromoUntil)) {
		return *s.PromoPrice
	}
	return s.Price
}

package models

import "time"

// Customer is a walk-up customer record keyed by phone number.
type Customer struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Phone        string    `db:"phone" json:"phone"`
	LoyaltyCount int       `db:"loyalty_count" json:"loyalty_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

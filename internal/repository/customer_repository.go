package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mira-santoso/salonbook-api/internal/models"
)

// CustomerRepository persists walk-up customer records and loyalty counts.
type CustomerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository constructs the repository.
func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// FindByPhone returns the customer with the given phone, or (nil, nil).
func (r *CustomerRepository) FindByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	const query = `SELECT id, name, phone, loyalty_count, created_at, updated_at FROM customers WHERE phone = $1 LIMIT 1`
	var customer models.Customer
	if err := r.db.GetContext(ctx, &customer, query, phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find customer by phone: %w", err)
	}
	return &customer, nil
}

// FindByID returns the customer with the given id, or (nil, nil).
func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*models.Customer, error) {
	const query = `SELECT id, name, phone, loyalty_count, created_at, updated_at FROM customers WHERE id = $1`
	var customer models.Customer
	if err := r.db.GetContext(ctx, &customer, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find customer by id: %w", err)
	}
	return &customer, nil
}

// Create inserts a new customer. Phone collisions fall back to the existing
// row so the find-or-create flow stays idempotent under races.
func (r *CustomerRepository) Create(ctx context.Context, name, phone string) (*models.Customer, error) {
	customer := &models.Customer{
		ID:        uuid.NewString(),
		Name:      name,
		Phone:     phone,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	const query = `INSERT INTO customers (id, name, phone, loyalty_count, created_at, updated_at)
VALUES (:id, :name, :phone, 0, :created_at, :updated_at)
ON CONFLICT (phone) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, customer); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	existing, err := r.FindByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("create customer: row not found after insert")
	}
	return existing, nil
}

// AdjustLoyalty increments (or decrements) a customer's loyalty count.
func (r *CustomerRepository) AdjustLoyalty(ctx context.Context, customerID string, delta int) error {
	const query = `UPDATE customers SET loyalty_count = GREATEST(loyalty_count + $2, 0), updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, customerID, delta, time.Now().UTC()); err != nil {
		return fmt.Errorf("adjust loyalty: %w", err)
	}
	return nil
}

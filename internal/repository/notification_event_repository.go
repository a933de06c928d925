package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mira-santoso/salonbook-api/internal/models"
)

// NotificationEventRepository records outbound notifications for idempotency
// and audit.
type NotificationEventRepository struct {
	db *sqlx.DB
}

// NewNotificationEventRepository constructs the repository.
func NewNotificationEventRepository(db *sqlx.DB) *NotificationEventRepository {
	return &NotificationEventRepository{db: db}
}

// Record persists one fired notification.
func (r *NotificationEventRepository) Record(ctx context.Context, event *models.NotificationEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.SentAt.IsZero() {
		event.SentAt = time.Now().UTC()
	}
	const query = `INSERT INTO notification_events (id, appointment_id, kind, phone, message, sent_at)
VALUES (:id, :appointment_id, :kind, :phone, :message, :sent_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("record notification event: %w", err)
	}
	return nil
}

// Exists reports whether a notification of the given kind already fired for
// the appointment.
func (r *NotificationEventRepository) Exists(ctx context.Context, appointmentID, kind string) (bool, error) {
	var count int
	const query = `SELECT COUNT(1) FROM notification_events WHERE appointment_id = $1 AND kind = $2`
	if err := r.db.GetContext(ctx, &count, query, appointmentID, kind); err != nil {
		return false, fmt.Errorf("check notification event: %w", err)
	}
	return count > 0, nil
}

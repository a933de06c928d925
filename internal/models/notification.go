package models

import "time"

// Notification kinds recorded in the notification_events audit table.
const (
	NotificationConfirmation = "CONFIRMATION"
	NotificationReminder     = "REMINDER"
	NotificationCancellation = "CANCELLATION"
)

// NotificationEvent records one outbound message for idempotency and audit.
type NotificationEvent struct {
	ID            string    `db:"id" json:"id"`
	AppointmentID string    `db:"appointment_id" json:"appointment_id"`
	Kind          string    `db:"kind" json:"kind"`
	Phone         string    `db:"phone" json:"phone"`
	Message       string    `db:"message" json:"message"`
	SentAt        time.Time `db:"sent_at" json:"sent_at"`
}

// ReminderPayload is the asynq task body for a scheduled reminder.
type ReminderPayload struct {
	AppointmentID string    `json:"appointment_id"`
	BatchID       string    `json:"batch_id"`
	Phone         string    `json:"phone"`
	CustomerName  string    `json:"customer_name"`
	StartAt       time.Time `json:"start_at"`
}

package models

import "time"

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusBooked    AppointmentStatus = "BOOKED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	StatusDone      AppointmentStatus = "DONE"
)

// Appointment is one service occupying [StartAt, EndAt) on the calendar.
// A batch booking produces several rows sharing a BatchID, chained
// back-to-back. The set of BOOKED rows must be pairwise non-overlapping
// under half-open semantics at all times.
type Appointment struct {
	ID         string            `db:"id" json:"id"`
	BatchID    string            `db:"batch_id" json:"batch_id"`
	ServiceID  string            `db:"service_id" json:"service_id"`
	CustomerID *string           `db:"customer_id" json:"customer_id,omitempty"`
	StartAt    time.Time         `db:"start_at" json:"start_at"`
	EndAt      time.Time         `db:"end_at" json:"end_at"`
	Status     AppointmentStatus `db:"status" json:"status"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time         `db:"updated_at" json:"updated_at"`
}

// Overlaps reports whether the appointment intersects [start, end) under
// half-open semantics; touching intervals do not overlap.
func (a Appointment) Overlaps(start, end time.Time) bool {
	return a.StartAt.Before(end) && a.EndAt.After(start)
}

// PaymentPart is one line of the payment breakdown declared when an
// appointment is completed.
type PaymentPart struct {
	ID            string  `db:"id" json:"id"`
	AppointmentID string  `db:"appointment_id" json:"appointment_id"`
	Method        string  `db:"method" json:"method"`
	Amount        float64 `db:"amount" json:"amount"`
}

// BookingRequest is a walk-up or staff submission: one or more service ids
// consumed sequentially from a single start instant.
type BookingRequest struct {
	ServiceIDs    []string  `json:"service_ids" validate:"required,min=1,dive,required"`
	StartAt       time.Time `json:"start_at" validate:"required"`
	CustomerName  string    `json:"customer_name" validate:"required"`
	CustomerPhone string    `json:"customer_phone" validate:"required"`
}

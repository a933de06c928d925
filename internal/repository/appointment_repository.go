package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mira-santoso/salonbook-api/internal/availability"
	"github.com/mira-santoso/salonbook-api/internal/models"
)

// ErrOverlap is returned when a commit finds the interval already taken by a
// BOOKED row inside its own transaction.
var ErrOverlap = errors.New("appointments: interval already booked")

const appointmentColumns = `id, batch_id, service_id, customer_id, start_at, end_at, status, created_at, updated_at`

// AppointmentRepository owns the appointment ledger. All writes that can
// affect the non-overlap invariant go through serialized transactions here.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs the repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// ListBookedIntervals returns the [start,end) intervals of BOOKED rows
// intersecting [from, to), ordered by start time.
func (r *AppointmentRepository) ListBookedIntervals(ctx context.Context, from, to time.Time) ([]availability.Interval, error) {
	const query = `SELECT start_at, end_at FROM appointments
WHERE status = 'BOOKED' AND start_at < $2 AND end_at > $1
ORDER BY start_at ASC`
	rows, err := r.db.QueryxContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list booked intervals: %w", err)
	}
	defer rows.Close()

	var intervals []availability.Interval
	for rows.Next() {
		var iv availability.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, fmt.Errorf("scan booked interval: %w", err)
		}
		intervals = append(intervals, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list booked intervals: %w", err)
	}
	return intervals, nil
}

// GetByID fetches one appointment.
func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1`, appointmentColumns)
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id); err != nil {
		return nil, err
	}
	return &appt, nil
}

// ListByBatch returns every appointment sharing a batch id, in start order.
func (r *AppointmentRepository) ListByBatch(ctx context.Context, batchID string) ([]models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE batch_id = $1 ORDER BY start_at ASC`, appointmentColumns)
	var appts []models.Appointment
	if err := r.db.SelectContext(ctx, &appts, query, batchID); err != nil {
		return nil, fmt.Errorf("list batch appointments: %w", err)
	}
	return appts, nil
}

// CreateBatch inserts the chained appointment rows of one booking atomically.
//
// The transaction takes an advisory lock per civil date the combined interval
// touches (in a fixed order, to avoid lock inversion between concurrent
// batches), re-checks the overlap against BOOKED rows, then inserts. The gist
// exclusion constraint on the table is the backstop; either failure mode
// surfaces as ErrOverlap or an exclusion violation the caller can retry on.
func (r *AppointmentRepository) CreateBatch(ctx context.Context, dateKeys []string, appts []models.Appointment) error {
	if len(appts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	keys := append([]string(nil), dateKeys...)
	sort.Strings(keys)
	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext('appointments:' || $1))`, key); err != nil {
			return fmt.Errorf("acquire date lock %s: %w", key, err)
		}
	}

	combinedStart := appts[0].StartAt
	combinedEnd := appts[len(appts)-1].EndAt
	var clashes int
	err = tx.GetContext(ctx, &clashes,
		`SELECT COUNT(1) FROM appointments WHERE status = 'BOOKED' AND start_at < $2 AND end_at > $1`,
		combinedStart, combinedEnd)
	if err != nil {
		return fmt.Errorf("recheck overlap: %w", err)
	}
	if clashes > 0 {
		return ErrOverlap
	}

	now := time.Now().UTC()
	const insert = `INSERT INTO appointments (id, batch_id, service_id, customer_id, start_at, end_at, status, created_at, updated_at)
VALUES (:id, :batch_id, :service_id, :customer_id, :start_at, :end_at, :status, :created_at, :updated_at)`
	for i := range appts {
		if appts[i].ID == "" {
			appts[i].ID = uuid.NewString()
		}
		appts[i].CreatedAt = now
		appts[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, insert, appts[i]); err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}
	return nil
}

// Transition moves an appointment between lifecycle states.
//
// The row is locked FOR UPDATE and the expected source state verified inside
// the transaction. A revert back to BOOKED additionally re-checks the raw
// overlap: the interval may have been re-booked since, and the invariant
// holds at all times.
func (r *AppointmentRepository) Transition(ctx context.Context, id string, from, to models.AppointmentStatus) (*models.Appointment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	appt, err := r.transitionLocked(ctx, tx, id, from, to)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return appt, nil
}

// Complete moves a BOOKED appointment to DONE and records its payment
// breakdown in the same transaction, so a DONE row can never exist without
// its payment parts.
func (r *AppointmentRepository) Complete(ctx context.Context, id string, parts []models.PaymentPart) (*models.Appointment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin complete tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	appt, err := r.transitionLocked(ctx, tx, id, models.StatusBooked, models.StatusDone)
	if err != nil {
		return nil, err
	}

	const insert = `INSERT INTO appointment_payments (id, appointment_id, method, amount) VALUES ($1, $2, $3, $4)`
	for _, p := range parts {
		partID := p.ID
		if partID == "" {
			partID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, insert, partID, id, p.Method, p.Amount); err != nil {
			return nil, fmt.Errorf("insert payment part: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit complete: %w", err)
	}
	return appt, nil
}

// transitionLocked locks the row, verifies the source state and applies the
// status update inside the caller's transaction.
func (r *AppointmentRepository) transitionLocked(ctx context.Context, tx *sqlx.Tx, id string, from, to models.AppointmentStatus) (*models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1 FOR UPDATE`, appointmentColumns)
	var appt models.Appointment
	if err := tx.GetContext(ctx, &appt, query, id); err != nil {
		return nil, err
	}
	if appt.Status != from {
		return nil, fmt.Errorf("appointment %s is %s, not %s: %w", id, appt.Status, from, sql.ErrNoRows)
	}

	if to == models.StatusBooked {
		var clashes int
		err := tx.GetContext(ctx, &clashes,
			`SELECT COUNT(1) FROM appointments WHERE status = 'BOOKED' AND id <> $1 AND start_at < $3 AND end_at > $2`,
			id, appt.StartAt, appt.EndAt)
		if err != nil {
			return nil, fmt.Errorf("recheck overlap on revert: %w", err)
		}
		if clashes > 0 {
			return nil, ErrOverlap
		}
	}

	appt.Status = to
	appt.UpdatedAt = time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE appointments SET status = $2, updated_at = $3 WHERE id = $1`,
		appt.ID, appt.Status, appt.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}
	return &appt, nil
}

// VoidPaymentParts clears a completed appointment's payment breakdown on
// revert.
func (r *AppointmentRepository) VoidPaymentParts(ctx context.Context, appointmentID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM appointment_payments WHERE appointment_id = $1`, appointmentID); err != nil {
		return fmt.Errorf("void payment parts: %w", err)
	}
	return nil
}

// IsExclusionViolation reports whether err is Postgres rejecting a write via
// the non-overlap exclusion constraint (code 23P01).
func IsExclusionViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23P01"
}

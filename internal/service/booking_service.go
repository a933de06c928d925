package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mira-santoso/salonbook-api/internal/availability"
	"github.com/mira-santoso/salonbook-api/internal/models"
	"github.com/mira-santoso/salonbook-api/internal/repository"
	appErrors "github.com/mira-santoso/salonbook-api/pkg/errors"
)

type appointmentStore interface {
	ListBookedIntervals(ctx context.Context, from, to time.Time) ([]availability.Interval, error)
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	ListByBatch(ctx context.Context, batchID string) ([]models.Appointment, error)
	CreateBatch(ctx context.Context, dateKeys []string, appts []models.Appointment) error
	Transition(ctx context.Context, id string, from, to models.AppointmentStatus) (*models.Appointment, error)
	Complete(ctx context.Context, id string, parts []models.PaymentPart) (*models.Appointment, error)
	VoidPaymentParts(ctx context.Context, appointmentID string) error
}

type customerStore interface {
	FindByPhone(ctx context.Context, phone string) (*models.Customer, error)
	FindByID(ctx context.Context, id string) (*models.Customer, error)
	Create(ctx context.Context, name, phone string) (*models.Customer, error)
	AdjustLoyalty(ctx context.Context, customerID string, delta int) error
}

type reminderScheduler interface {
	Schedule(ctx context.Context, payload models.ReminderPayload, fireAt time.Time) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// BookingConfig carries the committer's tunables.
type BookingConfig struct {
	IntegrityRetries int
	ReminderLead     time.Duration
}

// BookingService validates and commits booking requests against the live
// calendar, and drives the post-creation lifecycle transitions.
//
// The validate step and the insert are not atomic by themselves; the
// repository's per-date advisory lock plus in-transaction recheck closes
// the check-then-act window so the set of BOOKED intervals stays pairwise
// non-overlapping under concurrent commits.
type BookingService struct {
	appointments appointmentStore
	customers    customerStore
	blocked      blockedDateReader
	catalog      *CatalogService
	slots        *SlotService
	notify       *NotificationService
	reminders    reminderScheduler
	audit        auditLogger
	metrics      *MetricsService
	validator    *validator.Validate
	cfg          BookingConfig
	now          func() time.Time
	logger       *zap.Logger
}

// NewBookingService builds a BookingService.
func NewBookingService(
	appointments appointmentStore,
	customers customerStore,
	blocked blockedDateReader,
	catalog *CatalogService,
	slots *SlotService,
	notify *NotificationService,
	reminders reminderScheduler,
	audit auditLogger,
	metrics *MetricsService,
	validate *validator.Validate,
	cfg BookingConfig,
	now func() time.Time,
	logger *zap.Logger,
) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if cfg.IntegrityRetries <= 0 {
		cfg.IntegrityRetries = 3
	}
	if cfg.ReminderLead <= 0 {
		cfg.ReminderLead = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		appointments: appointments,
		customers:    customers,
		blocked:      blocked,
		catalog:      catalog,
		slots:        slots,
		notify:       notify,
		reminders:    reminders,
		audit:        audit,
		metrics:      metrics,
		validator:    validate,
		cfg:          cfg,
		now:          now,
		logger:       logger,
	}
}

// segment is one service's share of the chained booking interval.
type segment struct {
	service models.Service
	start   time.Time
	end     time.Time
}

// Commit validates a single or batch booking request and persists it.
//
// Batch semantics: services consume the timeline sequentially from the
// requested start, no gaps, no reordering, and the combined interval is
// validated as a whole before any row is written. A commit that loses the
// race to the table's exclusion constraint is revalidated against fresh
// data and retried a bounded number of times before a conflict surfaces.
func (s *BookingService) Commit(ctx context.Context, req models.BookingRequest) ([]models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordBooking("invalid")
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking request")
	}
	startAt := req.StartAt.UTC()
	if !startAt.After(s.now().UTC()) {
		s.metrics.RecordBooking("invalid")
		return nil, appErrors.Clone(appErrors.ErrValidation, "start time must be in the future")
	}

	segments, totalMinutes, err := s.resolveChain(ctx, req.ServiceIDs, startAt)
	if err != nil {
		s.metrics.RecordBooking("invalid")
		return nil, err
	}
	endAt := startAt.Add(time.Duration(totalMinutes) * time.Minute)

	customer := s.upsertCustomer(ctx, req.CustomerName, req.CustomerPhone)

	batchID := uuid.NewString()
	appts := make([]models.Appointment, 0, len(segments))
	for _, seg := range segments {
		appt := models.Appointment{
			ID:        uuid.NewString(),
			BatchID:   batchID,
			ServiceID: seg.service.ID,
			StartAt:   seg.start,
			EndAt:     seg.end,
			Status:    models.StatusBooked,
		}
		if customer != nil {
			id := customer.ID
			appt.CustomerID = &id
		}
		appts = append(appts, appt)
	}

	for attempt := 1; ; attempt++ {
		if err := s.validateInterval(ctx, startAt, endAt, totalMinutes); err != nil {
			s.recordOutcome(err)
			return nil, err
		}
		err := s.appointments.CreateBatch(ctx, s.dateKeys(startAt, endAt), appts)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrOverlap) {
			s.metrics.RecordBooking("conflict")
			return nil, appErrors.Clone(appErrors.ErrSlotConflict, "slot unavailable")
		}
		if repository.IsExclusionViolation(err) && attempt < s.cfg.IntegrityRetries {
			s.metrics.RecordBookingRetry()
			s.logger.Warn("booking commit lost integrity race, revalidating",
				zap.String("batch_id", batchID), zap.Int("attempt", attempt))
			continue
		}
		if repository.IsExclusionViolation(err) {
			s.metrics.RecordBooking("conflict")
			return nil, appErrors.Clone(appErrors.ErrIntegrity, "booking rejected by concurrent write")
		}
		s.metrics.RecordBooking("error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist booking")
	}

	s.metrics.RecordBooking("committed")
	s.slots.InvalidateSlots(ctx)
	s.fanOutSideEffects(ctx, customer, req, appts, segments)
	return appts, nil
}

// Get returns one appointment.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}
	return appt, nil
}

// Batch returns every appointment in a batch, in start order.
func (s *BookingService) Batch(ctx context.Context, batchID string) ([]models.Appointment, error) {
	appts, err := s.appointments.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	if len(appts) == 0 {
		return nil, appErrors.ErrNotFound
	}
	return appts, nil
}

// Cancel moves a BOOKED appointment to CANCELLED, reverses its loyalty
// credit and notifies the customer. Only staff reach this path.
func (s *BookingService) Cancel(ctx context.Context, id string, actor *models.JWTClaims) (*models.Appointment, error) {
	appt, err := s.transition(ctx, id, models.StatusBooked, models.StatusCancelled)
	if err != nil {
		return nil, err
	}
	s.slots.InvalidateSlots(ctx)
	s.auditTransition(ctx, actor, models.AuditActionBookingCancel, appt.ID)

	if customer := s.customerOf(ctx, appt); customer != nil {
		if err := s.customers.AdjustLoyalty(ctx, customer.ID, -1); err != nil {
			s.logger.Warn("loyalty reversal failed", zap.String("appointment_id", appt.ID), zap.Error(err))
		}
		if err := s.notify.SendCancellation(ctx, appt.ID, customer.Phone, customer.Name, appt.StartAt); err != nil {
			s.logger.Warn("cancellation notice failed", zap.String("appointment_id", appt.ID), zap.Error(err))
		}
	}
	return appt, nil
}

// Complete moves a BOOKED appointment to DONE with its payment breakdown.
// The parts must sum exactly to the declared received amount, and the status
// change and the payment rows land in one repository transaction.
func (s *BookingService) Complete(ctx context.Context, id string, parts []models.PaymentPart, receivedAmount float64, actor *models.JWTClaims) (*models.Appointment, error) {
	if len(parts) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payment breakdown required")
	}
	var sum float64
	for _, p := range parts {
		if p.Method == "" || p.Amount <= 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "payment parts need a method and a positive amount")
		}
		sum += p.Amount
	}
	if sum != receivedAmount {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("payment parts sum %.2f does not match received amount %.2f", sum, receivedAmount))
	}

	appt, err := s.appointments.Complete(ctx, id, parts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("appointment not found or not %s", models.StatusBooked))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete appointment")
	}
	s.auditTransition(ctx, actor, models.AuditActionBookingComplete, appt.ID)
	return appt, nil
}

// Revert is the compensating transition DONE|CANCELLED -> BOOKED. A revert
// from CANCELLED re-applies the loyalty credit; a revert from DONE voids
// the payment breakdown. The underlying update re-checks overlap, so a
// revert into a since-rebooked interval fails with a conflict.
func (s *BookingService) Revert(ctx context.Context, id string, actor *models.JWTClaims) (*models.Appointment, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != models.StatusCancelled && current.Status != models.StatusDone {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("appointment is %s, only CANCELLED or DONE can be reverted", current.Status))
	}

	appt, err := s.transition(ctx, id, current.Status, models.StatusBooked)
	if err != nil {
		return nil, err
	}
	s.slots.InvalidateSlots(ctx)
	s.auditTransition(ctx, actor, models.AuditActionBookingRevert, appt.ID)

	switch current.Status {
	case models.StatusCancelled:
		if customer := s.customerOf(ctx, appt); customer != nil {
			if err := s.customers.AdjustLoyalty(ctx, customer.ID, 1); err != nil {
				s.logger.Warn("loyalty re-apply failed", zap.String("appointment_id", appt.ID), zap.Error(err))
			}
		}
	case models.StatusDone:
		if err := s.appointments.VoidPaymentParts(ctx, appt.ID); err != nil {
			s.logger.Warn("payment void failed", zap.String("appointment_id", appt.ID), zap.Error(err))
		}
	}
	return appt, nil
}

// resolveChain loads every requested service through the catalog boundary
// and lays them back-to-back from startAt, preserving caller order.
func (s *BookingService) resolveChain(ctx context.Context, serviceIDs []string, startAt time.Time) ([]segment, int, error) {
	segments := make([]segment, 0, len(serviceIDs))
	cursor := startAt
	total := 0
	for _, id := range serviceIDs {
		svc, err := s.catalog.Get(ctx, id)
		if err != nil {
			return nil, 0, err
		}
		end := cursor.Add(time.Duration(svc.DurationMinutes) * time.Minute)
		segments = append(segments, segment{service: *svc, start: cursor, end: end})
		cursor = end
		total += svc.DurationMinutes
	}
	return segments, total, nil
}

// validateInterval runs the conflict checks for the combined interval:
// raw overlap, blackout, then slot-grid alignment via a fresh generator
// pass. The generator pass also catches requests outside business hours
// that the raw overlap test alone would admit.
func (s *BookingService) validateInterval(ctx context.Context, startAt, endAt time.Time, totalMinutes int) error {
	booked, err := s.appointments.ListBookedIntervals(ctx, startAt, endAt)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "booked interval lookup failed")
	}
	if len(booked) > 0 {
		return appErrors.Clone(appErrors.ErrSlotConflict, "slot unavailable")
	}

	loc := s.slots.Location()
	for _, civil := range s.civilDates(startAt, endAt) {
		blocked, err := s.blocked.IsBlocked(ctx, civil)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "blocked date lookup failed")
		}
		if blocked {
			return appErrors.Clone(appErrors.ErrDateBlocked, fmt.Sprintf("date %s is blocked", models.DateKey(civil)))
		}
	}

	slots, err := s.slots.FreshSlotsForDate(ctx, models.CivilDate(startAt, loc), totalMinutes)
	if err != nil {
		return err
	}
	if !availability.Contains(slots, startAt) {
		return appErrors.Clone(appErrors.ErrSlotNotAligned, "start time is not an available slot")
	}
	return nil
}

// civilDates returns each calendar date the half-open interval touches, in
// the business timezone.
func (s *BookingService) civilDates(startAt, endAt time.Time) []time.Time {
	loc := s.slots.Location()
	first := models.CivilDate(startAt, loc)
	last := models.CivilDate(endAt.Add(-time.Nanosecond), loc)
	var dates []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

func (s *BookingService) dateKeys(startAt, endAt time.Time) []string {
	dates := s.civilDates(startAt, endAt)
	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, models.DateKey(d))
	}
	return keys
}

// upsertCustomer is best-effort: a customer-store failure degrades the
// booking to anonymous rather than rejecting it.
func (s *BookingService) upsertCustomer(ctx context.Context, name, phone string) *models.Customer {
	customer, err := s.customers.FindByPhone(ctx, phone)
	if err != nil {
		s.logger.Warn("customer lookup failed", zap.String("phone", phone), zap.Error(err))
		return nil
	}
	if customer != nil {
		return customer
	}
	customer, err = s.customers.Create(ctx, name, phone)
	if err != nil {
		s.logger.Warn("customer create failed", zap.String("phone", phone), zap.Error(err))
		return nil
	}
	return customer
}

// fanOutSideEffects runs the post-commit side effects. Each is independent
// and best-effort; none may unwind the committed appointment rows.
func (s *BookingService) fanOutSideEffects(ctx context.Context, customer *models.Customer, req models.BookingRequest, appts []models.Appointment, segments []segment) {
	first := appts[0]

	if customer != nil {
		if err := s.customers.AdjustLoyalty(ctx, customer.ID, len(appts)); err != nil {
			s.logger.Warn("loyalty credit failed", zap.String("customer_id", customer.ID), zap.Error(err))
		}
	}

	serviceNames := make([]string, 0, len(segments))
	for _, seg := range segments {
		serviceNames = append(serviceNames, seg.service.Name)
	}
	if err := s.notify.SendConfirmation(ctx, first.ID, req.CustomerPhone, req.CustomerName, first.StartAt, serviceNames); err != nil {
		s.logger.Warn("confirmation dispatch failed", zap.String("batch_id", first.BatchID), zap.Error(err))
	}

	fireAt := first.StartAt.Add(-s.cfg.ReminderLead)
	if s.reminders != nil && fireAt.After(s.now()) {
		payload := models.ReminderPayload{
			AppointmentID: first.ID,
			BatchID:       first.BatchID,
			Phone:         req.CustomerPhone,
			CustomerName:  req.CustomerName,
			StartAt:       first.StartAt,
		}
		if err := s.reminders.Schedule(ctx, payload, fireAt); err != nil {
			s.logger.Warn("reminder scheduling failed", zap.String("batch_id", first.BatchID), zap.Error(err))
		}
	}
}

func (s *BookingService) transition(ctx context.Context, id string, from, to models.AppointmentStatus) (*models.Appointment, error) {
	appt, err := s.appointments.Transition(ctx, id, from, to)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOverlap):
			return nil, appErrors.Clone(appErrors.ErrSlotConflict, "interval was rebooked, revert refused")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("appointment not found or not %s", from))
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "transition failed")
		}
	}
	return appt, nil
}

func (s *BookingService) customerOf(ctx context.Context, appt *models.Appointment) *models.Customer {
	if appt.CustomerID == nil {
		return nil
	}
	customer, err := s.customers.FindByID(ctx, *appt.CustomerID)
	if err != nil {
		s.logger.Warn("customer lookup failed", zap.String("customer_id", *appt.CustomerID), zap.Error(err))
		return nil
	}
	return customer
}

func (s *BookingService) auditTransition(ctx context.Context, actor *models.JWTClaims, action, appointmentID string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:     action,
		Resource:   "appointment",
		ResourceID: &appointmentID,
	}
	if actor != nil {
		userID := actor.UserID
		log.UserID = &userID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *BookingService) recordOutcome(err error) {
	e := appErrors.FromError(err)
	switch e.Code {
	case appErrors.ErrSlotConflict.Code:
		s.metrics.RecordBooking("conflict")
	case appErrors.ErrDateBlocked.Code:
		s.metrics.RecordBooking("blocked")
	case appErrors.ErrSlotNotAligned.Code:
		s.metrics.RecordBooking("misaligned")
	case appErrors.ErrValidation.Code:
		s.metrics.RecordBooking("invalid")
	default:
		s.metrics.RecordBooking("error")
	}
}

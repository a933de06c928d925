package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mira-santoso/salonbook-api/internal/models"
	"github.com/mira-santoso/salonbook-api/pkg/jobs"
)

type notificationEventStore interface {
	Record(ctx context.Context, event *models.NotificationEvent) error
	Exists(ctx context.Context, appointmentID, kind string) (bool, error)
}

type notificationQueue interface {
	Enqueue(job jobs.Job) error
}

// TemplateSource loads the raw template text for a notification kind.
type TemplateSource interface {
	Load(kind string) (string, error)
}

// StaticTemplates serves templates from a fixed map, falling back to the
// built-in defaults for kinds it does not carry.
type StaticTemplates struct {
	Templates map[string]string
}

var defaultTemplates = map[string]string{
	models.NotificationConfirmation: "Hi {{.CustomerName}}, your booking at {{.BusinessName}} for {{.Services}} on {{.StartAt}} is confirmed.",
	models.NotificationReminder:     "Hi {{.CustomerName}}, a reminder of your appointment at {{.BusinessName}} on {{.StartAt}}. See you there!",
	models.NotificationCancellation: "Hi {{.CustomerName}}, your appointment at {{.BusinessName}} on {{.StartAt}} has been cancelled.",
}

// Load returns the configured template for kind, or the default.
func (s StaticTemplates) Load(kind string) (string, error) {
	if s.Templates != nil {
		if text, ok := s.Templates[kind]; ok {
			return text, nil
		}
	}
	text, ok := defaultTemplates[kind]
	if !ok {
		return "", fmt.Errorf("no template for notification kind %s", kind)
	}
	return text, nil
}

// templateData feeds the message templates.
type templateData struct {
	CustomerName string
	BusinessName string
	Services     string
	StartAt      string
}

type cachedTemplate struct {
	tpl       *template.Template
	expiresAt time.Time
}

// NotificationService renders and dispatches outbound customer messages.
// Dispatch is at-least-once through the in-process job queue and every
// attempt is recorded in notification_events for idempotency and audit.
// Parsed templates are cached with a bounded lifetime so template edits
// propagate without a restart; the clock is injectable so expiry is
// deterministic under test.
type NotificationService struct {
	events       notificationEventStore
	queue        notificationQueue
	source       TemplateSource
	metrics      *MetricsService
	businessName string
	location     *time.Location
	ttl          time.Duration
	now          func() time.Time
	logger       *zap.Logger

	mu    sync.Mutex
	cache map[string]cachedTemplate
}

// NewNotificationService builds a NotificationService.
func NewNotificationService(
	events notificationEventStore,
	queue notificationQueue,
	source TemplateSource,
	metrics *MetricsService,
	businessName string,
	location *time.Location,
	ttl time.Duration,
	now func() time.Time,
	logger *zap.Logger,
) *NotificationService {
	if source == nil {
		source = StaticTemplates{}
	}
	if location == nil {
		location = time.UTC
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		events:       events,
		queue:        queue,
		source:       source,
		metrics:      metrics,
		businessName: businessName,
		location:     location,
		ttl:          ttl,
		now:          now,
		logger:       logger,
		cache:        make(map[string]cachedTemplate),
	}
}

// SendConfirmation dispatches the booking confirmation for one batch.
func (s *NotificationService) SendConfirmation(ctx context.Context, appointmentID, phone, customerName string, startAt time.Time, serviceNames []string) error {
	return s.dispatch(ctx, models.NotificationConfirmation, appointmentID, phone, templateData{
		CustomerName: customerName,
		BusinessName: s.businessName,
		Services:     strings.Join(serviceNames, ", "),
		StartAt:      s.formatInstant(startAt),
	})
}

// SendCancellation dispatches a cancellation notice.
func (s *NotificationService) SendCancellation(ctx context.Context, appointmentID, phone, customerName string, startAt time.Time) error {
	return s.dispatch(ctx, models.NotificationCancellation, appointmentID, phone, templateData{
		CustomerName: customerName,
		BusinessName: s.businessName,
		StartAt:      s.formatInstant(startAt),
	})
}

// SendReminder dispatches the 24-hour reminder. It is idempotent per
// appointment: a reminder already on record is skipped, so a re-delivered
// job never messages the customer twice.
func (s *NotificationService) SendReminder(ctx context.Context, payload models.ReminderPayload) error {
	sent, err := s.events.Exists(ctx, payload.AppointmentID, models.NotificationReminder)
	if err != nil {
		return fmt.Errorf("reminder idempotency check: %w", err)
	}
	if sent {
		s.logger.Debug("reminder already dispatched", zap.String("appointment_id", payload.AppointmentID))
		return nil
	}
	return s.dispatch(ctx, models.NotificationReminder, payload.AppointmentID, payload.Phone, templateData{
		CustomerName: payload.CustomerName,
		BusinessName: s.businessName,
		StartAt:      s.formatInstant(payload.StartAt),
	})
}

func (s *NotificationService) dispatch(ctx context.Context, kind, appointmentID, phone string, data templateData) error {
	message, err := s.render(kind, data)
	if err != nil {
		s.metrics.RecordNotification(kind, "render_error")
		return err
	}

	event := &models.NotificationEvent{
		ID:            uuid.NewString(),
		AppointmentID: appointmentID,
		Kind:          kind,
		Phone:         phone,
		Message:       message,
		SentAt:        s.now().UTC(),
	}
	if err := s.events.Record(ctx, event); err != nil {
		s.metrics.RecordNotification(kind, "record_error")
		return fmt.Errorf("record notification event: %w", err)
	}

	job := jobs.Job{
		ID:      event.ID,
		Type:    "notification:" + strings.ToLower(kind),
		Payload: event,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.metrics.RecordNotification(kind, "enqueue_error")
		return fmt.Errorf("enqueue notification: %w", err)
	}
	s.metrics.RecordNotification(kind, "enqueued")
	return nil
}

// render parses the kind's template, reusing the cached parse until its
// TTL lapses.
func (s *NotificationService) render(kind string, data templateData) (string, error) {
	tpl, err := s.template(kind)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", kind, err)
	}
	return buf.String(), nil
}

func (s *NotificationService) template(kind string) (*template.Template, error) {
	now := s.now()

	s.mu.Lock()
	entry, ok := s.cache[kind]
	s.mu.Unlock()
	if ok && now.Before(entry.expiresAt) {
		return entry.tpl, nil
	}

	text, err := s.source.Load(kind)
	if err != nil {
		return nil, err
	}
	tpl, err := template.New(kind).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse %s template: %w", kind, err)
	}

	s.mu.Lock()
	s.cache[kind] = cachedTemplate{tpl: tpl, expiresAt: now.Add(s.ttl)}
	s.mu.Unlock()
	return tpl, nil
}

func (s *NotificationService) formatInstant(t time.Time) string {
	return t.In(s.location).Format("Mon, 02 Jan 2006 15:04")
}

package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mira-santoso/salonbook-api/internal/availability"
	"github.com/mira-santoso/salonbook-api/internal/models"
	"github.com/mira-santoso/salonbook-api/internal/repository"
	"github.com/mira-santoso/salonbook-api/internal/service"
	"github.com/mira-santoso/salonbook-api/pkg/jobs"
)

type catalogStoreMock struct {
	rows map[string]repository.RawService
}

func (m *catalogStoreMock) GetByID(ctx context.Context, id string) (*repository.RawService, error) {
	raw, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &raw, nil
}

func (m *catalogStoreMock) ListActive(ctx context.Context) ([]repository.RawService, error) {
	out := make([]repository.RawService, 0, len(m.rows))
	for _, raw := range m.rows {
		out = append(out, raw)
	}
	return out, nil
}

type scheduleStoreMock struct {
	week *models.WeekSchedule
}

func (m *scheduleStoreMock) GetWeekSchedule(ctx context.Context) (*models.WeekSchedule, error) {
	return m.week, nil
}

func (m *scheduleStoreMock) ListLegacyRules(ctx context.Context) ([]models.AvailabilityRule, error) {
	return nil, nil
}

func (m *scheduleStoreMock) ReplaceWeekSchedule(ctx context.Context, week models.WeekSchedule) error {
	m.week = &week
	return nil
}

type blockedStoreMock struct {
	blocked map[string]bool
}

func (m *blockedStoreMock) IsBlocked(ctx context.Context, date time.Time) (bool, error) {
	return m.blocked[models.DateKey(date)], nil
}

func (m *blockedStoreMock) Add(ctx context.Context, dates []models.BlockedDate) error {
	for _, d := range dates {
		m.blocked[models.DateKey(d.Date)] = true
	}
	return nil
}

func (m *blockedStoreMock) Remove(ctx context.Context, dates []time.Time) error {
	for _, d := range dates {
		delete(m.blocked, models.DateKey(d))
	}
	return nil
}

func (m *blockedStoreMock) ListRange(ctx context.Context, from, to time.Time) ([]models.BlockedDate, error) {
	var out []models.BlockedDate
	for key := range m.blocked {
		d, _ := time.Parse("2006-01-02", key)
		if !d.Before(from) && !d.After(to) {
			out = append(out, models.BlockedDate{Date: d})
		}
	}
	return out, nil
}

type overrideStoreMock struct {
	overrides map[string]models.DateOverride
}

func (m *overrideStoreMock) GetByDate(ctx context.Context, date time.Time) (*models.DateOverride, error) {
	if o, ok := m.overrides[models.DateKey(date)]; ok {
		return &o, nil
	}
	return nil, nil
}

func (m *overrideStoreMock) Upsert(ctx context.Context, override models.DateOverride) error {
	m.overrides[models.DateKey(override.Date)] = override
	return nil
}

func (m *overrideStoreMock) Remove(ctx context.Context, date time.Time) error {
	delete(m.overrides, models.DateKey(date))
	return nil
}

type appointmentStoreMock struct {
	booked    []availability.Interval
	created   []models.Appointment
	getResult *models.Appointment
}

func (m *appointmentStoreMock) ListBookedIntervals(ctx context.Context, from, to time.Time) ([]availability.Interval, error) {
	var out []availability.Interval
	for _, b := range m.booked {
		if b.Start.Before(to) && from.Before(b.End) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *appointmentStoreMock) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	if m.getResult == nil {
		return nil, sql.ErrNoRows
	}
	return m.getResult, nil
}

func (m *appointmentStoreMock) ListByBatch(ctx context.Context, batchID string) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, appt := range m.created {
		if appt.BatchID == batchID {
			out = append(out, appt)
		}
	}
	return out, nil
}

func (m *appointmentStoreMock) CreateBatch(ctx context.Context, dateKeys []string, appts []models.Appointment) error {
	m.created = append(m.created, appts...)
	for _, appt := range appts {
		m.booked = append(m.booked, availability.Interval{Start: appt.StartAt, End: appt.EndAt})
	}
	return nil
}

func (m *appointmentStoreMock) Transition(ctx context.Context, id string, from, to models.AppointmentStatus) (*models.Appointment, error) {
	if m.getResult == nil || m.getResult.Status != from {
		return nil, sql.ErrNoRows
	}
	out := *m.getResult
	out.Status = to
	return &out, nil
}

func (m *appointmentStoreMock) Complete(ctx context.Context, id string, parts []models.PaymentPart) (*models.Appointment, error) {
	return m.Transition(ctx, id, models.StatusBooked, models.StatusDone)
}

func (m *appointmentStoreMock) VoidPaymentParts(ctx context.Context, appointmentID string) error {
	return nil
}

type customerStoreMock struct {
	byPhone map[string]*models.Customer
	byID    map[string]*models.Customer
}

func (m *customerStoreMock) FindByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	return m.byPhone[phone], nil
}

func (m *customerStoreMock) FindByID(ctx context.Context, id string) (*models.Customer, error) {
	return m.byID[id], nil
}

func (m *customerStoreMock) Create(ctx context.Context, name, phone string) (*models.Customer, error) {
	customer := &models.Customer{ID: fmt.Sprintf("cust-%d", len(m.byID)+1), Name: name, Phone: phone}
	m.byPhone[phone] = customer
	m.byID[customer.ID] = customer
	return customer, nil
}

func (m *customerStoreMock) AdjustLoyalty(ctx context.Context, customerID string, delta int) error {
	return nil
}

type eventStoreMock struct {
	records []*models.NotificationEvent
}

func (m *eventStoreMock) Record(ctx context.Context, event *models.NotificationEvent) error {
	m.records = append(m.records, event)
	return nil
}

func (m *eventStoreMock) Exists(ctx context.Context, appointmentID, kind string) (bool, error) {
	return false, nil
}

type queueMock struct {
	jobs []jobs.Job
}

func (m *queueMock) Enqueue(job jobs.Job) error {
	m.jobs = append(m.jobs, job)
	return nil
}

type bookingHandlerFixture struct {
	appointments *appointmentStoreMock
	blocked      *blockedStoreMock
	router       *gin.Engine
}

func newBookingRouter(t *testing.T) *bookingHandlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	catalog := service.NewCatalogService(&catalogStoreMock{rows: map[string]repository.RawService{
		"svc-cut": {
			ID:              "svc-cut",
			Name:            sql.NullString{String: "Haircut", Valid: true},
			DurationMinutes: sql.NullInt64{Int64: 30, Valid: true},
			Price:           sql.NullFloat64{Float64: 50000, Valid: true},
			Active:          true,
		},
	}}, zap.NewNop())

	var week models.WeekSchedule
	for i := range week.Days {
		week.Days[i] = models.DaySchedule{
			Weekday:     i,
			IsAvailable: true,
			TimeWindows: []models.TimeWindow{{StartMinute: 9 * 60, EndMinute: 18 * 60}},
		}
	}

	appointments := &appointmentStoreMock{}
	blocked := &blockedStoreMock{blocked: map[string]bool{}}
	slots := service.NewSlotService(&scheduleStoreMock{week: &week}, blocked,
		&overrideStoreMock{overrides: map[string]models.DateOverride{}}, appointments, catalog, nil, nil,
		service.SlotConfig{Location: time.UTC}, zap.NewNop())

	notify := service.NewNotificationService(&eventStoreMock{}, &queueMock{}, nil, nil, "SalonBook", time.UTC, 0, clock, zap.NewNop())
	customers := &customerStoreMock{byPhone: map[string]*models.Customer{}, byID: map[string]*models.Customer{}}

	bookings := service.NewBookingService(appointments, customers, blocked, catalog, slots, notify,
		nil, nil, nil, nil, service.BookingConfig{}, clock, zap.NewNop())

	h := NewBookingHandler(bookings)
	router := gin.New()
	router.POST("/bookings", h.Create)
	router.GET("/bookings/:id", h.Get)
	router.GET("/bookings/batch/:batchId", h.GetBatch)
	router.POST("/bookings/:id/cancel", h.Cancel)
	router.POST("/bookings/:id/complete", h.Complete)

	return &bookingHandlerFixture{appointments: appointments, blocked: blocked, router: router}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBookingHandlerCreate(t *testing.T) {
	f := newBookingRouter(t)
	w := doJSON(t, f.router, http.MethodPost, "/bookings", models.BookingRequest{
		ServiceIDs:    []string{"svc-cut"},
		StartAt:       time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		CustomerName:  "Rina",
		CustomerPhone: "+628123456",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var envelope struct {
		Data struct {
			BatchID      string               `json:"batch_id"`
			Appointments []models.Appointment `json:"appointments"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.BatchID)
	require.Len(t, envelope.Data.Appointments, 1)
	assert.Equal(t, models.StatusBooked, envelope.Data.Appointments[0].Status)
}

func TestBookingHandlerCreateInvalidJSON(t *testing.T) {
	f := newBookingRouter(t)
	req, _ := http.NewRequest(http.MethodPost, "/bookings", bytes.NewReader([]byte(`{not json`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandlerCreateConflict(t *testing.T) {
	f := newBookingRouter(t)
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	f.appointments.booked = []availability.Interval{{Start: start, End: start.Add(30 * time.Minute)}}

	w := doJSON(t, f.router, http.MethodPost, "/bookings", models.BookingRequest{
		ServiceIDs:    []string{"svc-cut"},
		StartAt:       start,
		CustomerName:  "Rina",
		CustomerPhone: "+628123456",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBookingHandlerCreateBlockedDate(t *testing.T) {
	f := newBookingRouter(t)
	f.blocked.blocked["2026-03-10"] = true

	w := doJSON(t, f.router, http.MethodPost, "/bookings", models.BookingRequest{
		ServiceIDs:    []string{"svc-cut"},
		StartAt:       time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		CustomerName:  "Rina",
		CustomerPhone: "+628123456",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBookingHandlerGetNotFound(t *testing.T) {
	f := newBookingRouter(t)
	w := doJSON(t, f.router, http.MethodGet, "/bookings/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingHandlerGetBatch(t *testing.T) {
	f := newBookingRouter(t)
	create := doJSON(t, f.router, http.MethodPost, "/bookings", models.BookingRequest{
		ServiceIDs:    []string{"svc-cut"},
		StartAt:       time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		CustomerName:  "Rina",
		CustomerPhone: "+628123456",
	})
	require.Equal(t, http.StatusCreated, create.Code)
	var envelope struct {
		Data struct {
			BatchID string `json:"batch_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(create.Body.Bytes(), &envelope))

	w := doJSON(t, f.router, http.MethodGet, "/bookings/batch/"+envelope.Data.BatchID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBookingHandlerCancel(t *testing.T) {
	f := newBookingRouter(t)
	f.appointments.getResult = &models.Appointment{ID: "appt-1", Status: models.StatusBooked}

	w := doJSON(t, f.router, http.MethodPost, "/bookings/appt-1/cancel", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBookingHandlerCompleteMismatchedSum(t *testing.T) {
	f := newBookingRouter(t)
	f.appointments.getResult = &models.Appointment{ID: "appt-1", Status: models.StatusBooked}

	w := doJSON(t, f.router, http.MethodPost, "/bookings/appt-1/complete", CompleteBookingRequest{
		ReceivedAmount: 50000,
		Payments:       []models.PaymentPart{{Method: "CASH", Amount: 30000}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

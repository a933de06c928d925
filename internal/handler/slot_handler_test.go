package handler

import (
	"database/sql"
	"encoding/json"
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
)

func newSlotRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog := service.NewCatalogService(&catalogStoreMock{rows: map[string]repository.RawService{
		"svc-cut": {
			ID:              "svc-cut",
			Name:            sql.NullString{String: "Haircut", Valid: true},
			DurationMinutes: sql.NullInt64{Int64: 30, Valid: true},
			Price:           sql.NullFloat64{Float64: 50000, Valid: true},
			Active:          true,
		},
		"svc-color": {
			ID:              "svc-color",
			Name:            sql.NullString{String: "Coloring", Valid: true},
			DurationMinutes: sql.NullInt64{Int64: 45, Valid: true},
			Price:           sql.NullFloat64{Float64: 150000, Valid: true},
			Active:          true,
		},
	}}, zap.NewNop())

	var week models.WeekSchedule
	for i := range week.Days {
		week.Days[i] = models.DaySchedule{
			Weekday:     i,
			IsAvailable: true,
			TimeWindows: []models.TimeWindow{{StartMinute: 9 * 60, EndMinute: 12 * 60}},
		}
	}

	slots := service.NewSlotService(&scheduleStoreMock{week: &week}, &blockedStoreMock{blocked: map[string]bool{}},
		&overrideStoreMock{overrides: map[string]models.DateOverride{}}, &appointmentStoreMock{}, catalog, nil, nil,
		service.SlotConfig{Location: time.UTC}, zap.NewNop())

	h := NewSlotHandler(slots)
	router := gin.New()
	router.GET("/slots", h.ListForDate)
	router.GET("/slots/range", h.ListForRange)
	return router
}

type slotListing struct {
	Data struct {
		Date            string              `json:"date"`
		DurationMinutes int                 `json:"duration_minutes"`
		Slots           []availability.Slot `json:"slots"`
	} `json:"data"`
}

func TestSlotHandlerListForDate(t *testing.T) {
	router := newSlotRouter(t)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/slots?date=2026-03-10", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var listing slotListing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Equal(t, "2026-03-10", listing.Data.Date)
	assert.Equal(t, 30, listing.Data.DurationMinutes)
	assert.Len(t, listing.Data.Slots, 6)
}

func TestSlotHandlerListForDateSumsServiceDurations(t *testing.T) {
	router := newSlotRouter(t)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/slots?date=2026-03-10&service_ids=svc-cut,svc-color", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var listing slotListing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Equal(t, 75, listing.Data.DurationMinutes)
	// Starts 09:00 through 10:30 fit a 75-minute chain before the 12:00 close.
	assert.Len(t, listing.Data.Slots, 4)
}

func TestSlotHandlerListForDateExplicitDurationWins(t *testing.T) {
	router := newSlotRouter(t)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/slots?date=2026-03-10&service_ids=svc-cut&duration=60", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var listing slotListing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Equal(t, 60, listing.Data.DurationMinutes)
}

func TestSlotHandlerListForDateMissingDate(t *testing.T) {
	router := newSlotRouter(t)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/slots", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSlotHandlerListForDateMalformedDate(t *testing.T) {
	router := newSlotRouter(t)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/slots?date=10-03-2026", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSlotHandlerListForDateBadDuration(t *testing.T) {
	router := newSlotRouter(t)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/slots?date=2026-03-10&duration=-5", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSlotHandlerListForRange(t *testing.T) {
	router := newSlotRouter(t)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/slots/range?from=2026-03-10&to=2026-03-11", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Data struct {
			Days []service.DaySlots `json:"days"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing.Data.Days, 2)
	assert.Equal(t, "2026-03-10", listing.Data.Days[0].Date)
}

func TestSlotHandlerListForRangeInverted(t *testing.T) {
	router := newSlotRouter(t)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/slots/range?from=2026-03-12&to=2026-03-10", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

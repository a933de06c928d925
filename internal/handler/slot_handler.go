package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mira-santoso/salonbook-api/internal/service"
	appErrors "github.com/mira-santoso/salonbook-api/pkg/errors"
	"github.com/mira-santoso/salonbook-api/pkg/response"
)

// SlotHandler exposes the free-slot listing endpoints.
type SlotHandler struct {
	slots *service.SlotService
}

// NewSlotHandler builds a slot handler.
func NewSlotHandler(slots *service.SlotService) *SlotHandler {
	return &SlotHandler{slots: slots}
}

// ListForDate godoc
// @Summary List free slots for one date
// @Tags Slots
// @Produce json
// @Param date query string true "Civil date (YYYY-MM-DD)"
// @Param service_ids query string false "Comma-separated service ids; durations are summed"
// @Param duration query int false "Explicit duration in minutes, overrides service_ids"
// @Success 200 {object} response.Envelope
// @Router /slots [get]
func (h *SlotHandler) ListForDate(c *gin.Context) {
	date, err := parseDateParam(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	duration, err := h.resolveDuration(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	slots, err := h.slots.SlotsForDate(c.Request.Context(), date, duration)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"date": c.Query("date"), "duration_minutes": duration, "slots": slots}, nil)
}

// ListForRange godoc
// @Summary List free slots per day over a date range
// @Tags Slots
// @Produce json
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end, inclusive (YYYY-MM-DD)"
// @Param service_ids query string false "Comma-separated service ids; durations are summed"
// @Param duration query int false "Explicit duration in minutes, overrides service_ids"
// @Success 200 {object} response.Envelope
// @Router /slots/range [get]
func (h *SlotHandler) ListForRange(c *gin.Context) {
	from, err := parseDateParam(c.Query("from"))
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := parseDateParam(c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	duration, err := h.resolveDuration(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	days, err := h.slots.SlotsForRange(c.Request.Context(), from, to, duration)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"duration_minutes": duration, "days": days}, nil)
}

func (h *SlotHandler) resolveDuration(c *gin.Context) (int, error) {
	var override int
	if raw := c.Query("duration"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return 0, appErrors.Clone(appErrors.ErrValidation, "duration must be a positive integer")
		}
		override = parsed
	}
	var serviceIDs []string
	if raw := c.Query("service_ids"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				serviceIDs = append(serviceIDs, id)
			}
		}
	}
	return h.slots.ResolveDuration(c.Request.Context(), serviceIDs, override)
}

func parseDateParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date parameter required (YYYY-MM-DD)")
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "dates must use the YYYY-MM-DD form")
	}
	return date, nil
}

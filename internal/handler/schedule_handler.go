package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mira-santoso/salonbook-api/internal/models"
	"github.com/mira-santoso/salonbook-api/internal/service"
	appErrors "github.com/mira-santoso/salonbook-api/pkg/errors"
	"github.com/mira-santoso/salonbook-api/pkg/response"
)

// ReplaceWeekRequest carries the full recurring schedule.
type ReplaceWeekRequest struct {
	Days [7]models.DaySchedule `json:"days"`
}

// BlockDatesRequest adds blackout dates, single or batch.
type BlockDatesRequest struct {
	Dates []struct {
		Date   string `json:"date"`
		Reason string `json:"reason"`
	} `json:"dates"`
}

// UnblockDatesRequest removes blackout dates.
type UnblockDatesRequest struct {
	Dates []string `json:"dates"`
}

// SetOverrideRequest replaces the windows of one date.
type SetOverrideRequest struct {
	TimeWindows []models.TimeWindow `json:"time_windows"`
}

// ScheduleHandler exposes the administrative schedule surface.
type ScheduleHandler struct {
	schedules *service.ScheduleService
}

// NewScheduleHandler builds a schedule handler.
func NewScheduleHandler(schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// GetWeek godoc
// @Summary Read the recurring week schedule
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/week [get]
func (h *ScheduleHandler) GetWeek(c *gin.Context) {
	week, err := h.schedules.GetWeek(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week, nil)
}

// ReplaceWeek godoc
// @Summary Replace the recurring week schedule wholesale
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body ReplaceWeekRequest true "Seven day schedules, weekday 0 (Sunday) through 6"
// @Success 200 {object} response.Envelope
// @Router /schedule/week [put]
func (h *ScheduleHandler) ReplaceWeek(c *gin.Context) {
	var req ReplaceWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid week schedule payload"))
		return
	}
	if err := h.schedules.ReplaceWeek(c.Request.Context(), models.WeekSchedule{Days: req.Days}); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"replaced": true}, nil)
}

// ListBlocked godoc
// @Summary List blackout dates in a range
// @Tags Schedule
// @Produce json
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end, inclusive (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schedule/blocked-dates [get]
func (h *ScheduleHandler) ListBlocked(c *gin.Context) {
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
	dates, err := h.schedules.ListBlocked(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dates, nil)
}

// BlockDates godoc
// @Summary Add blackout dates
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body BlockDatesRequest true "Dates to block"
// @Success 200 {object} response.Envelope
// @Router /schedule/blocked-dates [post]
func (h *ScheduleHandler) BlockDates(c *gin.Context) {
	var req BlockDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid blocked dates payload"))
		return
	}
	dates := make([]models.BlockedDate, 0, len(req.Dates))
	for _, d := range req.Dates {
		date, err := parseDateParam(d.Date)
		if err != nil {
			response.Error(c, err)
			return
		}
		dates = append(dates, models.BlockedDate{Date: date, Reason: d.Reason})
	}
	if err := h.schedules.BlockDates(c.Request.Context(), dates); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"blocked": len(dates)}, nil)
}

// UnblockDates godoc
// @Summary Remove blackout dates
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body UnblockDatesRequest true "Dates to unblock"
// @Success 200 {object} response.Envelope
// @Router /schedule/blocked-dates [delete]
func (h *ScheduleHandler) UnblockDates(c *gin.Context) {
	var req UnblockDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid unblock payload"))
		return
	}
	dates := make([]time.Time, 0, len(req.Dates))
	for _, raw := range req.Dates {
		date, err := parseDateParam(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		dates = append(dates, date)
	}
	if err := h.schedules.UnblockDates(c.Request.Context(), dates); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"unblocked": len(dates)}, nil)
}

// GetOverride godoc
// @Summary Read the window override for one date
// @Tags Schedule
// @Produce json
// @Param date path string true "Civil date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schedule/overrides/{date} [get]
func (h *ScheduleHandler) GetOverride(c *gin.Context) {
	date, err := parseDateParam(c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	override, err := h.schedules.GetOverride(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	if override == nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	response.JSON(c, http.StatusOK, override, nil)
}

// SetOverride godoc
// @Summary Replace the recurring windows for one date
// @Tags Schedule
// @Accept json
// @Produce json
// @Param date path string true "Civil date (YYYY-MM-DD)"
// @Param payload body SetOverrideRequest true "Replacement windows; empty makes the date unbookable"
// @Success 200 {object} response.Envelope
// @Router /schedule/overrides/{date} [put]
func (h *ScheduleHandler) SetOverride(c *gin.Context) {
	date, err := parseDateParam(c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var req SetOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid override payload"))
		return
	}
	if err := h.schedules.SetOverride(c.Request.Context(), models.DateOverride{Date: date, TimeWindows: req.TimeWindows}); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"date": c.Param("date"), "windows": len(req.TimeWindows)}, nil)
}

// RemoveOverride godoc
// @Summary Remove the override for one date
// @Tags Schedule
// @Produce json
// @Param date path string true "Civil date (YYYY-MM-DD)"
// @Success 204
// @Router /schedule/overrides/{date} [delete]
func (h *ScheduleHandler) RemoveOverride(c *gin.Context) {
	date, err := parseDateParam(c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.schedules.RemoveOverride(c.Request.Context(), date); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

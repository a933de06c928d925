package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mira-santoso/salonbook-api/internal/models"
	"github.com/mira-santoso/salonbook-api/internal/service"
	appErrors "github.com/mira-santoso/salonbook-api/pkg/errors"
	"github.com/mira-santoso/salonbook-api/pkg/response"
)

// CompleteBookingRequest is the payload for marking an appointment DONE.
type CompleteBookingRequest struct {
	ReceivedAmount float64              `json:"received_amount"`
	Payments       []models.PaymentPart `json:"payments"`
}

// BookingHandler exposes booking submission and lifecycle endpoints.
type BookingHandler struct {
	bookings *service.BookingService
}

// NewBookingHandler builds a booking handler.
func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// Create godoc
// @Summary Submit a single or batch booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body models.BookingRequest true "Booking request"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}
	appts, err := h.bookings.Commit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"batch_id": appts[0].BatchID, "appointments": appts})
}

// Get godoc
// @Summary Fetch one appointment
// @Tags Bookings
// @Produce json
// @Param id path string true "Appointment id"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	appt, err := h.bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appt, nil)
}

// GetBatch godoc
// @Summary Fetch every appointment in a batch
// @Tags Bookings
// @Produce json
// @Param batchId path string true "Batch id"
// @Success 200 {object} response.Envelope
// @Router /bookings/batch/{batchId} [get]
func (h *BookingHandler) GetBatch(c *gin.Context) {
	appts, err := h.bookings.Batch(c.Request.Context(), c.Param("batchId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appts, nil)
}

// Cancel godoc
// @Summary Cancel a booked appointment
// @Tags Bookings
// @Produce json
// @Param id path string true "Appointment id"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	appt, err := h.bookings.Cancel(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appt, nil)
}

// Complete godoc
// @Summary Complete a booked appointment with its payment breakdown
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Appointment id"
// @Param payload body CompleteBookingRequest true "Payment breakdown"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id}/complete [post]
func (h *BookingHandler) Complete(c *gin.Context) {
	var req CompleteBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid completion payload"))
		return
	}
	appt, err := h.bookings.Complete(c.Request.Context(), c.Param("id"), req.Payments, req.ReceivedAmount, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appt, nil)
}

// Revert godoc
// @Summary Revert a cancelled or completed appointment back to booked
// @Tags Bookings
// @Produce json
// @Param id path string true "Appointment id"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings/{id}/revert [post]
func (h *BookingHandler) Revert(c *gin.Context) {
	appt, err := h.bookings.Revert(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appt, nil)
}

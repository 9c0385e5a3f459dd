package handlers

import (
	"net/http"

	"driftwell/models"
	"driftwell/services/booking"
	"driftwell/utils"

	"github.com/gin-gonic/gin"
)

// BookingHandler exposes the booking wizard and cancellation endpoints.
type BookingHandler struct {
	Sessions booking.SessionService
	Service  booking.BookingService
}

func NewBookingHandler(sessions booking.SessionService, service booking.BookingService) *BookingHandler {
	return &BookingHandler{Sessions: sessions, Service: service}
}

// StartBookingSession creates a new booking session with a quote and
// the day's availability.
func (h *BookingHandler) StartBookingSession(c *gin.Context) {
	var input struct {
		BookingRequest models.BookingRequest `json:"bookingRequest"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	session, err := h.Sessions.StartSession(c.Request.Context(), input.BookingRequest)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionID":    session.SessionID,
		"quote":        session.Quote,
		"availability": session.Availability,
	})
}

// SelectSlot records the chosen slot on the session.
func (h *BookingHandler) SelectSlot(c *gin.Context) {
	sessionID := c.Param("sessionID")
	var input struct {
		SlotID string `json:"slotId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	session, err := h.Sessions.SelectSlot(c.Request.Context(), sessionID, input.SlotID)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionID": session.SessionID,
		"slotId":    session.Request.SlotID,
		"quote":     session.Quote,
	})
}

// ConfirmBooking finalizes the booking for a session.
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	var input struct {
		SessionID string `json:"sessionID" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	bookingRecord, err := h.Sessions.ConfirmSession(c.Request.Context(), input.SessionID)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": bookingRecord})
}

// CancelSession abandons an in-flight wizard session.
func (h *BookingHandler) CancelSession(c *gin.Context) {
	sessionID := c.Param("sessionID")
	if err := h.Sessions.CancelSession(c.Request.Context(), sessionID); err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// CancelBooking cancels a confirmed booking and triggers refunds.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID := c.Param("bookingID")
	if err := h.Service.CancelBooking(c.Request.Context(), bookingID); err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// respondBookingError maps the engine's error taxonomy onto HTTP
// statuses. Reservation conflicts and price drift are conflicts the
// client can resolve; mismatch and outage states get distinct codes so
// the UI never shows them as form validation.
func respondBookingError(c *gin.Context, err error) {
	code := booking.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case booking.CodeValidation:
		status = http.StatusBadRequest
	case booking.CodeSlotUnavailable, booking.CodeSlotTaken, booking.CodeHoldExpired,
		booking.CodeNotHolder, booking.CodePriceDrift:
		status = http.StatusConflict
	case booking.CodePaymentDeclined, booking.CodeCreditInsufficient:
		status = http.StatusPaymentRequired
	case booking.CodeTimeout:
		status = http.StatusGatewayTimeout
	case booking.CodeServiceUnavailable:
		status = http.StatusServiceUnavailable
	case booking.CodePaymentBookingMismatch:
		status = http.StatusInternalServerError
	}
	utils.JSONErrorCode(c, status, string(code), err.Error())
}

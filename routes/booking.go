package routes

import (
	"driftwell/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers all endpoints for the booking engine.
func RegisterBookingRoutes(r *gin.Engine, h *handlers.BookingHandler) {
	booking := r.Group("/api/booking")
	{
		booking.POST("/session", h.StartBookingSession)               // Phase 1: quote + availability
		booking.PUT("/session/:sessionID/slot", h.SelectSlot)         // Phase 2: pick a slot
		booking.POST("/confirm", h.ConfirmBooking)                    // Phase 3: pay + confirm
		booking.DELETE("/session/:sessionID", h.CancelSession)        // Abandon the wizard
		booking.POST("/:bookingID/cancel", h.CancelBooking)           // Cancel a confirmed booking
	}
}

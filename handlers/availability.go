package handlers

import (
	"net/http"

	"driftwell/services/booking"
	"driftwell/utils"

	"github.com/gin-gonic/gin"
)

// AvailabilityHandler serves slot availability queries.
type AvailabilityHandler struct {
	Engine booking.ReservationEngine
}

func NewAvailabilityHandler(engine booking.ReservationEngine) *AvailabilityHandler {
	return &AvailabilityHandler{Engine: engine}
}

// GetAvailability returns the slots for a service-date. A closed date
// comes back with an empty slot list and a closure payload so clients
// can render "closed today" instead of "fully booked".
func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
	serviceID := c.Query("serviceId")
	date := c.Query("date")
	if serviceID == "" || date == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "serviceId and date query parameters are required")
		return
	}

	avail, err := h.Engine.Availability(c.Request.Context(), serviceID, date)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, avail)
}

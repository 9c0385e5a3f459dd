package routes

import (
	"driftwell/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRoutes wires all endpoints onto the router.
func SetupRoutes(
	r *gin.Engine,
	bookingHandler *handlers.BookingHandler,
	availabilityHandler *handlers.AvailabilityHandler,
	creditHandler *handlers.CreditHandler,
	catalogHandler *handlers.CatalogHandler,
) {
	r.Use(cors.Default())

	r.GET("/healthz", handlers.Healthz)

	api := r.Group("/api")
	{
		api.GET("/services", catalogHandler.ListServices)
		api.GET("/availability", availabilityHandler.GetAvailability)

		credits := api.Group("/credits")
		{
			credits.GET("/:userID", creditHandler.GetBalance)
			credits.GET("/:userID/entries", creditHandler.GetEntries)
		}
	}

	RegisterBookingRoutes(r, bookingHandler)
}

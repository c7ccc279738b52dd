package routes

import (
	"github.com/gin-gonic/gin"

	"bus_tracker/internal/controllers"
	"bus_tracker/internal/middleware"
)

func LocationRoutes(r *gin.Engine, lc *controllers.LocationController) {
	// Driver clients post here without a session, matching the original
	// deployment; which driver may update which bus is out of scope.
	r.POST("/update_location", lc.UpdateLocation)

	locations := r.Group("/locations")
	locations.Use(middleware.RequireAuth())
	{
		locations.GET("", lc.ListLocations)
	}
}

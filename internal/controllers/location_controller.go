package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bus_tracker/internal/gateway"
	"bus_tracker/internal/store"
)

// locationUpdateInput is the request/response channel payload. Pointer
// fields distinguish an absent field from a legitimate zero coordinate.
type locationUpdateInput struct {
	ID  *uint    `json:"id" binding:"required"`
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

// LocationController serves the request/response channel: position reports
// from drivers and the bulk read backing the dashboard.
type LocationController struct {
	gateway *gateway.Gateway
	fleet   store.FleetStore
}

func NewLocationController(gw *gateway.Gateway, fleet store.FleetStore) *LocationController {
	return &LocationController{gateway: gw, fleet: fleet}
}

// UpdateLocation handles POST /update_location.
func (lc *LocationController) UpdateLocation(c *gin.Context) {
	var input locationUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.String(http.StatusBadRequest, "Missing or invalid data")
		return
	}

	_, err := lc.gateway.HandleCoordinateUpdate(c.Request.Context(), *input.ID, *input.Lat, *input.Lng)
	if err != nil {
		switch {
		case errors.Is(err, gateway.ErrInvalidCoordinates):
			c.String(http.StatusBadRequest, "Invalid coordinates")
		case errors.Is(err, gateway.ErrNotFound):
			c.String(http.StatusNotFound, "Bus not found")
		default:
			c.String(http.StatusInternalServerError, "Server Error: "+err.Error())
		}
		return
	}

	c.String(http.StatusOK, "OK")
}

// ListLocations handles GET /locations, the bulk read the dashboard uses to
// render all markers and to resynchronize after a missed broadcast.
func (lc *LocationController) ListLocations(c *gin.Context) {
	buses, err := lc.fleet.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing buses: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": buses})
}

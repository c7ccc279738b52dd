// internal/models/bus.go
package models

import (
	"gorm.io/gorm"
)

// InitialPlaceName is the sentinel place name a bus carries until the first
// reverse-geocode resolution completes.
const InitialPlaceName = "Initial Location"

// Bus is one physical bus of the fleet. Records are created only by the
// seeder at first boot; at runtime only coordinates move and the one-time
// identity lock flips.
type Bus struct {
	gorm.Model
	BusNumber string  `json:"bus_number" gorm:"size:50;uniqueIndex;not null"`
	RouteName string  `json:"route_name" gorm:"size:50;not null"`
	PlaceName string  `json:"name" gorm:"size:100"` // last reverse-geocoded place name
	Lat       float64 `json:"lat" gorm:"not null"`
	Lng       float64 `json:"lng" gorm:"not null"`
	IsLocked  bool    `json:"is_locked" gorm:"default:false"`
}

// Package gateway validates and applies inbound bus updates from both the
// HTTP channel and the push channel, and hands accepted changes to the
// broadcast hub.
package gateway

import (
	"context"
	"errors"

	logrus "github.com/sirupsen/logrus"

	"bus_tracker/internal/geocode"
	"bus_tracker/internal/hub"
	"bus_tracker/internal/models"
	"bus_tracker/internal/store"
)

// Rejection reasons. ErrLocked is soft: the edit was a no-op, not a fault.
var (
	ErrMissingField       = errors.New("missing or invalid data")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrNotFound           = store.ErrNotFound
	ErrLocked             = store.ErrLocked
)

// Publisher is the slice of the hub the gateway needs.
type Publisher interface {
	Publish(event string, data interface{})
}

// MarkerUpdate is the update_marker broadcast payload.
type MarkerUpdate struct {
	ID           uint    `json:"id"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	Name         string  `json:"name"`
	NewBusNumber string  `json:"new_bus_number"`
	NewRouteName string  `json:"new_route_name"`
}

// NameUpdated is the name_updated broadcast payload.
type NameUpdated struct {
	ID           uint   `json:"id"`
	NewName      string `json:"new_name"`
	NewBusNumber string `json:"new_bus_number"`
	NewRouteName string `json:"new_route_name"`
	IsLocked     bool   `json:"is_locked"`
}

// Gateway runs the shared validate → resolve → apply → broadcast pipeline.
type Gateway struct {
	fleet    store.FleetStore
	resolver geocode.Resolver
	pub      Publisher
}

// New wires a gateway over the fleet store, the geocode resolver and the hub.
func New(fleet store.FleetStore, resolver geocode.Resolver, pub Publisher) *Gateway {
	return &Gateway{fleet: fleet, resolver: resolver, pub: pub}
}

// validCoordinates checks the envelope every persisted pair must satisfy.
func validCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// HandleCoordinateUpdate applies a position report. The place name is
// resolved from the caller's own validated coordinates before the store
// write, so even when two updates race on one record every broadcast pairs
// coordinates with the name resolved for them; the last writer wins for the
// persisted state.
func (g *Gateway) HandleCoordinateUpdate(ctx context.Context, id uint, lat, lng float64) (models.Bus, error) {
	if !validCoordinates(lat, lng) {
		logrus.WithFields(logrus.Fields{
			"bus_id": id,
			"lat":    lat,
			"lng":    lng,
		}).Warn("Rejected coordinate update outside the valid envelope.")
		return models.Bus{}, ErrInvalidCoordinates
	}

	placeName := g.resolver.Resolve(ctx, lat, lng)

	bus, err := g.fleet.UpdateCoordinates(ctx, id, lat, lng, placeName, func(b models.Bus) {
		g.pub.Publish(hub.EventMarkerUpdate, MarkerUpdate{
			ID:           b.ID,
			Lat:          b.Lat,
			Lng:          b.Lng,
			Name:         b.PlaceName,
			NewBusNumber: b.BusNumber,
			NewRouteName: b.RouteName,
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Bus{}, ErrNotFound
		}
		return models.Bus{}, err
	}

	logrus.WithFields(logrus.Fields{
		"bus_id": bus.ID,
		"lat":    bus.Lat,
		"lng":    bus.Lng,
		"place":  bus.PlaceName,
	}).Info("Coordinate update applied and broadcast.")
	return bus, nil
}

// HandleIdentityEdit applies the one-time identity claim. Identity edits do
// not move the bus, so the place name is re-resolved from the record's
// current coordinates. A locked record is left untouched and produces no
// broadcast.
func (g *Gateway) HandleIdentityEdit(ctx context.Context, id uint, busNumber, routeName string) (models.Bus, error) {
	rec, err := g.fleet.Get(ctx, id)
	if err != nil {
		return models.Bus{}, err
	}
	if rec.IsLocked {
		// Expected once a bus has claimed its identity. Skip the geocode
		// call; the store CAS below still guards the racing case.
		return rec, ErrLocked
	}

	placeName := g.resolver.Resolve(ctx, rec.Lat, rec.Lng)

	bus, err := g.fleet.ApplyIdentityEdit(ctx, id, busNumber, routeName, placeName, func(b models.Bus) {
		g.pub.Publish(hub.EventNameUpdated, NameUpdated{
			ID:           b.ID,
			NewName:      b.PlaceName,
			NewBusNumber: b.BusNumber,
			NewRouteName: b.RouteName,
			IsLocked:     b.IsLocked,
		})
	})
	if err != nil {
		return bus, err
	}

	logrus.WithFields(logrus.Fields{
		"bus_id":     bus.ID,
		"bus_number": bus.BusNumber,
		"route_name": bus.RouteName,
	}).Info("Identity edit applied, record locked and broadcast.")
	return bus, nil
}

// Package store holds the authoritative fleet table. All mutations on a
// single bus record are linearizable; callers never take locks themselves.
package store

import (
	"context"
	"errors"

	"bus_tracker/internal/models"
)

var (
	// ErrNotFound is returned when no bus record exists for the given id.
	ErrNotFound = errors.New("bus not found")
	// ErrLocked signals that a bus already claimed its identity. It is
	// expected steady-state behavior, not a fault: the record is unchanged
	// and callers must not broadcast.
	ErrLocked = errors.New("bus identity already locked")
	// ErrDuplicate is returned on a bus_number uniqueness violation.
	ErrDuplicate = errors.New("bus number already exists")
)

// FleetStore is the shared mutable fleet table. The `then` hook on mutating
// operations runs inside the per-record critical section, after the write is
// applied, so broadcasts piggy-back on the store's serialization and go out
// in apply order.
type FleetStore interface {
	Get(ctx context.Context, id uint) (models.Bus, error)
	// ListAll returns every record ordered by id.
	ListAll(ctx context.Context) ([]models.Bus, error)
	Count(ctx context.Context) (int64, error)
	// Insert creates a new record. Only the seeder calls this; there is no
	// runtime create path.
	Insert(ctx context.Context, bus *models.Bus) error
	// UpdateCoordinates atomically replaces lat, lng and place name.
	UpdateCoordinates(ctx context.Context, id uint, lat, lng float64, placeName string, then func(models.Bus)) (models.Bus, error)
	// ApplyIdentityEdit sets bus number, route name and place name and flips
	// the lock, as one atomic step. Returns ErrLocked (record untouched,
	// hook not run) if the record already claimed its identity.
	ApplyIdentityEdit(ctx context.Context, id uint, busNumber, routeName, placeName string, then func(models.Bus)) (models.Bus, error)
}

package store

import (
	"context"
	"sort"
	"sync"

	"bus_tracker/internal/models"
)

// entry pairs one bus record with the mutex that serializes its mutations.
type entry struct {
	mu  sync.Mutex
	bus models.Bus
}

// MemStore is the in-memory FleetStore. It backs tests and single-node
// deployments that do not need durability; the contract is identical to
// GormStore.
type MemStore struct {
	mu      sync.RWMutex
	entries map[uint]*entry
	nextID  uint
}

// NewMemStore returns an empty in-memory fleet table.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[uint]*entry)}
}

func (s *MemStore) lookup(id uint) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

func (s *MemStore) Get(ctx context.Context, id uint) (models.Bus, error) {
	e, ok := s.lookup(id)
	if !ok {
		return models.Bus{}, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bus, nil
}

func (s *MemStore) ListAll(ctx context.Context) ([]models.Bus, error) {
	s.mu.RLock()
	buses := make([]models.Bus, 0, len(s.entries))
	for _, e := range s.entries {
		e.mu.Lock()
		buses = append(buses, e.bus)
		e.mu.Unlock()
	}
	s.mu.RUnlock()

	sort.Slice(buses, func(i, j int) bool { return buses[i].ID < buses[j].ID })
	return buses, nil
}

func (s *MemStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.entries)), nil
}

func (s *MemStore) Insert(ctx context.Context, bus *models.Bus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.bus.BusNumber == bus.BusNumber {
			return ErrDuplicate
		}
	}
	if bus.ID == 0 {
		s.nextID++
		bus.ID = s.nextID
	} else if bus.ID > s.nextID {
		s.nextID = bus.ID
	}
	s.entries[bus.ID] = &entry{bus: *bus}
	return nil
}

func (s *MemStore) UpdateCoordinates(ctx context.Context, id uint, lat, lng float64, placeName string, then func(models.Bus)) (models.Bus, error) {
	e, ok := s.lookup(id)
	if !ok {
		return models.Bus{}, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bus.Lat = lat
	e.bus.Lng = lng
	e.bus.PlaceName = placeName
	if then != nil {
		then(e.bus)
	}
	return e.bus, nil
}

func (s *MemStore) ApplyIdentityEdit(ctx context.Context, id uint, busNumber, routeName, placeName string, then func(models.Bus)) (models.Bus, error) {
	e, ok := s.lookup(id)
	if !ok {
		return models.Bus{}, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.bus.IsLocked {
		return e.bus, ErrLocked
	}
	e.bus.BusNumber = busNumber
	e.bus.RouteName = routeName
	e.bus.PlaceName = placeName
	e.bus.IsLocked = true
	if then != nil {
		then(e.bus)
	}
	return e.bus, nil
}

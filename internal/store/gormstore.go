package store

import (
	"context"
	"errors"
	"sync"

	"github.com/lib/pq"
	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bus_tracker/internal/models"
)

// GormStore is the durable FleetStore backed by Postgres through GORM.
//
// Postgres serializes the row writes themselves, but broadcast ordering needs
// the whole write-then-publish step to be one critical section per record, so
// the store keeps an in-process lock per bus id. Different ids never contend.
type GormStore struct {
	db *gorm.DB

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewGormStore wraps an initialized GORM handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:    db,
		locks: make(map[uint]*sync.Mutex),
	}
}

// recordLock returns the mutex guarding a single bus id, creating it on
// first use.
func (s *GormStore) recordLock(id uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *GormStore) Get(ctx context.Context, id uint) (models.Bus, error) {
	var bus models.Bus
	if err := s.db.WithContext(ctx).First(&bus, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Bus{}, ErrNotFound
		}
		return models.Bus{}, err
	}
	return bus, nil
}

func (s *GormStore) ListAll(ctx context.Context) ([]models.Bus, error) {
	var buses []models.Bus
	if err := s.db.WithContext(ctx).Order("id asc").Find(&buses).Error; err != nil {
		return nil, err
	}
	return buses, nil
}

func (s *GormStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Bus{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *GormStore) Insert(ctx context.Context, bus *models.Bus) error {
	if err := s.db.WithContext(ctx).Create(bus).Error; err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *GormStore) UpdateCoordinates(ctx context.Context, id uint, lat, lng float64, placeName string, then func(models.Bus)) (models.Bus, error) {
	l := s.recordLock(id)
	l.Lock()
	defer l.Unlock()

	res := s.db.WithContext(ctx).Model(&models.Bus{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"lat":        lat,
			"lng":        lng,
			"place_name": placeName,
		})
	if res.Error != nil {
		return models.Bus{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.Bus{}, ErrNotFound
	}

	var bus models.Bus
	if err := s.db.WithContext(ctx).First(&bus, id).Error; err != nil {
		logrus.WithError(err).WithField("bus_id", id).Error("Failed to reload bus after coordinate update.")
		return models.Bus{}, err
	}
	if then != nil {
		then(bus)
	}
	return bus, nil
}

func (s *GormStore) ApplyIdentityEdit(ctx context.Context, id uint, busNumber, routeName, placeName string, then func(models.Bus)) (models.Bus, error) {
	l := s.recordLock(id)
	l.Lock()
	defer l.Unlock()

	// Compare-and-set: the is_locked predicate makes check and claim one
	// atomic step, so two racing edits cannot both win.
	res := s.db.WithContext(ctx).Model(&models.Bus{}).
		Where("id = ? AND is_locked = ?", id, false).
		Updates(map[string]interface{}{
			"bus_number": busNumber,
			"route_name": routeName,
			"place_name": placeName,
			"is_locked":  true,
		})
	if res.Error != nil {
		return models.Bus{}, res.Error
	}

	var bus models.Bus
	if err := s.db.WithContext(ctx).First(&bus, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Bus{}, ErrNotFound
		}
		return models.Bus{}, err
	}
	if res.RowsAffected == 0 {
		// Record exists but the CAS missed: already locked.
		return bus, ErrLocked
	}
	if then != nil {
		then(bus)
	}
	return bus, nil
}

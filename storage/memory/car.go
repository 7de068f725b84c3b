package memory

import (
	"context"
	"sort"

	"taxiservice/pkg/models"
	"taxiservice/storage"
)

type carRepo struct {
	s *Store
}

// hydrate returns a copy of c with its manufacturer and driver ids attached.
// Callers hold the lock.
func (r carRepo) hydrate(c models.Car) *models.Car {
	if m, ok := r.s.manufacturers[c.ManufacturerID]; ok {
		c.Manufacturer = &m
	}
	c.DriverIDs = r.s.driverIDs(c.ID)
	c.Drivers = nil
	return &c
}

func (r carRepo) List(_ context.Context, filter storage.CarFilter) ([]*models.Car, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Car, 0, len(r.s.cars))
	for _, c := range r.s.cars {
		model := c.Model
		if !filter.Search.Match(func(field string) string {
			if field == "model" {
				return model
			}
			return ""
		}) {
			continue
		}
		if filter.ManufacturerID != 0 && c.ManufacturerID != filter.ManufacturerID {
			continue
		}
		if filter.DriverID != 0 {
			if _, ok := r.s.carDrivers[c.ID][filter.DriverID]; !ok {
				continue
			}
		}
		out = append(out, r.hydrate(c))
	}
	sortCars(out)
	return out, nil
}

func (r carRepo) GetByID(_ context.Context, id int64) (*models.Car, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.cars[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return r.hydrate(c), nil
}

func (r carRepo) Create(_ context.Context, c *models.Car) (*models.Car, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkReferences(c); err != nil {
		return nil, err
	}
	stored := models.Car{ID: r.s.newID(), Model: c.Model, ManufacturerID: c.ManufacturerID}
	r.s.cars[stored.ID] = stored
	r.replaceDrivers(stored.ID, c.DriverIDs)
	return r.hydrate(stored), nil
}

func (r carRepo) Update(_ context.Context, c *models.Car) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.cars[c.ID]; !ok {
		return storage.ErrNotFound
	}
	if err := r.checkReferences(c); err != nil {
		return err
	}
	r.s.cars[c.ID] = models.Car{ID: c.ID, Model: c.Model, ManufacturerID: c.ManufacturerID}
	r.replaceDrivers(c.ID, c.DriverIDs)
	return nil
}

// checkReferences validates every reference before anything is written so a
// failed save leaves no partial state.
func (r carRepo) checkReferences(c *models.Car) error {
	if _, ok := r.s.manufacturers[c.ManufacturerID]; !ok {
		return &storage.InvalidReferenceError{Field: "manufacturer"}
	}
	for _, id := range c.DriverIDs {
		if _, ok := r.s.drivers[id]; !ok {
			return &storage.InvalidReferenceError{Field: "drivers"}
		}
	}
	return nil
}

func (r carRepo) replaceDrivers(carID int64, driverIDs []int64) {
	set := make(map[int64]struct{}, len(driverIDs))
	for _, id := range driverIDs {
		set[id] = struct{}{}
	}
	r.s.carDrivers[carID] = set
}

func (r carRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.cars[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.s.cars, id)
	delete(r.s.carDrivers, id)
	return nil
}

func (r carRepo) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.cars), nil
}

func (r carRepo) ToggleDriver(_ context.Context, carID, driverID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.cars[carID]; !ok {
		return false, storage.ErrNotFound
	}
	if _, ok := r.s.drivers[driverID]; !ok {
		return false, &storage.InvalidReferenceError{Field: "drivers"}
	}
	set := r.s.carDrivers[carID]
	if set == nil {
		set = make(map[int64]struct{})
		r.s.carDrivers[carID] = set
	}
	if _, ok := set[driverID]; ok {
		delete(set, driverID)
		return false, nil
	}
	set[driverID] = struct{}{}
	return true, nil
}

func sortCars(cars []*models.Car) {
	sort.Slice(cars, func(i, j int) bool { return cars[i].ID < cars[j].ID })
}

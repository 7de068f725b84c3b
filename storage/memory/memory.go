// Package memory is a process-local implementation of storage.IStorage with
// the same constraints as the Postgres schema.
package memory

import (
	"sort"
	"sync"
	"time"

	"taxiservice/pkg/models"
	"taxiservice/storage"
)

type Store struct {
	mu sync.RWMutex

	nextID        int64
	manufacturers map[int64]models.Manufacturer
	drivers       map[int64]models.Driver
	cars          map[int64]models.Car
	// carDrivers is the join table: car id -> set of driver ids.
	carDrivers map[int64]map[int64]struct{}

	now func() time.Time
}

func New() *Store {
	return &Store{
		manufacturers: make(map[int64]models.Manufacturer),
		drivers:       make(map[int64]models.Driver),
		cars:          make(map[int64]models.Car),
		carDrivers:    make(map[int64]map[int64]struct{}),
		now:           time.Now,
	}
}

func (s *Store) Manufacturer() storage.IManufacturerStorage { return manufacturerRepo{s} }
func (s *Store) Driver() storage.IDriverStorage             { return driverRepo{s} }
func (s *Store) Car() storage.ICarStorage                   { return carRepo{s} }
func (s *Store) Close()                                     {}

func (s *Store) newID() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) driverIDs(carID int64) []int64 {
	ids := make([]int64, 0, len(s.carDrivers[carID]))
	for id := range s.carDrivers[carID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

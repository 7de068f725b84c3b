package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taxiservice/pkg/models"
	"taxiservice/pkg/search"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrInUse is returned when deleting a record other records still reference.
	ErrInUse = errors.New("record is still referenced")
)

// AlreadyExistsError reports a unique constraint violation on Field.
type AlreadyExistsError struct {
	Field string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

// InvalidReferenceError reports a reference to a record that does not exist.
type InvalidReferenceError struct {
	Field string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("%s references a missing record", e.Field)
}

type IStorage interface {
	Manufacturer() IManufacturerStorage
	Driver() IDriverStorage
	Car() ICarStorage
	Close()
}

// ManufacturerFilter selects manufacturers. Searchable fields: name, country.
type ManufacturerFilter struct {
	Search search.Query
}

// DriverFilter selects drivers. Searchable fields: username, first_name,
// last_name, email, license_number.
type DriverFilter struct {
	Search search.Query
	CarID  int64
}

// CarFilter selects cars. Searchable field: model. Zero ids leave the
// relation unfiltered; callers reject non-positive ids before building one.
type CarFilter struct {
	Search         search.Query
	ManufacturerID int64
	DriverID       int64
}

type IManufacturerStorage interface {
	List(ctx context.Context, filter ManufacturerFilter) ([]*models.Manufacturer, error)
	GetByID(ctx context.Context, id int64) (*models.Manufacturer, error)
	Create(ctx context.Context, m *models.Manufacturer) (*models.Manufacturer, error)
	Update(ctx context.Context, m *models.Manufacturer) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type IDriverStorage interface {
	// List orders by username case-insensitively, ties broken byte-wise.
	List(ctx context.Context, filter DriverFilter) ([]*models.Driver, error)
	GetByID(ctx context.Context, id int64) (*models.Driver, error)
	GetByUsername(ctx context.Context, username string) (*models.Driver, error)
	Create(ctx context.Context, d *models.Driver) (*models.Driver, error)
	UpdateLicense(ctx context.Context, id int64, licenseNumber string) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	// BumpSessionVersion invalidates every session token issued to the driver so far.
	BumpSessionVersion(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type ICarStorage interface {
	List(ctx context.Context, filter CarFilter) ([]*models.Car, error)
	GetByID(ctx context.Context, id int64) (*models.Car, error)
	// Create and Update write the car and replace its driver set atomically.
	Create(ctx context.Context, c *models.Car) (*models.Car, error)
	Update(ctx context.Context, c *models.Car) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	// ToggleDriver assigns driverID to the car, or removes it if already
	// assigned, and reports whether the driver is assigned afterwards.
	ToggleDriver(ctx context.Context, carID, driverID int64) (bool, error)
}

package service

import (
	"context"
	"errors"
	"strconv"

	"taxiservice/pkg/forms"
	"taxiservice/pkg/logger"
	"taxiservice/pkg/models"
	"taxiservice/storage"
)

type CarService interface {
	List(ctx context.Context, filter storage.CarFilter) ([]*models.Car, error)
	// Get returns the car with its manufacturer and drivers.
	Get(ctx context.Context, id int64) (*models.Car, error)
	Create(ctx context.Context, form forms.CarForm) (*models.Car, forms.Errors, error)
	Update(ctx context.Context, id int64, form forms.CarForm) (*models.Car, forms.Errors, error)
	Delete(ctx context.Context, id int64) error
	// ToggleAssign adds the current driver to the car or removes them and
	// reports whether they are assigned afterwards.
	ToggleAssign(ctx context.Context, who models.Identity, carID int64) (bool, error)
}

type carService struct {
	cars          storage.ICarStorage
	drivers       storage.IDriverStorage
	manufacturers storage.IManufacturerStorage
	log           logger.ILogger
}

func NewCarService(stg storage.IStorage, log logger.ILogger) CarService {
	return &carService{
		cars:          stg.Car(),
		drivers:       stg.Driver(),
		manufacturers: stg.Manufacturer(),
		log:           log,
	}
}

func (s *carService) List(ctx context.Context, filter storage.CarFilter) ([]*models.Car, error) {
	return s.cars.List(ctx, filter)
}

func (s *carService) Get(ctx context.Context, id int64) (*models.Car, error) {
	car, err := s.cars.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	car.Drivers, err = s.drivers.List(ctx, storage.DriverFilter{CarID: id})
	if err != nil {
		return nil, err
	}
	return car, nil
}

func (s *carService) Create(ctx context.Context, form forms.CarForm) (*models.Car, forms.Errors, error) {
	errs, err := s.clean(ctx, form)
	if err != nil || !errs.Valid() {
		return nil, errs, err
	}

	car, err := s.cars.Create(ctx, &models.Car{
		Model:          form.Model,
		ManufacturerID: form.ManufacturerID,
		DriverIDs:      form.DriverIDs,
	})
	if err != nil {
		errs, err := formErrors(err)
		return nil, errs, err
	}
	s.log.Info("car created", logger.Int64("id", car.ID), logger.Int64s("drivers", car.DriverIDs))
	return car, nil, nil
}

func (s *carService) Update(ctx context.Context, id int64, form forms.CarForm) (*models.Car, forms.Errors, error) {
	car, err := s.cars.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	errs, err := s.clean(ctx, form)
	if err != nil || !errs.Valid() {
		return car, errs, err
	}

	car.Model = form.Model
	car.ManufacturerID = form.ManufacturerID
	car.DriverIDs = form.DriverIDs
	if err := s.cars.Update(ctx, car); err != nil {
		errs, err := formErrors(err)
		return car, errs, err
	}
	s.log.Info("car updated", logger.Int64("id", car.ID), logger.Int64s("drivers", car.DriverIDs))

	updated, err := s.Get(ctx, car.ID)
	if err != nil {
		return nil, nil, err
	}
	return updated, nil, nil
}

// clean validates the form and checks that every referenced record exists.
func (s *carService) clean(ctx context.Context, form forms.CarForm) (forms.Errors, error) {
	errs := form.Clean()

	if form.ManufacturerID > 0 && !errs.Has("manufacturer") {
		_, err := s.manufacturers.GetByID(ctx, form.ManufacturerID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			errs.Add("manufacturer", forms.InvalidChoice())
		case err != nil:
			return nil, err
		}
	}

	for _, id := range form.DriverIDs {
		_, err := s.drivers.GetByID(ctx, id)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			errs.Add("drivers", forms.InvalidChoiceValue(strconv.FormatInt(id, 10)))
		case err != nil:
			return nil, err
		}
	}
	return errs, nil
}

func (s *carService) Delete(ctx context.Context, id int64) error {
	if err := s.cars.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("car deleted", logger.Int64("id", id))
	return nil
}

func (s *carService) ToggleAssign(ctx context.Context, who models.Identity, carID int64) (bool, error) {
	assigned, err := s.cars.ToggleDriver(ctx, carID, who.DriverID)
	if err != nil {
		var ref *storage.InvalidReferenceError
		if errors.As(err, &ref) {
			return false, ErrUnauthenticated
		}
		return false, err
	}
	s.log.Info("car assignment toggled",
		logger.Int64("car_id", carID),
		logger.Int64("driver_id", who.DriverID),
		logger.Bool("assigned", assigned),
	)
	return assigned, nil
}

package service

import (
	"context"
	"errors"

	"taxiservice/pkg/forms"
	"taxiservice/pkg/logger"
	"taxiservice/pkg/models"
	"taxiservice/pkg/search"
	"taxiservice/storage"
)

type ManufacturerService interface {
	List(ctx context.Context, q search.Query) ([]*models.Manufacturer, error)
	Get(ctx context.Context, id int64) (*models.Manufacturer, error)
	Create(ctx context.Context, form forms.ManufacturerForm) (*models.Manufacturer, forms.Errors, error)
	Update(ctx context.Context, id int64, form forms.ManufacturerForm) (*models.Manufacturer, forms.Errors, error)
	Delete(ctx context.Context, id int64) (forms.Errors, error)
}

type manufacturerService struct {
	stg storage.IManufacturerStorage
	log logger.ILogger
}

func NewManufacturerService(stg storage.IStorage, log logger.ILogger) ManufacturerService {
	return &manufacturerService{
		stg: stg.Manufacturer(),
		log: log,
	}
}

func (s *manufacturerService) List(ctx context.Context, q search.Query) ([]*models.Manufacturer, error) {
	return s.stg.List(ctx, storage.ManufacturerFilter{Search: q})
}

func (s *manufacturerService) Get(ctx context.Context, id int64) (*models.Manufacturer, error) {
	return s.stg.GetByID(ctx, id)
}

func (s *manufacturerService) Create(ctx context.Context, form forms.ManufacturerForm) (*models.Manufacturer, forms.Errors, error) {
	if errs := form.Clean(); !errs.Valid() {
		return nil, errs, nil
	}

	m, err := s.stg.Create(ctx, &models.Manufacturer{Name: form.Name, Country: form.Country})
	if err != nil {
		errs, err := formErrors(err)
		return nil, errs, err
	}
	s.log.Info("manufacturer created", logger.Int64("id", m.ID), logger.String("name", m.Name))
	return m, nil, nil
}

func (s *manufacturerService) Update(ctx context.Context, id int64, form forms.ManufacturerForm) (*models.Manufacturer, forms.Errors, error) {
	m, err := s.stg.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if errs := form.Clean(); !errs.Valid() {
		return m, errs, nil
	}

	m.Name = form.Name
	m.Country = form.Country
	if err := s.stg.Update(ctx, m); err != nil {
		errs, err := formErrors(err)
		return m, errs, err
	}
	s.log.Info("manufacturer updated", logger.Int64("id", m.ID))
	return m, nil, nil
}

func (s *manufacturerService) Delete(ctx context.Context, id int64) (forms.Errors, error) {
	err := s.stg.Delete(ctx, id)
	if errors.Is(err, storage.ErrInUse) {
		errs := forms.NewErrors()
		errs.Add(forms.NonField, msgManufacturerInUse)
		return errs, nil
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("manufacturer deleted", logger.Int64("id", id))
	return nil, nil
}

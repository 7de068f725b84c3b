package service

import (
	"context"
	"errors"
	"time"

	"taxiservice/pkg/auth"
	"taxiservice/pkg/forms"
	"taxiservice/pkg/logger"
	"taxiservice/pkg/models"
	"taxiservice/storage"
)

type DriverService interface {
	List(ctx context.Context, filter storage.DriverFilter) ([]*models.Driver, error)
	// Get returns the driver with the cars they are assigned to.
	Get(ctx context.Context, id int64) (*models.Driver, error)
	Register(ctx context.Context, form forms.DriverCreationForm) (*models.Driver, forms.Errors, error)
	// CreateSuperuser registers an active staff account with every permission.
	CreateSuperuser(ctx context.Context, form forms.DriverCreationForm) (*models.Driver, forms.Errors, error)
	UpdateLicense(ctx context.Context, id int64, form forms.DriverLicenseUpdateForm) (*models.Driver, forms.Errors, error)
	Delete(ctx context.Context, id int64) error
	// Authenticate checks credentials and records the login time.
	Authenticate(ctx context.Context, form forms.LoginForm) (models.Identity, forms.Errors, error)
	Stats(ctx context.Context) (models.Stats, error)
}

type driverService struct {
	stg  storage.IStorage
	auth *auth.Service
	log  logger.ILogger
	now  func() time.Time
}

func NewDriverService(stg storage.IStorage, authenticator *auth.Service, log logger.ILogger) DriverService {
	return &driverService{
		stg:  stg,
		auth: authenticator,
		log:  log,
		now:  time.Now,
	}
}

func (s *driverService) List(ctx context.Context, filter storage.DriverFilter) ([]*models.Driver, error) {
	return s.stg.Driver().List(ctx, filter)
}

func (s *driverService) Get(ctx context.Context, id int64) (*models.Driver, error) {
	d, err := s.stg.Driver().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Cars, err = s.stg.Car().List(ctx, storage.CarFilter{DriverID: id})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *driverService) Register(ctx context.Context, form forms.DriverCreationForm) (*models.Driver, forms.Errors, error) {
	return s.create(ctx, form, false)
}

func (s *driverService) CreateSuperuser(ctx context.Context, form forms.DriverCreationForm) (*models.Driver, forms.Errors, error) {
	return s.create(ctx, form, true)
}

func (s *driverService) create(ctx context.Context, form forms.DriverCreationForm, superuser bool) (*models.Driver, forms.Errors, error) {
	errs := form.Clean()
	if !errs.Has("username") {
		_, err := s.stg.Driver().GetByUsername(ctx, form.Username)
		switch {
		case err == nil:
			errs.Add("username", forms.MsgUsernameTaken)
		case !errors.Is(err, storage.ErrNotFound):
			return nil, nil, err
		}
	}
	if !errs.Valid() {
		return nil, errs, nil
	}

	hash, err := s.auth.HashPassword(form.Password1)
	if err != nil {
		return nil, nil, err
	}

	d, err := s.stg.Driver().Create(ctx, &models.Driver{
		Username:      form.Username,
		PasswordHash:  hash,
		Email:         form.Email,
		FirstName:     form.FirstName,
		LastName:      form.LastName,
		LicenseNumber: form.LicenseNumber,
		IsStaff:       superuser,
		IsSuperuser:   superuser,
		IsActive:      true,
	})
	if err != nil {
		errs, err := formErrors(err)
		return nil, errs, err
	}
	s.log.Info("driver registered",
		logger.Int64("id", d.ID),
		logger.String("username", d.Username),
		logger.Bool("superuser", superuser),
	)
	return d, nil, nil
}

func (s *driverService) UpdateLicense(ctx context.Context, id int64, form forms.DriverLicenseUpdateForm) (*models.Driver, forms.Errors, error) {
	d, err := s.stg.Driver().GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if errs := form.Clean(); !errs.Valid() {
		return d, errs, nil
	}

	if err := s.stg.Driver().UpdateLicense(ctx, id, form.LicenseNumber); err != nil {
		errs, err := formErrors(err)
		return d, errs, err
	}
	d.LicenseNumber = form.LicenseNumber
	s.log.Info("driver license updated", logger.Int64("id", id))
	return d, nil, nil
}

func (s *driverService) Delete(ctx context.Context, id int64) error {
	if err := s.stg.Driver().Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("driver deleted", logger.Int64("id", id))
	return nil
}

func (s *driverService) Authenticate(ctx context.Context, form forms.LoginForm) (models.Identity, forms.Errors, error) {
	if errs := form.Clean(); !errs.Valid() {
		return models.Identity{}, errs, nil
	}

	invalid := func(msg string) (models.Identity, forms.Errors, error) {
		errs := forms.NewErrors()
		errs.Add(forms.NonField, msg)
		return models.Identity{}, errs, nil
	}

	d, err := s.stg.Driver().GetByUsername(ctx, form.Username)
	if errors.Is(err, storage.ErrNotFound) {
		return invalid(forms.MsgInvalidLogin)
	}
	if err != nil {
		return models.Identity{}, nil, err
	}
	if !s.auth.CheckPassword(form.Password, d.PasswordHash) {
		s.log.Warning("failed login", logger.String("username", form.Username))
		return invalid(forms.MsgInvalidLogin)
	}
	if !d.IsActive {
		return invalid(forms.MsgInactiveLogin)
	}

	if err := s.stg.Driver().UpdateLastLogin(ctx, d.ID, s.now()); err != nil {
		return models.Identity{}, nil, err
	}
	return d.Identity(), nil, nil
}

func (s *driverService) Stats(ctx context.Context) (models.Stats, error) {
	var (
		stats models.Stats
		err   error
	)
	if stats.Drivers, err = s.stg.Driver().Count(ctx); err != nil {
		return stats, err
	}
	if stats.Cars, err = s.stg.Car().Count(ctx); err != nil {
		return stats, err
	}
	if stats.Manufacturers, err = s.stg.Manufacturer().Count(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}

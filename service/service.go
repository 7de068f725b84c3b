package service

import (
	"taxiservice/pkg/auth"
	"taxiservice/pkg/logger"
	"taxiservice/storage"
)

type IServiceManager interface {
	Manufacturer() ManufacturerService
	Car() CarService
	Driver() DriverService
	Auth() AuthService
}

type service struct {
	manufacturerService ManufacturerService
	carService          CarService
	driverService       DriverService
	authService         AuthService
}

func New(stg storage.IStorage, authenticator *auth.Service, log logger.ILogger) IServiceManager {
	return &service{
		manufacturerService: NewManufacturerService(stg, log),
		carService:          NewCarService(stg, log),
		driverService:       NewDriverService(stg, authenticator, log),
		authService:         NewAuthService(stg, authenticator, log),
	}
}

func (s *service) Manufacturer() ManufacturerService {
	return s.manufacturerService
}

func (s *service) Car() CarService {
	return s.carService
}

func (s *service) Driver() DriverService {
	return s.driverService
}

func (s *service) Auth() AuthService {
	return s.authService
}

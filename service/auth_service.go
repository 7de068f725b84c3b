package service

import (
	"context"
	"errors"

	"taxiservice/pkg/auth"
	"taxiservice/pkg/logger"
	"taxiservice/pkg/models"
	"taxiservice/storage"
)

// AuthService issues and resolves session tokens.
type AuthService interface {
	IssueSession(who models.Identity) (string, error)
	// Resolve returns the identity behind token. Tokens of deleted or
	// deactivated accounts resolve to ErrUnauthenticated.
	Resolve(ctx context.Context, token string) (models.Identity, error)
	// Revoke ends every session of the driver behind token. Tokens that no
	// longer resolve are ignored.
	Revoke(ctx context.Context, token string) error
}

type authService struct {
	drivers storage.IDriverStorage
	auth    *auth.Service
	log     logger.ILogger
}

func NewAuthService(stg storage.IStorage, authenticator *auth.Service, log logger.ILogger) AuthService {
	return &authService{
		drivers: stg.Driver(),
		auth:    authenticator,
		log:     log,
	}
}

func (s *authService) IssueSession(who models.Identity) (string, error) {
	return s.auth.GenerateToken(who)
}

func (s *authService) Resolve(ctx context.Context, token string) (models.Identity, error) {
	claimed, err := s.auth.ValidateToken(token)
	if err != nil {
		s.log.Debug("rejected session token", logger.Error(err))
		return models.Identity{}, ErrUnauthenticated
	}

	d, err := s.drivers.GetByID(ctx, claimed.DriverID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Identity{}, ErrUnauthenticated
	}
	if err != nil {
		return models.Identity{}, err
	}
	if !d.IsActive || d.SessionVersion != claimed.Version {
		return models.Identity{}, ErrUnauthenticated
	}
	return d.Identity(), nil
}

func (s *authService) Revoke(ctx context.Context, token string) error {
	who, err := s.Resolve(ctx, token)
	if errors.Is(err, ErrUnauthenticated) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.drivers.BumpSessionVersion(ctx, who.DriverID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	s.log.Info("sessions revoked", logger.Int64("driver_id", who.DriverID))
	return nil
}

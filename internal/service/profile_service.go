package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"agrimarket/internal/domain"
	"agrimarket/internal/repository"
)

// ProfileService resuelve el perfil activo de una sesion autenticada.
type ProfileService struct {
	logger   *zap.Logger
	profiles repository.ProfileRepository
}

func NewProfileService(logger *zap.Logger, profiles repository.ProfileRepository) *ProfileService {
	return &ProfileService{logger: logger, profiles: profiles}
}

var ErrProfileNotFound = errors.New("profile not found")

func (s *ProfileService) GetByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	if s.profiles == nil {
		return domain.Profile{}, errors.New("profile service not configured")
	}
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, ErrProfileNotFound
		}
		return domain.Profile{}, err
	}
	return profile, nil
}

// GetOrHeal busca el perfil del usuario; si falta intenta recrearlo una sola
// vez a partir de los datos de sesion y, si eso tambien falla, devuelve un
// perfil invitado de solo lectura.
func (s *ProfileService) GetOrHeal(ctx context.Context, claims Claims) (domain.Profile, bool, error) {
	if s.profiles == nil {
		return domain.Profile{}, false, errors.New("profile service not configured")
	}

	profile, err := s.profiles.GetByUserID(ctx, claims.UserID)
	if err == nil {
		return profile, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, false, err
	}

	healed, healErr := s.healProfile(ctx, claims)
	if healErr == nil {
		if s.logger != nil {
			s.logger.Info("profile recreated from session", zap.String("user_id", claims.UserID))
		}
		return healed, false, nil
	}
	if s.logger != nil {
		s.logger.Warn("profile heal failed, serving guest view", zap.Error(healErr), zap.String("user_id", claims.UserID))
	}
	return guestProfile(claims), true, nil
}

func (s *ProfileService) healProfile(ctx context.Context, claims Claims) (domain.Profile, error) {
	userType := claims.UserType
	if !domain.ValidUserType(userType) {
		userType = domain.UserTypeFarmer
	}
	fullName := claims.FullName
	if fullName == "" {
		fullName = claims.Email
	}

	now := time.Now().UTC()
	profile := domain.Profile{
		ID:        uuid.NewString(),
		UserID:    claims.UserID,
		FullName:  fullName,
		UserType:  userType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

func guestProfile(claims Claims) domain.Profile {
	fullName := claims.FullName
	if fullName == "" {
		fullName = "Guest"
	}
	return domain.Profile{
		UserID:   claims.UserID,
		FullName: fullName,
		UserType: domain.UserTypeFarmer,
	}
}

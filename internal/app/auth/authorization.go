package auth

import (
	"context"
	"errors"
	"time"

	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/app/repositories"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
	pkgauth "github.com/yigit/schoolrecords/internal/pkg/auth"
	"github.com/yigit/schoolrecords/internal/pkg/logger"
)

// ErrNotAdmin is returned when an action needs the admin role
var ErrNotAdmin = apperrors.NewForbiddenError("only administrators can perform this action")

// AuthorizationService resolves the role of an identity
type AuthorizationService struct {
	roleRepo repositories.UserRoleRepository
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(roleRepo repositories.UserRoleRepository) *AuthorizationService {
	return &AuthorizationService{roleRepo: roleRepo}
}

// RoleOf returns the role of identity, creating the default user role on first access
func (s *AuthorizationService) RoleOf(ctx context.Context, identity pkgauth.Identity) (*models.UserRole, error) {
	if identity.UserID == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	role, err := s.roleRepo.GetByUserID(ctx, identity.UserID)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		logger.Error().Err(err).Str("userID", identity.UserID).Msg("Error getting user role")
		return nil, err
	}

	now := time.Now().UTC()
	role, err = s.roleRepo.CreateIfMissing(ctx, &models.UserRole{
		UserID:    identity.UserID,
		Role:      models.RoleUser,
		Email:     identity.Email,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		logger.Error().Err(err).Str("userID", identity.UserID).Msg("Error creating default user role")
		return nil, err
	}
	logger.Info().Str("userID", identity.UserID).Str("role", string(role.Role)).Msg("Created role for new identity")
	return role, nil
}

// IsAdmin checks if the identity holds the admin role
func (s *AuthorizationService) IsAdmin(ctx context.Context, identity pkgauth.Identity) (bool, error) {
	role, err := s.RoleOf(ctx, identity)
	if err != nil {
		return false, err
	}
	return role.IsAdmin(), nil
}

// ValidateAdmin returns ErrNotAdmin unless the identity holds the admin role
func (s *AuthorizationService) ValidateAdmin(ctx context.Context, identity pkgauth.Identity) error {
	isAdmin, err := s.IsAdmin(ctx, identity)
	if err != nil {
		return err
	}
	if !isAdmin {
		return ErrNotAdmin
	}
	return nil
}

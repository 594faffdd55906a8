package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appauth "github.com/yigit/schoolrecords/internal/app/auth"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/app/repositories"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
	"github.com/yigit/schoolrecords/internal/pkg/auth"
	"github.com/yigit/schoolrecords/internal/pkg/validation"
)

// UserService manages accounts and their roles
type UserService interface {
	EnsureRole(ctx context.Context, identity auth.Identity) (*models.UserRole, error)
	ListUsers(ctx context.Context) ([]models.UserRole, error)
	Register(ctx context.Context, email, password string) (*models.UserRole, error)
	ChangeRole(ctx context.Context, actor auth.Identity, targetID string, role models.RoleType) (*models.UserRole, error)
}

// userServiceImpl implements the UserService interface
type userServiceImpl struct {
	accountRepo repositories.AccountRepository
	roleRepo    repositories.UserRoleRepository
	authz       *appauth.AuthorizationService
	logger      zerolog.Logger
}

// NewUserService creates a new user service instance
func NewUserService(
	accountRepo repositories.AccountRepository,
	roleRepo repositories.UserRoleRepository,
	authz *appauth.AuthorizationService,
	logger zerolog.Logger,
) UserService {
	return &userServiceImpl{
		accountRepo: accountRepo,
		roleRepo:    roleRepo,
		authz:       authz,
		logger:      logger,
	}
}

// EnsureRole returns the role of identity, creating the default one if missing
func (s *userServiceImpl) EnsureRole(ctx context.Context, identity auth.Identity) (*models.UserRole, error) {
	return s.authz.RoleOf(ctx, identity)
}

// ListUsers returns every known role ordered by email
func (s *userServiceImpl) ListUsers(ctx context.Context) ([]models.UserRole, error) {
	return s.roleRepo.List(ctx)
}

// Register creates an account with the default user role
func (s *userServiceImpl) Register(ctx context.Context, email, password string) (*models.UserRole, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	verr := apperrors.NewValidationError()
	if !validation.IsEmail(email) {
		verr.Add("email", "must be a valid email address")
	}
	if len(password) < validation.PasswordMinLength {
		verr.Add("password", "must be at least 6 characters")
	} else if len(password) > auth.MaxPasswordBytes {
		verr.Add("password", "must be at most 72 bytes")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &models.Account{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	role, err := s.roleRepo.CreateIfMissing(ctx, &models.UserRole{
		UserID:    account.ID,
		Role:      models.RoleUser,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("userID", account.ID).Str("email", email).Msg("Account registered")
	return role, nil
}

// ChangeRole sets the role of targetID. Only admins may do this, and an admin
// cannot demote their own account.
func (s *userServiceImpl) ChangeRole(ctx context.Context, actor auth.Identity, targetID string, role models.RoleType) (*models.UserRole, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError(apperrors.FieldError{Field: "role", Message: "must be one of: user admin"})
	}
	if err := s.authz.ValidateAdmin(ctx, actor); err != nil {
		return nil, err
	}
	if actor.UserID == targetID && role != models.RoleAdmin {
		return nil, apperrors.NewForbiddenError("administrators cannot demote themselves")
	}

	if _, err := s.roleRepo.GetByUserID(ctx, targetID); err != nil {
		return nil, err
	}
	if err := s.roleRepo.UpdateRole(ctx, targetID, role, time.Now().UTC()); err != nil {
		return nil, err
	}

	s.logger.Info().Str("userID", targetID).Str("role", string(role)).Str("changedBy", actor.UserID).Msg("User role changed")
	return s.roleRepo.GetByUserID(ctx, targetID)
}

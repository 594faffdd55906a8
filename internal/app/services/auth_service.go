package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	appauth "github.com/yigit/schoolrecords/internal/app/auth"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/app/repositories"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
	"github.com/yigit/schoolrecords/internal/pkg/auth"
	"github.com/yigit/schoolrecords/internal/pkg/metrics"
)

// LoginResult is a successful sign-in
type LoginResult struct {
	Token    *auth.IssuedToken
	Identity auth.Identity
	Role     *models.UserRole
}

// AuthService signs identities in and out and authenticates access tokens
type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	Authenticate(ctx context.Context, token string) (auth.Identity, *auth.Claims, error)
	PurgeRevokedTokens(ctx context.Context) (int64, error)
}

// authServiceImpl implements the AuthService interface
type authServiceImpl struct {
	accountRepo repositories.AccountRepository
	tokenRepo   repositories.TokenRepository
	authz       *appauth.AuthorizationService
	jwtService  *auth.JWTService
	sessions    *auth.SessionManager
	logger      zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	accountRepo repositories.AccountRepository,
	tokenRepo repositories.TokenRepository,
	authz *appauth.AuthorizationService,
	jwtService *auth.JWTService,
	sessions *auth.SessionManager,
	logger zerolog.Logger,
) AuthService {
	return &authServiceImpl{
		accountRepo: accountRepo,
		tokenRepo:   tokenRepo,
		authz:       authz,
		jwtService:  jwtService,
		sessions:    sessions,
		logger:      logger,
	}
}

// Login checks the credentials and issues an access token
func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		metrics.Login("failure")
		return nil, apperrors.ErrInvalidCredentials
	}

	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			auth.BurnCompare(password)
			metrics.Login("failure")
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, identityUnavailable(err)
	}
	if !auth.CheckPassword(account.PasswordHash, password) {
		metrics.Login("failure")
		s.logger.Warn().Str("email", email).Msg("Login failed: wrong password")
		return nil, apperrors.ErrInvalidCredentials
	}

	identity := auth.Identity{UserID: account.ID, Email: account.Email}
	role, err := s.authz.RoleOf(ctx, identity)
	if err != nil {
		return nil, err
	}

	token, err := s.jwtService.GenerateToken(identity)
	if err != nil {
		return nil, err
	}

	metrics.Login("success")
	s.sessions.SignedIn(ctx, identity)
	s.logger.Info().Str("userID", account.ID).Msg("User logged in")
	return &LoginResult{Token: token, Identity: identity, Role: role}, nil
}

// Logout revokes the token described by claims
func (s *authServiceImpl) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return apperrors.ErrTokenInvalid
	}

	expiresAt := time.Now().UTC()
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.tokenRepo.Revoke(ctx, claims.ID, expiresAt); err != nil {
		return err
	}

	s.sessions.SignedOut(ctx, claims.UserID)
	s.logger.Info().Str("userID", claims.UserID).Msg("User logged out")
	return nil
}

// Authenticate validates token and rejects revoked ones
func (s *authServiceImpl) Authenticate(ctx context.Context, token string) (auth.Identity, *auth.Claims, error) {
	claims, err := s.jwtService.ValidateAndExtractClaims(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return auth.Identity{}, nil, apperrors.ErrTokenExpired
		}
		return auth.Identity{}, nil, apperrors.ErrTokenInvalid
	}

	revoked, err := s.tokenRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return auth.Identity{}, nil, identityUnavailable(err)
	}
	if revoked {
		return auth.Identity{}, nil, apperrors.ErrTokenRevoked
	}

	return auth.Identity{UserID: claims.UserID, Email: claims.Email}, claims, nil
}

// PurgeRevokedTokens drops revocation entries of tokens that have expired anyway
func (s *authServiceImpl) PurgeRevokedTokens(ctx context.Context) (int64, error) {
	n, err := s.tokenRepo.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Debug().Int64("count", n).Msg("Purged expired token revocations")
	}
	return n, nil
}

func identityUnavailable(err error) error {
	return apperrors.NewIdentityUnavailableError(err)
}

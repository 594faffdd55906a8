package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	appauth "github.com/yigit/schoolrecords/internal/app/auth"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/app/services"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
	"github.com/yigit/schoolrecords/internal/pkg/auth"
)

// Context keys set by the auth middleware
const (
	ContextUserID = "userID"
	ContextEmail  = "email"
	ContextClaims = "claims"
	ContextRole   = "role"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	authService services.AuthService
	authz       *appauth.AuthorizationService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(authService services.AuthService, authz *appauth.AuthorizationService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		authz:       authz,
	}
}

// tokenFrom reads the bearer token from the Authorization header. Browsers
// cannot set headers on websocket upgrades, so the token query parameter is
// accepted as well.
func tokenFrom(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return c.Query("token")
	}
	token, err := auth.ExtractBearerToken(strings.Trim(header, "\"'"))
	if err != nil {
		return ""
	}
	return token
}

// JWTAuth middleware for JWT token validation
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c)
		if token == "" {
			HandleAPIError(c, apperrors.ErrUnauthenticated)
			return
		}

		identity, claims, err := m.authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			HandleAPIError(c, err)
			return
		}

		c.Set(ContextUserID, identity.UserID)
		c.Set(ContextEmail, identity.Email)
		c.Set(ContextClaims, claims)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), identity))

		c.Next()
	}
}

// RoleRequired middleware to check if user has required role. The default
// role is created on first access.
func (m *AuthMiddleware) RoleRequired(requiredRole models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			HandleAPIError(c, apperrors.ErrUnauthenticated)
			return
		}

		role, err := m.authz.RoleOf(c.Request.Context(), identity)
		if err != nil {
			HandleAPIError(c, err)
			return
		}
		if requiredRole == models.RoleAdmin && !role.IsAdmin() {
			HandleAPIError(c, appauth.ErrNotAdmin)
			return
		}

		c.Set(ContextRole, role.Role)
		c.Next()
	}
}

// GetIdentity returns the identity set by JWTAuth
func GetIdentity(c *gin.Context) (auth.Identity, bool) {
	return auth.CurrentIdentity(c.Request.Context())
}

// GetClaims returns the token claims set by JWTAuth
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

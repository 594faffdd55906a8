package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
	"github.com/yigit/schoolrecords/internal/pkg/auth"
)

func TestEnsureRoleCreatesDefaultOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := auth.Identity{UserID: "u1", Email: "guru@sekolah.id"}

	role, err := env.svc.Users.EnsureRole(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, role.Role)
	assert.Equal(t, "guru@sekolah.id", role.Email)

	admin := adminIdentity(t, env)
	_, err = env.svc.Users.ChangeRole(ctx, admin, "u1", models.RoleAdmin)
	require.NoError(t, err)

	role, err = env.svc.Users.EnsureRole(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role.Role)

	_, err = env.svc.Users.EnsureRole(ctx, auth.Identity{})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthenticated))
}

func TestChangeRoleRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := adminIdentity(t, env)
	user := auth.Identity{UserID: "u1"}
	_, err := env.svc.Users.EnsureRole(ctx, user)
	require.NoError(t, err)

	_, err = env.svc.Users.ChangeRole(ctx, user, admin.UserID, models.RoleUser)
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))

	_, err = env.svc.Users.ChangeRole(ctx, admin, admin.UserID, models.RoleUser)
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))

	_, err = env.svc.Users.ChangeRole(ctx, admin, "u1", models.RoleType("owner"))
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))

	_, err = env.svc.Users.ChangeRole(ctx, admin, "nobody", models.RoleAdmin)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var signedIn, signedOut []string
	unsubscribe := env.svc.Sessions.OnIdentityChange(func(_ context.Context, userID string, identity *auth.Identity) {
		if identity != nil {
			signedIn = append(signedIn, identity.Email)
		} else {
			signedOut = append(signedOut, userID)
		}
	})
	defer unsubscribe()

	role, err := env.svc.Users.Register(ctx, " Guru@Sekolah.id ", "rahasia")
	require.NoError(t, err)
	assert.Equal(t, "guru@sekolah.id", role.Email)

	_, err = env.svc.Users.Register(ctx, "guru@sekolah.id", "rahasia")
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	_, err = env.svc.Users.Register(ctx, "not-an-email", "123")
	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"email", "password"}, verr.FieldNames())

	_, err = env.svc.Auth.Login(ctx, "guru@sekolah.id", "salah")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))
	_, err = env.svc.Auth.Login(ctx, "nobody@sekolah.id", "rahasia")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))

	result, err := env.svc.Auth.Login(ctx, "GURU@sekolah.id", "rahasia")
	require.NoError(t, err)
	assert.Equal(t, role.UserID, result.Identity.UserID)
	assert.Equal(t, models.RoleUser, result.Role.Role)

	identity, claims, err := env.svc.Auth.Authenticate(ctx, result.Token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.Identity, identity)

	require.NoError(t, env.svc.Auth.Logout(ctx, claims))
	_, _, err = env.svc.Auth.Authenticate(ctx, result.Token.AccessToken)
	assert.True(t, errors.Is(err, apperrors.ErrTokenRevoked))

	_, _, err = env.svc.Auth.Authenticate(ctx, "garbage")
	assert.True(t, errors.Is(err, apperrors.ErrTokenInvalid))

	assert.Equal(t, []string{"guru@sekolah.id"}, signedIn)
	assert.Equal(t, []string{role.UserID}, signedOut)

	n, err := env.svc.Auth.PurgeRevokedTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

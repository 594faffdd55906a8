package seed

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/app/repositories/memory"
	"github.com/yigit/schoolrecords/internal/app/services"
	"github.com/yigit/schoolrecords/internal/pkg/auth"
	"github.com/yigit/schoolrecords/internal/pkg/changefeed"
	"github.com/yigit/schoolrecords/internal/pkg/kvstore"
)

func TestCreateDefaultDataIsIdempotent(t *testing.T) {
	auth.BcryptCost = 4
	feed := changefeed.NewMemoryFeed(zerolog.Nop())
	t.Cleanup(func() { _ = feed.Close() })
	repos := memory.NewRepositories(memory.Open())
	svc := services.NewServices(services.Deps{
		Repos:      repos,
		Feed:       feed,
		KV:         kvstore.NewMemoryStore(),
		JWT:        auth.NewJWTService(auth.JWTConfig{SecretKey: "test", AccessTokenExp: time.Hour, TokenIssuer: "test"}),
		Sessions:   auth.NewSessionManager(),
		BaseLogger: zerolog.Nop(),
	})
	defaults := Defaults{AdminEmail: "admin@sekolah.id", AdminPassword: "rahasia123", AcademicYear: "2024/2025"}
	ctx := context.Background()

	require.NoError(t, CreateDefaultData(ctx, svc, repos.UserRoles, defaults, zerolog.Nop()))
	require.NoError(t, CreateDefaultData(ctx, svc, repos.UserRoles, defaults, zerolog.Nop()))

	login, err := svc.Auth.Login(ctx, "admin@sekolah.id", "rahasia123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, login.Role.Role)

	years, err := svc.AcademicYears.List(ctx)
	require.NoError(t, err)
	require.Len(t, years, 1)
	assert.Equal(t, "2024/2025", years[0].Year)
}

func TestCreateDefaultDataSkipsEmptySettings(t *testing.T) {
	feed := changefeed.NewMemoryFeed(zerolog.Nop())
	t.Cleanup(func() { _ = feed.Close() })
	repos := memory.NewRepositories(memory.Open())
	svc := services.NewServices(services.Deps{
		Repos:      repos,
		Feed:       feed,
		KV:         kvstore.NewMemoryStore(),
		JWT:        auth.NewJWTService(auth.JWTConfig{SecretKey: "test", AccessTokenExp: time.Hour, TokenIssuer: "test"}),
		Sessions:   auth.NewSessionManager(),
		BaseLogger: zerolog.Nop(),
	})

	require.NoError(t, CreateDefaultData(context.Background(), svc, repos.UserRoles, Defaults{}, zerolog.Nop()))
	users, err := svc.Users.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/app/repositories/memory"
	"github.com/yigit/schoolrecords/internal/pkg/auth"
	"github.com/yigit/schoolrecords/internal/pkg/changefeed"
	"github.com/yigit/schoolrecords/internal/pkg/kvstore"
)

const testYear = "2024/2025"

func init() {
	auth.BcryptCost = 4
}

type testEnv struct {
	db   *memory.DB
	feed *changefeed.MemoryFeed
	kv   *kvstore.MemoryStore
	svc  *Services
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := memory.Open()
	feed := changefeed.NewMemoryFeed(zerolog.Nop())
	t.Cleanup(func() { _ = feed.Close() })
	kv := kvstore.NewMemoryStore()

	svc := NewServices(Deps{
		Repos:      memory.NewRepositories(db),
		Feed:       feed,
		KV:         kv,
		JWT:        auth.NewJWTService(auth.JWTConfig{SecretKey: "test", AccessTokenExp: time.Hour, TokenIssuer: "test"}),
		Sessions:   auth.NewSessionManager(),
		BaseLogger: zerolog.Nop(),
	})
	return &testEnv{db: db, feed: feed, kv: kv, svc: svc}
}

// stepClock makes every call return a time one second after the previous one.
func stepClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Second)
		return now
	}
}

func validProfile(name string) models.StudentProfile {
	return models.StudentProfile{
		FullName:      name,
		Gender:        "Laki-laki",
		Religion:      "Islam",
		ResidenceType: "Bersama Orang Tua",
		TransportMode: "Jalan Kaki",
		MobilePhone:   "081234567890",
		FatherName:    "Budi",
		MotherName:    "Siti",
	}
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for live value")
	}
	var zero T
	return zero
}

func adminIdentity(t *testing.T, env *testEnv) auth.Identity {
	t.Helper()
	ctx := context.Background()
	admin := auth.Identity{UserID: "admin-1", Email: "admin@sekolah.id"}
	_, err := env.svc.Users.EnsureRole(ctx, admin)
	require.NoError(t, err)
	require.NoError(t, memory.NewUserRoleRepository(env.db).UpdateRole(ctx, admin.UserID, models.RoleAdmin, time.Now()))
	return admin
}

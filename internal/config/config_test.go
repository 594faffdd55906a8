package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "file", cfg.Session.Backend)
	assert.Equal(t, 12*time.Hour, cfg.AccessTokenTTL())
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout())
	assert.False(t, cfg.UsesRedis())
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9000"
storage:
  driver: memory
changefeed:
  backend: redis
jwt:
  secret: from-file
  access_token_expiration: 30m
seed:
  academic_year: 2024/2025
`)
	t.Setenv("SERVER_PORT", "9100")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, "2024/2025", cfg.Seed.AcademicYear)
	assert.True(t, cfg.UsesRedis())
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing secret", "storage:\n  driver: memory\n"},
		{"unknown storage", "storage:\n  driver: mongo\njwt:\n  secret: s\n"},
		{"unknown session backend", "session:\n  backend: etcd\njwt:\n  secret: s\n"},
		{"bad token lifetime", "jwt:\n  secret: s\n  access_token_expiration: forever\n"},
		{"bad seed year", "jwt:\n  secret: s\nseed:\n  academic_year: \"2024\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestPostgresConnectionStringEscapesCredentials(t *testing.T) {
	cfg := &Config{}
	cfg.Database.User = "app"
	cfg.Database.Password = "p@ss/word"
	cfg.Database.Host = "db"
	cfg.Database.Port = "5432"
	cfg.Database.DBName = "schoolrecords"

	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/schoolrecords?sslmode=disable", cfg.GetPostgresConnectionString())
}

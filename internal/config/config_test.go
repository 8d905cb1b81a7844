package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "4000", cfg.Database.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, time.Hour, cfg.Storage.SignedURLTTL)
	assert.Equal(t, cfg.Auth.JWTSecret, cfg.Storage.SigningSecret)
	assert.True(t, cfg.UsesDefaultSecret())
}

func TestLoadLegacyAndPrefixedEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SDM_DATABASE_DRIVER", "postgres")
	t.Setenv("SDM_STORAGE_SIGNED_URL_TTL", "10m")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, 10*time.Minute, cfg.Storage.SignedURLTTL)
	assert.False(t, cfg.UsesDefaultSecret())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sdmcrm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9000\"\nscheduler:\n  enabled: false\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.False(t, cfg.Scheduler.Enabled)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("SDM_DATABASE_DRIVER", "oracle")
	_, err := Load("")
	assert.Error(t, err)
}

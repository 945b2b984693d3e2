package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Cache.Driver)
	assert.Equal(t, 5*time.Second, cfg.Database.PingTimeout)
	assert.Equal(t, time.Duration(0), cfg.Reconcile.Interval)
	require.Len(t, cfg.Auth.DemoUsers, 3)
	assert.Equal(t, "admin", cfg.Auth.DemoUsers[0].Role)
	assert.Equal(t, "admin@milkchain.com", cfg.Auth.DemoUsers[0].Email)
}

func TestLoad_LegacyEnvAliases(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/milk?sslmode=disable")
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost:5432/milk?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoad_PrefixedEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("cache:\n  driver: redis\nreconcile:\n  interval: 5m\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("MILKCHAIN_LOGGING_LEVEL", "debug")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, 5*time.Minute, cfg.Reconcile.Interval)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_RejectsUnknownTimezone(t *testing.T) {
	t.Setenv("MILKCHAIN_TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load(t.TempDir())
	require.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8000), cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, DatabaseDriverSQLite, cfg.Database.Driver)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, DefaultPageSize, cfg.Catalog.PageSize)
	assert.Equal(t, AuthModeLocal, cfg.Auth.Mode)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionLifetime)
	assert.Equal(t, "0 8 * * *", cfg.Overdue.Schedule)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Empty(t, cfg.Cache.RedisURL)
	assert.False(t, cfg.Demo.Enabled)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AUTH_MODE", "none")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "host=localhost dbname=library")
	t.Setenv("DEMO_MODE", "true")

	cfg := NewConfig()

	assert.Equal(t, int32(9090), cfg.HTTP.Port)
	assert.Equal(t, AuthModeNone, cfg.Auth.Mode)
	assert.Equal(t, 25, cfg.Catalog.PageSize)
	assert.Equal(t, DatabaseDriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "host=localhost dbname=library", cfg.Database.DSN)
	assert.True(t, cfg.Demo.Enabled)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	assert.NoError(t, os.WriteFile(path, []byte("LIBRARY_DOTENV_PROBE=loaded\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("LIBRARY_DOTENV_PROBE") })

	loadDotEnv(path)

	assert.Equal(t, "loaded", os.Getenv("LIBRARY_DOTENV_PROBE"))
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	loadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
}

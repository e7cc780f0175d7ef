package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
stores:
  - id: vironax
    platform_tag: salla
    default_aov: 280
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 60, cfg.Server.RequestTimeoutSeconds)
	assert.Equal(t, 30, cfg.Sync.WindowDays)
	assert.Equal(t, 500, cfg.Sync.BatchSize)
	assert.Equal(t, 5, cfg.Sync.WriterQueueBatches)
	assert.Equal(t, 28, cfg.Budget.PriorWindowDays)
	assert.Equal(t, float64(20), cfg.Budget.PriorSampleSize)
	assert.Equal(t, 4, cfg.Budget.TestDays)

	// Store defaults fill in currency and timezone.
	require.Len(t, cfg.Stores, 1)
	assert.Equal(t, "SAR", cfg.Stores[0].Currency)
	assert.Equal(t, "Asia/Riyadh", cfg.Stores[0].Timezone)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://local/dev
`)

	t.Setenv("DATABASE_URL", "postgres://prod/facts")
	t.Setenv("REDIS_ADDR", "redis-prod:6379")
	t.Setenv("SERVER_PORT", "8181")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://prod/facts", cfg.Database.URL)
	assert.Equal(t, "redis-prod:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 8181, cfg.Server.Port)
}

func TestStoreByID(t *testing.T) {
	path := writeConfig(t, `
stores:
  - id: vironax
    platform_tag: salla
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	s, err := cfg.StoreByID("vironax")
	require.NoError(t, err)
	assert.Equal(t, "vironax", s.ID)

	_, err = cfg.StoreByID("ghost")
	assert.ErrorContains(t, err, "unknown store")
}

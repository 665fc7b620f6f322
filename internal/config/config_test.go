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
	t.Setenv("DATABASE_TYPE", "SQLite")
	t.Setenv("CACHE_TTL", "0s")

	cfg := Load()

	assert.Equal(t, "roomledger", cfg.AppName)
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, int64(1), cfg.NodeID)
	assert.Equal(t, time.Duration(0), cfg.CacheTTL)
	assert.Equal(t, 100, cfg.Inventory.InitBatchSize)
	assert.Equal(t, 731, cfg.Inventory.MaxInitDays)
	assert.Equal(t, 3, cfg.Inventory.MaxRetries)
	assert.Equal(t, 365, cfg.Inventory.MaxStayNights)
	assert.True(t, cfg.AuthzEnabled)
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("INVENTORY_INIT_BATCH_SIZE", "25")
	t.Setenv("INVENTORY_INIT_LOCK_TTL", "90s")
	t.Setenv("REDIS_ADDR", " localhost:6379 ")

	cfg := Load()

	assert.Equal(t, 25, cfg.Inventory.InitBatchSize)
	assert.Equal(t, 90*time.Second, cfg.Inventory.InitLockTTL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestStayNightsLimitFallsBackToDefault(t *testing.T) {
	assert.Equal(t, DefaultMaxStayNights, InventoryConfig{}.StayNightsLimit())
	assert.Equal(t, 30, InventoryConfig{MaxStayNights: 30}.StayNightsLimit())
}

func TestRuntimeHolderReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.yml")
	require.NoError(t, os.WriteFile(path, []byte("runtime:\n  logLevel: debug\n"), 0o600))

	holder, err := NewRuntimeHolder(Config{RuntimeConfig: path})
	require.NoError(t, err)
	assert.Equal(t, "debug", holder.Get().LogLevel)
}

func TestRuntimeHolderRejectsInvalidLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.yml")
	require.NoError(t, os.WriteFile(path, []byte("runtime:\n  logLevel: loud\n"), 0o600))

	_, err := NewRuntimeHolder(Config{RuntimeConfig: path})
	assert.Error(t, err)
}

func TestRuntimeHolderNotifiesListeners(t *testing.T) {
	holder := NewStaticRuntimeHolder(DefaultRuntimeConfig())

	var seen []string
	holder.OnChange(func(rc RuntimeConfig) { seen = append(seen, rc.LogLevel) })
	holder.Set(RuntimeConfig{LogLevel: "warn"})

	assert.Equal(t, []string{"warn"}, seen)
	assert.Equal(t, "warn", holder.Get().LogLevel)
}

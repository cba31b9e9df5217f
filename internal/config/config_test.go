package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Reads values from the file", func(t *testing.T) {
		// Given: a config file selecting redis storage
		path := writeConfig(t, `
log-level: debug
http-port: "8081"
session-ttl: 30m
storage: redis
redis:
  host: cache
  port: "6380"
`)

		// When: loading it
		conf, err := Load(path)
		require.NoError(t, err)

		// Then: the file values are used and the rest falls back to defaults
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "8081", conf.HTTPPort)
		assert.Equal(t, 30*time.Minute, conf.SessionTTL)
		assert.Equal(t, StorageRedis, conf.Storage)
		assert.Equal(t, "cache:6380", conf.Redis.GetRedisAddr())
		assert.Equal(t, 5, conf.RateLimit.RPS)
		assert.Equal(t, 10, conf.RateLimit.Burst)
	})

	t.Run("Falls back to defaults without a file", func(t *testing.T) {
		// When: loading a path that does not exist
		conf, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
		require.NoError(t, err)

		// Then: defaults are applied
		assert.Equal(t, "info", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, 2*time.Hour, conf.SessionTTL)
		assert.Equal(t, StorageMemory, conf.Storage)
	})

	t.Run("Environment overrides defaults", func(t *testing.T) {
		// Given: a port set in the environment
		t.Setenv("HTTP_PORT", "7070")

		// When: loading without a file
		conf, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
		require.NoError(t, err)

		// Then: the environment wins
		assert.Equal(t, "7070", conf.HTTPPort)
	})

	t.Run("Unknown storage is rejected", func(t *testing.T) {
		// Given: a config file with an unsupported backend
		path := writeConfig(t, "storage: postgres\n")

		// When: loading it
		_, err := Load(path)

		// Then: ErrUnknownStorage is returned
		require.ErrorIs(t, err, ErrUnknownStorage)
	})

	t.Run("MustLoad panics on a broken file", func(t *testing.T) {
		// Given: a config file that is not valid yaml
		path := writeConfig(t, "storage: [")

		// Then: MustLoad panics
		assert.Panics(t, func() { MustLoad(path) })
	})
}

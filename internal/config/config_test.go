package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("requires the mongo URI", func(t *testing.T) {
		t.Setenv("MONGODB_URI", "")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("fills defaults", func(t *testing.T) {
		t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
		t.Setenv("MONGODB_DATABASE", "")
		t.Setenv("REDIS_URL", "")
		t.Setenv("ROSTER_LOCK_TTL", "")
		t.Setenv("ROSTER_LOCK_RETRIES", "")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "meeplenest", cfg.Mongo.Database)
		assert.Equal(t, 10*time.Second, cfg.Mongo.Timeout)
		assert.Empty(t, cfg.Redis.URL)
		assert.Equal(t, 5*time.Second, cfg.Redis.LockTTL)
		assert.Equal(t, 5, cfg.Redis.LockRetries)
	})

	t.Run("reads overrides", func(t *testing.T) {
		t.Setenv("MONGODB_URI", "mongodb://db.internal:27017")
		t.Setenv("MONGODB_DATABASE", "meeplenest_staging")
		t.Setenv("REDIS_URL", "redis://cache.internal:6379")
		t.Setenv("ROSTER_LOCK_TTL", "30s")
		t.Setenv("ROSTER_LOCK_RETRIES", "10")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "meeplenest_staging", cfg.Mongo.Database)
		assert.Equal(t, "redis://cache.internal:6379", cfg.Redis.URL)
		assert.Equal(t, 30*time.Second, cfg.Redis.LockTTL)
		assert.Equal(t, 10, cfg.Redis.LockRetries)
	})

	t.Run("malformed numbers fall back to defaults", func(t *testing.T) {
		t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
		t.Setenv("ROSTER_LOCK_TTL", "soon")
		t.Setenv("ROSTER_LOCK_RETRIES", "lots")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, cfg.Redis.LockTTL)
		assert.Equal(t, 5, cfg.Redis.LockRetries)
	})
}

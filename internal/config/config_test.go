package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	c, err := FromLookup(mapLookup(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, "catalog.db", c.DBPath)
	assert.Equal(t, "/tmp/catalog.sock", c.RPCSocket)
	assert.Equal(t, "bots", c.Variant)
	assert.Equal(t, "admin123", c.AdminPassword)
	assert.Empty(t, c.AdminPasswordHash)
	assert.True(t, c.StrictModeration)
	assert.Equal(t, 24*time.Hour, c.IdempotencyTTL)
}

func TestFromDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(`
CATALOG_ADDR=127.0.0.1:9000
CATALOG_VARIANT=projects
CATALOG_STRICT_MODERATION=false
CATALOG_REDIS_URL=redis://localhost:6379/0
CATALOG_IDEMPOTENCY_TTL=90m
`), 0o600))

	env, err := godotenv.Read(path)
	require.NoError(t, err)
	c, err := FromLookup(mapLookup(env))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", c.Addr)
	assert.Equal(t, "projects", c.Variant)
	assert.False(t, c.StrictModeration)
	assert.Equal(t, "redis://localhost:6379/0", c.RedisURL)
	assert.Equal(t, 90*time.Minute, c.IdempotencyTTL)
}

func TestInvalidValues(t *testing.T) {
	for key, value := range map[string]string{
		"CATALOG_VARIANT":           "plugins",
		"CATALOG_STRICT_MODERATION": "maybe",
		"CATALOG_IDEMPOTENCY_TTL":   "-1h",
		"CATALOG_DEBUG":             "loud",
	} {
		_, err := FromLookup(mapLookup(map[string]string{key: value}))
		assert.Error(t, err, key)
	}
}

func TestLoadPrefersEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CATALOG_DB_PATH=from-file.db\n"), 0o600))
	t.Setenv("CATALOG_DB_PATH", "from-env.db")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", c.DBPath)
}

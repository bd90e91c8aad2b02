package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string
	DBPath            string
	RPCSocket         string
	Variant           string
	AdminPasswordHash string
	// AdminPassword is hashed at startup when no hash is configured.
	AdminPassword    string
	RedisURL         string
	StrictModeration bool
	IdempotencyTTL   time.Duration
	Debug            bool
}

// Load reads .env style files (missing files are ignored) and then the
// process environment. Values already in the environment win.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)
	return FromLookup(os.LookupEnv)
}

func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return fallback
	}

	c := &Config{
		Addr:              get("CATALOG_ADDR", ":8080"),
		DBPath:            get("CATALOG_DB_PATH", "catalog.db"),
		RPCSocket:         get("CATALOG_RPC_SOCKET", "/tmp/catalog.sock"),
		Variant:           get("CATALOG_VARIANT", "bots"),
		AdminPasswordHash: get("CATALOG_ADMIN_PASSWORD_HASH", ""),
		AdminPassword:     get("CATALOG_ADMIN_PASSWORD", "admin123"),
		RedisURL:          get("CATALOG_REDIS_URL", ""),
	}

	var err error
	if c.StrictModeration, err = strconv.ParseBool(get("CATALOG_STRICT_MODERATION", "true")); err != nil {
		return nil, fmt.Errorf("CATALOG_STRICT_MODERATION: %w", err)
	}
	if c.Debug, err = strconv.ParseBool(get("CATALOG_DEBUG", "false")); err != nil {
		return nil, fmt.Errorf("CATALOG_DEBUG: %w", err)
	}
	if c.IdempotencyTTL, err = time.ParseDuration(get("CATALOG_IDEMPOTENCY_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("CATALOG_IDEMPOTENCY_TTL: %w", err)
	}
	if c.IdempotencyTTL <= 0 {
		return nil, fmt.Errorf("CATALOG_IDEMPOTENCY_TTL must be positive")
	}
	if c.Variant != "bots" && c.Variant != "projects" {
		return nil, fmt.Errorf("CATALOG_VARIANT must be bots or projects, got %q", c.Variant)
	}
	return c, nil
}

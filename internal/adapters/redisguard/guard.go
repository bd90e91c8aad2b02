package redisguard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "catalog:idem:"

// Guard claims idempotency keys with SETNX so that several server processes
// share one retention window.
type Guard struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(opts *redis.Options, ttl time.Duration) *Guard {
	return &Guard{rdb: redis.NewClient(opts), ttl: ttl}
}

// Open parses a redis:// URL and verifies connectivity.
func Open(ctx context.Context, url string, ttl time.Duration) (*Guard, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	g := New(opts, ttl)
	if err := g.Ping(ctx); err != nil {
		_ = g.Close()
		return nil, fmt.Errorf("redis not reachable: %w", err)
	}
	return g, nil
}

func (g *Guard) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, keyPrefix+key, 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", key, err)
	}
	return ok, nil
}

func (g *Guard) Ping(ctx context.Context) error {
	return g.rdb.Ping(ctx).Err()
}

func (g *Guard) Close() error {
	return g.rdb.Close()
}

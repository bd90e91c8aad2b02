package application

import (
	"context"
	"sync"
	"time"
)

const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyGuard claims caller supplied keys. Claim returns true the first
// time a key is seen within the guard's retention window.
type IdempotencyGuard interface {
	Claim(ctx context.Context, key string) (bool, error)
}

type MemoryGuard struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &MemoryGuard{ttl: ttl, seen: map[string]time.Time{}, now: time.Now}
}

func (g *MemoryGuard) Claim(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for k, expires := range g.seen {
		if !now.Before(expires) {
			delete(g.seen, k)
		}
	}
	if _, ok := g.seen[key]; ok {
		return false, nil
	}
	g.seen[key] = now.Add(g.ttl)
	return true, nil
}

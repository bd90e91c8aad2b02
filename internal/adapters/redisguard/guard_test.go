package redisguard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atvirokodosprendimai/catalog/internal/application"
)

var _ application.IdempotencyGuard = (*Guard)(nil)

func TestGuardClaim(t *testing.T) {
	mr := miniredis.RunT(t)
	guard := New(&redis.Options{Addr: mr.Addr()}, time.Minute)
	defer guard.Close()
	ctx := context.Background()

	ok, err := guard.Claim(ctx, "like:1:abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = guard.Claim(ctx, "like:1:abc")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, mr.Exists(keyPrefix+"like:1:abc"))
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"like:1:abc"))

	mr.FastForward(time.Minute)
	ok, err = guard.Claim(ctx, "like:1:abc")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	guard, err := Open(ctx, "redis://"+mr.Addr(), time.Hour)
	require.NoError(t, err)
	require.NoError(t, guard.Close())

	_, err = Open(ctx, "not a url", time.Hour)
	require.Error(t, err)

	mr.Close()
	_, err = Open(ctx, "redis://"+mr.Addr(), time.Hour)
	require.Error(t, err)
}

func TestGuardSharedAcrossClients(t *testing.T) {
	mr := miniredis.RunT(t)
	guard := New(&redis.Options{Addr: mr.Addr()}, time.Minute)
	defer guard.Close()

	other := New(&redis.Options{Addr: mr.Addr()}, time.Minute)
	defer other.Close()

	ctx := context.Background()
	ok, err := guard.Claim(ctx, "download:2:k")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = other.Claim(ctx, "download:2:k")
	require.NoError(t, err)
	assert.False(t, ok)
}

package idempotency_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/idempotency"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := idempotency.NewMemory(time.Hour, func() time.Time { return now })

	require.NoError(t, g.Claim(ctx, "cart-1"))
	assert.ErrorIs(t, g.Claim(ctx, "cart-1"), errs.ErrIdempotencyConflict)
	require.NoError(t, g.Claim(ctx, "cart-2"))

	require.NoError(t, g.Release(ctx, "cart-1"))
	require.NoError(t, g.Claim(ctx, "cart-1"))

	now = now.Add(2 * time.Hour)
	require.NoError(t, g.Claim(ctx, "cart-2"), "expired claims can be taken again")
}

// fakeRedis records SETNX keys in a map.
type fakeRedis struct {
	keys map[string]time.Duration
	err  error
}

func (f *fakeRedis) SetNX(_ context.Context, key string, _ interface{}, ttl time.Duration) *redis.BoolCmd {
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			delete(f.keys, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedis(t *testing.T) {
	ctx := context.Background()
	f := &fakeRedis{keys: map[string]time.Duration{}}
	g := idempotency.NewRedis(f)

	require.NoError(t, g.Claim(ctx, "cart-1"))
	assert.Equal(t, idempotency.DefaultTTL, f.keys["idempotent-key:cart-1"])
	assert.ErrorIs(t, g.Claim(ctx, "cart-1"), errs.ErrIdempotencyConflict)

	require.NoError(t, g.Release(ctx, "cart-1"))
	require.NoError(t, g.Claim(ctx, "cart-1"))
}

func TestRedisErrorsAreWrapped(t *testing.T) {
	boom := errors.New("connection refused")
	g := idempotency.NewRedis(&fakeRedis{keys: map[string]time.Duration{}, err: boom},
		idempotency.WithPrefix("mercato:"), idempotency.WithTTL(time.Minute))

	err := g.Claim(context.Background(), "cart-1")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, errs.ErrIdempotencyConflict)
}

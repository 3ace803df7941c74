package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/xraph/mercato/errs"
)

// Cmdable is the subset of a go-redis client the guard needs.
// *redis.Client and *redis.ClusterClient satisfy it.
type Cmdable interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis is a Guard shared by every process using the same Redis.
type Redis struct {
	rdb    Cmdable
	ttl    time.Duration
	prefix string
}

var _ Guard = (*Redis)(nil)

// RedisOption configures a Redis guard.
type RedisOption func(*Redis)

// WithTTL sets how long claims last.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// WithPrefix sets the key prefix. Defaults to "idempotent-key:".
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// NewRedis creates a guard backed by rdb.
func NewRedis(rdb Cmdable, opts ...RedisOption) *Redis {
	r := &Redis{rdb: rdb, ttl: DefaultTTL, prefix: "idempotent-key:"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Claim implements Guard with SETNX.
func (r *Redis) Claim(ctx context.Context, key string) error {
	ok, err := r.rdb.SetNX(ctx, r.prefix+key, "exists", r.ttl).Result()
	if err != nil {
		return fmt.Errorf("idempotency/redis: claim %q: %w", key, err)
	}
	if !ok {
		return errs.ErrIdempotencyConflict
	}
	return nil
}

// Release implements Guard.
func (r *Redis) Release(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.prefix+key).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("idempotency/redis: release %q: %w", key, err)
	}
	return nil
}

// Package idempotency guards purchases against being submitted twice under
// the same client key.
package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/types"
)

// DefaultTTL is how long a claimed key blocks resubmission.
const DefaultTTL = 24 * time.Hour

// Guard claims keys. Claim fails with errs.ErrIdempotencyConflict when the
// key is already held. Release frees a key so a failed operation can be
// retried.
type Guard interface {
	Claim(ctx context.Context, key string) error
	Release(ctx context.Context, key string) error
}

// Memory is an in-process Guard.
type Memory struct {
	mu    sync.Mutex
	ttl   time.Duration
	clock types.Clock
	keys  map[string]time.Time
}

var _ Guard = (*Memory)(nil)

// NewMemory creates a guard whose claims expire after ttl.
func NewMemory(ttl time.Duration, clock types.Clock) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = types.SystemClock
	}
	return &Memory{ttl: ttl, clock: clock, keys: make(map[string]time.Time)}
}

// Claim implements Guard.
func (m *Memory) Claim(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	if exp, ok := m.keys[key]; ok && now.Before(exp) {
		return errs.ErrIdempotencyConflict
	}
	m.keys[key] = now.Add(m.ttl)
	return nil
}

// Release implements Guard.
func (m *Memory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

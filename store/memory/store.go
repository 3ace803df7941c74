// Package memory is an in-process store.Store for tests and single-process
// deployments that accept losing state on exit.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/mercato/checkpoint"
	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	// Journal, ordered by sequence
	events []event.Record

	// Checkpoints, in save order
	checkpoints []checkpoint.Checkpoint
}

func New() *Store {
	return &Store{
		events:      make([]event.Record, 0),
		checkpoints: make([]checkpoint.Checkpoint, 0),
	}
}

// Journal implementation
func (s *Store) AppendEvents(_ context.Context, records []*event.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		cp := *r
		cp.Payload = append([]byte(nil), r.Payload...)
		s.events = append(s.events, cp)
	}
	sort.SliceStable(s.events, func(i, j int) bool { return s.events[i].Seq < s.events[j].Seq })
	return nil
}

func (s *Store) ListEvents(_ context.Context, opts event.ListOpts) ([]*event.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*event.Record, 0)
	for i := range s.events {
		r := s.events[i]
		if r.Seq <= opts.AfterSeq {
			continue
		}
		if opts.Type != "" && r.Type != opts.Type {
			continue
		}
		result = append(result, &r)
	}

	// Apply limit/offset
	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

func (s *Store) PurgeEvents(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	kept := make([]event.Record, 0, len(s.events))
	for _, r := range s.events {
		if r.OccurredAt.Before(before) {
			count++
		} else {
			kept = append(kept, r)
		}
	}
	s.events = kept
	return count, nil
}

// Checkpoint implementation
func (s *Store) SaveCheckpoint(_ context.Context, cp *checkpoint.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkpoints = append(s.checkpoints, *cp)
	return nil
}

func (s *Store) LatestCheckpoint(_ context.Context) (*checkpoint.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.checkpoints) == 0 {
		return nil, errs.ErrNoCheckpoint
	}
	latest := s.checkpoints[0]
	for _, cp := range s.checkpoints[1:] {
		if cp.Seq >= latest.Seq {
			latest = cp
		}
	}
	return &latest, nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}

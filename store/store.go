// Package store defines the persistence contract of a Market: the event
// journal and full-state checkpoints.
package store

import (
	"context"
	"time"

	"github.com/xraph/mercato/checkpoint"
	"github.com/xraph/mercato/event"
)

// Store is the unified storage interface of a Market. Methods are declared
// explicitly rather than by embedding event.Store and checkpoint.Store.
type Store interface {
	// Journal methods
	AppendEvents(ctx context.Context, records []*event.Record) error
	ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Record, error)
	PurgeEvents(ctx context.Context, before time.Time) (int64, error)

	// Checkpoint methods
	SaveCheckpoint(ctx context.Context, cp *checkpoint.Checkpoint) error
	LatestCheckpoint(ctx context.Context) (*checkpoint.Checkpoint, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

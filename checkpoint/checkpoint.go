// Package checkpoint defines the full-state snapshot the market persists
// periodically and restores on start.
package checkpoint

import (
	"context"
	"time"

	"github.com/xraph/mercato/collection"
	"github.com/xraph/mercato/composite"
	"github.com/xraph/mercato/constituent"
	"github.com/xraph/mercato/escrow"
	"github.com/xraph/mercato/id"
	"github.com/xraph/mercato/order"
	"github.com/xraph/mercato/pool"
)

// State is the state of every ledger at one point in the journal.
type State struct {
	Constituents constituent.State `json:"constituents"`
	Composites   composite.State   `json:"composites"`
	Escrow       escrow.State      `json:"escrow"`
	Collections  collection.State  `json:"collections"`
	Pool         pool.State        `json:"pool"`
	Orders       order.State       `json:"orders"`
}

// Checkpoint is a State tagged with the last journal sequence it includes.
type Checkpoint struct {
	ID        id.CheckpointID `json:"id"`
	Seq       uint64          `json:"seq"`
	State     State           `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store persists checkpoints. LatestCheckpoint returns
// errs.ErrNoCheckpoint when none has been saved.
type Store interface {
	SaveCheckpoint(ctx context.Context, cp *Checkpoint) error
	LatestCheckpoint(ctx context.Context) (*Checkpoint, error)
}

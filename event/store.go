package event

import (
	"context"
	"time"
)

// ListOpts filters journal queries.
type ListOpts struct {
	AfterSeq uint64
	Type     Type
	Limit    int
	Offset   int
}

// Store persists journal records in sequence order.
type Store interface {
	AppendEvents(ctx context.Context, records []*Record) error
	ListEvents(ctx context.Context, opts ListOpts) ([]*Record, error)
	PurgeEvents(ctx context.Context, before time.Time) (int64, error)
}

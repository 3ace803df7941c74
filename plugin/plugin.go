// Package plugin provides an extensible plugin system for mercato.
// Plugins can hook into lifecycle and journal events to extend functionality.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/mercato/event"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the market starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, m interface{}) error
}

// OnShutdown is called when the market stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Journal hooks
// ──────────────────────────────────────────────────

// OnEvent is called for every committed event, after its typed hook.
type OnEvent interface {
	Plugin
	OnEvent(ctx context.Context, rec *event.Record) error
}

// OnJournalFlushed is called after a batch of records is written to the
// store.
type OnJournalFlushed interface {
	Plugin
	OnJournalFlushed(ctx context.Context, count int, elapsed time.Duration) error
}

// OnCheckpointSaved is called after a checkpoint is written.
type OnCheckpointSaved interface {
	Plugin
	OnCheckpointSaved(ctx context.Context, seq uint64, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// Escrow hooks
// ──────────────────────────────────────────────────

// OnCompositeCreated is called when a composite and its constituents are
// minted into escrow.
type OnCompositeCreated interface {
	Plugin
	OnCompositeCreated(ctx context.Context, e event.CompositeCreated) error
}

// OnCompositeReleased is called when a composite leaves escrow.
type OnCompositeReleased interface {
	Plugin
	OnCompositeReleased(ctx context.Context, e event.CompositeReleased) error
}

// OnConstituentsReleased is called when constituents leave escrow.
type OnConstituentsReleased interface {
	Plugin
	OnConstituentsReleased(ctx context.Context, e event.ConstituentsReleased) error
}

// ──────────────────────────────────────────────────
// Collection hooks
// ──────────────────────────────────────────────────

// OnCollectionCreated is called when a collection is created.
type OnCollectionCreated interface {
	Plugin
	OnCollectionCreated(ctx context.Context, e event.CollectionCreated) error
}

// OnCollectionChanged is called when a collection is extended, updated or
// deleted. e is one of event.CollectionExtended, event.CollectionUpdated
// and event.CollectionDeleted.
type OnCollectionChanged interface {
	Plugin
	OnCollectionChanged(ctx context.Context, e event.Event) error
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnTokensBought is called when a cart settles.
type OnTokensBought interface {
	Plugin
	OnTokensBought(ctx context.Context, e event.TokensBought) error
}

// OnItemsBurned is called when an owner burns collection or pool items.
type OnItemsBurned interface {
	Plugin
	OnItemsBurned(ctx context.Context, e event.ItemsBurned) error
}

// OnOrderUpdated is called when an order's status, fulfilled flag or
// details change. e is one of event.OrderStatusUpdated,
// event.OrderFulfillerUpdated and event.OrderDetailsUpdated.
type OnOrderUpdated interface {
	Plugin
	OnOrderUpdated(ctx context.Context, e event.Event) error
}

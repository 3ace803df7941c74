// Package observability provides a metrics extension for mercato that records
// escrow, catalog and settlement counts through a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnCompositeCreated     = (*MetricsExtension)(nil)
	_ plugin.OnCompositeReleased    = (*MetricsExtension)(nil)
	_ plugin.OnConstituentsReleased = (*MetricsExtension)(nil)
	_ plugin.OnCollectionCreated    = (*MetricsExtension)(nil)
	_ plugin.OnCollectionChanged    = (*MetricsExtension)(nil)
	_ plugin.OnTokensBought         = (*MetricsExtension)(nil)
	_ plugin.OnItemsBurned          = (*MetricsExtension)(nil)
	_ plugin.OnOrderUpdated         = (*MetricsExtension)(nil)
	_ plugin.OnJournalFlushed       = (*MetricsExtension)(nil)
	_ plugin.OnCheckpointSaved      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records market-wide lifecycle metrics.
// Register it as a mercato plugin to track escrow and settlement activity.
type MetricsExtension struct {
	factory MetricFactory

	// Escrow metrics
	CompositesCreated    Counter
	ConstituentsMinted   Counter
	CompositesReleased   Counter
	ConstituentsReleased Counter

	// Catalog metrics
	CollectionsCreated  Counter
	CollectionsExtended Counter
	CollectionsUpdated  Counter
	CollectionsDeleted  Counter
	ItemsBurned         Counter

	// Settlement metrics
	Purchases     Counter
	PurchaseLines Counter
	ItemsSold     Counter
	CartSize      Histogram

	// Order metrics
	OrderStatusUpdates Counter
	OrdersFulfilled    Counter
	OrderDetailUpdates Counter

	// Durability metrics
	JournalRecords      Counter
	JournalFlushLatency Histogram
	Checkpoints         Counter
	CheckpointLatency   Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use NewOTelFactory to back it with an OpenTelemetry meter.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		CompositesCreated:    factory.Counter("mercato.composite.created"),
		ConstituentsMinted:   factory.Counter("mercato.constituent.minted"),
		CompositesReleased:   factory.Counter("mercato.composite.released"),
		ConstituentsReleased: factory.Counter("mercato.constituent.released"),

		CollectionsCreated:  factory.Counter("mercato.collection.created"),
		CollectionsExtended: factory.Counter("mercato.collection.extended"),
		CollectionsUpdated:  factory.Counter("mercato.collection.updated"),
		CollectionsDeleted:  factory.Counter("mercato.collection.deleted"),
		ItemsBurned:         factory.Counter("mercato.items.burned"),

		Purchases:     factory.Counter("mercato.purchase.settled"),
		PurchaseLines: factory.Counter("mercato.purchase.lines"),
		ItemsSold:     factory.Counter("mercato.purchase.items"),
		CartSize:      factory.Histogram("mercato.purchase.cart_size"),

		OrderStatusUpdates: factory.Counter("mercato.order.status_updated"),
		OrdersFulfilled:    factory.Counter("mercato.order.fulfilled"),
		OrderDetailUpdates: factory.Counter("mercato.order.details_updated"),

		JournalRecords:      factory.Counter("mercato.journal.records"),
		JournalFlushLatency: factory.Histogram("mercato.journal.flush.latency_ms"),
		Checkpoints:         factory.Counter("mercato.checkpoint.saved"),
		CheckpointLatency:   factory.Histogram("mercato.checkpoint.latency_ms"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Escrow hooks
// ──────────────────────────────────────────────────

// OnCompositeCreated implements plugin.OnCompositeCreated.
func (m *MetricsExtension) OnCompositeCreated(_ context.Context, e event.CompositeCreated) error {
	m.CompositesCreated.Inc()
	m.ConstituentsMinted.Add(float64(len(e.ConstituentIDs)))
	return nil
}

// OnCompositeReleased implements plugin.OnCompositeReleased.
func (m *MetricsExtension) OnCompositeReleased(_ context.Context, _ event.CompositeReleased) error {
	m.CompositesReleased.Inc()
	return nil
}

// OnConstituentsReleased implements plugin.OnConstituentsReleased.
func (m *MetricsExtension) OnConstituentsReleased(_ context.Context, e event.ConstituentsReleased) error {
	m.ConstituentsReleased.Add(float64(len(e.ConstituentIDs)))
	return nil
}

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// OnCollectionCreated implements plugin.OnCollectionCreated.
func (m *MetricsExtension) OnCollectionCreated(_ context.Context, _ event.CollectionCreated) error {
	m.CollectionsCreated.Inc()
	return nil
}

// OnCollectionChanged implements plugin.OnCollectionChanged.
func (m *MetricsExtension) OnCollectionChanged(_ context.Context, e event.Event) error {
	switch e.(type) {
	case event.CollectionExtended:
		m.CollectionsExtended.Inc()
	case event.CollectionUpdated:
		m.CollectionsUpdated.Inc()
	case event.CollectionDeleted:
		m.CollectionsDeleted.Inc()
	}
	return nil
}

// OnItemsBurned implements plugin.OnItemsBurned.
func (m *MetricsExtension) OnItemsBurned(_ context.Context, e event.ItemsBurned) error {
	m.ItemsBurned.Add(float64(len(e.IDs)))
	return nil
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnTokensBought implements plugin.OnTokensBought.
func (m *MetricsExtension) OnTokensBought(_ context.Context, e event.TokensBought) error {
	var items uint64
	for _, l := range e.Lines {
		items += l.Amount
	}
	m.Purchases.Inc()
	m.PurchaseLines.Add(float64(len(e.Lines)))
	m.ItemsSold.Add(float64(items))
	m.CartSize.Observe(float64(len(e.Lines)))
	return nil
}

// OnOrderUpdated implements plugin.OnOrderUpdated.
func (m *MetricsExtension) OnOrderUpdated(_ context.Context, e event.Event) error {
	switch o := e.(type) {
	case event.OrderStatusUpdated:
		m.OrderStatusUpdates.Inc()
	case event.OrderFulfillerUpdated:
		if o.Fulfilled {
			m.OrdersFulfilled.Inc()
		}
	case event.OrderDetailsUpdated:
		m.OrderDetailUpdates.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Durability hooks
// ──────────────────────────────────────────────────

// OnJournalFlushed implements plugin.OnJournalFlushed.
func (m *MetricsExtension) OnJournalFlushed(_ context.Context, count int, elapsed time.Duration) error {
	m.JournalRecords.Add(float64(count))
	m.JournalFlushLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// OnCheckpointSaved implements plugin.OnCheckpointSaved.
func (m *MetricsExtension) OnCheckpointSaved(_ context.Context, _ uint64, elapsed time.Duration) error {
	m.Checkpoints.Inc()
	m.CheckpointLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

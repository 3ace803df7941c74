// Package audithook bridges mercato events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import an
// audit backend directly. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnCompositeCreated     = (*Extension)(nil)
	_ plugin.OnCompositeReleased    = (*Extension)(nil)
	_ plugin.OnConstituentsReleased = (*Extension)(nil)
	_ plugin.OnCollectionCreated    = (*Extension)(nil)
	_ plugin.OnCollectionChanged    = (*Extension)(nil)
	_ plugin.OnTokensBought         = (*Extension)(nil)
	_ plugin.OnItemsBurned          = (*Extension)(nil)
	_ plugin.OnOrderUpdated         = (*Extension)(nil)
	_ plugin.OnCheckpointSaved      = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges mercato events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Escrow hooks
// ──────────────────────────────────────────────────

// OnCompositeCreated implements plugin.OnCompositeCreated.
func (e *Extension) OnCompositeCreated(ctx context.Context, ev event.CompositeCreated) error {
	return e.record(ctx, ActionCompositeCreated, SeverityInfo, OutcomeSuccess,
		ResourceComposite, id(ev.CompositeID), CategoryEscrow, nil,
		"uri", ev.URI,
		"constituent_ids", ev.ConstituentIDs,
	)
}

// OnCompositeReleased implements plugin.OnCompositeReleased.
func (e *Extension) OnCompositeReleased(ctx context.Context, ev event.CompositeReleased) error {
	return e.record(ctx, ActionCompositeReleased, SeverityInfo, OutcomeSuccess,
		ResourceComposite, id(ev.CompositeID), CategoryEscrow, nil,
	)
}

// OnConstituentsReleased implements plugin.OnConstituentsReleased.
func (e *Extension) OnConstituentsReleased(ctx context.Context, ev event.ConstituentsReleased) error {
	return e.record(ctx, ActionConstituentsReleased, SeverityInfo, OutcomeSuccess,
		ResourceConstituent, "", CategoryEscrow, nil,
		"constituent_ids", ev.ConstituentIDs,
	)
}

// ──────────────────────────────────────────────────
// Collection hooks
// ──────────────────────────────────────────────────

// OnCollectionCreated implements plugin.OnCollectionCreated.
func (e *Extension) OnCollectionCreated(ctx context.Context, ev event.CollectionCreated) error {
	return e.record(ctx, ActionCollectionCreated, SeverityInfo, OutcomeSuccess,
		ResourceCollection, id(ev.CollectionID), CategoryCatalog, nil,
		"creator", ev.Creator.String(),
		"cap", ev.Cap,
		"no_cap", ev.NoCap,
	)
}

// OnCollectionChanged implements plugin.OnCollectionChanged.
func (e *Extension) OnCollectionChanged(ctx context.Context, ev event.Event) error {
	switch c := ev.(type) {
	case event.CollectionExtended:
		return e.record(ctx, ActionCollectionExtended, SeverityInfo, OutcomeSuccess,
			ResourceCollection, id(c.CollectionID), CategoryCatalog, nil,
			"creator", c.Creator.String(),
			"added", c.Added,
		)
	case event.CollectionUpdated:
		return e.record(ctx, ActionCollectionUpdated, SeverityInfo, OutcomeSuccess,
			ResourceCollection, id(c.CollectionID), CategoryCatalog, nil,
			"creator", c.Creator.String(),
			"price", c.Price.String(),
		)
	case event.CollectionDeleted:
		return e.record(ctx, ActionCollectionDeleted, SeverityWarning, OutcomeSuccess,
			ResourceCollection, id(c.CollectionID), CategoryCatalog, nil,
			"creator", c.Creator.String(),
		)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnTokensBought implements plugin.OnTokensBought.
func (e *Extension) OnTokensBought(ctx context.Context, ev event.TokensBought) error {
	return e.record(ctx, ActionTokensBought, SeverityInfo, OutcomeSuccess,
		ResourcePurchase, ev.PurchaseID, CategoryPayment, nil,
		"buyer", ev.Buyer.String(),
		"token", ev.Token.String(),
		"total", ev.Total.String(),
		"lines", len(ev.Lines),
	)
}

// OnItemsBurned implements plugin.OnItemsBurned.
func (e *Extension) OnItemsBurned(ctx context.Context, ev event.ItemsBurned) error {
	return e.record(ctx, ActionItemsBurned, SeverityInfo, OutcomeSuccess,
		ResourceItem, "", CategoryCatalog, nil,
		"kind", string(ev.Kind),
		"ids", ev.IDs,
		"owner", ev.Owner.String(),
	)
}

// OnOrderUpdated implements plugin.OnOrderUpdated.
func (e *Extension) OnOrderUpdated(ctx context.Context, ev event.Event) error {
	switch o := ev.(type) {
	case event.OrderStatusUpdated:
		return e.record(ctx, ActionOrderStatusUpdated, SeverityInfo, OutcomeSuccess,
			ResourceOrder, id(o.OrderID), CategoryFulfillment, nil,
			"status", o.Status,
		)
	case event.OrderFulfillerUpdated:
		return e.record(ctx, ActionOrderFulfillerUpdated, SeverityInfo, OutcomeSuccess,
			ResourceOrder, id(o.OrderID), CategoryFulfillment, nil,
			"fulfilled", o.Fulfilled,
		)
	case event.OrderDetailsUpdated:
		// Details are buyer-supplied delivery data; keep them out of the trail.
		return e.record(ctx, ActionOrderDetailsUpdated, SeverityInfo, OutcomeSuccess,
			ResourceOrder, id(o.OrderID), CategoryFulfillment, nil,
		)
	}
	return nil
}

// OnCheckpointSaved implements plugin.OnCheckpointSaved.
func (e *Extension) OnCheckpointSaved(ctx context.Context, seq uint64, elapsed time.Duration) error {
	return e.record(ctx, ActionCheckpointSaved, SeverityInfo, OutcomeSuccess,
		ResourceCheckpoint, id(seq), CategoryDurability, nil,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func id(n uint64) string { return strconv.FormatUint(n, 10) }

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}

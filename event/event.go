// Package event defines the events every committed mercato operation emits,
// the journal record they are persisted as, and the journal store contract.
package event

import "github.com/xraph/mercato/types"

// Type names an event kind.
type Type string

const (
	TypeCompositeCreated      Type = "composite.created"
	TypeCompositeReleased     Type = "composite.released"
	TypeConstituentsReleased  Type = "constituents.released"
	TypeCollectionCreated     Type = "collection.created"
	TypeCollectionExtended    Type = "collection.extended"
	TypeCollectionUpdated     Type = "collection.updated"
	TypeCollectionDeleted     Type = "collection.deleted"
	TypeItemsBurned           Type = "items.burned"
	TypeTokensBought          Type = "tokens.bought"
	TypeOrderStatusUpdated    Type = "order.status_updated"
	TypeOrderFulfillerUpdated Type = "order.fulfiller_updated"
	TypeOrderDetailsUpdated   Type = "order.details_updated"
)

// Event is implemented by every event payload.
type Event interface {
	EventType() Type
}

// Sink receives events from a component after the change that caused them
// has been applied.
type Sink interface {
	Emit(e Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(e Event)

// Emit implements Sink.
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

type CompositeCreated struct {
	CompositeID     uint64   `json:"composite_id"`
	URI             string   `json:"uri"`
	ConstituentIDs  []uint64 `json:"constituent_ids"`
	ConstituentURIs []string `json:"constituent_uris"`
}

type CompositeReleased struct {
	CompositeID uint64 `json:"composite_id"`
}

type ConstituentsReleased struct {
	ConstituentIDs []uint64 `json:"constituent_ids"`
}

type CollectionCreated struct {
	CollectionID uint64        `json:"collection_id"`
	URI          string        `json:"uri"`
	Cap          uint64        `json:"cap"`
	NoCap        bool          `json:"no_cap"`
	Creator      types.Address `json:"creator"`
}

type CollectionExtended struct {
	CollectionID uint64        `json:"collection_id"`
	Added        uint64        `json:"added_amount"`
	Creator      types.Address `json:"creator"`
}

type CollectionUpdated struct {
	CollectionID uint64        `json:"collection_id"`
	URI          string        `json:"uri"`
	Price        types.Amount  `json:"price"`
	Creator      types.Address `json:"creator"`
}

type CollectionDeleted struct {
	CollectionID uint64        `json:"collection_id"`
	Creator      types.Address `json:"creator"`
}

// ItemKind distinguishes the ledgers an ItemsBurned event refers to.
type ItemKind string

const (
	ItemKindCollection ItemKind = "collection"
	ItemKindPool       ItemKind = "pool"
)

type ItemsBurned struct {
	Kind  ItemKind      `json:"kind"`
	IDs   []uint64      `json:"ids"`
	Owner types.Address `json:"owner"`
}

// BoughtLine is one priced cart line of a TokensBought event. Prices are in
// base units of the chosen token.
type BoughtLine struct {
	Kind      string       `json:"kind"`
	ProfileID uint64       `json:"profile_id"`
	Amount    uint64       `json:"amount"`
	UnitPrice types.Amount `json:"unit_price"`
	Total     types.Amount `json:"total"`
	ItemIDs   []uint64     `json:"item_ids"`
	OrderID   uint64       `json:"order_id"`
}

type TokensBought struct {
	PurchaseID string        `json:"purchase_id"`
	Buyer      types.Address `json:"buyer"`
	Token      types.Address `json:"chosen_token"`
	Lines      []BoughtLine  `json:"lines"`
	Total      types.Amount  `json:"total"`
}

type OrderStatusUpdated struct {
	OrderID uint64 `json:"order_id"`
	Status  string `json:"status"`
}

type OrderFulfillerUpdated struct {
	OrderID   uint64 `json:"order_id"`
	Fulfilled bool   `json:"fulfilled"`
}

type OrderDetailsUpdated struct {
	OrderID uint64 `json:"order_id"`
	Details string `json:"details"`
}

func (CompositeCreated) EventType() Type      { return TypeCompositeCreated }
func (CompositeReleased) EventType() Type     { return TypeCompositeReleased }
func (ConstituentsReleased) EventType() Type  { return TypeConstituentsReleased }
func (CollectionCreated) EventType() Type     { return TypeCollectionCreated }
func (CollectionExtended) EventType() Type    { return TypeCollectionExtended }
func (CollectionUpdated) EventType() Type     { return TypeCollectionUpdated }
func (CollectionDeleted) EventType() Type     { return TypeCollectionDeleted }
func (ItemsBurned) EventType() Type           { return TypeItemsBurned }
func (TokensBought) EventType() Type          { return TypeTokensBought }
func (OrderStatusUpdated) EventType() Type    { return TypeOrderStatusUpdated }
func (OrderFulfillerUpdated) EventType() Type { return TypeOrderFulfillerUpdated }
func (OrderDetailsUpdated) EventType() Type   { return TypeOrderDetailsUpdated }

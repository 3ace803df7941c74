// Package order is the append-only ledger of purchases. Each order covers
// one cart line and carries a status label set by its fulfiller, a one-way
// fulfilled flag, and buyer-editable delivery details.
package order

import (
	"slices"
	"sort"
	"sync"

	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/fulfillment"
	"github.com/xraph/mercato/id"
	"github.com/xraph/mercato/types"
)

// Kind is the type of line an order was created for.
type Kind string

const (
	KindPreroll Kind = "preroll"
	KindCustom  Kind = "custom"
)

// StatusOrdered is the status every order starts in.
const StatusOrdered = "ordered"

// Order is one purchased cart line. Prices are in base units of Token.
type Order struct {
	ID          uint64        `json:"id"`
	PurchaseID  string        `json:"purchase_id"`
	Buyer       types.Address `json:"buyer"`
	Kind        Kind          `json:"kind"`
	ProfileID   uint64        `json:"profile_id"`
	FulfillerID uint64        `json:"fulfiller_id"`
	Token       types.Address `json:"token"`
	Units       uint64        `json:"units"`
	ItemIDs     []uint64      `json:"item_ids"`
	UnitPrice   types.Amount  `json:"unit_price"`
	Total       types.Amount  `json:"total"`
	Details     string        `json:"details"`
	Status      string        `json:"status"`
	Fulfilled   bool          `json:"fulfilled"`
	types.Entity
}

// Draft is an order before the ledger assigns its id.
type Draft struct {
	PurchaseID  string
	Buyer       types.Address
	Kind        Kind
	ProfileID   uint64
	FulfillerID uint64
	Token       types.Address
	Units       uint64
	ItemIDs     []uint64
	UnitPrice   types.Amount
	Total       types.Amount
	Details     string
}

// Config wires a Ledger.
type Config struct {
	// Market is the only caller allowed to append.
	Market     types.Address
	Fulfillers fulfillment.Directory
	Events     event.Sink
	Clock      types.Clock
}

// Ledger is the OrderLedger.
type Ledger struct {
	mu     sync.RWMutex
	cfg    Config
	seq    *id.Sequence
	orders map[uint64]*Order
}

// New creates an empty ledger.
func New(cfg Config) *Ledger {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock
	}
	if cfg.Events == nil {
		cfg.Events = event.Discard
	}
	return &Ledger{
		cfg:    cfg,
		seq:    id.NewSequence(0),
		orders: make(map[uint64]*Order),
	}
}

// Append records one order per draft and returns their ids in order.
func (l *Ledger) Append(caller types.Address, drafts []Draft) ([]uint64, error) {
	if caller != l.cfg.Market {
		return nil, errs.ErrNotMarket
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.cfg.Clock()
	ids := l.seq.NextN(len(drafts))
	for i, d := range drafts {
		l.orders[ids[i]] = &Order{
			ID:          ids[i],
			PurchaseID:  d.PurchaseID,
			Buyer:       d.Buyer,
			Kind:        d.Kind,
			ProfileID:   d.ProfileID,
			FulfillerID: d.FulfillerID,
			Token:       d.Token,
			Units:       d.Units,
			ItemIDs:     slices.Clone(d.ItemIDs),
			UnitPrice:   d.UnitPrice,
			Total:       d.Total,
			Details:     d.Details,
			Status:      StatusOrdered,
			Entity:      types.NewEntity(now),
		}
	}
	return ids, nil
}

// SetStatus sets a free-form status label. Only the assigned fulfiller may.
func (l *Ledger) SetStatus(caller types.Address, oid uint64, status string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	o, err := l.fulfilledBy(caller, oid)
	if err != nil {
		return err
	}
	o.Status = status
	o.Touch(l.cfg.Clock())

	l.cfg.Events.Emit(event.OrderStatusUpdated{OrderID: oid, Status: status})
	return nil
}

// SetFulfilled marks the order fulfilled. Only the assigned fulfiller may,
// and only once.
func (l *Ledger) SetFulfilled(caller types.Address, oid uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	o, err := l.fulfilledBy(caller, oid)
	if err != nil {
		return err
	}
	if o.Fulfilled {
		return errs.ErrOrderAlreadyFulfilled
	}
	o.Fulfilled = true
	o.Touch(l.cfg.Clock())

	l.cfg.Events.Emit(event.OrderFulfillerUpdated{OrderID: oid, Fulfilled: true})
	return nil
}

// SetDetails replaces the delivery details. Only the buyer may, at any
// status.
func (l *Ledger) SetDetails(caller types.Address, oid uint64, details string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	o, ok := l.orders[oid]
	if !ok {
		return errs.ErrOrderNotFound
	}
	if o.Buyer != caller {
		return errs.ErrNotBuyer
	}
	o.Details = details
	o.Touch(l.cfg.Clock())

	l.cfg.Events.Emit(event.OrderDetailsUpdated{OrderID: oid, Details: details})
	return nil
}

func (l *Ledger) fulfilledBy(caller types.Address, oid uint64) (*Order, error) {
	o, ok := l.orders[oid]
	if !ok {
		return nil, errs.ErrOrderNotFound
	}
	f, ok := l.cfg.Fulfillers.Fulfiller(o.FulfillerID)
	if !ok || f.Address != caller {
		return nil, errs.ErrNotFulfiller
	}
	return o, nil
}

// Order returns a copy of the order.
func (l *Ledger) Order(oid uint64) (Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	o, ok := l.orders[oid]
	if !ok {
		return Order{}, errs.ErrOrderNotFound
	}
	return o.copy(), nil
}

// ByBuyer returns the buyer's orders in id order.
func (l *Ledger) ByBuyer(buyer types.Address) []Order {
	return l.filter(func(o *Order) bool { return o.Buyer == buyer })
}

// ByFulfiller returns the orders assigned to a fulfiller in id order.
func (l *Ledger) ByFulfiller(fid uint64) []Order {
	return l.filter(func(o *Order) bool { return o.FulfillerID == fid })
}

func (l *Ledger) filter(keep func(*Order) bool) []Order {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Order
	for _, o := range l.orders {
		if keep(o) {
			out = append(out, o.copy())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (o *Order) copy() Order {
	cp := *o
	cp.ItemIDs = slices.Clone(o.ItemIDs)
	return cp
}

// State is a point-in-time copy of the ledger.
type State struct {
	Last   uint64  `json:"last"`
	Orders []Order `json:"orders"`
}

// Snapshot copies the ledger state, orders in id order.
func (l *Ledger) Snapshot() State {
	l.mu.RLock()
	defer l.mu.RUnlock()

	st := State{Last: l.seq.Last(), Orders: make([]Order, 0, len(l.orders))}
	for _, o := range l.orders {
		st.Orders = append(st.Orders, o.copy())
	}
	sort.Slice(st.Orders, func(i, j int) bool { return st.Orders[i].ID < st.Orders[j].ID })
	return st
}

// Restore replaces the ledger state.
func (l *Ledger) Restore(st State) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq = id.NewSequence(st.Last)
	l.orders = make(map[uint64]*Order, len(st.Orders))
	for i := range st.Orders {
		o := st.Orders[i].copy()
		l.orders[o.ID] = &o
	}
}

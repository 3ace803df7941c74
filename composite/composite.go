// Package composite owns composite ("parent") item records. A composite is
// minted together with its constituents and both are deposited into escrow
// in the same call.
package composite

import (
	"slices"
	"sort"
	"sync"

	"github.com/xraph/mercato/access"
	"github.com/xraph/mercato/constituent"
	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/fulfillment"
	"github.com/xraph/mercato/id"
	"github.com/xraph/mercato/types"
)

// Item is a composite record. Constituents keeps mint order.
type Item struct {
	ID           uint64        `json:"id"`
	Creator      types.Address `json:"creator"`
	Category     string        `json:"category"`
	Price        types.Amount  `json:"price"`
	FulfillerID  uint64        `json:"fulfiller_id"`
	Constituents []uint64      `json:"constituents"`
	URI          string        `json:"uri"`
	Holder       types.Address `json:"holder"`
	Burned       bool          `json:"burned"`
	types.Entity
}

// MintRequest describes a composite and the constituents minted with it.
// Prices are USD amounts with 18 fractional digits.
type MintRequest struct {
	URI               string         `json:"uri"`
	Category          string         `json:"category"`
	Price             types.Amount   `json:"price"`
	FulfillerID       uint64         `json:"fulfiller_id"`
	ConstituentURIs   []string       `json:"constituent_uris"`
	ConstituentPrices []types.Amount `json:"constituent_prices"`
}

// Minted holds the ids allocated by Mint.
type Minted struct {
	CompositeID    uint64   `json:"composite_id"`
	ConstituentIDs []uint64 `json:"constituent_ids"`
}

// Depositor takes custody of freshly minted composites.
type Depositor interface {
	Address() types.Address
	DepositComposite(caller types.Address, cid uint64) error
}

// Config wires a Ledger.
type Config struct {
	Identity     types.Address
	Escrow       types.Address
	Authorizer   access.Authorizer
	Fulfillers   fulfillment.Directory
	Constituents *constituent.Ledger
	Events       event.Sink
	Clock        types.Clock
}

// Ledger is the CompositeLedger.
type Ledger struct {
	mu        sync.RWMutex
	cfg       Config
	depositor Depositor
	seq       *id.Sequence
	items     map[uint64]*Item
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
		cfg:   cfg,
		seq:   id.NewSequence(0),
		items: make(map[uint64]*Item),
	}
}

// Identity returns the address the ledger acts as.
func (l *Ledger) Identity() types.Address { return l.cfg.Identity }

// Bind sets the depositor that receives custody of minted composites.
func (l *Ledger) Bind(d Depositor) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.depositor = d
}

// Mint creates a composite bound to freshly minted constituents. Admin only.
func (l *Ledger) Mint(caller types.Address, req MintRequest) (Minted, error) {
	if err := access.Require(l.cfg.Authorizer, caller, access.RoleAdmin); err != nil {
		return Minted{}, err
	}
	if !l.cfg.Fulfillers.FulfillerExists(req.FulfillerID) {
		return Minted{}, errs.ErrInvalidFulfiller
	}
	if len(req.ConstituentURIs) != len(req.ConstituentPrices) {
		return Minted{}, errs.ErrLengthMismatch
	}
	if req.Price.IsNegative() {
		return Minted{}, errs.ErrInvalidAmount
	}
	for _, p := range req.ConstituentPrices {
		if p.IsNegative() {
			return Minted{}, errs.ErrInvalidAmount
		}
	}

	l.mu.Lock()
	dep := l.depositor
	if dep == nil {
		l.mu.Unlock()
		return Minted{}, errs.ErrNotStarted
	}
	cid := l.seq.Next()
	l.mu.Unlock()

	specs := make([]constituent.Spec, len(req.ConstituentURIs))
	for i := range specs {
		specs[i] = constituent.Spec{
			ParentID:    cid,
			Price:       req.ConstituentPrices[i],
			Creator:     caller,
			FulfillerID: req.FulfillerID,
			URI:         req.ConstituentURIs[i],
		}
	}
	childIDs, err := l.cfg.Constituents.Mint(l.cfg.Identity, specs)
	if err != nil {
		return Minted{}, err
	}

	l.mu.Lock()
	l.items[cid] = &Item{
		ID:           cid,
		Creator:      caller,
		Category:     req.Category,
		Price:        req.Price,
		FulfillerID:  req.FulfillerID,
		Constituents: slices.Clone(childIDs),
		URI:          req.URI,
		Holder:       dep.Address(),
		Entity:       types.NewEntity(l.cfg.Clock()),
	}
	l.mu.Unlock()

	if err := dep.DepositComposite(l.cfg.Identity, cid); err != nil {
		return Minted{}, err
	}

	l.cfg.Events.Emit(event.CompositeCreated{
		CompositeID:     cid,
		URI:             req.URI,
		ConstituentIDs:  slices.Clone(childIDs),
		ConstituentURIs: slices.Clone(req.ConstituentURIs),
	})
	return Minted{CompositeID: cid, ConstituentIDs: childIDs}, nil
}

// Burn destroys a composite and returns the constituent ids it listed. The
// list is cleared; re-parenting those constituents is the caller's job.
// Only escrow may call it.
func (l *Ledger) Burn(caller types.Address, cid uint64) ([]uint64, error) {
	if caller != l.cfg.Escrow {
		return nil, errs.ErrUnauthorizedBurn
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	it, ok := l.items[cid]
	if !ok || it.Burned {
		return nil, errs.ErrCompositeNotFound
	}
	detached := it.Constituents
	it.Constituents = nil
	it.Holder = ""
	it.Burned = true
	it.Touch(l.cfg.Clock())
	return detached, nil
}

// RemoveConstituent drops child from the composite's constituent sequence,
// keeping the order of the rest. Only escrow may call it.
func (l *Ledger) RemoveConstituent(caller types.Address, cid, child uint64) error {
	if caller != l.cfg.Escrow {
		return errs.ErrUnauthorizedParentUpdate
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	it, ok := l.items[cid]
	if !ok || it.Burned {
		return errs.ErrCompositeNotFound
	}
	it.Constituents = slices.DeleteFunc(it.Constituents, func(c uint64) bool { return c == child })
	it.Touch(l.cfg.Clock())
	return nil
}

// Item returns a copy of a live composite. Burned composites do not
// resolve.
func (l *Ledger) Item(cid uint64) (Item, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	it, ok := l.items[cid]
	if !ok || it.Burned {
		return Item{}, errs.ErrCompositeNotFound
	}
	cp := *it
	cp.Constituents = slices.Clone(it.Constituents)
	return cp, nil
}

// Last returns the most recently issued id.
func (l *Ledger) Last() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.seq.Last()
}

// State is a point-in-time copy of the ledger.
type State struct {
	Last  uint64 `json:"last"`
	Items []Item `json:"items"`
}

// Snapshot copies the ledger state, items in id order.
func (l *Ledger) Snapshot() State {
	l.mu.RLock()
	defer l.mu.RUnlock()

	st := State{Last: l.seq.Last(), Items: make([]Item, 0, len(l.items))}
	for _, it := range l.items {
		cp := *it
		cp.Constituents = slices.Clone(it.Constituents)
		st.Items = append(st.Items, cp)
	}
	sort.Slice(st.Items, func(i, j int) bool { return st.Items[i].ID < st.Items[j].ID })
	return st
}

// Restore replaces the ledger state.
func (l *Ledger) Restore(st State) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq = id.NewSequence(st.Last)
	l.items = make(map[uint64]*Item, len(st.Items))
	for i := range st.Items {
		it := st.Items[i]
		it.Constituents = slices.Clone(it.Constituents)
		l.items[it.ID] = &it
	}
}

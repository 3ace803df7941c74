// Package pool holds the items bought through composite lines of a cart.
// Each unit gets its own id; ids are never reused after a burn.
package pool

import (
	"slices"
	"sort"
	"sync"

	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/id"
	"github.com/xraph/mercato/types"
)

// Item is one unit minted under a composite price profile.
type Item struct {
	ID          uint64        `json:"id"`
	ProfileID   uint64        `json:"profile_id"`
	URI         string        `json:"uri"`
	Creator     types.Address `json:"creator"`
	Token       types.Address `json:"token"`
	UnitPrice   types.Amount  `json:"unit_price"`
	FulfillerID uint64        `json:"fulfiller_id"`
	Owner       types.Address `json:"owner"`
	Burned      bool          `json:"burned"`
	types.Entity
}

// Spec is the data shared by every unit of one mint.
type Spec struct {
	ProfileID   uint64
	URI         string
	Creator     types.Address
	Token       types.Address
	UnitPrice   types.Amount
	FulfillerID uint64
	Owner       types.Address
}

// Pool is the custom composite pool.
type Pool struct {
	mu     sync.RWMutex
	market types.Address
	events event.Sink
	clock  types.Clock
	seq    *id.Sequence
	items  map[uint64]*Item
}

// Option configures a Pool.
type Option func(*Pool)

// WithEvents sets the sink that receives ItemsBurned events.
func WithEvents(s event.Sink) Option { return func(p *Pool) { p.events = s } }

// WithClock sets the time source for item timestamps.
func WithClock(c types.Clock) Option { return func(p *Pool) { p.clock = c } }

// New creates an empty pool that only market may mint into.
func New(market types.Address, opts ...Option) *Pool {
	p := &Pool{
		market: market,
		events: event.Discard,
		clock:  types.SystemClock,
		seq:    id.NewSequence(0),
		items:  make(map[uint64]*Item),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mint issues amount units described by spec. At most id.MaxBatch units
// may be minted at once.
func (p *Pool) Mint(caller types.Address, spec Spec, amount uint64) ([]uint64, error) {
	if caller != p.market {
		return nil, errs.ErrNotMarket
	}
	if amount == 0 || amount > id.MaxBatch {
		return nil, errs.ErrInvalidAmount
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock()
	ids := p.seq.NextN(int(amount))
	for _, iid := range ids {
		p.items[iid] = &Item{
			ID:          iid,
			ProfileID:   spec.ProfileID,
			URI:         spec.URI,
			Creator:     spec.Creator,
			Token:       spec.Token,
			UnitPrice:   spec.UnitPrice,
			FulfillerID: spec.FulfillerID,
			Owner:       spec.Owner,
			Entity:      types.NewEntity(now),
		}
	}
	return ids, nil
}

// Burn destroys one item held by caller.
func (p *Pool) Burn(caller types.Address, iid uint64) error {
	return p.BurnBatch(caller, []uint64{iid})
}

// BurnBatch destroys items held by caller. Either all are burned or none.
func (p *Pool) BurnBatch(caller types.Address, ids []uint64) error {
	if len(ids) == 0 {
		return errs.ErrEmptyBatch
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[uint64]struct{}, len(ids))
	for _, iid := range ids {
		if _, dup := seen[iid]; dup {
			return errs.ErrDuplicateID
		}
		seen[iid] = struct{}{}

		it, ok := p.items[iid]
		switch {
		case !ok:
			return errs.ErrItemNotFound
		case it.Burned:
			return errs.ErrAlreadyBurned
		case it.Owner != caller:
			return errs.ErrNotOwner
		}
	}

	now := p.clock()
	for _, iid := range ids {
		it := p.items[iid]
		it.Burned = true
		it.Touch(now)
	}

	p.events.Emit(event.ItemsBurned{Kind: event.ItemKindPool, IDs: slices.Clone(ids), Owner: caller})
	return nil
}

// Item returns a copy of the item.
func (p *Pool) Item(iid uint64) (Item, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	it, ok := p.items[iid]
	if !ok {
		return Item{}, errs.ErrItemNotFound
	}
	return *it, nil
}

// Supply returns the number of ids ever issued. Burns do not lower it.
func (p *Pool) Supply() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.seq.Last()
}

// State is a point-in-time copy of the pool.
type State struct {
	Last  uint64 `json:"last"`
	Items []Item `json:"items"`
}

// Snapshot copies the pool state, items in id order.
func (p *Pool) Snapshot() State {
	p.mu.RLock()
	defer p.mu.RUnlock()

	st := State{Last: p.seq.Last(), Items: make([]Item, 0, len(p.items))}
	for _, it := range p.items {
		st.Items = append(st.Items, *it)
	}
	sort.Slice(st.Items, func(i, j int) bool { return st.Items[i].ID < st.Items[j].ID })
	return st
}

// Restore replaces the pool state.
func (p *Pool) Restore(st State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq = id.NewSequence(st.Last)
	p.items = make(map[uint64]*Item, len(st.Items))
	for i := range st.Items {
		it := st.Items[i]
		p.items[it.ID] = &it
	}
}

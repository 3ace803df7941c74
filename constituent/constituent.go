// Package constituent owns the constituent ("child") item records that
// composites are built from. Each id is one semi-fungible unit.
package constituent

import (
	"sort"
	"sync"

	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/id"
	"github.com/xraph/mercato/types"
)

// Item is a constituent record. ParentID is 0 when detached.
type Item struct {
	ID          uint64        `json:"id"`
	ParentID    uint64        `json:"parent_id"`
	Price       types.Amount  `json:"price"`
	Creator     types.Address `json:"creator"`
	FulfillerID uint64        `json:"fulfiller_id"`
	Amount      uint64        `json:"amount"`
	URI         string        `json:"uri"`
	Holder      types.Address `json:"holder"`
	Burned      bool          `json:"burned"`
	types.Entity
}

// Spec describes one constituent to mint.
type Spec struct {
	ParentID    uint64
	Price       types.Amount
	Creator     types.Address
	FulfillerID uint64
	URI         string
}

// Depositor takes custody of freshly minted constituents.
type Depositor interface {
	Address() types.Address
	DepositConstituent(caller types.Address, cid uint64) error
}

// Config wires a Ledger.
type Config struct {
	// Identity is the address the ledger presents to its depositor.
	Identity types.Address
	// Minter is the only caller allowed to mint.
	Minter types.Address
	// Escrow is the only caller allowed to re-parent or burn.
	Escrow types.Address
	Clock  types.Clock
}

// Ledger is the ConstituentLedger.
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
	return &Ledger{
		cfg:   cfg,
		seq:   id.NewSequence(0),
		items: make(map[uint64]*Item),
	}
}

// Identity returns the address the ledger acts as.
func (l *Ledger) Identity() types.Address { return l.cfg.Identity }

// Bind sets the depositor that receives custody of minted items.
func (l *Ledger) Bind(d Depositor) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.depositor = d
}

// Mint creates one item per spec with consecutive ids and deposits each
// into escrow. Only the configured minter may call it.
func (l *Ledger) Mint(caller types.Address, specs []Spec) ([]uint64, error) {
	if caller != l.cfg.Minter {
		return nil, errs.ErrUnauthorizedMinter
	}

	l.mu.Lock()
	dep := l.depositor
	if dep == nil {
		l.mu.Unlock()
		return nil, errs.ErrNotStarted
	}
	now := l.cfg.Clock()
	ids := l.seq.NextN(len(specs))
	for i, s := range specs {
		l.items[ids[i]] = &Item{
			ID:          ids[i],
			ParentID:    s.ParentID,
			Price:       s.Price,
			Creator:     s.Creator,
			FulfillerID: s.FulfillerID,
			Amount:      1,
			URI:         s.URI,
			Holder:      dep.Address(),
			Entity:      types.NewEntity(now),
		}
	}
	l.mu.Unlock()

	// The escrow coordinator rejects a deposit only for a foreign caller, which
	// fails on the first id, or for an id it already holds, which a sequence
	// that never reissues cannot produce. No custody flag outlives a rollback.
	for _, cid := range ids {
		if err := dep.DepositConstituent(l.cfg.Identity, cid); err != nil {
			l.mu.Lock()
			for _, minted := range ids {
				delete(l.items, minted)
			}
			l.mu.Unlock()
			return nil, err
		}
	}
	return ids, nil
}

// SetParent re-parents live items. Only escrow may call it.
func (l *Ledger) SetParent(caller types.Address, ids []uint64, parent uint64) error {
	if caller != l.cfg.Escrow {
		return errs.ErrUnauthorizedParentUpdate
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkLive(ids); err != nil {
		return err
	}
	now := l.cfg.Clock()
	for _, cid := range ids {
		it := l.items[cid]
		it.ParentID = parent
		it.Touch(now)
	}
	return nil
}

// Burn destroys the single unit behind each id and detaches it. Only escrow
// may call it. Records are kept and ids are never reissued.
func (l *Ledger) Burn(caller types.Address, ids []uint64) error {
	if caller != l.cfg.Escrow {
		return errs.ErrUnauthorizedBurn
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkLive(ids); err != nil {
		return err
	}
	now := l.cfg.Clock()
	for _, cid := range ids {
		it := l.items[cid]
		it.Amount = 0
		it.ParentID = 0
		it.Holder = ""
		it.Burned = true
		it.Touch(now)
	}
	return nil
}

func (l *Ledger) checkLive(ids []uint64) error {
	for _, cid := range ids {
		it, ok := l.items[cid]
		if !ok {
			return errs.ErrConstituentNotFound
		}
		if it.Burned {
			return errs.ErrAlreadyBurned
		}
	}
	return nil
}

// Item returns a copy of the record, burned or not.
func (l *Ledger) Item(cid uint64) (Item, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	it, ok := l.items[cid]
	if !ok {
		return Item{}, errs.ErrConstituentNotFound
	}
	return *it, nil
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
		st.Items = append(st.Items, *it)
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
		l.items[it.ID] = &it
	}
}

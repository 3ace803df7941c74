// Package escrow tracks custody of composite and constituent items and is
// the only path by which they are released: a composite release burns the
// composite and detaches its constituents, a constituent release burns the
// constituents themselves.
package escrow

import (
	"slices"
	"sync"

	"github.com/xraph/mercato/access"
	"github.com/xraph/mercato/composite"
	"github.com/xraph/mercato/constituent"
	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/types"
)

// Config wires a Coordinator.
type Config struct {
	// Identity holds deposited items.
	Identity   types.Address
	Authorizer access.Authorizer
	Events     event.Sink
}

// Coordinator is the EscrowCoordinator.
type Coordinator struct {
	mu           sync.Mutex
	cfg          Config
	composites   *composite.Ledger
	constituents *constituent.Ledger
	parents      map[uint64]bool
	children     map[uint64]bool
}

var (
	_ composite.Depositor   = (*Coordinator)(nil)
	_ constituent.Depositor = (*Coordinator)(nil)
)

// New creates a coordinator. Bind must be called before items are minted
// or released.
func New(cfg Config) *Coordinator {
	if cfg.Events == nil {
		cfg.Events = event.Discard
	}
	return &Coordinator{
		cfg:      cfg,
		parents:  make(map[uint64]bool),
		children: make(map[uint64]bool),
	}
}

// Bind connects the coordinator to the ledgers whose items it holds and
// registers it as their depositor.
func (c *Coordinator) Bind(composites *composite.Ledger, constituents *constituent.Ledger) {
	c.mu.Lock()
	c.composites = composites
	c.constituents = constituents
	c.mu.Unlock()

	composites.Bind(c)
	constituents.Bind(c)
}

// Address returns the custody identity.
func (c *Coordinator) Address() types.Address { return c.cfg.Identity }

// DepositComposite records custody of a freshly minted composite. Only the
// composite ledger may call it.
func (c *Coordinator) DepositComposite(caller types.Address, cid uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.composites == nil || caller != c.composites.Identity() {
		return errs.ErrUnauthorizedDeposit
	}
	if c.parents[cid] {
		return errs.ErrAlreadyDeposited
	}
	c.parents[cid] = true
	return nil
}

// DepositConstituent records custody of a freshly minted constituent. Only
// the constituent ledger may call it.
func (c *Coordinator) DepositConstituent(caller types.Address, cid uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.constituents == nil || caller != c.constituents.Identity() {
		return errs.ErrUnauthorizedDeposit
	}
	if c.children[cid] {
		return errs.ErrAlreadyDeposited
	}
	c.children[cid] = true
	return nil
}

// ReleaseComposite burns a deposited composite and detaches every
// constituent it lists. The constituents stay deposited.
func (c *Coordinator) ReleaseComposite(caller types.Address, cid uint64) error {
	if err := access.Require(c.cfg.Authorizer, caller, access.RoleReleaseAuthority); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.composites == nil {
		return errs.ErrNotStarted
	}
	if !c.parents[cid] {
		return errs.ErrNotInEscrow
	}
	if _, err := c.composites.Item(cid); err != nil {
		return err
	}

	detached, err := c.composites.Burn(c.cfg.Identity, cid)
	if err != nil {
		return err
	}
	if err := c.constituents.SetParent(c.cfg.Identity, detached, 0); err != nil {
		return err
	}
	c.parents[cid] = false

	c.cfg.Events.Emit(event.CompositeReleased{CompositeID: cid})
	return nil
}

// ReleaseConstituents burns every listed constituent and removes it from
// its composite. Either all ids are released or none.
func (c *Coordinator) ReleaseConstituents(caller types.Address, ids []uint64) error {
	if err := access.Require(c.cfg.Authorizer, caller, access.RoleReleaseAuthority); err != nil {
		return err
	}
	if len(ids) == 0 {
		return errs.ErrEmptyBatch
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.constituents == nil {
		return errs.ErrNotStarted
	}

	parents := make(map[uint64]uint64, len(ids))
	for _, cid := range ids {
		if _, dup := parents[cid]; dup {
			return errs.ErrDuplicateID
		}
		if !c.children[cid] {
			return errs.ErrNotInEscrow
		}
		it, err := c.constituents.Item(cid)
		if err != nil {
			return err
		}
		parents[cid] = it.ParentID
	}

	for _, cid := range ids {
		if p := parents[cid]; p != 0 {
			if err := c.composites.RemoveConstituent(c.cfg.Identity, p, cid); err != nil {
				return err
			}
		}
	}
	if err := c.constituents.Burn(c.cfg.Identity, ids); err != nil {
		return err
	}
	for _, cid := range ids {
		c.children[cid] = false
	}

	c.cfg.Events.Emit(event.ConstituentsReleased{ConstituentIDs: slices.Clone(ids)})
	return nil
}

// IsCompositeDeposited reports whether escrow holds the composite.
func (c *Coordinator) IsCompositeDeposited(cid uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parents[cid]
}

// IsConstituentDeposited reports whether escrow holds the constituent.
func (c *Coordinator) IsConstituentDeposited(cid uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.children[cid]
}

// State lists the ids currently held, ascending.
type State struct {
	Composites   []uint64 `json:"composites"`
	Constituents []uint64 `json:"constituents"`
}

// Snapshot copies the set of held ids.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Composites: held(c.parents), Constituents: held(c.children)}
}

// Restore replaces the set of held ids.
func (c *Coordinator) Restore(st State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.parents = make(map[uint64]bool, len(st.Composites))
	for _, cid := range st.Composites {
		c.parents[cid] = true
	}
	c.children = make(map[uint64]bool, len(st.Constituents))
	for _, cid := range st.Constituents {
		c.children[cid] = true
	}
}

func held(flags map[uint64]bool) []uint64 {
	out := make([]uint64, 0, len(flags))
	for cid, ok := range flags {
		if ok {
			out = append(out, cid)
		}
	}
	slices.Sort(out)
	return out
}

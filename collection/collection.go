// Package collection holds mint templates for single, non-composite items
// and the ledger of items minted from them.
package collection

import (
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/xraph/mercato/access"
	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/fulfillment"
	"github.com/xraph/mercato/id"
	"github.com/xraph/mercato/types"
)

// Template is the pricing and presentation shared by a collection's items.
// Price is a USD amount with 18 fractional digits.
type Template struct {
	Price       types.Amount `json:"price"`
	DiscountBps types.Bps    `json:"discount_bps"`
	FulfillerID uint64       `json:"fulfiller_id"`
	Sizes       []string     `json:"sizes"`
	URI         string       `json:"uri"`
	Category    string       `json:"category"`
}

func (t Template) clone() Template {
	t.Sizes = slices.Clone(t.Sizes)
	return t
}

// Collection is a mint template with a cap.
type Collection struct {
	ID       uint64        `json:"id"`
	Creator  types.Address `json:"creator"`
	Template Template      `json:"template"`
	Cap      uint64        `json:"cap"`
	NoCap    bool          `json:"no_cap"`
	Minted   uint64        `json:"minted"`
	ItemIDs  []uint64      `json:"item_ids"`
	Deleted  bool          `json:"deleted"`
	types.Entity
}

// Remaining returns how many more items may be minted. NoCap collections
// report false for bounded.
func (c Collection) Remaining() (n uint64, bounded bool) {
	if c.NoCap {
		return 0, false
	}
	if c.Minted >= c.Cap {
		return 0, true
	}
	return c.Cap - c.Minted, true
}

// Item is a single minted item. Template is copied at mint time and never
// follows later edits of the collection.
type Item struct {
	ID           uint64        `json:"id"`
	CollectionID uint64        `json:"collection_id"`
	Creator      types.Address `json:"creator"`
	Template     Template      `json:"template"`
	Payer        types.Address `json:"payer"`
	Owner        types.Address `json:"owner"`
	Burned       bool          `json:"burned"`
	types.Entity
}

// Config wires a Registry.
type Config struct {
	// Market is the only caller allowed to mint.
	Market     types.Address
	Authorizer access.Authorizer
	Fulfillers fulfillment.Directory
	Events     event.Sink
	Clock      types.Clock
}

// Registry is the CollectionRegistry together with its item ledger.
type Registry struct {
	mu          sync.RWMutex
	cfg         Config
	collections map[uint64]*Collection
	items       map[uint64]*Item
	colSeq      *id.Sequence
	itemSeq     *id.Sequence
}

// New creates an empty registry.
func New(cfg Config) *Registry {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock
	}
	if cfg.Events == nil {
		cfg.Events = event.Discard
	}
	return &Registry{
		cfg:         cfg,
		collections: make(map[uint64]*Collection),
		items:       make(map[uint64]*Item),
		colSeq:      id.NewSequence(0),
		itemSeq:     id.NewSequence(0),
	}
}

// Create registers a collection. Admins and writers may create.
func (r *Registry) Create(caller types.Address, limit uint64, tmpl Template, noCap bool) (uint64, error) {
	if err := access.Require(r.cfg.Authorizer, caller, access.RoleAdmin, access.RoleWriter); err != nil {
		return 0, err
	}
	if err := r.validate(tmpl); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cid := r.colSeq.Next()
	r.collections[cid] = &Collection{
		ID:       cid,
		Creator:  caller,
		Template: tmpl.clone(),
		Cap:      limit,
		NoCap:    noCap,
		Entity:   types.NewEntity(r.cfg.Clock()),
	}

	r.cfg.Events.Emit(event.CollectionCreated{
		CollectionID: cid,
		URI:          tmpl.URI,
		Cap:          limit,
		NoCap:        noCap,
		Creator:      caller,
	})
	return cid, nil
}

func (r *Registry) validate(tmpl Template) error {
	if !r.cfg.Fulfillers.FulfillerExists(tmpl.FulfillerID) {
		return errs.ErrInvalidFulfiller
	}
	if !tmpl.DiscountBps.Valid() {
		return errs.ErrInvalidShare
	}
	if tmpl.Price.IsNegative() {
		return errs.ErrInvalidAmount
	}
	return nil
}

// Extend raises the cap of a live collection. Creator only. A cap that
// would overflow is rejected with errs.ErrInvalidAmount.
func (r *Registry) Extend(caller types.Address, cid, extra uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.owned(caller, cid)
	if err != nil {
		return err
	}
	if extra > math.MaxUint64-c.Cap {
		return errs.ErrInvalidAmount
	}
	c.Cap += extra
	c.Touch(r.cfg.Clock())

	r.cfg.Events.Emit(event.CollectionExtended{CollectionID: cid, Added: extra, Creator: caller})
	return nil
}

// Update replaces the template of a live collection. Creator only. Items
// already minted keep their own copy.
func (r *Registry) Update(caller types.Address, cid uint64, tmpl Template) error {
	if err := r.validate(tmpl); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.owned(caller, cid)
	if err != nil {
		return err
	}
	c.Template = tmpl.clone()
	c.Touch(r.cfg.Clock())

	r.cfg.Events.Emit(event.CollectionUpdated{
		CollectionID: cid,
		URI:          tmpl.URI,
		Price:        tmpl.Price,
		Creator:      caller,
	})
	return nil
}

// Delete closes a collection and freezes its cap at the minted count.
// Minted items stay valid. Creator only.
func (r *Registry) Delete(caller types.Address, cid uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.collections[cid]
	if !ok {
		return errs.ErrCollectionNotFound
	}
	if c.Creator != caller {
		return errs.ErrNotCollectionCreator
	}
	if c.Deleted {
		return errs.ErrAlreadyDeleted
	}
	c.Deleted = true
	c.NoCap = false
	c.Cap = c.Minted
	c.Touch(r.cfg.Clock())

	r.cfg.Events.Emit(event.CollectionDeleted{CollectionID: cid, Creator: caller})
	return nil
}

func (r *Registry) owned(caller types.Address, cid uint64) (*Collection, error) {
	c, ok := r.collections[cid]
	if !ok {
		return nil, errs.ErrCollectionNotFound
	}
	if c.Deleted {
		return nil, errs.ErrCollectionDeleted
	}
	if c.Creator != caller {
		return nil, errs.ErrNotCollectionCreator
	}
	return c, nil
}

// CheckMint reports whether amount more items can be minted and returns
// the collection they would be minted from.
func (r *Registry) CheckMint(cid, amount uint64) (Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, err := r.mintable(cid, amount)
	if err != nil {
		return Collection{}, err
	}
	return c.copy(), nil
}

func (r *Registry) mintable(cid, amount uint64) (*Collection, error) {
	c, ok := r.collections[cid]
	if !ok {
		return nil, errs.ErrCollectionNotFound
	}
	if c.Deleted {
		return nil, errs.ErrCollectionDeleted
	}
	if amount == 0 {
		return nil, errs.ErrInvalidAmount
	}
	if !c.NoCap {
		if left, _ := c.Remaining(); amount > left {
			return nil, errs.ErrCapExceeded
		}
	}
	if amount > id.MaxBatch {
		return nil, errs.ErrInvalidAmount
	}
	return c, nil
}

// Mint issues amount items with consecutive ids, each carrying a copy of
// the collection's current template. Only the market may mint.
func (r *Registry) Mint(caller types.Address, cid, amount uint64, payer, recipient types.Address) ([]uint64, error) {
	if caller != r.cfg.Market {
		return nil, errs.ErrNotMarket
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.mintable(cid, amount)
	if err != nil {
		return nil, err
	}

	now := r.cfg.Clock()
	ids := r.itemSeq.NextN(int(amount))
	for _, iid := range ids {
		r.items[iid] = &Item{
			ID:           iid,
			CollectionID: cid,
			Creator:      c.Creator,
			Template:     c.Template.clone(),
			Payer:        payer,
			Owner:        recipient,
			Entity:       types.NewEntity(now),
		}
	}
	c.Minted += amount
	c.ItemIDs = append(c.ItemIDs, ids...)
	c.Touch(now)
	return ids, nil
}

// Burn destroys items held by caller. Either every id is burned or none.
func (r *Registry) Burn(caller types.Address, ids []uint64) error {
	if len(ids) == 0 {
		return errs.ErrEmptyBatch
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[uint64]struct{}, len(ids))
	for _, iid := range ids {
		if _, dup := seen[iid]; dup {
			return errs.ErrDuplicateID
		}
		seen[iid] = struct{}{}

		it, ok := r.items[iid]
		if !ok {
			return errs.ErrItemNotFound
		}
		if it.Burned {
			return errs.ErrAlreadyBurned
		}
		if it.Owner != caller {
			return errs.ErrNotOwner
		}
	}

	now := r.cfg.Clock()
	for _, iid := range ids {
		it := r.items[iid]
		it.Burned = true
		it.Touch(now)
	}

	r.cfg.Events.Emit(event.ItemsBurned{Kind: event.ItemKindCollection, IDs: slices.Clone(ids), Owner: caller})
	return nil
}

// Collection returns a copy of the collection, deleted or not.
func (r *Registry) Collection(cid uint64) (Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.collections[cid]
	if !ok {
		return Collection{}, errs.ErrCollectionNotFound
	}
	return c.copy(), nil
}

// Item returns a copy of a minted item.
func (r *Registry) Item(iid uint64) (Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.items[iid]
	if !ok {
		return Item{}, errs.ErrItemNotFound
	}
	cp := *it
	cp.Template = it.Template.clone()
	return cp, nil
}

// List returns every collection in id order.
func (r *Registry) List() []Collection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Collection, 0, len(r.collections))
	for _, c := range r.collections {
		out = append(out, c.copy())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Collection) copy() Collection {
	cp := *c
	cp.Template = c.Template.clone()
	cp.ItemIDs = slices.Clone(c.ItemIDs)
	return cp
}

// State is a point-in-time copy of the registry.
type State struct {
	LastCollection uint64       `json:"last_collection"`
	LastItem       uint64       `json:"last_item"`
	Collections    []Collection `json:"collections"`
	Items          []Item       `json:"items"`
}

// Snapshot copies the registry state, collections and items in id order.
func (r *Registry) Snapshot() State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := State{
		LastCollection: r.colSeq.Last(),
		LastItem:       r.itemSeq.Last(),
		Collections:    make([]Collection, 0, len(r.collections)),
		Items:          make([]Item, 0, len(r.items)),
	}
	for _, c := range r.collections {
		st.Collections = append(st.Collections, c.copy())
	}
	for _, it := range r.items {
		cp := *it
		cp.Template = it.Template.clone()
		st.Items = append(st.Items, cp)
	}
	sort.Slice(st.Collections, func(i, j int) bool { return st.Collections[i].ID < st.Collections[j].ID })
	sort.Slice(st.Items, func(i, j int) bool { return st.Items[i].ID < st.Items[j].ID })
	return st
}

// Restore replaces the registry state.
func (r *Registry) Restore(st State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.colSeq = id.NewSequence(st.LastCollection)
	r.itemSeq = id.NewSequence(st.LastItem)
	r.collections = make(map[uint64]*Collection, len(st.Collections))
	for i := range st.Collections {
		c := st.Collections[i].copy()
		r.collections[c.ID] = &c
	}
	r.items = make(map[uint64]*Item, len(st.Items))
	for i := range st.Items {
		it := st.Items[i]
		it.Template = it.Template.clone()
		r.items[it.ID] = &it
	}
}

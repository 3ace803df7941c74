package mercato

import (
	"context"

	"github.com/xraph/mercato/collection"
	"github.com/xraph/mercato/composite"
	"github.com/xraph/mercato/constituent"
	"github.com/xraph/mercato/order"
	"github.com/xraph/mercato/pool"
	"github.com/xraph/mercato/types"
)

// ──────────────────────────────────────────────────
// Escrow
// ──────────────────────────────────────────────────

// MintComposite mints a composite and its constituents straight into
// escrow. Admin only.
func (m *Market) MintComposite(ctx context.Context, caller types.Address, req composite.MintRequest) (composite.Minted, error) {
	var out composite.Minted
	err := m.exec(ctx, func() error {
		var err error
		out, err = m.composites.Mint(caller, req)
		return err
	})
	return out, err
}

// ReleaseComposite burns an escrowed composite and detaches its
// constituents. Release authority only.
func (m *Market) ReleaseComposite(ctx context.Context, caller types.Address, cid uint64) error {
	return m.exec(ctx, func() error {
		return m.escrow.ReleaseComposite(caller, cid)
	})
}

// ReleaseConstituents burns escrowed constituents and removes them from
// their composites. Release authority only.
func (m *Market) ReleaseConstituents(ctx context.Context, caller types.Address, ids []uint64) error {
	return m.exec(ctx, func() error {
		return m.escrow.ReleaseConstituents(caller, ids)
	})
}

// Composite returns a live composite.
func (m *Market) Composite(cid uint64) (composite.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.composites.Item(cid)
}

// Constituent returns a constituent record, burned or not.
func (m *Market) Constituent(cid uint64) (constituent.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.constituents.Item(cid)
}

// IsCompositeDeposited reports whether escrow holds the composite.
func (m *Market) IsCompositeDeposited(cid uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.escrow.IsCompositeDeposited(cid)
}

// IsConstituentDeposited reports whether escrow holds the constituent.
func (m *Market) IsConstituentDeposited(cid uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.escrow.IsConstituentDeposited(cid)
}

// ──────────────────────────────────────────────────
// Collections
// ──────────────────────────────────────────────────

// CreateCollection registers a collection owned by caller. Admins and
// writers may create.
func (m *Market) CreateCollection(ctx context.Context, caller types.Address, limit uint64, tmpl collection.Template, noCap bool) (uint64, error) {
	var cid uint64
	err := m.exec(ctx, func() error {
		var err error
		cid, err = m.collections.Create(caller, limit, tmpl, noCap)
		return err
	})
	return cid, err
}

// ExtendCollection raises a collection's cap. Creator only.
func (m *Market) ExtendCollection(ctx context.Context, caller types.Address, cid, extra uint64) error {
	return m.exec(ctx, func() error {
		return m.collections.Extend(caller, cid, extra)
	})
}

// UpdateCollection replaces a collection's template for future mints.
// Creator only.
func (m *Market) UpdateCollection(ctx context.Context, caller types.Address, cid uint64, tmpl collection.Template) error {
	return m.exec(ctx, func() error {
		return m.collections.Update(caller, cid, tmpl)
	})
}

// DeleteCollection closes a collection to further mints. Creator only.
func (m *Market) DeleteCollection(ctx context.Context, caller types.Address, cid uint64) error {
	return m.exec(ctx, func() error {
		return m.collections.Delete(caller, cid)
	})
}

// BurnCollectionItems burns items owned by caller.
func (m *Market) BurnCollectionItems(ctx context.Context, caller types.Address, ids []uint64) error {
	return m.exec(ctx, func() error {
		return m.collections.Burn(caller, ids)
	})
}

// Collection returns a collection, deleted or not.
func (m *Market) Collection(cid uint64) (collection.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collections.Collection(cid)
}

// Collections returns every collection in id order.
func (m *Market) Collections() []collection.Collection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collections.List()
}

// CollectionItem returns an item minted from a collection.
func (m *Market) CollectionItem(iid uint64) (collection.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collections.Item(iid)
}

// ──────────────────────────────────────────────────
// Custom pool
// ──────────────────────────────────────────────────

// BurnPoolItems burns custom items owned by caller.
func (m *Market) BurnPoolItems(ctx context.Context, caller types.Address, ids []uint64) error {
	return m.exec(ctx, func() error {
		return m.pool.BurnBatch(caller, ids)
	})
}

// PoolItem returns a custom item.
func (m *Market) PoolItem(iid uint64) (pool.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pool.Item(iid)
}

// PoolSupply returns how many custom items have ever been minted.
func (m *Market) PoolSupply() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pool.Supply()
}

// ──────────────────────────────────────────────────
// Orders
// ──────────────────────────────────────────────────

// SetOrderStatus sets an order's status label. Assigned fulfiller only.
func (m *Market) SetOrderStatus(ctx context.Context, caller types.Address, oid uint64, status string) error {
	return m.exec(ctx, func() error {
		return m.orders.SetStatus(caller, oid, status)
	})
}

// SetOrderFulfilled marks an order fulfilled. Assigned fulfiller only;
// cannot be undone.
func (m *Market) SetOrderFulfilled(ctx context.Context, caller types.Address, oid uint64) error {
	return m.exec(ctx, func() error {
		return m.orders.SetFulfilled(caller, oid)
	})
}

// SetOrderDetails replaces an order's delivery details. Buyer only.
func (m *Market) SetOrderDetails(ctx context.Context, caller types.Address, oid uint64, details string) error {
	return m.exec(ctx, func() error {
		return m.orders.SetDetails(caller, oid, details)
	})
}

// Order returns an order.
func (m *Market) Order(oid uint64) (order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orders.Order(oid)
}

// OrdersByBuyer returns buyer's orders in id order.
func (m *Market) OrdersByBuyer(buyer types.Address) []order.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orders.ByBuyer(buyer)
}

// OrdersByFulfiller returns the orders assigned to a fulfiller in id order.
func (m *Market) OrdersByFulfiller(fid uint64) []order.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orders.ByFulfiller(fid)
}

// Identities returns the component addresses.
func (m *Market) Identities() Identities { return m.ids }

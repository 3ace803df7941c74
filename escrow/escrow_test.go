package escrow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mercato/access"
	"github.com/xraph/mercato/composite"
	"github.com/xraph/mercato/constituent"
	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/escrow"
	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/fulfillment"
	"github.com/xraph/mercato/types"
)

type fixture struct {
	composites   *composite.Ledger
	constituents *constituent.Ledger
	escrow       *escrow.Coordinator
	events       []event.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	roles := access.NewRegistry("admin")
	require.NoError(t, roles.Grant("admin", "releaser", access.RoleReleaseAuthority))

	fulfillers := fulfillment.NewRegistry(roles)
	_, err := fulfillers.Create("admin", types.Percent(10), "f1")
	require.NoError(t, err)

	f := &fixture{}
	sink := event.SinkFunc(func(e event.Event) { f.events = append(f.events, e) })

	f.constituents = constituent.New(constituent.Config{
		Identity: "constituents",
		Minter:   "composites",
		Escrow:   "escrow",
	})
	f.composites = composite.New(composite.Config{
		Identity:     "composites",
		Escrow:       "escrow",
		Authorizer:   roles,
		Fulfillers:   fulfillers,
		Constituents: f.constituents,
		Events:       sink,
	})
	f.escrow = escrow.New(escrow.Config{Identity: "escrow", Authorizer: roles, Events: sink})
	f.escrow.Bind(f.composites, f.constituents)
	return f
}

func (f *fixture) mint(t *testing.T, children int) composite.Minted {
	t.Helper()
	req := composite.MintRequest{
		URI:         "ipfs://parent",
		Category:    "hoodie",
		Price:       types.Units(100, 18),
		FulfillerID: 1,
	}
	for i := 0; i < children; i++ {
		req.ConstituentURIs = append(req.ConstituentURIs, "ipfs://child")
		req.ConstituentPrices = append(req.ConstituentPrices, types.Units(20, 18))
	}
	m, err := f.composites.Mint("admin", req)
	require.NoError(t, err)
	return m
}

func TestMintDepositsEverything(t *testing.T) {
	f := newFixture(t)

	m := f.mint(t, 3)
	assert.Equal(t, uint64(1), m.CompositeID)
	assert.Equal(t, []uint64{1, 2, 3}, m.ConstituentIDs)
	assert.Equal(t, uint64(3), f.constituents.Last())

	parent, err := f.composites.Item(m.CompositeID)
	require.NoError(t, err)
	assert.Equal(t, m.ConstituentIDs, parent.Constituents)
	assert.Equal(t, types.Address("escrow"), parent.Holder)
	assert.True(t, f.escrow.IsCompositeDeposited(m.CompositeID))

	for _, cid := range m.ConstituentIDs {
		child, err := f.constituents.Item(cid)
		require.NoError(t, err)
		assert.Equal(t, m.CompositeID, child.ParentID)
		assert.Equal(t, uint64(1), child.Amount)
		assert.Equal(t, types.Address("escrow"), child.Holder)
		assert.True(t, f.escrow.IsConstituentDeposited(cid))
	}

	require.Len(t, f.events, 1)
	created := f.events[0].(event.CompositeCreated)
	assert.Equal(t, m.ConstituentIDs, created.ConstituentIDs)
	assert.Len(t, created.ConstituentURIs, 3)

	next := f.mint(t, 2)
	assert.Equal(t, uint64(2), next.CompositeID)
	assert.Equal(t, []uint64{4, 5}, next.ConstituentIDs)
}

func TestMintValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.composites.Mint("stranger", composite.MintRequest{FulfillerID: 1})
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = f.composites.Mint("admin", composite.MintRequest{FulfillerID: 9})
	assert.ErrorIs(t, err, errs.ErrInvalidFulfiller)

	_, err = f.composites.Mint("admin", composite.MintRequest{
		FulfillerID:       1,
		ConstituentURIs:   []string{"a", "b"},
		ConstituentPrices: []types.Amount{types.NewAmount(1)},
	})
	assert.ErrorIs(t, err, errs.ErrLengthMismatch)
	assert.Zero(t, f.constituents.Last())
	assert.Zero(t, f.composites.Last())
}

func TestLedgerGuards(t *testing.T) {
	f := newFixture(t)
	m := f.mint(t, 1)

	_, err := f.constituents.Mint("admin", []constituent.Spec{{URI: "x"}})
	assert.ErrorIs(t, err, errs.ErrUnauthorizedMinter)

	err = f.constituents.SetParent("admin", m.ConstituentIDs, 0)
	assert.ErrorIs(t, err, errs.ErrUnauthorizedParentUpdate)

	err = f.constituents.Burn("admin", m.ConstituentIDs)
	assert.ErrorIs(t, err, errs.ErrUnauthorizedBurn)

	_, err = f.composites.Burn("admin", m.CompositeID)
	assert.ErrorIs(t, err, errs.ErrUnauthorizedBurn)

	err = f.escrow.DepositComposite("admin", 42)
	assert.ErrorIs(t, err, errs.ErrUnauthorizedDeposit)

	err = f.escrow.DepositComposite("composites", m.CompositeID)
	assert.ErrorIs(t, err, errs.ErrAlreadyDeposited)
}

func TestReleaseComposite(t *testing.T) {
	f := newFixture(t)
	m := f.mint(t, 3)

	err := f.escrow.ReleaseComposite("admin", m.CompositeID)
	assert.ErrorIs(t, err, errs.ErrUnauthorized, "admin does not hold release authority")

	require.NoError(t, f.escrow.ReleaseComposite("releaser", m.CompositeID))

	_, err = f.composites.Item(m.CompositeID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.False(t, f.escrow.IsCompositeDeposited(m.CompositeID))

	for _, cid := range m.ConstituentIDs {
		child, err := f.constituents.Item(cid)
		require.NoError(t, err)
		assert.Zero(t, child.ParentID)
		assert.False(t, child.Burned)
		assert.True(t, f.escrow.IsConstituentDeposited(cid))
	}

	assert.Equal(t, event.CompositeReleased{CompositeID: m.CompositeID}, f.events[len(f.events)-1])

	err = f.escrow.ReleaseComposite("releaser", m.CompositeID)
	assert.ErrorIs(t, err, errs.ErrNotInEscrow)
	assert.ErrorIs(t, err, errs.ErrInvalidState)
}

func TestReleaseUnknownCompositeDetachesNothing(t *testing.T) {
	f := newFixture(t)
	m := f.mint(t, 2)

	err := f.escrow.ReleaseComposite("releaser", 99)
	assert.ErrorIs(t, err, errs.ErrNotInEscrow)

	child, err := f.constituents.Item(m.ConstituentIDs[0])
	require.NoError(t, err)
	assert.Equal(t, m.CompositeID, child.ParentID)
}

func TestReleaseConstituents(t *testing.T) {
	f := newFixture(t)
	m := f.mint(t, 3)
	a, b, c := m.ConstituentIDs[0], m.ConstituentIDs[1], m.ConstituentIDs[2]

	require.NoError(t, f.escrow.ReleaseConstituents("releaser", []uint64{a, b}))

	parent, err := f.composites.Item(m.CompositeID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{c}, parent.Constituents)

	assert.False(t, f.escrow.IsConstituentDeposited(a))
	assert.False(t, f.escrow.IsConstituentDeposited(b))
	assert.True(t, f.escrow.IsConstituentDeposited(c))

	released, err := f.constituents.Item(a)
	require.NoError(t, err)
	assert.True(t, released.Burned)
	assert.Zero(t, released.Amount)
	assert.Zero(t, released.ParentID)

	assert.Equal(t, event.ConstituentsReleased{ConstituentIDs: []uint64{a, b}}, f.events[len(f.events)-1])
}

func TestReleaseConstituentsIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	m := f.mint(t, 3)
	a, b, c := m.ConstituentIDs[0], m.ConstituentIDs[1], m.ConstituentIDs[2]
	require.NoError(t, f.escrow.ReleaseConstituents("releaser", []uint64{a}))

	err := f.escrow.ReleaseConstituents("releaser", []uint64{b, a})
	assert.ErrorIs(t, err, errs.ErrNotInEscrow)
	assert.True(t, f.escrow.IsConstituentDeposited(b))

	err = f.escrow.ReleaseConstituents("releaser", []uint64{c, c})
	assert.ErrorIs(t, err, errs.ErrDuplicateID)

	err = f.escrow.ReleaseConstituents("releaser", nil)
	assert.ErrorIs(t, err, errs.ErrEmptyBatch)

	parent, err := f.composites.Item(m.CompositeID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{b, c}, parent.Constituents)
}

func TestIDsSurviveBurns(t *testing.T) {
	f := newFixture(t)
	first := f.mint(t, 2)
	require.NoError(t, f.escrow.ReleaseConstituents("releaser", first.ConstituentIDs))
	require.NoError(t, f.escrow.ReleaseComposite("releaser", first.CompositeID))

	next := f.mint(t, 1)
	assert.Equal(t, uint64(2), next.CompositeID)
	assert.Equal(t, []uint64{3}, next.ConstituentIDs)
}

func TestSnapshotRestore(t *testing.T) {
	f := newFixture(t)
	m := f.mint(t, 2)
	require.NoError(t, f.escrow.ReleaseConstituents("releaser", m.ConstituentIDs[:1]))

	escrowState := f.escrow.Snapshot()
	compositeState := f.composites.Snapshot()
	constituentState := f.constituents.Snapshot()
	assert.Equal(t, []uint64{1}, escrowState.Composites)
	assert.Equal(t, []uint64{2}, escrowState.Constituents)

	g := newFixture(t)
	g.constituents.Restore(constituentState)
	g.composites.Restore(compositeState)
	g.escrow.Restore(escrowState)

	assert.True(t, g.escrow.IsConstituentDeposited(2))
	assert.False(t, g.escrow.IsConstituentDeposited(1))
	require.NoError(t, g.escrow.ReleaseComposite("releaser", 1))

	next := g.mint(t, 1)
	assert.Equal(t, uint64(2), next.CompositeID)
	assert.Equal(t, []uint64{3}, next.ConstituentIDs)
}

package collection_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mercato/access"
	"github.com/xraph/mercato/collection"
	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/fulfillment"
	"github.com/xraph/mercato/id"
	"github.com/xraph/mercato/types"
)

func newRegistry(t *testing.T) (*collection.Registry, *[]event.Event) {
	t.Helper()

	roles := access.NewRegistry("admin")
	require.NoError(t, roles.Grant("admin", "writer", access.RoleWriter))
	fulfillers := fulfillment.NewRegistry(roles)
	_, err := fulfillers.Create("admin", types.Percent(10), "f1")
	require.NoError(t, err)

	var events []event.Event
	r := collection.New(collection.Config{
		Market:     "market",
		Authorizer: roles,
		Fulfillers: fulfillers,
		Events:     event.SinkFunc(func(e event.Event) { events = append(events, e) }),
	})
	return r, &events
}

func template() collection.Template {
	return collection.Template{
		Price:       types.Units(100, 18),
		FulfillerID: 1,
		Sizes:       []string{"S", "M", "L"},
		URI:         "ipfs://preroll",
		Category:    "tee",
	}
}

func TestCreate(t *testing.T) {
	r, events := newRegistry(t)

	cid, err := r.Create("writer", 20, template(), false)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cid)

	c, err := r.Collection(cid)
	require.NoError(t, err)
	assert.Equal(t, types.Address("writer"), c.Creator)
	assert.Equal(t, uint64(20), c.Cap)
	assert.Equal(t, []string{"S", "M", "L"}, c.Template.Sizes)

	assert.Equal(t, event.CollectionCreated{CollectionID: 1, URI: "ipfs://preroll", Cap: 20, Creator: "writer"}, (*events)[0])

	_, err = r.Create("stranger", 20, template(), false)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	bad := template()
	bad.FulfillerID = 7
	_, err = r.Create("admin", 20, bad, false)
	assert.ErrorIs(t, err, errs.ErrInvalidFulfiller)
}

func TestCapEnforcement(t *testing.T) {
	r, _ := newRegistry(t)
	cid, err := r.Create("admin", 20, template(), false)
	require.NoError(t, err)

	_, err = r.Mint("market", cid, 21, "buyer", "buyer")
	assert.ErrorIs(t, err, errs.ErrCapExceeded)

	ids, err := r.Mint("market", cid, 20, "buyer", "buyer")
	require.NoError(t, err)
	assert.Len(t, ids, 20)
	assert.Equal(t, uint64(1), ids[0])
	assert.Equal(t, uint64(20), ids[19])

	_, err = r.Mint("market", cid, 1, "buyer", "buyer")
	assert.ErrorIs(t, err, errs.ErrCapExceeded)

	_, err = r.Mint("buyer", cid, 1, "buyer", "buyer")
	assert.ErrorIs(t, err, errs.ErrNotMarket)
}

func TestNoCap(t *testing.T) {
	r, _ := newRegistry(t)
	cid, err := r.Create("admin", 0, template(), true)
	require.NoError(t, err)

	_, err = r.CheckMint(cid, 1_000_000)
	require.NoError(t, err)

	ids, err := r.Mint("market", cid, 500, "buyer", "buyer")
	require.NoError(t, err)
	assert.Len(t, ids, 500)
}

func TestAmountLimits(t *testing.T) {
	r, _ := newRegistry(t)

	capped, err := r.Create("admin", 5, template(), false)
	require.NoError(t, err)
	_, err = r.Mint("market", capped, 3, "buyer", "buyer")
	require.NoError(t, err)

	assert.ErrorIs(t, r.Extend("admin", capped, math.MaxUint64-2), errs.ErrInvalidAmount)
	c, err := r.Collection(capped)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), c.Cap)

	_, err = r.CheckMint(capped, math.MaxUint64)
	assert.ErrorIs(t, err, errs.ErrCapExceeded)
	_, err = r.Mint("market", capped, 3, "buyer", "buyer")
	assert.ErrorIs(t, err, errs.ErrCapExceeded)

	require.NoError(t, r.Extend("admin", capped, math.MaxUint64-5))
	c, err = r.Collection(capped)
	require.NoError(t, err)
	left, bounded := c.Remaining()
	assert.True(t, bounded)
	assert.Equal(t, uint64(math.MaxUint64-3), left)

	uncapped, err := r.Create("admin", 0, template(), true)
	require.NoError(t, err)
	_, err = r.CheckMint(uncapped, id.MaxBatch+1)
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)
	_, err = r.Mint("market", uncapped, math.MaxUint64, "buyer", "buyer")
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)
}

func TestRemainingNeverWraps(t *testing.T) {
	left, bounded := collection.Collection{Cap: 2, Minted: 5}.Remaining()
	assert.True(t, bounded)
	assert.Zero(t, left)

	_, bounded = collection.Collection{NoCap: true, Minted: 5}.Remaining()
	assert.False(t, bounded)
}

func TestExtendAndDelete(t *testing.T) {
	r, events := newRegistry(t)
	cid, err := r.Create("admin", 2, template(), false)
	require.NoError(t, err)

	assert.ErrorIs(t, r.Extend("writer", cid, 3), errs.ErrNotCollectionCreator)
	require.NoError(t, r.Extend("admin", cid, 3))
	_, err = r.Mint("market", cid, 4, "buyer", "buyer")
	require.NoError(t, err)

	require.NoError(t, r.Delete("admin", cid))
	c, err := r.Collection(cid)
	require.NoError(t, err)
	assert.True(t, c.Deleted)
	assert.Equal(t, uint64(4), c.Cap)
	assert.Equal(t, uint64(4), c.Minted)

	assert.ErrorIs(t, r.Delete("admin", cid), errs.ErrAlreadyDeleted)
	assert.ErrorIs(t, r.Extend("admin", cid, 1), errs.ErrCollectionDeleted)
	_, err = r.Mint("market", cid, 1, "buyer", "buyer")
	assert.ErrorIs(t, err, errs.ErrCollectionDeleted)

	it, err := r.Item(1)
	require.NoError(t, err)
	assert.False(t, it.Burned)

	assert.Equal(t, event.CollectionExtended{CollectionID: cid, Added: 3, Creator: "admin"}, (*events)[1])
	assert.Equal(t, event.CollectionDeleted{CollectionID: cid, Creator: "admin"}, (*events)[2])
}

func TestItemsKeepMintTimeTemplate(t *testing.T) {
	r, _ := newRegistry(t)
	cid, err := r.Create("admin", 10, template(), false)
	require.NoError(t, err)

	ids, err := r.Mint("market", cid, 2, "buyer", "buyer")
	require.NoError(t, err)

	changed := template()
	changed.Price = types.Units(250, 18)
	changed.DiscountBps = types.Percent(20)
	require.NoError(t, r.Update("admin", cid, changed))

	old, err := r.Item(ids[0])
	require.NoError(t, err)
	assert.True(t, old.Template.Price.Equal(types.Units(100, 18)))
	assert.Zero(t, old.Template.DiscountBps)

	fresh, err := r.Mint("market", cid, 1, "buyer", "buyer")
	require.NoError(t, err)
	it, err := r.Item(fresh[0])
	require.NoError(t, err)
	assert.True(t, it.Template.Price.Equal(types.Units(250, 18)))

	c, err := r.Collection(cid)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, c.ItemIDs)
}

func TestBurn(t *testing.T) {
	r, events := newRegistry(t)
	cid, err := r.Create("admin", 10, template(), false)
	require.NoError(t, err)
	ids, err := r.Mint("market", cid, 3, "buyer", "buyer")
	require.NoError(t, err)

	assert.ErrorIs(t, r.Burn("thief", ids[:1]), errs.ErrNotOwner)
	assert.ErrorIs(t, r.Burn("buyer", []uint64{ids[0], 99}), errs.ErrItemNotFound)

	first, err := r.Item(ids[0])
	require.NoError(t, err)
	assert.False(t, first.Burned, "failed batch burns nothing")

	require.NoError(t, r.Burn("buyer", ids[:2]))
	assert.ErrorIs(t, r.Burn("buyer", ids[:1]), errs.ErrAlreadyBurned)

	last := (*events)[len(*events)-1].(event.ItemsBurned)
	assert.Equal(t, event.ItemKindCollection, last.Kind)
	assert.Equal(t, ids[:2], last.IDs)

	more, err := r.Mint("market", cid, 1, "buyer", "buyer")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), more[0])
}

func TestSnapshotRestore(t *testing.T) {
	r, _ := newRegistry(t)
	cid, err := r.Create("admin", 10, template(), false)
	require.NoError(t, err)
	_, err = r.Mint("market", cid, 3, "buyer", "buyer")
	require.NoError(t, err)

	restored, _ := newRegistry(t)
	restored.Restore(r.Snapshot())

	c, err := restored.Collection(cid)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), c.Minted)

	ids, err := restored.Mint("market", cid, 1, "buyer", "buyer")
	require.NoError(t, err)
	assert.Equal(t, []uint64{4}, ids)

	next, err := restored.Create("admin", 1, template(), false)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next)
}

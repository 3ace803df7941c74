package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/id"
	"github.com/xraph/mercato/pool"
	"github.com/xraph/mercato/types"
)

func spec() pool.Spec {
	return pool.Spec{
		ProfileID:   1,
		URI:         "ipfs://custom",
		Creator:     "admin",
		Token:       "eth",
		UnitPrice:   types.MustAmount("120000000000000000"),
		FulfillerID: 1,
		Owner:       "buyer",
	}
}

func TestMint(t *testing.T) {
	p := pool.New("market")

	ids, err := p.Mint("market", spec(), 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, ids)

	it, err := p.Item(2)
	require.NoError(t, err)
	assert.Equal(t, types.Address("buyer"), it.Owner)
	assert.Equal(t, "ipfs://custom", it.URI)
	assert.True(t, it.UnitPrice.Equal(types.MustAmount("120000000000000000")))

	_, err = p.Mint("buyer", spec(), 1)
	assert.ErrorIs(t, err, errs.ErrNotMarket)

	_, err = p.Mint("market", spec(), 0)
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)

	_, err = p.Mint("market", spec(), id.MaxBatch+1)
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)
	assert.Equal(t, uint64(2), p.Supply())
}

func TestBurnKeepsSupplyMonotonic(t *testing.T) {
	var events []event.Event
	p := pool.New("market", pool.WithEvents(event.SinkFunc(func(e event.Event) { events = append(events, e) })))

	_, err := p.Mint("market", spec(), 3)
	require.NoError(t, err)

	assert.ErrorIs(t, p.Burn("thief", 1), errs.ErrNotOwner)
	require.NoError(t, p.Burn("buyer", 1))
	assert.ErrorIs(t, p.Burn("buyer", 1), errs.ErrAlreadyBurned)

	assert.ErrorIs(t, p.BurnBatch("buyer", []uint64{2, 1}), errs.ErrAlreadyBurned)
	it, err := p.Item(2)
	require.NoError(t, err)
	assert.False(t, it.Burned)

	require.NoError(t, p.BurnBatch("buyer", []uint64{2, 3}))
	assert.Equal(t, uint64(3), p.Supply())

	ids, err := p.Mint("market", spec(), 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{4}, ids)

	require.Len(t, events, 2)
	assert.Equal(t, event.ItemsBurned{Kind: event.ItemKindPool, IDs: []uint64{2, 3}, Owner: "buyer"}, events[1])
}

func TestSnapshotRestore(t *testing.T) {
	p := pool.New("market")
	_, err := p.Mint("market", spec(), 2)
	require.NoError(t, err)

	q := pool.New("market")
	q.Restore(p.Snapshot())
	assert.Equal(t, uint64(2), q.Supply())

	ids, err := q.Mint("market", spec(), 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, ids)
}

package fulfillment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mercato/access"
	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/fulfillment"
	"github.com/xraph/mercato/types"
)

func TestRegistryLifecycle(t *testing.T) {
	r := fulfillment.NewRegistry(access.NewRegistry("admin"))

	first, err := r.Create("admin", types.Percent(10), "fulfiller-one")
	require.NoError(t, err)
	second, err := r.Create("admin", types.Percent(34), "fulfiller-two")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(2), second)

	f, ok := r.Fulfiller(second)
	require.True(t, ok)
	assert.Equal(t, types.Address("fulfiller-two"), f.Address)
	assert.Equal(t, types.Bps(3400), f.Share)

	_, err = r.Create("stranger", types.Percent(5), "x")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	_, err = r.Create("admin", 10001, "x")
	assert.ErrorIs(t, err, errs.ErrInvalidShare)

	require.NoError(t, r.Remove("admin", first))
	assert.False(t, r.FulfillerExists(first))
	assert.ErrorIs(t, r.Remove("admin", first), errs.ErrNotFound)

	third, err := r.Create("admin", types.Percent(1), "fulfiller-three")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), third, "removed ids are not reissued")
}

func TestOnlyFulfillerUpdates(t *testing.T) {
	r := fulfillment.NewRegistry(access.NewRegistry("admin"))
	fid, err := r.Create("admin", types.Percent(10), "fulfiller")
	require.NoError(t, err)

	assert.ErrorIs(t, r.UpdateShare("admin", fid, types.Percent(20)), errs.ErrNotFulfiller)
	require.NoError(t, r.UpdateShare("fulfiller", fid, types.Percent(20)))

	require.NoError(t, r.UpdateAddress("fulfiller", fid, "new-address"))
	assert.ErrorIs(t, r.UpdateAddress("fulfiller", fid, "again"), errs.ErrNotFulfiller)

	f, _ := r.Fulfiller(fid)
	assert.Equal(t, types.Address("new-address"), f.Address)
	assert.Equal(t, types.Percent(20), f.Share)
}

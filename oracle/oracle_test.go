package oracle_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mercato/access"
	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/oracle"
	"github.com/xraph/mercato/types"
)

func TestStaticOracle(t *testing.T) {
	ctx := context.Background()
	o := oracle.NewStatic(access.NewRegistry("admin"))

	_, err := o.USDPrice(ctx, "eth")
	assert.ErrorIs(t, err, errs.ErrNoPrice)

	err = o.SetPrices("admin", []types.Address{"eth", "usdt"}, []types.Amount{types.Units(1000, 18), types.Units(1, 18)})
	require.NoError(t, err)

	p, err := o.USDPrice(ctx, "eth")
	require.NoError(t, err)
	assert.True(t, p.Equal(types.Units(1000, 18)))

	err = o.SetPrices("stranger", []types.Address{"eth"}, []types.Amount{types.Units(1, 18)})
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	err = o.SetPrices("admin", []types.Address{"eth"}, nil)
	assert.ErrorIs(t, err, errs.ErrLengthMismatch)

	require.NoError(t, o.SetPrices("admin", []types.Address{"eth"}, []types.Amount{types.Zero}))
	_, err = o.USDPrice(ctx, "eth")
	assert.ErrorIs(t, err, errs.ErrNoPrice)
}

package settlement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/order"
	"github.com/xraph/mercato/settlement"
	"github.com/xraph/mercato/types"
)

func usd(n int64) types.Amount { return types.Units(n, settlement.USDDecimals) }

func TestToToken(t *testing.T) {
	tests := []struct {
		name     string
		usd      types.Amount
		price    types.Amount
		decimals int32
		want     string
	}{
		{"eth at 1000", usd(100), usd(1000), 18, "100000000000000000"},
		{"stable 1:1 six decimals", usd(100), usd(1), 6, "100000000"},
		{"stable 1:1 eighteen decimals", usd(100), usd(1), 18, "100000000000000000000"},
		{"truncates", usd(1), usd(3), 6, "333333"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := settlement.ToToken(tt.usd, tt.price, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	_, err := settlement.ToToken(usd(1), types.Zero, 18)
	assert.ErrorIs(t, err, errs.ErrNoPrice)
}

func TestDiscounted(t *testing.T) {
	assert.True(t, settlement.Discounted(usd(100), types.Percent(20)).Equal(usd(80)))
	assert.True(t, settlement.Discounted(usd(100), 0).Equal(usd(100)))
}

func TestDivideNeverLeaks(t *testing.T) {
	totals := []types.Amount{
		types.NewAmount(1),
		types.NewAmount(7),
		types.NewAmount(9999),
		types.MustAmount("333333333333333333"),
		types.MustAmount("1000000000000000001"),
	}
	shares := [][2]types.Bps{{0, 0}, {1000, 0}, {3400, 250}, {3333, 3333}, {10000, 0}}

	for _, total := range totals {
		for _, sh := range shares {
			s, err := settlement.Divide(total, sh[0], sh[1])
			require.NoError(t, err)
			assert.True(t, s.Total().Equal(total), "total %s shares %v", total, sh)
			assert.False(t, s.Creator.IsNegative())
		}
	}

	_, err := settlement.Divide(types.NewAmount(10), 6000, 5000)
	assert.ErrorIs(t, err, errs.ErrInvalidShare)
}

func TestLinePrice(t *testing.T) {
	l := settlement.Line{
		Kind:          order.KindCustom,
		Units:         2,
		UnitUSD:       usd(120),
		Creator:       "admin",
		FulfillerAddr: "f1",
	}
	require.NoError(t, l.Price(usd(1000), 18, types.Percent(10), 0))

	assert.Equal(t, "120000000000000000", l.UnitPrice.String())
	assert.Equal(t, "240000000000000000", l.Total.String())
	assert.Equal(t, "24000000000000000", l.Split.Fulfiller.String())
	assert.Equal(t, "216000000000000000", l.Split.Creator.String())

	q := settlement.Quote{Buyer: "buyer", Token: "eth", Lines: []settlement.Line{l}}
	transfers := q.Transfers("platform")
	require.Len(t, transfers, 3)
	assert.Equal(t, types.Address("f1"), transfers[0].To)
	assert.True(t, transfers[1].Amount.IsZero())
	assert.Equal(t, types.Address("admin"), transfers[2].To)
	assert.Equal(t, types.Address("buyer"), transfers[2].From)
}

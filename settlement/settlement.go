// Package settlement prices cart lines and splits their proceeds. It holds
// no state.
package settlement

import (
	"github.com/xraph/mercato/custody"
	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/order"
	"github.com/xraph/mercato/types"
)

// USDDecimals is the number of fractional digits of USD amounts and oracle
// prices.
const USDDecimals = 18

// ToToken converts a USD amount to base units of a token with the given
// decimals, at price USD per whole token. The result is truncated toward
// zero.
func ToToken(usd, price types.Amount, decimals int32) (types.Amount, error) {
	if !price.IsPositive() {
		return types.Zero, errs.ErrNoPrice
	}
	return usd.Shift(decimals).QuoTrunc(price), nil
}

// Discounted returns price less discount, truncated toward zero.
func Discounted(price types.Amount, discount types.Bps) types.Amount {
	return price.Sub(discount.Of(price))
}

// Split is the three-way division of a line total.
type Split struct {
	Fulfiller types.Amount `json:"fulfiller"`
	Platform  types.Amount `json:"platform"`
	Creator   types.Amount `json:"creator"`
}

// Total returns the sum of the three cuts.
func (s Split) Total() types.Amount {
	return types.Sum(s.Fulfiller, s.Platform, s.Creator)
}

// Divide splits total between fulfiller, platform and creator. The creator
// receives whatever the truncated fulfiller and platform cuts leave, so the
// cuts always add up to total.
func Divide(total types.Amount, fulfiller, platform types.Bps) (Split, error) {
	if !fulfiller.Valid() || !platform.Valid() || fulfiller+platform > types.BpsDenominator {
		return Split{}, errs.ErrInvalidShare
	}
	s := Split{
		Fulfiller: fulfiller.Of(total),
		Platform:  platform.Of(total),
	}
	s.Creator = total.Sub(s.Fulfiller).Sub(s.Platform)
	return s, nil
}

// Line is one priced cart line. UnitUSD is in USD, UnitPrice and Total in
// base units of the chosen token.
type Line struct {
	Kind          order.Kind    `json:"kind"`
	ProfileID     uint64        `json:"profile_id"`
	Units         uint64        `json:"units"`
	URI           string        `json:"uri,omitempty"`
	UnitUSD       types.Amount  `json:"unit_usd"`
	UnitPrice     types.Amount  `json:"unit_price"`
	Total         types.Amount  `json:"total"`
	Creator       types.Address `json:"creator"`
	FulfillerID   uint64        `json:"fulfiller_id"`
	FulfillerAddr types.Address `json:"fulfiller_address"`
	Split         Split         `json:"split"`
}

// Price fills UnitPrice, Total and Split from UnitUSD and Units.
func (l *Line) Price(oraclePrice types.Amount, decimals int32, fulfillerShare, platformShare types.Bps) error {
	unit, err := ToToken(l.UnitUSD, oraclePrice, decimals)
	if err != nil {
		return err
	}
	l.UnitPrice = unit
	l.Total = unit.Mul(l.Units)
	l.Split, err = Divide(l.Total, fulfillerShare, platformShare)
	return err
}

// Transfers returns the payments buyer owes for the line.
func (l Line) Transfers(token, buyer, platform types.Address) []custody.Transfer {
	return []custody.Transfer{
		{Token: token, From: buyer, To: l.FulfillerAddr, Amount: l.Split.Fulfiller},
		{Token: token, From: buyer, To: platform, Amount: l.Split.Platform},
		{Token: token, From: buyer, To: l.Creator, Amount: l.Split.Creator},
	}
}

// Quote is a fully priced cart.
type Quote struct {
	Buyer       types.Address `json:"buyer"`
	Token       types.Address `json:"token"`
	Decimals    int32         `json:"decimals"`
	OraclePrice types.Amount  `json:"oracle_price"`
	Lines       []Line        `json:"lines"`
	Total       types.Amount  `json:"total"`
}

// Transfers returns every payment of the quote in line order.
func (q *Quote) Transfers(platform types.Address) []custody.Transfer {
	var out []custody.Transfer
	for _, l := range q.Lines {
		out = append(out, l.Transfers(q.Token, q.Buyer, platform)...)
	}
	return out
}

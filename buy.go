package mercato

import (
	"context"
	"fmt"
	"math"

	"github.com/xraph/mercato/custody"
	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/fulfillment"
	"github.com/xraph/mercato/id"
	"github.com/xraph/mercato/order"
	"github.com/xraph/mercato/pool"
	"github.com/xraph/mercato/settlement"
	"github.com/xraph/mercato/types"
)

// Cart is a purchase request. Collection lines and custom lines are given
// as parallel arrays. A custom line's profile id is a constituent id: the
// unit price is that constituent's price plus its composite's price.
type Cart struct {
	CollectionIDs     []uint64      `json:"collection_ids"`
	CollectionAmounts []uint64      `json:"collection_amounts"`
	ProfileIDs        []uint64      `json:"profile_ids"`
	CompositeAmounts  []uint64      `json:"composite_amounts"`
	CompositeURIs     []string      `json:"composite_uris"`
	Details           string        `json:"details"`
	Token             types.Address `json:"chosen_token"`

	// IdempotencyKey, when set and a guard is configured, makes a repeated
	// submission fail with errs.ErrIdempotencyConflict.
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// Purchase is the result of a settled cart. OrderIDs has one id per line,
// collection lines first.
type Purchase struct {
	ID       id.PurchaseID     `json:"id"`
	Buyer    types.Address     `json:"buyer"`
	Token    types.Address     `json:"token"`
	OrderIDs []uint64          `json:"order_ids"`
	Lines    []settlement.Line `json:"lines"`
	Total    types.Amount      `json:"total"`
}

// Quote prices cart for buyer without changing any state. It fails exactly
// as Buy would before moving funds.
func (m *Market) Quote(ctx context.Context, buyer types.Address, cart Cart) (*settlement.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.quote(ctx, buyer, cart)
}

// Buy settles cart for buyer: it pays every recipient, mints the items and
// appends one order per line. Either all of it happens or none of it.
func (m *Market) Buy(ctx context.Context, buyer types.Address, cart Cart) (*Purchase, error) {
	claimed := false
	if cart.IdempotencyKey != "" && m.guard != nil {
		if err := m.guard.Claim(ctx, cart.IdempotencyKey); err != nil {
			return nil, err
		}
		claimed = true
	}

	var p *Purchase
	err := m.exec(ctx, func() error {
		var err error
		p, err = m.buy(ctx, buyer, cart)
		return err
	})
	if err != nil {
		if claimed {
			if rerr := m.guard.Release(ctx, cart.IdempotencyKey); rerr != nil {
				m.logger.Warn("failed to release idempotency key",
					"key", cart.IdempotencyKey,
					"error", rerr,
				)
			}
		}
		return nil, err
	}
	return p, nil
}

func (m *Market) buy(ctx context.Context, buyer types.Address, cart Cart) (*Purchase, error) {
	q, err := m.quote(ctx, buyer, cart)
	if err != nil {
		return nil, err
	}

	if err := custody.Settle(ctx, m.custody, q.Transfers(m.platform)); err != nil {
		return nil, fmt.Errorf("mercato: settle: %w", err)
	}

	// Every mint below was checked by quote under the same lock.
	pid := id.NewPurchaseID()
	drafts := make([]order.Draft, len(q.Lines))
	items := make([][]uint64, len(q.Lines))
	for i := range q.Lines {
		l := &q.Lines[i]
		switch l.Kind {
		case order.KindPreroll:
			items[i], err = m.collections.Mint(m.ids.Market, l.ProfileID, l.Units, buyer, buyer)
		case order.KindCustom:
			items[i], err = m.pool.Mint(m.ids.Market, pool.Spec{
				ProfileID:   l.ProfileID,
				URI:         l.URI,
				Creator:     l.Creator,
				Token:       q.Token,
				UnitPrice:   l.UnitPrice,
				FulfillerID: l.FulfillerID,
				Owner:       buyer,
			}, l.Units)
		}
		if err != nil {
			return nil, fmt.Errorf("mercato: mint line %d after settlement: %w", i, err)
		}

		drafts[i] = order.Draft{
			PurchaseID:  pid.String(),
			Buyer:       buyer,
			Kind:        l.Kind,
			ProfileID:   l.ProfileID,
			FulfillerID: l.FulfillerID,
			Token:       q.Token,
			Units:       l.Units,
			ItemIDs:     items[i],
			UnitPrice:   l.UnitPrice,
			Total:       l.Total,
			Details:     cart.Details,
		}
	}

	orderIDs, err := m.orders.Append(m.ids.Market, drafts)
	if err != nil {
		return nil, fmt.Errorf("mercato: append orders: %w", err)
	}

	bought := make([]event.BoughtLine, len(q.Lines))
	for i, l := range q.Lines {
		bought[i] = event.BoughtLine{
			Kind:      string(l.Kind),
			ProfileID: l.ProfileID,
			Amount:    l.Units,
			UnitPrice: l.UnitPrice,
			Total:     l.Total,
			ItemIDs:   items[i],
			OrderID:   orderIDs[i],
		}
	}
	m.emit(event.TokensBought{
		PurchaseID: pid.String(),
		Buyer:      buyer,
		Token:      q.Token,
		Lines:      bought,
		Total:      q.Total,
	})

	return &Purchase{
		ID:       pid,
		Buyer:    buyer,
		Token:    q.Token,
		OrderIDs: orderIDs,
		Lines:    q.Lines,
		Total:    q.Total,
	}, nil
}

// quote validates and prices cart. Called with m.mu held.
func (m *Market) quote(ctx context.Context, buyer types.Address, cart Cart) (*settlement.Quote, error) {
	if !m.tokens.IsVerifiedToken(cart.Token) {
		return nil, errs.ErrUnverifiedToken
	}
	if len(cart.CollectionIDs) != len(cart.CollectionAmounts) ||
		len(cart.ProfileIDs) != len(cart.CompositeAmounts) ||
		len(cart.ProfileIDs) != len(cart.CompositeURIs) {
		return nil, errs.ErrAmountMismatch
	}
	if len(cart.CollectionIDs)+len(cart.ProfileIDs) == 0 {
		return nil, errs.ErrEmptyCart
	}

	decimals, ok := m.tokens.Decimals(cart.Token)
	if !ok {
		return nil, errs.ErrUnverifiedToken
	}
	price, err := m.oracle.USDPrice(ctx, cart.Token)
	if err != nil {
		return nil, fmt.Errorf("mercato: price %s: %w", cart.Token, err)
	}

	q := &settlement.Quote{
		Buyer:       buyer,
		Token:       cart.Token,
		Decimals:    decimals,
		OraclePrice: price,
		Lines:       make([]settlement.Line, 0, len(cart.CollectionIDs)+len(cart.ProfileIDs)),
	}

	// Several lines may draw on one collection; the cap covers their sum.
	requested := make(map[uint64]uint64, len(cart.CollectionIDs))
	for i, cid := range cart.CollectionIDs {
		amount := cart.CollectionAmounts[i]
		if amount == 0 || amount > id.MaxBatch {
			return nil, errs.ErrInvalidAmount
		}
		if requested[cid] > math.MaxUint64-amount {
			return nil, fmt.Errorf("mercato: collection %d: %w", cid, errs.ErrCapExceeded)
		}
		requested[cid] += amount
		col, err := m.collections.CheckMint(cid, requested[cid])
		if err != nil {
			return nil, fmt.Errorf("mercato: collection %d: %w", cid, err)
		}
		f, err := m.fulfiller(col.Template.FulfillerID)
		if err != nil {
			return nil, err
		}

		line := settlement.Line{
			Kind:          order.KindPreroll,
			ProfileID:     cid,
			Units:         amount,
			URI:           col.Template.URI,
			UnitUSD:       settlement.Discounted(col.Template.Price, col.Template.DiscountBps),
			Creator:       col.Creator,
			FulfillerID:   f.ID,
			FulfillerAddr: f.Address,
		}
		if err := line.Price(price, decimals, f.Share, m.platformBps); err != nil {
			return nil, fmt.Errorf("mercato: collection %d: %w", cid, err)
		}
		q.Lines = append(q.Lines, line)
	}

	for i, pid := range cart.ProfileIDs {
		amount := cart.CompositeAmounts[i]
		if amount == 0 || amount > id.MaxBatch {
			return nil, errs.ErrInvalidAmount
		}
		child, err := m.constituents.Item(pid)
		if err != nil {
			return nil, fmt.Errorf("mercato: profile %d: %w", pid, err)
		}
		if child.Burned {
			return nil, fmt.Errorf("mercato: profile %d: %w", pid, errs.ErrConstituentNotFound)
		}
		parent, err := m.composites.Item(child.ParentID)
		if err != nil {
			return nil, fmt.Errorf("mercato: profile %d: %w", pid, err)
		}
		f, err := m.fulfiller(parent.FulfillerID)
		if err != nil {
			return nil, err
		}

		line := settlement.Line{
			Kind:          order.KindCustom,
			ProfileID:     pid,
			Units:         amount,
			URI:           cart.CompositeURIs[i],
			UnitUSD:       child.Price.Add(parent.Price),
			Creator:       parent.Creator,
			FulfillerID:   f.ID,
			FulfillerAddr: f.Address,
		}
		if err := line.Price(price, decimals, f.Share, m.platformBps); err != nil {
			return nil, fmt.Errorf("mercato: profile %d: %w", pid, err)
		}
		q.Lines = append(q.Lines, line)
	}

	for _, l := range q.Lines {
		q.Total = q.Total.Add(l.Total)
	}

	if m.custody.Allowance(q.Token, buyer, m.ids.Market).LessThan(q.Total) {
		return nil, errs.ErrInsufficientAllowance
	}
	if m.custody.BalanceOf(q.Token, buyer).LessThan(q.Total) {
		return nil, errs.ErrInsufficientBalance
	}
	return q, nil
}

func (m *Market) fulfiller(fid uint64) (fulfillment.Fulfiller, error) {
	f, ok := m.fulfillers.Fulfiller(fid)
	if !ok {
		return fulfillment.Fulfiller{}, fmt.Errorf("mercato: fulfiller %d: %w", fid, errs.ErrInvalidFulfiller)
	}
	return f, nil
}

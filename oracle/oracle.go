// Package oracle supplies USD prices for payment tokens.
package oracle

import (
	"context"
	"sync"

	"github.com/xraph/mercato/access"
	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/types"
)

// PriceOracle returns the USD price of one whole token, scaled by 10^18.
type PriceOracle interface {
	USDPrice(ctx context.Context, token types.Address) (types.Amount, error)
}

// Static is an admin-settable PriceOracle.
type Static struct {
	mu     sync.RWMutex
	auth   access.Authorizer
	prices map[types.Address]types.Amount
}

var _ PriceOracle = (*Static)(nil)

// NewStatic creates an oracle with no prices.
func NewStatic(auth access.Authorizer) *Static {
	return &Static{auth: auth, prices: make(map[types.Address]types.Amount)}
}

// SetPrices sets the USD price of each token. Admin only.
func (s *Static) SetPrices(caller types.Address, tokens []types.Address, prices []types.Amount) error {
	if err := access.Require(s.auth, caller, access.RoleAdmin); err != nil {
		return err
	}
	if len(tokens) != len(prices) {
		return errs.ErrLengthMismatch
	}
	for _, p := range prices {
		if p.IsNegative() {
			return errs.ErrInvalidAmount
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tok := range tokens {
		s.prices[tok] = prices[i]
	}
	return nil
}

// USDPrice implements PriceOracle. A token without a positive price fails
// with errs.ErrNoPrice.
func (s *Static) USDPrice(_ context.Context, token types.Address) (types.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prices[token]
	if !ok || !p.IsPositive() {
		return types.Zero, errs.ErrNoPrice
	}
	return p, nil
}

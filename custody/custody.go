// Package custody is the boundary to the external ledger that holds payment
// tokens. The engine only reads balances and allowances and moves tokens
// from a buyer to payees.
package custody

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/types"
)

// Transfer moves Amount of Token from From to To.
type Transfer struct {
	Token  types.Address `json:"token"`
	From   types.Address `json:"from"`
	To     types.Address `json:"to"`
	Amount types.Amount  `json:"amount"`
}

// Ledger is the token custody contract. Transfer is executed by the engine's
// own identity and consumes the allowance From granted it.
type Ledger interface {
	BalanceOf(token, holder types.Address) types.Amount
	Allowance(token, owner, spender types.Address) types.Amount
	Transfer(ctx context.Context, token, from, to types.Address, amount types.Amount) error
}

// Batcher is implemented by ledgers that can apply several transfers as one
// all-or-nothing unit.
type Batcher interface {
	TransferBatch(ctx context.Context, transfers []Transfer) error
}

// Reverser is implemented by ledgers that can undo a completed transfer.
type Reverser interface {
	Reverse(ctx context.Context, t Transfer) error
}

// Settle executes transfers as one unit. Zero amounts are skipped. Ledgers
// implementing Batcher apply the batch natively; otherwise transfers run in
// order and, on failure, completed ones are reversed when the ledger
// implements Reverser. The returned error always matches
// errs.ErrTransferFailed.
func Settle(ctx context.Context, l Ledger, transfers []Transfer) error {
	pending := make([]Transfer, 0, len(transfers))
	for _, t := range transfers {
		if t.Amount.IsPositive() {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	if b, ok := l.(Batcher); ok {
		return asTransferFailure(b.TransferBatch(ctx, pending))
	}

	for i, t := range pending {
		if err := l.Transfer(ctx, t.Token, t.From, t.To, t.Amount); err != nil {
			return asTransferFailure(errors.Join(err, compensate(ctx, l, pending[:i])))
		}
	}
	return nil
}

func compensate(ctx context.Context, l Ledger, done []Transfer) error {
	if len(done) == 0 {
		return nil
	}
	r, ok := l.(Reverser)
	if !ok {
		return fmt.Errorf("custody: %d completed transfers cannot be reversed", len(done))
	}
	var errList []error
	for i := len(done) - 1; i >= 0; i-- {
		if err := r.Reverse(ctx, done[i]); err != nil {
			errList = append(errList, fmt.Errorf("reverse transfer to %s: %w", done[i].To, err))
		}
	}
	return errors.Join(errList...)
}

func asTransferFailure(err error) error {
	if err == nil || errors.Is(err, errs.ErrTransferFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", errs.ErrTransferRejected, err)
}

package custody_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mercato/custody"
	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/types"
)

func funded(t *testing.T, opts ...custody.MemoryOption) *custody.Memory {
	t.Helper()
	m := custody.NewMemory("market", opts...)
	m.Mint("eth", "buyer", types.NewAmount(1000))
	m.Approve("eth", "buyer", "market", types.NewAmount(600))
	return m
}

func TestMemoryTransferConsumesAllowance(t *testing.T) {
	ctx := context.Background()
	m := funded(t)

	require.NoError(t, m.Transfer(ctx, "eth", "buyer", "seller", types.NewAmount(400)))
	assert.True(t, m.BalanceOf("eth", "seller").Equal(types.NewAmount(400)))
	assert.True(t, m.BalanceOf("eth", "buyer").Equal(types.NewAmount(600)))
	assert.True(t, m.Allowance("eth", "buyer", "market").Equal(types.NewAmount(200)))

	err := m.Transfer(ctx, "eth", "buyer", "seller", types.NewAmount(201))
	assert.ErrorIs(t, err, errs.ErrInsufficientAllowance)
}

func TestMemoryBatchIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	m := funded(t)

	err := m.TransferBatch(ctx, []custody.Transfer{
		{Token: "eth", From: "buyer", To: "a", Amount: types.NewAmount(300)},
		{Token: "eth", From: "buyer", To: "b", Amount: types.NewAmount(301)},
	})
	assert.ErrorIs(t, err, errs.ErrInsufficientAllowance)
	assert.True(t, m.BalanceOf("eth", "a").IsZero())
	assert.True(t, m.BalanceOf("eth", "buyer").Equal(types.NewAmount(1000)))
	assert.True(t, m.Allowance("eth", "buyer", "market").Equal(types.NewAmount(600)))
}

func TestSettleWrapsFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("ledger offline")
	m := funded(t, custody.WithTransferHook(func(tr custody.Transfer) error {
		if tr.To == "b" {
			return boom
		}
		return nil
	}))

	err := custody.Settle(ctx, m, []custody.Transfer{
		{Token: "eth", From: "buyer", To: "a", Amount: types.NewAmount(10)},
		{Token: "eth", From: "buyer", To: "b", Amount: types.NewAmount(10)},
	})
	assert.ErrorIs(t, err, errs.ErrTransferFailed)
	assert.ErrorIs(t, err, boom)
	assert.True(t, m.BalanceOf("eth", "a").IsZero())
}

func TestSettleSkipsZeroAmounts(t *testing.T) {
	m := funded(t, custody.WithTransferHook(func(custody.Transfer) error {
		return errors.New("must not be called")
	}))
	err := custody.Settle(context.Background(), m, []custody.Transfer{
		{Token: "eth", From: "buyer", To: "platform", Amount: types.Zero},
	})
	assert.NoError(t, err)
}

// sequential is a Ledger without batch support.
type sequential struct {
	*custody.Memory
	reversed []custody.Transfer
	failTo   types.Address
}

func (s *sequential) Transfer(ctx context.Context, token, from, to types.Address, amount types.Amount) error {
	if to == s.failTo {
		return errors.New("rejected by token contract")
	}
	return s.Memory.Transfer(ctx, token, from, to, amount)
}

func (s *sequential) Reverse(ctx context.Context, t custody.Transfer) error {
	s.reversed = append(s.reversed, t)
	s.Memory.Mint(t.Token, t.From, t.Amount)
	return nil
}

// ledgerOnly hides every optional interface of the wrapped ledger.
type ledgerOnly struct{ custody.Ledger }

// reversible exposes only Ledger and Reverser.
type reversible struct {
	custody.Ledger
	seq *sequential
}

func (r reversible) Reverse(ctx context.Context, t custody.Transfer) error {
	return r.seq.Reverse(ctx, t)
}

func TestSettleCompensatesSequentialLedgers(t *testing.T) {
	ctx := context.Background()
	batch := []custody.Transfer{
		{Token: "eth", From: "buyer", To: "a", Amount: types.NewAmount(10)},
		{Token: "eth", From: "buyer", To: "b", Amount: types.NewAmount(20)},
		{Token: "eth", From: "buyer", To: "c", Amount: types.NewAmount(30)},
	}

	s := &sequential{Memory: funded(t), failTo: "c"}
	err := custody.Settle(ctx, ledgerOnly{s}, batch)
	assert.ErrorIs(t, err, errs.ErrTransferFailed)
	assert.ErrorContains(t, err, "cannot be reversed")

	s2 := &sequential{Memory: funded(t), failTo: "c"}
	err = custody.Settle(ctx, reversible{Ledger: s2, seq: s2}, batch)
	assert.ErrorIs(t, err, errs.ErrTransferFailed)
	require.Len(t, s2.reversed, 2)
	assert.Equal(t, types.Address("b"), s2.reversed[0].To, "reversal runs newest first")
	assert.True(t, s2.BalanceOf("eth", "buyer").Equal(types.NewAmount(1000)))
}

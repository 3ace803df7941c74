package custody

import (
	"context"
	"sync"

	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/types"
)

// Memory is an in-process token ledger. Its operator is the identity that
// spends allowances when Transfer is called.
type Memory struct {
	mu         sync.Mutex
	operator   types.Address
	balances   map[holding]types.Amount
	allowances map[grant]types.Amount
	hook       func(Transfer) error
}

type holding struct {
	token, holder types.Address
}

type grant struct {
	token, owner, spender types.Address
}

var (
	_ Ledger  = (*Memory)(nil)
	_ Batcher = (*Memory)(nil)
)

// MemoryOption configures a Memory ledger.
type MemoryOption func(*Memory)

// WithTransferHook installs fn to run before every transfer. A non-nil
// return rejects the transfer.
func WithTransferHook(fn func(Transfer) error) MemoryOption {
	return func(m *Memory) { m.hook = fn }
}

// NewMemory creates an empty ledger operated by operator.
func NewMemory(operator types.Address, opts ...MemoryOption) *Memory {
	m := &Memory{
		operator:   operator,
		balances:   make(map[holding]types.Amount),
		allowances: make(map[grant]types.Amount),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mint credits holder with amount of token.
func (m *Memory) Mint(token, holder types.Address, amount types.Amount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := holding{token, holder}
	m.balances[k] = m.balances[k].Add(amount)
}

// Approve sets the allowance owner grants spender.
func (m *Memory) Approve(token, owner, spender types.Address, amount types.Amount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allowances[grant{token, owner, spender}] = amount
}

// BalanceOf implements Ledger.
func (m *Memory) BalanceOf(token, holder types.Address) types.Amount {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[holding{token, holder}]
}

// Allowance implements Ledger.
func (m *Memory) Allowance(token, owner, spender types.Address) types.Amount {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allowances[grant{token, owner, spender}]
}

// Transfer implements Ledger.
func (m *Memory) Transfer(ctx context.Context, token, from, to types.Address, amount types.Amount) error {
	return m.TransferBatch(ctx, []Transfer{{Token: token, From: from, To: to, Amount: amount}})
}

// TransferBatch implements Batcher. Either every transfer applies or none.
func (m *Memory) TransferBatch(_ context.Context, transfers []Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	balances := make(map[holding]types.Amount)
	allowances := make(map[grant]types.Amount)
	balance := func(k holding) types.Amount {
		if v, ok := balances[k]; ok {
			return v
		}
		return m.balances[k]
	}
	allowance := func(k grant) types.Amount {
		if v, ok := allowances[k]; ok {
			return v
		}
		return m.allowances[k]
	}

	for _, t := range transfers {
		if t.Amount.IsNegative() {
			return errs.ErrInvalidAmount
		}
		if m.hook != nil {
			if err := m.hook(t); err != nil {
				return err
			}
		}

		if t.From != m.operator {
			g := grant{t.Token, t.From, m.operator}
			if allowance(g).LessThan(t.Amount) {
				return errs.ErrInsufficientAllowance
			}
			allowances[g] = allowance(g).Sub(t.Amount)
		}

		src, dst := holding{t.Token, t.From}, holding{t.Token, t.To}
		if balance(src).LessThan(t.Amount) {
			return errs.ErrInsufficientBalance
		}
		balances[src] = balance(src).Sub(t.Amount)
		balances[dst] = balance(dst).Add(t.Amount)
	}

	for k, v := range balances {
		m.balances[k] = v
	}
	for k, v := range allowances {
		m.allowances[k] = v
	}
	return nil
}

// Package payment keeps the allow-list of tokens buyers may pay with.
package payment

import (
	"sync"

	"github.com/xraph/mercato/access"
	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/types"
)

// Token is a verified payment token.
type Token struct {
	Address  types.Address `json:"address"`
	Symbol   string        `json:"symbol"`
	Decimals int32         `json:"decimals"`
}

// TokenRegistry answers which tokens are verified and how many decimals each
// one has.
type TokenRegistry interface {
	IsVerifiedToken(token types.Address) bool
	Decimals(token types.Address) (int32, bool)
}

// AllowList is an admin-managed TokenRegistry.
type AllowList struct {
	mu     sync.RWMutex
	auth   access.Authorizer
	tokens map[types.Address]Token
}

var _ TokenRegistry = (*AllowList)(nil)

// NewAllowList creates an empty allow-list.
func NewAllowList(auth access.Authorizer) *AllowList {
	return &AllowList{auth: auth, tokens: make(map[types.Address]Token)}
}

// SetVerifiedTokens replaces the allow-list. Admin only.
func (l *AllowList) SetVerifiedTokens(caller types.Address, tokens []Token) error {
	if err := access.Require(l.auth, caller, access.RoleAdmin); err != nil {
		return err
	}

	next := make(map[types.Address]Token, len(tokens))
	for _, t := range tokens {
		if t.Address.IsZero() {
			return errs.ErrInvalidAddress
		}
		if t.Decimals < 0 || t.Decimals > 36 {
			return errs.New(errs.ErrInputInvalid, "token decimals out of range")
		}
		next[t.Address] = t
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens = next
	return nil
}

// IsVerifiedToken implements TokenRegistry.
func (l *AllowList) IsVerifiedToken(token types.Address) bool {
	_, ok := l.Token(token)
	return ok
}

// Decimals implements TokenRegistry.
func (l *AllowList) Decimals(token types.Address) (int32, bool) {
	t, ok := l.Token(token)
	return t.Decimals, ok
}

// Token returns the verified token record.
func (l *AllowList) Token(token types.Address) (Token, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.tokens[token]
	return t, ok
}

// Tokens returns the verified tokens, in no particular order.
func (l *AllowList) Tokens() []Token {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Token, 0, len(l.tokens))
	for _, t := range l.tokens {
		out = append(out, t)
	}
	return out
}

package constituent_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mercato/constituent"
	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/types"
)

type vault struct {
	deposited []uint64
	failOn    uint64
}

func (v *vault) Address() types.Address { return "escrow" }

func (v *vault) DepositConstituent(_ types.Address, cid uint64) error {
	if cid == v.failOn {
		return errors.New("vault closed")
	}
	v.deposited = append(v.deposited, cid)
	return nil
}

func newLedger(v *vault) *constituent.Ledger {
	l := constituent.New(constituent.Config{Identity: "children", Minter: "parents", Escrow: "escrow"})
	l.Bind(v)
	return l
}

func specs(n int) []constituent.Spec {
	out := make([]constituent.Spec, n)
	for i := range out {
		out[i] = constituent.Spec{ParentID: 1, Price: types.Units(1, 18), Creator: "0xc", FulfillerID: 1, URI: "ipfs://c"}
	}
	return out
}

func TestMintDepositsEveryItem(t *testing.T) {
	v := &vault{}
	l := newLedger(v)

	ids, err := l.Mint("parents", specs(3))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids)
	assert.Equal(t, ids, v.deposited)

	it, err := l.Item(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), it.Amount)
	assert.Equal(t, types.Address("escrow"), it.Holder)
	assert.Equal(t, uint64(1), it.ParentID)
}

func TestMintRequiresMinter(t *testing.T) {
	l := newLedger(&vault{})
	_, err := l.Mint("0xstranger", specs(1))
	assert.ErrorIs(t, err, errs.ErrUnauthorizedMinter)
}

func TestMintRollsBackOnDepositFailure(t *testing.T) {
	l := newLedger(&vault{failOn: 2})
	_, err := l.Mint("parents", specs(2))
	require.Error(t, err)

	_, err = l.Item(1)
	assert.ErrorIs(t, err, errs.ErrConstituentNotFound)
}

func TestRolledBackIDsAreNotReissued(t *testing.T) {
	v := &vault{failOn: 2}
	l := newLedger(v)
	_, err := l.Mint("parents", specs(2))
	require.Error(t, err)

	v.failOn = 0
	ids, err := l.Mint("parents", specs(2))
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 4}, ids)
	assert.Equal(t, []uint64{1, 3, 4}, v.deposited)
}

func TestBurnKeepsRecordAndIDs(t *testing.T) {
	l := newLedger(&vault{})
	_, err := l.Mint("parents", specs(2))
	require.NoError(t, err)

	assert.ErrorIs(t, l.Burn("0xstranger", []uint64{1}), errs.ErrUnauthorizedBurn)
	require.NoError(t, l.Burn("escrow", []uint64{1}))
	assert.ErrorIs(t, l.Burn("escrow", []uint64{1}), errs.ErrAlreadyBurned)

	it, err := l.Item(1)
	require.NoError(t, err)
	assert.True(t, it.Burned)
	assert.Zero(t, it.Amount)
	assert.Zero(t, it.ParentID)

	ids, err := l.Mint("parents", specs(1))
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, ids)
}

func TestSetParent(t *testing.T) {
	l := newLedger(&vault{})
	_, err := l.Mint("parents", specs(2))
	require.NoError(t, err)

	assert.ErrorIs(t, l.SetParent("parents", []uint64{1}, 0), errs.ErrUnauthorizedParentUpdate)
	assert.ErrorIs(t, l.SetParent("escrow", []uint64{1, 9}, 0), errs.ErrConstituentNotFound)

	require.NoError(t, l.SetParent("escrow", []uint64{1, 2}, 0))
	it, err := l.Item(2)
	require.NoError(t, err)
	assert.Zero(t, it.ParentID)
}

func TestSnapshotRestore(t *testing.T) {
	l := newLedger(&vault{})
	_, err := l.Mint("parents", specs(2))
	require.NoError(t, err)

	restored := newLedger(&vault{})
	restored.Restore(l.Snapshot())
	assert.Equal(t, uint64(2), restored.Last())

	ids, err := restored.Mint("parents", specs(1))
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, ids)
}

package custody

import (
	"testing"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/coin"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withdrawOp(amount int64, dst vault.Address) ProposedOp {
	return ProposedOp{
		Withdraw: &WithdrawOp{
			Amount:      coin.NewCoin(amount, "IOV"),
			Destination: dst,
		},
	}
}

func TestMultisigThresholdFlow(t *testing.T) {
	db := store.MemStore()
	mover := &testMover{}
	ctrl := NewController(mover, &testPower{})
	v := testVault()
	v.Fees = FeeConfig{}
	_, err := ctrl.Deposit(db, v, coin.NewCoin(1000000, "IOV"), testAddr("alice"))
	require.NoError(t, err)

	x, y, z := testAddr("x"), testAddr("y"), testAddr("z")
	require.NoError(t, ctrl.CreateMultisig(v, MultisigConfig{
		Authorities: []vault.Address{x, y, z},
		Threshold:   2,
	}))

	// the proposer counts as the first approval
	id, err := ctrl.CreateMultisigProposal(v, x, withdrawOp(100000, testAddr("dst")), vault.UnixTime(10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	prop, err := v.proposal(id)
	require.NoError(t, err)
	assert.Equal(t, []vault.Address{x}, prop.Approvals)

	// one approval is below the threshold of two
	err = ctrl.ExecuteProposal(db, v, id)
	assert.True(t, ErrThreshold.Is(err))
	assert.Equal(t, int64(1000000), v.account("IOV").Balance)

	require.NoError(t, ctrl.ApproveProposal(v, id, y))

	require.NoError(t, ctrl.ExecuteProposal(db, v, id))
	assert.Equal(t, int64(900000), v.account("IOV").Balance)
	assert.Equal(t, int64(900000), v.TotalValue)
	require.Len(t, mover.Moves, 2)
	assert.Equal(t, coin.NewCoin(100000, "IOV"), mover.Moves[1].Amount)

	// execution is exactly once
	err = ctrl.ExecuteProposal(db, v, id)
	assert.True(t, errors.ErrState.Is(err))
	assert.Equal(t, int64(900000), v.account("IOV").Balance)
	assert.NoError(t, v.Validate())
}

func TestMultisigDuplicateApproval(t *testing.T) {
	ctrl := NewController(&testMover{}, &testPower{})
	v := testVault()
	x, y := testAddr("x"), testAddr("y")
	require.NoError(t, ctrl.CreateMultisig(v, MultisigConfig{
		Authorities: []vault.Address{x, y},
		Threshold:   2,
	}))
	id, err := ctrl.CreateMultisigProposal(v, x, withdrawOp(1, testAddr("dst")), 0)
	require.NoError(t, err)

	// the proposer already approved by proposing
	err = ctrl.ApproveProposal(v, id, x)
	assert.True(t, errors.ErrDuplicate.Is(err))

	require.NoError(t, ctrl.ApproveProposal(v, id, y))
	err = ctrl.ApproveProposal(v, id, y)
	assert.True(t, errors.ErrDuplicate.Is(err))
}

func TestMultisigThresholdReadAtExecution(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController(&testMover{}, &testPower{})
	v := testVault()
	v.Fees = FeeConfig{}
	_, err := ctrl.Deposit(db, v, coin.NewCoin(1000, "IOV"), testAddr("alice"))
	require.NoError(t, err)

	x, y, z := testAddr("x"), testAddr("y"), testAddr("z")
	require.NoError(t, ctrl.CreateMultisig(v, MultisigConfig{
		Authorities: []vault.Address{x, y, z},
		Threshold:   2,
	}))
	id, err := ctrl.CreateMultisigProposal(v, x, withdrawOp(10, testAddr("dst")), 0)
	require.NoError(t, err)
	require.NoError(t, ctrl.ApproveProposal(v, id, y))

	// raising the threshold affects the pending proposal
	require.NoError(t, ctrl.CreateMultisig(v, MultisigConfig{
		Authorities: []vault.Address{x, y, z},
		Threshold:   3,
	}))
	err = ctrl.ExecuteProposal(db, v, id)
	assert.True(t, ErrThreshold.Is(err))

	require.NoError(t, ctrl.ApproveProposal(v, id, z))
	require.NoError(t, ctrl.ExecuteProposal(db, v, id))
}

func TestMultisigReject(t *testing.T) {
	ctrl := NewController(&testMover{}, &testPower{})
	v := testVault()
	x, y := testAddr("x"), testAddr("y")
	require.NoError(t, ctrl.CreateMultisig(v, MultisigConfig{
		Authorities: []vault.Address{x, y},
		Threshold:   1,
	}))
	id, err := ctrl.CreateMultisigProposal(v, x, withdrawOp(1, testAddr("dst")), 0)
	require.NoError(t, err)

	// only the proposer may reject
	err = ctrl.RejectProposal(v, id, y)
	assert.True(t, errors.ErrUnauthorized.Is(err))

	require.NoError(t, ctrl.RejectProposal(v, id, x))
	assert.Len(t, v.Proposals, 0)
	_, err = v.proposal(id)
	assert.True(t, errors.ErrNotFound.Is(err))

	// proposal ids are never reused
	next, err := ctrl.CreateMultisigProposal(v, x, withdrawOp(1, testAddr("dst")), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), next)
}

func TestMultisigRequiresConfiguration(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController(&testMover{}, &testPower{})
	v := testVault()

	_, err := ctrl.CreateMultisigProposal(v, testAddr("x"), withdrawOp(1, testAddr("dst")), 0)
	assert.True(t, errors.ErrState.Is(err))
	err = ctrl.ExecuteProposal(db, v, 1)
	assert.True(t, errors.ErrState.Is(err))
}

func TestMultisigFailedOpLeavesProposalOpen(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController(&testMover{}, &testPower{})
	v := testVault()
	v.Fees = FeeConfig{}
	x := testAddr("x")
	require.NoError(t, ctrl.CreateMultisig(v, MultisigConfig{
		Authorities: []vault.Address{x},
		Threshold:   1,
	}))
	// withdrawing more than the vault holds
	id, err := ctrl.CreateMultisigProposal(v, x, withdrawOp(1000, testAddr("dst")), 0)
	require.NoError(t, err)

	err = ctrl.ExecuteProposal(db, v, id)
	assert.True(t, errors.ErrInsufficientAmount.Is(err))
	prop, err := v.proposal(id)
	require.NoError(t, err)
	assert.False(t, prop.Executed)

	// funding the vault makes the same proposal executable
	_, err = ctrl.Deposit(db, v, coin.NewCoin(1000, "IOV"), testAddr("alice"))
	require.NoError(t, err)
	require.NoError(t, ctrl.ExecuteProposal(db, v, id))
}

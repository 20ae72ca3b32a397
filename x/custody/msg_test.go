package custody

import (
	"testing"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/coin"
	"github.com/iov-one/vault/errors"
	"github.com/stretchr/testify/assert"
)

var testMeta = &vault.Metadata{Schema: 1}

func testVaultID() []byte {
	return []byte{0, 0, 0, 0, 0, 0, 0, 1}
}

func TestMsgPaths(t *testing.T) {
	msgs := []vault.Msg{
		&InitVaultMsg{},
		&DepositMsg{},
		&WithdrawMsg{},
		&CreateMultisigMsg{},
		&ProposeMultisigMsg{},
		&ApproveMultisigMsg{},
		&ExecuteMultisigMsg{},
		&RejectMultisigMsg{},
		&InitGovernanceMsg{},
		&UpdateGovernanceMsg{},
		&ProposeGovernanceMsg{},
		&CastVoteMsg{},
		&QueueGovernanceMsg{},
		&ExecuteGovernanceMsg{},
		&CancelGovernanceMsg{},
		&CreateTimeLockMsg{},
		&ClaimTimeLockMsg{},
		&CancelTimeLockMsg{},
		&UpdateFeeConfigMsg{},
		&CollectFeesMsg{},
		&PauseMsg{},
		&UnpauseMsg{},
		&EmergencyWithdrawMsg{},
		&TransferAuthorityMsg{},
		&UpdateEmergencyAdminMsg{},
		&SetStrategyMsg{},
	}
	seen := make(map[string]bool)
	for _, msg := range msgs {
		path := msg.Path()
		assert.Regexp(t, `^custody/[a-z_]+$`, path)
		assert.False(t, seen[path], "duplicate path %q", path)
		seen[path] = true
	}
}

func TestDepositMsgValidate(t *testing.T) {
	cases := map[string]struct {
		msg     DepositMsg
		wantErr *errors.Error
	}{
		"valid": {
			msg: DepositMsg{
				Metadata: testMeta,
				VaultID:  testVaultID(),
				Amount:   coin.NewCoin(100, "IOV"),
			},
			wantErr: nil,
		},
		"explicit source": {
			msg: DepositMsg{
				Metadata: testMeta,
				VaultID:  testVaultID(),
				Amount:   coin.NewCoin(100, "IOV"),
				Source:   testAddr("alice"),
			},
			wantErr: nil,
		},
		"missing metadata": {
			msg: DepositMsg{
				VaultID: testVaultID(),
				Amount:  coin.NewCoin(100, "IOV"),
			},
			wantErr: errors.ErrMetadata,
		},
		"short vault id": {
			msg: DepositMsg{
				Metadata: testMeta,
				VaultID:  []byte{1, 2, 3},
				Amount:   coin.NewCoin(100, "IOV"),
			},
			wantErr: errors.ErrInput,
		},
		"zero amount": {
			msg: DepositMsg{
				Metadata: testMeta,
				VaultID:  testVaultID(),
				Amount:   coin.NewCoin(0, "IOV"),
			},
			wantErr: errors.ErrAmount,
		},
		"bad ticker": {
			msg: DepositMsg{
				Metadata: testMeta,
				VaultID:  testVaultID(),
				Amount:   coin.NewCoin(100, "io"),
			},
			wantErr: errors.ErrCurrency,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, tc.wantErr.Is(err), "got %+v", err)
			}
		})
	}
}

func TestWithdrawMsgValidate(t *testing.T) {
	valid := WithdrawMsg{
		Metadata:    testMeta,
		VaultID:     testVaultID(),
		Amount:      coin.NewCoin(100, "IOV"),
		Destination: testAddr("alice"),
	}
	assert.NoError(t, valid.Validate())

	m := valid
	m.Destination = nil
	assert.True(t, errors.ErrInput.Is(m.Validate()))

	m = valid
	m.Amount = coin.NewCoin(-1, "IOV")
	assert.True(t, errors.ErrAmount.Is(m.Validate()))
}

func TestProposeGovernanceMsgValidate(t *testing.T) {
	valid := ProposeGovernanceMsg{
		Metadata:     testMeta,
		VaultID:      testVaultID(),
		Title:        "fund the dev pool",
		Instructions: []ProposedOp{withdrawOp(1, testAddr("dst"))},
	}
	assert.NoError(t, valid.Validate())

	m := valid
	m.Title = ""
	assert.True(t, errors.ErrEmpty.Is(m.Validate()))

	m = valid
	m.Instructions = nil
	assert.True(t, errors.ErrEmpty.Is(m.Validate()))

	m = valid
	m.Instructions = []ProposedOp{{}}
	assert.True(t, errors.ErrMsg.Is(m.Validate()))
}

func TestCastVoteMsgValidate(t *testing.T) {
	valid := CastVoteMsg{
		Metadata:   testMeta,
		VaultID:    testVaultID(),
		ProposalID: 1,
		Choice:     VoteFor,
	}
	assert.NoError(t, valid.Validate())

	m := valid
	m.Choice = VoteInvalid
	assert.True(t, errors.ErrInput.Is(m.Validate()))

	m = valid
	m.ProposalID = 0
	assert.True(t, errors.ErrInput.Is(m.Validate()))
}

func TestCreateTimeLockMsgValidate(t *testing.T) {
	valid := CreateTimeLockMsg{
		Metadata:    testMeta,
		VaultID:     testVaultID(),
		Beneficiary: testAddr("bob"),
		Amount:      coin.NewCoin(100, "IOV"),
		Start:       vault.UnixTime(100),
		Duration:    vault.UnixDuration(1000),
		Linear:      true,
	}
	assert.NoError(t, valid.Validate())

	m := valid
	m.Linear = false
	m.Cliff = 0
	assert.True(t, errors.ErrMsg.Is(m.Validate()))

	m = valid
	m.Linear = true
	m.Duration = 0
	assert.True(t, errors.ErrMsg.Is(m.Validate()))
}

package custody

import (
	"context"
	"testing"
	"time"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/app"
	"github.com/iov-one/vault/coin"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/store"
	"github.com/iov-one/vault/vaulttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCond returns the condition behind testAddr for the same name.
func testCond(name string) vault.Condition {
	return vault.NewCondition("test", "addr", []byte(name))
}

type handlerFixture struct {
	router *app.Router
	db     vault.CacheableKVStore
	auth   *vaulttest.CtxAuth
	mover  *testMover
	power  *testPower
	bucket Bucket
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	f := &handlerFixture{
		router: app.NewRouter(),
		db:     store.MemStore(),
		auth:   &vaulttest.CtxAuth{Key: "auth"},
		mover:  &testMover{},
		power:  &testPower{Weights: make(map[string]uint64)},
		bucket: NewBucket(),
	}
	RegisterRoutes(f.router, f.auth, f.mover, f.power)
	return f
}

// ctxAt returns a context with the given block time, authenticating the
// named signers.
func (f *handlerFixture) ctxAt(blockAt int64, signers ...string) vault.Context {
	ctx := vault.WithBlockTime(context.Background(), time.Unix(blockAt, 0))
	conds := make([]vault.Condition, len(signers))
	for i, s := range signers {
		conds[i] = testCond(s)
	}
	return f.auth.SetConditions(ctx, conds...)
}

// deliver runs the message through check and deliver, expecting success.
func (f *handlerFixture) deliver(t *testing.T, ctx vault.Context, msg vault.Msg) *vault.DeliverResult {
	t.Helper()
	tx := &vaulttest.Tx{Msg: msg}
	cache := f.db.CacheWrap()
	if _, err := f.router.Check(ctx, cache, tx); err != nil {
		t.Fatalf("check failed: %+v", err)
	}
	cache.Discard()
	res, err := f.router.Deliver(ctx, f.db, tx)
	if err != nil {
		t.Fatalf("deliver failed: %+v", err)
	}
	return res
}

// deliverErr runs the message through deliver, expecting failure.
func (f *handlerFixture) deliverErr(t *testing.T, ctx vault.Context, msg vault.Msg) error {
	t.Helper()
	_, err := f.router.Deliver(ctx, f.db, &vaulttest.Tx{Msg: msg})
	if err == nil {
		t.Fatal("deliver succeeded unexpectedly")
	}
	return err
}

// initVault creates a vault with a 50bps fee schedule and returns its
// id.
func (f *handlerFixture) initVault(t *testing.T) []byte {
	t.Helper()
	res := f.deliver(t, f.ctxAt(1, "authority"), &InitVaultMsg{
		Metadata:       testMeta,
		Authority:      testAddr("authority"),
		EmergencyAdmin: testAddr("emergency"),
		Fees: FeeConfig{
			DepositBps:    50,
			WithdrawalBps: 50,
			Recipient:     testAddr("treasury"),
		},
		Tickers: []string{"IOV"},
	})
	require.Len(t, res.Data, 8)
	require.Len(t, res.Tags, 1)
	assert.Equal(t, []byte("custody:vault"), res.Tags[0].Key)
	assert.Equal(t, res.Data, res.Tags[0].Value)
	return res.Data
}

func TestInitVaultHandler(t *testing.T) {
	f := newHandlerFixture(t)
	id := f.initVault(t)

	v, err := f.bucket.Get(f.db, id)
	require.NoError(t, err)
	assert.Equal(t, testAddr("authority"), v.Authority)
	assert.Equal(t, testAddr("emergency"), v.EmergencyAdmin)
	assert.Equal(t, Condition(id).Address(), v.Address)
	require.Len(t, v.Accounts, 1)
	assert.Equal(t, "IOV", v.Accounts[0].Ticker)

	// the declared authority must sign
	err = f.deliverErr(t, f.ctxAt(1, "stranger"), &InitVaultMsg{
		Metadata:       testMeta,
		Authority:      testAddr("authority"),
		EmergencyAdmin: testAddr("emergency"),
	})
	assert.True(t, errors.ErrUnauthorized.Is(err))
}

func TestDepositWithdrawHandlers(t *testing.T) {
	f := newHandlerFixture(t)
	id := f.initVault(t)

	f.deliver(t, f.ctxAt(2, "authority"), &DepositMsg{
		Metadata: testMeta,
		VaultID:  id,
		Amount:   coin.NewCoin(1000000, "IOV"),
	})
	v, err := f.bucket.Get(f.db, id)
	require.NoError(t, err)
	assert.Equal(t, int64(995000), v.account("IOV").Balance)
	assert.Equal(t, []coin.Coin{coin.NewCoin(5000, "IOV")}, v.CollectedFees)

	f.deliver(t, f.ctxAt(3, "authority"), &WithdrawMsg{
		Metadata:    testMeta,
		VaultID:     id,
		Amount:      coin.NewCoin(200000, "IOV"),
		Destination: testAddr("alice"),
	})
	v, err = f.bucket.Get(f.db, id)
	require.NoError(t, err)
	assert.Equal(t, int64(795000), v.account("IOV").Balance)
	assert.NoError(t, v.Validate())

	// only the admin may withdraw
	err = f.deliverErr(t, f.ctxAt(4, "stranger"), &WithdrawMsg{
		Metadata:    testMeta,
		VaultID:     id,
		Amount:      coin.NewCoin(1, "IOV"),
		Destination: testAddr("alice"),
	})
	assert.True(t, errors.ErrUnauthorized.Is(err))

	// a failed deliver leaves the stored state untouched
	err = f.deliverErr(t, f.ctxAt(5, "authority"), &WithdrawMsg{
		Metadata:    testMeta,
		VaultID:     id,
		Amount:      coin.NewCoin(10000000, "IOV"),
		Destination: testAddr("alice"),
	})
	assert.True(t, errors.ErrInsufficientAmount.Is(err))
	v, err = f.bucket.Get(f.db, id)
	require.NoError(t, err)
	assert.Equal(t, int64(795000), v.account("IOV").Balance)
}

func TestMultisigHandlers(t *testing.T) {
	f := newHandlerFixture(t)
	id := f.initVault(t)
	f.deliver(t, f.ctxAt(2, "authority"), &DepositMsg{
		Metadata: testMeta,
		VaultID:  id,
		Amount:   coin.NewCoin(1000000, "IOV"),
	})

	f.deliver(t, f.ctxAt(3, "authority"), &CreateMultisigMsg{
		Metadata: testMeta,
		VaultID:  id,
		Config: MultisigConfig{
			Authorities: []vault.Address{testAddr("x"), testAddr("y"), testAddr("z")},
			Threshold:   2,
		},
	})

	// the old authority lost the admin gate to the multisig
	err := f.deliverErr(t, f.ctxAt(4, "authority"), &WithdrawMsg{
		Metadata:    testMeta,
		VaultID:     id,
		Amount:      coin.NewCoin(1, "IOV"),
		Destination: testAddr("alice"),
	})
	assert.True(t, errors.ErrUnauthorized.Is(err))

	res := f.deliver(t, f.ctxAt(5, "x"), &ProposeMultisigMsg{
		Metadata: testMeta,
		VaultID:  id,
		Op:       withdrawOp(100000, testAddr("dst")),
	})
	propID := decodeSequence(res.Data)
	assert.Equal(t, int64(1), propID)

	// one approval of two
	err = f.deliverErr(t, f.ctxAt(6, "x"), &ExecuteMultisigMsg{
		Metadata:   testMeta,
		VaultID:    id,
		ProposalID: propID,
	})
	assert.True(t, ErrThreshold.Is(err))

	// a non member cannot approve
	err = f.deliverErr(t, f.ctxAt(7, "stranger"), &ApproveMultisigMsg{
		Metadata:   testMeta,
		VaultID:    id,
		ProposalID: propID,
	})
	assert.True(t, errors.ErrUnauthorized.Is(err))

	f.deliver(t, f.ctxAt(8, "y"), &ApproveMultisigMsg{
		Metadata:   testMeta,
		VaultID:    id,
		ProposalID: propID,
	})
	f.deliver(t, f.ctxAt(9, "z"), &ExecuteMultisigMsg{
		Metadata:   testMeta,
		VaultID:    id,
		ProposalID: propID,
	})

	v, err := f.bucket.Get(f.db, id)
	require.NoError(t, err)
	assert.Equal(t, int64(895000), v.account("IOV").Balance)
	// the full 100000 is debited, the 50bps fee stays back
	require.NotEmpty(t, f.mover.Moves)
	last := f.mover.Moves[len(f.mover.Moves)-1]
	assert.Equal(t, coin.NewCoin(99500, "IOV"), last.Amount)
	assert.Equal(t, testAddr("dst"), last.Dst)
}

func TestPauseHandlers(t *testing.T) {
	f := newHandlerFixture(t)
	id := f.initVault(t)
	f.deliver(t, f.ctxAt(2, "authority"), &DepositMsg{
		Metadata: testMeta,
		VaultID:  id,
		Amount:   coin.NewCoin(1000000, "IOV"),
	})

	// only the emergency admin may pause
	err := f.deliverErr(t, f.ctxAt(3, "authority"), &PauseMsg{
		Metadata: testMeta,
		VaultID:  id,
	})
	assert.True(t, errors.ErrUnauthorized.Is(err))

	f.deliver(t, f.ctxAt(4, "emergency"), &PauseMsg{
		Metadata: testMeta,
		VaultID:  id,
	})

	// ledger operations stop
	err = f.deliverErr(t, f.ctxAt(5, "authority"), &WithdrawMsg{
		Metadata:    testMeta,
		VaultID:     id,
		Amount:      coin.NewCoin(1, "IOV"),
		Destination: testAddr("alice"),
	})
	assert.True(t, errors.ErrState.Is(err))

	// pausing twice fails
	err = f.deliverErr(t, f.ctxAt(6, "emergency"), &PauseMsg{
		Metadata: testMeta,
		VaultID:  id,
	})
	assert.True(t, errors.ErrState.Is(err))

	// the recovery path stays open
	f.deliver(t, f.ctxAt(7, "emergency"), &EmergencyWithdrawMsg{
		Metadata:    testMeta,
		VaultID:     id,
		Amount:      coin.NewCoin(500000, "IOV"),
		Destination: testAddr("rescue"),
	})
	v, err := f.bucket.Get(f.db, id)
	require.NoError(t, err)
	assert.Equal(t, int64(495000), v.account("IOV").Balance)

	f.deliver(t, f.ctxAt(8, "emergency"), &UnpauseMsg{
		Metadata: testMeta,
		VaultID:  id,
	})
	f.deliver(t, f.ctxAt(9, "authority"), &WithdrawMsg{
		Metadata:    testMeta,
		VaultID:     id,
		Amount:      coin.NewCoin(1000, "IOV"),
		Destination: testAddr("alice"),
	})
}

func TestGovernanceHandlers(t *testing.T) {
	f := newHandlerFixture(t)
	f.power.Weights[testAddr("alice").String()] = 2000
	f.power.Weights[testAddr("bob").String()] = 1000
	f.power.Total = 10000

	id := f.initVault(t)
	f.deliver(t, f.ctxAt(2, "authority"), &DepositMsg{
		Metadata: testMeta,
		VaultID:  id,
		Amount:   coin.NewCoin(1000000, "IOV"),
	})
	f.deliver(t, f.ctxAt(3, "authority"), &InitGovernanceMsg{
		Metadata:   testMeta,
		VaultID:    id,
		Governance: testGovConfig(),
	})

	res := f.deliver(t, f.ctxAt(100, "alice"), &ProposeGovernanceMsg{
		Metadata:     testMeta,
		VaultID:      id,
		Title:        "fund the dev pool",
		Instructions: []ProposedOp{withdrawOp(100000, testAddr("dst"))},
	})
	propID := decodeSequence(res.Data)

	f.deliver(t, f.ctxAt(200, "alice"), &CastVoteMsg{
		Metadata:   testMeta,
		VaultID:    id,
		ProposalID: propID,
		Choice:     VoteFor,
	})
	f.deliver(t, f.ctxAt(201, "bob"), &CastVoteMsg{
		Metadata:   testMeta,
		VaultID:    id,
		ProposalID: propID,
		Choice:     VoteAgainst,
	})

	// anyone may queue and execute once the rules are met
	f.deliver(t, f.ctxAt(1200, "anyone"), &QueueGovernanceMsg{
		Metadata:   testMeta,
		VaultID:    id,
		ProposalID: propID,
	})

	// timelock still running, eta is 1200+500
	err := f.deliverErr(t, f.ctxAt(1600, "anyone"), &ExecuteGovernanceMsg{
		Metadata:   testMeta,
		VaultID:    id,
		ProposalID: propID,
	})
	assert.True(t, errors.ErrState.Is(err))

	f.deliver(t, f.ctxAt(1700, "anyone"), &ExecuteGovernanceMsg{
		Metadata:   testMeta,
		VaultID:    id,
		ProposalID: propID,
	})
	v, err := f.bucket.Get(f.db, id)
	require.NoError(t, err)
	assert.Equal(t, int64(895000), v.account("IOV").Balance)
	prop, err := v.govProposal(propID)
	require.NoError(t, err)
	assert.True(t, prop.Executed)
}

func TestCancelGovernanceHandler(t *testing.T) {
	f := newHandlerFixture(t)
	f.power.Weights[testAddr("alice").String()] = 2000
	f.power.Total = 10000

	id := f.initVault(t)
	f.deliver(t, f.ctxAt(2, "authority"), &InitGovernanceMsg{
		Metadata:   testMeta,
		VaultID:    id,
		Governance: testGovConfig(),
	})
	res := f.deliver(t, f.ctxAt(100, "alice"), &ProposeGovernanceMsg{
		Metadata:     testMeta,
		VaultID:      id,
		Title:        "t",
		Instructions: []ProposedOp{withdrawOp(1, testAddr("dst"))},
	})
	propID := decodeSequence(res.Data)

	// a stranger cannot cancel
	err := f.deliverErr(t, f.ctxAt(101, "stranger"), &CancelGovernanceMsg{
		Metadata:   testMeta,
		VaultID:    id,
		ProposalID: propID,
	})
	assert.True(t, errors.ErrUnauthorized.Is(err))

	// the emergency admin can
	f.deliver(t, f.ctxAt(102, "emergency"), &CancelGovernanceMsg{
		Metadata:   testMeta,
		VaultID:    id,
		ProposalID: propID,
	})
	v, err := f.bucket.Get(f.db, id)
	require.NoError(t, err)
	prop, err := v.govProposal(propID)
	require.NoError(t, err)
	assert.True(t, prop.Cancelled)
}

func TestTimeLockHandlers(t *testing.T) {
	f := newHandlerFixture(t)
	id := f.initVault(t)
	f.deliver(t, f.ctxAt(2, "authority"), &DepositMsg{
		Metadata: testMeta,
		VaultID:  id,
		Amount:   coin.NewCoin(1000000, "IOV"),
	})

	res := f.deliver(t, f.ctxAt(3, "authority"), &CreateTimeLockMsg{
		Metadata:    testMeta,
		VaultID:     id,
		Beneficiary: testAddr("bob"),
		Amount:      coin.NewCoin(600000, "IOV"),
		Start:       vault.UnixTime(1000),
		Duration:    vault.UnixDuration(1000),
		Linear:      true,
	})
	lockID := decodeSequence(res.Data)
	assert.Equal(t, int64(1), lockID)

	// nothing vested before the start
	err := f.deliverErr(t, f.ctxAt(500, "bob"), &ClaimTimeLockMsg{
		Metadata: testMeta,
		VaultID:  id,
		LockID:   lockID,
	})
	assert.True(t, errors.ErrAmount.Is(err))

	// halfway through the schedule
	f.deliver(t, f.ctxAt(1500, "bob"), &ClaimTimeLockMsg{
		Metadata: testMeta,
		VaultID:  id,
		LockID:   lockID,
	})
	v, err := f.bucket.Get(f.db, id)
	require.NoError(t, err)
	lock, err := v.timeLock(lockID)
	require.NoError(t, err)
	assert.Equal(t, int64(300000), lock.Released)

	f.deliver(t, f.ctxAt(1600, "authority"), &CancelTimeLockMsg{
		Metadata: testMeta,
		VaultID:  id,
		LockID:   lockID,
	})
	v, err = f.bucket.Get(f.db, id)
	require.NoError(t, err)
	assert.Len(t, v.TimeLocks, 0)
	assert.Equal(t, int64(695000), v.account("IOV").Balance)
	assert.NoError(t, v.Validate())
}

func TestAdminHandlers(t *testing.T) {
	f := newHandlerFixture(t)
	id := f.initVault(t)

	f.deliver(t, f.ctxAt(2, "authority"), &SetStrategyMsg{
		Metadata: testMeta,
		VaultID:  id,
		Ticker:   "IOV",
		Strategy: testAddr("strategy"),
	})
	f.deliver(t, f.ctxAt(3, "authority"), &UpdateFeeConfigMsg{
		Metadata: testMeta,
		VaultID:  id,
		Fees:     FeeConfig{},
	})
	f.deliver(t, f.ctxAt(4, "authority"), &TransferAuthorityMsg{
		Metadata:     testMeta,
		VaultID:      id,
		NewAuthority: testAddr("next"),
	})

	v, err := f.bucket.Get(f.db, id)
	require.NoError(t, err)
	assert.Equal(t, testAddr("strategy"), v.account("IOV").Strategy)
	assert.Equal(t, FeeConfig{}, v.Fees)
	assert.Equal(t, testAddr("next"), v.Authority)
	assert.Equal(t, testAddr("next"), v.EmergencyAdmin)

	// the previous authority is out
	err = f.deliverErr(t, f.ctxAt(5, "authority"), &UpdateFeeConfigMsg{
		Metadata: testMeta,
		VaultID:  id,
		Fees:     FeeConfig{},
	})
	assert.True(t, errors.ErrUnauthorized.Is(err))
}

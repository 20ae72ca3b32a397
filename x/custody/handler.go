package custody

import (
	"github.com/tendermint/tendermint/libs/common"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/x"
)

const (
	initVaultCost int64 = 300
	ledgerOpCost  int64 = 100
	proposalCost  int64 = 150
	bookkeepCost  int64 = 50
)

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r vault.Registry, auth x.Authenticator, mover CoinMover, power PowerSource) {
	bucket := NewBucket()
	ctrl := NewController(mover, power)

	r.Handle("custody/init_vault", InitVaultHandler{auth, bucket})
	r.Handle("custody/deposit", DepositHandler{auth, bucket, ctrl})
	r.Handle("custody/withdraw", WithdrawHandler{auth, bucket, ctrl})
	r.Handle("custody/update_fee_config", UpdateFeeConfigHandler{auth, bucket, ctrl})
	r.Handle("custody/collect_fees", CollectFeesHandler{auth, bucket, ctrl})
	r.Handle("custody/pause", PauseHandler{auth: auth, bucket: bucket, pause: true})
	r.Handle("custody/unpause", PauseHandler{auth: auth, bucket: bucket, pause: false})
	r.Handle("custody/emergency_withdraw", EmergencyWithdrawHandler{auth, bucket, ctrl})
	r.Handle("custody/transfer_authority", TransferAuthorityHandler{auth, bucket, ctrl})
	r.Handle("custody/update_emergency_admin", UpdateEmergencyAdminHandler{auth, bucket, ctrl})
	r.Handle("custody/set_strategy", SetStrategyHandler{auth, bucket, ctrl})

	r.Handle("custody/create_multisig", CreateMultisigHandler{auth, bucket, ctrl})
	r.Handle("custody/propose_multisig", ProposeMultisigHandler{auth, bucket, ctrl})
	r.Handle("custody/approve_multisig", ApproveMultisigHandler{auth, bucket, ctrl})
	r.Handle("custody/execute_multisig", ExecuteMultisigHandler{auth, bucket, ctrl})
	r.Handle("custody/reject_multisig", RejectMultisigHandler{auth, bucket, ctrl})

	r.Handle("custody/init_governance", InitGovernanceHandler{auth, bucket, ctrl})
	r.Handle("custody/update_governance", UpdateGovernanceHandler{auth, bucket, ctrl})
	r.Handle("custody/propose_governance", ProposeGovernanceHandler{auth, bucket, ctrl})
	r.Handle("custody/cast_vote", CastVoteHandler{auth, bucket, ctrl})
	r.Handle("custody/queue_governance", QueueGovernanceHandler{auth, bucket, ctrl})
	r.Handle("custody/execute_governance", ExecuteGovernanceHandler{auth, bucket, ctrl})
	r.Handle("custody/cancel_governance", CancelGovernanceHandler{auth, bucket, ctrl})

	r.Handle("custody/create_timelock", CreateTimeLockHandler{auth, bucket, ctrl})
	r.Handle("custody/claim_timelock", ClaimTimeLockHandler{auth, bucket, ctrl})
	r.Handle("custody/cancel_timelock", CancelTimeLockHandler{auth, bucket, ctrl})
}

// blockNow returns the current block time.
func blockNow(ctx vault.Context) (vault.UnixTime, error) {
	t, err := vault.BlockTime(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "block time")
	}
	return vault.AsUnixTime(t), nil
}

// InitVaultHandler creates new vault instances.
type InitVaultHandler struct {
	auth   x.Authenticator
	bucket Bucket
}

var _ vault.Handler = InitVaultHandler{}

func (h InitVaultHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: initVaultCost}, nil
}

func (h InitVaultHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	v := &Vault{
		Metadata:       &vault.Metadata{Schema: 1},
		Authority:      msg.Authority,
		EmergencyAdmin: msg.EmergencyAdmin,
		Fees:           msg.Fees,
	}
	for _, t := range msg.Tickers {
		v.openAccount(t)
	}
	id, err := h.bucket.Create(db, v)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create vault")
	}
	return &vault.DeliverResult{
		Data: id,
		Tags: []common.KVPair{
			{Key: []byte("custody:vault"), Value: id},
		},
	}, nil
}

func (h InitVaultHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*InitVaultMsg, error) {
	var msg InitVaultMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	// The declared authority must sign the creation.
	if !h.auth.HasAddress(ctx, msg.Authority) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "authority signature missing")
	}
	return &msg, nil
}

// DepositHandler moves tokens into vault custody.
type DepositHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = DepositHandler{}

func (h DepositHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: ledgerOpCost}, nil
}

func (h DepositHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, src, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if _, err := h.ctrl.Deposit(db, v, msg.Amount, src); err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h DepositHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*DepositMsg, *Vault, vault.Address, error) {
	var msg DepositMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.bucket.Get(db, msg.VaultID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := adminAuthorized(ctx, h.auth, v); err != nil {
		return nil, nil, nil, err
	}
	src := msg.Source
	if src == nil {
		signer := x.MainSigner(ctx, h.auth)
		if signer == nil {
			return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
		}
		src = signer.Address()
	} else if !h.auth.HasAddress(ctx, src) {
		return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "source signature missing")
	}
	return &msg, v, src, nil
}

// WithdrawHandler releases tokens from custody.
type WithdrawHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = WithdrawHandler{}

func (h WithdrawHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: ledgerOpCost}, nil
}

func (h WithdrawHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if _, err := h.ctrl.Withdraw(db, v, msg.Amount, msg.Destination); err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h WithdrawHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*WithdrawMsg, *Vault, error) {
	var msg WithdrawMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.bucket.Get(db, msg.VaultID)
	if err != nil {
		return nil, nil, err
	}
	if err := adminAuthorized(ctx, h.auth, v); err != nil {
		return nil, nil, err
	}
	return &msg, v, nil
}

// UpdateFeeConfigHandler replaces the fee configuration.
type UpdateFeeConfigHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = UpdateFeeConfigHandler{}

func (h UpdateFeeConfigHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: bookkeepCost}, nil
}

func (h UpdateFeeConfigHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.UpdateFeeConfig(v, msg.Fees); err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h UpdateFeeConfigHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*UpdateFeeConfigMsg, *Vault, error) {
	var msg UpdateFeeConfigMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.bucket.Get(db, msg.VaultID)
	if err != nil {
		return nil, nil, err
	}
	if err := adminAuthorized(ctx, h.auth, v); err != nil {
		return nil, nil, err
	}
	return &msg, v, nil
}

// CollectFeesHandler pays accrued fees to the fee recipient.
type CollectFeesHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = CollectFeesHandler{}

func (h CollectFeesHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: bookkeepCost}, nil
}

func (h CollectFeesHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.CollectFees(db, v); err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h CollectFeesHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*CollectFeesMsg, *Vault, error) {
	var msg CollectFeesMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.bucket.Get(db, msg.VaultID)
	if err != nil {
		return nil, nil, err
	}
	if err := adminAuthorized(ctx, h.auth, v); err != nil {
		return nil, nil, err
	}
	return &msg, v, nil
}

// PauseHandler toggles the pause flag, restricted to the emergency
// admin.
type PauseHandler struct {
	auth   x.Authenticator
	bucket Bucket
	pause  bool
}

var _ vault.Handler = PauseHandler{}

func (h PauseHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: bookkeepCost}, nil
}

func (h PauseHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	id, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if v.Paused == h.pause {
		return nil, errors.Wrapf(errors.ErrState, "pause flag already %v", v.Paused)
	}
	v.Paused = h.pause
	if err := h.bucket.Save(db, id, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h PauseHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) ([]byte, *Vault, error) {
	var id []byte
	if h.pause {
		var msg PauseMsg
		if err := vault.LoadMsg(tx, &msg); err != nil {
			return nil, nil, errors.Wrap(err, "load msg")
		}
		id = msg.VaultID
	} else {
		var msg UnpauseMsg
		if err := vault.LoadMsg(tx, &msg); err != nil {
			return nil, nil, errors.Wrap(err, "load msg")
		}
		id = msg.VaultID
	}
	v, err := h.bucket.Get(db, id)
	if err != nil {
		return nil, nil, err
	}
	if err := emergencyAuthorized(ctx, h.auth, v); err != nil {
		return nil, nil, err
	}
	return id, v, nil
}

// EmergencyWithdrawHandler is the recovery path, bypassing the pause.
type EmergencyWithdrawHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = EmergencyWithdrawHandler{}

func (h EmergencyWithdrawHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: ledgerOpCost}, nil
}

func (h EmergencyWithdrawHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if _, err := h.ctrl.EmergencyWithdraw(db, v, msg.Amount, msg.Destination); err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h EmergencyWithdrawHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*EmergencyWithdrawMsg, *Vault, error) {
	var msg EmergencyWithdrawMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.bucket.Get(db, msg.VaultID)
	if err != nil {
		return nil, nil, err
	}
	if err := emergencyAuthorized(ctx, h.auth, v); err != nil {
		return nil, nil, err
	}
	return &msg, v, nil
}

// TransferAuthorityHandler hands the vault over to a new authority.
type TransferAuthorityHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = TransferAuthorityHandler{}

func (h TransferAuthorityHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: bookkeepCost}, nil
}

func (h TransferAuthorityHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.TransferAuthority(v, msg.NewAuthority); err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h TransferAuthorityHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*TransferAuthorityMsg, *Vault, error) {
	var msg TransferAuthorityMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.bucket.Get(db, msg.VaultID)
	if err != nil {
		return nil, nil, err
	}
	if err := adminAuthorized(ctx, h.auth, v); err != nil {
		return nil, nil, err
	}
	return &msg, v, nil
}

// UpdateEmergencyAdminHandler moves the emergency admin.
type UpdateEmergencyAdminHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = UpdateEmergencyAdminHandler{}

func (h UpdateEmergencyAdminHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: bookkeepCost}, nil
}

func (h UpdateEmergencyAdminHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.UpdateEmergencyAdmin(v, msg.NewAdmin); err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h UpdateEmergencyAdminHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*UpdateEmergencyAdminMsg, *Vault, error) {
	var msg UpdateEmergencyAdminMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.bucket.Get(db, msg.VaultID)
	if err != nil {
		return nil, nil, err
	}
	if err := adminAuthorized(ctx, h.auth, v); err != nil {
		return nil, nil, err
	}
	return &msg, v, nil
}

// SetStrategyHandler records a yield strategy reference.
type SetStrategyHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = SetStrategyHandler{}

func (h SetStrategyHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: bookkeepCost}, nil
}

func (h SetStrategyHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.SetStrategy(v, msg.Ticker, msg.Strategy); err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h SetStrategyHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*SetStrategyMsg, *Vault, error) {
	var msg SetStrategyMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.bucket.Get(db, msg.VaultID)
	if err != nil {
		return nil, nil, err
	}
	if err := adminAuthorized(ctx, h.auth, v); err != nil {
		return nil, nil, err
	}
	return &msg, v, nil
}

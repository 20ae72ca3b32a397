package custody

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/x"
)

// CreateTimeLockHandler earmarks balance into a vesting schedule.
type CreateTimeLockHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = CreateTimeLockHandler{}

func (h CreateTimeLockHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: ledgerOpCost}, nil
}

func (h CreateTimeLockHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	id, err := h.ctrl.CreateTimeLock(v, CreateTimeLockOp{
		Beneficiary: msg.Beneficiary,
		Amount:      msg.Amount,
		Start:       msg.Start,
		Cliff:       msg.Cliff,
		Duration:    msg.Duration,
		Linear:      msg.Linear,
	})
	if err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{Data: encodeSequence(id)}, nil
}

func (h CreateTimeLockHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*CreateTimeLockMsg, *Vault, error) {
	var msg CreateTimeLockMsg
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

// ClaimTimeLockHandler pays out vested tokens to the beneficiary.
type ClaimTimeLockHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = ClaimTimeLockHandler{}

func (h ClaimTimeLockHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: ledgerOpCost}, nil
}

func (h ClaimTimeLockHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, claimant, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	now, err := blockNow(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := h.ctrl.ClaimTimeLock(db, v, msg.LockID, claimant, now); err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h ClaimTimeLockHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*ClaimTimeLockMsg, *Vault, vault.Address, error) {
	var msg ClaimTimeLockMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.bucket.Get(db, msg.VaultID)
	if err != nil {
		return nil, nil, nil, err
	}
	// The beneficiary check runs in the controller against the
	// signer, claiming needs no further gate.
	signer := x.MainSigner(ctx, h.auth)
	if signer == nil {
		return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	return &msg, v, signer.Address(), nil
}

// CancelTimeLockHandler removes a lock, crediting the remainder back.
type CancelTimeLockHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = CancelTimeLockHandler{}

func (h CancelTimeLockHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: ledgerOpCost}, nil
}

func (h CancelTimeLockHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if _, err := h.ctrl.CancelTimeLock(v, msg.LockID); err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h CancelTimeLockHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*CancelTimeLockMsg, *Vault, error) {
	var msg CancelTimeLockMsg
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

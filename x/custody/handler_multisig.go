package custody

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/x"
)

// CreateMultisigHandler installs the multisig configuration.
type CreateMultisigHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = CreateMultisigHandler{}

func (h CreateMultisigHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: proposalCost}, nil
}

func (h CreateMultisigHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.CreateMultisig(v, msg.Config); err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h CreateMultisigHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*CreateMultisigMsg, *Vault, error) {
	var msg CreateMultisigMsg
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

// ProposeMultisigHandler creates a proposal with the proposer
// approval pre-recorded.
type ProposeMultisigHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = ProposeMultisigHandler{}

func (h ProposeMultisigHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: proposalCost}, nil
}

func (h ProposeMultisigHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, proposer, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	now, err := blockNow(ctx)
	if err != nil {
		return nil, err
	}
	id, err := h.ctrl.CreateMultisigProposal(v, proposer, msg.Op, now)
	if err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{Data: encodeSequence(id)}, nil
}

func (h ProposeMultisigHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*ProposeMultisigMsg, *Vault, vault.Address, error) {
	var msg ProposeMultisigMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.bucket.Get(db, msg.VaultID)
	if err != nil {
		return nil, nil, nil, err
	}
	proposer, err := memberAuthorized(ctx, h.auth, v)
	if err != nil {
		return nil, nil, nil, err
	}
	return &msg, v, proposer, nil
}

// ApproveMultisigHandler records an approval.
type ApproveMultisigHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = ApproveMultisigHandler{}

func (h ApproveMultisigHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: bookkeepCost}, nil
}

func (h ApproveMultisigHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, approver, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.ApproveProposal(v, msg.ProposalID, approver); err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h ApproveMultisigHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*ApproveMultisigMsg, *Vault, vault.Address, error) {
	var msg ApproveMultisigMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.bucket.Get(db, msg.VaultID)
	if err != nil {
		return nil, nil, nil, err
	}
	approver, err := memberAuthorized(ctx, h.auth, v)
	if err != nil {
		return nil, nil, nil, err
	}
	return &msg, v, approver, nil
}

// ExecuteMultisigHandler applies the embedded operation once the
// threshold is met.
type ExecuteMultisigHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = ExecuteMultisigHandler{}

func (h ExecuteMultisigHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: proposalCost}, nil
}

func (h ExecuteMultisigHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.ExecuteProposal(db, v, msg.ProposalID); err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h ExecuteMultisigHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*ExecuteMultisigMsg, *Vault, error) {
	var msg ExecuteMultisigMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.bucket.Get(db, msg.VaultID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := memberAuthorized(ctx, h.auth, v); err != nil {
		return nil, nil, err
	}
	return &msg, v, nil
}

// RejectMultisigHandler removes an unexecuted proposal.
type RejectMultisigHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = RejectMultisigHandler{}

func (h RejectMultisigHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: bookkeepCost}, nil
}

func (h RejectMultisigHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, rejector, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.RejectProposal(v, msg.ProposalID, rejector); err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h RejectMultisigHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*RejectMultisigMsg, *Vault, vault.Address, error) {
	var msg RejectMultisigMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.bucket.Get(db, msg.VaultID)
	if err != nil {
		return nil, nil, nil, err
	}
	rejector, err := memberAuthorized(ctx, h.auth, v)
	if err != nil {
		return nil, nil, nil, err
	}
	return &msg, v, rejector, nil
}

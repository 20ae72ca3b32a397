package custody

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/x"
)

// InitGovernanceHandler installs the governance configuration.
type InitGovernanceHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = InitGovernanceHandler{}

func (h InitGovernanceHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: proposalCost}, nil
}

func (h InitGovernanceHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.InitGovernance(v, msg.Governance); err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h InitGovernanceHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*InitGovernanceMsg, *Vault, error) {
	var msg InitGovernanceMsg
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

// UpdateGovernanceHandler replaces the governance rules.
type UpdateGovernanceHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = UpdateGovernanceHandler{}

func (h UpdateGovernanceHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: bookkeepCost}, nil
}

func (h UpdateGovernanceHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if v.Governance == nil {
		return nil, errors.Wrap(errors.ErrState, "no governance configured")
	}
	if err := h.ctrl.UpdateGovernance(v, msg.Governance); err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h UpdateGovernanceHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*UpdateGovernanceMsg, *Vault, error) {
	var msg UpdateGovernanceMsg
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

// ProposeGovernanceHandler creates a governance proposal. Any signer
// holding at least the proposal threshold of voting weight may
// propose.
type ProposeGovernanceHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = ProposeGovernanceHandler{}

func (h ProposeGovernanceHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: proposalCost}, nil
}

func (h ProposeGovernanceHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, proposer, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	now, err := blockNow(ctx)
	if err != nil {
		return nil, err
	}
	id, err := h.ctrl.CreateGovProposal(db, v, proposer, msg.Title, msg.Description, msg.Instructions, now)
	if err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{Data: encodeSequence(id)}, nil
}

func (h ProposeGovernanceHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*ProposeGovernanceMsg, *Vault, vault.Address, error) {
	var msg ProposeGovernanceMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.bucket.Get(db, msg.VaultID)
	if err != nil {
		return nil, nil, nil, err
	}
	signer := x.MainSigner(ctx, h.auth)
	if signer == nil {
		return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	return &msg, v, signer.Address(), nil
}

// CastVoteHandler records a vote with the weight resolved at cast
// time.
type CastVoteHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = CastVoteHandler{}

func (h CastVoteHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: bookkeepCost}, nil
}

func (h CastVoteHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, voter, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	now, err := blockNow(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.CastVote(db, v, msg.ProposalID, voter, msg.Choice, now); err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h CastVoteHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*CastVoteMsg, *Vault, vault.Address, error) {
	var msg CastVoteMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.bucket.Get(db, msg.VaultID)
	if err != nil {
		return nil, nil, nil, err
	}
	signer := x.MainSigner(ctx, h.auth)
	if signer == nil {
		return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	return &msg, v, signer.Address(), nil
}

// QueueGovernanceHandler queues a proposal after quorum. Anyone may
// trigger the queueing, the conditions are objective.
type QueueGovernanceHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = QueueGovernanceHandler{}

func (h QueueGovernanceHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: bookkeepCost}, nil
}

func (h QueueGovernanceHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	now, err := blockNow(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.QueueProposal(db, v, msg.ProposalID, now); err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h QueueGovernanceHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*QueueGovernanceMsg, *Vault, error) {
	var msg QueueGovernanceMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.bucket.Get(db, msg.VaultID)
	if err != nil {
		return nil, nil, err
	}
	return &msg, v, nil
}

// ExecuteGovernanceHandler executes a queued proposal after the
// timelock. Anyone may trigger the execution.
type ExecuteGovernanceHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = ExecuteGovernanceHandler{}

func (h ExecuteGovernanceHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: proposalCost}, nil
}

func (h ExecuteGovernanceHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	now, err := blockNow(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.ExecuteProposalBatch(db, v, msg.ProposalID, now); err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h ExecuteGovernanceHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*ExecuteGovernanceMsg, *Vault, error) {
	var msg ExecuteGovernanceMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.bucket.Get(db, msg.VaultID)
	if err != nil {
		return nil, nil, err
	}
	return &msg, v, nil
}

// CancelGovernanceHandler cancels an unexecuted proposal, restricted
// to the proposer and the emergency admin.
type CancelGovernanceHandler struct {
	auth   x.Authenticator
	bucket Bucket
	ctrl   Controller
}

var _ vault.Handler = CancelGovernanceHandler{}

func (h CancelGovernanceHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{GasAllocated: bookkeepCost}, nil
}

func (h CancelGovernanceHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.CancelProposal(v, msg.ProposalID); err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.VaultID, v); err != nil {
		return nil, err
	}
	return &vault.DeliverResult{}, nil
}

func (h CancelGovernanceHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*CancelGovernanceMsg, *Vault, error) {
	var msg CancelGovernanceMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.bucket.Get(db, msg.VaultID)
	if err != nil {
		return nil, nil, err
	}
	prop, err := v.govProposal(msg.ProposalID)
	if err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, prop.Proposer) {
		if err := emergencyAuthorized(ctx, h.auth, v); err != nil {
			return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the proposer or the emergency admin may cancel")
		}
	}
	return &msg, v, nil
}

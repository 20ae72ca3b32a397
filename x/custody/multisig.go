package custody

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
)

// The multisig proposal engine. A proposal wraps a single operation
// and reaches the ledger only once the approval threshold, read at
// execution time, is satisfied.

// CreateMultisig installs or replaces the multisig configuration.
// From that point on the multisig members hold the admin gate.
func (c Controller) CreateMultisig(v *Vault, cfg MultisigConfig) error {
	if err := notPaused(v); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	v.Multisig = &cfg
	return nil
}

// CreateMultisigProposal allocates the next proposal id and records
// the proposal with the proposer approval pre-recorded.
func (c Controller) CreateMultisigProposal(v *Vault, proposer vault.Address, op ProposedOp, now vault.UnixTime) (int64, error) {
	if v.Multisig == nil {
		return 0, errors.Wrap(errors.ErrState, "no multisig configured")
	}
	if err := op.Validate(); err != nil {
		return 0, err
	}
	v.ProposalSeq++
	v.Proposals = append(v.Proposals, MultisigProposal{
		ID:        v.ProposalSeq,
		Proposer:  proposer,
		Op:        op,
		Approvals: []vault.Address{proposer},
		CreatedAt: now,
	})
	return v.ProposalSeq, nil
}

// ApproveProposal records an approval. Each member approves at most
// once, repeat approvals fail with ErrDuplicate.
func (c Controller) ApproveProposal(v *Vault, id int64, approver vault.Address) error {
	prop, err := v.proposal(id)
	if err != nil {
		return err
	}
	if prop.Executed {
		return errors.Wrap(errors.ErrState, "proposal already executed")
	}
	for _, a := range prop.Approvals {
		if a.Equals(approver) {
			return errors.Wrapf(errors.ErrDuplicate, "approval by %s", approver)
		}
	}
	prop.Approvals = append(prop.Approvals, approver)
	return nil
}

// ExecuteProposal applies the embedded operation exactly once. The
// threshold is read from the current configuration, not the one at
// creation time, so a later configuration change affects pending
// proposals.
func (c Controller) ExecuteProposal(db vault.KVStore, v *Vault, id int64) error {
	if v.Multisig == nil {
		return errors.Wrap(errors.ErrState, "no multisig configured")
	}
	prop, err := v.proposal(id)
	if err != nil {
		return err
	}
	if prop.Executed {
		return errors.Wrap(errors.ErrState, "proposal already executed")
	}
	if len(prop.Approvals) < int(v.Multisig.Threshold) {
		return errors.Wrapf(ErrThreshold, "%d of %d approvals", len(prop.Approvals), v.Multisig.Threshold)
	}
	if err := c.applyOp(db, v, prop.Op); err != nil {
		return err
	}
	prop.Executed = true
	return nil
}

// RejectProposal removes an unexecuted proposal. Only the original
// proposer may reject.
func (c Controller) RejectProposal(v *Vault, id int64, rejector vault.Address) error {
	prop, err := v.proposal(id)
	if err != nil {
		return err
	}
	if prop.Executed {
		return errors.Wrap(errors.ErrState, "proposal already executed")
	}
	if !prop.Proposer.Equals(rejector) {
		return errors.Wrap(errors.ErrUnauthorized, "only the proposer may reject")
	}
	for i := range v.Proposals {
		if v.Proposals[i].ID == id {
			v.Proposals = append(v.Proposals[:i], v.Proposals[i+1:]...)
			break
		}
	}
	return nil
}

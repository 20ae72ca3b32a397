package custody

import (
	"math/big"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
)

// The governance engine. Proposals walk Pending (voting window open)
// -> Queued (quorum met, timelock running) -> Executed, or get
// cancelled on the way. All ratio comparisons multiply before
// dividing to avoid truncation bias.

// InitGovernance installs the governance configuration. Re-running it
// on a vault with governance fails, use UpdateGovernance instead.
func (c Controller) InitGovernance(v *Vault, cfg GovernanceConfig) error {
	if err := notPaused(v); err != nil {
		return err
	}
	if v.Governance != nil {
		return errors.Wrap(errors.ErrState, "governance already configured")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	v.Governance = &cfg
	return nil
}

// CreateGovProposal creates a proposal if the proposer holds at least
// the proposal threshold of voting weight. The voting window starts
// immediately.
func (c Controller) CreateGovProposal(db vault.KVStore, v *Vault, proposer vault.Address, title, description string, instructions []ProposedOp, now vault.UnixTime) (int64, error) {
	if v.Governance == nil {
		return 0, errors.Wrap(errors.ErrState, "no governance configured")
	}
	weight, err := c.power.Power(db, proposer, v.Governance.VotingTicker)
	if err != nil {
		return 0, errors.Wrap(err, "cannot resolve proposer weight")
	}
	if weight < v.Governance.ProposalThreshold {
		return 0, errors.Wrapf(errors.ErrUnauthorized, "proposer weight %d below threshold %d", weight, v.Governance.ProposalThreshold)
	}
	for i, op := range instructions {
		if err := op.Validate(); err != nil {
			return 0, errors.Wrapf(err, "instruction #%d", i)
		}
	}

	v.GovProposalSeq++
	v.GovProposals = append(v.GovProposals, GovProposal{
		ID:           v.GovProposalSeq,
		Proposer:     proposer,
		Title:        title,
		Description:  description,
		Instructions: instructions,
		VotingStart:  now,
		VotingEnd:    now.Add(v.Governance.VotingPeriod.Duration()),
	})
	return v.GovProposalSeq, nil
}

// CastVote records a vote. The weight is resolved at cast time, not
// snapshotted at proposal creation. One vote per (voter, proposal).
func (c Controller) CastVote(db vault.KVStore, v *Vault, id int64, voter vault.Address, choice VoteOption, now vault.UnixTime) error {
	if v.Governance == nil {
		return errors.Wrap(errors.ErrState, "no governance configured")
	}
	prop, err := v.govProposal(id)
	if err != nil {
		return err
	}
	if prop.Cancelled {
		return errors.Wrap(errors.ErrState, "proposal cancelled")
	}
	if now < prop.VotingStart || now >= prop.VotingEnd {
		return errors.Wrap(errors.ErrState, "voting window closed")
	}
	if v.vote(id, voter) != nil {
		return errors.Wrapf(errors.ErrDuplicate, "vote by %s", voter)
	}
	weight, err := c.power.Power(db, voter, v.Governance.VotingTicker)
	if err != nil {
		return errors.Wrap(err, "cannot resolve voter weight")
	}
	if weight == 0 {
		return errors.Wrap(errors.ErrUnauthorized, "no voting weight")
	}

	switch choice {
	case VoteFor:
		prop.TallyFor += weight
	case VoteAgainst:
		prop.TallyAgainst += weight
	case VoteAbstain:
		prop.TallyAbstain += weight
	default:
		return errors.Wrapf(errors.ErrInput, "vote choice: %d", choice)
	}
	v.Votes = append(v.Votes, VoteRecord{
		ProposalID: id,
		Voter:      voter,
		Choice:     choice,
		Weight:     weight,
		CastAt:     now,
	})
	return nil
}

// QueueProposal queues a proposal after its voting window closed and
// quorum was reached, starting the timelock.
func (c Controller) QueueProposal(db vault.KVStore, v *Vault, id int64, now vault.UnixTime) error {
	if v.Governance == nil {
		return errors.Wrap(errors.ErrState, "no governance configured")
	}
	prop, err := v.govProposal(id)
	if err != nil {
		return err
	}
	if prop.Executed || prop.Cancelled {
		return errors.Wrap(errors.ErrState, "proposal closed")
	}
	if prop.Eta != 0 {
		return errors.Wrap(errors.ErrState, "proposal already queued")
	}
	if now < prop.VotingEnd {
		return errors.Wrap(errors.ErrState, "voting window still open")
	}
	total, err := c.power.TotalPower(db, v.Governance.VotingTicker)
	if err != nil {
		return errors.Wrap(err, "cannot resolve total power")
	}
	participation := prop.TallyFor + prop.TallyAgainst + prop.TallyAbstain
	if !ratioReached(participation, total, v.Governance.QuorumBps) {
		return errors.Wrapf(ErrThreshold, "participation %d of %d below quorum", participation, total)
	}
	prop.Eta = now.Add(v.Governance.TimelockDelay.Duration())
	return nil
}

// ExecuteProposalBatch executes a queued governance proposal once the
// timelock expired. All instructions are applied atomically against a
// copy of the aggregate, a failing instruction leaves ledger and
// transfer capability untouched.
func (c Controller) ExecuteProposalBatch(db vault.KVStore, v *Vault, id int64, now vault.UnixTime) error {
	if v.Governance == nil {
		return errors.Wrap(errors.ErrState, "no governance configured")
	}
	prop, err := v.govProposal(id)
	if err != nil {
		return err
	}
	if prop.Executed {
		return errors.Wrap(errors.ErrState, "proposal already executed")
	}
	if prop.Cancelled {
		return errors.Wrap(errors.ErrState, "proposal cancelled")
	}
	if prop.Eta == 0 {
		return errors.Wrap(errors.ErrState, "proposal not queued")
	}
	if now < prop.Eta {
		return errors.Wrapf(errors.ErrState, "timelock until %s", prop.Eta)
	}
	decisive := prop.TallyFor + prop.TallyAgainst
	if decisive == 0 {
		return errors.Wrap(ErrThreshold, "no decisive votes")
	}
	if !ratioReached(prop.TallyFor, decisive, v.Governance.ExecutionThresholdBps) {
		return errors.Wrapf(ErrThreshold, "%d of %d votes in favour", prop.TallyFor, decisive)
	}

	// Run the whole batch against a scratch copy. Transfers are
	// queued and flushed only once every instruction succeeded.
	queued := &queuedMover{}
	scratch := Controller{mover: queued, power: c.power}
	work := v.Copy()
	for i, op := range prop.Instructions {
		if err := scratch.applyOp(db, work, op); err != nil {
			return errors.Wrapf(err, "instruction #%d", i)
		}
	}
	if err := queued.flush(db, c.mover); err != nil {
		return err
	}
	*v = *work
	prop, err = v.govProposal(id)
	if err != nil {
		return err
	}
	prop.Executed = true
	return nil
}

// CancelProposal cancels an unexecuted proposal.
func (c Controller) CancelProposal(v *Vault, id int64) error {
	prop, err := v.govProposal(id)
	if err != nil {
		return err
	}
	if prop.Executed {
		return errors.Wrap(errors.ErrState, "proposal already executed")
	}
	if prop.Cancelled {
		return errors.Wrap(errors.ErrState, "proposal already cancelled")
	}
	prop.Cancelled = true
	return nil
}

// ratioReached returns true if part/total >= bps/10000, computed with
// a multiplication first so that integer division never biases the
// comparison.
func ratioReached(part, total uint64, bps uint32) bool {
	if total == 0 {
		return false
	}
	lhs := new(big.Int).Mul(new(big.Int).SetUint64(part), big.NewInt(unitBps))
	rhs := new(big.Int).Mul(new(big.Int).SetUint64(total), big.NewInt(int64(bps)))
	return lhs.Cmp(rhs) >= 0
}

package custody

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/coin"
	"github.com/iov-one/vault/errors"
)

const (
	// maxAuthorities bounds the multisig participant set.
	maxAuthorities = 255

	// unitBps is the basis point denominator, thresholds and fees are
	// expressed in parts per ten thousand.
	unitBps = 10000
)

// VoteOption is a single choice in a governance vote.
type VoteOption int32

const (
	VoteInvalid VoteOption = 0
	VoteFor     VoteOption = 1
	VoteAgainst VoteOption = 2
	VoteAbstain VoteOption = 3
)

// Vault is the root aggregate. One record per vault instance,
// serialized as a whole so that every operation observes and commits a
// single consistent state.
type Vault struct {
	Metadata *vault.Metadata `json:"metadata"`
	// Address is the custody account all vault funds are held at.
	Address vault.Address `json:"address"`
	// Authority is the controlling identity. With a multisig
	// configured the multisig takes over the admin gate.
	Authority      vault.Address `json:"authority"`
	EmergencyAdmin vault.Address `json:"emergency_admin"`
	Paused         bool          `json:"paused"`

	Multisig   *MultisigConfig   `json:"multisig,omitempty"`
	Governance *GovernanceConfig `json:"governance,omitempty"`

	Accounts  []TokenAccount `json:"accounts"`
	TimeLocks []TimeLock     `json:"timelocks"`

	Proposals    []MultisigProposal `json:"proposals"`
	GovProposals []GovProposal      `json:"gov_proposals"`
	Votes        []VoteRecord       `json:"votes"`

	Fees FeeConfig `json:"fees"`

	// TotalValue always equals the sum of all account balances.
	TotalValue int64 `json:"total_value"`
	// CollectedFees are accrued fees awaiting collection, tracked
	// outside of TotalValue.
	CollectedFees []coin.Coin `json:"collected_fees"`

	ProposalSeq    int64 `json:"proposal_seq"`
	GovProposalSeq int64 `json:"gov_proposal_seq"`
	LockSeq        int64 `json:"lock_seq"`
}

// MultisigConfig is a set of authorized identities with an approval
// threshold. Threshold never exceeds the set size.
type MultisigConfig struct {
	Authorities []vault.Address `json:"authorities"`
	Threshold   uint32          `json:"threshold"`
}

// GovernanceConfig holds the token weighted voting rules.
type GovernanceConfig struct {
	VotingTicker string `json:"voting_ticker"`
	// QuorumBps is the minimum participation required to queue,
	// relative to the total voting token weight.
	QuorumBps uint32 `json:"quorum_bps"`
	// ProposalThreshold is the minimum voting weight required to
	// create a proposal.
	ProposalThreshold uint64             `json:"proposal_threshold"`
	VotingPeriod      vault.UnixDuration `json:"voting_period"`
	TimelockDelay     vault.UnixDuration `json:"timelock_delay"`
	// ExecutionThresholdBps is the minimum for/(for+against) share
	// required to execute, abstain votes excluded.
	ExecutionThresholdBps uint32 `json:"execution_threshold_bps"`
}

// TokenAccount holds the spendable balance of a single token.
type TokenAccount struct {
	Ticker  string `json:"ticker"`
	Balance int64  `json:"balance"`
	// Strategy is an optional reference to an external yield
	// strategy adapter.
	Strategy vault.Address `json:"strategy,omitempty"`
}

// TimeLock is a vesting schedule. The locked amount is debited from
// the spendable balance when the lock is created and paid out of the
// earmark as it vests.
type TimeLock struct {
	ID          int64          `json:"id"`
	Beneficiary vault.Address  `json:"beneficiary"`
	Ticker      string         `json:"ticker"`
	Amount      int64          `json:"amount"`
	Start       vault.UnixTime `json:"start"`
	// Cliff is an absolute time before which nothing vests. Zero
	// means no cliff.
	Cliff    vault.UnixTime     `json:"cliff,omitempty"`
	Duration vault.UnixDuration `json:"duration"`
	Released int64              `json:"released"`
	// Linear locks vest continuously, others release the full amount
	// at the cliff.
	Linear bool `json:"linear"`
}

// MultisigProposal is an operation awaiting threshold approval.
type MultisigProposal struct {
	ID        int64           `json:"id"`
	Proposer  vault.Address   `json:"proposer"`
	Op        ProposedOp      `json:"op"`
	Approvals []vault.Address `json:"approvals"`
	CreatedAt vault.UnixTime  `json:"created_at"`
	Executed  bool            `json:"executed"`
}

// GovProposal is a governance proposal with a voting window, vote
// tallies and a timelocked execution time.
type GovProposal struct {
	ID           int64          `json:"id"`
	Proposer     vault.Address  `json:"proposer"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Instructions []ProposedOp   `json:"instructions"`
	VotingStart  vault.UnixTime `json:"voting_start"`
	VotingEnd    vault.UnixTime `json:"voting_end"`
	TallyFor     uint64         `json:"tally_for"`
	TallyAgainst uint64         `json:"tally_against"`
	TallyAbstain uint64         `json:"tally_abstain"`
	// Eta is the earliest execution time, set when the proposal is
	// queued. Zero means not queued yet.
	Eta       vault.UnixTime `json:"eta,omitempty"`
	Executed  bool           `json:"executed"`
	Cancelled bool           `json:"cancelled"`
}

// VoteRecord is a single cast vote. One record per (voter, proposal).
type VoteRecord struct {
	ProposalID int64          `json:"proposal_id"`
	Voter      vault.Address  `json:"voter"`
	Choice     VoteOption     `json:"choice"`
	Weight     uint64         `json:"weight"`
	CastAt     vault.UnixTime `json:"cast_at"`
}

// FeeConfig holds fee rates in basis points and the fee recipient.
type FeeConfig struct {
	DepositBps    uint32        `json:"deposit_bps"`
	WithdrawalBps uint32        `json:"withdrawal_bps"`
	Recipient     vault.Address `json:"recipient"`
}

// ProposedOp is a closed union of all operations a proposal may embed.
// Exactly one variant must be set. The executor matches exhaustively,
// an unknown or empty op can never be applied.
type ProposedOp struct {
	Withdraw             *WithdrawOp             `json:"withdraw,omitempty"`
	CreateTimeLock       *CreateTimeLockOp       `json:"create_timelock,omitempty"`
	CancelTimeLock       *CancelTimeLockOp       `json:"cancel_timelock,omitempty"`
	UpdateFeeConfig      *UpdateFeeConfigOp      `json:"update_fee_config,omitempty"`
	CollectFees          *CollectFeesOp          `json:"collect_fees,omitempty"`
	TransferAuthority    *TransferAuthorityOp    `json:"transfer_authority,omitempty"`
	UpdateEmergencyAdmin *UpdateEmergencyAdminOp `json:"update_emergency_admin,omitempty"`
	UpdateGovernance     *UpdateGovernanceOp     `json:"update_governance,omitempty"`
	SetStrategy          *SetStrategyOp          `json:"set_strategy,omitempty"`
}

type WithdrawOp struct {
	Amount      coin.Coin     `json:"amount"`
	Destination vault.Address `json:"destination"`
}

type CreateTimeLockOp struct {
	Beneficiary vault.Address      `json:"beneficiary"`
	Amount      coin.Coin          `json:"amount"`
	Start       vault.UnixTime     `json:"start"`
	Cliff       vault.UnixTime     `json:"cliff,omitempty"`
	Duration    vault.UnixDuration `json:"duration"`
	Linear      bool               `json:"linear"`
}

type CancelTimeLockOp struct {
	LockID int64 `json:"lock_id"`
}

type UpdateFeeConfigOp struct {
	Fees FeeConfig `json:"fees"`
}

type CollectFeesOp struct {
}

type TransferAuthorityOp struct {
	NewAuthority vault.Address `json:"new_authority"`
}

type UpdateEmergencyAdminOp struct {
	NewAdmin vault.Address `json:"new_admin"`
}

type UpdateGovernanceOp struct {
	Governance GovernanceConfig `json:"governance"`
}

type SetStrategyOp struct {
	Ticker   string        `json:"ticker"`
	Strategy vault.Address `json:"strategy"`
}

func (v *Vault) Validate() error {
	if err := v.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := v.Address.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}
	if err := v.Authority.Validate(); err != nil {
		return errors.Wrap(err, "authority")
	}
	if err := v.EmergencyAdmin.Validate(); err != nil {
		return errors.Wrap(err, "emergency admin")
	}
	if v.Multisig != nil {
		if err := v.Multisig.Validate(); err != nil {
			return errors.Wrap(err, "multisig")
		}
	}
	if v.Governance != nil {
		if err := v.Governance.Validate(); err != nil {
			return errors.Wrap(err, "governance")
		}
	}
	if err := v.Fees.Validate(); err != nil {
		return errors.Wrap(err, "fees")
	}
	var sum int64
	for _, a := range v.Accounts {
		if !coin.IsCC(a.Ticker) {
			return errors.Wrapf(errors.ErrCurrency, "account ticker: %s", a.Ticker)
		}
		if a.Balance < 0 {
			return errors.Wrapf(errors.ErrAmount, "negative balance: %s", a.Ticker)
		}
		next, err := safeAdd(sum, a.Balance)
		if err != nil {
			return err
		}
		sum = next
	}
	if sum != v.TotalValue {
		return errors.Wrapf(errors.ErrModel, "total value %d, account sum %d", v.TotalValue, sum)
	}
	return nil
}

func (c *MultisigConfig) Validate() error {
	if n := len(c.Authorities); n < 1 || n > maxAuthorities {
		return errors.Wrapf(errors.ErrMsg, "authorities count: %d", n)
	}
	if c.Threshold < 1 || int(c.Threshold) > len(c.Authorities) {
		return errors.Wrapf(errors.ErrMsg, "threshold: %d", c.Threshold)
	}
	for i, a := range c.Authorities {
		if err := a.Validate(); err != nil {
			return errors.Wrapf(err, "authority #%d", i)
		}
		for _, o := range c.Authorities[:i] {
			if a.Equals(o) {
				return errors.Wrapf(errors.ErrDuplicate, "authority %s", a)
			}
		}
	}
	return nil
}

// Authorized returns true if the address belongs to the multisig set.
func (c *MultisigConfig) Authorized(addr vault.Address) bool {
	for _, a := range c.Authorities {
		if a.Equals(addr) {
			return true
		}
	}
	return false
}

func (c *GovernanceConfig) Validate() error {
	if !coin.IsCC(c.VotingTicker) {
		return errors.Wrapf(errors.ErrCurrency, "voting ticker: %s", c.VotingTicker)
	}
	if c.QuorumBps > unitBps {
		return errors.Wrapf(errors.ErrMsg, "quorum bps: %d", c.QuorumBps)
	}
	if c.ExecutionThresholdBps < 1 || c.ExecutionThresholdBps > unitBps {
		return errors.Wrapf(errors.ErrMsg, "execution threshold bps: %d", c.ExecutionThresholdBps)
	}
	if c.VotingPeriod < 1 {
		return errors.Wrap(errors.ErrMsg, "voting period must be positive")
	}
	if c.TimelockDelay < 0 {
		return errors.Wrap(errors.ErrMsg, "timelock delay must not be negative")
	}
	return nil
}

func (f *FeeConfig) Validate() error {
	if f.DepositBps > unitBps {
		return errors.Wrapf(errors.ErrMsg, "deposit bps: %d", f.DepositBps)
	}
	if f.WithdrawalBps > unitBps {
		return errors.Wrapf(errors.ErrMsg, "withdrawal bps: %d", f.WithdrawalBps)
	}
	if (f.DepositBps > 0 || f.WithdrawalBps > 0) && f.Recipient == nil {
		return errors.Wrap(errors.ErrEmpty, "fee recipient")
	}
	if f.Recipient != nil {
		if err := f.Recipient.Validate(); err != nil {
			return errors.Wrap(err, "fee recipient")
		}
	}
	return nil
}

// Validate ensures exactly one operation variant is set and that it is
// well formed.
func (op *ProposedOp) Validate() error {
	var set int
	if op.Withdraw != nil {
		set++
		if err := op.Withdraw.Amount.Validate(); err != nil {
			return errors.Wrap(err, "withdraw amount")
		}
		if !op.Withdraw.Amount.IsPositive() {
			return errors.Wrap(errors.ErrAmount, "withdraw amount must be positive")
		}
		if err := op.Withdraw.Destination.Validate(); err != nil {
			return errors.Wrap(err, "withdraw destination")
		}
	}
	if op.CreateTimeLock != nil {
		set++
		c := op.CreateTimeLock
		if err := c.Amount.Validate(); err != nil {
			return errors.Wrap(err, "lock amount")
		}
		if !c.Amount.IsPositive() {
			return errors.Wrap(errors.ErrAmount, "lock amount must be positive")
		}
		if err := c.Beneficiary.Validate(); err != nil {
			return errors.Wrap(err, "beneficiary")
		}
		if c.Linear && c.Duration < 1 {
			return errors.Wrap(errors.ErrMsg, "linear lock needs a positive duration")
		}
		if !c.Linear && c.Cliff == 0 {
			return errors.Wrap(errors.ErrMsg, "cliff lock needs a cliff time")
		}
	}
	if op.CancelTimeLock != nil {
		set++
	}
	if op.UpdateFeeConfig != nil {
		set++
		if err := op.UpdateFeeConfig.Fees.Validate(); err != nil {
			return errors.Wrap(err, "fee config")
		}
	}
	if op.CollectFees != nil {
		set++
	}
	if op.TransferAuthority != nil {
		set++
		if err := op.TransferAuthority.NewAuthority.Validate(); err != nil {
			return errors.Wrap(err, "new authority")
		}
	}
	if op.UpdateEmergencyAdmin != nil {
		set++
		if err := op.UpdateEmergencyAdmin.NewAdmin.Validate(); err != nil {
			return errors.Wrap(err, "new admin")
		}
	}
	if op.UpdateGovernance != nil {
		set++
		if err := op.UpdateGovernance.Governance.Validate(); err != nil {
			return errors.Wrap(err, "governance config")
		}
	}
	if op.SetStrategy != nil {
		set++
		if !coin.IsCC(op.SetStrategy.Ticker) {
			return errors.Wrapf(errors.ErrCurrency, "strategy ticker: %s", op.SetStrategy.Ticker)
		}
	}
	if set != 1 {
		return errors.Wrapf(errors.ErrMsg, "exactly one operation required, got %d", set)
	}
	return nil
}

// Copy returns a deep copy of the aggregate. Mutations applied to the
// copy never leak into the original, which is what makes atomic batch
// execution possible.
func (v *Vault) Copy() *Vault {
	cpy := *v
	cpy.Metadata = &vault.Metadata{Schema: v.Metadata.Schema}
	cpy.Address = v.Address.Clone()
	cpy.Authority = v.Authority.Clone()
	cpy.EmergencyAdmin = v.EmergencyAdmin.Clone()
	if v.Multisig != nil {
		ms := MultisigConfig{
			Authorities: cloneAddresses(v.Multisig.Authorities),
			Threshold:   v.Multisig.Threshold,
		}
		cpy.Multisig = &ms
	}
	if v.Governance != nil {
		gov := *v.Governance
		cpy.Governance = &gov
	}
	cpy.Accounts = append([]TokenAccount(nil), v.Accounts...)
	for i := range cpy.Accounts {
		cpy.Accounts[i].Strategy = v.Accounts[i].Strategy.Clone()
	}
	cpy.TimeLocks = append([]TimeLock(nil), v.TimeLocks...)
	for i := range cpy.TimeLocks {
		cpy.TimeLocks[i].Beneficiary = v.TimeLocks[i].Beneficiary.Clone()
	}
	cpy.Proposals = append([]MultisigProposal(nil), v.Proposals...)
	for i := range cpy.Proposals {
		cpy.Proposals[i].Proposer = v.Proposals[i].Proposer.Clone()
		cpy.Proposals[i].Approvals = cloneAddresses(v.Proposals[i].Approvals)
	}
	cpy.GovProposals = append([]GovProposal(nil), v.GovProposals...)
	for i := range cpy.GovProposals {
		cpy.GovProposals[i].Proposer = v.GovProposals[i].Proposer.Clone()
		cpy.GovProposals[i].Instructions = append([]ProposedOp(nil), v.GovProposals[i].Instructions...)
	}
	cpy.Votes = append([]VoteRecord(nil), v.Votes...)
	for i := range cpy.Votes {
		cpy.Votes[i].Voter = v.Votes[i].Voter.Clone()
	}
	cpy.Fees.Recipient = v.Fees.Recipient.Clone()
	cpy.CollectedFees = append([]coin.Coin(nil), v.CollectedFees...)
	return &cpy
}

func cloneAddresses(addrs []vault.Address) []vault.Address {
	if addrs == nil {
		return nil
	}
	out := make([]vault.Address, len(addrs))
	for i, a := range addrs {
		out[i] = a.Clone()
	}
	return out
}

// account returns the token account for the ticker, or nil.
func (v *Vault) account(ticker string) *TokenAccount {
	for i := range v.Accounts {
		if v.Accounts[i].Ticker == ticker {
			return &v.Accounts[i]
		}
	}
	return nil
}

// openAccount returns the token account for the ticker, creating an
// empty one if the vault did not hold this token before.
func (v *Vault) openAccount(ticker string) *TokenAccount {
	if acc := v.account(ticker); acc != nil {
		return acc
	}
	v.Accounts = append(v.Accounts, TokenAccount{Ticker: ticker})
	return &v.Accounts[len(v.Accounts)-1]
}

// proposal returns the multisig proposal with this id, or ErrNotFound.
func (v *Vault) proposal(id int64) (*MultisigProposal, error) {
	for i := range v.Proposals {
		if v.Proposals[i].ID == id {
			return &v.Proposals[i], nil
		}
	}
	return nil, errors.Wrapf(errors.ErrNotFound, "proposal %d", id)
}

// govProposal returns the governance proposal with this id, or
// ErrNotFound.
func (v *Vault) govProposal(id int64) (*GovProposal, error) {
	for i := range v.GovProposals {
		if v.GovProposals[i].ID == id {
			return &v.GovProposals[i], nil
		}
	}
	return nil, errors.Wrapf(errors.ErrNotFound, "governance proposal %d", id)
}

// timeLock returns the time lock with this id, or ErrNotFound.
func (v *Vault) timeLock(id int64) (*TimeLock, error) {
	for i := range v.TimeLocks {
		if v.TimeLocks[i].ID == id {
			return &v.TimeLocks[i], nil
		}
	}
	return nil, errors.Wrapf(errors.ErrNotFound, "timelock %d", id)
}

// vote returns the vote record of this voter on this proposal, or nil.
func (v *Vault) vote(proposalID int64, voter vault.Address) *VoteRecord {
	for i := range v.Votes {
		if v.Votes[i].ProposalID == proposalID && v.Votes[i].Voter.Equals(voter) {
			return &v.Votes[i]
		}
	}
	return nil
}

// accrueFee adds the fee to the collected fee counter of its ticker.
func (v *Vault) accrueFee(fee coin.Coin) error {
	if fee.IsZero() {
		return nil
	}
	for i := range v.CollectedFees {
		if v.CollectedFees[i].SameType(fee) {
			total, err := v.CollectedFees[i].Add(fee)
			if err != nil {
				return err
			}
			v.CollectedFees[i] = total
			return nil
		}
	}
	v.CollectedFees = append(v.CollectedFees, fee)
	return nil
}

// safeAdd adds two non wrapping int64 values, failing closed on
// overflow.
func safeAdd(a, b int64) (int64, error) {
	sum := a + b
	if b > 0 && sum < a {
		return 0, errors.ErrOverflow
	}
	if b < 0 && sum > a {
		return 0, errors.ErrOverflow
	}
	return sum, nil
}

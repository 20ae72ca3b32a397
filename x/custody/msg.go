package custody

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/coin"
	"github.com/iov-one/vault/errors"
)

// Ensure every message is routable.
var (
	_ vault.Msg = (*InitVaultMsg)(nil)
	_ vault.Msg = (*DepositMsg)(nil)
	_ vault.Msg = (*WithdrawMsg)(nil)
	_ vault.Msg = (*CreateMultisigMsg)(nil)
	_ vault.Msg = (*ProposeMultisigMsg)(nil)
	_ vault.Msg = (*ApproveMultisigMsg)(nil)
	_ vault.Msg = (*ExecuteMultisigMsg)(nil)
	_ vault.Msg = (*RejectMultisigMsg)(nil)
	_ vault.Msg = (*InitGovernanceMsg)(nil)
	_ vault.Msg = (*UpdateGovernanceMsg)(nil)
	_ vault.Msg = (*ProposeGovernanceMsg)(nil)
	_ vault.Msg = (*CastVoteMsg)(nil)
	_ vault.Msg = (*QueueGovernanceMsg)(nil)
	_ vault.Msg = (*ExecuteGovernanceMsg)(nil)
	_ vault.Msg = (*CancelGovernanceMsg)(nil)
	_ vault.Msg = (*CreateTimeLockMsg)(nil)
	_ vault.Msg = (*ClaimTimeLockMsg)(nil)
	_ vault.Msg = (*CancelTimeLockMsg)(nil)
	_ vault.Msg = (*UpdateFeeConfigMsg)(nil)
	_ vault.Msg = (*CollectFeesMsg)(nil)
	_ vault.Msg = (*PauseMsg)(nil)
	_ vault.Msg = (*UnpauseMsg)(nil)
	_ vault.Msg = (*EmergencyWithdrawMsg)(nil)
	_ vault.Msg = (*TransferAuthorityMsg)(nil)
	_ vault.Msg = (*UpdateEmergencyAdminMsg)(nil)
	_ vault.Msg = (*SetStrategyMsg)(nil)
)

// vaultIDLength is the length of a sequence allocated vault id.
const vaultIDLength = 8

func validateVaultID(id []byte) error {
	if len(id) != vaultIDLength {
		return errors.Wrapf(errors.ErrInput, "vault id must be %d bytes", vaultIDLength)
	}
	return nil
}

// InitVaultMsg creates a new vault instance.
type InitVaultMsg struct {
	Metadata       *vault.Metadata `json:"metadata"`
	Authority      vault.Address   `json:"authority"`
	EmergencyAdmin vault.Address   `json:"emergency_admin"`
	Fees           FeeConfig       `json:"fees"`
	// Tickers of token accounts to open upfront. Deposits open
	// accounts on demand, so this may be empty.
	Tickers []string `json:"tickers,omitempty"`
}

func (InitVaultMsg) Path() string {
	return "custody/init_vault"
}

func (m *InitVaultMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Authority.Validate(); err != nil {
		return errors.Wrap(err, "authority")
	}
	if err := m.EmergencyAdmin.Validate(); err != nil {
		return errors.Wrap(err, "emergency admin")
	}
	if err := m.Fees.Validate(); err != nil {
		return errors.Wrap(err, "fees")
	}
	for _, t := range m.Tickers {
		if !coin.IsCC(t) {
			return errors.Wrapf(errors.ErrCurrency, "ticker: %s", t)
		}
	}
	return nil
}

// DepositMsg moves tokens into vault custody. The deposit fee is
// deducted from the credited amount.
type DepositMsg struct {
	Metadata *vault.Metadata `json:"metadata"`
	VaultID  []byte          `json:"vault_id"`
	Amount   coin.Coin       `json:"amount"`
	// Source defaults to the main signer.
	Source vault.Address `json:"source,omitempty"`
}

func (DepositMsg) Path() string {
	return "custody/deposit"
}

func (m *DepositMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	if err := m.Amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !m.Amount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "amount must be positive")
	}
	if m.Source != nil {
		if err := m.Source.Validate(); err != nil {
			return errors.Wrap(err, "source")
		}
	}
	return nil
}

// WithdrawMsg releases tokens from vault custody. The withdrawal fee
// is deducted from the released amount.
type WithdrawMsg struct {
	Metadata    *vault.Metadata `json:"metadata"`
	VaultID     []byte          `json:"vault_id"`
	Amount      coin.Coin       `json:"amount"`
	Destination vault.Address   `json:"destination"`
}

func (WithdrawMsg) Path() string {
	return "custody/withdraw"
}

func (m *WithdrawMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	if err := m.Amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !m.Amount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "amount must be positive")
	}
	if err := m.Destination.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	return nil
}

// CreateMultisigMsg installs or replaces the multisig configuration.
// Once installed the multisig takes over the admin gate.
type CreateMultisigMsg struct {
	Metadata *vault.Metadata `json:"metadata"`
	VaultID  []byte          `json:"vault_id"`
	Config   MultisigConfig  `json:"config"`
}

func (CreateMultisigMsg) Path() string {
	return "custody/create_multisig"
}

func (m *CreateMultisigMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	return m.Config.Validate()
}

// ProposeMultisigMsg creates a multisig proposal wrapping a single
// operation. The proposer approval is pre-recorded.
type ProposeMultisigMsg struct {
	Metadata *vault.Metadata `json:"metadata"`
	VaultID  []byte          `json:"vault_id"`
	Op       ProposedOp      `json:"op"`
}

func (ProposeMultisigMsg) Path() string {
	return "custody/propose_multisig"
}

func (m *ProposeMultisigMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	return m.Op.Validate()
}

// ApproveMultisigMsg records an approval on a pending proposal.
type ApproveMultisigMsg struct {
	Metadata   *vault.Metadata `json:"metadata"`
	VaultID    []byte          `json:"vault_id"`
	ProposalID int64           `json:"proposal_id"`
}

func (ApproveMultisigMsg) Path() string {
	return "custody/approve_multisig"
}

func (m *ApproveMultisigMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	if m.ProposalID < 1 {
		return errors.Wrap(errors.ErrInput, "proposal id")
	}
	return nil
}

// ExecuteMultisigMsg applies the embedded operation if the approval
// threshold, read at execution time, is satisfied.
type ExecuteMultisigMsg struct {
	Metadata   *vault.Metadata `json:"metadata"`
	VaultID    []byte          `json:"vault_id"`
	ProposalID int64           `json:"proposal_id"`
}

func (ExecuteMultisigMsg) Path() string {
	return "custody/execute_multisig"
}

func (m *ExecuteMultisigMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	if m.ProposalID < 1 {
		return errors.Wrap(errors.ErrInput, "proposal id")
	}
	return nil
}

// RejectMultisigMsg removes an unexecuted proposal. Only the original
// proposer may reject.
type RejectMultisigMsg struct {
	Metadata   *vault.Metadata `json:"metadata"`
	VaultID    []byte          `json:"vault_id"`
	ProposalID int64           `json:"proposal_id"`
}

func (RejectMultisigMsg) Path() string {
	return "custody/reject_multisig"
}

func (m *RejectMultisigMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	if m.ProposalID < 1 {
		return errors.Wrap(errors.ErrInput, "proposal id")
	}
	return nil
}

// InitGovernanceMsg installs the governance configuration.
type InitGovernanceMsg struct {
	Metadata   *vault.Metadata  `json:"metadata"`
	VaultID    []byte           `json:"vault_id"`
	Governance GovernanceConfig `json:"governance"`
}

func (InitGovernanceMsg) Path() string {
	return "custody/init_governance"
}

func (m *InitGovernanceMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	return m.Governance.Validate()
}

// UpdateGovernanceMsg replaces the governance rules of a vault that
// already has governance configured.
type UpdateGovernanceMsg struct {
	Metadata   *vault.Metadata  `json:"metadata"`
	VaultID    []byte           `json:"vault_id"`
	Governance GovernanceConfig `json:"governance"`
}

func (UpdateGovernanceMsg) Path() string {
	return "custody/update_governance"
}

func (m *UpdateGovernanceMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	return m.Governance.Validate()
}

// ProposeGovernanceMsg creates a governance proposal with an ordered
// batch of instructions.
type ProposeGovernanceMsg struct {
	Metadata     *vault.Metadata `json:"metadata"`
	VaultID      []byte          `json:"vault_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Instructions []ProposedOp    `json:"instructions"`
}

func (ProposeGovernanceMsg) Path() string {
	return "custody/propose_governance"
}

func (m *ProposeGovernanceMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	if m.Title == "" {
		return errors.Wrap(errors.ErrEmpty, "title")
	}
	if len(m.Instructions) == 0 {
		return errors.Wrap(errors.ErrEmpty, "instructions")
	}
	for i, op := range m.Instructions {
		if err := op.Validate(); err != nil {
			return errors.Wrapf(err, "instruction #%d", i)
		}
	}
	return nil
}

// CastVoteMsg records a vote. Weight is resolved at cast time.
type CastVoteMsg struct {
	Metadata   *vault.Metadata `json:"metadata"`
	VaultID    []byte          `json:"vault_id"`
	ProposalID int64           `json:"proposal_id"`
	Choice     VoteOption      `json:"choice"`
}

func (CastVoteMsg) Path() string {
	return "custody/cast_vote"
}

func (m *CastVoteMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	if m.ProposalID < 1 {
		return errors.Wrap(errors.ErrInput, "proposal id")
	}
	switch m.Choice {
	case VoteFor, VoteAgainst, VoteAbstain:
		return nil
	default:
		return errors.Wrapf(errors.ErrInput, "vote choice: %d", m.Choice)
	}
}

// QueueGovernanceMsg queues a proposal that reached quorum after its
// voting window closed, starting the timelock.
type QueueGovernanceMsg struct {
	Metadata   *vault.Metadata `json:"metadata"`
	VaultID    []byte          `json:"vault_id"`
	ProposalID int64           `json:"proposal_id"`
}

func (QueueGovernanceMsg) Path() string {
	return "custody/queue_governance"
}

func (m *QueueGovernanceMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	if m.ProposalID < 1 {
		return errors.Wrap(errors.ErrInput, "proposal id")
	}
	return nil
}

// ExecuteGovernanceMsg executes a queued proposal once the timelock
// expired. All instructions apply atomically.
type ExecuteGovernanceMsg struct {
	Metadata   *vault.Metadata `json:"metadata"`
	VaultID    []byte          `json:"vault_id"`
	ProposalID int64           `json:"proposal_id"`
}

func (ExecuteGovernanceMsg) Path() string {
	return "custody/execute_governance"
}

func (m *ExecuteGovernanceMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	if m.ProposalID < 1 {
		return errors.Wrap(errors.ErrInput, "proposal id")
	}
	return nil
}

// CancelGovernanceMsg cancels an unexecuted proposal. Restricted to
// the proposer and the emergency admin.
type CancelGovernanceMsg struct {
	Metadata   *vault.Metadata `json:"metadata"`
	VaultID    []byte          `json:"vault_id"`
	ProposalID int64           `json:"proposal_id"`
}

func (CancelGovernanceMsg) Path() string {
	return "custody/cancel_governance"
}

func (m *CancelGovernanceMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	if m.ProposalID < 1 {
		return errors.Wrap(errors.ErrInput, "proposal id")
	}
	return nil
}

// CreateTimeLockMsg earmarks spendable balance into a vesting
// schedule.
type CreateTimeLockMsg struct {
	Metadata    *vault.Metadata    `json:"metadata"`
	VaultID     []byte             `json:"vault_id"`
	Beneficiary vault.Address      `json:"beneficiary"`
	Amount      coin.Coin          `json:"amount"`
	Start       vault.UnixTime     `json:"start"`
	Cliff       vault.UnixTime     `json:"cliff,omitempty"`
	Duration    vault.UnixDuration `json:"duration"`
	Linear      bool               `json:"linear"`
}

func (CreateTimeLockMsg) Path() string {
	return "custody/create_timelock"
}

func (m *CreateTimeLockMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	op := ProposedOp{CreateTimeLock: &CreateTimeLockOp{
		Beneficiary: m.Beneficiary,
		Amount:      m.Amount,
		Start:       m.Start,
		Cliff:       m.Cliff,
		Duration:    m.Duration,
		Linear:      m.Linear,
	}}
	return op.Validate()
}

// ClaimTimeLockMsg pays out the vested, not yet released part of a
// time lock to its beneficiary.
type ClaimTimeLockMsg struct {
	Metadata *vault.Metadata `json:"metadata"`
	VaultID  []byte          `json:"vault_id"`
	LockID   int64           `json:"lock_id"`
}

func (ClaimTimeLockMsg) Path() string {
	return "custody/claim_timelock"
}

func (m *ClaimTimeLockMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	if m.LockID < 1 {
		return errors.Wrap(errors.ErrInput, "lock id")
	}
	return nil
}

// CancelTimeLockMsg removes a time lock and credits the unreleased
// remainder back to the spendable balance.
type CancelTimeLockMsg struct {
	Metadata *vault.Metadata `json:"metadata"`
	VaultID  []byte          `json:"vault_id"`
	LockID   int64           `json:"lock_id"`
}

func (CancelTimeLockMsg) Path() string {
	return "custody/cancel_timelock"
}

func (m *CancelTimeLockMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	if m.LockID < 1 {
		return errors.Wrap(errors.ErrInput, "lock id")
	}
	return nil
}

// UpdateFeeConfigMsg replaces the fee configuration.
type UpdateFeeConfigMsg struct {
	Metadata *vault.Metadata `json:"metadata"`
	VaultID  []byte          `json:"vault_id"`
	Fees     FeeConfig       `json:"fees"`
}

func (UpdateFeeConfigMsg) Path() string {
	return "custody/update_fee_config"
}

func (m *UpdateFeeConfigMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	return m.Fees.Validate()
}

// CollectFeesMsg transfers all accrued fees to the fee recipient and
// resets the counters.
type CollectFeesMsg struct {
	Metadata *vault.Metadata `json:"metadata"`
	VaultID  []byte          `json:"vault_id"`
}

func (CollectFeesMsg) Path() string {
	return "custody/collect_fees"
}

func (m *CollectFeesMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return validateVaultID(m.VaultID)
}

// PauseMsg stops all mutating ledger operations except the emergency
// withdrawal.
type PauseMsg struct {
	Metadata *vault.Metadata `json:"metadata"`
	VaultID  []byte          `json:"vault_id"`
}

func (PauseMsg) Path() string {
	return "custody/pause"
}

func (m *PauseMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return validateVaultID(m.VaultID)
}

// UnpauseMsg lifts the pause.
type UnpauseMsg struct {
	Metadata *vault.Metadata `json:"metadata"`
	VaultID  []byte          `json:"vault_id"`
}

func (UnpauseMsg) Path() string {
	return "custody/unpause"
}

func (m *UnpauseMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return validateVaultID(m.VaultID)
}

// EmergencyWithdrawMsg is the recovery path. It bypasses the pause,
// is restricted to the emergency admin and saturates at the available
// balance instead of failing.
type EmergencyWithdrawMsg struct {
	Metadata    *vault.Metadata `json:"metadata"`
	VaultID     []byte          `json:"vault_id"`
	Amount      coin.Coin       `json:"amount"`
	Destination vault.Address   `json:"destination"`
}

func (EmergencyWithdrawMsg) Path() string {
	return "custody/emergency_withdraw"
}

func (m *EmergencyWithdrawMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	if err := m.Amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !m.Amount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "amount must be positive")
	}
	if err := m.Destination.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	return nil
}

// TransferAuthorityMsg hands the vault over to a new authority. The
// emergency admin is re-pointed to the new authority as well.
type TransferAuthorityMsg struct {
	Metadata     *vault.Metadata `json:"metadata"`
	VaultID      []byte          `json:"vault_id"`
	NewAuthority vault.Address   `json:"new_authority"`
}

func (TransferAuthorityMsg) Path() string {
	return "custody/transfer_authority"
}

func (m *TransferAuthorityMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	return m.NewAuthority.Validate()
}

// UpdateEmergencyAdminMsg moves only the emergency admin.
type UpdateEmergencyAdminMsg struct {
	Metadata *vault.Metadata `json:"metadata"`
	VaultID  []byte          `json:"vault_id"`
	NewAdmin vault.Address   `json:"new_admin"`
}

func (UpdateEmergencyAdminMsg) Path() string {
	return "custody/update_emergency_admin"
}

func (m *UpdateEmergencyAdminMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	return m.NewAdmin.Validate()
}

// SetStrategyMsg records a yield strategy reference on a token
// account. The strategy itself is an external capability.
type SetStrategyMsg struct {
	Metadata *vault.Metadata `json:"metadata"`
	VaultID  []byte          `json:"vault_id"`
	Ticker   string          `json:"ticker"`
	Strategy vault.Address   `json:"strategy"`
}

func (SetStrategyMsg) Path() string {
	return "custody/set_strategy"
}

func (m *SetStrategyMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateVaultID(m.VaultID); err != nil {
		return err
	}
	if !coin.IsCC(m.Ticker) {
		return errors.Wrapf(errors.ErrCurrency, "ticker: %s", m.Ticker)
	}
	if m.Strategy != nil {
		if err := m.Strategy.Validate(); err != nil {
			return errors.Wrap(err, "strategy")
		}
	}
	return nil
}

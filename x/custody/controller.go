package custody

import (
	"math/big"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/coin"
	"github.com/iov-one/vault/errors"
)

// Controller implements all ledger operations on the vault aggregate.
// Every method validates completely before the first mutation, so a
// returned error guarantees an untouched aggregate. Token transfers
// are delegated to the CoinMover and happen only after the aggregate
// math succeeded.
type Controller struct {
	mover CoinMover
	power PowerSource
}

// NewController returns a controller using the given transfer and
// voting weight capabilities.
func NewController(mover CoinMover, power PowerSource) Controller {
	return Controller{mover: mover, power: power}
}

// feeFor computes floor(amount * bps / 10000). Computed in big integer
// space so that the multiplication cannot overflow.
func feeFor(amount int64, bps uint32) int64 {
	fee := new(big.Int).Mul(big.NewInt(amount), big.NewInt(int64(bps)))
	fee.Div(fee, big.NewInt(unitBps))
	return fee.Int64()
}

func notPaused(v *Vault) error {
	if v.Paused {
		return errors.Wrap(errors.ErrState, "vault is paused")
	}
	return nil
}

// Deposit moves the amount into custody. The deposit fee is kept back
// from the credited balance and accrued for the fee recipient.
func (c Controller) Deposit(db vault.KVStore, v *Vault, amount coin.Coin, src vault.Address) (int64, error) {
	if err := notPaused(v); err != nil {
		return 0, err
	}
	fee := feeFor(amount.Amount, v.Fees.DepositBps)
	credited := amount.Amount - fee

	acc := v.openAccount(amount.Ticker)
	balance, err := safeAdd(acc.Balance, credited)
	if err != nil {
		return 0, err
	}
	total, err := safeAdd(v.TotalValue, credited)
	if err != nil {
		return 0, err
	}

	acc.Balance = balance
	v.TotalValue = total
	if err := v.accrueFee(coin.NewCoin(fee, amount.Ticker)); err != nil {
		return 0, err
	}
	if err := c.mover.MoveCoins(db, src, v.Address, amount); err != nil {
		return 0, errors.Wrap(err, "cannot move deposit")
	}
	return credited, nil
}

// Withdraw releases the amount from custody. The full amount is
// debited, the withdrawal fee is kept back from the released tokens.
func (c Controller) Withdraw(db vault.KVStore, v *Vault, amount coin.Coin, dst vault.Address) (int64, error) {
	if err := notPaused(v); err != nil {
		return 0, err
	}
	acc := v.account(amount.Ticker)
	if acc == nil || acc.Balance < amount.Amount {
		return 0, errors.Wrapf(errors.ErrInsufficientAmount, "withdraw %s", amount)
	}
	fee := feeFor(amount.Amount, v.Fees.WithdrawalBps)
	released := amount.Amount - fee

	acc.Balance -= amount.Amount
	v.TotalValue -= amount.Amount
	if err := v.accrueFee(coin.NewCoin(fee, amount.Ticker)); err != nil {
		return 0, err
	}
	if released > 0 {
		out := coin.NewCoin(released, amount.Ticker)
		if err := c.mover.MoveCoins(db, v.Address, dst, out); err != nil {
			return 0, errors.Wrap(err, "cannot move withdrawal")
		}
	}
	return released, nil
}

// CreateTimeLock earmarks spendable balance into a vesting schedule.
// The locked amount leaves the spendable balance and the total value
// immediately, claims are paid out of the earmark.
func (c Controller) CreateTimeLock(v *Vault, op CreateTimeLockOp) (int64, error) {
	if err := notPaused(v); err != nil {
		return 0, err
	}
	acc := v.account(op.Amount.Ticker)
	if acc == nil || acc.Balance < op.Amount.Amount {
		return 0, errors.Wrapf(errors.ErrInsufficientAmount, "lock %s", op.Amount)
	}

	acc.Balance -= op.Amount.Amount
	v.TotalValue -= op.Amount.Amount
	v.LockSeq++
	v.TimeLocks = append(v.TimeLocks, TimeLock{
		ID:          v.LockSeq,
		Beneficiary: op.Beneficiary,
		Ticker:      op.Amount.Ticker,
		Amount:      op.Amount.Amount,
		Start:       op.Start,
		Cliff:       op.Cliff,
		Duration:    op.Duration,
		Linear:      op.Linear,
	})
	return v.LockSeq, nil
}

// ClaimTimeLock pays the vested, unreleased part of a lock to its
// beneficiary. Only the beneficiary may claim.
func (c Controller) ClaimTimeLock(db vault.KVStore, v *Vault, lockID int64, claimant vault.Address, now vault.UnixTime) (int64, error) {
	if err := notPaused(v); err != nil {
		return 0, err
	}
	lock, err := v.timeLock(lockID)
	if err != nil {
		return 0, err
	}
	if !lock.Beneficiary.Equals(claimant) {
		return 0, errors.Wrap(errors.ErrUnauthorized, "only the beneficiary may claim")
	}
	claimable := lock.Claimable(now)
	if claimable <= 0 {
		return 0, errors.Wrap(errors.ErrAmount, "nothing to claim")
	}

	lock.Released += claimable
	out := coin.NewCoin(claimable, lock.Ticker)
	if err := c.mover.MoveCoins(db, v.Address, lock.Beneficiary, out); err != nil {
		return 0, errors.Wrap(err, "cannot move claim")
	}
	return claimable, nil
}

// CancelTimeLock removes a lock and credits the unreleased remainder
// back to the spendable balance.
func (c Controller) CancelTimeLock(v *Vault, lockID int64) (int64, error) {
	if err := notPaused(v); err != nil {
		return 0, err
	}
	lock, err := v.timeLock(lockID)
	if err != nil {
		return 0, err
	}
	remainder := lock.Amount - lock.Released

	acc := v.openAccount(lock.Ticker)
	balance, err := safeAdd(acc.Balance, remainder)
	if err != nil {
		return 0, err
	}
	total, err := safeAdd(v.TotalValue, remainder)
	if err != nil {
		return 0, err
	}
	acc.Balance = balance
	v.TotalValue = total

	for i := range v.TimeLocks {
		if v.TimeLocks[i].ID == lockID {
			v.TimeLocks = append(v.TimeLocks[:i], v.TimeLocks[i+1:]...)
			break
		}
	}
	return remainder, nil
}

// CollectFees transfers all accrued fees to the fee recipient and
// resets the counters. Accrued fees live outside of the total value,
// so no account balance changes.
func (c Controller) CollectFees(db vault.KVStore, v *Vault) error {
	if err := notPaused(v); err != nil {
		return err
	}
	if v.Fees.Recipient == nil {
		return errors.Wrap(errors.ErrState, "no fee recipient configured")
	}
	fees := v.CollectedFees
	v.CollectedFees = nil
	for _, fee := range fees {
		if err := c.mover.MoveCoins(db, v.Address, v.Fees.Recipient, fee); err != nil {
			return errors.Wrap(err, "cannot move fees")
		}
	}
	return nil
}

// EmergencyWithdraw is the recovery path. It bypasses the pause and
// saturates at the available balance instead of failing.
func (c Controller) EmergencyWithdraw(db vault.KVStore, v *Vault, amount coin.Coin, dst vault.Address) (int64, error) {
	acc := v.account(amount.Ticker)
	if acc == nil {
		return 0, errors.Wrapf(errors.ErrCurrency, "no account for %s", amount.Ticker)
	}
	take := amount.Amount
	if take > acc.Balance {
		take = acc.Balance
	}
	if take == 0 {
		return 0, nil
	}

	acc.Balance -= take
	v.TotalValue -= take
	out := coin.NewCoin(take, amount.Ticker)
	if err := c.mover.MoveCoins(db, v.Address, dst, out); err != nil {
		return 0, errors.Wrap(err, "cannot move emergency withdrawal")
	}
	return take, nil
}

// UpdateFeeConfig replaces the fee configuration.
func (c Controller) UpdateFeeConfig(v *Vault, fees FeeConfig) error {
	if err := notPaused(v); err != nil {
		return err
	}
	if err := fees.Validate(); err != nil {
		return err
	}
	v.Fees = fees
	return nil
}

// TransferAuthority hands the vault over to a new authority. The
// emergency admin follows the new authority.
func (c Controller) TransferAuthority(v *Vault, newAuthority vault.Address) error {
	if err := notPaused(v); err != nil {
		return err
	}
	v.Authority = newAuthority
	v.EmergencyAdmin = newAuthority
	return nil
}

// UpdateEmergencyAdmin moves only the emergency admin.
func (c Controller) UpdateEmergencyAdmin(v *Vault, newAdmin vault.Address) error {
	if err := notPaused(v); err != nil {
		return err
	}
	v.EmergencyAdmin = newAdmin
	return nil
}

// UpdateGovernance replaces the governance rules.
func (c Controller) UpdateGovernance(v *Vault, gov GovernanceConfig) error {
	if err := notPaused(v); err != nil {
		return err
	}
	if err := gov.Validate(); err != nil {
		return err
	}
	v.Governance = &gov
	return nil
}

// SetStrategy records a yield strategy reference on a token account.
func (c Controller) SetStrategy(v *Vault, ticker string, strategy vault.Address) error {
	if err := notPaused(v); err != nil {
		return err
	}
	acc := v.openAccount(ticker)
	acc.Strategy = strategy
	return nil
}

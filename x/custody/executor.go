package custody

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/coin"
	"github.com/iov-one/vault/errors"
)

// applyOp executes a single embedded operation against the aggregate.
// The operation union is closed, every variant is matched here and an
// empty op can never be applied.
func (c Controller) applyOp(db vault.KVStore, v *Vault, op ProposedOp) error {
	switch {
	case op.Withdraw != nil:
		_, err := c.Withdraw(db, v, op.Withdraw.Amount, op.Withdraw.Destination)
		return err
	case op.CreateTimeLock != nil:
		_, err := c.CreateTimeLock(v, *op.CreateTimeLock)
		return err
	case op.CancelTimeLock != nil:
		_, err := c.CancelTimeLock(v, op.CancelTimeLock.LockID)
		return err
	case op.UpdateFeeConfig != nil:
		return c.UpdateFeeConfig(v, op.UpdateFeeConfig.Fees)
	case op.CollectFees != nil:
		return c.CollectFees(db, v)
	case op.TransferAuthority != nil:
		return c.TransferAuthority(v, op.TransferAuthority.NewAuthority)
	case op.UpdateEmergencyAdmin != nil:
		return c.UpdateEmergencyAdmin(v, op.UpdateEmergencyAdmin.NewAdmin)
	case op.UpdateGovernance != nil:
		return c.UpdateGovernance(v, op.UpdateGovernance.Governance)
	case op.SetStrategy != nil:
		return c.SetStrategy(v, op.SetStrategy.Ticker, op.SetStrategy.Strategy)
	default:
		return errors.Wrap(errors.ErrMsg, "empty operation")
	}
}

type move struct {
	src    vault.Address
	dst    vault.Address
	amount coin.Coin
}

// queuedMover records transfer intents instead of performing them.
// Batch execution runs against it and flushes to the real capability
// only once the whole batch succeeded.
type queuedMover struct {
	moves []move
}

var _ CoinMover = (*queuedMover)(nil)

func (q *queuedMover) MoveCoins(db vault.KVStore, src, dst vault.Address, amount coin.Coin) error {
	q.moves = append(q.moves, move{src: src, dst: dst, amount: amount})
	return nil
}

func (q *queuedMover) flush(db vault.KVStore, out CoinMover) error {
	for _, m := range q.moves {
		if err := out.MoveCoins(db, m.src, m.dst, m.amount); err != nil {
			return errors.Wrap(err, "cannot flush queued transfer")
		}
	}
	q.moves = nil
	return nil
}

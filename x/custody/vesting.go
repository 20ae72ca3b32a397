package custody

import (
	"math/big"

	"github.com/iov-one/vault"
)

// vested returns how much of the lock is vested at the given time.
// The result is non decreasing in t and never exceeds the locked
// amount.
//
// Nothing vests before the cliff. A cliff only lock releases the full
// amount at the cliff. A linear lock releases
//   amount * min(t-start, duration) / duration
// with integer division, reaching the exact amount at start+duration.
func (l *TimeLock) vested(t vault.UnixTime) int64 {
	if l.Cliff != 0 && t < l.Cliff {
		return 0
	}
	if !l.Linear {
		// cliff only, fully vested once past the cliff
		return l.Amount
	}
	if t < l.Start {
		return 0
	}
	elapsed := int64(t) - int64(l.Start)
	duration := int64(l.Duration)
	if elapsed >= duration {
		return l.Amount
	}
	// multiply before dividing, in big integer space so that large
	// amounts cannot overflow
	val := new(big.Int).Mul(big.NewInt(l.Amount), big.NewInt(elapsed))
	val.Div(val, big.NewInt(duration))
	return val.Int64()
}

// Claimable is the vested but not yet released part of the lock.
func (l *TimeLock) Claimable(t vault.UnixTime) int64 {
	return l.vested(t) - l.Released
}

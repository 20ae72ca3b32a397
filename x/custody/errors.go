package custody

import "github.com/iov-one/vault/errors"

var (
	// ErrThreshold is returned when a multisig or governance condition
	// required to execute a proposal is not met.
	ErrThreshold = errors.Register(1100, "threshold not met")
)

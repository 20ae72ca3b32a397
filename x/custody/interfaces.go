package custody

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/coin"
)

// CoinMover is the token transfer capability provided by the host. It
// is invoked only after all validation passed, never before.
type CoinMover interface {
	// MoveCoins transfers the amount between two accounts.
	MoveCoins(db vault.KVStore, src vault.Address, dst vault.Address, amount coin.Coin) error
}

// PowerSource resolves governance voting weights. Weight is always
// resolved at cast time, never snapshotted at proposal creation.
type PowerSource interface {
	// Power returns the voting weight of the given address,
	// denominated in the given voting token.
	Power(db vault.ReadOnlyKVStore, addr vault.Address, ticker string) (uint64, error)

	// TotalPower returns the total configured weight of the voting
	// token. Quorum ratios are computed against this value.
	TotalPower(db vault.ReadOnlyKVStore, ticker string) (uint64, error)
}

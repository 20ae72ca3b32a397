package coin

import (
	"fmt"
	"regexp"

	"github.com/iov-one/vault/errors"
)

// IsCC is the RegExp to ensure valid currency codes
var IsCC = regexp.MustCompile(`^[A-Z]{3,4}$`).MatchString

const (
	// MaxAmount is the largest amount a single coin can carry.
	MaxAmount int64 = 1<<63 - 1
)

// Coin is a non negative amount of a single token denomination. All
// balances tracked by the custody ledger are expressed in base units,
// there is no fractional component.
type Coin struct {
	Ticker string `json:"ticker"`
	Amount int64  `json:"amount"`
}

// NewCoin creates a new coin object
func NewCoin(amount int64, ticker string) Coin {
	return Coin{
		Ticker: ticker,
		Amount: amount,
	}
}

// NewCoinp returns a pointer to a new coin.
func NewCoinp(amount int64, ticker string) *Coin {
	c := NewCoin(amount, ticker)
	return &c
}

// ID returns a coin ticker name.
func (c Coin) ID() string {
	return c.Ticker
}

// Add combines two coins of the same ticker. It returns an overflow
// error instead of wrapping around when the sum does not fit in int64.
func (c Coin) Add(o Coin) (Coin, error) {
	if !c.SameType(o) {
		err := errors.Wrapf(errors.ErrCurrency, "adding %s to %s", o.Ticker, c.Ticker)
		return Coin{}, err
	}
	sum := c.Amount + o.Amount
	if o.Amount > 0 && sum < c.Amount {
		return Coin{}, errors.ErrOverflow
	}
	if o.Amount < 0 && sum > c.Amount {
		return Coin{}, errors.ErrOverflow
	}
	c.Amount = sum
	return c, nil
}

// Subtract removes the amount of the coin passed as an argument.
func (c Coin) Subtract(o Coin) (Coin, error) {
	return c.Add(o.Negative())
}

// Negative returns the opposite coin value
//   c.Add(c.Negative()) == 0
func (c Coin) Negative() Coin {
	return Coin{
		Ticker: c.Ticker,
		Amount: -1 * c.Amount,
	}
}

// SameType returns true if they have the same ticker
func (c Coin) SameType(o Coin) bool {
	return c.Ticker == o.Ticker
}

// Equals returns true if all values are identical
func (c Coin) Equals(o Coin) bool {
	return c.Ticker == o.Ticker && c.Amount == o.Amount
}

// Compare will check values of two coins of the same ticker.
// It returns -1, 0 or 1 depending on whether c is smaller, equal to or
// greater than o. It panics on different tickers.
func (c Coin) Compare(o Coin) int {
	if !c.SameType(o) {
		panic(fmt.Sprintf("comparing %s to %s", c.Ticker, o.Ticker))
	}
	switch {
	case c.Amount < o.Amount:
		return -1
	case c.Amount > o.Amount:
		return 1
	default:
		return 0
	}
}

// IsZero returns true amount is 0
func (c Coin) IsZero() bool {
	return c.Amount == 0
}

// IsPositive returns true if the amount is greater than 0
func (c Coin) IsPositive() bool {
	return c.Amount > 0
}

// IsNonNegative returns true if the amount is 0 or higher
func (c Coin) IsNonNegative() bool {
	return c.Amount >= 0
}

// IsGTE returns true if c is same type and at least as large as o
func (c Coin) IsGTE(o Coin) bool {
	return c.SameType(o) && c.Amount >= o.Amount
}

// Clone provides an independent copy of a coin pointer
func (c *Coin) Clone() *Coin {
	if c == nil {
		return nil
	}
	return &Coin{
		Ticker: c.Ticker,
		Amount: c.Amount,
	}
}

// Validate ensures the coin has a well formed ticker and a non
// negative amount. Ledger balances never go below zero.
func (c Coin) Validate() error {
	if !IsCC(c.Ticker) {
		return errors.Wrapf(errors.ErrCurrency, "invalid currency: %s", c.Ticker)
	}
	if c.Amount < 0 {
		return errors.Wrapf(errors.ErrAmount, "negative amount: %d", c.Amount)
	}
	return nil
}

func (c Coin) String() string {
	return fmt.Sprintf("%d %s", c.Amount, c.Ticker)
}

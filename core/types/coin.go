package types

import (
	"fmt"
	"math/big"
)

// Coin is an amount of a single native denomination. Amount is always
// non-negative; engines reject negative values at their boundaries.
type Coin struct {
	Denom  string
	Amount *big.Int
}

// NewCoin builds a coin with a defensive copy of amount.
func NewCoin(denom string, amount *big.Int) Coin {
	return Coin{Denom: denom, Amount: CloneBigInt(amount)}
}

// NewCoin64 is a convenience constructor for tests and fixtures.
func NewCoin64(denom string, amount int64) Coin {
	return Coin{Denom: denom, Amount: big.NewInt(amount)}
}

// Clone returns a deep copy of the coin.
func (c Coin) Clone() Coin {
	return Coin{Denom: c.Denom, Amount: CloneBigInt(c.Amount)}
}

// IsZero reports whether the coin carries no value.
func (c Coin) IsZero() bool {
	return c.Amount == nil || c.Amount.Sign() == 0
}

// String renders the coin in the compact "<amount><denom>" form used in
// event attributes.
func (c Coin) String() string {
	amt := c.Amount
	if amt == nil {
		amt = big.NewInt(0)
	}
	return fmt.Sprintf("%s%s", amt.String(), c.Denom)
}

// CloneBigInt copies v, mapping nil to zero so stored records never carry
// nil amounts.
func CloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

package balance

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"tokenvault/core/types"
)

// ErrUnderflow is returned when a subtraction would take a held amount below
// zero, or targets a denom that is not held at all. Amounts are never clamped.
var ErrUnderflow = errors.New("balance: subtraction underflow")

// Balance is a normalized multi-denomination coin collection: denoms strictly
// increasing, no duplicates, no zero amounts. Constructors and mutating
// operations preserve the invariant; NewBalance normalizes arbitrary input.
type Balance struct {
	coins []types.Coin
}

// NewBalance builds a balance from a raw, possibly unsorted and duplicated
// coin list, normalizing it.
func NewBalance(coins []types.Coin) Balance {
	b := Balance{coins: cloneCoins(coins)}
	b.Normalize()
	return b
}

func cloneCoins(coins []types.Coin) []types.Coin {
	if len(coins) == 0 {
		return nil
	}
	out := make([]types.Coin, len(coins))
	for i, c := range coins {
		out[i] = c.Clone()
	}
	return out
}

// Coins returns a copy of the underlying coin list in canonical order.
func (b Balance) Coins() []types.Coin { return cloneCoins(b.coins) }

// Clone returns a deep copy of the balance.
func (b Balance) Clone() Balance { return Balance{coins: cloneCoins(b.coins)} }

// IsEmpty reports whether the balance holds no value.
func (b Balance) IsEmpty() bool { return len(b.coins) == 0 }

// Len returns the number of distinct denoms held.
func (b Balance) Len() int { return len(b.coins) }

// Has reports whether the held amount of required.Denom is at least
// required.Amount. A missing denom always reports false.
func (b Balance) Has(required types.Coin) bool {
	idx := b.find(required.Denom)
	if idx < 0 {
		return false
	}
	return b.coins[idx].Amount.Cmp(types.CloneBigInt(required.Amount)) >= 0
}

// AmountOf returns the held amount of denom, zero when absent.
func (b Balance) AmountOf(denom string) *types.Coin {
	idx := b.find(denom)
	if idx < 0 {
		return nil
	}
	c := b.coins[idx].Clone()
	return &c
}

// Normalize drops zero-amount entries, sorts by denom ascending and merges
// duplicate denoms by summation. Idempotent.
func (b *Balance) Normalize() {
	kept := b.coins[:0]
	for _, c := range b.coins {
		if !c.IsZero() {
			kept = append(kept, c)
		}
	}
	b.coins = kept
	sort.SliceStable(b.coins, func(i, j int) bool {
		return b.coins[i].Denom < b.coins[j].Denom
	})
	// merge runs of equal denoms left to right
	merged := b.coins[:0]
	for _, c := range b.coins {
		if n := len(merged); n > 0 && merged[n-1].Denom == c.Denom {
			merged[n-1].Amount = merged[n-1].Amount.Add(merged[n-1].Amount, c.Amount)
			continue
		}
		merged = append(merged, c)
	}
	b.coins = merged
	if len(b.coins) == 0 {
		b.coins = nil
	}
}

func (b Balance) find(denom string) int {
	// denom sets are tiny in practice, linear scan is fine
	for i, c := range b.coins {
		if c.Denom == denom {
			return i
		}
	}
	return -1
}

// AddCoin increments the held amount of the coin's denom, inserting at the
// sorted position when the denom is new. Zero coins are ignored.
func (b *Balance) AddCoin(coin types.Coin) {
	if coin.IsZero() {
		return
	}
	coin = coin.Clone()
	if idx := b.find(coin.Denom); idx >= 0 {
		b.coins[idx].Amount = b.coins[idx].Amount.Add(b.coins[idx].Amount, coin.Amount)
		return
	}
	pos := sort.Search(len(b.coins), func(i int) bool {
		return b.coins[i].Denom >= coin.Denom
	})
	b.coins = append(b.coins, types.Coin{})
	copy(b.coins[pos+1:], b.coins[pos:])
	b.coins[pos] = coin
}

// Add folds every coin of other into the balance.
func (b *Balance) Add(other Balance) {
	for _, c := range other.coins {
		b.AddCoin(c)
	}
}

// SubCoin decrements the held amount of the coin's denom. Exact depletion
// removes the entry. A missing denom or an amount exceeding holdings is
// ErrUnderflow.
func (b *Balance) SubCoin(coin types.Coin) error {
	amt := types.CloneBigInt(coin.Amount)
	idx := b.find(coin.Denom)
	if idx < 0 {
		return fmt.Errorf("%w: %s not held", ErrUnderflow, coin.Denom)
	}
	switch b.coins[idx].Amount.Cmp(amt) {
	case -1:
		return fmt.Errorf("%w: %s exceeds holdings", ErrUnderflow, coin.String())
	case 0:
		b.coins = append(b.coins[:idx], b.coins[idx+1:]...)
		if len(b.coins) == 0 {
			b.coins = nil
		}
	default:
		b.coins[idx].Amount = b.coins[idx].Amount.Sub(b.coins[idx].Amount, amt)
	}
	return nil
}

// String renders the balance as comma-joined "<amount><denom>" entries.
func (b Balance) String() string {
	parts := make([]string, len(b.coins))
	for i, c := range b.coins {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// Equal reports whether two balances hold exactly the same coins.
func (b Balance) Equal(other Balance) bool {
	if len(b.coins) != len(other.coins) {
		return false
	}
	for i, c := range b.coins {
		if c.Denom != other.coins[i].Denom || c.Amount.Cmp(other.coins[i].Amount) != 0 {
			return false
		}
	}
	return true
}

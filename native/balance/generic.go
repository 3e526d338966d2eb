package balance

import (
	"math/big"
	"sort"

	"tokenvault/core/types"
	"tokenvault/crypto"
)

// TokenAmount is an amount of a fungible token identified by its contract
// address.
type TokenAmount struct {
	Address crypto.Address
	Amount  *big.Int
}

// Clone returns a deep copy of the token amount.
func (t TokenAmount) Clone() TokenAmount {
	return TokenAmount{Address: t.Address, Amount: types.CloneBigInt(t.Amount)}
}

// IsZero reports whether the token amount carries no value.
func (t TokenAmount) IsZero() bool {
	return t.Amount == nil || t.Amount.Sign() == 0
}

// Funds is a single inbound payment: either native coins or exactly one
// token amount, mirroring the two funding paths a contract accepts.
type Funds struct {
	Native Balance
	Token  *TokenAmount
}

// NativeFunds wraps native coins as a payment.
func NativeFunds(coins []types.Coin) Funds {
	return Funds{Native: NewBalance(coins)}
}

// TokenFunds wraps a single token amount as a payment.
func TokenFunds(token crypto.Address, amount *big.Int) Funds {
	return Funds{Token: &TokenAmount{Address: token, Amount: types.CloneBigInt(amount)}}
}

// IsEmpty reports whether the payment carries no value. Zero-amount token
// payments count as empty.
func (f Funds) IsEmpty() bool {
	if f.Token != nil {
		return f.Token.IsZero()
	}
	return f.Native.IsEmpty()
}

// Clone returns a deep copy of the payment.
func (f Funds) Clone() Funds {
	out := Funds{Native: f.Native.Clone()}
	if f.Token != nil {
		t := f.Token.Clone()
		out.Token = &t
	}
	return out
}

// GenericBalance tracks native coins and token references side by side, each
// asset class kept normalized (tokens sorted by address, no zero entries).
type GenericBalance struct {
	Native Balance
	Tokens []TokenAmount
}

// Clone returns a deep copy of the generic balance.
func (g GenericBalance) Clone() GenericBalance {
	out := GenericBalance{Native: g.Native.Clone()}
	if len(g.Tokens) > 0 {
		out.Tokens = make([]TokenAmount, len(g.Tokens))
		for i, t := range g.Tokens {
			out.Tokens[i] = t.Clone()
		}
	}
	return out
}

// IsEmpty reports whether neither asset class holds value.
func (g GenericBalance) IsEmpty() bool {
	return g.Native.IsEmpty() && len(g.Tokens) == 0
}

// AddToken merges a token amount, inserting at the address-sorted position
// when the token is new. Zero amounts are ignored.
func (g *GenericBalance) AddToken(token TokenAmount) {
	if token.IsZero() {
		return
	}
	token = token.Clone()
	for i := range g.Tokens {
		if g.Tokens[i].Address == token.Address {
			g.Tokens[i].Amount = g.Tokens[i].Amount.Add(g.Tokens[i].Amount, token.Amount)
			return
		}
	}
	pos := sort.Search(len(g.Tokens), func(i int) bool {
		return crypto.CompareAddresses(g.Tokens[i].Address, token.Address) >= 0
	})
	g.Tokens = append(g.Tokens, TokenAmount{})
	copy(g.Tokens[pos+1:], g.Tokens[pos:])
	g.Tokens[pos] = token
}

// AddFunds merges a payment into the matching asset class.
func (g *GenericBalance) AddFunds(funds Funds) {
	if funds.Token != nil {
		g.AddToken(*funds.Token)
		return
	}
	g.Native.Add(funds.Native)
}

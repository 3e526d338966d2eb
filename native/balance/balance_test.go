package balance

import (
	"errors"
	"math/big"
	"testing"

	"tokenvault/core/types"
	"tokenvault/crypto"
)

func coin(amount int64, denom string) types.Coin {
	return types.NewCoin64(denom, amount)
}

func TestBalanceHas(t *testing.T) {
	b := NewBalance([]types.Coin{coin(555, "BTC"), coin(12345, "ETH")})

	if !b.Has(coin(777, "ETH")) {
		t.Fatalf("less than held amount should pass")
	}
	if !b.Has(coin(555, "BTC")) {
		t.Fatalf("exactly held amount should pass")
	}
	if b.Has(coin(12346, "ETH")) {
		t.Fatalf("more than held amount should fail")
	}
	if b.Has(coin(456, "ETC")) {
		t.Fatalf("missing denom should fail")
	}
}

func TestBalanceAddCoin(t *testing.T) {
	b := NewBalance([]types.Coin{coin(555, "BTC"), coin(12345, "ETH")})

	// add to an existing denom
	more := b.Clone()
	more.AddCoin(coin(54321, "ETH"))
	want := NewBalance([]types.Coin{coin(555, "BTC"), coin(66666, "ETH")})
	if !more.Equal(want) {
		t.Fatalf("got %s, want %s", more, want)
	}

	// add a new denom, must land at the sorted position
	withAtom := b.Clone()
	withAtom.AddCoin(coin(777, "ATOM"))
	want = NewBalance([]types.Coin{coin(777, "ATOM"), coin(555, "BTC"), coin(12345, "ETH")})
	if !withAtom.Equal(want) {
		t.Fatalf("got %s, want %s", withAtom, want)
	}
}

func TestBalanceAddBalance(t *testing.T) {
	b := NewBalance([]types.Coin{coin(555, "BTC")})
	b.Add(NewBalance([]types.Coin{coin(666, "ETH"), coin(123, "ATOM")}))
	want := NewBalance([]types.Coin{coin(123, "ATOM"), coin(555, "BTC"), coin(666, "ETH")})
	if !b.Equal(want) {
		t.Fatalf("got %s, want %s", b, want)
	}
}

func TestBalanceSubCoin(t *testing.T) {
	b := NewBalance([]types.Coin{coin(555, "BTC"), coin(12345, "ETH")})

	// subtract part of a holding
	less := b.Clone()
	if err := less.SubCoin(coin(2345, "ETH")); err != nil {
		t.Fatalf("sub: %v", err)
	}
	want := NewBalance([]types.Coin{coin(555, "BTC"), coin(10000, "ETH")})
	if !less.Equal(want) {
		t.Fatalf("got %s, want %s", less, want)
	}

	// exact depletion removes the entry
	noBTC := b.Clone()
	if err := noBTC.SubCoin(coin(555, "BTC")); err != nil {
		t.Fatalf("sub: %v", err)
	}
	if !noBTC.Equal(NewBalance([]types.Coin{coin(12345, "ETH")})) {
		t.Fatalf("got %s", noBTC)
	}

	// more than held must underflow, never clamp
	over := b.Clone()
	if err := over.SubCoin(coin(666, "BTC")); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}

	// missing denom must underflow
	missing := b.Clone()
	if err := missing.SubCoin(coin(1, "ATOM")); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}
}

func TestNormalizeDropsZerosAndSorts(t *testing.T) {
	b := NewBalance([]types.Coin{coin(123, "ETH"), coin(0, "BTC"), coin(8990, "ATOM")})
	want := NewBalance([]types.Coin{coin(8990, "ATOM"), coin(123, "ETH")})
	if !b.Equal(want) {
		t.Fatalf("got %s, want %s", b, want)
	}
}

func TestNormalizeMergesDuplicates(t *testing.T) {
	b := NewBalance([]types.Coin{
		coin(123, "ETH"),
		coin(789, "BTC"),
		coin(321, "ETH"),
		coin(11, "BTC"),
	})
	want := NewBalance([]types.Coin{coin(800, "BTC"), coin(444, "ETH")})
	if !b.Equal(want) {
		t.Fatalf("got %s, want %s", b, want)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	b := NewBalance([]types.Coin{coin(3, "b"), coin(1, "a"), coin(2, "a")})
	again := b.Clone()
	again.Normalize()
	if !b.Equal(again) {
		t.Fatalf("normalize not idempotent: %s vs %s", b, again)
	}
}

func TestAdditionConservesPerDenomTotals(t *testing.T) {
	a := NewBalance([]types.Coin{coin(5, "x"), coin(7, "y")})
	b := NewBalance([]types.Coin{coin(3, "y"), coin(9, "z")})
	sum := a.Clone()
	sum.Add(b)
	for denom, want := range map[string]int64{"x": 5, "y": 10, "z": 9} {
		got := sum.AmountOf(denom)
		if got == nil || got.Amount.Cmp(big.NewInt(want)) != 0 {
			t.Fatalf("denom %s: got %v, want %d", denom, got, want)
		}
	}
}

func TestSubtractionInvertsAddition(t *testing.T) {
	a := NewBalance([]types.Coin{coin(5, "x"), coin(7, "y")})
	c := coin(4, "y")
	round := a.Clone()
	round.AddCoin(c)
	if err := round.SubCoin(c); err != nil {
		t.Fatalf("sub: %v", err)
	}
	if !round.Equal(a) {
		t.Fatalf("got %s, want %s", round, a)
	}
}

func TestFundsEmptiness(t *testing.T) {
	if !NativeFunds(nil).IsEmpty() {
		t.Fatalf("no coins should be empty")
	}
	if !NativeFunds([]types.Coin{coin(0, "x")}).IsEmpty() {
		t.Fatalf("zero coins should be empty")
	}
	if NativeFunds([]types.Coin{coin(1, "x")}).IsEmpty() {
		t.Fatalf("funded payment reported empty")
	}
	var token crypto.Address
	token[0] = 0xAB
	if !TokenFunds(token, big.NewInt(0)).IsEmpty() {
		t.Fatalf("zero token payment should be empty")
	}
	if TokenFunds(token, big.NewInt(10)).IsEmpty() {
		t.Fatalf("token payment reported empty")
	}
}

func TestGenericBalanceAddFunds(t *testing.T) {
	var tokA, tokB crypto.Address
	tokA[0] = 0x01
	tokB[0] = 0x02

	var g GenericBalance
	g.AddFunds(NativeFunds([]types.Coin{coin(100, "x")}))
	g.AddFunds(TokenFunds(tokB, big.NewInt(50)))
	g.AddFunds(TokenFunds(tokA, big.NewInt(20)))
	g.AddFunds(TokenFunds(tokB, big.NewInt(5)))

	if got := g.Native.AmountOf("x"); got == nil || got.Amount.Int64() != 100 {
		t.Fatalf("native: got %v", got)
	}
	if len(g.Tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(g.Tokens))
	}
	if g.Tokens[0].Address != tokA || g.Tokens[0].Amount.Int64() != 20 {
		t.Fatalf("token order wrong: %+v", g.Tokens)
	}
	if g.Tokens[1].Address != tokB || g.Tokens[1].Amount.Int64() != 55 {
		t.Fatalf("token merge wrong: %+v", g.Tokens)
	}
}

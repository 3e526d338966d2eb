package membership

import (
	"errors"
	"math/big"

	"tokenvault/crypto"
	"tokenvault/native/common"
)

var (
	ErrInvalidConfig  = errors.New("membership: tokens per weight must be positive")
	ErrNoFunds        = errors.New("membership: no stake sent")
	ErrMissingDenom   = errors.New("membership: stake missing the bond denom")
	ErrExtraDenoms    = errors.New("membership: stake carries extra denoms")
	ErrUnderflow      = errors.New("membership: unbond exceeds staked amount")
	ErrNothingToClaim = errors.New("membership: no mature claims")
	ErrUnauthorized   = errors.New("membership: unauthorized")
	ErrHookExists     = errors.New("membership: hook already registered")
	ErrHookNotFound   = errors.New("membership: hook not registered")
)

// Config is fixed at instantiation and maps stake to voting weight.
type Config struct {
	// Denom is the only denomination accepted as stake.
	Denom string
	// TokensPerWeight converts stake into weight by floor division.
	TokensPerWeight *big.Int
	// MinBond is the stake threshold for membership; below it an account
	// holds stake but no weight. Clamped to at least 1.
	MinBond *big.Int
	// UnbondingPeriod delays withdrawn stake before it can be claimed.
	UnbondingPeriod common.Duration
}

// WeightSnapshot is one checkpoint in a weight history: the weight that held
// from Height onwards. Member false records a drop out of the group.
type WeightSnapshot struct {
	Height uint64
	Weight uint64
	Member bool
}

// MemberInfo pairs an address with its current weight for listings.
type MemberInfo struct {
	Addr   crypto.Address
	Weight uint64
}

// MemberDiff describes a single membership change for hook receivers. Nil
// weights encode absence on that side of the change.
type MemberDiff struct {
	Addr crypto.Address
	Old  *uint64
	New  *uint64
}

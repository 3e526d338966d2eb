package staking

import (
	"errors"
	"math/big"

	"tokenvault/core/types"
	"tokenvault/crypto"
	"tokenvault/native/common"
)

var (
	ErrNotInValidatorSet  = errors.New("staking: validator is not in the validator set")
	ErrDifferentBondDenom = errors.New("staking: delegations carry different bond denoms")
	ErrBondedMismatch     = errors.New("staking: stored bonded amount diverges from delegations")
	ErrEmptyBalance       = errors.New("staking: payment missing the bond denom")
	ErrUnbondTooSmall     = errors.New("staking: unbond amount below the withdrawal minimum")
	ErrBalanceTooSmall    = errors.New("staking: contract balance below the withdrawal minimum")
	ErrNothingToClaim     = errors.New("staking: no mature claims affordable")
	ErrUnauthorized       = errors.New("staking: unauthorized")
	ErrInsufficientTokens = errors.New("staking: insufficient derivative tokens")
)

// taxDenominator scales the exit tax expressed in basis points.
const taxDenominator = 10_000

// Config is fixed at instantiation and controls the function of the
// derivative.
type Config struct {
	// Owner created the contract and receives the exit tax.
	Owner crypto.Address
	// BondDenom is the only denomination accepted for payments.
	BondDenom string
	// UnbondingPeriod delays claims so they mature only once the native
	// staking module has returned the funds.
	UnbondingPeriod common.Duration
	// ExitTaxBps is the owner's cut on unbonds, in basis points.
	ExitTaxBps uint64
	// Validator receives every delegation made by the contract.
	Validator string
	// MinWithdrawal is the smallest amount worth an unbond or a claim, to
	// avoid needless staking transactions.
	MinWithdrawal *big.Int
}

// Supply caches the derivative accounting. Bonded mirrors what the
// delegation oracle reports; a divergence is a fatal consistency error.
type Supply struct {
	// Issued is how many derivative tokens the contract has issued.
	Issued *big.Int
	// Bonded is how many native tokens exist bonded to the validator.
	Bonded *big.Int
	// Claims is how many native tokens are reserved for pending unbonds.
	Claims *big.Int
}

// NewSupply returns a zeroed supply record.
func NewSupply() *Supply {
	return &Supply{Issued: big.NewInt(0), Bonded: big.NewInt(0), Claims: big.NewInt(0)}
}

// Clone returns a deep copy of the supply record.
func (s *Supply) Clone() *Supply {
	if s == nil {
		return NewSupply()
	}
	return &Supply{
		Issued: types.CloneBigInt(s.Issued),
		Bonded: types.CloneBigInt(s.Bonded),
		Claims: types.CloneBigInt(s.Claims),
	}
}

// Oracle is the read-only view of the host staking and bank modules the
// derivative depends on.
type Oracle interface {
	// Delegations lists the delegator's current delegations as coins.
	Delegations(delegator crypto.Address) ([]types.Coin, error)
	// BankBalance returns the liquid balance held by addr in denom.
	BankBalance(addr crypto.Address, denom string) (types.Coin, error)
	// Validators lists the addresses of the active validator set.
	Validators() ([]string, error)
}

// CallbackBondAll is the payload of the self-addressed message emitted by
// Reinvest. The host routes it back into BondAllTokens.
const CallbackBondAll = `{"bond_all_tokens":{}}`

package staking

import (
	"math/big"

	"tokenvault/core/types"
	"tokenvault/crypto"
	"tokenvault/native/claims"
	"tokenvault/state"
	"tokenvault/storage"
)

const (
	supplyKey        = "staking/supply"
	tokenTablePrefix = "staking/token/"
	claimTablePrefix = "staking/claim/"
)

// Store persists the supply singleton and the derivative token balances.
type Store struct {
	supply *state.Singleton
	tokens *state.Bucket
}

// NewStore creates a staking store over db.
func NewStore(db storage.Database) *Store {
	return &Store{
		supply: state.NewSingleton(db, supplyKey),
		tokens: state.NewBucket(db, tokenTablePrefix),
	}
}

// NewClaims creates the unbonding claims ledger sharing db with the store.
func NewClaims(db storage.Database) *claims.Ledger {
	return claims.NewLedger(db, claimTablePrefix)
}

// SupplyGet loads the supply record, returning a zeroed record before the
// first bond.
func (s *Store) SupplyGet() (*Supply, error) {
	record := new(Supply)
	ok, err := s.supply.Get(record)
	if err != nil {
		return nil, err
	}
	if !ok {
		return NewSupply(), nil
	}
	return record, nil
}

// SupplyPut stores the supply record.
func (s *Store) SupplyPut(record *Supply) error {
	return s.supply.Set(record)
}

// TokenBalance returns the holder's derivative token balance, zero when the
// holder is unknown.
func (s *Store) TokenBalance(addr crypto.Address) (*big.Int, error) {
	amount := new(big.Int)
	ok, err := s.tokens.Get(addr.Bytes(), amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return amount, nil
}

// SetTokenBalance stores the holder's derivative token balance, deleting the
// entry on zero so exhausted holders drop out of the table.
func (s *Store) SetTokenBalance(addr crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return s.tokens.Delete(addr.Bytes())
	}
	return s.tokens.Set(addr.Bytes(), types.CloneBigInt(amount))
}

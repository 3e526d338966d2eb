package escrow

import (
	"math/big"

	"tokenvault/core/types"
	"tokenvault/crypto"
	"tokenvault/native/balance"
	"tokenvault/state"
	"tokenvault/storage"
)

const tablePrefix = "escrow/"

type storedToken struct {
	Address crypto.Address
	Amount  *big.Int
}

// storedEscrow is the flat RLP representation of an Escrow record.
type storedEscrow struct {
	Arbiter   crypto.Address
	Recipient crypto.Address
	Source    crypto.Address
	EndHeight uint64
	EndTime   uint64
	Native    []types.Coin
	Tokens    []storedToken
	Whitelist []crypto.Address
}

func newStoredEscrow(e *Escrow) *storedEscrow {
	out := &storedEscrow{
		Arbiter:   e.Arbiter,
		Recipient: e.Recipient,
		Source:    e.Source,
		EndHeight: e.EndHeight,
		EndTime:   e.EndTime,
		Native:    e.Balance.Native.Coins(),
		Whitelist: append([]crypto.Address(nil), e.Whitelist...),
	}
	for _, token := range e.Balance.Tokens {
		out.Tokens = append(out.Tokens, storedToken{
			Address: token.Address,
			Amount:  types.CloneBigInt(token.Amount),
		})
	}
	return out
}

func (s *storedEscrow) toEscrow() *Escrow {
	out := &Escrow{
		Arbiter:   s.Arbiter,
		Recipient: s.Recipient,
		Source:    s.Source,
		EndHeight: s.EndHeight,
		EndTime:   s.EndTime,
		Whitelist: append([]crypto.Address(nil), s.Whitelist...),
	}
	out.Balance.Native = balance.NewBalance(s.Native)
	for _, token := range s.Tokens {
		out.Balance.AddToken(balance.TokenAmount{Address: token.Address, Amount: token.Amount})
	}
	return out
}

// Store persists escrows in a prefixed bucket, keyed by the caller-chosen id.
type Store struct {
	bucket *state.Bucket
}

// NewStore creates an escrow store over db.
func NewStore(db storage.Database) *Store {
	return &Store{bucket: state.NewBucket(db, tablePrefix)}
}

func (s *Store) EscrowGet(id string) (*Escrow, bool, error) {
	record := new(storedEscrow)
	ok, err := s.bucket.Get([]byte(id), record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record.toEscrow(), true, nil
}

func (s *Store) EscrowPut(id string, e *Escrow) error {
	return s.bucket.Set([]byte(id), newStoredEscrow(e))
}

func (s *Store) EscrowDelete(id string) error {
	return s.bucket.Delete([]byte(id))
}

func (s *Store) EscrowIDs() ([]string, error) {
	keys, err := s.bucket.Keys(nil, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = string(k)
	}
	return ids, nil
}

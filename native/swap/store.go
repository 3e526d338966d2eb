package swap

import (
	"math/big"

	"tokenvault/core/types"
	"tokenvault/crypto"
	"tokenvault/native/balance"
	"tokenvault/native/common"
	"tokenvault/state"
	"tokenvault/storage"
)

const tablePrefix = "swap/"

// storedSwap is the flat RLP representation of a Swap record.
type storedSwap struct {
	Hash      [32]byte
	Source    crypto.Address
	Recipient crypto.Address
	ExpHeight uint64
	ExpTime   uint64
	Native    []types.Coin
	HasToken  bool
	TokenAddr crypto.Address
	TokenAmt  *big.Int
}

func newStoredSwap(s *Swap) *storedSwap {
	out := &storedSwap{
		Hash:      s.Hash,
		Source:    s.Source,
		Recipient: s.Recipient,
		ExpHeight: s.Expires.Height,
		ExpTime:   s.Expires.Time,
		Native:    s.Funds.Native.Coins(),
		TokenAmt:  big.NewInt(0),
	}
	if s.Funds.Token != nil {
		out.HasToken = true
		out.TokenAddr = s.Funds.Token.Address
		out.TokenAmt = types.CloneBigInt(s.Funds.Token.Amount)
	}
	return out
}

func (s *storedSwap) toSwap() *Swap {
	out := &Swap{
		Hash:      s.Hash,
		Source:    s.Source,
		Recipient: s.Recipient,
		Expires:   common.Expiration{Height: s.ExpHeight, Time: s.ExpTime},
	}
	if s.HasToken {
		out.Funds = balance.TokenFunds(s.TokenAddr, s.TokenAmt)
	} else {
		out.Funds = balance.NativeFunds(s.Native)
	}
	return out
}

// Store persists swaps in a prefixed bucket, keyed by the caller-chosen id.
type Store struct {
	bucket *state.Bucket
}

// NewStore creates a swap store over db.
func NewStore(db storage.Database) *Store {
	return &Store{bucket: state.NewBucket(db, tablePrefix)}
}

func (s *Store) SwapGet(id string) (*Swap, bool, error) {
	record := new(storedSwap)
	ok, err := s.bucket.Get([]byte(id), record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record.toSwap(), true, nil
}

func (s *Store) SwapPut(id string, swap *Swap) error {
	return s.bucket.Set([]byte(id), newStoredSwap(swap))
}

func (s *Store) SwapDelete(id string) error {
	return s.bucket.Delete([]byte(id))
}

func (s *Store) SwapIDs(startAfter string, limit int) ([]string, error) {
	var cursor []byte
	if startAfter != "" {
		cursor = []byte(startAfter)
	}
	keys, err := s.bucket.Keys(cursor, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = string(k)
	}
	return ids, nil
}

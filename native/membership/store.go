package membership

import (
	"math/big"

	"tokenvault/core/types"
	"tokenvault/crypto"
	"tokenvault/native/claims"
	"tokenvault/state"
	"tokenvault/storage"
)

const (
	adminKey          = "member/admin"
	hooksKey          = "member/hooks"
	totalKey          = "member/total"
	stakeTablePrefix  = "member/stake/"
	memberTablePrefix = "member/weight/"
	snapTablePrefix   = "member/snap/"
	claimTablePrefix  = "member/claim/"
)

// Store persists the membership ledger: raw stake, the current member table,
// per-member weight histories and the total-weight history.
type Store struct {
	admin   *state.Singleton
	hooks   *state.Singleton
	total   *state.Singleton
	stake   *state.Bucket
	members *state.Bucket
	snaps   *state.Bucket
}

// NewStore creates a membership store over db.
func NewStore(db storage.Database) *Store {
	return &Store{
		admin:   state.NewSingleton(db, adminKey),
		hooks:   state.NewSingleton(db, hooksKey),
		total:   state.NewSingleton(db, totalKey),
		stake:   state.NewBucket(db, stakeTablePrefix),
		members: state.NewBucket(db, memberTablePrefix),
		snaps:   state.NewBucket(db, snapTablePrefix),
	}
}

// NewClaims creates the unbonding claims ledger sharing db with the store.
func NewClaims(db storage.Database) *claims.Ledger {
	return claims.NewLedger(db, claimTablePrefix)
}

func (s *Store) StakeGet(addr crypto.Address) (*big.Int, error) {
	amount := new(big.Int)
	ok, err := s.stake.Get(addr.Bytes(), amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return amount, nil
}

func (s *Store) StakePut(addr crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return s.stake.Delete(addr.Bytes())
	}
	return s.stake.Set(addr.Bytes(), types.CloneBigInt(amount))
}

func (s *Store) MemberGet(addr crypto.Address) (uint64, bool, error) {
	var weight uint64
	ok, err := s.members.Get(addr.Bytes(), &weight)
	if err != nil || !ok {
		return 0, false, err
	}
	return weight, true, nil
}

func (s *Store) MemberPut(addr crypto.Address, weight uint64) error {
	return s.members.Set(addr.Bytes(), weight)
}

func (s *Store) MemberDelete(addr crypto.Address) error {
	return s.members.Delete(addr.Bytes())
}

// MembersList returns up to limit current members with addresses strictly
// greater than startAfter, in ascending address-byte order.
func (s *Store) MembersList(startAfter []byte, limit int) ([]MemberInfo, error) {
	keys, err := s.members.Keys(startAfter, limit)
	if err != nil {
		return nil, err
	}
	out := make([]MemberInfo, 0, len(keys))
	for _, key := range keys {
		addr, err := crypto.NewAddress(key)
		if err != nil {
			return nil, err
		}
		weight, _, err := s.MemberGet(addr)
		if err != nil {
			return nil, err
		}
		out = append(out, MemberInfo{Addr: addr, Weight: weight})
	}
	return out, nil
}

// HistoryGet loads a member's weight history in ascending height order.
func (s *Store) HistoryGet(addr crypto.Address) ([]WeightSnapshot, error) {
	var history []WeightSnapshot
	if _, err := s.snaps.Get(addr.Bytes(), &history); err != nil {
		return nil, err
	}
	return history, nil
}

// HistoryAppend records a checkpoint. A second write at the same height
// replaces the first, so one block leaves at most one entry.
func (s *Store) HistoryAppend(addr crypto.Address, snap WeightSnapshot) error {
	history, err := s.HistoryGet(addr)
	if err != nil {
		return err
	}
	return s.snaps.Set(addr.Bytes(), appendSnapshot(history, snap))
}

// TotalGet loads the total-weight history in ascending height order.
func (s *Store) TotalGet() ([]WeightSnapshot, error) {
	var history []WeightSnapshot
	if _, err := s.total.Get(&history); err != nil {
		return nil, err
	}
	return history, nil
}

// TotalAppend records a total-weight checkpoint, replacing a same-height
// entry.
func (s *Store) TotalAppend(snap WeightSnapshot) error {
	history, err := s.TotalGet()
	if err != nil {
		return err
	}
	return s.total.Set(appendSnapshot(history, snap))
}

func appendSnapshot(history []WeightSnapshot, snap WeightSnapshot) []WeightSnapshot {
	if n := len(history); n > 0 && history[n-1].Height == snap.Height {
		history[n-1] = snap
		return history
	}
	return append(history, snap)
}

func (s *Store) AdminGet() (crypto.Address, bool, error) {
	var admin crypto.Address
	ok, err := s.admin.Get(&admin)
	return admin, ok, err
}

func (s *Store) AdminPut(admin crypto.Address) error {
	return s.admin.Set(admin)
}

func (s *Store) HooksGet() ([]crypto.Address, error) {
	var hooks []crypto.Address
	if _, err := s.hooks.Get(&hooks); err != nil {
		return nil, err
	}
	return hooks, nil
}

func (s *Store) HooksPut(hooks []crypto.Address) error {
	return s.hooks.Set(hooks)
}

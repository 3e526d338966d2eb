package claims

import (
	"math/big"

	"tokenvault/core/types"
	"tokenvault/crypto"
	"tokenvault/native/common"
	"tokenvault/state"
	"tokenvault/storage"
)

// Claim is a pending, time-gated entitlement to previously committed tokens.
type Claim struct {
	Amount    *big.Int
	ReleaseAt common.Expiration
}

// Clone returns a deep copy of the claim.
func (c Claim) Clone() Claim {
	return Claim{Amount: types.CloneBigInt(c.Amount), ReleaseAt: c.ReleaseAt}
}

// Ledger keeps one insertion-ordered claim queue per holder. Queues are
// unbounded; settlement is the only removal path.
type Ledger struct {
	bucket *state.Bucket
}

// NewLedger creates a claims ledger persisting under the given table prefix,
// so multiple modules can keep independent queues on one database.
func NewLedger(db storage.Database, prefix string) *Ledger {
	return &Ledger{bucket: state.NewBucket(db, prefix)}
}

func (l *Ledger) load(addr crypto.Address) ([]Claim, error) {
	var queue []Claim
	if _, err := l.bucket.Get(addr.Bytes(), &queue); err != nil {
		return nil, err
	}
	return queue, nil
}

func (l *Ledger) store(addr crypto.Address, queue []Claim) error {
	if len(queue) == 0 {
		return l.bucket.Delete(addr.Bytes())
	}
	return l.bucket.Set(addr.Bytes(), queue)
}

// Create appends a claim for amount maturing at releaseAt to the holder's
// queue.
func (l *Ledger) Create(addr crypto.Address, amount *big.Int, releaseAt common.Expiration) error {
	queue, err := l.load(addr)
	if err != nil {
		return err
	}
	queue = append(queue, Claim{Amount: types.CloneBigInt(amount), ReleaseAt: releaseAt})
	return l.store(addr, queue)
}

// Settle removes matured claims from the holder's queue in insertion order
// and returns the total amount released. When cap is non-nil the running
// total never exceeds it: each whole claim must still fit under the
// remainder, and settlement stops at the first matured claim that does not —
// claims are never split. A zero return with nil error means nothing matured
// (or nothing affordable).
func (l *Ledger) Settle(addr crypto.Address, block types.BlockInfo, cap *big.Int) (*big.Int, error) {
	queue, err := l.load(addr)
	if err != nil {
		return nil, err
	}
	released := big.NewInt(0)
	remaining := make([]Claim, 0, len(queue))
	for i, claim := range queue {
		if !claim.ReleaseAt.IsExpired(block) {
			remaining = append(remaining, claim)
			continue
		}
		if cap != nil {
			next := new(big.Int).Add(released, claim.Amount)
			if next.Cmp(cap) > 0 {
				// cannot afford this whole claim; keep it and everything after
				remaining = append(remaining, queue[i:]...)
				break
			}
		}
		released.Add(released, claim.Amount)
	}
	if released.Sign() == 0 {
		return released, nil
	}
	if err := l.store(addr, remaining); err != nil {
		return nil, err
	}
	return released, nil
}

// Get lists the holder's pending claims in insertion order.
func (l *Ledger) Get(addr crypto.Address) ([]Claim, error) {
	queue, err := l.load(addr)
	if err != nil {
		return nil, err
	}
	out := make([]Claim, len(queue))
	for i, c := range queue {
		out[i] = c.Clone()
	}
	return out, nil
}

package membership

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"

	"tokenvault/core/events"
	"tokenvault/core/types"
	"tokenvault/crypto"
	"tokenvault/native/balance"
	"tokenvault/native/claims"
	"tokenvault/native/common"
	"tokenvault/observability"
)

type engineState interface {
	StakeGet(addr crypto.Address) (*big.Int, error)
	StakePut(addr crypto.Address, amount *big.Int) error
	MemberGet(addr crypto.Address) (uint64, bool, error)
	MemberPut(addr crypto.Address, weight uint64) error
	MemberDelete(addr crypto.Address) error
	MembersList(startAfter []byte, limit int) ([]MemberInfo, error)
	HistoryGet(addr crypto.Address) ([]WeightSnapshot, error)
	HistoryAppend(addr crypto.Address, snap WeightSnapshot) error
	TotalGet() ([]WeightSnapshot, error)
	TotalAppend(snap WeightSnapshot) error
	AdminGet() (crypto.Address, bool, error)
	AdminPut(admin crypto.Address) error
	HooksGet() ([]crypto.Address, error)
	HooksPut(hooks []crypto.Address) error
}

// Engine implements the stake-weighted group: accounts bond the configured
// denom, weight is stake floor-divided by TokensPerWeight once MinBond is
// reached, and every weight change is checkpointed at the current height and
// broadcast to registered hook contracts.
type Engine struct {
	cfg     Config
	state   engineState
	claims  *claims.Ledger
	emitter events.Emitter
}

// NewEngine creates a membership engine. A non-zero admin is persisted and
// controls the hook registry until replaced or cleared.
func NewEngine(cfg Config, admin crypto.Address, state engineState, ledger *claims.Ledger) (*Engine, error) {
	if cfg.TokensPerWeight == nil || cfg.TokensPerWeight.Sign() <= 0 {
		return nil, ErrInvalidConfig
	}
	if cfg.MinBond == nil || cfg.MinBond.Sign() <= 0 {
		cfg.MinBond = big.NewInt(1)
	}
	if !admin.IsZero() {
		if err := state.AdminPut(admin); err != nil {
			return nil, err
		}
	}
	return &Engine{cfg: cfg, state: state, claims: ledger, emitter: events.NoopEmitter{}}, nil
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// paidStake extracts the bonded amount from the sent funds, which must be
// exactly one coin of the configured denom.
func (e *Engine) paidStake(funds balance.Balance) (*big.Int, error) {
	switch funds.Len() {
	case 0:
		return nil, ErrNoFunds
	case 1:
		coin := funds.Coins()[0]
		if coin.Denom != e.cfg.Denom {
			return nil, fmt.Errorf("%w: want %s, got %s", ErrMissingDenom, e.cfg.Denom, coin.Denom)
		}
		return coin.Amount, nil
	default:
		if funds.AmountOf(e.cfg.Denom) != nil {
			return nil, ErrExtraDenoms
		}
		return nil, fmt.Errorf("%w: want %s", ErrMissingDenom, e.cfg.Denom)
	}
}

// Bond adds the sent stake to the sender's position and recomputes their
// membership. Hook notifications for any weight change are returned as
// messages.
func (e *Engine) Bond(block types.BlockInfo, sender crypto.Address, funds balance.Balance) (msgs []types.Message, err error) {
	defer observability.ObserveOp("membership", "bond", &err)

	amount, err := e.paidStake(funds)
	if err != nil {
		return nil, err
	}
	stake, err := e.state.StakeGet(sender)
	if err != nil {
		return nil, err
	}
	stake.Add(stake, amount)
	if err := e.state.StakePut(sender, stake); err != nil {
		return nil, err
	}
	msgs, weight, member, err := e.updateMembership(block, sender, stake)
	if err != nil {
		return nil, err
	}
	e.emitter.Emit(events.MemberBonded{
		Sender: sender,
		Amount: types.CloneBigInt(amount),
		Weight: weight,
		Member: member,
	})
	return msgs, nil
}

// Unbond withdraws stake into a claim maturing after the unbonding period and
// recomputes the sender's membership.
func (e *Engine) Unbond(block types.BlockInfo, sender crypto.Address, amount *big.Int) (msgs []types.Message, err error) {
	defer observability.ObserveOp("membership", "unbond", &err)

	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrNoFunds
	}
	stake, err := e.state.StakeGet(sender)
	if err != nil {
		return nil, err
	}
	if stake.Cmp(amount) < 0 {
		return nil, fmt.Errorf("%w: staked %s, unbonding %s", ErrUnderflow, stake, amount)
	}
	stake.Sub(stake, amount)
	if err := e.state.StakePut(sender, stake); err != nil {
		return nil, err
	}
	msgs, _, _, err = e.updateMembership(block, sender, stake)
	if err != nil {
		return nil, err
	}
	if err := e.claims.Create(sender, amount, e.cfg.UnbondingPeriod.After(block)); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.MemberUnbonded{Sender: sender, Amount: types.CloneBigInt(amount)})
	return msgs, nil
}

// Claim pays out all of the sender's matured claims. Unlike the staking
// derivative there is no liquidity cap: the ledger holds the full stake.
func (e *Engine) Claim(block types.BlockInfo, sender crypto.Address) (msgs []types.Message, err error) {
	defer observability.ObserveOp("membership", "claim", &err)

	released, err := e.claims.Settle(sender, block, nil)
	if err != nil {
		return nil, err
	}
	if released.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	paid := types.NewCoin(e.cfg.Denom, released)
	e.emitter.Emit(events.MemberClaimed{Sender: sender, Tokens: paid.String()})
	return []types.Message{types.BankSend{To: sender, Amount: []types.Coin{paid}}}, nil
}

// weightOf maps a stake to a weight, second result false when the stake is
// below the membership threshold.
func (e *Engine) weightOf(stake *big.Int) (uint64, bool) {
	if stake.Cmp(e.cfg.MinBond) < 0 {
		return 0, false
	}
	return new(big.Int).Div(stake, e.cfg.TokensPerWeight).Uint64(), true
}

// updateMembership reconciles the member table, the snapshot histories and
// the total weight with the sender's new stake, and builds one hook message
// per registered hook when the weight actually changed.
func (e *Engine) updateMembership(block types.BlockInfo, sender crypto.Address, stake *big.Int) ([]types.Message, uint64, bool, error) {
	newWeight, isMember := e.weightOf(stake)
	oldWeight, wasMember, err := e.state.MemberGet(sender)
	if err != nil {
		return nil, 0, false, err
	}
	if wasMember == isMember && oldWeight == newWeight {
		return nil, newWeight, isMember, nil
	}

	if isMember {
		err = e.state.MemberPut(sender, newWeight)
	} else {
		err = e.state.MemberDelete(sender)
	}
	if err != nil {
		return nil, 0, false, err
	}
	snap := WeightSnapshot{Height: block.Height, Weight: newWeight, Member: isMember}
	if err := e.state.HistoryAppend(sender, snap); err != nil {
		return nil, 0, false, err
	}

	total, err := e.TotalWeight()
	if err != nil {
		return nil, 0, false, err
	}
	if wasMember {
		total -= oldWeight
	}
	if isMember {
		total += newWeight
	}
	if err := e.state.TotalAppend(WeightSnapshot{Height: block.Height, Weight: total, Member: true}); err != nil {
		return nil, 0, false, err
	}

	diff := MemberDiff{Addr: sender}
	if wasMember {
		diff.Old = &oldWeight
	}
	if isMember {
		diff.New = &newWeight
	}
	msgs, err := e.hookMessages(diff)
	if err != nil {
		return nil, 0, false, err
	}
	return msgs, newWeight, isMember, nil
}

type memberDiffJSON struct {
	Key string  `json:"key"`
	Old *uint64 `json:"old,omitempty"`
	New *uint64 `json:"new,omitempty"`
}

type memberChangedHook struct {
	Diffs []memberDiffJSON `json:"diffs"`
}

// hookMessages renders the diff into one self-describing callback per
// registered hook contract.
func (e *Engine) hookMessages(diff MemberDiff) ([]types.Message, error) {
	hooks, err := e.state.HooksGet()
	if err != nil {
		return nil, err
	}
	if len(hooks) == 0 {
		return nil, nil
	}
	payload, err := json.Marshal(struct {
		MemberChangedHook memberChangedHook `json:"member_changed_hook"`
	}{
		MemberChangedHook: memberChangedHook{
			Diffs: []memberDiffJSON{{Key: diff.Addr.String(), Old: diff.Old, New: diff.New}},
		},
	})
	if err != nil {
		return nil, err
	}
	msgs := make([]types.Message, 0, len(hooks))
	for _, hook := range hooks {
		msgs = append(msgs, types.ExecContract{Contract: hook, Payload: payload})
	}
	return msgs, nil
}

// UpdateAdmin replaces the admin. Only the current admin may call it; a zero
// address clears the slot and freezes the hook registry.
func (e *Engine) UpdateAdmin(sender, next crypto.Address) (err error) {
	defer observability.ObserveOp("membership", "update_admin", &err)

	if err := e.assertAdmin(sender); err != nil {
		return err
	}
	return e.state.AdminPut(next)
}

// AddHook registers a contract to be notified of membership diffs. Admin
// only; duplicates are rejected.
func (e *Engine) AddHook(sender, hook crypto.Address) (err error) {
	defer observability.ObserveOp("membership", "add_hook", &err)

	if err := e.assertAdmin(sender); err != nil {
		return err
	}
	hooks, err := e.state.HooksGet()
	if err != nil {
		return err
	}
	for _, h := range hooks {
		if h == hook {
			return ErrHookExists
		}
	}
	return e.state.HooksPut(append(hooks, hook))
}

// RemoveHook drops a registered hook. Admin only; unknown hooks are rejected.
func (e *Engine) RemoveHook(sender, hook crypto.Address) (err error) {
	defer observability.ObserveOp("membership", "remove_hook", &err)

	if err := e.assertAdmin(sender); err != nil {
		return err
	}
	hooks, err := e.state.HooksGet()
	if err != nil {
		return err
	}
	for i, h := range hooks {
		if h == hook {
			return e.state.HooksPut(append(hooks[:i], hooks[i+1:]...))
		}
	}
	return ErrHookNotFound
}

func (e *Engine) assertAdmin(sender crypto.Address) error {
	admin, ok, err := e.state.AdminGet()
	if err != nil {
		return err
	}
	if !ok || admin.IsZero() || sender != admin {
		return ErrUnauthorized
	}
	return nil
}

// Member returns the current weight, second result false for non-members.
func (e *Engine) Member(addr crypto.Address) (uint64, bool, error) {
	return e.state.MemberGet(addr)
}

// MemberAt returns the weight that held at the given height: the snapshot
// with the greatest recorded height not above it.
func (e *Engine) MemberAt(addr crypto.Address, height uint64) (uint64, bool, error) {
	history, err := e.state.HistoryGet(addr)
	if err != nil {
		return 0, false, err
	}
	snap, ok := snapshotAt(history, height)
	if !ok || !snap.Member {
		return 0, false, nil
	}
	return snap.Weight, true, nil
}

// TotalWeight returns the current total weight of the group.
func (e *Engine) TotalWeight() (uint64, error) {
	history, err := e.state.TotalGet()
	if err != nil {
		return 0, err
	}
	if len(history) == 0 {
		return 0, nil
	}
	return history[len(history)-1].Weight, nil
}

// TotalWeightAt returns the total weight that held at the given height.
func (e *Engine) TotalWeightAt(height uint64) (uint64, error) {
	history, err := e.state.TotalGet()
	if err != nil {
		return 0, err
	}
	snap, ok := snapshotAt(history, height)
	if !ok {
		return 0, nil
	}
	return snap.Weight, nil
}

func snapshotAt(history []WeightSnapshot, height uint64) (WeightSnapshot, bool) {
	idx := sort.Search(len(history), func(i int) bool { return history[i].Height > height })
	if idx == 0 {
		return WeightSnapshot{}, false
	}
	return history[idx-1], true
}

// ListMembers pages through current members in ascending address-byte order.
func (e *Engine) ListMembers(startAfter []byte, limit int) ([]MemberInfo, error) {
	return e.state.MembersList(startAfter, common.ClampPageSize(limit))
}

// Staked returns the sender's raw staked coin, bonded or not yet withdrawn.
func (e *Engine) Staked(addr crypto.Address) (types.Coin, error) {
	stake, err := e.state.StakeGet(addr)
	if err != nil {
		return types.Coin{}, err
	}
	return types.NewCoin(e.cfg.Denom, stake), nil
}

// Claims lists the holder's pending unbonding claims.
func (e *Engine) Claims(addr crypto.Address) ([]claims.Claim, error) {
	return e.claims.Get(addr)
}

// Admin returns the current admin, second result false when unset.
func (e *Engine) Admin() (crypto.Address, bool, error) {
	admin, ok, err := e.state.AdminGet()
	if err != nil || !ok || admin.IsZero() {
		return crypto.Address{}, false, err
	}
	return admin, true, nil
}

// Hooks lists the registered hook contracts in registration order.
func (e *Engine) Hooks() ([]crypto.Address, error) {
	return e.state.HooksGet()
}

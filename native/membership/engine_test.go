package membership

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"tokenvault/core/types"
	"tokenvault/crypto"
	"tokenvault/native/balance"
	"tokenvault/native/common"
	"tokenvault/storage"
)

const groupDenom = "stake"

func testAddr(fill byte) crypto.Address {
	var addr crypto.Address
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

var admin = testAddr(0x01)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	cfg := Config{
		Denom:           groupDenom,
		TokensPerWeight: big.NewInt(100),
		MinBond:         big.NewInt(500),
		UnbondingPeriod: common.Duration{Height: 10},
	}
	engine, err := NewEngine(cfg, admin, NewStore(db), NewClaims(db))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func stakeOf(amount int64) balance.Balance {
	return balance.NewBalance([]types.Coin{types.NewCoin64(groupDenom, amount)})
}

func mustBond(t *testing.T, engine *Engine, block types.BlockInfo, sender crypto.Address, amount int64) {
	t.Helper()
	if _, err := engine.Bond(block, sender, stakeOf(amount)); err != nil {
		t.Fatalf("bond %d: %v", amount, err)
	}
}

func TestNewEngineValidatesConfig(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()
	cfg := Config{Denom: groupDenom, TokensPerWeight: big.NewInt(0)}
	if _, err := NewEngine(cfg, admin, NewStore(db), NewClaims(db)); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("zero tokens per weight: %v", err)
	}
}

func TestBondValidatesFunds(t *testing.T) {
	engine := newTestEngine(t)
	sender := testAddr(0x02)
	block := types.BlockInfo{Height: 1}

	if _, err := engine.Bond(block, sender, balance.NewBalance(nil)); !errors.Is(err, ErrNoFunds) {
		t.Fatalf("no funds: %v", err)
	}
	// a zero coin normalizes away
	if _, err := engine.Bond(block, sender, stakeOf(0)); !errors.Is(err, ErrNoFunds) {
		t.Fatalf("zero funds: %v", err)
	}
	wrong := balance.NewBalance([]types.Coin{types.NewCoin64("photon", 100)})
	if _, err := engine.Bond(block, sender, wrong); !errors.Is(err, ErrMissingDenom) {
		t.Fatalf("wrong denom: %v", err)
	}
	mixed := balance.NewBalance([]types.Coin{
		types.NewCoin64(groupDenom, 100),
		types.NewCoin64("photon", 100),
	})
	if _, err := engine.Bond(block, sender, mixed); !errors.Is(err, ErrExtraDenoms) {
		t.Fatalf("mixed denoms: %v", err)
	}
}

func TestBondCrossesMembershipThreshold(t *testing.T) {
	engine := newTestEngine(t)
	sender := testAddr(0x02)

	// below MinBond: stake held, no weight
	mustBond(t, engine, types.BlockInfo{Height: 1}, sender, 400)
	if _, ok, _ := engine.Member(sender); ok {
		t.Fatalf("member below threshold")
	}
	staked, err := engine.Staked(sender)
	if err != nil {
		t.Fatalf("staked: %v", err)
	}
	if staked.Amount.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("staked %s, want 400", staked.Amount)
	}

	// top up over the threshold: 650 / 100 floors to 6
	mustBond(t, engine, types.BlockInfo{Height: 2}, sender, 250)
	weight, ok, err := engine.Member(sender)
	if err != nil || !ok {
		t.Fatalf("member: %v %v", ok, err)
	}
	if weight != 6 {
		t.Fatalf("weight %d, want 6", weight)
	}
	if total, _ := engine.TotalWeight(); total != 6 {
		t.Fatalf("total %d, want 6", total)
	}
}

func TestUnbondUnderflowAndClaim(t *testing.T) {
	engine := newTestEngine(t)
	sender := testAddr(0x02)

	mustBond(t, engine, types.BlockInfo{Height: 1}, sender, 1000)
	if _, err := engine.Unbond(types.BlockInfo{Height: 2}, sender, big.NewInt(1500)); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("underflow: %v", err)
	}
	if _, err := engine.Unbond(types.BlockInfo{Height: 2}, sender, big.NewInt(600)); err != nil {
		t.Fatalf("unbond: %v", err)
	}
	// 400 left is below MinBond
	if _, ok, _ := engine.Member(sender); ok {
		t.Fatalf("still a member after dropping below the threshold")
	}

	if _, err := engine.Claim(types.BlockInfo{Height: 5}, sender); !errors.Is(err, ErrNothingToClaim) {
		t.Fatalf("early claim: %v", err)
	}
	msgs, err := engine.Claim(types.BlockInfo{Height: 12}, sender)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	send := msgs[0].(types.BankSend)
	if send.To != sender || send.Amount[0].Amount.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("payout %+v", send)
	}
	if _, err := engine.Claim(types.BlockInfo{Height: 12}, sender); !errors.Is(err, ErrNothingToClaim) {
		t.Fatalf("repeat claim: %v", err)
	}
}

func TestSnapshotsAnswerHistoricalQueries(t *testing.T) {
	engine := newTestEngine(t)
	sender := testAddr(0x02)

	mustBond(t, engine, types.BlockInfo{Height: 10}, sender, 500) // weight 5
	mustBond(t, engine, types.BlockInfo{Height: 20}, sender, 500) // weight 10
	if _, err := engine.Unbond(types.BlockInfo{Height: 30}, sender, big.NewInt(700)); err != nil {
		t.Fatalf("unbond: %v", err) // 300 left, below threshold
	}

	cases := []struct {
		height uint64
		weight uint64
		member bool
	}{
		{5, 0, false},
		{10, 5, true},
		{15, 5, true},
		{20, 10, true},
		{25, 10, true},
		{30, 0, false},
		{100, 0, false},
	}
	for _, tc := range cases {
		weight, ok, err := engine.MemberAt(sender, tc.height)
		if err != nil {
			t.Fatalf("member at %d: %v", tc.height, err)
		}
		if ok != tc.member || weight != tc.weight {
			t.Fatalf("at %d got weight=%d member=%v, want weight=%d member=%v", tc.height, weight, ok, tc.weight, tc.member)
		}
		total, err := engine.TotalWeightAt(tc.height)
		if err != nil {
			t.Fatalf("total at %d: %v", tc.height, err)
		}
		if total != tc.weight {
			t.Fatalf("total at %d got %d, want %d", tc.height, total, tc.weight)
		}
	}
}

func TestHookRegistryIsAdminOnly(t *testing.T) {
	engine := newTestEngine(t)
	hook := testAddr(0x0A)

	if err := engine.AddHook(testAddr(0x03), hook); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-admin add: %v", err)
	}
	if err := engine.AddHook(admin, hook); err != nil {
		t.Fatalf("add hook: %v", err)
	}
	if err := engine.AddHook(admin, hook); !errors.Is(err, ErrHookExists) {
		t.Fatalf("duplicate hook: %v", err)
	}
	if err := engine.RemoveHook(admin, testAddr(0x04)); !errors.Is(err, ErrHookNotFound) {
		t.Fatalf("unknown hook: %v", err)
	}
	if err := engine.RemoveHook(admin, hook); err != nil {
		t.Fatalf("remove hook: %v", err)
	}
}

func TestWeightChangesNotifyHooks(t *testing.T) {
	engine := newTestEngine(t)
	sender := testAddr(0x02)
	hook := testAddr(0x0A)

	if err := engine.AddHook(admin, hook); err != nil {
		t.Fatalf("add hook: %v", err)
	}

	// below the threshold nothing changes, so no notification
	msgs, err := engine.Bond(types.BlockInfo{Height: 1}, sender, stakeOf(400))
	if err != nil {
		t.Fatalf("bond: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("unexpected hook messages: %v", msgs)
	}

	msgs, err = engine.Bond(types.BlockInfo{Height: 2}, sender, stakeOf(300))
	if err != nil {
		t.Fatalf("bond: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 hook message, got %d", len(msgs))
	}
	exec := msgs[0].(types.ExecContract)
	if exec.Contract != hook {
		t.Fatalf("hook target %x", exec.Contract)
	}
	var payload struct {
		MemberChangedHook struct {
			Diffs []struct {
				Key string  `json:"key"`
				Old *uint64 `json:"old"`
				New *uint64 `json:"new"`
			} `json:"diffs"`
		} `json:"member_changed_hook"`
	}
	if err := json.Unmarshal(exec.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	diffs := payload.MemberChangedHook.Diffs
	if len(diffs) != 1 || diffs[0].Key != sender.String() {
		t.Fatalf("diffs %+v", diffs)
	}
	if diffs[0].Old != nil || diffs[0].New == nil || *diffs[0].New != 7 {
		t.Fatalf("diff weights %+v", diffs[0])
	}
}

func TestUpdateAdmin(t *testing.T) {
	engine := newTestEngine(t)
	next := testAddr(0x05)

	if err := engine.UpdateAdmin(next, next); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-admin update: %v", err)
	}
	if err := engine.UpdateAdmin(admin, next); err != nil {
		t.Fatalf("update admin: %v", err)
	}
	if err := engine.AddHook(admin, testAddr(0x0A)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("old admin still authorized: %v", err)
	}
	// clearing the slot freezes the registry
	if err := engine.UpdateAdmin(next, crypto.Address{}); err != nil {
		t.Fatalf("clear admin: %v", err)
	}
	if err := engine.AddHook(next, testAddr(0x0A)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("cleared admin still authorized: %v", err)
	}
}

func TestListMembersPaginates(t *testing.T) {
	engine := newTestEngine(t)
	for fill := byte(1); fill <= 15; fill++ {
		mustBond(t, engine, types.BlockInfo{Height: 1}, testAddr(fill), 500)
	}

	// default page size
	page, err := engine.ListMembers(nil, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != common.DefaultPageSize {
		t.Fatalf("default page %d, want %d", len(page), common.DefaultPageSize)
	}
	if page[0].Addr != testAddr(1) || page[0].Weight != 5 {
		t.Fatalf("first member %+v", page[0])
	}

	// resume after the last address of the first page
	rest, err := engine.ListMembers(page[len(page)-1].Addr.Bytes(), 30)
	if err != nil {
		t.Fatalf("list rest: %v", err)
	}
	if len(rest) != 5 || rest[0].Addr != testAddr(11) {
		t.Fatalf("rest %+v", rest)
	}
}

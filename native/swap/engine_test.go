package swap

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"tokenvault/core/events"
	"tokenvault/core/types"
	"tokenvault/crypto"
	"tokenvault/native/balance"
	"tokenvault/native/common"
	"tokenvault/storage"
)

func testAddr(fill byte) crypto.Address {
	var addr crypto.Address
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

// preimageAndHash derives a 32-byte preimage from seed and returns both hex
// encoded, the way callers supply them on the wire.
func preimageAndHash(seed string) (string, string) {
	raw := sha256.Sum256([]byte(seed))
	digest := sha256.Sum256(raw[:])
	return hex.EncodeToString(raw[:]), hex.EncodeToString(digest[:])
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return NewEngine(NewStore(db))
}

func nativeFunds(amount int64, denom string) balance.Funds {
	return balance.NativeFunds([]types.Coin{types.NewCoin64(denom, amount)})
}

func TestCreateValidation(t *testing.T) {
	engine := newTestEngine(t)
	block := types.BlockInfo{Height: 10}
	sender := testAddr(0x01)
	_, hash := preimageAndHash("secret")

	valid := CreateMsg{ID: "s1x", Hash: hash, Recipient: testAddr(0x02), Expires: common.AtHeight(100)}

	// id too short
	bad := valid
	bad.ID = "ab"
	if _, err := engine.Create(block, sender, bad, nativeFunds(100, "tok")); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("short id: %v", err)
	}

	// empty funding
	if _, err := engine.Create(block, sender, valid, balance.NativeFunds(nil)); !errors.Is(err, ErrEmptyBalance) {
		t.Fatalf("empty funds: %v", err)
	}

	// malformed hash
	bad = valid
	bad.Hash = "zz"
	if _, err := engine.Create(block, sender, bad, nativeFunds(100, "tok")); !errors.Is(err, ErrParseHash) {
		t.Fatalf("bad hex: %v", err)
	}
	bad.Hash = "abcd"
	if _, err := engine.Create(block, sender, bad, nativeFunds(100, "tok")); !errors.Is(err, ErrInvalidHashLength) {
		t.Fatalf("short hash: %v", err)
	}

	// already expired
	bad = valid
	bad.Expires = common.AtHeight(5)
	if _, err := engine.Create(block, sender, bad, nativeFunds(100, "tok")); !errors.Is(err, ErrExpired) {
		t.Fatalf("expired create: %v", err)
	}

	// first create wins, second loses
	if _, err := engine.Create(block, sender, valid, nativeFunds(100, "tok")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := engine.Create(block, sender, valid, nativeFunds(100, "tok")); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate create: %v", err)
	}
}

func TestReleaseHappyPath(t *testing.T) {
	engine := newTestEngine(t)
	collector := &events.Collector{}
	engine.SetEmitter(collector)

	sender := testAddr(0x01)
	recipient := testAddr(0x02)
	preimage, hash := preimageAndHash("secret")

	msg := CreateMsg{ID: "swap1", Hash: hash, Recipient: recipient, Expires: common.AtHeight(100)}
	if _, err := engine.Create(types.BlockInfo{Height: 10}, sender, msg, nativeFunds(100, "tok")); err != nil {
		t.Fatalf("create: %v", err)
	}

	msgs, err := engine.Release(types.BlockInfo{Height: 50}, "swap1", preimage)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	send, ok := msgs[0].(types.BankSend)
	if !ok {
		t.Fatalf("expected BankSend, got %T", msgs[0])
	}
	if send.To != recipient {
		t.Fatalf("sent to %x", send.To)
	}
	if len(send.Amount) != 1 || send.Amount[0].String() != "100tok" {
		t.Fatalf("unexpected amount: %v", send.Amount)
	}

	// record is gone, repeat release observes NotFound
	if _, err := engine.Release(types.BlockInfo{Height: 51}, "swap1", preimage); !errors.Is(err, ErrNotFound) {
		t.Fatalf("repeat release: %v", err)
	}

	if len(collector.Events) != 2 || collector.Events[1].Type != events.TypeSwapReleased {
		t.Fatalf("unexpected events: %+v", collector.Events)
	}
}

func TestReleaseRejections(t *testing.T) {
	engine := newTestEngine(t)
	sender := testAddr(0x01)
	preimage, hash := preimageAndHash("secret")
	wrongPreimage, _ := preimageAndHash("other")

	msg := CreateMsg{ID: "swap1", Hash: hash, Recipient: testAddr(0x02), Expires: common.AtHeight(100)}
	if _, err := engine.Create(types.BlockInfo{Height: 10}, sender, msg, nativeFunds(100, "tok")); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := engine.Release(types.BlockInfo{Height: 50}, "nope1", preimage); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id: %v", err)
	}
	if _, err := engine.Release(types.BlockInfo{Height: 50}, "swap1", wrongPreimage); !errors.Is(err, ErrInvalidPreimage) {
		t.Fatalf("wrong preimage: %v", err)
	}
	if _, err := engine.Release(types.BlockInfo{Height: 100}, "swap1", preimage); !errors.Is(err, ErrExpired) {
		t.Fatalf("expired release: %v", err)
	}

	// still present: failed releases must not consume the swap
	if _, err := engine.Details("swap1"); err != nil {
		t.Fatalf("details: %v", err)
	}
}

func TestRefundTimeGate(t *testing.T) {
	engine := newTestEngine(t)
	source := testAddr(0x01)
	_, hash := preimageAndHash("secret")

	msg := CreateMsg{ID: "swap1", Hash: hash, Recipient: testAddr(0x02), Expires: common.AtHeight(100)}
	if _, err := engine.Create(types.BlockInfo{Height: 10}, source, msg, nativeFunds(42, "tok")); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := engine.Refund(types.BlockInfo{Height: 99}, "swap1"); !errors.Is(err, ErrNotExpired) {
		t.Fatalf("early refund: %v", err)
	}

	msgs, err := engine.Refund(types.BlockInfo{Height: 100}, "swap1")
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	send, ok := msgs[0].(types.BankSend)
	if !ok || send.To != source {
		t.Fatalf("refund went to %+v", msgs[0])
	}

	if _, err := engine.Refund(types.BlockInfo{Height: 101}, "swap1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("repeat refund: %v", err)
	}
}

func TestReleaseTokenFundedSwap(t *testing.T) {
	engine := newTestEngine(t)
	token := testAddr(0xEE)
	recipient := testAddr(0x02)
	preimage, hash := preimageAndHash("secret")

	msg := CreateMsg{ID: "swap1", Hash: hash, Recipient: recipient, Expires: common.AtTime(9000)}
	funds := balance.TokenFunds(token, big.NewInt(777))
	if _, err := engine.Create(types.BlockInfo{Time: 1000}, testAddr(0x01), msg, funds); err != nil {
		t.Fatalf("create: %v", err)
	}

	msgs, err := engine.Release(types.BlockInfo{Time: 2000}, "swap1", preimage)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	transfer, ok := msgs[0].(types.TokenTransfer)
	if !ok {
		t.Fatalf("expected TokenTransfer, got %T", msgs[0])
	}
	if transfer.Token != token || transfer.To != recipient || transfer.Amount.Int64() != 777 {
		t.Fatalf("unexpected transfer: %+v", transfer)
	}
}

func TestListPagination(t *testing.T) {
	engine := newTestEngine(t)
	sender := testAddr(0x01)
	_, hash := preimageAndHash("secret")

	for _, id := range []string{"zen", "assign", "lazy"} {
		msg := CreateMsg{ID: id, Hash: hash, Recipient: testAddr(0x02), Expires: common.AtHeight(100)}
		if _, err := engine.Create(types.BlockInfo{Height: 1}, sender, msg, nativeFunds(1, "tok")); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	ids, err := engine.List("", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if fmt.Sprint(ids) != "[assign lazy zen]" {
		t.Fatalf("order wrong: %v", ids)
	}

	ids, err = engine.List("assign", 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 1 || ids[0] != "lazy" {
		t.Fatalf("cursor page wrong: %v", ids)
	}
}

func TestListClampsPageSize(t *testing.T) {
	engine := newTestEngine(t)
	sender := testAddr(0x01)
	_, hash := preimageAndHash("secret")

	for i := 0; i < 35; i++ {
		msg := CreateMsg{ID: fmt.Sprintf("swap-%03d", i), Hash: hash, Recipient: testAddr(0x02), Expires: common.AtHeight(100)}
		if _, err := engine.Create(types.BlockInfo{Height: 1}, sender, msg, nativeFunds(1, "tok")); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	ids, err := engine.List("", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != common.DefaultPageSize {
		t.Fatalf("default page: %d", len(ids))
	}

	ids, err = engine.List("", 100)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != common.MaxPageSize {
		t.Fatalf("max page: %d", len(ids))
	}
}

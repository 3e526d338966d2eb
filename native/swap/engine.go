package swap

import (
	"crypto/sha256"

	"tokenvault/core/events"
	"tokenvault/core/types"
	"tokenvault/crypto"
	"tokenvault/native/balance"
	"tokenvault/native/common"
	"tokenvault/observability"
)

type engineState interface {
	SwapGet(id string) (*Swap, bool, error)
	SwapPut(id string, s *Swap) error
	SwapDelete(id string) error
	SwapIDs(startAfter string, limit int) ([]string, error)
}

// Engine implements the atomic swap state machine against an injected state
// backend. All transitions are single-shot: they either fully apply or
// return an error with no messages.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine creates a swap engine with a no-op emitter. Callers can override
// the emitter via SetEmitter.
func NewEngine(state engineState) *Engine {
	return &Engine{state: state, emitter: events.NoopEmitter{}}
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

// Create stores a new swap under the caller-chosen id. The id is a mutual
// exclusion token: only the first Create per id wins.
func (e *Engine) Create(block types.BlockInfo, sender crypto.Address, msg CreateMsg, funds balance.Funds) (msgs []types.Message, err error) {
	defer observability.ObserveOp("swap", "create", &err)

	if err := ValidateID(msg.ID); err != nil {
		return nil, err
	}
	if funds.IsEmpty() {
		return nil, ErrEmptyBalance
	}
	hash, err := ParseHex32(msg.Hash)
	if err != nil {
		return nil, err
	}
	if msg.Expires.IsExpired(block) {
		return nil, ErrExpired
	}
	if _, ok, err := e.state.SwapGet(msg.ID); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyExists
	}
	record := &Swap{
		Hash:      hash,
		Source:    sender,
		Recipient: msg.Recipient,
		Expires:   msg.Expires,
		Funds:     funds.Clone(),
	}
	if err := e.state.SwapPut(msg.ID, record); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.SwapCreated{ID: msg.ID, Hash: hash, Recipient: msg.Recipient})
	return nil, nil
}

// Release consumes the swap when the preimage hashes to the stored digest,
// transferring the full funds to the recipient.
func (e *Engine) Release(block types.BlockInfo, id string, preimage string) (msgs []types.Message, err error) {
	defer observability.ObserveOp("swap", "release", &err)

	record, ok, err := e.state.SwapGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if record.IsExpired(block) {
		return nil, ErrExpired
	}
	decoded, err := ParseHex32(preimage)
	if err != nil {
		return nil, err
	}
	if sha256.Sum256(decoded[:]) != record.Hash {
		return nil, ErrInvalidPreimage
	}
	if err := e.state.SwapDelete(id); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.SwapReleased{ID: id, Preimage: preimage, To: record.Recipient})
	return sendFunds(record.Recipient, record.Funds), nil
}

// Refund returns the funds of an expired swap to its source. Anyone may
// call it; refunds are time-gated, not access-controlled.
func (e *Engine) Refund(block types.BlockInfo, id string) (msgs []types.Message, err error) {
	defer observability.ObserveOp("swap", "refund", &err)

	record, ok, err := e.state.SwapGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if !record.IsExpired(block) {
		return nil, ErrNotExpired
	}
	if err := e.state.SwapDelete(id); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.SwapRefunded{ID: id, To: record.Source})
	return sendFunds(record.Source, record.Funds), nil
}

// List enumerates open swap ids in ascending order, starting strictly after
// the cursor, with the page size clamped to the suite-wide bounds.
func (e *Engine) List(startAfter string, limit int) ([]string, error) {
	return e.state.SwapIDs(startAfter, common.ClampPageSize(limit))
}

// Details returns a copy of the stored swap.
func (e *Engine) Details(id string) (*Swap, error) {
	record, ok, err := e.state.SwapGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return record.Clone(), nil
}

func sendFunds(to crypto.Address, funds balance.Funds) []types.Message {
	if funds.IsEmpty() {
		return nil
	}
	if funds.Token != nil {
		return []types.Message{types.TokenTransfer{
			Token:  funds.Token.Address,
			To:     to,
			Amount: types.CloneBigInt(funds.Token.Amount),
		}}
	}
	return []types.Message{types.BankSend{To: to, Amount: funds.Native.Coins()}}
}

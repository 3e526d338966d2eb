package escrow

import (
	"tokenvault/core/events"
	"tokenvault/core/types"
	"tokenvault/crypto"
	"tokenvault/native/balance"
	"tokenvault/observability"
)

type engineState interface {
	EscrowGet(id string) (*Escrow, bool, error)
	EscrowPut(id string, e *Escrow) error
	EscrowDelete(id string) error
	EscrowIDs() ([]string, error)
}

// Engine implements the escrow state machine against an injected state
// backend.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine creates an escrow engine with a no-op emitter.
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

// Create stores a new escrow under the caller-chosen id, funded by the
// sender. A token funding the escrow that is missing from the explicit
// whitelist is appended to it.
func (e *Engine) Create(sender crypto.Address, msg CreateMsg, funds balance.Funds) (msgs []types.Message, err error) {
	defer observability.ObserveOp("escrow", "create", &err)

	if funds.IsEmpty() {
		return nil, ErrEmptyBalance
	}
	if _, ok, err := e.state.EscrowGet(msg.ID); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyInUse
	}

	whitelist := append([]crypto.Address(nil), msg.Whitelist...)
	var bal balance.GenericBalance
	bal.AddFunds(funds)
	if funds.Token != nil {
		listed := false
		for _, addr := range whitelist {
			if addr == funds.Token.Address {
				listed = true
				break
			}
		}
		if !listed {
			whitelist = append(whitelist, funds.Token.Address)
		}
	}

	record := &Escrow{
		Arbiter:   msg.Arbiter,
		Recipient: msg.Recipient,
		Source:    sender,
		EndHeight: msg.EndHeight,
		EndTime:   msg.EndTime,
		Balance:   bal,
		Whitelist: whitelist,
	}
	if err := e.state.EscrowPut(msg.ID, record); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.EscrowCreated{ID: msg.ID})
	return nil, nil
}

// TopUp additively merges funds into a live escrow. Token funds must be on
// the escrow's whitelist.
func (e *Engine) TopUp(id string, funds balance.Funds) (msgs []types.Message, err error) {
	defer observability.ObserveOp("escrow", "top_up", &err)

	if funds.IsEmpty() {
		return nil, ErrEmptyBalance
	}
	record, ok, err := e.state.EscrowGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if funds.Token != nil && !record.IsWhitelisted(funds.Token.Address) {
		return nil, ErrNotInWhitelist
	}
	record.Balance.AddFunds(funds)
	if err := e.state.EscrowPut(id, record); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.EscrowTopUp{ID: id})
	return nil, nil
}

// Approve releases the entire balance to the recipient. Only the arbiter may
// approve, and only while the escrow is not expired.
func (e *Engine) Approve(block types.BlockInfo, sender crypto.Address, id string) (msgs []types.Message, err error) {
	defer observability.ObserveOp("escrow", "approve", &err)

	record, ok, err := e.state.EscrowGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if sender != record.Arbiter {
		return nil, ErrUnauthorized
	}
	if record.IsExpired(block) {
		return nil, ErrExpired
	}
	if err := e.state.EscrowDelete(id); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.EscrowApproved{ID: id, To: record.Recipient})
	return payOut(record.Recipient, record.Balance), nil
}

// Refund returns the entire balance to the source. The arbiter may refund at
// any time; anyone else only once the escrow has expired.
func (e *Engine) Refund(block types.BlockInfo, sender crypto.Address, id string) (msgs []types.Message, err error) {
	defer observability.ObserveOp("escrow", "refund", &err)

	record, ok, err := e.state.EscrowGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if !record.IsExpired(block) && sender != record.Arbiter {
		return nil, ErrUnauthorized
	}
	if err := e.state.EscrowDelete(id); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.EscrowRefunded{ID: id, To: record.Source})
	return payOut(record.Source, record.Balance), nil
}

// List enumerates all escrow ids in ascending order. Expected cardinality is
// small, so the listing is unpaginated.
func (e *Engine) List() ([]string, error) {
	return e.state.EscrowIDs()
}

// Details returns a copy of the stored escrow.
func (e *Engine) Details(id string) (*Escrow, error) {
	record, ok, err := e.state.EscrowGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return record.Clone(), nil
}

// payOut moves the whole balance in one shot: a single bank send covering
// every native denom, then one transfer per token in storage order.
func payOut(to crypto.Address, bal balance.GenericBalance) []types.Message {
	var msgs []types.Message
	if !bal.Native.IsEmpty() {
		msgs = append(msgs, types.BankSend{To: to, Amount: bal.Native.Coins()})
	}
	for _, token := range bal.Tokens {
		msgs = append(msgs, types.TokenTransfer{
			Token:  token.Address,
			To:     to,
			Amount: types.CloneBigInt(token.Amount),
		})
	}
	return msgs
}

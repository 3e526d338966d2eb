package types

import (
	"math/big"

	"tokenvault/crypto"
)

// Message is an outbound instruction returned by an engine transition. The
// host executes the full list atomically with the state mutation and rolls
// both back if any entry fails.
type Message interface {
	isMessage()
}

// BankSend transfers native coins from the contract to a recipient.
type BankSend struct {
	To     crypto.Address
	Amount []Coin
}

// TokenTransfer instructs a fungible-token contract to move tokens the
// engine holds to a recipient.
type TokenTransfer struct {
	Token  crypto.Address
	To     crypto.Address
	Amount *big.Int
}

// Delegate bonds native coins to a validator on behalf of the contract.
type Delegate struct {
	Validator string
	Amount    Coin
}

// Undelegate releases previously bonded coins from a validator.
type Undelegate struct {
	Validator string
	Amount    Coin
}

// WithdrawRewards moves accrued staking rewards into the contract's own
// bank balance.
type WithdrawRewards struct {
	Validator string
}

// ExecContract invokes another contract (or the emitting contract itself,
// for the reinvest callback) with an opaque payload.
type ExecContract struct {
	Contract crypto.Address
	Payload  []byte
}

func (BankSend) isMessage()        {}
func (TokenTransfer) isMessage()   {}
func (Delegate) isMessage()        {}
func (Undelegate) isMessage()      {}
func (WithdrawRewards) isMessage() {}
func (ExecContract) isMessage()    {}

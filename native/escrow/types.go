package escrow

import (
	"errors"

	"tokenvault/core/types"
	"tokenvault/crypto"
	"tokenvault/native/balance"
)

var (
	ErrEmptyBalance   = errors.New("escrow: send some funds to create or top up an escrow")
	ErrAlreadyInUse   = errors.New("escrow: escrow id already in use")
	ErrNotFound       = errors.New("escrow: escrow not found")
	ErrNotInWhitelist = errors.New("escrow: token is not in the escrow whitelist")
	ErrUnauthorized   = errors.New("escrow: unauthorized")
	ErrExpired        = errors.New("escrow: escrow expired")
)

// Escrow is an arbiter-mediated conditional transfer. Approve and Refund
// delete the record; a live escrow may be topped up any number of times.
type Escrow struct {
	// Arbiter can decide to approve or refund the escrow.
	Arbiter crypto.Address
	// If approved, funds go to the recipient.
	Recipient crypto.Address
	// If refunded, funds go to the source.
	Source crypto.Address
	// When EndHeight is set and the block height exceeds it, the escrow is
	// expired. Zero means unset.
	EndHeight uint64
	// When EndTime (unix seconds) is set and the block time exceeds it, the
	// escrow is expired. Zero means unset.
	EndTime uint64
	// Balance in native coins and token references.
	Balance balance.GenericBalance
	// Whitelist is the set of token addresses the escrow accepts as top-up
	// funding. A novel token funding the escrow at creation whitelists
	// itself.
	Whitelist []crypto.Address
}

// Clone returns a deep copy of the escrow.
func (e *Escrow) Clone() *Escrow {
	if e == nil {
		return nil
	}
	out := *e
	out.Balance = e.Balance.Clone()
	out.Whitelist = append([]crypto.Address(nil), e.Whitelist...)
	return &out
}

// IsExpired reports whether either deadline has been exceeded. Both gates
// are strict: the escrow is still live at exactly EndHeight / EndTime.
func (e *Escrow) IsExpired(block types.BlockInfo) bool {
	if e.EndHeight != 0 && block.Height > e.EndHeight {
		return true
	}
	if e.EndTime != 0 && block.Time > e.EndTime {
		return true
	}
	return false
}

// IsWhitelisted reports whether the token address may fund this escrow.
func (e *Escrow) IsWhitelisted(token crypto.Address) bool {
	for _, addr := range e.Whitelist {
		if addr == token {
			return true
		}
	}
	return false
}

// CreateMsg carries the caller-supplied parameters of a new escrow.
type CreateMsg struct {
	ID        string
	Arbiter   crypto.Address
	Recipient crypto.Address
	EndHeight uint64
	EndTime   uint64
	Whitelist []crypto.Address
}

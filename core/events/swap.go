package events

import (
	"encoding/hex"

	"tokenvault/core/types"
	"tokenvault/crypto"
)

const (
	TypeSwapCreated  = "swap.created"
	TypeSwapReleased = "swap.released"
	TypeSwapRefunded = "swap.refunded"
)

// SwapCreated is emitted when a new atomic swap is stored.
type SwapCreated struct {
	ID        string
	Hash      [32]byte
	Recipient crypto.Address
}

func (SwapCreated) EventType() string { return TypeSwapCreated }

func (e SwapCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeSwapCreated,
		Attributes: map[string]string{
			"action":    "create",
			"id":        e.ID,
			"hash":      hex.EncodeToString(e.Hash[:]),
			"recipient": e.Recipient.String(),
		},
	}
}

// SwapReleased is emitted when a swap is consumed with a valid preimage.
type SwapReleased struct {
	ID       string
	Preimage string
	To       crypto.Address
}

func (SwapReleased) EventType() string { return TypeSwapReleased }

func (e SwapReleased) Event() *types.Event {
	return &types.Event{
		Type: TypeSwapReleased,
		Attributes: map[string]string{
			"action":   "release",
			"id":       e.ID,
			"preimage": e.Preimage,
			"to":       e.To.String(),
		},
	}
}

// SwapRefunded is emitted when an expired swap is returned to its source.
type SwapRefunded struct {
	ID string
	To crypto.Address
}

func (SwapRefunded) EventType() string { return TypeSwapRefunded }

func (e SwapRefunded) Event() *types.Event {
	return &types.Event{
		Type: TypeSwapRefunded,
		Attributes: map[string]string{
			"action": "refund",
			"id":     e.ID,
			"to":     e.To.String(),
		},
	}
}

package events

import (
	"tokenvault/core/types"
	"tokenvault/crypto"
)

const (
	TypeEscrowCreated  = "escrow.created"
	TypeEscrowTopUp    = "escrow.topup"
	TypeEscrowApproved = "escrow.approved"
	TypeEscrowRefunded = "escrow.refunded"
)

// EscrowCreated is emitted when a new escrow is stored.
type EscrowCreated struct {
	ID string
}

func (EscrowCreated) EventType() string { return TypeEscrowCreated }

func (e EscrowCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeEscrowCreated,
		Attributes: map[string]string{
			"action": "create",
			"id":     e.ID,
		},
	}
}

// EscrowTopUp is emitted when additional funds are merged into a live escrow.
type EscrowTopUp struct {
	ID string
}

func (EscrowTopUp) EventType() string { return TypeEscrowTopUp }

func (e EscrowTopUp) Event() *types.Event {
	return &types.Event{
		Type: TypeEscrowTopUp,
		Attributes: map[string]string{
			"action": "top_up",
			"id":     e.ID,
		},
	}
}

// EscrowApproved is emitted when the arbiter releases funds to the recipient.
type EscrowApproved struct {
	ID string
	To crypto.Address
}

func (EscrowApproved) EventType() string { return TypeEscrowApproved }

func (e EscrowApproved) Event() *types.Event {
	return &types.Event{
		Type: TypeEscrowApproved,
		Attributes: map[string]string{
			"action": "approve",
			"id":     e.ID,
			"to":     e.To.String(),
		},
	}
}

// EscrowRefunded is emitted when funds are returned to the original source.
type EscrowRefunded struct {
	ID string
	To crypto.Address
}

func (EscrowRefunded) EventType() string { return TypeEscrowRefunded }

func (e EscrowRefunded) Event() *types.Event {
	return &types.Event{
		Type: TypeEscrowRefunded,
		Attributes: map[string]string{
			"action": "refund",
			"id":     e.ID,
			"to":     e.To.String(),
		},
	}
}

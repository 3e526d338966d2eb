package events

import (
	"math/big"
	"strconv"

	"tokenvault/core/types"
	"tokenvault/crypto"
)

const (
	TypeMemberBonded   = "member.bonded"
	TypeMemberUnbonded = "member.unbonded"
	TypeMemberClaimed  = "member.claimed"
)

// MemberBonded is emitted when stake is added to the membership ledger.
type MemberBonded struct {
	Sender crypto.Address
	Amount *big.Int
	Weight uint64
	Member bool
}

func (MemberBonded) EventType() string { return TypeMemberBonded }

func (e MemberBonded) Event() *types.Event {
	return &types.Event{
		Type: TypeMemberBonded,
		Attributes: map[string]string{
			"action": "bond",
			"sender": e.Sender.String(),
			"amount": formatAmount(e.Amount),
			"weight": strconv.FormatUint(e.Weight, 10),
			"member": strconv.FormatBool(e.Member),
		},
	}
}

// MemberUnbonded is emitted when stake is withdrawn into a pending claim.
type MemberUnbonded struct {
	Sender crypto.Address
	Amount *big.Int
}

func (MemberUnbonded) EventType() string { return TypeMemberUnbonded }

func (e MemberUnbonded) Event() *types.Event {
	return &types.Event{
		Type: TypeMemberUnbonded,
		Attributes: map[string]string{
			"action": "unbond",
			"sender": e.Sender.String(),
			"amount": formatAmount(e.Amount),
		},
	}
}

// MemberClaimed is emitted when matured unbonding claims are paid out.
type MemberClaimed struct {
	Sender crypto.Address
	Tokens string
}

func (MemberClaimed) EventType() string { return TypeMemberClaimed }

func (e MemberClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeMemberClaimed,
		Attributes: map[string]string{
			"action": "claim",
			"sender": e.Sender.String(),
			"tokens": e.Tokens,
		},
	}
}

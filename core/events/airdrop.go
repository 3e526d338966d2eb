package events

import (
	"math/big"
	"strconv"

	"tokenvault/core/types"
	"tokenvault/crypto"
)

const (
	TypeAirdropRootRegistered = "airdrop.root_registered"
	TypeAirdropClaimed        = "airdrop.claimed"
)

// AirdropRootRegistered is emitted when the owner publishes a new stage root.
type AirdropRootRegistered struct {
	Stage uint8
	Root  string
}

func (AirdropRootRegistered) EventType() string { return TypeAirdropRootRegistered }

func (e AirdropRootRegistered) Event() *types.Event {
	return &types.Event{
		Type: TypeAirdropRootRegistered,
		Attributes: map[string]string{
			"action":      "register_merkle_root",
			"stage":       strconv.FormatUint(uint64(e.Stage), 10),
			"merkle_root": e.Root,
		},
	}
}

// AirdropClaimed is emitted when a proof checks out and tokens are sent.
type AirdropClaimed struct {
	Stage   uint8
	Address crypto.Address
	Amount  *big.Int
}

func (AirdropClaimed) EventType() string { return TypeAirdropClaimed }

func (e AirdropClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeAirdropClaimed,
		Attributes: map[string]string{
			"action":  "claim",
			"stage":   strconv.FormatUint(uint64(e.Stage), 10),
			"address": e.Address.String(),
			"amount":  formatAmount(e.Amount),
		},
	}
}

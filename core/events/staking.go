package events

import (
	"math/big"

	"tokenvault/core/types"
	"tokenvault/crypto"
)

const (
	TypeStakeBonded   = "stake.bonded"
	TypeStakeUnbonded = "stake.unbonded"
	TypeStakeClaimed  = "stake.claimed"
	TypeStakeReinvest = "stake.reinvested"
)

// StakeBonded is emitted when a depositor bonds native tokens and receives
// derivative tokens in exchange.
type StakeBonded struct {
	From   crypto.Address
	Bonded *big.Int
	Minted *big.Int
}

func (StakeBonded) EventType() string { return TypeStakeBonded }

func (e StakeBonded) Event() *types.Event {
	return &types.Event{
		Type: TypeStakeBonded,
		Attributes: map[string]string{
			"action": "bond",
			"from":   e.From.String(),
			"bonded": formatAmount(e.Bonded),
			"minted": formatAmount(e.Minted),
		},
	}
}

// StakeUnbonded is emitted when derivative tokens are burned against a
// pending native withdrawal claim.
type StakeUnbonded struct {
	To       crypto.Address
	Unbonded *big.Int
	Burnt    *big.Int
}

func (StakeUnbonded) EventType() string { return TypeStakeUnbonded }

func (e StakeUnbonded) Event() *types.Event {
	return &types.Event{
		Type: TypeStakeUnbonded,
		Attributes: map[string]string{
			"action":   "unbond",
			"to":       e.To.String(),
			"unbonded": formatAmount(e.Unbonded),
			"burnt":    formatAmount(e.Burnt),
		},
	}
}

// StakeClaimed is emitted when matured claims are paid out.
type StakeClaimed struct {
	From   crypto.Address
	Amount *big.Int
}

func (StakeClaimed) EventType() string { return TypeStakeClaimed }

func (e StakeClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeStakeClaimed,
		Attributes: map[string]string{
			"action": "claim",
			"from":   e.From.String(),
			"amount": formatAmount(e.Amount),
		},
	}
}

// StakeReinvested is emitted by the self-addressed bond-all callback after
// free balance has been re-delegated.
type StakeReinvested struct {
	Bonded *big.Int
}

func (StakeReinvested) EventType() string { return TypeStakeReinvest }

func (e StakeReinvested) Event() *types.Event {
	return &types.Event{
		Type: TypeStakeReinvest,
		Attributes: map[string]string{
			"action": "reinvest",
			"bonded": formatAmount(e.Bonded),
		},
	}
}

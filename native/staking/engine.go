package staking

import (
	"fmt"
	"math/big"

	"tokenvault/core/events"
	"tokenvault/core/types"
	"tokenvault/crypto"
	"tokenvault/native/claims"
	"tokenvault/observability"
)

type engineState interface {
	SupplyGet() (*Supply, error)
	SupplyPut(*Supply) error
	TokenBalance(addr crypto.Address) (*big.Int, error)
	SetTokenBalance(addr crypto.Address, amount *big.Int) error
}

// Engine implements the bonding-derivative state machine. Depositors bond the
// native denom and receive derivative tokens priced at the current
// bonded/issued ratio; unbonding burns tokens and queues a time-gated claim.
type Engine struct {
	cfg     Config
	self    crypto.Address
	state   engineState
	claims  *claims.Ledger
	oracle  Oracle
	emitter events.Emitter
}

// NewEngine creates a staking engine for the contract at self. The configured
// validator must be present in the oracle's active set.
func NewEngine(cfg Config, self crypto.Address, state engineState, ledger *claims.Ledger, oracle Oracle) (*Engine, error) {
	validators, err := oracle.Validators()
	if err != nil {
		return nil, err
	}
	found := false
	for _, v := range validators {
		if v == cfg.Validator {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotInValidatorSet, cfg.Validator)
	}
	if cfg.MinWithdrawal == nil {
		cfg.MinWithdrawal = big.NewInt(0)
	}
	return &Engine{
		cfg:     cfg,
		self:    self,
		state:   state,
		claims:  ledger,
		oracle:  oracle,
		emitter: events.NoopEmitter{},
	}, nil
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

// bondedTotal sums the contract's live delegations. Every delegation must be
// denominated in the bond denom.
func (e *Engine) bondedTotal() (*big.Int, error) {
	delegations, err := e.oracle.Delegations(e.self)
	if err != nil {
		return nil, err
	}
	total := big.NewInt(0)
	for _, coin := range delegations {
		if coin.Denom != e.cfg.BondDenom {
			return nil, fmt.Errorf("%w: %s", ErrDifferentBondDenom, coin.Denom)
		}
		total.Add(total, types.CloneBigInt(coin.Amount))
	}
	return total, nil
}

// assertBonds cross-checks the stored bonded amount against the delegations
// the oracle reports. Any divergence aborts the transition.
func assertBonds(supply *Supply, bonded *big.Int) error {
	if supply.Bonded.Cmp(bonded) != 0 {
		return fmt.Errorf("%w: stored %s, delegated %s", ErrBondedMismatch, supply.Bonded, bonded)
	}
	return nil
}

// Bond accepts a payment in the bond denom, mints derivative tokens at the
// current rate (1:1 while either side of the ratio is zero) and delegates the
// payment to the configured validator.
func (e *Engine) Bond(block types.BlockInfo, sender crypto.Address, payment types.Coin) (msgs []types.Message, err error) {
	defer observability.ObserveOp("staking", "bond", &err)

	if payment.Denom != e.cfg.BondDenom || payment.IsZero() {
		return nil, fmt.Errorf("%w: expected %s", ErrEmptyBalance, e.cfg.BondDenom)
	}
	bonded, err := e.bondedTotal()
	if err != nil {
		return nil, err
	}
	supply, err := e.state.SupplyGet()
	if err != nil {
		return nil, err
	}
	if err := assertBonds(supply, bonded); err != nil {
		return nil, err
	}

	minted := types.CloneBigInt(payment.Amount)
	if supply.Issued.Sign() != 0 && bonded.Sign() != 0 {
		minted = new(big.Int).Mul(payment.Amount, supply.Issued)
		minted.Div(minted, bonded)
	}
	supply.Bonded = new(big.Int).Add(bonded, payment.Amount)
	supply.Issued = new(big.Int).Add(supply.Issued, minted)
	if err := e.state.SupplyPut(supply); err != nil {
		return nil, err
	}
	if err := e.mint(sender, minted); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.StakeBonded{From: sender, Bonded: types.CloneBigInt(payment.Amount), Minted: minted})
	return []types.Message{types.Delegate{Validator: e.cfg.Validator, Amount: payment.Clone()}}, nil
}

// Unbond burns amount derivative tokens, minting the exit tax back to the
// owner, undelegates the native value of the remainder and queues it as a
// claim maturing after the unbonding period.
func (e *Engine) Unbond(block types.BlockInfo, sender crypto.Address, amount *big.Int) (msgs []types.Message, err error) {
	defer observability.ObserveOp("staking", "unbond", &err)

	if amount == nil || amount.Sign() <= 0 || amount.Cmp(e.cfg.MinWithdrawal) < 0 {
		return nil, fmt.Errorf("%w: minimum %s", ErrUnbondTooSmall, e.cfg.MinWithdrawal)
	}
	tax := new(big.Int).SetUint64(e.cfg.ExitTaxBps)
	tax.Mul(tax, amount)
	tax.Div(tax, big.NewInt(taxDenominator))

	bonded, err := e.bondedTotal()
	if err != nil {
		return nil, err
	}
	supply, err := e.state.SupplyGet()
	if err != nil {
		return nil, err
	}
	if err := assertBonds(supply, bonded); err != nil {
		return nil, err
	}

	if err := e.burn(sender, amount); err != nil {
		return nil, err
	}
	if tax.Sign() > 0 {
		if err := e.mint(e.cfg.Owner, tax); err != nil {
			return nil, err
		}
	}

	// the remainder is redeemed at the current rate; the tax stays issued
	remainder := new(big.Int).Sub(amount, tax)
	unbonded := new(big.Int).Mul(remainder, bonded)
	unbonded.Div(unbonded, supply.Issued)

	supply.Bonded = new(big.Int).Sub(bonded, unbonded)
	supply.Issued = new(big.Int).Sub(supply.Issued, remainder)
	supply.Claims = new(big.Int).Add(supply.Claims, unbonded)
	if err := e.state.SupplyPut(supply); err != nil {
		return nil, err
	}
	if err := e.claims.Create(sender, unbonded, e.cfg.UnbondingPeriod.After(block)); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.StakeUnbonded{To: sender, Unbonded: unbonded, Burnt: types.CloneBigInt(amount)})
	return []types.Message{types.Undelegate{
		Validator: e.cfg.Validator,
		Amount:    types.NewCoin(e.cfg.BondDenom, unbonded),
	}}, nil
}

// Claim pays out the sender's matured claims, capped by the contract's liquid
// balance: settlement stops at the first whole claim the balance cannot
// cover.
func (e *Engine) Claim(block types.BlockInfo, sender crypto.Address) (msgs []types.Message, err error) {
	defer observability.ObserveOp("staking", "claim", &err)

	liquid, err := e.oracle.BankBalance(e.self, e.cfg.BondDenom)
	if err != nil {
		return nil, err
	}
	available := types.CloneBigInt(liquid.Amount)
	if available.Cmp(e.cfg.MinWithdrawal) < 0 {
		return nil, fmt.Errorf("%w: balance %s, minimum %s", ErrBalanceTooSmall, available, e.cfg.MinWithdrawal)
	}
	released, err := e.claims.Settle(sender, block, available)
	if err != nil {
		return nil, err
	}
	if released.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	supply, err := e.state.SupplyGet()
	if err != nil {
		return nil, err
	}
	supply.Claims = new(big.Int).Sub(supply.Claims, released)
	if err := e.state.SupplyPut(supply); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.StakeClaimed{From: sender, Amount: released})
	return []types.Message{types.BankSend{
		To:     sender,
		Amount: []types.Coin{types.NewCoin(e.cfg.BondDenom, released)},
	}}, nil
}

// Reinvest withdraws accrued rewards and immediately re-enters the contract
// through the self-addressed bond-all callback, so the freshly liquid rewards
// are delegated in the same transaction.
func (e *Engine) Reinvest(block types.BlockInfo) (msgs []types.Message, err error) {
	defer observability.ObserveOp("staking", "reinvest", &err)

	return []types.Message{
		types.WithdrawRewards{Validator: e.cfg.Validator},
		types.ExecContract{Contract: e.self, Payload: []byte(CallbackBondAll)},
	}, nil
}

// BondAllTokens delegates the contract's free balance, keeping the reserve
// backing pending claims untouched. Only the contract itself may call it.
// When the free balance cannot cover the claims reserve plus the withdrawal
// minimum this is a silent no-op, so a reinvest never fails on a lean
// balance.
func (e *Engine) BondAllTokens(block types.BlockInfo, sender crypto.Address) (msgs []types.Message, err error) {
	defer observability.ObserveOp("staking", "bond_all_tokens", &err)

	if sender != e.self {
		return nil, ErrUnauthorized
	}
	liquid, err := e.oracle.BankBalance(e.self, e.cfg.BondDenom)
	if err != nil {
		return nil, err
	}
	supply, err := e.state.SupplyGet()
	if err != nil {
		return nil, err
	}
	available := new(big.Int).Sub(types.CloneBigInt(liquid.Amount), supply.Claims)
	if available.Sign() <= 0 || available.Cmp(e.cfg.MinWithdrawal) < 0 {
		return nil, nil
	}
	supply.Bonded = new(big.Int).Add(supply.Bonded, available)
	if err := e.state.SupplyPut(supply); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.StakeReinvested{Bonded: available})
	return []types.Message{types.Delegate{
		Validator: e.cfg.Validator,
		Amount:    types.NewCoin(e.cfg.BondDenom, available),
	}}, nil
}

// Transfer moves derivative tokens between holders.
func (e *Engine) Transfer(sender, recipient crypto.Address, amount *big.Int) (err error) {
	defer observability.ObserveOp("staking", "transfer", &err)

	if amount == nil || amount.Sign() <= 0 {
		return ErrInsufficientTokens
	}
	if err := e.burn(sender, amount); err != nil {
		return err
	}
	return e.mint(recipient, amount)
}

// TokenBalance returns the holder's derivative token balance.
func (e *Engine) TokenBalance(addr crypto.Address) (*big.Int, error) {
	return e.state.TokenBalance(addr)
}

// Claims lists the holder's pending unbonding claims.
func (e *Engine) Claims(addr crypto.Address) ([]claims.Claim, error) {
	return e.claims.Get(addr)
}

// InvestmentInfo is a point-in-time snapshot of the derivative's terms and
// accounting, exposed for queries.
type InvestmentInfo struct {
	Owner         crypto.Address
	BondDenom     string
	ExitTaxBps    uint64
	Validator     string
	MinWithdrawal *big.Int
	TokenSupply   *big.Int
	StakedTokens  types.Coin
	// NominalValue is the native value of one derivative token, bonded over
	// issued, defaulting to 1 before anything is issued.
	NominalValue *big.Rat
}

// Investment reports the configuration and current exchange rate.
func (e *Engine) Investment() (*InvestmentInfo, error) {
	supply, err := e.state.SupplyGet()
	if err != nil {
		return nil, err
	}
	nominal := big.NewRat(1, 1)
	if supply.Issued.Sign() != 0 {
		nominal = new(big.Rat).SetFrac(supply.Bonded, supply.Issued)
	}
	return &InvestmentInfo{
		Owner:         e.cfg.Owner,
		BondDenom:     e.cfg.BondDenom,
		ExitTaxBps:    e.cfg.ExitTaxBps,
		Validator:     e.cfg.Validator,
		MinWithdrawal: types.CloneBigInt(e.cfg.MinWithdrawal),
		TokenSupply:   types.CloneBigInt(supply.Issued),
		StakedTokens:  types.NewCoin(e.cfg.BondDenom, supply.Bonded),
		NominalValue:  nominal,
	}, nil
}

func (e *Engine) mint(addr crypto.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	bal, err := e.state.TokenBalance(addr)
	if err != nil {
		return err
	}
	return e.state.SetTokenBalance(addr, bal.Add(bal, amount))
}

func (e *Engine) burn(addr crypto.Address, amount *big.Int) error {
	bal, err := e.state.TokenBalance(addr)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientTokens
	}
	return e.state.SetTokenBalance(addr, bal.Sub(bal, amount))
}

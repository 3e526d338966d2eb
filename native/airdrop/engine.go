package airdrop

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"tokenvault/core/events"
	"tokenvault/core/types"
	"tokenvault/crypto"
	"tokenvault/observability"
)

type engineState interface {
	ConfigGet() (Config, bool, error)
	ConfigPut(cfg Config) error
	LatestStage() (uint8, error)
	SetLatestStage(stage uint8) error
	RootGet(stage uint8) ([32]byte, bool, error)
	RootPut(stage uint8, root [32]byte) error
	IsClaimed(stage uint8, addr crypto.Address) (bool, error)
	SetClaimed(stage uint8, addr crypto.Address) error
}

// Engine implements a staged merkle-proof token distribution. Each stage
// carries one root; an account claims each stage at most once by proving its
// (address, amount) leaf against the stage root.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine creates an airdrop engine. The config is persisted on first use;
// afterwards the stored config wins, so ownership transfers survive restarts.
func NewEngine(cfg Config, state engineState) (*Engine, error) {
	if _, ok, err := state.ConfigGet(); err != nil {
		return nil, err
	} else if !ok {
		if err := state.ConfigPut(cfg); err != nil {
			return nil, err
		}
	}
	return &Engine{state: state, emitter: events.NoopEmitter{}}, nil
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

// RegisterMerkleRoot publishes the next stage. Owner only; the root is a
// 32-byte hex string.
func (e *Engine) RegisterMerkleRoot(sender crypto.Address, root string) (stage uint8, err error) {
	defer observability.ObserveOp("airdrop", "register_merkle_root", &err)

	cfg, _, err := e.state.ConfigGet()
	if err != nil {
		return 0, err
	}
	if sender != cfg.Owner {
		return 0, ErrUnauthorized
	}
	decoded, err := parseHex32(root, ErrInvalidRoot)
	if err != nil {
		return 0, err
	}
	latest, err := e.state.LatestStage()
	if err != nil {
		return 0, err
	}
	if latest == math.MaxUint8 {
		// incrementing would wrap to stage 0 and overwrite history
		return 0, ErrTooManyStages
	}
	stage = latest + 1
	if err := e.state.RootPut(stage, decoded); err != nil {
		return 0, err
	}
	if err := e.state.SetLatestStage(stage); err != nil {
		return 0, err
	}
	e.emitter.Emit(events.AirdropRootRegistered{Stage: stage, Root: root})
	return stage, nil
}

// Claim verifies the sender's entitlement proof against the stage root and
// pays it out through the distribution token. Each (stage, address) pair
// claims at most once.
func (e *Engine) Claim(sender crypto.Address, stage uint8, amount *big.Int, proof []string) (msgs []types.Message, err error) {
	defer observability.ObserveOp("airdrop", "claim", &err)

	cfg, _, err := e.state.ConfigGet()
	if err != nil {
		return nil, err
	}
	root, ok, err := e.state.RootGet(stage)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStageNotFound
	}
	claimed, err := e.state.IsClaimed(stage, sender)
	if err != nil {
		return nil, err
	}
	if claimed {
		return nil, ErrAlreadyClaimed
	}

	// leaf commits to the bech32 address and the decimal amount
	hash := ethcrypto.Keccak256([]byte(sender.String() + types.CloneBigInt(amount).String()))
	for _, node := range proof {
		sibling, err := parseHex32(node, ErrInvalidProof)
		if err != nil {
			return nil, err
		}
		if bytes.Compare(hash, sibling[:]) <= 0 {
			hash = ethcrypto.Keccak256(hash, sibling[:])
		} else {
			hash = ethcrypto.Keccak256(sibling[:], hash)
		}
	}
	if !bytes.Equal(hash, root[:]) {
		return nil, ErrVerificationFailed
	}

	if err := e.state.SetClaimed(stage, sender); err != nil {
		return nil, err
	}
	paid := types.CloneBigInt(amount)
	e.emitter.Emit(events.AirdropClaimed{Stage: stage, Address: sender, Amount: paid})
	return []types.Message{types.TokenTransfer{
		Token:  cfg.TokenAddress,
		To:     sender,
		Amount: paid,
	}}, nil
}

// UpdateConfig hands the distribution to a new owner. Owner only.
func (e *Engine) UpdateConfig(sender, newOwner crypto.Address) (err error) {
	defer observability.ObserveOp("airdrop", "update_config", &err)

	cfg, _, err := e.state.ConfigGet()
	if err != nil {
		return err
	}
	if sender != cfg.Owner {
		return ErrUnauthorized
	}
	cfg.Owner = newOwner
	return e.state.ConfigPut(cfg)
}

// Config returns the stored distribution config.
func (e *Engine) Config() (Config, error) {
	cfg, _, err := e.state.ConfigGet()
	return cfg, err
}

// MerkleRoot returns the root registered for a stage, hex-encoded.
func (e *Engine) MerkleRoot(stage uint8) (string, error) {
	root, ok, err := e.state.RootGet(stage)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrStageNotFound
	}
	return hex.EncodeToString(root[:]), nil
}

// LatestStage returns the most recently registered stage, zero before the
// first registration.
func (e *Engine) LatestStage() (uint8, error) {
	return e.state.LatestStage()
}

// IsClaimed reports whether the address has already claimed the stage.
func (e *Engine) IsClaimed(stage uint8, addr crypto.Address) (bool, error) {
	return e.state.IsClaimed(stage, addr)
}

func parseHex32(s string, invalid error) ([32]byte, error) {
	var out [32]byte
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("%w: %v", invalid, err)
	}
	if len(decoded) != len(out) {
		return out, fmt.Errorf("%w: got %d bytes", invalid, len(decoded))
	}
	copy(out[:], decoded)
	return out, nil
}

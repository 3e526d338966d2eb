package swap

import (
	"encoding/hex"
	"errors"
	"fmt"

	"tokenvault/core/types"
	"tokenvault/crypto"
	"tokenvault/native/balance"
	"tokenvault/native/common"
)

var (
	ErrInvalidID         = errors.New("swap: invalid swap id")
	ErrEmptyBalance      = errors.New("swap: send some funds to create an atomic swap")
	ErrAlreadyExists     = errors.New("swap: atomic swap already exists")
	ErrNotFound          = errors.New("swap: atomic swap not found")
	ErrExpired           = errors.New("swap: expired atomic swap")
	ErrNotExpired        = errors.New("swap: atomic swap not yet expired")
	ErrInvalidPreimage   = errors.New("swap: invalid preimage")
	ErrParseHash         = errors.New("swap: hash parse error")
	ErrInvalidHashLength = errors.New("swap: hash must be 64 hex characters")
)

// Swap is a hash-locked, time-bound transfer agreement. Terminal states are
// represented by record absence: Release and Refund delete the record, so a
// repeat call observes NotFound.
type Swap struct {
	// Hash is the sha-256 digest of the release preimage.
	Hash      [32]byte
	Source    crypto.Address
	Recipient crypto.Address
	Expires   common.Expiration
	Funds     balance.Funds
}

// Clone returns a deep copy of the swap.
func (s *Swap) Clone() *Swap {
	if s == nil {
		return nil
	}
	out := *s
	out.Funds = s.Funds.Clone()
	return &out
}

// IsExpired reports whether the swap's expiration has passed.
func (s *Swap) IsExpired(block types.BlockInfo) bool {
	return s.Expires.IsExpired(block)
}

// CreateMsg carries the caller-supplied parameters of a new swap.
type CreateMsg struct {
	ID string
	// Hash is the hex-encoded sha-256 digest of the preimage (64 chars).
	Hash      string
	Recipient crypto.Address
	Expires   common.Expiration
}

// ValidateID enforces the caller-chosen id format: 3 to 64 bytes.
func ValidateID(id string) error {
	if len(id) < 3 || len(id) > 64 {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// ParseHex32 decodes a 64-character hex string into a 32-byte digest.
func ParseHex32(data string) ([32]byte, error) {
	var out [32]byte
	decoded, err := hex.DecodeString(data)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrParseHash, err)
	}
	if len(decoded) != 32 {
		return out, fmt.Errorf("%w: got %d", ErrInvalidHashLength, len(decoded)*2)
	}
	copy(out[:], decoded)
	return out, nil
}

package airdrop

import (
	"errors"

	"tokenvault/crypto"
)

var (
	ErrUnauthorized       = errors.New("airdrop: unauthorized")
	ErrInvalidRoot        = errors.New("airdrop: merkle root must be 32 hex-encoded bytes")
	ErrInvalidProof       = errors.New("airdrop: proof node must be 32 hex-encoded bytes")
	ErrStageNotFound      = errors.New("airdrop: stage not registered")
	ErrTooManyStages      = errors.New("airdrop: stage limit reached")
	ErrAlreadyClaimed     = errors.New("airdrop: already claimed")
	ErrVerificationFailed = errors.New("airdrop: merkle verification failed")
)

// Config identifies the distribution: the owner who publishes stage roots and
// the token contract paying the claims.
type Config struct {
	Owner        crypto.Address
	TokenAddress crypto.Address
}

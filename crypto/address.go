package crypto

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
)

// AddressPrefix is the human-readable part used when rendering addresses.
type AddressPrefix = string

// VaultPrefix is the bech32 prefix shared by every account in the suite.
const VaultPrefix AddressPrefix = "vault"

// AddressLength is the raw byte length of every canonical address.
const AddressLength = 20

// Address is a 20-byte canonical account identifier. The zero value is never
// a valid account and is used as an "unset" marker throughout the engines.
type Address [AddressLength]byte

// NewAddress copies b into a canonical address.
func NewAddress(b []byte) (Address, error) {
	if len(b) != AddressLength {
		return Address{}, fmt.Errorf("address must be %d bytes long, got %d", AddressLength, len(b))
	}
	var addr Address
	copy(addr[:], b)
	return addr, nil
}

// Bytes returns the raw address bytes.
func (a Address) Bytes() []byte { return a[:] }

// IsZero reports whether the address is the unset marker.
func (a Address) IsZero() bool { return a == Address{} }

// String renders the address with the suite-wide bech32 prefix.
func (a Address) String() string {
	conv, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(VaultPrefix, conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// Hex renders the address as lowercase hex without a prefix. Used by storage
// keys that need a fixed-width printable form.
func (a Address) Hex() string { return hex.EncodeToString(a[:]) }

// DecodeAddress parses a bech32 address string and verifies the prefix.
func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	if prefix != VaultPrefix {
		return Address{}, fmt.Errorf("unexpected address prefix %q", prefix)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	return NewAddress(conv)
}

// CompareAddresses orders addresses by raw byte value. Listing operations use
// this to produce deterministic ascending output.
func CompareAddresses(a, b Address) int { return bytes.Compare(a[:], b[:]) }

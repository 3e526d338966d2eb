package crypto

import (
	"strings"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	raw := make([]byte, AddressLength)
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	addr, err := NewAddress(raw)
	if err != nil {
		t.Fatalf("new address: %v", err)
	}

	encoded := addr.String()
	if !strings.HasPrefix(encoded, VaultPrefix+"1") {
		t.Fatalf("unexpected encoding %q", encoded)
	}
	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != addr {
		t.Fatalf("round trip mismatch: %x != %x", decoded, addr)
	}
}

func TestNewAddressRejectsWrongLength(t *testing.T) {
	if _, err := NewAddress(make([]byte, 19)); err == nil {
		t.Fatal("expected error for short input")
	}
}

func TestDecodeAddressRejectsForeignPrefix(t *testing.T) {
	if _, err := DecodeAddress("cosmos1qqqsyqcyq5rqwzqfpg9scrgwpugpzysnrujsuw"); err == nil {
		t.Fatal("expected error for foreign prefix")
	}
}

func TestCompareAddresses(t *testing.T) {
	var a, b Address
	b[0] = 1
	if CompareAddresses(a, b) >= 0 || CompareAddresses(b, a) <= 0 || CompareAddresses(a, a) != 0 {
		t.Fatal("ordering broken")
	}
}

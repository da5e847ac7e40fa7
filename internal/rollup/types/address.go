// Package types holds the wire-level data model shared by every rollup
// runtime component: addresses, 256-bit integers, inputs, deposits, outputs.
package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// AddressLength is the byte width of an Address, matching the EVM's 20-byte
// account identifier.
const AddressLength = 20

// Address is a 20-byte account or contract identifier. The zero value is the
// distinguished zero address.
type Address [AddressLength]byte

// ZeroAddress is the distinguished zero value.
var ZeroAddress = Address{}

// NewAddress builds an Address from a byte slice, which must be exactly
// AddressLength bytes long.
func NewAddress(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLength {
		return a, fmt.Errorf("types: address must be %d bytes, got %d", AddressLength, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// ParseAddress parses a `0x`-prefixed hex string into an Address. The prefix
// is optional on input; the string may be of any case.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("types: invalid address hex %q: %w", s, err)
	}
	return NewAddress(b)
}

// MustParseAddress parses s and panics on error. Intended for package-level
// literals (default address books, test fixtures), never for request data.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Bytes returns a copy of the address's underlying bytes.
func (a Address) Bytes() []byte {
	out := make([]byte, AddressLength)
	copy(out, a[:])
	return out
}

// String renders the address as a lowercase, `0x`-prefixed hex string.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether a is the distinguished zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Compare returns -1, 0, or 1 per lexicographic byte ordering, establishing a
// total order over addresses (used to keep wallet Addresses() output sorted).
func (a Address) Compare(other Address) int {
	return bytes.Compare(a[:], other[:])
}

// MarshalJSON renders the address as a lowercase hex JSON string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON parses a lowercase or uppercase hex JSON string into a.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

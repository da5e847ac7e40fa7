package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

// Uint256Bytes is the big-endian serialized width of a Uint256.
const Uint256Bytes = 32

// ErrUint256Overflow is returned by CheckedAdd when the result would not fit
// in 256 bits.
var ErrUint256Overflow = errors.New("types: uint256 overflow")

// ErrUint256Underflow is returned by CheckedSub when the subtrahend exceeds
// the minuend.
var ErrUint256Underflow = errors.New("types: uint256 underflow")

var uint256Max = func() *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), 256)
	return max.Sub(max, big.NewInt(1))
}()

// Uint256 is an unsigned 256-bit integer. The zero value is a valid
// representation of zero. Uint256 values are treated as immutable; every
// operation returns a new value.
type Uint256 struct {
	v *big.Int
}

// ZeroUint256 is the zero value, provided for readability at call sites.
func ZeroUint256() Uint256 {
	return Uint256{v: new(big.Int)}
}

// NewUint256FromUint64 builds a Uint256 from a uint64.
func NewUint256FromUint64(v uint64) Uint256 {
	return Uint256{v: new(big.Int).SetUint64(v)}
}

// NewUint256FromBigInt builds a Uint256 from a *big.Int, which must be
// non-negative and fit in 256 bits.
func NewUint256FromBigInt(v *big.Int) (Uint256, error) {
	if v.Sign() < 0 {
		return Uint256{}, fmt.Errorf("types: uint256 cannot be negative: %s", v.String())
	}
	if v.Cmp(uint256Max) > 0 {
		return Uint256{}, ErrUint256Overflow
	}
	return Uint256{v: new(big.Int).Set(v)}, nil
}

// Uint256FromBytes32 decodes a big-endian 32-byte representation.
func Uint256FromBytes32(b []byte) (Uint256, error) {
	if len(b) != Uint256Bytes {
		return Uint256{}, fmt.Errorf("types: uint256 must be %d bytes, got %d", Uint256Bytes, len(b))
	}
	return Uint256{v: new(big.Int).SetBytes(b)}, nil
}

func (u Uint256) big() *big.Int {
	if u.v == nil {
		return new(big.Int)
	}
	return u.v
}

// Bytes32 serializes u as a big-endian 32-byte array, zero-padded on the
// left.
func (u Uint256) Bytes32() [Uint256Bytes]byte {
	var out [Uint256Bytes]byte
	u.big().FillBytes(out[:])
	return out
}

// String renders u in decimal.
func (u Uint256) String() string {
	return u.big().String()
}

// IsZero reports whether u is zero.
func (u Uint256) IsZero() bool {
	return u.big().Sign() == 0
}

// Cmp returns -1, 0, or 1 comparing u to other.
func (u Uint256) Cmp(other Uint256) int {
	return u.big().Cmp(other.big())
}

// CheckedAdd returns u+other, failing with ErrUint256Overflow if the sum
// would exceed the 256-bit range.
func (u Uint256) CheckedAdd(other Uint256) (Uint256, error) {
	sum := new(big.Int).Add(u.big(), other.big())
	if sum.Cmp(uint256Max) > 0 {
		return Uint256{}, ErrUint256Overflow
	}
	return Uint256{v: sum}, nil
}

// CheckedSub returns u-other, failing with ErrUint256Underflow if other
// exceeds u.
func (u Uint256) CheckedSub(other Uint256) (Uint256, error) {
	if u.big().Cmp(other.big()) < 0 {
		return Uint256{}, ErrUint256Underflow
	}
	return Uint256{v: new(big.Int).Sub(u.big(), other.big())}, nil
}

// BigInt returns a defensive copy of the underlying *big.Int, for interop
// with go-ethereum's abi package which speaks *big.Int natively.
func (u Uint256) BigInt() *big.Int {
	return new(big.Int).Set(u.big())
}

// MarshalJSON renders u as a decimal JSON string (not a JSON number, to
// avoid float64 truncation of values beyond 2^53).
func (u Uint256) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON parses a decimal JSON string into u.
func (u *Uint256) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("types: invalid uint256 decimal %q", s)
	}
	parsed, err := NewUint256FromBigInt(v)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

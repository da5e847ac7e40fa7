package abi

import "github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"

// Token is a decoded schema element value. Exactly one of the typed fields
// is meaningful, selected by Kind.
type Token struct {
	Kind Kind

	Address types.Address
	Uint    types.Uint256
	Bool    bool
	Bytes   []byte
	Str     string
	Array   []Token
}

// AddressToken, UintToken, and BoolToken build Token values of the
// corresponding primitive kind.
func AddressToken(a types.Address) Token   { return Token{Kind: KindAddress, Address: a} }
func UintToken(u types.Uint256) Token      { return Token{Kind: KindUint, Uint: u} }
func BoolToken(b bool) Token               { return Token{Kind: KindBool, Bool: b} }
func BytesToken(b []byte) Token            { return Token{Kind: KindBytes, Bytes: b} }
func ArrayToken(elems []Token) Token       { return Token{Kind: KindArray, Array: elems} }

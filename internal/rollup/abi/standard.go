package abi

import (
	"fmt"
	"math/big"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
)

// DecodeABI decodes data as standard (length-prefixed) Ethereum ABI
// encoding according to schema, using go-ethereum's accounts/abi package.
// It is used for the dynamic-array tail of batch ERC-1155 deposits, where
// the packed prefix is immediately followed by two standard-ABI-encoded
// uint256[] arrays.
func DecodeABI(schema Schema, data []byte) ([]Token, error) {
	args, err := toArguments(schema)
	if err != nil {
		return nil, fmt.Errorf("abi: build arguments: %w", err)
	}
	values, err := args.UnpackValues(data)
	if err != nil {
		return nil, fmt.Errorf("abi: unpack: %w", err)
	}
	tokens := make([]Token, len(values))
	for i, v := range values {
		tok, err := fromEthValue(schema[i], v)
		if err != nil {
			return nil, fmt.Errorf("abi: convert value %d: %w", i, err)
		}
		tokens[i] = tok
	}
	return tokens, nil
}

// EncodeABI is the standard-ABI inverse of DecodeABI.
func EncodeABI(schema Schema, tokens []Token) ([]byte, error) {
	args, err := toArguments(schema)
	if err != nil {
		return nil, fmt.Errorf("abi: build arguments: %w", err)
	}
	values := make([]interface{}, len(tokens))
	for i, tok := range tokens {
		values[i] = toEthValue(tok)
	}
	return args.Pack(values...)
}

// DecodeABIPrefix decodes the standard-ABI encoding of schema from the start
// of data, tolerating (and reporting) trailing bytes belonging to whatever
// comes after — go-ethereum's Unpack only reports decoded values, not the
// number of bytes consumed, so this re-encodes the decoded tokens to
// recover the consumed length. Valid for canonically-encoded input, which
// is the only kind this codec ever needs to round-trip.
func DecodeABIPrefix(schema Schema, data []byte) ([]Token, int, error) {
	tokens, err := DecodeABI(schema, data)
	if err != nil {
		return nil, 0, err
	}
	reencoded, err := EncodeABI(schema, tokens)
	if err != nil {
		return nil, 0, fmt.Errorf("abi: re-encode to recover consumed length: %w", err)
	}
	if len(reencoded) > len(data) {
		return nil, 0, fmt.Errorf("abi: decoded prefix longer than input")
	}
	return tokens, len(reencoded), nil
}

func toArguments(schema Schema) (ethabi.Arguments, error) {
	args := make(ethabi.Arguments, 0, len(schema))
	for _, elem := range schema {
		t, err := toEthType(elem)
		if err != nil {
			return nil, err
		}
		args = append(args, ethabi.Argument{Type: t})
	}
	return args, nil
}

func toEthType(e Elem) (ethabi.Type, error) {
	switch e.Kind {
	case KindAddress:
		return ethabi.NewType("address", "", nil)
	case KindUint:
		return ethabi.NewType(fmt.Sprintf("uint%d", e.Bits), "", nil)
	case KindBool:
		return ethabi.NewType("bool", "", nil)
	case KindBytes:
		return ethabi.NewType("bytes", "", nil)
	case KindString:
		return ethabi.NewType("string", "", nil)
	case KindArray:
		if e.Elem == nil {
			return ethabi.Type{}, fmt.Errorf("abi: array element missing child schema")
		}
		switch e.Elem.Kind {
		case KindUint:
			return ethabi.NewType(fmt.Sprintf("uint%d[]", e.Elem.Bits), "", nil)
		case KindAddress:
			return ethabi.NewType("address[]", "", nil)
		default:
			return ethabi.Type{}, fmt.Errorf("abi: unsupported array element kind %d", e.Elem.Kind)
		}
	default:
		return ethabi.Type{}, fmt.Errorf("abi: kind %d has no standard ABI equivalent", e.Kind)
	}
}

func fromEthValue(schema Elem, v interface{}) (Token, error) {
	switch schema.Kind {
	case KindAddress:
		addr, ok := v.(common.Address)
		if !ok {
			return Token{}, fmt.Errorf("abi: expected common.Address, got %T", v)
		}
		a, err := types.NewAddress(addr.Bytes())
		if err != nil {
			return Token{}, err
		}
		return AddressToken(a), nil
	case KindUint:
		bi, ok := v.(*big.Int)
		if !ok {
			return Token{}, fmt.Errorf("abi: expected *big.Int, got %T", v)
		}
		u, err := types.NewUint256FromBigInt(bi)
		if err != nil {
			return Token{}, err
		}
		return UintToken(u), nil
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return Token{}, fmt.Errorf("abi: expected bool, got %T", v)
		}
		return BoolToken(b), nil
	case KindBytes:
		b, ok := v.([]byte)
		if !ok {
			return Token{}, fmt.Errorf("abi: expected []byte, got %T", v)
		}
		return BytesToken(b), nil
	case KindArray:
		if schema.Elem == nil {
			return Token{}, fmt.Errorf("abi: array missing child schema")
		}
		switch schema.Elem.Kind {
		case KindUint:
			ints, ok := v.([]*big.Int)
			if !ok {
				return Token{}, fmt.Errorf("abi: expected []*big.Int, got %T", v)
			}
			elems := make([]Token, len(ints))
			for i, bi := range ints {
				u, err := types.NewUint256FromBigInt(bi)
				if err != nil {
					return Token{}, err
				}
				elems[i] = UintToken(u)
			}
			return ArrayToken(elems), nil
		default:
			return Token{}, fmt.Errorf("abi: unsupported array element kind %d", schema.Elem.Kind)
		}
	default:
		return Token{}, fmt.Errorf("abi: kind %d has no standard ABI equivalent", schema.Kind)
	}
}

func toEthValue(tok Token) interface{} {
	switch tok.Kind {
	case KindAddress:
		return common.BytesToAddress(tok.Address.Bytes())
	case KindUint:
		return tok.Uint.BigInt()
	case KindBool:
		return tok.Bool
	case KindBytes:
		return tok.Bytes
	case KindArray:
		if len(tok.Array) == 0 {
			return []*big.Int{}
		}
		ints := make([]*big.Int, len(tok.Array))
		for i, child := range tok.Array {
			ints[i] = child.Uint.BigInt()
		}
		return ints
	default:
		return nil
	}
}

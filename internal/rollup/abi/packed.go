package abi

import (
	"fmt"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
)

// DecodePacked decodes the fixed-width prefix of data according to schema,
// returning the decoded tokens and whatever bytes trailed the prefix. It
// fails if data is shorter than schema requires at any step. Dynamic
// elements (Bytes, String, Array) are not supported in packed schemas — the
// portal deposit prefixes this codec decodes are entirely fixed-width; any
// trailing dynamic content is left in the "remaining" return value for the
// caller (the standard ABI decoder, or the user's Advance handler) to deal
// with directly.
func DecodePacked(schema Schema, data []byte) ([]Token, []byte, error) {
	tokens := make([]Token, 0, len(schema))
	offset := 0
	for _, elem := range schema {
		tok, n, err := decodePackedElem(elem, data[offset:])
		if err != nil {
			return nil, nil, fmt.Errorf("abi: decode packed element %d: %w", len(tokens), err)
		}
		tokens = append(tokens, tok)
		offset += n
	}
	return tokens, data[offset:], nil
}

func decodePackedElem(e Elem, data []byte) (Token, int, error) {
	switch e.Kind {
	case KindAddress:
		if len(data) < 20 {
			return Token{}, 0, fmt.Errorf("abi: short input for address: need 20 bytes, have %d", len(data))
		}
		a, err := types.NewAddress(data[:20])
		if err != nil {
			return Token{}, 0, err
		}
		return AddressToken(a), 20, nil

	case KindUint:
		width := e.Bits / 8
		if width != 32 {
			return Token{}, 0, fmt.Errorf("abi: packed uint widths other than 256 bits are not supported, got %d bits", e.Bits)
		}
		if len(data) < width {
			return Token{}, 0, fmt.Errorf("abi: short input for uint%d: need %d bytes, have %d", e.Bits, width, len(data))
		}
		u, err := types.Uint256FromBytes32(data[:width])
		if err != nil {
			return Token{}, 0, err
		}
		return UintToken(u), width, nil

	case KindBool:
		if len(data) < 1 {
			return Token{}, 0, fmt.Errorf("abi: short input for bool: need 1 byte, have 0")
		}
		return BoolToken(data[0] != 0), 1, nil

	case KindFixedBytes:
		if len(data) < e.Width {
			return Token{}, 0, fmt.Errorf("abi: short input for bytes%d: need %d bytes, have %d", e.Width, e.Width, len(data))
		}
		b := make([]byte, e.Width)
		copy(b, data[:e.Width])
		return BytesToken(b), e.Width, nil

	case KindFixedArray:
		if e.Elem == nil {
			return Token{}, 0, fmt.Errorf("abi: fixed array missing child schema")
		}
		elems := make([]Token, 0, e.Width)
		offset := 0
		for i := 0; i < e.Width; i++ {
			tok, n, err := decodePackedElem(*e.Elem, data[offset:])
			if err != nil {
				return Token{}, 0, fmt.Errorf("element %d: %w", i, err)
			}
			elems = append(elems, tok)
			offset += n
		}
		return ArrayToken(elems), offset, nil

	case KindTuple:
		elems := make([]Token, 0, len(e.Tuple))
		offset := 0
		for i, field := range e.Tuple {
			tok, n, err := decodePackedElem(field, data[offset:])
			if err != nil {
				return Token{}, 0, fmt.Errorf("tuple field %d: %w", i, err)
			}
			elems = append(elems, tok)
			offset += n
		}
		return Token{Kind: KindTuple, Array: elems}, offset, nil

	default:
		return Token{}, 0, fmt.Errorf("abi: kind %d is not packable (dynamic kinds must be decoded with DecodeABI)", e.Kind)
	}
}

// EncodePacked is the inverse of DecodePacked: it concatenates the
// fixed-width encoding of each token with no length prefixes.
func EncodePacked(tokens []Token) ([]byte, error) {
	out := make([]byte, 0, len(tokens)*32)
	for i, tok := range tokens {
		b, err := encodePackedToken(tok)
		if err != nil {
			return nil, fmt.Errorf("abi: encode packed token %d: %w", i, err)
		}
		out = append(out, b...)
	}
	return out, nil
}

func encodePackedToken(tok Token) ([]byte, error) {
	switch tok.Kind {
	case KindAddress:
		return tok.Address.Bytes(), nil
	case KindUint:
		b := tok.Uint.Bytes32()
		return b[:], nil
	case KindBool:
		if tok.Bool {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case KindFixedBytes:
		return tok.Bytes, nil
	case KindTuple, KindFixedArray:
		out := make([]byte, 0, len(tok.Array)*32)
		for _, child := range tok.Array {
			b, err := encodePackedToken(child)
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("abi: kind %d is not packable", tok.Kind)
	}
}

// SizeOfPackedTokens returns the total encoded byte width of tokens under
// packed encoding. Used by portal deposit decoders to locate the start of
// the trailing user payload after the fixed portal prefix.
func SizeOfPackedTokens(tokens []Token) int {
	total := 0
	for _, tok := range tokens {
		b, err := encodePackedToken(tok)
		if err != nil {
			continue
		}
		total += len(b)
	}
	return total
}

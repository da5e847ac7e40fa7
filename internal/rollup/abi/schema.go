// Package abi implements the two encoding disciplines portal payloads and
// withdrawal vouchers are built from: a hand-rolled packed codec (no
// length prefixes, fixed-width fields) for portal deposit prefixes, and
// standard Ethereum ABI encoding (via go-ethereum) for dynamic arrays and
// function-call emission.
package abi

import "fmt"

// Kind enumerates the primitive and composite schema element kinds the
// packed codec understands.
type Kind int

const (
	KindAddress Kind = iota
	KindUint
	KindBool
	KindFixedBytes
	KindBytes
	KindString
	KindArray
	KindFixedArray
	KindTuple
)

// Elem describes one schema element: a primitive kind plus whatever
// parameters that kind requires (bit width for Uint, byte width for
// FixedBytes, element schema for Array/FixedArray, field list for Tuple).
type Elem struct {
	Kind  Kind
	Bits  int    // KindUint
	Width int    // KindFixedBytes, KindFixedArray
	Elem  *Elem  // KindArray, KindFixedArray
	Tuple []Elem // KindTuple
}

// Schema is an ordered list of schema elements describing a packed or ABI
// value sequence.
type Schema []Elem

func addressElem() Elem        { return Elem{Kind: KindAddress} }
func uintElem(bits int) Elem   { return Elem{Kind: KindUint, Bits: bits} }
func boolElem() Elem           { return Elem{Kind: KindBool} }
func arrayElem(of Elem) Elem   { return Elem{Kind: KindArray, Elem: &of} }

// AddressElem and BoolElem are exported schema-building helpers used
// by the portal decoders to describe their packed prefixes.
var (
	AddressElem = addressElem()
	BoolElem    = boolElem()
)

// UintElem builds a Uint schema element of the given bit width. Portal
// payloads only ever use 256-bit integers, but the codec models the general
// schema shape described by the specification.
func UintElem(bits int) Elem { return uintElem(bits) }

// ArrayElem builds a dynamic-array schema element over the given element
// schema.
func ArrayElem(of Elem) Elem { return arrayElem(of) }

// byteWidth returns the fixed encoded width of a packed schema element, or
// an error if the element is not fixed-width (Bytes, String, and Array are
// dynamic and have no fixed packed width).
func (e Elem) byteWidth() (int, error) {
	switch e.Kind {
	case KindAddress:
		return 20, nil
	case KindUint:
		return 32, nil
	case KindBool:
		return 1, nil
	case KindFixedBytes:
		return e.Width, nil
	case KindFixedArray:
		if e.Elem == nil {
			return 0, fmt.Errorf("abi: fixed array element missing child schema")
		}
		w, err := e.Elem.byteWidth()
		if err != nil {
			return 0, err
		}
		return w * e.Width, nil
	case KindTuple:
		total := 0
		for _, field := range e.Tuple {
			w, err := field.byteWidth()
			if err != nil {
				return 0, err
			}
			total += w
		}
		return total, nil
	default:
		return 0, fmt.Errorf("abi: kind %d has no fixed packed width", e.Kind)
	}
}

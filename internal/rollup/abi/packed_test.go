package abi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/abi"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
)

func TestEncodeDecodePackedRoundTrip(t *testing.T) {
	schema := abi.Schema{abi.AddressElem, abi.UintElem(256)}
	holder := types.MustParseAddress("0x237f8dd094c0e47f4236f12b4fa01d6dae89fb87")
	amount := types.NewUint256FromUint64(6_000_000_000_000_000_000)

	tokens := []abi.Token{abi.AddressToken(holder), abi.UintToken(amount)}
	encoded, err := abi.EncodePacked(tokens)
	require.NoError(t, err)
	assert.Len(t, encoded, 20+32)

	decoded, rest, err := abi.DecodePacked(schema, encoded)
	require.NoError(t, err)
	assert.Empty(t, rest)
	require.Len(t, decoded, 2)
	assert.Equal(t, holder, decoded[0].Address)
	assert.Zero(t, amount.Cmp(decoded[1].Uint))
}

func TestDecodePackedLeavesTrailingPayload(t *testing.T) {
	schema := abi.Schema{abi.AddressElem, abi.UintElem(256)}
	holder := types.ZeroAddress
	amount := types.NewUint256FromUint64(1)
	prefix, err := abi.EncodePacked([]abi.Token{abi.AddressToken(holder), abi.UintToken(amount)})
	require.NoError(t, err)

	userPayload := []byte("trailing user bytes")
	_, rest, err := abi.DecodePacked(schema, append(prefix, userPayload...))
	require.NoError(t, err)
	assert.Equal(t, userPayload, rest)
}

func TestDecodePackedFailsOnShortInput(t *testing.T) {
	schema := abi.Schema{abi.AddressElem, abi.UintElem(256)}
	_, _, err := abi.DecodePacked(schema, []byte{1, 2, 3})
	assert.Error(t, err)
}

func TestEncodeDecodePackedBool(t *testing.T) {
	schema := abi.Schema{abi.BoolElem}
	encoded, err := abi.EncodePacked([]abi.Token{abi.BoolToken(true)})
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, encoded)

	decoded, _, err := abi.DecodePacked(schema, encoded)
	require.NoError(t, err)
	assert.True(t, decoded[0].Bool)
}

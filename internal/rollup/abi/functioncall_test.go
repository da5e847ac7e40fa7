package abi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/abi"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
)

func TestEncodeEtherWithdrawSelector(t *testing.T) {
	to := types.MustParseAddress("0x237f8dd094c0e47f4236f12b4fa01d6dae89fb87")
	amount := types.NewUint256FromUint64(6_000_000_000_000_000_000)

	payload, err := abi.EncodeEtherWithdraw(to, amount)
	require.NoError(t, err)
	require.Len(t, payload, 4+32+32)

	schema := abi.Schema{abi.AddressElem, abi.UintElem(256)}
	tokens, consumed, err := abi.DecodeABIPrefix(schema, payload[4:])
	require.NoError(t, err)
	assert.Equal(t, len(payload)-4, consumed)
	assert.Equal(t, to, tokens[0].Address)
	assert.Zero(t, amount.Cmp(tokens[1].Uint))
}

func TestEncodeERC1155SafeBatchTransferFromRoundTrip(t *testing.T) {
	from := types.MustParseAddress("0x1111111111111111111111111111111111111111")
	to := types.MustParseAddress("0x2222222222222222222222222222222222222222")
	ids := []types.Uint256{types.NewUint256FromUint64(1), types.NewUint256FromUint64(2)}
	amounts := []types.Uint256{types.NewUint256FromUint64(10), types.NewUint256FromUint64(20)}

	payload, err := abi.EncodeERC1155SafeBatchTransferFrom(from, to, ids, amounts)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(payload), 4)

	schema := abi.Schema{
		abi.AddressElem,
		abi.AddressElem,
		abi.ArrayElem(abi.UintElem(256)),
		abi.ArrayElem(abi.UintElem(256)),
		{Kind: abi.KindBytes},
	}
	tokens, err := abi.DecodeABI(schema, payload[4:])
	require.NoError(t, err)
	require.Len(t, tokens, 5)
	assert.Equal(t, from, tokens[0].Address)
	assert.Equal(t, to, tokens[1].Address)
	require.Len(t, tokens[2].Array, 2)
	assert.Zero(t, ids[0].Cmp(tokens[2].Array[0].Uint))
	assert.Zero(t, ids[1].Cmp(tokens[2].Array[1].Uint))
	require.Len(t, tokens[3].Array, 2)
	assert.Zero(t, amounts[0].Cmp(tokens[3].Array[0].Uint))
	assert.Zero(t, amounts[1].Cmp(tokens[3].Array[1].Uint))
}

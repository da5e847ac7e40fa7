package tester_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/abi"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/environment"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/tester"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
)

// withdrawAllApp withdraws in response to deposits: a zero-amount Ether
// deposit withdraws the holder's whole Ether balance, and every ERC-1155
// deposit is withdrawn in full. For Inspect, it decodes a {"kind":"erc721",
// "metadata":{"token","id"}} query and reports the owner's raw address
// bytes.
type withdrawAllApp struct{}

func (a *withdrawAllApp) Advance(ctx context.Context, env *environment.Environment, metadata types.Metadata, payload []byte, deposit *types.Deposit) (types.FinishStatus, error) {
	if deposit == nil {
		return types.Accept, nil
	}
	switch deposit.Kind {
	case types.DepositEther:
		if !deposit.Amount.IsZero() {
			break
		}
		if _, err := env.Ether.Withdraw(ctx, deposit.Sender, env.Ether.Balance(deposit.Sender)); err != nil {
			return types.Reject, err
		}
	case types.DepositERC1155:
		if _, err := env.ERC1155.Withdraw(ctx, deposit.Sender, deposit.Token, deposit.IDsAmounts); err != nil {
			return types.Reject, err
		}
	}
	return types.Accept, nil
}

type erc721InspectQuery struct {
	Kind     string `json:"kind"`
	Metadata struct {
		Token types.Address `json:"token"`
		ID    types.Uint256 `json:"id"`
	} `json:"metadata"`
}

func (a *withdrawAllApp) Inspect(ctx context.Context, env *environment.Environment, payload []byte) (types.FinishStatus, error) {
	var q erc721InspectQuery
	if err := json.Unmarshal(payload, &q); err != nil {
		return types.Reject, err
	}
	owner, ok := env.ERC721.OwnerOf(q.Metadata.Token, q.Metadata.ID)
	if !ok {
		return types.Reject, nil
	}
	if err := env.SendReport(ctx, owner.Bytes()); err != nil {
		return types.Reject, err
	}
	return types.Accept, nil
}

func TestEtherDepositRoundTripThenWithdraw(t *testing.T) {
	app := &withdrawAllApp{}
	tst := tester.New(app, types.DefaultAddressBook(), types.DefaultPortalHandlerConfig(), 0)
	sender := types.ZeroAddress

	result, err := tst.Deposit(context.Background(), types.Deposit{
		Kind:   types.DepositEther,
		Sender: sender,
		Amount: types.NewUint256FromUint64(6_000_000_000_000_000_000),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.Accept, result.Status)
	assert.Zero(t, tst.EtherBalance(sender).Cmp(types.NewUint256FromUint64(6_000_000_000_000_000_000)))

	result, err = tst.Deposit(context.Background(), types.Deposit{
		Kind:   types.DepositEther,
		Sender: sender,
		Amount: types.NewUint256FromUint64(6_000_000_000_000_000_000),
	}, nil)
	require.NoError(t, err)
	assert.Zero(t, tst.EtherBalance(sender).Cmp(types.NewUint256FromUint64(12_000_000_000_000_000_000)))

	// The withdrawAllApp only withdraws in response to a deposit's own
	// Advance call; drive one more deposit of zero to trigger withdrawal of
	// the full accumulated balance through the normal Advance path.
	result, err = tst.Deposit(context.Background(), types.Deposit{
		Kind:   types.DepositEther,
		Sender: sender,
		Amount: types.ZeroUint256(),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.Accept, result.Status)
	require.Len(t, result.Outputs, 1)
	assert.Equal(t, types.OutputVoucher, result.Outputs[0].Kind)
	assert.Zero(t, tst.EtherBalance(sender).Cmp(types.ZeroUint256()))
	assert.Empty(t, tst.EtherAddresses())
}

func TestERC1155SingleDepositThenWithdrawViaTester(t *testing.T) {
	app := &withdrawAllApp{}
	tst := tester.New(app, types.DefaultAddressBook(), types.DefaultPortalHandlerConfig(), 0)
	sender := types.ZeroAddress
	token := types.MustParseAddress("0x0000000000000000000000000000000000000001")

	result, err := tst.Deposit(context.Background(), types.Deposit{
		Kind:   types.DepositERC1155,
		Sender: sender,
		Token:  token,
		IDsAmounts: []types.IDAmount{
			{ID: types.NewUint256FromUint64(1), Amount: types.NewUint256FromUint64(10)},
		},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.Accept, result.Status)
	// The deposit's own Advance call already withdrew the full balance
	// (withdrawAllApp withdraws every ERC-1155 deposit it sees).
	assert.Zero(t, tst.ERC1155Balance(sender, token, types.NewUint256FromUint64(1)).Cmp(types.ZeroUint256()))
	require.Len(t, result.Outputs, 1)
	assert.Equal(t, types.OutputVoucher, result.Outputs[0].Kind)

	// The voucher is a safeBatchTransferFrom of the 10 units of id 1 that
	// the deposit credited.
	schema := abi.Schema{
		abi.AddressElem, abi.AddressElem,
		abi.ArrayElem(abi.UintElem(256)), abi.ArrayElem(abi.UintElem(256)),
		{Kind: abi.KindBytes},
	}
	tokens, err := abi.DecodeABI(schema, result.Outputs[0].Payload[4:])
	require.NoError(t, err)
	require.Len(t, tokens[2].Array, 1)
	assert.Zero(t, tokens[2].Array[0].Uint.Cmp(types.NewUint256FromUint64(1)))
	require.Len(t, tokens[3].Array, 1)
	assert.Zero(t, tokens[3].Array[0].Uint.Cmp(types.NewUint256FromUint64(10)))
}

func TestInspectERC721Owner(t *testing.T) {
	app := &withdrawAllApp{}
	tst := tester.New(app, types.DefaultAddressBook(), types.DefaultPortalHandlerConfig(), 0)
	sender := types.ZeroAddress
	token := types.MustParseAddress("0x0000000000000000000000000000000000000001")

	_, err := tst.Deposit(context.Background(), types.Deposit{
		Kind:   types.DepositERC721,
		Sender: sender,
		Token:  token,
		ID:     types.NewUint256FromUint64(1),
	}, nil)
	require.NoError(t, err)

	query, err := json.Marshal(map[string]any{
		"kind": "erc721",
		"metadata": map[string]any{
			"token": token.String(),
			"id":    "1",
		},
	})
	require.NoError(t, err)

	result := tst.Inspect(context.Background(), query)
	require.NoError(t, result.Err)
	assert.Equal(t, types.Accept, result.Status)
	require.Len(t, result.Outputs, 1)
	assert.Equal(t, types.OutputReport, result.Outputs[0].Kind)
	assert.Equal(t, sender.Bytes(), result.Outputs[0].Payload)
}

package wallet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/wallet"
)

func TestERC721DepositThenOwnerOf(t *testing.T) {
	w := wallet.NewERC721Wallet()
	payload := w.DepositPayload(testToken, testHolder, types.NewUint256FromUint64(1))

	deposit, _, err := w.Deposit(payload)
	require.NoError(t, err)
	assert.Equal(t, types.DepositERC721, deposit.Kind)

	owner, ok := w.OwnerOf(testToken, types.NewUint256FromUint64(1))
	require.True(t, ok)
	assert.Equal(t, testHolder, owner)
}

func TestERC721WithdrawClearsOwnership(t *testing.T) {
	w := wallet.NewERC721Wallet()
	_, _, _ = w.Deposit(w.DepositPayload(testToken, testHolder, types.NewUint256FromUint64(1)))

	dapp := types.MustParseAddress("0x1111111111111111111111111111111111111111")
	voucher, err := w.Withdraw(dapp, testHolder, testToken, types.NewUint256FromUint64(1))
	require.NoError(t, err)
	assert.NotEmpty(t, voucher)

	_, ok := w.OwnerOf(testToken, types.NewUint256FromUint64(1))
	assert.False(t, ok)
	assert.Empty(t, w.Addresses())
}

func TestERC721TransferWrongOwnerFails(t *testing.T) {
	w := wallet.NewERC721Wallet()
	_, _, _ = w.Deposit(w.DepositPayload(testToken, testHolder, types.NewUint256FromUint64(1)))

	other := types.MustParseAddress("0x1111111111111111111111111111111111111111")
	err := w.Transfer(other, testHolder, testToken, types.NewUint256FromUint64(1))
	assert.ErrorIs(t, err, wallet.ErrTokenNotOwned)
}

func TestERC721TransferSelfFails(t *testing.T) {
	w := wallet.NewERC721Wallet()
	_, _, _ = w.Deposit(w.DepositPayload(testToken, testHolder, types.NewUint256FromUint64(1)))

	err := w.Transfer(testHolder, testHolder, testToken, types.NewUint256FromUint64(1))
	assert.ErrorIs(t, err, wallet.ErrSelfTransfer)
}

package wallet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/wallet"
)

func TestERC20DepositFailedFlagCreditsNothing(t *testing.T) {
	w := wallet.NewERC20Wallet()
	payload := w.DepositPayload(false, testToken, testHolder, types.NewUint256FromUint64(100))

	_, _, err := w.Deposit(payload)
	assert.ErrorIs(t, err, wallet.ErrDepositFailed)
	assert.Zero(t, w.BalanceOf(testHolder, testToken).Cmp(types.ZeroUint256()))
}

func TestERC20DepositCreditsOnSuccessFlag(t *testing.T) {
	w := wallet.NewERC20Wallet()
	payload := w.DepositPayload(true, testToken, testHolder, types.NewUint256FromUint64(100))

	deposit, _, err := w.Deposit(payload)
	require.NoError(t, err)
	assert.Equal(t, types.DepositERC20, deposit.Kind)
	assert.Zero(t, w.BalanceOf(testHolder, testToken).Cmp(types.NewUint256FromUint64(100)))
}

func TestERC20WithdrawDoesNotRequireAppAddress(t *testing.T) {
	w := wallet.NewERC20Wallet()
	_, _, _ = w.Deposit(w.DepositPayload(true, testToken, testHolder, types.NewUint256FromUint64(100)))

	voucher, err := w.Withdraw(testHolder, testToken, types.NewUint256FromUint64(100))
	require.NoError(t, err)
	assert.NotEmpty(t, voucher)
	assert.Zero(t, w.BalanceOf(testHolder, testToken).Cmp(types.ZeroUint256()))
}

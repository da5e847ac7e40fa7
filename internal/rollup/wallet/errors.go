// Package wallet implements the four in-memory asset ledgers (Ether,
// ERC-20, ERC-721, ERC-1155) that back portal deposits and withdrawals.
package wallet

import "errors"

var (
	// ErrSelfTransfer is returned by Transfer when source == destination.
	ErrSelfTransfer = errors.New("wallet: cannot transfer to self")
	// ErrInsufficientFunds is returned by the fungible wallets' (Ether,
	// ERC-20, ERC-1155) Transfer/Withdraw when the source balance is less
	// than the requested amount.
	ErrInsufficientFunds = errors.New("wallet: insufficient funds")
	// ErrBalanceOverflow is returned by Transfer/Deposit when the
	// destination balance would exceed the 256-bit range.
	ErrBalanceOverflow = errors.New("wallet: balance overflow")
	// ErrDepositFailed is returned by ERC20Wallet.Deposit when the portal
	// payload's leading success flag is false.
	ErrDepositFailed = errors.New("wallet: deposit failed")
	// ErrTokenNotOwned is returned by ERC721Wallet.Transfer when src does
	// not own the given (token, id) pair.
	ErrTokenNotOwned = errors.New("wallet: token not owned by holder")
	// ErrWrongOwner is returned by ERC721Wallet.Withdraw when holder is not
	// the current owner.
	ErrWrongOwner = errors.New("wallet: wrong owner")
	// ErrShortPayload is returned by Deposit when the packed prefix does
	// not fit in the given payload.
	ErrShortPayload = errors.New("wallet: payload shorter than packed prefix")
)

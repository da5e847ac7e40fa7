package wallet

import (
	"fmt"
	"sort"
	"sync"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/abi"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
)

// erc20DepositSchema is the packed layout of an ERC-20 portal deposit:
// bool(success,1) ‖ address(token,20) ‖ address(holder,20) ‖ uint256(amount,32).
var erc20DepositSchema = abi.Schema{abi.BoolElem, abi.AddressElem, abi.AddressElem, abi.UintElem(256)}

type erc20Key struct {
	holder types.Address
	token  types.Address
}

// ERC20Wallet is the in-memory (holder, token)→Uint256 ledger for fungible
// token deposits.
type ERC20Wallet struct {
	mu      sync.RWMutex
	balance map[erc20Key]types.Uint256
}

// NewERC20Wallet constructs an empty wallet.
func NewERC20Wallet() *ERC20Wallet {
	return &ERC20Wallet{balance: make(map[erc20Key]types.Uint256)}
}

// BalanceOf returns holder's balance of token, zero if unset.
func (w *ERC20Wallet) BalanceOf(holder, token types.Address) types.Uint256 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.balance[erc20Key{holder, token}]
}

// Addresses returns every holder with a non-zero balance of token, sorted.
func (w *ERC20Wallet) Addresses(token types.Address) []types.Address {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []types.Address
	for k := range w.balance {
		if k.token == token {
			out = append(out, k.holder)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

// SetBalance is the canonical mutation primitive.
func (w *ERC20Wallet) SetBalance(holder, token types.Address, value types.Uint256) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setBalanceLocked(holder, token, value)
}

func (w *ERC20Wallet) setBalanceLocked(holder, token types.Address, value types.Uint256) {
	key := erc20Key{holder, token}
	if value.IsZero() {
		delete(w.balance, key)
		return
	}
	w.balance[key] = value
}

// Transfer moves amount of token from src to dst.
func (w *ERC20Wallet) Transfer(src, dst, token types.Address, amount types.Uint256) error {
	if src == dst {
		return ErrSelfTransfer
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	newSrc, err := w.balance[erc20Key{src, token}].CheckedSub(amount)
	if err != nil {
		return ErrInsufficientFunds
	}
	newDst, err := w.balance[erc20Key{dst, token}].CheckedAdd(amount)
	if err != nil {
		return ErrBalanceOverflow
	}
	w.setBalanceLocked(src, token, newSrc)
	w.setBalanceLocked(dst, token, newDst)
	return nil
}

// Deposit decodes payload's packed ERC-20-portal prefix, credits holder,
// and returns the typed Deposit plus the trailing bytes. A false leading
// success flag fails with ErrDepositFailed and credits nothing.
func (w *ERC20Wallet) Deposit(payload []byte) (types.Deposit, []byte, error) {
	tokens, rest, err := abi.DecodePacked(erc20DepositSchema, payload)
	if err != nil {
		return types.Deposit{}, nil, fmt.Errorf("%w: %v", ErrShortPayload, err)
	}
	success := tokens[0].Bool
	token := tokens[1].Address
	holder := tokens[2].Address
	amount := tokens[3].Uint

	if !success {
		return types.Deposit{}, nil, ErrDepositFailed
	}

	w.mu.Lock()
	newBalance, err := w.balance[erc20Key{holder, token}].CheckedAdd(amount)
	if err != nil {
		w.mu.Unlock()
		return types.Deposit{}, nil, ErrBalanceOverflow
	}
	w.setBalanceLocked(holder, token, newBalance)
	w.mu.Unlock()

	return types.Deposit{Kind: types.DepositERC20, Sender: holder, Token: token, Amount: amount}, rest, nil
}

// DepositPayload is the inverse of Deposit's packed decode.
func (w *ERC20Wallet) DepositPayload(success bool, token, holder types.Address, amount types.Uint256) []byte {
	b, _ := abi.EncodePacked([]abi.Token{
		abi.BoolToken(success),
		abi.AddressToken(token),
		abi.AddressToken(holder),
		abi.UintToken(amount),
	})
	return b
}

// Withdraw checks and subtracts amount of token from holder, then builds the
// ERC-20 transfer voucher payload. Unlike Ether/ERC-721/ERC-1155 withdrawals,
// this does not require the AppAddress to be set (see environment package).
func (w *ERC20Wallet) Withdraw(holder, token types.Address, amount types.Uint256) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := erc20Key{holder, token}
	newBalance, err := w.balance[key].CheckedSub(amount)
	if err != nil {
		return nil, ErrInsufficientFunds
	}
	payload, err := abi.EncodeERC20Transfer(holder, amount)
	if err != nil {
		return nil, fmt.Errorf("wallet: encode erc20 transfer: %w", err)
	}
	w.setBalanceLocked(holder, token, newBalance)
	return payload, nil
}

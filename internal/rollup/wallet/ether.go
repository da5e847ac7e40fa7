package wallet

import (
	"fmt"
	"sort"
	"sync"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/abi"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
)

// etherDepositSchema is the packed layout of an Ether portal deposit:
// address(sender,20) ‖ uint256(amount,32).
var etherDepositSchema = abi.Schema{abi.AddressElem, abi.UintElem(256)}

// EtherWallet is the in-memory Address→Uint256 ledger for native-coin
// deposits. No entry exists with a zero balance.
type EtherWallet struct {
	mu      sync.RWMutex
	balance map[types.Address]types.Uint256
}

// NewEtherWallet constructs an empty wallet.
func NewEtherWallet() *EtherWallet {
	return &EtherWallet{balance: make(map[types.Address]types.Uint256)}
}

// BalanceOf returns the holder's balance, zero if unset.
func (w *EtherWallet) BalanceOf(holder types.Address) types.Uint256 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.balance[holder]
}

// Addresses returns every holder with a non-zero balance, sorted.
func (w *EtherWallet) Addresses() []types.Address {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return sortedKeys(w.balance)
}

// SetBalance is the canonical mutation primitive: it removes the entry
// entirely when value is zero, preserving the "no zero-value entries"
// invariant.
func (w *EtherWallet) SetBalance(holder types.Address, value types.Uint256) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setBalanceLocked(holder, value)
}

func (w *EtherWallet) setBalanceLocked(holder types.Address, value types.Uint256) {
	if value.IsZero() {
		delete(w.balance, holder)
		return
	}
	w.balance[holder] = value
}

// Transfer moves amount from src to dst. Fails with ErrSelfTransfer,
// ErrInsufficientFunds, or ErrBalanceOverflow without mutating either
// balance.
func (w *EtherWallet) Transfer(src, dst types.Address, amount types.Uint256) error {
	if src == dst {
		return ErrSelfTransfer
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	newSrc, err := w.balance[src].CheckedSub(amount)
	if err != nil {
		return ErrInsufficientFunds
	}
	newDst, err := w.balance[dst].CheckedAdd(amount)
	if err != nil {
		return ErrBalanceOverflow
	}
	w.setBalanceLocked(src, newSrc)
	w.setBalanceLocked(dst, newDst)
	return nil
}

// Deposit decodes payload's packed Ether-portal prefix, credits the sender,
// and returns the typed Deposit plus whatever bytes trailed the prefix.
func (w *EtherWallet) Deposit(payload []byte) (types.Deposit, []byte, error) {
	tokens, rest, err := abi.DecodePacked(etherDepositSchema, payload)
	if err != nil {
		return types.Deposit{}, nil, fmt.Errorf("%w: %v", ErrShortPayload, err)
	}
	sender := tokens[0].Address
	amount := tokens[1].Uint

	w.mu.Lock()
	newBalance, err := w.balance[sender].CheckedAdd(amount)
	if err != nil {
		w.mu.Unlock()
		return types.Deposit{}, nil, ErrBalanceOverflow
	}
	w.setBalanceLocked(sender, newBalance)
	w.mu.Unlock()

	return types.Deposit{Kind: types.DepositEther, Sender: sender, Amount: amount}, rest, nil
}

// DepositPayload is the inverse of Deposit's packed decode, used by the
// tester to synthesize portal-originated advances.
func (w *EtherWallet) DepositPayload(sender types.Address, amount types.Uint256) []byte {
	b, _ := abi.EncodePacked([]abi.Token{abi.AddressToken(sender), abi.UintToken(amount)})
	return b
}

// Withdraw checks and subtracts amount from holder, then builds the
// withdrawEther voucher payload. The balance is only mutated once the
// payload has been built successfully.
func (w *EtherWallet) Withdraw(holder types.Address, amount types.Uint256) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	newBalance, err := w.balance[holder].CheckedSub(amount)
	if err != nil {
		return nil, ErrInsufficientFunds
	}
	payload, err := abi.EncodeEtherWithdraw(holder, amount)
	if err != nil {
		return nil, fmt.Errorf("wallet: encode ether withdraw: %w", err)
	}
	w.setBalanceLocked(holder, newBalance)
	return payload, nil
}

func sortedKeys(m map[types.Address]types.Uint256) []types.Address {
	out := make([]types.Address, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

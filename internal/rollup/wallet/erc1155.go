package wallet

import (
	"fmt"
	"sort"
	"sync"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/abi"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
)

// erc1155PrefixSchema is the packed prefix shared by both single and batch
// ERC-1155 portal deposits: address(token,20) ‖ address(holder,20).
var erc1155PrefixSchema = abi.Schema{abi.AddressElem, abi.AddressElem}

// erc1155SingleSuffixSchema is the packed suffix of a single deposit:
// uint256(id,32) ‖ uint256(amount,32).
var erc1155SingleSuffixSchema = abi.Schema{abi.UintElem(256), abi.UintElem(256)}

// erc1155BatchSuffixSchema is the standard-ABI-encoded suffix of a batch
// deposit: uint256[] ids, uint256[] amounts, encoded together as one
// argument tuple.
var erc1155BatchSuffixSchema = abi.Schema{abi.ArrayElem(abi.UintElem(256)), abi.ArrayElem(abi.UintElem(256))}

type erc1155Key struct {
	holder types.Address
	token  types.Address
	id     string
}

func newERC1155Key(holder, token types.Address, id types.Uint256) erc1155Key {
	return erc1155Key{holder: holder, token: token, id: id.String()}
}

// ERC1155Wallet is the in-memory (holder, token, id)→Uint256 ledger for
// multi-token deposits. Single and batch deposits both credit through this
// same ledger; the distinction is presentation-level only.
type ERC1155Wallet struct {
	mu      sync.RWMutex
	balance map[erc1155Key]types.Uint256
}

// NewERC1155Wallet constructs an empty wallet.
func NewERC1155Wallet() *ERC1155Wallet {
	return &ERC1155Wallet{balance: make(map[erc1155Key]types.Uint256)}
}

// BalanceOf returns holder's balance of (token, id), zero if unset.
func (w *ERC1155Wallet) BalanceOf(holder, token types.Address, id types.Uint256) types.Uint256 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.balance[newERC1155Key(holder, token, id)]
}

// Addresses returns every distinct holder with a non-zero balance of any
// (token, id), sorted.
func (w *ERC1155Wallet) Addresses() []types.Address {
	w.mu.RLock()
	defer w.mu.RUnlock()
	seen := make(map[types.Address]struct{})
	for k := range w.balance {
		seen[k.holder] = struct{}{}
	}
	out := make([]types.Address, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

// SetBalance is the canonical mutation primitive.
func (w *ERC1155Wallet) SetBalance(holder, token types.Address, id types.Uint256, value types.Uint256) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setBalanceLocked(holder, token, id, value)
}

func (w *ERC1155Wallet) setBalanceLocked(holder, token types.Address, id, value types.Uint256) {
	key := newERC1155Key(holder, token, id)
	if value.IsZero() {
		delete(w.balance, key)
		return
	}
	w.balance[key] = value
}

// Transfer moves amount of (token, id) from src to dst.
func (w *ERC1155Wallet) Transfer(src, dst, token types.Address, id, amount types.Uint256) error {
	if src == dst {
		return ErrSelfTransfer
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	newSrc, err := w.balance[newERC1155Key(src, token, id)].CheckedSub(amount)
	if err != nil {
		return ErrInsufficientFunds
	}
	newDst, err := w.balance[newERC1155Key(dst, token, id)].CheckedAdd(amount)
	if err != nil {
		return ErrBalanceOverflow
	}
	w.setBalanceLocked(src, token, id, newSrc)
	w.setBalanceLocked(dst, token, id, newDst)
	return nil
}

// SingleDeposit decodes a single-asset ERC-1155 portal deposit: packed
// prefix (token, holder) followed by packed (id, amount).
func (w *ERC1155Wallet) SingleDeposit(payload []byte) (types.Deposit, []byte, error) {
	prefix, rest, err := abi.DecodePacked(erc1155PrefixSchema, payload)
	if err != nil {
		return types.Deposit{}, nil, fmt.Errorf("%w: %v", ErrShortPayload, err)
	}
	suffix, rest, err := abi.DecodePacked(erc1155SingleSuffixSchema, rest)
	if err != nil {
		return types.Deposit{}, nil, fmt.Errorf("%w: %v", ErrShortPayload, err)
	}
	token := prefix[0].Address
	holder := prefix[1].Address
	id := suffix[0].Uint
	amount := suffix[1].Uint

	if err := w.credit(holder, token, id, amount); err != nil {
		return types.Deposit{}, nil, err
	}

	return types.Deposit{
		Kind:       types.DepositERC1155,
		Sender:     holder,
		Token:      token,
		IDsAmounts: []types.IDAmount{{ID: id, Amount: amount}},
	}, rest, nil
}

// BatchDeposit decodes a batch ERC-1155 portal deposit: packed prefix
// (token, holder) followed by a standard-ABI-encoded (uint256[] ids,
// uint256[] amounts) tuple.
func (w *ERC1155Wallet) BatchDeposit(payload []byte) (types.Deposit, []byte, error) {
	prefix, rest, err := abi.DecodePacked(erc1155PrefixSchema, payload)
	if err != nil {
		return types.Deposit{}, nil, fmt.Errorf("%w: %v", ErrShortPayload, err)
	}
	token := prefix[0].Address
	holder := prefix[1].Address

	suffix, consumed, err := abi.DecodeABIPrefix(erc1155BatchSuffixSchema, rest)
	if err != nil {
		return types.Deposit{}, nil, fmt.Errorf("abi: decode batch ids/amounts: %w", err)
	}
	ids := suffix[0].Array
	amounts := suffix[1].Array
	if len(ids) != len(amounts) {
		return types.Deposit{}, nil, fmt.Errorf("wallet: batch deposit has %d ids but %d amounts", len(ids), len(amounts))
	}

	idsAmounts := make([]types.IDAmount, len(ids))
	for i := range ids {
		idsAmounts[i] = types.IDAmount{ID: ids[i].Uint, Amount: amounts[i].Uint}
	}
	for _, leg := range idsAmounts {
		if err := w.credit(holder, token, leg.ID, leg.Amount); err != nil {
			return types.Deposit{}, nil, err
		}
	}

	return types.Deposit{
		Kind:       types.DepositERC1155,
		Sender:     holder,
		Token:      token,
		IDsAmounts: idsAmounts,
	}, rest[consumed:], nil
}

func (w *ERC1155Wallet) credit(holder, token types.Address, id, amount types.Uint256) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := newERC1155Key(holder, token, id)
	newBalance, err := w.balance[key].CheckedAdd(amount)
	if err != nil {
		return ErrBalanceOverflow
	}
	w.setBalanceLocked(holder, token, id, newBalance)
	return nil
}

// SingleDepositPayload is the inverse of SingleDeposit's packed decode.
func (w *ERC1155Wallet) SingleDepositPayload(token, holder types.Address, id, amount types.Uint256) []byte {
	prefix, _ := abi.EncodePacked([]abi.Token{abi.AddressToken(token), abi.AddressToken(holder)})
	suffix, _ := abi.EncodePacked([]abi.Token{abi.UintToken(id), abi.UintToken(amount)})
	return append(prefix, suffix...)
}

// BatchDepositPayload is the inverse of BatchDeposit's decode.
func (w *ERC1155Wallet) BatchDepositPayload(token, holder types.Address, legs []types.IDAmount) ([]byte, error) {
	prefix, _ := abi.EncodePacked([]abi.Token{abi.AddressToken(token), abi.AddressToken(holder)})

	ids := make([]abi.Token, len(legs))
	amounts := make([]abi.Token, len(legs))
	for i, leg := range legs {
		ids[i] = abi.UintToken(leg.ID)
		amounts[i] = abi.UintToken(leg.Amount)
	}
	suffix, err := abi.EncodeABI(erc1155BatchSuffixSchema, []abi.Token{abi.ArrayToken(ids), abi.ArrayToken(amounts)})
	if err != nil {
		return nil, fmt.Errorf("wallet: encode batch ids/amounts: %w", err)
	}
	return append(prefix, suffix...), nil
}

// Withdraw verifies holder has sufficient balance of every (token, id) leg,
// builds the safeBatchTransferFrom voucher payload moving them from dapp
// (the wallet's custodian contract) to holder, and only then commits the
// balance changes. A single-asset withdrawal is simply a one-leg call —
// per the specification, the wallet never exposes a distinct single-asset
// withdraw path.
func (w *ERC1155Wallet) Withdraw(dapp, holder, token types.Address, legs []types.IDAmount) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	newBalances := make([]types.Uint256, len(legs))
	for i, leg := range legs {
		key := newERC1155Key(holder, token, leg.ID)
		nb, err := w.balance[key].CheckedSub(leg.Amount)
		if err != nil {
			return nil, ErrInsufficientFunds
		}
		newBalances[i] = nb
	}

	ids := make([]types.Uint256, len(legs))
	amounts := make([]types.Uint256, len(legs))
	for i, leg := range legs {
		ids[i] = leg.ID
		amounts[i] = leg.Amount
	}
	payload, err := abi.EncodeERC1155SafeBatchTransferFrom(dapp, holder, ids, amounts)
	if err != nil {
		return nil, fmt.Errorf("wallet: encode erc1155 safeBatchTransferFrom: %w", err)
	}

	for i, leg := range legs {
		w.setBalanceLocked(holder, token, leg.ID, newBalances[i])
	}
	return payload, nil
}

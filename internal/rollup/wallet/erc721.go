package wallet

import (
	"fmt"
	"sort"
	"sync"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/abi"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
)

// erc721DepositSchema is the packed layout of an ERC-721 portal deposit:
// address(token,20) ‖ address(holder,20) ‖ uint256(id,32).
var erc721DepositSchema = abi.Schema{abi.AddressElem, abi.AddressElem, abi.UintElem(256)}

type erc721Key struct {
	token types.Address
	id    string // decimal string; types.Uint256 is not itself a valid map key
}

func newERC721Key(token types.Address, id types.Uint256) erc721Key {
	return erc721Key{token: token, id: id.String()}
}

// ERC721Wallet is the in-memory (token, id)→owner ledger for non-fungible
// token deposits. Each (token, id) pair has at most one owner.
type ERC721Wallet struct {
	mu    sync.RWMutex
	owner map[erc721Key]types.Address
}

// NewERC721Wallet constructs an empty wallet.
func NewERC721Wallet() *ERC721Wallet {
	return &ERC721Wallet{owner: make(map[erc721Key]types.Address)}
}

// OwnerOf returns the current owner of (token, id), and whether it is
// owned at all.
func (w *ERC721Wallet) OwnerOf(token types.Address, id types.Uint256) (types.Address, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	owner, ok := w.owner[newERC721Key(token, id)]
	return owner, ok
}

// Addresses returns every distinct holder owning at least one (token, id)
// pair, sorted.
func (w *ERC721Wallet) Addresses() []types.Address {
	w.mu.RLock()
	defer w.mu.RUnlock()
	seen := make(map[types.Address]struct{})
	for _, owner := range w.owner {
		seen[owner] = struct{}{}
	}
	out := make([]types.Address, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

// SetOwner is the canonical mutation primitive: assigning the zero address
// removes the entry, representing "unowned" (e.g. withdrawn from the
// wallet).
func (w *ERC721Wallet) SetOwner(token types.Address, id types.Uint256, owner types.Address) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setOwnerLocked(token, id, owner)
}

func (w *ERC721Wallet) setOwnerLocked(token types.Address, id types.Uint256, owner types.Address) {
	key := newERC721Key(token, id)
	if owner.IsZero() {
		delete(w.owner, key)
		return
	}
	w.owner[key] = owner
}

// Transfer moves (token, id) from src to dst. Fails with ErrSelfTransfer or
// ErrTokenNotOwned without mutating ownership.
func (w *ERC721Wallet) Transfer(src, dst, token types.Address, id types.Uint256) error {
	if src == dst {
		return ErrSelfTransfer
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	key := newERC721Key(token, id)
	if w.owner[key] != src {
		return ErrTokenNotOwned
	}
	w.owner[key] = dst
	return nil
}

// Deposit decodes payload's packed ERC-721-portal prefix, assigns
// ownership, and returns the typed Deposit plus the trailing bytes.
func (w *ERC721Wallet) Deposit(payload []byte) (types.Deposit, []byte, error) {
	tokens, rest, err := abi.DecodePacked(erc721DepositSchema, payload)
	if err != nil {
		return types.Deposit{}, nil, fmt.Errorf("%w: %v", ErrShortPayload, err)
	}
	token := tokens[0].Address
	holder := tokens[1].Address
	id := tokens[2].Uint

	// Ownership is recorded even for the zero-address holder, which
	// SetOwner would treat as "unowned".
	w.mu.Lock()
	w.owner[newERC721Key(token, id)] = holder
	w.mu.Unlock()

	return types.Deposit{Kind: types.DepositERC721, Sender: holder, Token: token, ID: id}, rest, nil
}

// DepositPayload is the inverse of Deposit's packed decode.
func (w *ERC721Wallet) DepositPayload(token, holder types.Address, id types.Uint256) []byte {
	b, _ := abi.EncodePacked([]abi.Token{
		abi.AddressToken(token),
		abi.AddressToken(holder),
		abi.UintToken(id),
	})
	return b
}

// Withdraw verifies holder owns (token, id), builds the safeTransferFrom
// voucher payload moving it from dapp (the wallet's custodian contract) to
// holder, and only then clears ownership.
func (w *ERC721Wallet) Withdraw(dapp, holder, token types.Address, id types.Uint256) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := newERC721Key(token, id)
	if w.owner[key] != holder {
		return nil, ErrWrongOwner
	}
	payload, err := abi.EncodeERC721SafeTransferFrom(dapp, holder, id)
	if err != nil {
		return nil, fmt.Errorf("wallet: encode erc721 safeTransferFrom: %w", err)
	}
	delete(w.owner, key)
	return payload, nil
}

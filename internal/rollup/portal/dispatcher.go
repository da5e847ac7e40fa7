// Package portal maps a rollup input's sender address to the wallet
// operation that should decode its payload, turning opaque portal deposits
// into typed Deposit values.
package portal

import (
	"fmt"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/wallet"
)

// Wallets bundles the four asset wallets the dispatcher and the
// Environment facade both need a handle to.
type Wallets struct {
	Ether   *wallet.EtherWallet
	ERC20   *wallet.ERC20Wallet
	ERC721  *wallet.ERC721Wallet
	ERC1155 *wallet.ERC1155Wallet
}

// NewWallets constructs a fresh, empty set of wallets.
func NewWallets() *Wallets {
	return &Wallets{
		Ether:   wallet.NewEtherWallet(),
		ERC20:   wallet.NewERC20Wallet(),
		ERC721:  wallet.NewERC721Wallet(),
		ERC1155: wallet.NewERC1155Wallet(),
	}
}

// Dispatcher is a pure function of (sender, payload) grounded on the
// well-known portal roles in an AddressBook, implemented as a
// role→decoder dispatch table in the style of a JSON-RPC method table.
type Dispatcher struct {
	Book    types.AddressBook
	Wallets *Wallets
}

// NewDispatcher builds a Dispatcher over book and wallets.
func NewDispatcher(book types.AddressBook, wallets *Wallets) *Dispatcher {
	return &Dispatcher{Book: book, Wallets: wallets}
}

type depositDecoder func(payload []byte) (types.Deposit, []byte, error)

// dispatchTable is built fresh per Dispatch call so each decoder closes
// over this particular Dispatcher's wallets; the map itself never mutates.
func (d *Dispatcher) dispatchTable() map[types.PortalRole]depositDecoder {
	return map[types.PortalRole]depositDecoder{
		types.RoleEtherPortal:         d.Wallets.Ether.Deposit,
		types.RoleERC20Portal:         d.Wallets.ERC20.Deposit,
		types.RoleERC721Portal:        d.Wallets.ERC721.Deposit,
		types.RoleERC1155SinglePortal: d.Wallets.ERC1155.SingleDeposit,
		types.RoleERC1155BatchPortal:  d.Wallets.ERC1155.BatchDeposit,
	}
}

// Dispatch classifies sender against the address book and, if it is a
// known deposit-originating portal, decodes payload through the matching
// wallet. ok is false when sender is not a recognized portal (including
// the app-address relay, which the Supervisor handles separately) — in
// that case payload is opaque user input and deposit/inner are zero.
func (d *Dispatcher) Dispatch(sender types.Address, payload []byte) (deposit types.Deposit, inner []byte, ok bool, err error) {
	role, known := d.Book.PortalRoleFor(sender)
	if !known {
		return types.Deposit{}, nil, false, nil
	}
	decode, isDeposit := d.dispatchTable()[role]
	if !isDeposit {
		return types.Deposit{}, nil, false, nil
	}
	deposit, inner, err = decode(payload)
	if err != nil {
		return types.Deposit{}, nil, false, fmt.Errorf("portal: decode deposit from role %v: %w", role, err)
	}
	return deposit, inner, true, nil
}

// IsAppAddressRelay reports whether sender is the configured
// app_address_relay contract.
func (d *Dispatcher) IsAppAddressRelay(sender types.Address) bool {
	role, known := d.Book.PortalRoleFor(sender)
	return known && role == types.RoleAppAddressRelay
}

// IsKnownPortal reports whether sender is any recognized deposit portal
// (not the relay).
func (d *Dispatcher) IsKnownPortal(sender types.Address) bool {
	role, known := d.Book.PortalRoleFor(sender)
	if !known {
		return false
	}
	_, isDeposit := d.dispatchTable()[role]
	return isDeposit
}

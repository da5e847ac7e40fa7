// Package environment provides the unified facade a handler uses to emit
// outputs and operate on the four portal wallets.
package environment

import (
	"context"
	"fmt"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/portal"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
)

// OutputSink is the output-emission surface an Environment needs: the
// rollup HTTP client implements it directly, and the tester package
// implements it in-process, buffering instead of posting.
type OutputSink interface {
	SendVoucher(ctx context.Context, destination types.Address, payload []byte) (int, error)
	SendNotice(ctx context.Context, payload []byte) (int, error)
	SendReport(ctx context.Context, payload []byte) error
}

// Environment is the facade handed to an Application on every Advance and
// Inspect call. It is safe for concurrent use, though the Supervisor only
// ever drives one input at a time.
type Environment struct {
	sink       OutputSink
	wallets    *portal.Wallets
	appAddress *appAddressSlot

	Ether   *EtherOps
	ERC20   *ERC20Ops
	ERC721  *ERC721Ops
	ERC1155 *ERC1155Ops
}

// New builds an Environment over sink and wallets.
func New(sink OutputSink, wallets *portal.Wallets) *Environment {
	env := &Environment{
		sink:       sink,
		wallets:    wallets,
		appAddress: &appAddressSlot{},
	}
	env.Ether = &EtherOps{env: env, wallet: wallets.Ether}
	env.ERC20 = &ERC20Ops{env: env, wallet: wallets.ERC20}
	env.ERC721 = &ERC721Ops{env: env, wallet: wallets.ERC721}
	env.ERC1155 = &ERC1155Ops{env: env, wallet: wallets.ERC1155}
	return env
}

// SetAppAddress records the dApp's own address, delivered by the
// app_address_relay input. Called by the Supervisor, not by handlers.
func (e *Environment) SetAppAddress(addr types.Address) {
	e.appAddress.put(addr)
}

// AppAddress returns the dApp's own address and whether it has been set yet.
func (e *Environment) AppAddress() (types.Address, bool) {
	return e.appAddress.get()
}

// SendVoucher emits a Voucher output, returning its rollup-assigned index.
func (e *Environment) SendVoucher(ctx context.Context, destination types.Address, payload []byte) (int, error) {
	return e.sink.SendVoucher(ctx, destination, payload)
}

// SendNotice emits a Notice output, returning its rollup-assigned index.
func (e *Environment) SendNotice(ctx context.Context, payload []byte) (int, error) {
	return e.sink.SendNotice(ctx, payload)
}

// SendReport emits a diagnostic Report output.
func (e *Environment) SendReport(ctx context.Context, payload []byte) error {
	return e.sink.SendReport(ctx, payload)
}

func (e *Environment) requireAppAddress() (types.Address, error) {
	addr, ok := e.appAddress.get()
	if !ok {
		return types.Address{}, ErrAppAddressNotSet
	}
	return addr, nil
}

// EtherOps is the Ether-asset operation surface.
type EtherOps struct {
	env    *Environment
	wallet interface {
		BalanceOf(holder types.Address) types.Uint256
		Addresses() []types.Address
		Transfer(src, dst types.Address, amount types.Uint256) error
		Withdraw(holder types.Address, amount types.Uint256) ([]byte, error)
	}
}

func (o *EtherOps) Balance(holder types.Address) types.Uint256 { return o.wallet.BalanceOf(holder) }
func (o *EtherOps) Addresses() []types.Address                 { return o.wallet.Addresses() }

func (o *EtherOps) Transfer(src, dst types.Address, amount types.Uint256) error {
	return o.wallet.Transfer(src, dst, amount)
}

// Withdraw requires the AppAddress to be set: the withdrawal voucher is a
// self-call on the dApp contract, which must know its own address to be
// the voucher's destination.
func (o *EtherOps) Withdraw(ctx context.Context, holder types.Address, amount types.Uint256) (int, error) {
	dapp, err := o.env.requireAppAddress()
	if err != nil {
		return 0, err
	}
	payload, err := o.wallet.Withdraw(holder, amount)
	if err != nil {
		return 0, err
	}
	// The wallet change is already committed at this point, here and in every
	// other Withdraw below: if SendVoucher fails it is not rolled back, so the
	// wallet then records a withdrawal for which no voucher was emitted.
	return o.env.SendVoucher(ctx, dapp, payload)
}

// ERC20Ops is the ERC-20-asset operation surface.
type ERC20Ops struct {
	env    *Environment
	wallet interface {
		BalanceOf(holder, token types.Address) types.Uint256
		Addresses(token types.Address) []types.Address
		Transfer(src, dst, token types.Address, amount types.Uint256) error
		Withdraw(holder, token types.Address, amount types.Uint256) ([]byte, error)
	}
}

func (o *ERC20Ops) Balance(holder, token types.Address) types.Uint256 {
	return o.wallet.BalanceOf(holder, token)
}
func (o *ERC20Ops) Addresses(token types.Address) []types.Address {
	return o.wallet.Addresses(token)
}

func (o *ERC20Ops) Transfer(src, dst, token types.Address, amount types.Uint256) error {
	return o.wallet.Transfer(src, dst, token, amount)
}

// Withdraw does not require the AppAddress: the emitted voucher calls
// transfer(to, value) on the token contract itself, naming no dApp address.
func (o *ERC20Ops) Withdraw(ctx context.Context, holder, token types.Address, amount types.Uint256) (int, error) {
	payload, err := o.wallet.Withdraw(holder, token, amount)
	if err != nil {
		return 0, err
	}
	return o.env.SendVoucher(ctx, token, payload)
}

// ERC721Ops is the ERC-721-asset operation surface.
type ERC721Ops struct {
	env    *Environment
	wallet interface {
		OwnerOf(token types.Address, id types.Uint256) (types.Address, bool)
		Addresses() []types.Address
		Transfer(src, dst, token types.Address, id types.Uint256) error
		Withdraw(dapp, holder, token types.Address, id types.Uint256) ([]byte, error)
	}
}

func (o *ERC721Ops) OwnerOf(token types.Address, id types.Uint256) (types.Address, bool) {
	return o.wallet.OwnerOf(token, id)
}
func (o *ERC721Ops) Addresses() []types.Address { return o.wallet.Addresses() }

func (o *ERC721Ops) Transfer(src, dst, token types.Address, id types.Uint256) error {
	return o.wallet.Transfer(src, dst, token, id)
}

// Withdraw requires the AppAddress: it is the `from` of the emitted
// safeTransferFrom call, since the dApp contract itself is the NFT's
// current on-chain holder.
func (o *ERC721Ops) Withdraw(ctx context.Context, holder, token types.Address, id types.Uint256) (int, error) {
	dapp, err := o.env.requireAppAddress()
	if err != nil {
		return 0, err
	}
	payload, err := o.wallet.Withdraw(dapp, holder, token, id)
	if err != nil {
		return 0, err
	}
	return o.env.SendVoucher(ctx, token, payload)
}

// ERC1155Ops is the ERC-1155-asset operation surface. A single-asset
// withdrawal is simply a one-leg call to Withdraw.
type ERC1155Ops struct {
	env    *Environment
	wallet interface {
		BalanceOf(holder, token types.Address, id types.Uint256) types.Uint256
		Addresses() []types.Address
		Transfer(src, dst, token types.Address, id, amount types.Uint256) error
		Withdraw(dapp, holder, token types.Address, legs []types.IDAmount) ([]byte, error)
	}
}

func (o *ERC1155Ops) Balance(holder, token types.Address, id types.Uint256) types.Uint256 {
	return o.wallet.BalanceOf(holder, token, id)
}
func (o *ERC1155Ops) Addresses() []types.Address { return o.wallet.Addresses() }

func (o *ERC1155Ops) Transfer(src, dst, token types.Address, id, amount types.Uint256) error {
	return o.wallet.Transfer(src, dst, token, id, amount)
}

// Withdraw requires the AppAddress for the same reason as ERC721Ops.Withdraw.
func (o *ERC1155Ops) Withdraw(ctx context.Context, holder, token types.Address, legs []types.IDAmount) (int, error) {
	dapp, err := o.env.requireAppAddress()
	if err != nil {
		return 0, err
	}
	if len(legs) == 0 {
		return 0, fmt.Errorf("environment: withdraw requires at least one (id, amount) leg")
	}
	payload, err := o.wallet.Withdraw(dapp, holder, token, legs)
	if err != nil {
		return 0, err
	}
	return o.env.SendVoucher(ctx, token, payload)
}

// Package tester drives an Application synchronously, without HTTP,
// for use in unit tests.
package tester

import (
	"context"
	"fmt"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/app"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/environment"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/portal"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
)

// sentinelAppAddress is a fixed, non-zero dApp address so withdrawal flows
// exercise the voucher-emission path under test without a relay input.
var sentinelAppAddress = types.MustParseAddress("0x1111111111111111111111111111111111111111")

// AdvanceResult is what Advance and Deposit return.
type AdvanceResult struct {
	Outputs  []types.Output
	Metadata types.Metadata
	Status   types.FinishStatus
	Err      error
}

// InspectResult is what Inspect returns.
type InspectResult struct {
	Outputs []types.Output
	Status  types.FinishStatus
	Err     error
}

// Tester drives app directly, capturing every output the handler emits
// into a private buffer instead of posting it to a rollup.
type Tester struct {
	app          app.Application
	wallets      *portal.Wallets
	dispatcher   *portal.Dispatcher
	env          *environment.Environment
	portalConfig types.PortalHandlerConfig

	nextInputIndex uint64
	nextTimestamp  uint64
	outputs        []types.Output
}

// sink is the in-process stand-in for the rollup client: it appends every
// Send* call to the Tester's output buffer instead of making an HTTP call.
type sink struct {
	t *Tester
}

// New builds a Tester with a fresh set of wallets and the given
// AddressBook, driving application. startTimestamp seeds the deterministic
// clock Advance uses for Metadata.Timestamp; each Advance call increments
// it by one, keeping replays reproducible.
func New(application app.Application, book types.AddressBook, portalConfig types.PortalHandlerConfig, startTimestamp uint64) *Tester {
	t := &Tester{
		app:            application,
		wallets:        portal.NewWallets(),
		portalConfig:   portalConfig,
		nextTimestamp:  startTimestamp,
		nextInputIndex: 0,
	}
	t.dispatcher = portal.NewDispatcher(book, t.wallets)
	t.env = environment.New(&sink{t: t}, t.wallets)
	t.env.SetAppAddress(sentinelAppAddress)
	return t
}

func (s *sink) SendVoucher(_ context.Context, destination types.Address, payload []byte) (int, error) {
	s.t.outputs = append(s.t.outputs, types.Output{Kind: types.OutputVoucher, Destination: destination, Payload: payload})
	return len(s.t.outputs) - 1, nil
}

func (s *sink) SendNotice(_ context.Context, payload []byte) (int, error) {
	s.t.outputs = append(s.t.outputs, types.Output{Kind: types.OutputNotice, Payload: payload})
	return len(s.t.outputs) - 1, nil
}

func (s *sink) SendReport(_ context.Context, payload []byte) error {
	s.t.outputs = append(s.t.outputs, types.Output{Kind: types.OutputReport, Payload: payload})
	return nil
}

func (t *Tester) nextMetadata(sender types.Address) types.Metadata {
	m := types.Metadata{
		InputIndex:  t.nextInputIndex,
		Sender:      sender,
		BlockNumber: t.nextInputIndex,
		Timestamp:   t.nextTimestamp,
	}
	t.nextInputIndex++
	t.nextTimestamp++
	return m
}

// Advance synthesizes an Advance input from sender with payload and drives
// the application, exactly as the Supervisor would for a non-portal sender.
func (t *Tester) Advance(ctx context.Context, sender types.Address, payload []byte) AdvanceResult {
	metadata := t.nextMetadata(sender)
	t.outputs = nil

	status, err := t.app.Advance(ctx, t.env, metadata, payload, nil)
	return t.finishAdvance(metadata, status, err)
}

// Inspect synthesizes an Inspect input and drives the application. Unlike
// Advance, the output buffer is not cleared on Reject.
func (t *Tester) Inspect(ctx context.Context, payload []byte) InspectResult {
	t.outputs = nil
	status, err := t.app.Inspect(ctx, t.env, payload)
	if err != nil {
		return InspectResult{Outputs: t.outputs, Status: types.Reject, Err: err}
	}
	return InspectResult{Outputs: t.outputs, Status: status}
}

// Deposit synthesizes a portal-originated Advance: it encodes deposit into
// its canonical packed payload, routes it through the portal dispatcher
// exactly as the Supervisor's PortalHandlerConfig dictates, and invokes the
// handler accordingly.
func (t *Tester) Deposit(ctx context.Context, deposit types.Deposit, userPayload []byte) (AdvanceResult, error) {
	role, portalPayload, err := t.encodeDeposit(deposit, userPayload)
	if err != nil {
		return AdvanceResult{}, err
	}
	sender, ok := t.dispatcher.Book.Address(role)
	if !ok {
		return AdvanceResult{}, fmt.Errorf("tester: no address configured for portal role %v", role)
	}

	metadata := t.nextMetadata(sender)
	t.outputs = nil

	switch t.portalConfig.Kind {
	case types.PortalIgnore:
		status, err := t.app.Advance(ctx, t.env, metadata, portalPayload, nil)
		return t.finishAdvance(metadata, status, err), nil

	case types.PortalDispense:
		decoded, _, ok, err := t.dispatcher.Dispatch(sender, portalPayload)
		if err != nil {
			return AdvanceResult{}, err
		}
		if ok {
			return AdvanceResult{Metadata: metadata, Status: types.Accept}, nil
		}
		_ = decoded
		status, err := t.app.Advance(ctx, t.env, metadata, portalPayload, nil)
		return t.finishAdvance(metadata, status, err), nil

	default: // PortalHandle
		decoded, inner, ok, err := t.dispatcher.Dispatch(sender, portalPayload)
		if err != nil {
			return AdvanceResult{}, err
		}
		if !ok {
			status, err := t.app.Advance(ctx, t.env, metadata, portalPayload, nil)
			return t.finishAdvance(metadata, status, err), nil
		}
		if !t.portalConfig.Advance {
			return AdvanceResult{Metadata: metadata, Status: types.Accept}, nil
		}
		status, err := t.app.Advance(ctx, t.env, metadata, inner, &decoded)
		return t.finishAdvance(metadata, status, err), nil
	}
}

func (t *Tester) finishAdvance(metadata types.Metadata, status types.FinishStatus, err error) AdvanceResult {
	if err != nil {
		t.outputs = nil
		return AdvanceResult{Metadata: metadata, Status: types.Reject, Err: err}
	}
	if status == types.Reject {
		t.outputs = nil
	}
	return AdvanceResult{Outputs: t.outputs, Metadata: metadata, Status: status}
}

func (t *Tester) encodeDeposit(deposit types.Deposit, userPayload []byte) (types.PortalRole, []byte, error) {
	var role types.PortalRole
	var prefix []byte

	switch deposit.Kind {
	case types.DepositEther:
		role = types.RoleEtherPortal
		prefix = t.wallets.Ether.DepositPayload(deposit.Sender, deposit.Amount)
	case types.DepositERC20:
		role = types.RoleERC20Portal
		prefix = t.wallets.ERC20.DepositPayload(true, deposit.Token, deposit.Sender, deposit.Amount)
	case types.DepositERC721:
		role = types.RoleERC721Portal
		prefix = t.wallets.ERC721.DepositPayload(deposit.Token, deposit.Sender, deposit.ID)
	case types.DepositERC1155:
		if len(deposit.IDsAmounts) == 1 {
			role = types.RoleERC1155SinglePortal
			prefix = t.wallets.ERC1155.SingleDepositPayload(deposit.Token, deposit.Sender, deposit.IDsAmounts[0].ID, deposit.IDsAmounts[0].Amount)
		} else {
			role = types.RoleERC1155BatchPortal
			var err error
			prefix, err = t.wallets.ERC1155.BatchDepositPayload(deposit.Token, deposit.Sender, deposit.IDsAmounts)
			if err != nil {
				return 0, nil, err
			}
		}
	default:
		return 0, nil, fmt.Errorf("tester: unknown deposit kind %v", deposit.Kind)
	}

	return role, append(prefix, userPayload...), nil
}

// EtherBalance passes through to the underlying Ether wallet.
func (t *Tester) EtherBalance(holder types.Address) types.Uint256 { return t.wallets.Ether.BalanceOf(holder) }

// EtherAddresses passes through to the underlying Ether wallet.
func (t *Tester) EtherAddresses() []types.Address { return t.wallets.Ether.Addresses() }

// ERC20Balance passes through to the underlying ERC-20 wallet.
func (t *Tester) ERC20Balance(holder, token types.Address) types.Uint256 {
	return t.wallets.ERC20.BalanceOf(holder, token)
}

// ERC20Addresses passes through to the underlying ERC-20 wallet.
func (t *Tester) ERC20Addresses(token types.Address) []types.Address {
	return t.wallets.ERC20.Addresses(token)
}

// ERC721Owner passes through to the underlying ERC-721 wallet.
func (t *Tester) ERC721Owner(token types.Address, id types.Uint256) (types.Address, bool) {
	return t.wallets.ERC721.OwnerOf(token, id)
}

// ERC721Addresses passes through to the underlying ERC-721 wallet.
func (t *Tester) ERC721Addresses() []types.Address { return t.wallets.ERC721.Addresses() }

// ERC1155Balance passes through to the underlying ERC-1155 wallet.
func (t *Tester) ERC1155Balance(holder, token types.Address, id types.Uint256) types.Uint256 {
	return t.wallets.ERC1155.BalanceOf(holder, token, id)
}

// ERC1155Addresses passes through to the underlying ERC-1155 wallet.
func (t *Tester) ERC1155Addresses() []types.Address { return t.wallets.ERC1155.Addresses() }

// Environment exposes the Tester's Environment facade directly, for tests
// that want to call it outside of an Advance/Inspect/Deposit cycle.
func (t *Tester) Environment() *environment.Environment { return t.env }

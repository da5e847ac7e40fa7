package supervisor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/environment"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/portal"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
)

// recordingApp records every Advance/Inspect call it receives and returns a
// fixed status, optionally an error.
type recordingApp struct {
	advanceCalls []types.Deposit
	status       types.FinishStatus
	err          error
}

func (a *recordingApp) Advance(ctx context.Context, env *environment.Environment, metadata types.Metadata, payload []byte, deposit *types.Deposit) (types.FinishStatus, error) {
	if deposit != nil {
		a.advanceCalls = append(a.advanceCalls, *deposit)
	} else {
		a.advanceCalls = append(a.advanceCalls, types.Deposit{})
	}
	return a.status, a.err
}

func (a *recordingApp) Inspect(ctx context.Context, env *environment.Environment, payload []byte) (types.FinishStatus, error) {
	return a.status, a.err
}

func newTestSupervisor(t *testing.T, application *recordingApp, portalConfig types.PortalHandlerConfig) (*Supervisor, *portal.Wallets) {
	t.Helper()
	book := types.DefaultAddressBook()
	wallets := portal.NewWallets()
	dispatcher := portal.NewDispatcher(book, wallets)
	env := environment.New(&discardSink{}, wallets)
	return New(nil, dispatcher, env, application, Options{PortalConfig: &portalConfig}), wallets
}

type discardSink struct{}

func (discardSink) SendVoucher(context.Context, types.Address, []byte) (int, error) { return 0, nil }
func (discardSink) SendNotice(context.Context, []byte) (int, error)                  { return 0, nil }
func (discardSink) SendReport(context.Context, []byte) error                        { return nil }

func TestHandleAdvanceNonPortalSenderInvokesHandlerWithNilDeposit(t *testing.T) {
	app := &recordingApp{status: types.Accept}
	s, _ := newTestSupervisor(t, app, types.DefaultPortalHandlerConfig())

	input := types.Input{
		Kind:     types.InputAdvance,
		Metadata: types.Metadata{Sender: types.MustParseAddress("0x2222222222222222222222222222222222222222")},
		Payload:  []byte("hello"),
	}
	status := s.handle(context.Background(), input)
	assert.Equal(t, types.Accept, status)
	require.Len(t, app.advanceCalls, 1)
	assert.Equal(t, types.Deposit{}, app.advanceCalls[0])
}

func TestHandleAdvancePortalHandleInvokesHandlerWithDeposit(t *testing.T) {
	app := &recordingApp{status: types.Accept}
	cfg := types.PortalHandlerConfig{Kind: types.PortalHandle, Advance: true}
	s, wallets := newTestSupervisor(t, app, cfg)

	etherPortal, ok := s.dispatcher.Book.Address(types.RoleEtherPortal)
	require.True(t, ok)
	holder := types.MustParseAddress("0x237f8dd094c0e47f4236f12b4fa01d6dae89fb87")
	payload := wallets.Ether.DepositPayload(holder, types.NewUint256FromUint64(5))

	input := types.Input{
		Kind:     types.InputAdvance,
		Metadata: types.Metadata{Sender: etherPortal},
		Payload:  payload,
	}
	status := s.handle(context.Background(), input)
	assert.Equal(t, types.Accept, status)
	require.Len(t, app.advanceCalls, 1)
	assert.Equal(t, types.DepositEther, app.advanceCalls[0].Kind)
}

func TestHandleAdvancePortalHandleNoAdvanceAcceptsWithoutInvokingHandler(t *testing.T) {
	app := &recordingApp{status: types.Accept}
	cfg := types.PortalHandlerConfig{Kind: types.PortalHandle, Advance: false}
	s, wallets := newTestSupervisor(t, app, cfg)

	etherPortal, ok := s.dispatcher.Book.Address(types.RoleEtherPortal)
	require.True(t, ok)
	holder := types.MustParseAddress("0x237f8dd094c0e47f4236f12b4fa01d6dae89fb87")
	payload := wallets.Ether.DepositPayload(holder, types.NewUint256FromUint64(5))

	input := types.Input{
		Kind:     types.InputAdvance,
		Metadata: types.Metadata{Sender: etherPortal},
		Payload:  payload,
	}
	status := s.handle(context.Background(), input)
	assert.Equal(t, types.Accept, status)
	assert.Empty(t, app.advanceCalls)
}

func TestHandleAdvancePortalDispenseNeverInvokesHandler(t *testing.T) {
	app := &recordingApp{status: types.Accept}
	cfg := types.PortalHandlerConfig{Kind: types.PortalDispense}
	s, wallets := newTestSupervisor(t, app, cfg)

	etherPortal, ok := s.dispatcher.Book.Address(types.RoleEtherPortal)
	require.True(t, ok)
	holder := types.MustParseAddress("0x237f8dd094c0e47f4236f12b4fa01d6dae89fb87")
	payload := wallets.Ether.DepositPayload(holder, types.NewUint256FromUint64(5))

	input := types.Input{
		Kind:     types.InputAdvance,
		Metadata: types.Metadata{Sender: etherPortal},
		Payload:  payload,
	}
	status := s.handle(context.Background(), input)
	assert.Equal(t, types.Accept, status)
	assert.Empty(t, app.advanceCalls)
}

func TestHandleAdvanceHandlerErrorRejects(t *testing.T) {
	app := &recordingApp{status: types.Accept, err: errors.New("boom")}
	s, _ := newTestSupervisor(t, app, types.DefaultPortalHandlerConfig())

	input := types.Input{
		Kind:     types.InputAdvance,
		Metadata: types.Metadata{Sender: types.MustParseAddress("0x2222222222222222222222222222222222222222")},
		Payload:  []byte("hello"),
	}
	status := s.handle(context.Background(), input)
	assert.Equal(t, types.Reject, status)
}

func TestHandleAppAddressRelaySetsEnvironmentAddress(t *testing.T) {
	app := &recordingApp{status: types.Accept}
	s, _ := newTestSupervisor(t, app, types.DefaultPortalHandlerConfig())

	relay, ok := s.dispatcher.Book.Address(types.RoleAppAddressRelay)
	require.True(t, ok)
	dapp := types.MustParseAddress("0x3333333333333333333333333333333333333333")

	input := types.Input{
		Kind:     types.InputAdvance,
		Metadata: types.Metadata{Sender: relay},
		Payload:  dapp.Bytes(),
	}
	status := s.handle(context.Background(), input)
	assert.Equal(t, types.Accept, status)
	got, ok := s.env.AppAddress()
	require.True(t, ok)
	assert.Equal(t, dapp, got)
	assert.Empty(t, app.advanceCalls)
}

func TestHandleInspect(t *testing.T) {
	app := &recordingApp{status: types.Accept}
	s, _ := newTestSupervisor(t, app, types.DefaultPortalHandlerConfig())

	status := s.handle(context.Background(), types.Input{Kind: types.InputInspect, Payload: []byte("query")})
	assert.Equal(t, types.Accept, status)
}

// Package supervisor implements the event loop that drives an Application
// from the rollup's /finish polling protocol.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/app"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/client"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/environment"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/portal"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
)

// addressLength is the byte width of the app_address_relay payload: a
// single 20-byte address, nothing else.
const addressLength = 20

// Options configures a Supervisor. The zero value is usable: it defaults to
// DefaultPortalHandlerConfig, slog.Default(), and a fresh Metrics set.
// PortalConfig is a pointer so that an explicitly-chosen
// PortalHandlerConfig{Kind: PortalHandle, Advance: false} is distinguishable
// from "not set" (the zero value of PortalHandlerConfig happens to collide
// with that combination).
type Options struct {
	PortalConfig *types.PortalHandlerConfig
	Logger       *slog.Logger
	Metrics      *Metrics
	// PollInterval is how long Run waits before retrying /finish after a
	// 202 (no input yet) response. Defaults to 500ms.
	PollInterval time.Duration
}

// Supervisor polls the rollup for inputs and drives app through them.
type Supervisor struct {
	client       *client.Client
	dispatcher   *portal.Dispatcher
	env          *environment.Environment
	app          app.Application
	portalConfig types.PortalHandlerConfig
	logger       *slog.Logger
	metrics      *Metrics
	pollInterval time.Duration
}

// New builds a Supervisor. opts.Metrics, if set, should already be
// registered with a Prometheus registerer by the caller.
func New(c *client.Client, dispatcher *portal.Dispatcher, env *environment.Environment, application app.Application, opts Options) *Supervisor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	portalConfig := types.DefaultPortalHandlerConfig()
	if opts.PortalConfig != nil {
		portalConfig = *opts.PortalConfig
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Supervisor{
		client:       c,
		dispatcher:   dispatcher,
		env:          env,
		app:          application,
		portalConfig: portalConfig,
		logger:       logger,
		metrics:      metrics,
		pollInterval: pollInterval,
	}
}

// Run blocks, polling /finish and dispatching inputs, until ctx is
// cancelled. It returns ctx.Err() on cancellation, or the first fatal
// client error.
func (s *Supervisor) Run(ctx context.Context) error {
	status := types.Accept
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		input, ok, err := s.client.Finish(ctx, status)
		if err != nil {
			return fmt.Errorf("supervisor: finish: %w", err)
		}
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.pollInterval):
			}
			continue
		}

		status = s.handle(ctx, input)
	}
}

func (s *Supervisor) handle(ctx context.Context, input types.Input) types.FinishStatus {
	s.metrics.InputsProcessed.Inc()

	var status types.FinishStatus
	switch input.Kind {
	case types.InputInspect:
		status = s.handleInspect(ctx, input)
	case types.InputAdvance:
		status = s.handleAdvance(ctx, input)
	default:
		s.logger.Warn("supervisor: unknown input kind", slog.Int("kind", int(input.Kind)))
		status = types.Reject
	}

	if status == types.Accept {
		s.metrics.InputsAccepted.Inc()
	} else {
		s.metrics.InputsRejected.Inc()
	}
	return status
}

func (s *Supervisor) handleInspect(ctx context.Context, input types.Input) types.FinishStatus {
	s.logger.Debug("dispatching inspect")
	start := time.Now()
	status, err := s.app.Inspect(ctx, s.env, input.Payload)
	s.metrics.HandlerDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Warn("inspect handler failed", slog.String("error", err.Error()))
		return types.Reject
	}
	return status
}

func (s *Supervisor) handleAdvance(ctx context.Context, input types.Input) types.FinishStatus {
	sender := input.Metadata.Sender

	if s.dispatcher.IsAppAddressRelay(sender) {
		return s.handleAppAddressRelay(input.Payload)
	}

	switch s.portalConfig.Kind {
	case types.PortalIgnore:
		return s.invokeAdvance(ctx, input, input.Payload, nil)

	case types.PortalDispense:
		deposit, _, ok, err := s.dispatcher.Dispatch(sender, input.Payload)
		if err != nil {
			s.logger.Warn("portal dispatch failed", slog.String("error", err.Error()))
			return types.Reject
		}
		if ok {
			s.logger.Debug("dispensed deposit without invoking handler", slog.Int("deposit_kind", int(deposit.Kind)))
			return types.Accept
		}
		return s.invokeAdvance(ctx, input, input.Payload, nil)

	default: // types.PortalHandle
		deposit, inner, ok, err := s.dispatcher.Dispatch(sender, input.Payload)
		if err != nil {
			s.logger.Warn("portal dispatch failed", slog.String("error", err.Error()))
			return types.Reject
		}
		if !ok {
			return s.invokeAdvance(ctx, input, input.Payload, nil)
		}
		if !s.portalConfig.Advance {
			s.logger.Debug("accepted deposit without invoking handler", slog.Int("deposit_kind", int(deposit.Kind)))
			return types.Accept
		}
		return s.invokeAdvance(ctx, input, inner, &deposit)
	}
}

func (s *Supervisor) handleAppAddressRelay(payload []byte) types.FinishStatus {
	if len(payload) != addressLength {
		s.logger.Warn("app address relay payload has wrong length", slog.Int("length", len(payload)))
		return types.Reject
	}
	addr, err := types.NewAddress(payload)
	if err != nil {
		s.logger.Warn("app address relay payload invalid", slog.String("error", err.Error()))
		return types.Reject
	}
	s.env.SetAppAddress(addr)
	s.logger.Debug("app address set", slog.String("address", addr.String()))
	return types.Accept
}

func (s *Supervisor) invokeAdvance(ctx context.Context, input types.Input, payload []byte, deposit *types.Deposit) types.FinishStatus {
	s.logger.Debug("dispatching advance", slog.Uint64("input_index", input.Metadata.InputIndex))
	start := time.Now()
	status, err := s.app.Advance(ctx, s.env, input.Metadata, payload, deposit)
	s.metrics.HandlerDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Warn("advance handler failed",
			slog.Uint64("input_index", input.Metadata.InputIndex),
			slog.String("error", err.Error()),
		)
		return types.Reject
	}
	return status
}

// Package app defines the interface user code implements to react to
// rollup inputs.
package app

import (
	"context"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/environment"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
)

// Application is the handler the Supervisor drives. Implementations should
// treat env as the only channel for side effects: outputs emitted any other
// way are invisible to the rollup.
type Application interface {
	// Advance handles a state-changing input. deposit is non-nil when the
	// input originated from a known portal and PortalHandlerConfig routed
	// it to the handler with its decoded Deposit attached.
	Advance(ctx context.Context, env *environment.Environment, metadata types.Metadata, payload []byte, deposit *types.Deposit) (types.FinishStatus, error)

	// Inspect handles a read-only query. Outputs emitted during Inspect are
	// still delivered to the rollup but are not expected to be vouchers.
	Inspect(ctx context.Context, env *environment.Environment, payload []byte) (types.FinishStatus, error)
}

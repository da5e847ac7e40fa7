package types

// Metadata is attached to every Advance input. It is created by the rollup
// and never mutated by the runtime.
type Metadata struct {
	InputIndex  uint64
	Sender      Address
	BlockNumber uint64
	Timestamp   uint64
}

// InputKind discriminates an Input between Advance and Inspect.
type InputKind int

const (
	// InputAdvance is a state-changing input carrying Metadata.
	InputAdvance InputKind = iota
	// InputInspect is a read-only query carrying no Metadata.
	InputInspect
)

// Input is the payload the Supervisor receives from the rollup client's
// /finish poll: either an Advance (with Metadata) or an Inspect.
type Input struct {
	Kind     InputKind
	Metadata Metadata // zero value when Kind == InputInspect
	Payload  []byte
}

// DepositKind discriminates a Deposit between the four supported asset
// families.
type DepositKind int

const (
	DepositEther DepositKind = iota
	DepositERC20
	DepositERC721
	DepositERC1155
)

// IDAmount is one (id, amount) leg of an ERC-1155 deposit or withdrawal.
type IDAmount struct {
	ID     Uint256
	Amount Uint256
}

// Deposit is the discriminated union over the four portal asset families.
// A single ERC-1155 deposit is represented as an IDsAmounts slice of length
// one; batch deposits have length two or more. This is a presentation-level
// distinction only — both decode paths produce the same Deposit kind.
type Deposit struct {
	Kind DepositKind

	Sender Address
	Token  Address // zero for DepositEther

	Amount Uint256    // DepositEther, DepositERC20
	ID     Uint256     // DepositERC721
	IDsAmounts []IDAmount // DepositERC1155
}

// OutputKind discriminates an Output between Voucher, Notice, and Report.
type OutputKind int

const (
	OutputVoucher OutputKind = iota
	OutputNotice
	OutputReport
)

// Output is one of the three kinds of effect the Environment can emit.
// Destination is only meaningful for OutputVoucher.
type Output struct {
	Kind        OutputKind
	Destination Address
	Payload     []byte
}

// FinishStatus is the status reported back to the rollup at the end of an
// input's processing.
type FinishStatus int

const (
	// Accept commits all outputs emitted during the input.
	Accept FinishStatus = iota
	// Reject discards all outputs emitted during the input.
	Reject
)

// String implements fmt.Stringer, and matches the wire representation
// expected by the rollup's /finish endpoint ("accept"/"reject").
func (s FinishStatus) String() string {
	if s == Accept {
		return "accept"
	}
	return "reject"
}

// PortalHandlerKind discriminates the three PortalHandlerConfig modes.
type PortalHandlerKind int

const (
	// PortalHandle decodes portal deposits and, per Advance, forwards them
	// to the application's Advance handler.
	PortalHandle PortalHandlerKind = iota
	// PortalIgnore never decodes portal deposits; the raw payload is always
	// forwarded to Advance untouched, even from a known portal sender.
	PortalIgnore
	// PortalDispense decodes and credits portal deposits but never invokes
	// the application handler for them.
	PortalDispense
)

// PortalHandlerConfig governs how the Supervisor treats inputs whose sender
// is a known portal. It is immutable for the lifetime of a run.
type PortalHandlerConfig struct {
	Kind PortalHandlerKind
	// Advance controls, under PortalHandle, whether a decoded deposit is
	// forwarded to the application's Advance handler (true) or silently
	// accepted without invoking the handler (false).
	Advance bool
}

// DefaultPortalHandlerConfig is Handle{Advance:true}, the default per
// RunOptions.
func DefaultPortalHandlerConfig() PortalHandlerConfig {
	return PortalHandlerConfig{Kind: PortalHandle, Advance: true}
}

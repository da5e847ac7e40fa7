package environment

import "errors"

// ErrAppAddressNotSet is returned by Withdraw on Ether, ERC-721, and
// ERC-1155 wallets when no AppAddressRelay input has delivered the dApp's
// own address yet.
var ErrAppAddressNotSet = errors.New("environment: app address not set")

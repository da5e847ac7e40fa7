package environment

import (
	"sync"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
)

// appAddressSlot holds the dApp's own on-chain address, delivered exactly
// once per run by the app_address_relay input and read by every subsequent
// Ether/ERC-721/ERC-1155 withdrawal. Guarded by its own RWMutex, distinct
// from the wallets' locks.
type appAddressSlot struct {
	mu   sync.RWMutex
	addr types.Address
	set  bool
}

func (s *appAddressSlot) get() (types.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr, s.set
}

func (s *appAddressSlot) put(addr types.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addr = addr
	s.set = true
}

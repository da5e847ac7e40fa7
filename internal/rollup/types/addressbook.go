package types

// PortalRole names a well-known role an address plays in the default
// Cartesi rollup deployment: a portal that originates deposits, the relay
// that delivers the dApp's own address, or an auxiliary infrastructure
// contract.
type PortalRole int

const (
	RoleEtherPortal PortalRole = iota
	RoleERC20Portal
	RoleERC721Portal
	RoleERC1155SinglePortal
	RoleERC1155BatchPortal
	RoleAppAddressRelay
	RoleInputBox
	RoleCartesiAppFactory
)

// AddressBook is an immutable mapping from well-known role to Address,
// overridable at startup.
type AddressBook struct {
	roles map[PortalRole]Address
}

// NewAddressBook builds an AddressBook from an explicit role→address
// mapping.
func NewAddressBook(roles map[PortalRole]Address) AddressBook {
	cp := make(map[PortalRole]Address, len(roles))
	for role, addr := range roles {
		cp[role] = addr
	}
	return AddressBook{roles: cp}
}

// Address returns the configured address for role, and whether it is
// configured at all.
func (b AddressBook) Address(role PortalRole) (Address, bool) {
	a, ok := b.roles[role]
	return a, ok
}

// PortalRoleFor returns the PortalRole whose configured address equals
// sender, if any. Used by the portal dispatcher to classify an input's
// sender.
func (b AddressBook) PortalRoleFor(sender Address) (PortalRole, bool) {
	for role, addr := range b.roles {
		if addr == sender {
			return role, true
		}
	}
	return 0, false
}

// defaultAddressBookLiterals are the canonical Cartesi-rollup deployment
// addresses.
var defaultAddressBookLiterals = map[PortalRole]string{
	RoleCartesiAppFactory:   "0x7122cd1221c20892234186facfe8615e6743ab02",
	RoleAppAddressRelay:     "0xf5de34d6bbc0446e2a45719e718efebaae179dae",
	RoleERC1155BatchPortal:  "0xedb53860a6b52bbb7561ad596416ee9965b055aa",
	RoleERC1155SinglePortal: "0x7cfb0193ca87eb6e48056885e026552c3a941fc4",
	RoleERC20Portal:         "0x9c21aeb2093c32ddbc53eef24b873bdcd1ada1db",
	RoleERC721Portal:        "0x237f8dd094c0e47f4236f12b4fa01d6dae89fb87",
	RoleEtherPortal:         "0xffdbe43d4c855bf7e0f105c400a50857f53ab044",
	RoleInputBox:            "0x59b22d57d4f067708ab0c00552767405926dc768",
}

// DefaultAddressBook returns the canonical Cartesi-rollup deployment
// addresses. Panics if a literal fails to parse, which would indicate a
// transcription bug in this package, not bad runtime input.
func DefaultAddressBook() AddressBook {
	roles := make(map[PortalRole]Address, len(defaultAddressBookLiterals))
	for role, lit := range defaultAddressBookLiterals {
		roles[role] = MustParseAddress(lit)
	}
	return NewAddressBook(roles)
}

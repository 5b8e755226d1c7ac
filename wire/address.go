package wire

import "chorddht/identifier"

// FromIdentifiedAddress converts a routing-table address into its wire
// encoding.
func FromIdentifiedAddress(a identifier.Address) WireAddress {
	return AddressToWire(a.IP, a.Port)
}

// ToIdentifiedAddress converts a wire address back into an
// identifier.Address, recomputing its identifier (hashing is
// deterministic, so this always matches what the sender had).
func ToIdentifiedAddress(w WireAddress) identifier.Address {
	return identifier.NewAddress(w.ToNetIP(), w.Port)
}

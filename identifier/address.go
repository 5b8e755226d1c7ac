package identifier

import (
	"fmt"
	"net"
)

// ipv6HashPrefixLen is the number of leading octets of an IPv6 address
// hashed into its Identifier. Using a fixed prefix (rather than the full
// 16 bytes) keeps address hashing the same shape as IPv4's 4-octet scheme;
// every node in the ring must agree on this constant or identifiers for
// the same address would diverge between nodes.
const ipv6HashPrefixLen = 8

// Address pairs a socket address with the Identifier computed from its IP
// octets (the port never contributes to the hash, per §4.1).
type Address struct {
	IP   net.IP
	Port uint16
	ID   Identifier
}

// NewAddress builds an Address and hashes its identifier exactly once.
// IPv4 addresses are stored in their 4-byte form, so an address built from
// a parsed string and one decoded from the wire compare equal as values.
func NewAddress(ip net.IP, port uint16) Address {
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	return Address{
		IP:   ip,
		Port: port,
		ID:   FromHash(addressHashInput(ip)),
	}
}

func addressHashInput(ip net.IP) []byte {
	if v4 := ip.To4(); v4 != nil {
		return v4
	}
	v6 := ip.To16()
	if len(v6) >= ipv6HashPrefixLen {
		return v6[:ipv6HashPrefixLen]
	}
	return v6
}

// String renders "ip:port" for logging.
func (a Address) String() string {
	return fmt.Sprintf("%s:%d", a.IP, a.Port)
}

// Equal compares IP, port and identifier.
func (a Address) Equal(other Address) bool {
	return a.ID == other.ID && a.Port == other.Port && a.IP.Equal(other.IP)
}

// ResolveAddress parses a "host:port" string into an Address.
func ResolveAddress(hostport string) (Address, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return Address{}, fmt.Errorf("identifier: resolve address %q: %w", hostport, err)
	}
	ips, err := net.LookupIP(host)
	if err != nil {
		return Address{}, fmt.Errorf("identifier: resolve address %q: %w", hostport, err)
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return Address{}, fmt.Errorf("identifier: resolve address %q: invalid port: %w", hostport, err)
	}
	return NewAddress(ips[0], uint16(port)), nil
}

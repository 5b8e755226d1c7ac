// Package identifier implements the 256-bit Chord ring arithmetic: hashing,
// wrapping add/sub, the "between" predicate used for ring responsibility,
// and the leading-zeros count used to pick a finger-table shortcut.
package identifier

import (
	"crypto/sha256"
	"fmt"
	"math/big"
)

// Size is the width of an Identifier in bytes (256 bits).
const Size = 32

// Bits is the width of the ring in bits.
const Bits = Size * 8

// Identifier is an unsigned 256-bit integer on the Chord ring, stored
// big-endian. The zero value is the identifier 0.
type Identifier [Size]byte

var ringModulus = new(big.Int).Lsh(big.NewInt(1), Bits)

// FromHash takes SHA-256 of b and returns the digest as an Identifier.
func FromHash(b []byte) Identifier {
	digest := sha256.Sum256(b)
	return Identifier(digest)
}

// FromRaw interprets b as a big-endian identifier without hashing. b must be
// exactly Size bytes.
func FromRaw(b []byte) (Identifier, error) {
	var id Identifier
	if len(b) != Size {
		return id, fmt.Errorf("identifier: FromRaw: want %d bytes, got %d", Size, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// Bytes returns the big-endian byte representation.
func (id Identifier) Bytes() [Size]byte {
	return id
}

// String renders the identifier as lowercase hex.
func (id Identifier) String() string {
	return fmt.Sprintf("%x", id[:])
}

// Short renders a truncated hex prefix, useful in log fields.
func (id Identifier) Short() string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

func (id Identifier) big() *big.Int {
	return new(big.Int).SetBytes(id[:])
}

func fromBig(v *big.Int) Identifier {
	v = new(big.Int).Mod(v, ringModulus)
	var id Identifier
	v.FillBytes(id[:])
	return id
}

// Add returns (id + other) mod 2^256.
func (id Identifier) Add(other Identifier) Identifier {
	return fromBig(new(big.Int).Add(id.big(), other.big()))
}

// Sub returns (id - other) mod 2^256.
func (id Identifier) Sub(other Identifier) Identifier {
	return fromBig(new(big.Int).Sub(id.big(), other.big()))
}

// WithBit returns the identifier with value 2^i (i counted from the least
// significant bit, 0 <= i < Bits) and every other bit clear.
func (id Identifier) WithBit(i int) Identifier {
	v := new(big.Int).Lsh(big.NewInt(1), uint(i))
	return fromBig(v)
}

// LeadingZeros returns the number of leading zero bits in the 256-bit
// big-endian representation, in [0, Bits]. The zero identifier has Bits
// leading zeros.
func (id Identifier) LeadingZeros() int {
	bitLen := id.big().BitLen()
	return Bits - bitLen
}

// IsBetween reports whether id lies in the half-open-on-the-left,
// closed-on-the-right ring arc (a, b]: id != a, and walking forward from a
// reaches id no later than it reaches b. IsBetween(a, a) is false for every
// id, including a itself.
func (id Identifier) IsBetween(a, b Identifier) bool {
	diffToID := b.Sub(id).big()
	diffToA := b.Sub(a).big()
	return diffToID.Cmp(diffToA) < 0
}

// Equal reports byte-for-byte equality. Identifier already supports == via
// Go array comparison; Equal exists for readability at call sites.
func (id Identifier) Equal(other Identifier) bool {
	return id == other
}

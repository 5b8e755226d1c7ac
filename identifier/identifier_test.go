package identifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRaw(t *testing.T, b byte) Identifier {
	t.Helper()
	raw := make([]byte, Size)
	for i := range raw {
		raw[i] = b
	}
	id, err := FromRaw(raw)
	require.NoError(t, err)
	return id
}

func TestFromRawRejectsWrongLength(t *testing.T) {
	_, err := FromRaw([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestFromHashIsDeterministic(t *testing.T) {
	a := FromHash([]byte("127.0.0.1"))
	b := FromHash([]byte("127.0.0.1"))
	assert.Equal(t, a, b)
}

func TestIsBetweenOpenInterval(t *testing.T) {
	zero := mustRaw(t, 0x00)
	assert.False(t, zero.IsBetween(zero, zero), "x.is_between(a, a) must be false for all x")
}

func TestIsBetweenWraparound(t *testing.T) {
	a := mustRaw(t, 0x10)
	b := mustRaw(t, 0x20)
	c := mustRaw(t, 0x18)

	assert.True(t, c.IsBetween(a, b))
	assert.False(t, c.IsBetween(b, a))

	// endpoint b is included, a is excluded
	assert.True(t, b.IsBetween(a, b))
	assert.False(t, a.IsBetween(a, b))
}

func TestIsBetweenExactlyOneHolds(t *testing.T) {
	a := FromHash([]byte("node-a"))
	b := FromHash([]byte("node-b"))
	c := FromHash([]byte("node-c"))

	if a == b {
		t.Skip("degenerate hash collision")
	}

	first := c.IsBetween(a, b)
	second := c.IsBetween(b, a) || c == a
	assert.True(t, first != second, "exactly one of is_between(a,b) or is_between(b,a)||c==a must hold")
}

func TestAddSubRoundTrip(t *testing.T) {
	a := mustRaw(t, 0x05)
	b := mustRaw(t, 0x09)
	sum := a.Add(b)
	back := sum.Sub(b)
	assert.Equal(t, a, back)
}

func TestAddWrapsModRingSize(t *testing.T) {
	max := mustRaw(t, 0xff)
	one := Identifier{}
	one[Size-1] = 1
	wrapped := max.Add(one)
	assert.Equal(t, Identifier{}, wrapped, "0xff...ff + 1 must wrap to 0")
}

func TestLeadingZeros(t *testing.T) {
	zero := Identifier{}
	assert.Equal(t, Bits, zero.LeadingZeros())

	topBit := Identifier{}
	topBit[0] = 0x80
	assert.Equal(t, 0, topBit.LeadingZeros())

	one := Identifier{}
	one[Size-1] = 0x01
	assert.Equal(t, Bits-1, one.LeadingZeros())
}

func TestWithBitRoundTrip(t *testing.T) {
	id := Identifier{}.WithBit(255)
	assert.Equal(t, 0, id.LeadingZeros())

	id = Identifier{}.WithBit(0)
	assert.Equal(t, Bits-1, id.LeadingZeros())
}

func TestBytesAndStringRoundTrip(t *testing.T) {
	raw := mustRaw(t, 0xab)
	parsed, err := FromRaw(raw.Bytes()[:])
	require.NoError(t, err)
	assert.Equal(t, raw, parsed)
	assert.Len(t, raw.String(), Size*2)
}

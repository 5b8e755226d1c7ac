package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(b byte, replication uint8) Key {
	raw := make([]byte, KeySize)
	for i := range raw {
		raw[i] = b
	}
	k, _ := NewKey(raw, replication)
	return k
}

func TestPutThenGet(t *testing.T) {
	table := NewTable()
	k := key(0x11, 0)

	require.NoError(t, table.Put(k, []byte{1, 2, 3}))

	v, ok := table.Get(k)
	assert.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, v)
}

func TestPutIsWriteOnce(t *testing.T) {
	table := NewTable()
	k := key(0x22, 0)

	require.NoError(t, table.Put(k, []byte{9}))
	err := table.Put(k, []byte{8})
	assert.ErrorIs(t, err, ErrExists)

	v, ok := table.Get(k)
	assert.True(t, ok)
	assert.Equal(t, []byte{9}, v, "original value must be unchanged after a rejected duplicate put")
}

func TestGetMiss(t *testing.T) {
	table := NewTable()
	_, ok := table.Get(key(0x33, 0))
	assert.False(t, ok)
}

func TestDistinctReplicationIndicesAreDistinctKeys(t *testing.T) {
	table := NewTable()
	k0 := key(0x44, 0)
	k1 := key(0x44, 1)

	require.NoError(t, table.Put(k0, []byte("zero")))
	require.NoError(t, table.Put(k1, []byte("one")))

	v, ok := table.Get(k1)
	assert.True(t, ok)
	assert.Equal(t, []byte("one"), v)
}

func TestKeyIdentifierStability(t *testing.T) {
	raw := make([]byte, KeySize)
	for i := range raw {
		raw[i] = 0x7a
	}
	a, err := NewKey(raw, 3)
	require.NoError(t, err)
	b, err := NewKey(raw, 3)
	require.NoError(t, err)

	assert.Equal(t, a.Identifier(), b.Identifier(), "two nodes must compute the same identifier for the same (raw_key, replication_index)")

	c, _ := NewKey(raw, 4)
	assert.NotEqual(t, a.Identifier(), c.Identifier())
}

// Package store implements the in-memory value table: a write-once map
// from replicated keys to their stored bytes. Nothing here is persisted —
// availability comes from replication across nodes, not from disk.
package store

import (
	"fmt"
	"sync"

	"chorddht/identifier"
)

// KeySize is the width of a raw key in bytes, before the replication
// index is appended.
const KeySize = 32

// Key is a raw 32-byte key plus a one-byte replication index. Two distinct
// replication indices for the same raw key hash to two (usually distinct)
// identifiers, which is how the DHT spreads replicas across the ring.
type Key struct {
	Raw         [KeySize]byte
	Replication uint8
}

// NewKey copies raw (which must be KeySize bytes) into a Key.
func NewKey(raw []byte, replication uint8) (Key, error) {
	var k Key
	if len(raw) != KeySize {
		return k, fmt.Errorf("store: key must be %d bytes, got %d", KeySize, len(raw))
	}
	copy(k.Raw[:], raw)
	k.Replication = replication
	return k, nil
}

// Identifier hashes the raw key bytes concatenated with the replication
// index, per §4.1.
func (k Key) Identifier() identifier.Identifier {
	buf := make([]byte, KeySize+1)
	copy(buf, k.Raw[:])
	buf[KeySize] = k.Replication
	return identifier.FromHash(buf)
}

// ErrExists is returned by Put when a key is already present; PUT is
// write-once per key, not an upsert.
var ErrExists = fmt.Errorf("store: key already present")

// Table is the mutex-guarded in-memory key/value store owned by the p2p
// handler. Put takes no TTL and nothing here expires — TTL is carried on
// the wire only as an advisory hint, per §3.
type Table struct {
	mu   sync.RWMutex
	data map[Key][]byte
}

// NewTable returns an empty value table.
func NewTable() *Table {
	return &Table{data: make(map[Key][]byte)}
}

// Put inserts value under key. Returns ErrExists if the key is already
// present; the caller must not overwrite it.
func (t *Table) Put(key Key, value []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.data[key]; ok {
		return ErrExists
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	t.data[key] = stored
	return nil
}

// Get returns the stored value and true, or nil and false on a miss.
func (t *Table) Get(key Key) ([]byte, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.data[key]
	return v, ok
}

// Len returns the number of keys currently stored, for logging.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.data)
}

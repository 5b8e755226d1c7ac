// Package routing owns the per-node routing table: current/predecessor/
// successor addresses and the finger table, plus the closest-peer query
// that both the p2p handler and the api handler rely on. A
// single mutex guards all of it; callers snapshot what they need before
// any blocking network I/O, never holding the lock across a send/recv
// (see the lock discipline in §5).
package routing

import (
	"sync"

	"chorddht/identifier"
)

// Table is the routing state owned by one node, created once at startup
// and mutated only on the stabilization path and by PredecessorNotify
// handling.
type Table struct {
	mu          sync.Mutex
	current     identifier.Address
	predecessor identifier.Address
	successor   identifier.Address
	fingers     []identifier.Address
}

// NewFreshRing builds the routing table for a node forming a new ring:
// predecessor = successor = current, every finger points at current (I2,
// I3, I4).
func NewFreshRing(current identifier.Address, numFingers int) *Table {
	fingers := make([]identifier.Address, numFingers)
	for i := range fingers {
		fingers[i] = current
	}
	return &Table{
		current:     current,
		predecessor: current,
		successor:   current,
		fingers:     fingers,
	}
}

// Current returns this node's own identified address.
func (t *Table) Current() identifier.Address {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Predecessor returns the current predecessor under the lock.
func (t *Table) Predecessor() identifier.Address {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.predecessor
}

// Successor returns the current successor under the lock.
func (t *Table) Successor() identifier.Address {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.successor
}

// Fingers returns the number of finger-table slots, F.
func (t *Table) Fingers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.fingers)
}

// Finger returns finger slot i.
func (t *Table) Finger(i int) identifier.Address {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fingers[i]
}

// SetPredecessor replaces the predecessor entry; no validation beyond the
// replacement itself happens at this layer.
func (t *Table) SetPredecessor(addr identifier.Address) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.predecessor = addr
}

// SetSuccessor replaces the successor entry.
func (t *Table) SetSuccessor(addr identifier.Address) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.successor = addr
}

// SetFinger replaces finger slot i.
func (t *Table) SetFinger(i int, addr identifier.Address) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fingers[i] = addr
}

// ResponsibleFor reports whether this node is responsible for id, per I1:
// id in (predecessor, current].
func (t *Table) ResponsibleFor(id identifier.Identifier) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return id.IsBetween(t.predecessor.ID, t.current.ID)
}

// ClosestPeer returns the best known peer toward id: this node if it's
// responsible, the successor if it's responsible for the arc just past
// this node, otherwise the finger-table shortcut indexed by the highest
// set bit of the offset from current to id (falling back to the
// successor if that finger slot isn't populated).
func (t *Table) ClosestPeer(id identifier.Identifier) identifier.Address {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id.IsBetween(t.predecessor.ID, t.current.ID) {
		return t.current
	}
	if id.IsBetween(t.current.ID, t.successor.ID) {
		return t.successor
	}

	offset := id.Sub(t.current.ID)
	z := offset.LeadingZeros()
	if z < len(t.fingers) {
		f := t.fingers[z]
		var zero identifier.Address
		if !f.Equal(zero) {
			return f
		}
	}
	return t.successor
}

// PredecessorNotifyResult is what a PredecessorNotify handler needs to
// reply with: the predecessor as it stood *before* this notify was
// applied (see §9's pinned open question).
type PredecessorNotifyResult struct {
	OldPredecessor identifier.Address
}

// ApplyPredecessorNotify performs the read-modify-write of §4.4's
// PredecessorNotify handler as a single critical section: remembers the
// old predecessor, adopts candidate as the new predecessor if it's a
// strict improvement or this node was still in its bootstrap self-loop,
// and also adopts candidate as the successor if this node had no better
// successor yet (self-loop). Returns the old predecessor for the reply.
func (t *Table) ApplyPredecessorNotify(candidate identifier.Address) PredecessorNotifyResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	old := t.predecessor

	improves := candidate.ID.IsBetween(t.predecessor.ID, t.current.ID)
	selfLoopPredecessor := t.predecessor.Equal(t.current)
	if improves || selfLoopPredecessor {
		t.predecessor = candidate
	}
	if t.successor.Equal(t.current) {
		t.successor = candidate
	}

	return PredecessorNotifyResult{OldPredecessor: old}
}

// ApplyStabilizeSuccessor implements step 1 of the stabilization tick:
// adopt candidate as the new successor if it lies strictly between
// current and the existing successor.
func (t *Table) ApplyStabilizeSuccessor(candidate identifier.Address) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if candidate.ID.IsBetween(t.current.ID, t.successor.ID) && candidate.ID != t.successor.ID {
		t.successor = candidate
	}
}

package routing

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"chorddht/identifier"
)

func addr(ip string, port uint16) identifier.Address {
	return identifier.NewAddress(net.ParseIP(ip), port)
}

func TestFreshRingInvariants(t *testing.T) {
	self := addr("127.0.0.1", 9000)
	table := NewFreshRing(self, 4)

	assert.Equal(t, self, table.Current())
	assert.Equal(t, self, table.Predecessor())
	assert.Equal(t, self, table.Successor())
	for i := 0; i < 4; i++ {
		assert.Equal(t, self, table.Finger(i))
	}
}

func TestResponsibleForSelfLoop(t *testing.T) {
	self := addr("127.0.0.1", 9000)
	table := NewFreshRing(self, 4)

	// with predecessor == successor == current, the sole node is
	// responsible for every identifier on the ring.
	other := identifier.FromHash([]byte("anything"))
	assert.True(t, table.ResponsibleFor(other))
}

func TestClosestPeerReturnsSelfWhenResponsible(t *testing.T) {
	self := addr("127.0.0.1", 9000)
	table := NewFreshRing(self, 4)

	target := identifier.FromHash([]byte("some-key"))
	assert.Equal(t, self, table.ClosestPeer(target))
}

func TestClosestPeerReturnsSuccessorForNextArc(t *testing.T) {
	self := addr("127.0.0.1", 9000)
	succ := addr("127.0.0.2", 9100)
	table := NewFreshRing(self, 4)
	table.SetSuccessor(succ)
	table.SetPredecessor(succ) // not responsible for everything anymore

	// target between current and successor (inclusive) should route to successor
	target := succ.ID
	assert.Equal(t, succ, table.ClosestPeer(target))
}

func TestApplyPredecessorNotifyBootstrapSelfLoop(t *testing.T) {
	self := addr("127.0.0.1", 9000)
	table := NewFreshRing(self, 4)
	newPeer := addr("127.0.0.1", 9100)

	result := table.ApplyPredecessorNotify(newPeer)

	assert.Equal(t, self, result.OldPredecessor, "reply must carry the predecessor from before this notify")
	assert.Equal(t, newPeer, table.Predecessor())
	assert.Equal(t, newPeer, table.Successor(), "successor self-loop must also be replaced on first notify")
}

func TestApplyStabilizeSuccessorAdoptsStrictlyBetween(t *testing.T) {
	self := addr("127.0.0.1", 9000)
	far := addr("127.0.0.2", 9200)
	table := NewFreshRing(self, 4)
	table.SetSuccessor(far)

	mid := addr("127.0.0.3", 9100)
	table.ApplyStabilizeSuccessor(mid)

	if mid.ID.IsBetween(self.ID, far.ID) {
		assert.Equal(t, mid, table.Successor())
	} else {
		assert.Equal(t, far, table.Successor())
	}
}

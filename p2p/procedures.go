package p2p

import (
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"chorddht/errs"
	"chorddht/identifier"
	"chorddht/store"
	"chorddht/wire"
)

// maxFindPeerHops bounds the find_peer loop against a routing bug that
// would otherwise spin forever; Chord's fingers bound real convergence to
// O(log N) hops, so this is not expected to trigger.
const maxFindPeerHops = 2 * identifier.Bits

// Procedures bundles the outbound "dial, send one request, read one
// reply, close" primitive (§4.5/§4.6) shared by the api handler and the
// stabilization engine. Every operation gets its own connection and its
// own read/write deadline, set fresh before each syscall rather than once
// at connect time, matching the original implementation.
type Procedures struct {
	timeout time.Duration
	log     *logrus.Entry
}

// NewProcedures builds a Procedures helper bound to a fixed per-operation
// timeout.
func NewProcedures(timeout time.Duration, log *logrus.Entry) *Procedures {
	return &Procedures{timeout: timeout, log: log}
}

// Query opens a connection to addr, writes req, reads exactly one reply,
// and releases the connection on every exit path (the "connection object"
// of §9: scoped acquisition with guaranteed release).
func (p *Procedures) Query(addr identifier.Address, req wire.Message) (wire.Message, error) {
	conn, err := net.DialTimeout("tcp", addr.String(), p.timeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(p.timeout))
	if err := wire.WriteFrame(conn, req); err != nil {
		return nil, err
	}

	conn.SetReadDeadline(time.Now().Add(p.timeout))
	reply, err := wire.ReadFrame(conn)
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// FindPeer implements §4.5's find_peer procedure: ask seed for the peer
// closest to id, then keep following PeerFound replies until one points
// back at the node just queried (convergence).
func (p *Procedures) FindPeer(id identifier.Identifier, seed identifier.Address) (identifier.Address, error) {
	current := seed
	for hop := 0; hop < maxFindPeerHops; hop++ {
		reply, err := p.Query(current, wire.PeerFind{Target: id.Bytes()})
		if err != nil {
			return identifier.Address{}, err
		}
		found, ok := reply.(wire.PeerFound)
		if !ok {
			return identifier.Address{}, errs.WrapUnexpectedMessage("find_peer: expected PeerFound, got %T", reply)
		}
		next := wire.ToIdentifiedAddress(found.Address)
		if next.Equal(current) {
			return next, nil
		}
		current = next
	}
	return identifier.Address{}, errs.WrapUnexpectedMessage("find_peer: exceeded %d hops without converging", maxFindPeerHops)
}

// NotifyPredecessor sends a PredecessorNotify to target announcing self,
// and returns the predecessor target held *before* applying it — the
// single round trip bootstrap and each stabilization tick rely on.
func (p *Procedures) NotifyPredecessor(target, self identifier.Address) (identifier.Address, error) {
	reply, err := p.Query(target, wire.PredecessorNotify{Address: wire.FromIdentifiedAddress(self)})
	if err != nil {
		return identifier.Address{}, err
	}
	r, ok := reply.(wire.PredecessorReply)
	if !ok {
		return identifier.Address{}, errs.WrapUnexpectedMessage("predecessor_notify: expected PredecessorReply, got %T", reply)
	}
	return wire.ToIdentifiedAddress(r.Address), nil
}

// StorageGet sends a StorageGet request for key to addr.
func (p *Procedures) StorageGet(addr identifier.Address, key store.Key) (wire.Message, error) {
	return p.Query(addr, wire.StorageGet{Replication: key.Replication, Key: key.Raw})
}

// StoragePut sends a StoragePut request for key/value to addr.
func (p *Procedures) StoragePut(addr identifier.Address, ttl uint16, key store.Key, value []byte) (wire.Message, error) {
	return p.Query(addr, wire.StoragePut{TTL: ttl, Replication: key.Replication, Key: key.Raw, Value: value})
}

// Package apihandler implements the local api surface of §4.5: it
// translates one PUT/GET request from a same-host client into a sequence
// of outbound p2p procedures (peer lookup + storage get/put) via
// chorddht/p2p's Procedures helper.
package apihandler

import (
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"chorddht/errs"
	"chorddht/identifier"
	"chorddht/p2p"
	"chorddht/routing"
	"chorddht/store"
	"chorddht/wire"
)

// Handler implements server.Handler for the api surface.
type Handler struct {
	table          *routing.Table
	procs          *p2p.Procedures
	maxReplication int
	timeout        time.Duration
	log            *logrus.Entry
}

// NewHandler wires an api Handler to the local routing table (for the
// initial closest_peer seed) and the shared outbound procedures helper.
// maxReplication bounds the GET fallback search (§9's first open
// question, resolved as a configurable value in SPEC_FULL.md).
func NewHandler(table *routing.Table, procs *p2p.Procedures, maxReplication int, timeout time.Duration, log *logrus.Entry) *Handler {
	return &Handler{table: table, procs: procs, maxReplication: maxReplication, timeout: timeout, log: log}
}

// HandleConnection reads one DhtPut or DhtGet request and, for GET,
// writes back DhtSuccess/DhtFailure. PUT never replies — per §7, an
// I/O error anywhere in its fan-out aborts the whole procedure and the
// connection is closed, which is how the client observes the failure.
func (h *Handler) HandleConnection(conn net.Conn) error {
	conn.SetReadDeadline(time.Now().Add(h.timeout))
	msg, err := wire.ReadFrame(conn)
	if err != nil {
		return err
	}

	switch m := msg.(type) {
	case wire.DhtPut:
		return h.handlePut(m)
	case wire.DhtGet:
		reply := h.handleGet(m)
		conn.SetWriteDeadline(time.Now().Add(h.timeout))
		return wire.WriteFrame(conn, reply)
	default:
		return errs.WrapUnexpectedMessage("api handler received %T", msg)
	}
}

// OnError logs a failed api request; the client already observed the
// closed connection.
func (h *Handler) OnError(err error) {
	h.log.WithError(err).Debug("api request failed")
}

func (h *Handler) resolveTarget(id identifier.Identifier) (identifier.Address, error) {
	seed := h.table.ClosestPeer(id)
	return h.procs.FindPeer(id, seed)
}

// handlePut stores replicas 0..replication (inclusive). Any I/O or
// unexpected-message error aborts the whole operation immediately —
// there is no partial-success reply to give the client, so §7 has the
// node abort rather than silently skip a replica.
func (h *Handler) handlePut(m wire.DhtPut) error {
	for r := 0; r <= int(m.Replication); r++ {
		key, err := store.NewKey(m.Key[:], uint8(r))
		if err != nil {
			return err
		}
		target, err := h.resolveTarget(key.Identifier())
		if err != nil {
			return err
		}
		reply, err := h.procs.StoragePut(target, m.TTL, key, m.Value)
		if err != nil {
			return err
		}
		switch reply.(type) {
		case wire.StoragePutSuccess, wire.StorageFailure:
			// either is completion for this replication index
		default:
			return errs.WrapUnexpectedMessage("dht_put: unexpected reply %T for replication index %d", reply, r)
		}
	}
	return nil
}

// handleGet tries replication indices 0..maxReplication, returning on the
// first hit. Any failure for an index (timeout, StorageFailure, an
// unreachable target) is swallowed and the search moves to the next
// index — this replication fallback is the point of the search, not an
// error condition.
func (h *Handler) handleGet(m wire.DhtGet) wire.Message {
	for r := 0; r <= h.maxReplication; r++ {
		key, err := store.NewKey(m.Key[:], uint8(r))
		if err != nil {
			continue
		}
		target, err := h.resolveTarget(key.Identifier())
		if err != nil {
			h.log.WithError(err).WithField("replication", r).Trace("dht_get: peer lookup failed, trying next replica")
			continue
		}
		reply, err := h.procs.StorageGet(target, key)
		if err != nil {
			h.log.WithError(err).WithField("replication", r).Trace("dht_get: storage query failed, trying next replica")
			continue
		}
		if success, ok := reply.(wire.StorageGetSuccess); ok {
			return wire.DhtSuccess{Key: m.Key, Value: success.Value}
		}
	}
	return wire.DhtFailure{Key: m.Key}
}

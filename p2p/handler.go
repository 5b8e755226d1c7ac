// Package p2p implements the node->node surface: the inbound state
// machine of §4.4 (storage, peer-find, predecessor-notify) and, in
// procedures.go, the outbound dial/query primitives the api handler and
// the stabilization engine both build on.
package p2p

import (
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"chorddht/errs"
	"chorddht/identifier"
	"chorddht/routing"
	"chorddht/store"
	"chorddht/wire"
)

// Handler implements server.Handler for the p2p surface: read one
// message, dispatch on type, reply at most once, return.
type Handler struct {
	table   *routing.Table
	values  *store.Table
	timeout time.Duration
	log     *logrus.Entry
}

// NewHandler wires a Handler to the routing table and value store it
// serves requests against.
func NewHandler(table *routing.Table, values *store.Table, timeout time.Duration, log *logrus.Entry) *Handler {
	return &Handler{table: table, values: values, timeout: timeout, log: log}
}

// HandleConnection reads exactly one framed message, dispatches it, and
// writes the reply (if any) before returning. Framing/decode errors and
// dispatch errors both propagate to the caller, which logs them via
// OnError and closes the connection regardless.
func (h *Handler) HandleConnection(conn net.Conn) error {
	conn.SetReadDeadline(time.Now().Add(h.timeout))
	msg, err := wire.ReadFrame(conn)
	if err != nil {
		return err
	}

	reply, err := h.dispatch(msg)
	if err != nil {
		return err
	}
	if reply == nil {
		return nil
	}

	conn.SetWriteDeadline(time.Now().Add(h.timeout))
	return wire.WriteFrame(conn, reply)
}

// OnError logs dispatch/framing failures at debug level: a misbehaving
// peer must never crash this node, per §7's policy.
func (h *Handler) OnError(err error) {
	h.log.WithError(err).Debug("p2p request failed")
}

func (h *Handler) dispatch(msg wire.Message) (wire.Message, error) {
	switch m := msg.(type) {
	case wire.StorageGet:
		return h.handleStorageGet(m)
	case wire.StoragePut:
		return h.handleStoragePut(m)
	case wire.PeerFind:
		return h.handlePeerFind(m)
	case wire.PredecessorNotify:
		return h.handlePredecessorNotify(m)
	default:
		return nil, errs.WrapUnexpectedMessage("p2p handler received %T", msg)
	}
}

func (h *Handler) handleStorageGet(m wire.StorageGet) (wire.Message, error) {
	key, err := store.NewKey(m.Key[:], m.Replication)
	if err != nil {
		return nil, errs.WrapInvalidInput("%v", err)
	}
	id := key.Identifier()

	if !h.table.ResponsibleFor(id) {
		// Deliberate silent drop: this preserves at-most-one-copy-per-
		// replication-index semantics under stale finger tables. Callers
		// wanting a definitive answer use the api handler's
		// find-then-query loop instead.
		return nil, nil
	}

	value, ok := h.values.Get(key)
	if !ok {
		return wire.StorageFailure{Key: m.Key}, nil
	}
	return wire.StorageGetSuccess{Key: m.Key, Value: value}, nil
}

func (h *Handler) handleStoragePut(m wire.StoragePut) (wire.Message, error) {
	key, err := store.NewKey(m.Key[:], m.Replication)
	if err != nil {
		return nil, errs.WrapInvalidInput("%v", err)
	}
	id := key.Identifier()

	if !h.table.ResponsibleFor(id) {
		return nil, nil
	}

	if err := h.values.Put(key, m.Value); err != nil {
		return wire.StorageFailure{Key: m.Key}, nil
	}
	return wire.StoragePutSuccess{Key: m.Key}, nil
}

func (h *Handler) handlePeerFind(m wire.PeerFind) (wire.Message, error) {
	target, err := identifier.FromRaw(m.Target[:])
	if err != nil {
		return nil, errs.WrapInvalidInput("%v", err)
	}
	peer := h.table.ClosestPeer(target)
	return wire.PeerFound{Target: m.Target, Address: wire.FromIdentifiedAddress(peer)}, nil
}

func (h *Handler) handlePredecessorNotify(m wire.PredecessorNotify) (wire.Message, error) {
	candidate := wire.ToIdentifiedAddress(m.Address)
	result := h.table.ApplyPredecessorNotify(candidate)
	return wire.PredecessorReply{Address: wire.FromIdentifiedAddress(result.OldPredecessor)}, nil
}

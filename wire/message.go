// Package wire implements the framed binary protocol of §4.3: message
// type definitions and the big-endian encode/decode codec shared by the
// api and p2p surfaces.
package wire

// Type is the 2-byte message type code carried in every frame header.
type Type uint16

const (
	TypeDhtPut     Type = 650
	TypeDhtGet     Type = 651
	TypeDhtSuccess Type = 652
	TypeDhtFailure Type = 653

	TypeStorageGet        Type = 1000
	TypeStoragePut        Type = 1001
	TypeStorageGetSuccess Type = 1002
	TypeStoragePutSuccess Type = 1003
	TypeStorageFailure    Type = 1004

	TypePeerFind          Type = 1050
	TypePeerFound         Type = 1051
	TypePredecessorNotify Type = 1052
	TypePredecessorReply  Type = 1053
)

// HeaderSize is the fixed 4-byte length+type header.
const HeaderSize = 4

// MaxFrameSize is the largest total frame size (header + payload) the
// wire format allows, per §4.3/§6.
const MaxFrameSize = 64000

// Message is implemented by every payload type; Type identifies which one
// for dispatch and encoding.
type Message interface {
	Type() Type
}

// KeySize is the width of a raw storage key on the wire.
const KeySize = 32

// DhtPut is an api->node request to store a value.
type DhtPut struct {
	TTL         uint16
	Replication uint8
	Key         [KeySize]byte
	Value       []byte
}

func (DhtPut) Type() Type { return TypeDhtPut }

// DhtGet is an api->node request to fetch a value.
type DhtGet struct {
	Key [KeySize]byte
}

func (DhtGet) Type() Type { return TypeDhtGet }

// DhtSuccess is the node->api reply carrying a found value.
type DhtSuccess struct {
	Key   [KeySize]byte
	Value []byte
}

func (DhtSuccess) Type() Type { return TypeDhtSuccess }

// DhtFailure is the node->api reply for "not found after exhausting the
// replication search".
type DhtFailure struct {
	Key [KeySize]byte
}

func (DhtFailure) Type() Type { return TypeDhtFailure }

// StorageGet is a node->node request for one replica of a key.
type StorageGet struct {
	Replication uint8
	Key         [KeySize]byte
}

func (StorageGet) Type() Type { return TypeStorageGet }

// StoragePut is a node->node request to store one replica of a key.
type StoragePut struct {
	TTL         uint16
	Replication uint8
	Key         [KeySize]byte
	Value       []byte
}

func (StoragePut) Type() Type { return TypeStoragePut }

// StorageGetSuccess is the reply to StorageGet on a hit.
type StorageGetSuccess struct {
	Key   [KeySize]byte
	Value []byte
}

func (StorageGetSuccess) Type() Type { return TypeStorageGetSuccess }

// StoragePutSuccess is the reply to StoragePut on a successful insert.
type StoragePutSuccess struct {
	Key [KeySize]byte
}

func (StoragePutSuccess) Type() Type { return TypeStoragePutSuccess }

// StorageFailure is the reply to StorageGet (miss) or StoragePut
// (duplicate key).
type StorageFailure struct {
	Key [KeySize]byte
}

func (StorageFailure) Type() Type { return TypeStorageFailure }

// PeerFind asks the receiver for its closest known peer to Target.
type PeerFind struct {
	Target [KeySize]byte
}

func (PeerFind) Type() Type { return TypePeerFind }

// PeerFound is the reply to PeerFind.
type PeerFound struct {
	Target  [KeySize]byte
	Address WireAddress
}

func (PeerFound) Type() Type { return TypePeerFound }

// PredecessorNotify announces the sender's address to the receiver, which
// may adopt it as its predecessor (or successor, on first contact).
type PredecessorNotify struct {
	Address WireAddress
}

func (PredecessorNotify) Type() Type { return TypePredecessorNotify }

// PredecessorReply carries the receiver's predecessor *before* this
// notify was applied — this is the "old predecessor" protocol pinned by
// §9's second open question, required for bootstrap to learn its own
// predecessor in a single round trip.
type PredecessorReply struct {
	Address WireAddress
}

func (PredecessorReply) Type() Type { return TypePredecessorReply }

// WireAddress is the 18-byte on-the-wire address encoding: a 16-byte
// IPv6(-mapped) address followed by a 2-byte port.
type WireAddress struct {
	IP   [16]byte
	Port uint16
}

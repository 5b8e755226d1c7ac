package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"chorddht/errs"
)

// AddressToWire converts an IP/port pair into the 18-byte wire encoding.
// IPv4 addresses are encoded as IPv4-mapped-in-IPv6 ("::ffff:a.b.c.d").
func AddressToWire(ip net.IP, port uint16) WireAddress {
	var w WireAddress
	if v4 := ip.To4(); v4 != nil {
		copy(w.IP[:10], []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
		w.IP[10] = 0xff
		w.IP[11] = 0xff
		copy(w.IP[12:], v4)
	} else {
		copy(w.IP[:], ip.To16())
	}
	w.Port = port
	return w
}

// ToNetIP returns the net.IP this WireAddress encodes: IPv4 if it was
// IPv4-mapped, else IPv6.
func (w WireAddress) ToNetIP() net.IP {
	ip := net.IP(w.IP[:])
	if v4 := ip.To4(); v4 != nil {
		return v4
	}
	return ip
}

// Encode serializes msg into a length-prefixed frame. The size field is
// backpatched after the payload is written, matching the original
// encoder's "reserve, write, backpatch" sequence.
func Encode(msg Message) ([]byte, error) {
	var buf bytes.Buffer
	// reserve the 2-byte size field
	buf.Write([]byte{0, 0})
	if err := binary.Write(&buf, binary.BigEndian, uint16(msg.Type())); err != nil {
		return nil, err
	}
	if err := encodePayload(&buf, msg); err != nil {
		return nil, err
	}

	total := buf.Len()
	if total > MaxFrameSize {
		return nil, fmt.Errorf("wire: encoded message is %d bytes, exceeds max %d", total, MaxFrameSize)
	}
	out := buf.Bytes()
	binary.BigEndian.PutUint16(out[0:2], uint16(total))
	return out, nil
}

func encodePayload(buf *bytes.Buffer, msg Message) error {
	switch m := msg.(type) {
	case DhtPut:
		binary.Write(buf, binary.BigEndian, m.TTL)
		buf.WriteByte(m.Replication)
		buf.WriteByte(0) // reserved
		buf.Write(m.Key[:])
		buf.Write(m.Value)
	case DhtGet:
		buf.Write(m.Key[:])
	case DhtSuccess:
		buf.Write(m.Key[:])
		buf.Write(m.Value)
	case DhtFailure:
		buf.Write(m.Key[:])
	case StorageGet:
		buf.WriteByte(m.Replication)
		buf.Write([]byte{0, 0, 0}) // reserved
		buf.Write(m.Key[:])
	case StoragePut:
		binary.Write(buf, binary.BigEndian, m.TTL)
		buf.WriteByte(m.Replication)
		buf.WriteByte(0) // reserved
		buf.Write(m.Key[:])
		buf.Write(m.Value)
	case StorageGetSuccess:
		buf.Write(m.Key[:])
		buf.Write(m.Value)
	case StoragePutSuccess:
		buf.Write(m.Key[:])
	case StorageFailure:
		buf.Write(m.Key[:])
	case PeerFind:
		buf.Write(m.Target[:])
	case PeerFound:
		buf.Write(m.Target[:])
		buf.Write(m.Address.IP[:])
		binary.Write(buf, binary.BigEndian, m.Address.Port)
	case PredecessorNotify:
		buf.Write(m.Address.IP[:])
		binary.Write(buf, binary.BigEndian, m.Address.Port)
	case PredecessorReply:
		buf.Write(m.Address.IP[:])
		binary.Write(buf, binary.BigEndian, m.Address.Port)
	default:
		return fmt.Errorf("wire: unknown message type %T", msg)
	}
	return nil
}

// Decode parses a complete frame (header + payload, exactly as read from
// the wire) into a Message. A size field that doesn't match len(frame), a
// size below HeaderSize, or an unknown type code are all ErrInvalidInput.
func Decode(frame []byte) (Message, error) {
	if len(frame) < HeaderSize {
		return nil, errs.WrapInvalidInput("frame shorter than header: %d bytes", len(frame))
	}
	size := binary.BigEndian.Uint16(frame[0:2])
	if int(size) != len(frame) {
		return nil, errs.WrapInvalidInput("declared size %d does not match frame length %d", size, len(frame))
	}
	if size < HeaderSize {
		return nil, errs.WrapInvalidInput("declared size %d below minimum header size %d", size, HeaderSize)
	}
	typ := Type(binary.BigEndian.Uint16(frame[2:4]))
	payload := frame[4:]

	switch typ {
	case TypeDhtPut:
		return decodeDhtPut(payload)
	case TypeDhtGet:
		return decodeDhtGet(payload)
	case TypeDhtSuccess:
		return decodeDhtSuccess(payload)
	case TypeDhtFailure:
		return decodeDhtFailure(payload)
	case TypeStorageGet:
		return decodeStorageGet(payload)
	case TypeStoragePut:
		return decodeStoragePut(payload)
	case TypeStorageGetSuccess:
		return decodeStorageGetSuccess(payload)
	case TypeStoragePutSuccess:
		return decodeStoragePutSuccess(payload)
	case TypeStorageFailure:
		return decodeStorageFailure(payload)
	case TypePeerFind:
		return decodePeerFind(payload)
	case TypePeerFound:
		return decodePeerFound(payload)
	case TypePredecessorNotify:
		return decodePredecessorNotify(payload)
	case TypePredecessorReply:
		return decodePredecessorReply(payload)
	default:
		return nil, errs.WrapInvalidInput("unknown message type %d", typ)
	}
}

func decodeDhtPut(p []byte) (Message, error) {
	const fixed = 2 + 1 + 1 + KeySize
	if len(p) < fixed {
		return nil, errs.WrapInvalidInput("DhtPut payload too short: %d bytes", len(p))
	}
	m := DhtPut{
		TTL:         binary.BigEndian.Uint16(p[0:2]),
		Replication: p[2],
	}
	copy(m.Key[:], p[4:4+KeySize])
	m.Value = append([]byte(nil), p[fixed:]...)
	return m, nil
}

func decodeDhtGet(p []byte) (Message, error) {
	if len(p) != KeySize {
		return nil, errs.WrapInvalidInput("DhtGet payload must be %d bytes, got %d", KeySize, len(p))
	}
	var m DhtGet
	copy(m.Key[:], p)
	return m, nil
}

func decodeDhtSuccess(p []byte) (Message, error) {
	if len(p) < KeySize {
		return nil, errs.WrapInvalidInput("DhtSuccess payload too short: %d bytes", len(p))
	}
	var m DhtSuccess
	copy(m.Key[:], p[:KeySize])
	m.Value = append([]byte(nil), p[KeySize:]...)
	return m, nil
}

func decodeDhtFailure(p []byte) (Message, error) {
	if len(p) != KeySize {
		return nil, errs.WrapInvalidInput("DhtFailure payload must be %d bytes, got %d", KeySize, len(p))
	}
	var m DhtFailure
	copy(m.Key[:], p)
	return m, nil
}

func decodeStorageGet(p []byte) (Message, error) {
	const want = 1 + 3 + KeySize
	if len(p) != want {
		return nil, errs.WrapInvalidInput("StorageGet payload must be %d bytes, got %d", want, len(p))
	}
	m := StorageGet{Replication: p[0]}
	copy(m.Key[:], p[4:])
	return m, nil
}

func decodeStoragePut(p []byte) (Message, error) {
	const fixed = 2 + 1 + 1 + KeySize
	if len(p) < fixed {
		return nil, errs.WrapInvalidInput("StoragePut payload too short: %d bytes", len(p))
	}
	m := StoragePut{
		TTL:         binary.BigEndian.Uint16(p[0:2]),
		Replication: p[2],
	}
	copy(m.Key[:], p[4:4+KeySize])
	m.Value = append([]byte(nil), p[fixed:]...)
	return m, nil
}

func decodeStorageGetSuccess(p []byte) (Message, error) {
	if len(p) < KeySize {
		return nil, errs.WrapInvalidInput("StorageGetSuccess payload too short: %d bytes", len(p))
	}
	var m StorageGetSuccess
	copy(m.Key[:], p[:KeySize])
	m.Value = append([]byte(nil), p[KeySize:]...)
	return m, nil
}

func decodeStoragePutSuccess(p []byte) (Message, error) {
	if len(p) != KeySize {
		return nil, errs.WrapInvalidInput("StoragePutSuccess payload must be %d bytes, got %d", KeySize, len(p))
	}
	var m StoragePutSuccess
	copy(m.Key[:], p)
	return m, nil
}

func decodeStorageFailure(p []byte) (Message, error) {
	if len(p) != KeySize {
		return nil, errs.WrapInvalidInput("StorageFailure payload must be %d bytes, got %d", KeySize, len(p))
	}
	var m StorageFailure
	copy(m.Key[:], p)
	return m, nil
}

func decodePeerFind(p []byte) (Message, error) {
	if len(p) != KeySize {
		return nil, errs.WrapInvalidInput("PeerFind payload must be %d bytes, got %d", KeySize, len(p))
	}
	var m PeerFind
	copy(m.Target[:], p)
	return m, nil
}

const wireAddrSize = 16 + 2

func decodePeerFound(p []byte) (Message, error) {
	want := KeySize + wireAddrSize
	if len(p) != want {
		return nil, errs.WrapInvalidInput("PeerFound payload must be %d bytes, got %d", want, len(p))
	}
	var m PeerFound
	copy(m.Target[:], p[:KeySize])
	copy(m.Address.IP[:], p[KeySize:KeySize+16])
	m.Address.Port = binary.BigEndian.Uint16(p[KeySize+16:])
	return m, nil
}

func decodePredecessorNotify(p []byte) (Message, error) {
	if len(p) != wireAddrSize {
		return nil, errs.WrapInvalidInput("PredecessorNotify payload must be %d bytes, got %d", wireAddrSize, len(p))
	}
	var m PredecessorNotify
	copy(m.Address.IP[:], p[:16])
	m.Address.Port = binary.BigEndian.Uint16(p[16:])
	return m, nil
}

func decodePredecessorReply(p []byte) (Message, error) {
	if len(p) != wireAddrSize {
		return nil, errs.WrapInvalidInput("PredecessorReply payload must be %d bytes, got %d", wireAddrSize, len(p))
	}
	var m PredecessorReply
	copy(m.Address.IP[:], p[:16])
	m.Address.Port = binary.BigEndian.Uint16(p[16:])
	return m, nil
}

// ReadFrame reads exactly one framed message from r: the 2-byte size
// header, then size-2 more bytes, then decodes. It never reads past the
// frame boundary, so r can be a live, persistent TCP connection.
func ReadFrame(r io.Reader) (Message, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint16(header[:])
	if size < HeaderSize {
		return nil, errs.WrapInvalidInput("declared size %d below minimum header size %d", size, HeaderSize)
	}
	if size > MaxFrameSize {
		return nil, errs.WrapInvalidInput("declared size %d exceeds max frame size %d", size, MaxFrameSize)
	}
	rest := make([]byte, size-2)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}
	frame := make([]byte, size)
	copy(frame[0:2], header[:])
	copy(frame[2:], rest)
	return Decode(frame)
}

// WriteFrame encodes msg and writes the full frame to w in one call.
func WriteFrame(w io.Writer, msg Message) error {
	frame, err := Encode(msg)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

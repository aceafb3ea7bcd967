// Package axpdu implements the AgentX (RFC 2741) wire codec: the OID and
// typed-value encodings of §4.1, the 20-byte PDU header and per-type
// bodies of §4.2, laid out the way snmp/session.go stages a type-specific
// body build before wrapping it in an envelope.
package axpdu

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Type is the AgentX PDU type tag (RFC 2741 §6.1).
type Type uint8

const (
	TypeOpen          Type = 1
	TypeClose         Type = 2
	TypeRegister      Type = 3
	TypeUnregister    Type = 4
	TypeGet           Type = 6
	TypeGetNext       Type = 7
	TypeGetBulk       Type = 8
	TypeTestSet       Type = 9
	TypeCommitSet     Type = 10
	TypeUndoSet       Type = 11
	TypeCleanupSet    Type = 12
	TypePing          Type = 13
	TypeResponse      Type = 18
)

// Flags bits, RFC 2741 §6.1.
const (
	FlagInstanceRegistration byte = 1 << 0
	FlagNewIndex             byte = 1 << 1
	FlagAnyIndex             byte = 1 << 2
	FlagNonDefaultContext    byte = 1 << 3
	FlagNetworkByteOrder     byte = 1 << 4
)

// HeaderLen is the fixed AgentX PDU header size in bytes.
const HeaderLen = 20

// AgentXVersion is the only version this codec speaks.
const AgentXVersion = 1

// Header is the fixed 20-byte AgentX PDU header.
type Header struct {
	Version        uint8
	Type           Type
	Flags          byte
	SessionID      uint32
	TransactionID  uint32
	PacketID       uint32
	PayloadLength  uint32
}

func (h Header) byteOrder() binary.ByteOrder {
	if h.Flags&FlagNetworkByteOrder != 0 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// NonDefaultContext reports whether the body carries a leading context
// octet string.
func (h Header) NonDefaultContext() bool { return h.Flags&FlagNonDefaultContext != 0 }

// Marshal encodes the header to exactly HeaderLen bytes.
func (h Header) Marshal() []byte {
	buf := make([]byte, HeaderLen)
	buf[0] = h.Version
	buf[1] = byte(h.Type)
	buf[2] = h.Flags
	buf[3] = 0 // reserved
	bo := h.byteOrder()
	bo.PutUint32(buf[4:8], h.SessionID)
	bo.PutUint32(buf[8:12], h.TransactionID)
	bo.PutUint32(buf[12:16], h.PacketID)
	bo.PutUint32(buf[16:20], h.PayloadLength)
	return buf
}

// UnmarshalHeader decodes a Header from exactly HeaderLen bytes of b. A
// malformed header (wrong version, short buffer) is a protocol-fatal
// error: the caller must close the connection rather than attempt to
// answer with a response PDU, unlike a malformed body, which is answered
// with a parseError response. The type byte is not checked here; an
// unknown type is reported by body decoding as a ParseError.
func UnmarshalHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, errors.Errorf("axpdu: short header: %d bytes", len(b))
	}
	h := Header{
		Version: b[0],
		Type:    Type(b[1]),
		Flags:   b[2],
	}
	if h.Version != AgentXVersion {
		return Header{}, errors.Errorf("axpdu: unsupported version %d", h.Version)
	}
	bo := h.byteOrder()
	h.SessionID = bo.Uint32(b[4:8])
	h.TransactionID = bo.Uint32(b[8:12])
	h.PacketID = bo.Uint32(b[12:16])
	h.PayloadLength = bo.Uint32(b[16:20])
	return h, nil
}

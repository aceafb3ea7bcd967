package axpdu

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/packetflux/agentx-subagent/internal/axvalue"
	"github.com/packetflux/agentx-subagent/internal/oid"
)

// SearchRange is the (start, end) OID pair a GetNext/GetBulk request range
// carries; Include marks start as inclusive of its own OID (RFC 2741 §5.2).
type SearchRange struct {
	Start   oid.OID
	Include bool
	End     oid.OID
}

// VarBind pairs an OID with its value in a response PDU's varbind list.
type VarBind struct {
	Name  oid.OID
	Value axvalue.Value
}

// encodeOID writes the AgentX OID wire form: n_subids, prefix_byte,
// include_flag, reserved, then n_subids uint32 sub-identifiers. RFC 2741
// allows collapsing a leading internet prefix (1,3,6,1) into prefix_byte;
// this encoder never does, and always writes the full sub-identifier list
// with prefix_byte = 0. decodeOID accepts both forms.
func encodeOID(bo binary.ByteOrder, o oid.OID, include bool) []byte {
	n := len(o)
	buf := make([]byte, 4+4*n)
	buf[0] = byte(n)
	buf[1] = 0 // prefix_byte
	if include {
		buf[2] = 1
	}
	buf[3] = 0 // reserved
	for i, sub := range o {
		bo.PutUint32(buf[4+4*i:8+4*i], sub)
	}
	return buf
}

// decodeOID reads the AgentX OID wire form from the front of b, returning
// the OID, whether include_flag was set, and the number of bytes consumed.
func decodeOID(bo binary.ByteOrder, b []byte) (oid.OID, bool, int, error) {
	if len(b) < 4 {
		return nil, false, 0, errors.New("axpdu: truncated OID header")
	}
	n := int(b[0])
	prefixByte := b[1]
	include := b[2] != 0
	need := 4 + 4*n
	if len(b) < need {
		return nil, false, 0, errors.Errorf("axpdu: truncated OID body: need %d have %d", need, len(b))
	}
	var out oid.OID
	if prefixByte != 0 {
		out = append(out, oid.InternetPrefix...)
		out = append(out, uint32(prefixByte))
	}
	for i := 0; i < n; i++ {
		out = append(out, bo.Uint32(b[4+4*i:8+4*i]))
	}
	return out, include, need, nil
}

// encodeString writes the AgentX octet-string wire form: a 4-byte length
// followed by the bytes, zero-padded to a multiple of 4 (oid.Pad4).
func encodeString(bo binary.ByteOrder, s []byte) []byte {
	n := len(s)
	pad := oid.Pad4(n)
	buf := make([]byte, 4+n+pad)
	bo.PutUint32(buf[0:4], uint32(n))
	copy(buf[4:4+n], s)
	return buf
}

// decodeString reads the AgentX octet-string wire form from the front of
// b, returning the bytes and the number of bytes consumed (including the
// length prefix and any padding).
func decodeString(bo binary.ByteOrder, b []byte) ([]byte, int, error) {
	if len(b) < 4 {
		return nil, 0, errors.New("axpdu: truncated string length")
	}
	n := int(bo.Uint32(b[0:4]))
	pad := oid.Pad4(n)
	need := 4 + n + pad
	if len(b) < need {
		return nil, 0, errors.Errorf("axpdu: truncated string body: need %d have %d", need, len(b))
	}
	out := make([]byte, n)
	copy(out, b[4:4+n])
	return out, need, nil
}

// encodeUint32 / decodeUint32 are thin wrappers kept for readability at
// call sites that encode/decode a single bare integer field.
func encodeUint32(bo binary.ByteOrder, v uint32) []byte {
	buf := make([]byte, 4)
	bo.PutUint32(buf, v)
	return buf
}

func decodeUint32(bo binary.ByteOrder, b []byte) (uint32, int, error) {
	if len(b) < 4 {
		return 0, 0, errors.New("axpdu: truncated integer")
	}
	return bo.Uint32(b[0:4]), 4, nil
}

// valueWireTag is the AgentX VarBind value-type tag (RFC 2741 §5.4).
type valueWireTag uint16

const (
	tagInteger          valueWireTag = 2
	tagOctetString      valueWireTag = 4
	tagNull             valueWireTag = 5
	tagObjectIdentifier valueWireTag = 6
	tagIPAddress        valueWireTag = 64
	tagCounter32        valueWireTag = 65
	tagGauge32          valueWireTag = 66
	tagTimeTicks        valueWireTag = 67
	tagOpaque           valueWireTag = 68
	tagCounter64        valueWireTag = 70
	tagNoSuchObject     valueWireTag = 128
	tagNoSuchInstance   valueWireTag = 129
	tagEndOfMibView     valueWireTag = 130
)

var kindToTag = map[axvalue.Kind]valueWireTag{
	axvalue.Integer:          tagInteger,
	axvalue.OctetString:      tagOctetString,
	axvalue.Null:             tagNull,
	axvalue.ObjectIdentifier: tagObjectIdentifier,
	axvalue.IPAddress:        tagIPAddress,
	axvalue.Counter32:        tagCounter32,
	axvalue.Gauge32:          tagGauge32,
	axvalue.TimeTicks:        tagTimeTicks,
	axvalue.Opaque:           tagOpaque,
	axvalue.Counter64:        tagCounter64,
	axvalue.NoSuchObject:     tagNoSuchObject,
	axvalue.NoSuchInstance:   tagNoSuchInstance,
	axvalue.EndOfMibView:     tagEndOfMibView,
}

var tagToKind = func() map[valueWireTag]axvalue.Kind {
	m := make(map[valueWireTag]axvalue.Kind, len(kindToTag))
	for k, t := range kindToTag {
		m[t] = k
	}
	return m
}()

// encodeVarBind writes a VarBind: 2-byte type tag, 2-byte reserved, OID
// name, then a payload whose shape depends on the type tag.
func encodeVarBind(bo binary.ByteOrder, vb VarBind) ([]byte, error) {
	tag, ok := kindToTag[vb.Value.Kind]
	if !ok {
		return nil, errors.Errorf("axpdu: unknown value kind %d", vb.Value.Kind)
	}
	head := make([]byte, 4)
	bo.PutUint16(head[0:2], uint16(tag))
	nameBytes := encodeOID(bo, vb.Name, false)

	var payload []byte
	switch vb.Value.Kind {
	case axvalue.Integer, axvalue.Counter32, axvalue.Gauge32, axvalue.TimeTicks:
		payload = encodeUint32(bo, uint32(vb.Value.Int))
	case axvalue.Counter64:
		payload = make([]byte, 8)
		bo.PutUint64(payload, uint64(vb.Value.Int))
	case axvalue.OctetString, axvalue.IPAddress, axvalue.Opaque:
		payload = encodeString(bo, vb.Value.Bytes)
	case axvalue.ObjectIdentifier:
		payload = encodeOID(bo, vb.Value.OID, false)
	case axvalue.Null, axvalue.NoSuchObject, axvalue.NoSuchInstance, axvalue.EndOfMibView:
		payload = nil
	default:
		return nil, errors.Errorf("axpdu: unhandled value kind %d", vb.Value.Kind)
	}

	out := make([]byte, 0, len(head)+len(nameBytes)+len(payload))
	out = append(out, head...)
	out = append(out, nameBytes...)
	out = append(out, payload...)
	return out, nil
}

// decodeVarBind reads one VarBind from the front of b, returning it and
// the number of bytes consumed.
func decodeVarBind(bo binary.ByteOrder, b []byte) (VarBind, int, error) {
	if len(b) < 4 {
		return VarBind{}, 0, errors.New("axpdu: truncated varbind header")
	}
	tag := valueWireTag(bo.Uint16(b[0:2]))
	kind, ok := tagToKind[tag]
	if !ok {
		return VarBind{}, 0, errors.Errorf("axpdu: unknown varbind type tag %d", tag)
	}
	off := 4
	name, _, n, err := decodeOID(bo, b[off:])
	if err != nil {
		return VarBind{}, 0, errors.Wrap(err, "axpdu: varbind name")
	}
	off += n

	v := axvalue.Value{Kind: kind}
	switch kind {
	case axvalue.Integer, axvalue.Counter32, axvalue.Gauge32, axvalue.TimeTicks:
		u, n, err := decodeUint32(bo, b[off:])
		if err != nil {
			return VarBind{}, 0, errors.Wrap(err, "axpdu: varbind value")
		}
		v.Int = int64(u)
		off += n
	case axvalue.Counter64:
		if len(b[off:]) < 8 {
			return VarBind{}, 0, errors.New("axpdu: truncated counter64")
		}
		v.Int = int64(bo.Uint64(b[off : off+8]))
		off += 8
	case axvalue.OctetString, axvalue.IPAddress, axvalue.Opaque:
		s, n, err := decodeString(bo, b[off:])
		if err != nil {
			return VarBind{}, 0, errors.Wrap(err, "axpdu: varbind value")
		}
		v.Bytes = s
		off += n
	case axvalue.ObjectIdentifier:
		o, _, n, err := decodeOID(bo, b[off:])
		if err != nil {
			return VarBind{}, 0, errors.Wrap(err, "axpdu: varbind value")
		}
		v.OID = o
		off += n
	case axvalue.Null, axvalue.NoSuchObject, axvalue.NoSuchInstance, axvalue.EndOfMibView:
		// no payload
	default:
		return VarBind{}, 0, errors.Errorf("axpdu: unhandled value kind %d", kind)
	}

	return VarBind{Name: name, Value: v}, off, nil
}

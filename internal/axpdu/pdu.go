package axpdu

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/packetflux/agentx-subagent/internal/oid"
)

// Error codes carried in a response PDU's error field (RFC 2741 §7.1).
const (
	ErrNone         uint16 = 0
	ErrGenErr       uint16 = 5
	ErrNoSuchObject uint16 = 128 // not a wire code; no code path encodes or reads it
	ErrNotWritable  uint16 = 17
	ErrParseError   uint16 = 112
)

// OpenBody is the open(1) PDU body: subagent identification on connect.
type OpenBody struct {
	Timeout uint8
	ID      oid.OID
	Descr   []byte
}

// CloseBody is the close(2) PDU body.
type CloseBody struct {
	Reason byte
}

// Close reasons, RFC 2741 §6.2.4.
const (
	CloseReasonOther         byte = 1
	CloseReasonParseError    byte = 2
	CloseReasonProtocolError byte = 3
	CloseReasonTimeouts      byte = 4
	CloseReasonShutdown      byte = 5
	CloseReasonByManager     byte = 6
)

// RegisterBody is the register(3)/unregister(4) PDU body; unregister
// reuses this shape with Timeout left at zero, since unregister is
// simply the mirror of register.
type RegisterBody struct {
	Context    []byte
	HasContext bool
	Timeout    uint8
	Priority   uint8
	RangeSubid uint8
	Subtree    oid.OID
	UpperBound uint32 // only present/meaningful when RangeSubid != 0
}

// GetBody is the get(6) PDU body: a list of OIDs to fetch exactly.
type GetBody struct {
	Context    []byte
	HasContext bool
	OIDs       []oid.OID
}

// GetNextBody is the getnext(7) PDU body: a list of search ranges.
type GetNextBody struct {
	Context    []byte
	HasContext bool
	Ranges     []SearchRange
}

// GetBulkBody is the getbulk(8) PDU body.
type GetBulkBody struct {
	Context        []byte
	HasContext     bool
	NonRepeaters   uint16
	MaxRepetitions uint16
	Ranges         []SearchRange
}

// IgnoredSetBody represents the testset/commit/undo/cleanupset (9-12)
// bodies: the core never interprets their contents (it always answers
// notWritable), so this just carries the raw payload through for
// symmetry with the other body types.
type IgnoredSetBody struct {
	Raw []byte
}

// ResponseBody is the response(18) PDU body.
type ResponseBody struct {
	SysUpTime  uint32
	Error      uint16
	ErrorIndex uint16
	VarBinds   []VarBind
}

// PingBody is the ping(13) PDU body.
type PingBody struct {
	Context    []byte
	HasContext bool
}

func encodeContext(bo binary.ByteOrder, hasContext bool, ctx []byte) []byte {
	if !hasContext {
		return nil
	}
	return encodeString(bo, ctx)
}

func decodeContext(bo binary.ByteOrder, hasContext bool, b []byte) ([]byte, int, error) {
	if !hasContext {
		return nil, 0, nil
	}
	return decodeString(bo, b)
}

// EncodeBody encodes a PDU body appropriate to h.Type and h.Flags, honoring
// h's endianness flag.
func EncodeBody(h Header, body interface{}) ([]byte, error) {
	bo := h.byteOrder()
	switch b := body.(type) {
	case OpenBody:
		out := []byte{b.Timeout, 0, 0, 0}
		out = append(out, encodeOID(bo, b.ID, false)...)
		out = append(out, encodeString(bo, b.Descr)...)
		return out, nil

	case CloseBody:
		return []byte{b.Reason, 0, 0, 0}, nil

	case RegisterBody:
		out := encodeContext(bo, h.NonDefaultContext(), b.Context)
		out = append(out, b.Timeout, b.Priority, b.RangeSubid, 0)
		out = append(out, encodeOID(bo, b.Subtree, false)...)
		if b.RangeSubid != 0 {
			out = append(out, encodeUint32(bo, b.UpperBound)...)
		}
		return out, nil

	case GetBody:
		out := encodeContext(bo, h.NonDefaultContext(), b.Context)
		for _, o := range b.OIDs {
			out = append(out, encodeOID(bo, o, false)...)
			out = append(out, encodeOID(bo, nil, false)...) // empty end-range
		}
		return out, nil

	case GetNextBody:
		out := encodeContext(bo, h.NonDefaultContext(), b.Context)
		for _, r := range b.Ranges {
			out = append(out, encodeOID(bo, r.Start, r.Include)...)
			out = append(out, encodeOID(bo, r.End, false)...)
		}
		return out, nil

	case GetBulkBody:
		out := encodeContext(bo, h.NonDefaultContext(), b.Context)
		nr := make([]byte, 2)
		mr := make([]byte, 2)
		bo.PutUint16(nr, b.NonRepeaters)
		bo.PutUint16(mr, b.MaxRepetitions)
		out = append(out, nr...)
		out = append(out, mr...)
		for _, r := range b.Ranges {
			out = append(out, encodeOID(bo, r.Start, r.Include)...)
			out = append(out, encodeOID(bo, r.End, false)...)
		}
		return out, nil

	case IgnoredSetBody:
		return b.Raw, nil

	case ResponseBody:
		out := make([]byte, 8)
		bo.PutUint32(out[0:4], b.SysUpTime)
		bo.PutUint16(out[4:6], b.Error)
		bo.PutUint16(out[6:8], b.ErrorIndex)
		for _, vb := range b.VarBinds {
			enc, err := encodeVarBind(bo, vb)
			if err != nil {
				return nil, err
			}
			out = append(out, enc...)
		}
		return out, nil

	case PingBody:
		return encodeContext(bo, h.NonDefaultContext(), b.Context), nil

	default:
		return nil, errors.Errorf("axpdu: unknown body type %T", body)
	}
}

// DecodeBody decodes a PDU body according to h.Type, honoring h's
// endianness flag. A malformed body returns an error; the caller (the
// session layer) must answer such a request with a response(error=
// parseError) rather than closing the connection.
func DecodeBody(h Header, payload []byte) (interface{}, error) {
	bo := h.byteOrder()
	switch h.Type {
	case TypeOpen:
		if len(payload) < 4 {
			return nil, errors.New("axpdu: short open body")
		}
		timeout := payload[0]
		id, _, n, err := decodeOID(bo, payload[4:])
		if err != nil {
			return nil, errors.Wrap(err, "axpdu: open.id")
		}
		descr, _, err := decodeString(bo, payload[4+n:])
		if err != nil {
			return nil, errors.Wrap(err, "axpdu: open.descr")
		}
		return OpenBody{Timeout: timeout, ID: id, Descr: descr}, nil

	case TypeClose:
		if len(payload) < 1 {
			return nil, errors.New("axpdu: short close body")
		}
		return CloseBody{Reason: payload[0]}, nil

	case TypeRegister, TypeUnregister:
		off := 0
		ctx, n, err := decodeContext(bo, h.NonDefaultContext(), payload)
		if err != nil {
			return nil, errors.Wrap(err, "axpdu: register.context")
		}
		off += n
		if len(payload[off:]) < 4 {
			return nil, errors.New("axpdu: short register fixed fields")
		}
		timeout, priority, rangeSubid := payload[off], payload[off+1], payload[off+2]
		off += 4
		subtree, _, n, err := decodeOID(bo, payload[off:])
		if err != nil {
			return nil, errors.Wrap(err, "axpdu: register.subtree")
		}
		off += n
		var upper uint32
		if rangeSubid != 0 {
			upper, n, err = decodeUint32(bo, payload[off:])
			if err != nil {
				return nil, errors.Wrap(err, "axpdu: register.upper_bound")
			}
			off += n
		}
		return RegisterBody{
			Context: ctx, HasContext: h.NonDefaultContext(),
			Timeout: timeout, Priority: priority, RangeSubid: rangeSubid,
			Subtree: subtree, UpperBound: upper,
		}, nil

	case TypeGet:
		off := 0
		ctx, n, err := decodeContext(bo, h.NonDefaultContext(), payload)
		if err != nil {
			return nil, errors.Wrap(err, "axpdu: get.context")
		}
		off += n
		var oids []oid.OID
		for off < len(payload) {
			start, _, n, err := decodeOID(bo, payload[off:])
			if err != nil {
				return nil, errors.Wrap(err, "axpdu: get.oid")
			}
			off += n
			_, _, n, err = decodeOID(bo, payload[off:]) // discard empty end-range
			if err != nil {
				return nil, errors.Wrap(err, "axpdu: get.end")
			}
			off += n
			oids = append(oids, start)
		}
		return GetBody{Context: ctx, HasContext: h.NonDefaultContext(), OIDs: oids}, nil

	case TypeGetNext:
		ranges, ctx, err := decodeRanges(bo, h, payload)
		if err != nil {
			return nil, err
		}
		return GetNextBody{Context: ctx, HasContext: h.NonDefaultContext(), Ranges: ranges}, nil

	case TypeGetBulk:
		off := 0
		ctx, n, err := decodeContext(bo, h.NonDefaultContext(), payload)
		if err != nil {
			return nil, errors.Wrap(err, "axpdu: getbulk.context")
		}
		off += n
		if len(payload[off:]) < 4 {
			return nil, errors.New("axpdu: short getbulk fixed fields")
		}
		nonRep := bo.Uint16(payload[off : off+2])
		maxRep := bo.Uint16(payload[off+2 : off+4])
		off += 4
		ranges, err := decodeRangeList(bo, payload[off:])
		if err != nil {
			return nil, errors.Wrap(err, "axpdu: getbulk.ranges")
		}
		return GetBulkBody{
			Context: ctx, HasContext: h.NonDefaultContext(),
			NonRepeaters: nonRep, MaxRepetitions: maxRep, Ranges: ranges,
		}, nil

	case TypeTestSet, TypeCommitSet, TypeUndoSet, TypeCleanupSet:
		return IgnoredSetBody{Raw: append([]byte(nil), payload...)}, nil

	case TypeResponse:
		if len(payload) < 8 {
			return nil, errors.New("axpdu: short response body")
		}
		rb := ResponseBody{
			SysUpTime:  bo.Uint32(payload[0:4]),
			Error:      bo.Uint16(payload[4:6]),
			ErrorIndex: bo.Uint16(payload[6:8]),
		}
		off := 8
		for off < len(payload) {
			vb, n, err := decodeVarBind(bo, payload[off:])
			if err != nil {
				return nil, errors.Wrap(err, "axpdu: response.varbind")
			}
			off += n
			rb.VarBinds = append(rb.VarBinds, vb)
		}
		return rb, nil

	case TypePing:
		ctx, _, err := decodeContext(bo, h.NonDefaultContext(), payload)
		if err != nil {
			return nil, errors.Wrap(err, "axpdu: ping.context")
		}
		return PingBody{Context: ctx, HasContext: h.NonDefaultContext()}, nil

	default:
		return nil, errors.Errorf("axpdu: unknown PDU type %d", h.Type)
	}
}

func decodeRangeList(bo binary.ByteOrder, payload []byte) ([]SearchRange, error) {
	var ranges []SearchRange
	off := 0
	for off < len(payload) {
		start, include, n, err := decodeOID(bo, payload[off:])
		if err != nil {
			return nil, errors.Wrap(err, "range.start")
		}
		off += n
		end, _, n, err := decodeOID(bo, payload[off:])
		if err != nil {
			return nil, errors.Wrap(err, "range.end")
		}
		off += n
		ranges = append(ranges, SearchRange{Start: start, Include: include, End: end})
	}
	return ranges, nil
}

func decodeRanges(bo binary.ByteOrder, h Header, payload []byte) ([]SearchRange, []byte, error) {
	ctx, n, err := decodeContext(bo, h.NonDefaultContext(), payload)
	if err != nil {
		return nil, nil, errors.Wrap(err, "context")
	}
	ranges, err := decodeRangeList(bo, payload[n:])
	if err != nil {
		return nil, nil, err
	}
	return ranges, ctx, nil
}

// Encode builds a full wire-ready PDU (header + body), filling in
// PayloadLength from the encoded body.
func Encode(h Header, body interface{}) ([]byte, error) {
	payload, err := EncodeBody(h, body)
	if err != nil {
		return nil, err
	}
	h.PayloadLength = uint32(len(payload))
	out := make([]byte, 0, HeaderLen+len(payload))
	out = append(out, h.Marshal()...)
	out = append(out, payload...)
	return out, nil
}

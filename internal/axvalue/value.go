// Package axvalue defines the typed value representation shared by the MIB
// tree, the MIB modules and the PDU codec: AgentX's ValueKind enumeration
// and the clamping rules the numeric kinds require.
//
// The shape mirrors damianoneill/net's snmp.TypedValue (a Kind discriminant plus
// a payload), but the payload fields are typed explicitly instead of boxed
// in an interface{}: this type sits on the hot varbind-emission path for
// every Get/GetNext/GetBulk response, and the AgentX wire encoding for each
// kind is a handful of fixed shapes (int64, byte slice, OID), so there is no
// benefit to that library's interface{} box here, only an allocation cost.
package axvalue

import (
	"math"

	"github.com/packetflux/agentx-subagent/internal/oid"
)

// Kind tags the payload carried by a Value, matching AgentX's ValueKind
// list.
type Kind uint8

const (
	Integer Kind = iota
	OctetString
	Null
	ObjectIdentifier
	IPAddress
	Counter32
	Gauge32
	TimeTicks
	Opaque
	Counter64
	NoSuchObject
	NoSuchInstance
	EndOfMibView
)

// Exception reports whether k is one of the three AgentX "exception"
// varbind kinds, which carry no payload.
func (k Kind) Exception() bool {
	switch k {
	case NoSuchObject, NoSuchInstance, EndOfMibView:
		return true
	}
	return false
}

// Value is a tagged union of the value kinds AgentX varbinds carry.
type Value struct {
	Kind  Kind
	Int   int64   // Integer, Counter32, Gauge32, TimeTicks, Counter64
	Bytes []byte  // OctetString, IPAddress (4 or 16 bytes), Opaque
	OID   oid.OID // ObjectIdentifier
}

// IntValue builds an Integer value.
func IntValue(v int32) Value { return Value{Kind: Integer, Int: int64(v)} }

// OctetStringValue builds an OctetString value.
func OctetStringValue(b []byte) Value { return Value{Kind: OctetString, Bytes: b} }

// NullValue builds a Null value.
func NullValue() Value { return Value{Kind: Null} }

// OIDValue builds an ObjectIdentifier value.
func OIDValue(o oid.OID) Value { return Value{Kind: ObjectIdentifier, OID: o} }

// IPAddressValue builds an IpAddress value from 4 (v4) or 16 (v6) bytes.
func IPAddressValue(b []byte) Value { return Value{Kind: IPAddress, Bytes: b} }

// Counter32Value clamps v to the unsigned 32-bit range and builds a
// Counter32 value.
func Counter32Value(v uint64) Value { return Value{Kind: Counter32, Int: int64(clampUint32(v))} }

// Gauge32Value clamps v to [0, 2^32-1] and builds a Gauge32 value.
func Gauge32Value(v uint64) Value { return Value{Kind: Gauge32, Int: int64(clampUint32(v))} }

// TimeTicksValue builds a TimeTicks value (hundredths of a second).
func TimeTicksValue(v uint32) Value { return Value{Kind: TimeTicks, Int: int64(v)} }

// OpaqueValue builds an Opaque value.
func OpaqueValue(b []byte) Value { return Value{Kind: Opaque, Bytes: b} }

// Counter64Value clamps v to the unsigned 64-bit range (a no-op for any
// uint64 input, kept for symmetry with Counter32Value) and builds a
// Counter64 value.
func Counter64Value(v uint64) Value { return Value{Kind: Counter64, Int: int64(v)} }

// NoSuchObjectValue, NoSuchInstanceValue, EndOfMibViewValue build the three
// exception varbind kinds.
func NoSuchObjectValue() Value   { return Value{Kind: NoSuchObject} }
func NoSuchInstanceValue() Value { return Value{Kind: NoSuchInstance} }
func EndOfMibViewValue() Value   { return Value{Kind: EndOfMibView} }

func clampUint32(v uint64) uint32 {
	if v > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

// Uint32 returns the Int field as a uint32, for Counter32/Gauge32/TimeTicks
// kinds.
func (v Value) Uint32() uint32 { return uint32(v.Int) }

// Uint64 returns the Int field as a uint64, for the Counter64 kind.
func (v Value) Uint64() uint64 { return uint64(v.Int) }

// Package interfaces implements the IF-MIB/RFC2863 interface table,
// grounded on original_source/mibs/__init__.py's
// init_sync_d_interface_tables/init_sync_d_lag_tables/
// init_sync_d_vlan_tables/init_mgmt_interface_tables and on the column
// semantics original_source/tests/test_interfaces.py and
// test_rfc2863.py exercise (rfc2863.py itself was not carried into
// original_source, only its tests were).
package interfaces

import (
	"strconv"

	"github.com/vishvananda/netlink"
)

// kind distinguishes the four interface families folded into one table,
// each with its own oid_index base offset.
type kind int

const (
	kindFrontPanel kind = iota
	kindManagement
	kindLAG
	kindVLAN
)

const (
	managementBase = 10000
	lagBase        = 1000
	vlanBase       = 2000
)

// adminStatus/operStatus are IF-MIB's RFC2863 integer codes (ifAdminStatus
// has no "unknown"; ifOperStatus does). These are deliberately distinct
// constants from netlink.OperState's own ordinals — IF-MIB and the
// kernel's IF_OPER_* enumeration do not agree numerically, so translation
// is an explicit table, never a reinterpreted cast.
const (
	AdminUp   = 1
	AdminDown = 2
	AdminTest = 3

	OperUp             = 1
	OperDown           = 2
	OperTesting        = 3
	OperUnknown        = 4
	OperDormant        = 5
	OperNotPresent     = 6
	OperLowerLayerDown = 7
)

// operStateToRFC2863 translates the kernel's semantic operational-state
// vocabulary (netlink.LinkOperState, used here purely as a named enum, not
// as a live netlink query: the value itself is parsed out of the DB's
// "oper_status" field) into the IF-MIB integer code.
var operStateToRFC2863 = map[netlink.LinkOperState]int{
	netlink.OperUp:             OperUp,
	netlink.OperDown:           OperDown,
	netlink.OperTesting:        OperTesting,
	netlink.OperUnknown:        OperUnknown,
	netlink.OperDormant:        OperDormant,
	netlink.OperNotPresent:     OperNotPresent,
	netlink.OperLowerLayerDown: OperLowerLayerDown,
}

// parseOperState maps a PORT_TABLE/LAG_TABLE "oper_status" string ("up",
// "down", ...) to netlink's semantic vocabulary, matching the handful of
// states SONiC's redis schema actually emits; anything unrecognized is
// OperUnknown rather than an error, since a stale or mid-transition DB
// row is expected operational behavior, not a shape violation.
func parseOperState(s string) netlink.LinkOperState {
	switch s {
	case "up":
		return netlink.OperUp
	case "down":
		return netlink.OperDown
	default:
		return netlink.OperUnknown
	}
}

// RFC2863Status converts a raw DB status string directly to the IF-MIB
// integer code.
func RFC2863Status(raw string) int {
	return operStateToRFC2863[parseOperState(raw)]
}

// Row is one interface's snapshot, merged from its PORT_TABLE/LAG_TABLE/
// VLAN_TABLE/MGMT_PORT_TABLE row and its COUNTERS_DB counter hash.
type Row struct {
	Kind        kind
	Name        string
	Alias       string
	Index       int // oid_index (sub_id), 1-based
	MTU         int
	SpeedMbps   int64
	PhysAddress []byte
	AdminStatus int
	OperStatus  int
	LastChange  uint32 // ticks

	InOctets   int64
	InUcast    int64
	InErrors   int64
	OutOctets  int64
	OutUcast   int64
	OutErrors  int64
}

// IfType is ifType per IF-MIB: ethernetCsmacd(6) for front-panel/LAG
// members, propVirtual(53) for VLAN SVIs and LAGs, softwareLoopback(24)
// is not modeled (no loopback rows are synthesized here).
func (r Row) IfType() int {
	switch r.Kind {
	case kindVLAN, kindLAG:
		return 53
	default:
		return 6
	}
}

func parseCounter(fields map[string]string, key string) int64 {
	v, err := strconv.ParseInt(fields[key], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

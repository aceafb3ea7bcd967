package lldp

import (
	"github.com/packetflux/agentx-subagent/internal/axvalue"
	"github.com/packetflux/agentx-subagent/internal/mibtree"
	"github.com/packetflux/agentx-subagent/internal/oid"
)

var (
	localSystemOID = oid.MustParse(".1.0.8802.1.1.2.1.3")
	locPortOID     = oid.MustParse(".1.0.8802.1.1.2.1.3.7.1")
	remTableOID    = oid.MustParse(".1.0.8802.1.1.2.1.4.1.1")
)

// scalarEntry wires a single lldpLocalSystemData scalar.
func scalarEntry(u *Updater, col uint32, fn func(*Updater) (axvalue.Value, error)) mibtree.Scalar {
	return mibtree.Scalar{
		OID: localSystemOID.Append(col, 0),
		Get: func() (axvalue.Value, error) { return fn(u) },
	}
}

func locPortColumn(u *Updater, col uint32, fn func(PortRow) (axvalue.Value, error)) mibtree.Subtree {
	return mibtree.Subtree{
		OID: locPortOID.Append(col),
		Index: mibtree.ColumnIndex[PortRow]{
			Keys:   u.keys,
			Lookup: u.row,
			Col:    fn,
		},
	}
}

func remColumn(u *Updater, col uint32, fn func(PortRow) (axvalue.Value, error)) mibtree.Subtree {
	return mibtree.Subtree{
		OID: remTableOID.Append(col),
		Index: mibtree.ColumnIndex[PortRow]{
			Keys:   u.remoteKeys,
			Lookup: u.row,
			Col:    fn,
		},
	}
}

// Entries returns lldpLocalSystemData's 4 scalars, lldpLocPortTable's 4
// columns and lldpRemTable's 12 columns, wired to u.
func Entries(u *Updater) []mibtree.Entry {
	return []mibtree.Entry{
		scalarEntry(u, 1, func(u *Updater) (axvalue.Value, error) {
			return axvalue.IntValue(int32(u.chassisInt("lldp_loc_chassis_id_subtype"))), nil
		}),
		scalarEntry(u, 2, func(u *Updater) (axvalue.Value, error) {
			return axvalue.OctetStringValue([]byte(u.chassisField("lldp_loc_chassis_id"))), nil
		}),
		scalarEntry(u, 3, func(u *Updater) (axvalue.Value, error) {
			return axvalue.OctetStringValue([]byte(u.chassisField("lldp_loc_sys_name"))), nil
		}),
		scalarEntry(u, 4, func(u *Updater) (axvalue.Value, error) {
			return axvalue.OctetStringValue([]byte(u.chassisField("lldp_loc_sys_desc"))), nil
		}),

		locPortColumn(u, 1, func(r PortRow) (axvalue.Value, error) {
			return axvalue.IntValue(int32(r.IfIndex)), nil
		}),
		locPortColumn(u, 2, func(r PortRow) (axvalue.Value, error) {
			return axvalue.IntValue(5), nil // interfaceAlias textual convention
		}),
		locPortColumn(u, 3, func(r PortRow) (axvalue.Value, error) {
			return axvalue.OctetStringValue([]byte(r.Alias)), nil
		}),
		locPortColumn(u, 4, func(r PortRow) (axvalue.Value, error) {
			return axvalue.OctetStringValue([]byte(r.Description)), nil
		}),

		remColumn(u, 1, func(r PortRow) (axvalue.Value, error) {
			return axvalue.TimeTicksValue(uint32(remoteInt(r, "lldp_rem_time_mark"))), nil
		}),
		remColumn(u, 2, func(r PortRow) (axvalue.Value, error) {
			return axvalue.IntValue(int32(r.IfIndex)), nil
		}),
		remColumn(u, 3, func(r PortRow) (axvalue.Value, error) {
			idx := remoteInt(r, "lldp_rem_index")
			if idx == 0 {
				idx = 1
			}
			return axvalue.IntValue(int32(idx)), nil
		}),
		remColumn(u, 4, func(r PortRow) (axvalue.Value, error) {
			return axvalue.IntValue(int32(remoteInt(r, "lldp_rem_chassis_id_subtype"))), nil
		}),
		remColumn(u, 5, func(r PortRow) (axvalue.Value, error) {
			return axvalue.OctetStringValue([]byte(remoteField(r, "lldp_rem_chassis_id"))), nil
		}),
		remColumn(u, 6, func(r PortRow) (axvalue.Value, error) {
			return axvalue.IntValue(int32(remoteInt(r, "lldp_rem_port_id_subtype"))), nil
		}),
		remColumn(u, 7, func(r PortRow) (axvalue.Value, error) {
			return axvalue.OctetStringValue([]byte(remoteField(r, "lldp_rem_port_id"))), nil
		}),
		remColumn(u, 8, func(r PortRow) (axvalue.Value, error) {
			return axvalue.OctetStringValue([]byte(remoteField(r, "lldp_rem_port_desc"))), nil
		}),
		remColumn(u, 9, func(r PortRow) (axvalue.Value, error) {
			return axvalue.OctetStringValue([]byte(remoteField(r, "lldp_rem_sys_name"))), nil
		}),
		remColumn(u, 10, func(r PortRow) (axvalue.Value, error) {
			return axvalue.OctetStringValue([]byte(remoteField(r, "lldp_rem_sys_desc"))), nil
		}),
		remColumn(u, 11, func(r PortRow) (axvalue.Value, error) {
			return axvalue.OctetStringValue([]byte(remoteField(r, "lldp_rem_sys_cap_supported"))), nil
		}),
		remColumn(u, 12, func(r PortRow) (axvalue.Value, error) {
			return axvalue.OctetStringValue([]byte(remoteField(r, "lldp_rem_sys_cap_enabled"))), nil
		}),
	}
}

package interfaces

import (
	"github.com/packetflux/agentx-subagent/internal/axvalue"
	"github.com/packetflux/agentx-subagent/internal/mibtree"
	"github.com/packetflux/agentx-subagent/internal/oid"
)

// ifTable is IF-MIB's .1.3.6.1.2.1.2.2.1; RFC2863's ifXTable
// (ifHighSpeed) lives under .1.3.6.1.2.1.31.1.1.1.
var (
	ifTableOID  = oid.MustParse(".1.3.6.1.2.1.2.2.1")
	ifXTableOID = oid.MustParse(".1.3.6.1.2.1.31.1.1.1")
)

func col(u *Updater, column uint32, fn func(Row) (axvalue.Value, error)) mibtree.Subtree {
	base := ifTableOID.Append(column)
	return mibtree.Subtree{
		OID: base,
		Index: mibtree.ColumnIndex[Row]{
			Keys:   u.keys,
			Lookup: u.row,
			Col:    fn,
		},
	}
}

func xCol(u *Updater, column uint32, fn func(Row) (axvalue.Value, error)) mibtree.Subtree {
	base := ifXTableOID.Append(column)
	return mibtree.Subtree{
		OID: base,
		Index: mibtree.ColumnIndex[Row]{
			Keys:   u.keys,
			Lookup: u.row,
			Col:    fn,
		},
	}
}

// Entries returns every ifTable/ifXTable column subtree wired to u.
func Entries(u *Updater) []mibtree.Entry {
	return []mibtree.Entry{
		col(u, 1, func(r Row) (axvalue.Value, error) { return axvalue.IntValue(int32(r.Index)), nil }),
		col(u, 2, func(r Row) (axvalue.Value, error) { return axvalue.OctetStringValue([]byte(r.Alias)), nil }),
		col(u, 3, func(r Row) (axvalue.Value, error) { return axvalue.IntValue(int32(r.IfType())), nil }),
		col(u, 4, func(r Row) (axvalue.Value, error) { return axvalue.IntValue(int32(r.MTU)), nil }),
		col(u, 5, func(r Row) (axvalue.Value, error) {
			return axvalue.Gauge32Value(clampSpeedBps(r.SpeedMbps)), nil
		}),
		col(u, 6, func(r Row) (axvalue.Value, error) { return axvalue.OctetStringValue(r.PhysAddress), nil }),
		col(u, 7, func(r Row) (axvalue.Value, error) { return axvalue.IntValue(int32(r.AdminStatus)), nil }),
		col(u, 8, func(r Row) (axvalue.Value, error) { return axvalue.IntValue(int32(r.OperStatus)), nil }),
		col(u, 9, func(r Row) (axvalue.Value, error) { return axvalue.TimeTicksValue(r.LastChange), nil }),
		col(u, 10, func(r Row) (axvalue.Value, error) { return axvalue.Counter32Value(uint64(r.InOctets)), nil }),
		col(u, 11, func(r Row) (axvalue.Value, error) { return axvalue.Counter32Value(uint64(r.InUcast)), nil }),
		col(u, 14, func(r Row) (axvalue.Value, error) { return axvalue.Counter32Value(uint64(r.InErrors)), nil }),
		col(u, 16, func(r Row) (axvalue.Value, error) { return axvalue.Counter32Value(uint64(r.OutOctets)), nil }),
		col(u, 17, func(r Row) (axvalue.Value, error) { return axvalue.Counter32Value(uint64(r.OutUcast)), nil }),
		col(u, 20, func(r Row) (axvalue.Value, error) { return axvalue.Counter32Value(uint64(r.OutErrors)), nil }),
		xCol(u, 15, func(r Row) (axvalue.Value, error) { return axvalue.Gauge32Value(uint64(r.SpeedMbps)), nil }),
	}
}

// clampSpeedBps converts a megabit/s speed to bits/s for ifSpeed, mapping
// a negative speed to 0. It does not clamp the upper end itself;
// axvalue.Gauge32Value caps the result at 2^32-1, which ifSpeed reports
// once a link exceeds ~4.29 Gbps (ifHighSpeed, in Mbit/s, carries faster
// links).
func clampSpeedBps(mbps int64) uint64 {
	if mbps < 0 {
		return 0
	}
	return uint64(mbps) * 1_000_000
}

package physical

import (
	"github.com/packetflux/agentx-subagent/internal/axvalue"
	"github.com/packetflux/agentx-subagent/internal/mibtree"
	"github.com/packetflux/agentx-subagent/internal/oid"
	"github.com/packetflux/agentx-subagent/internal/sensorconv"
)

var (
	// entPhysicalTableOID is entPhysicalEntry (the table OID plus its
	// conceptual-row index "1"), so Append(col) lands directly on each
	// column, matching ifTableOID's convention in the interfaces package.
	entPhysicalTableOID = oid.MustParse(".1.3.6.1.2.1.47.1.1.1.1")
	entSensorTableOID   = oid.MustParse(".1.3.6.1.2.1.99.1.1.1")
)

func column(u *Updater, col uint32, fn func(entity) (axvalue.Value, error)) mibtree.Subtree {
	return mibtree.Subtree{
		OID: entPhysicalTableOID.Append(col),
		Index: mibtree.ColumnIndex[entity]{
			Keys:   u.keys,
			Lookup: u.row,
			Col:    fn,
		},
	}
}

func sensorColumn(u *Updater, col uint32, fn func(entity) (axvalue.Value, error)) mibtree.Subtree {
	return mibtree.Subtree{
		OID: entSensorTableOID.Append(col),
		Index: mibtree.ColumnIndex[entity]{
			Keys:   u.sensorKeys,
			Lookup: u.row,
			Col:    fn,
		},
	}
}

// Entries returns entPhysicalTable's 15 columns and entitySensorValueTable's
// 5 columns, wired to u.
func Entries(u *Updater) []mibtree.Entry {
	return []mibtree.Entry{
		column(u, 2, func(e entity) (axvalue.Value, error) {
			return axvalue.OctetStringValue([]byte(e.descr)), nil
		}),
		column(u, 3, func(e entity) (axvalue.Value, error) {
			return axvalue.OIDValue(oid.OID{0, 0}), nil // entPhysicalVendorType: unknown (zeroDotZero)
		}),
		column(u, 4, func(e entity) (axvalue.Value, error) {
			return axvalue.IntValue(e.containedIn), nil
		}),
		column(u, 5, func(e entity) (axvalue.Value, error) {
			return axvalue.IntValue(int32(e.class)), nil
		}),
		column(u, 6, func(e entity) (axvalue.Value, error) {
			return axvalue.IntValue(e.parentRelPos), nil
		}),
		column(u, 7, func(e entity) (axvalue.Value, error) {
			return axvalue.OctetStringValue([]byte(e.name)), nil
		}),
		column(u, 8, func(e entity) (axvalue.Value, error) {
			return axvalue.OctetStringValue([]byte(e.hwVersion)), nil
		}),
		column(u, 9, func(e entity) (axvalue.Value, error) {
			return axvalue.OctetStringValue(nil), nil // entPhysicalFirmwareVersion: not tracked
		}),
		column(u, 10, func(e entity) (axvalue.Value, error) {
			return axvalue.OctetStringValue(nil), nil // entPhysicalSoftwareRevision: not tracked
		}),
		column(u, 11, func(e entity) (axvalue.Value, error) {
			return axvalue.OctetStringValue([]byte(e.serialNumber)), nil
		}),
		column(u, 12, func(e entity) (axvalue.Value, error) {
			return axvalue.OctetStringValue([]byte(e.mfgName)), nil
		}),
		column(u, 13, func(e entity) (axvalue.Value, error) {
			return axvalue.OctetStringValue([]byte(e.modelName)), nil
		}),
		column(u, 14, func(e entity) (axvalue.Value, error) {
			return axvalue.OctetStringValue(nil), nil // entPhysicalAlias: not tracked
		}),
		column(u, 15, func(e entity) (axvalue.Value, error) {
			return axvalue.OctetStringValue(nil), nil // entPhysicalAssetID: not tracked
		}),
		column(u, 16, func(e entity) (axvalue.Value, error) {
			return axvalue.IntValue(e.fru), nil
		}),

		sensorColumn(u, 1, func(e entity) (axvalue.Value, error) {
			return axvalue.IntValue(int32(e.sensor.spec.Type)), nil
		}),
		sensorColumn(u, 2, func(e entity) (axvalue.Value, error) {
			return axvalue.IntValue(int32(e.sensor.spec.Scale)), nil
		}),
		sensorColumn(u, 3, func(e entity) (axvalue.Value, error) {
			return axvalue.IntValue(int32(e.sensor.spec.Precision)), nil
		}),
		sensorColumn(u, 4, func(e entity) (axvalue.Value, error) {
			v, _ := sensorconv.Convert(e.sensor.spec, e.sensor.raw)
			return axvalue.IntValue(int32(v)), nil
		}),
		sensorColumn(u, 5, func(e entity) (axvalue.Value, error) {
			_, status := sensorconv.Convert(e.sensor.spec, e.sensor.raw)
			return axvalue.IntValue(int32(status)), nil
		}),
	}
}

package system

import (
	"github.com/packetflux/agentx-subagent/internal/axvalue"
	"github.com/packetflux/agentx-subagent/internal/mibtree"
	"github.com/packetflux/agentx-subagent/internal/oid"
)

var systemOID = oid.MustParse(".1.3.6.1.2.1.1")

func scalar(col uint32, fn func() (axvalue.Value, error)) mibtree.Scalar {
	return mibtree.Scalar{OID: systemOID.Append(col, 0), Get: fn}
}

// Entries returns sysDescr, sysObjectID, sysUpTime and sysName, wired to u.
func Entries(u *Updater) []mibtree.Entry {
	return []mibtree.Entry{
		scalar(1, func() (axvalue.Value, error) {
			return axvalue.OctetStringValue([]byte(u.sysDescr())), nil
		}),
		scalar(2, func() (axvalue.Value, error) {
			return axvalue.OIDValue(enterpriseOID), nil
		}),
		scalar(3, func() (axvalue.Value, error) {
			return axvalue.TimeTicksValue(u.sysUpTime()), nil
		}),
		scalar(5, func() (axvalue.Value, error) {
			return axvalue.OctetStringValue([]byte(u.sysName())), nil
		}),
	}
}

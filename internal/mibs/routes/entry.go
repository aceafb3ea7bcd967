package routes

import (
	"net/netip"

	"github.com/packetflux/agentx-subagent/internal/axvalue"
	"github.com/packetflux/agentx-subagent/internal/mibtree"
	"github.com/packetflux/agentx-subagent/internal/oid"
)

// routeTableOID is ipCidrRouteTable's entry OID (RFC 2096, reused by
// RFC 4292 as the classic IPv4 route table), pinned by the dest+mask+tos+
// nexthop index literal in
// original_source/tests/test_rfc4292.py.
var routeTableOID = oid.MustParse(".1.3.6.1.2.1.4.24.4.1")

func column(u *Updater, col uint32, fn func(Route) (axvalue.Value, error)) mibtree.Subtree {
	return mibtree.Subtree{
		OID: routeTableOID.Append(col),
		Index: mibtree.ColumnIndex[Route]{
			Keys:   u.keys,
			Lookup: u.row,
			Col:    fn,
		},
	}
}

// Entries returns the ipCidrRouteNextHop, ipCidrRouteIfIndex,
// ipCidrRouteType and ipCidrRouteMetric1 columns wired to u, one row per
// destination prefix.
func Entries(u *Updater) []mibtree.Entry {
	return []mibtree.Entry{
		column(u, 4, func(r Route) (axvalue.Value, error) {
			hop, _ := r.FirstHop()
			return axvalue.IPAddressValue(addrBytes(hop)), nil
		}),
		column(u, 5, func(r Route) (axvalue.Value, error) {
			_, ifName := r.FirstHop()
			return axvalue.IntValue(ifIndexFor(ifName)), nil
		}),
		column(u, 6, func(r Route) (axvalue.Value, error) {
			return axvalue.IntValue(routeType(r)), nil
		}),
		column(u, 11, func(r Route) (axvalue.Value, error) {
			return axvalue.IntValue(routeMetric1(r)), nil
		}),
	}
}

func addrBytes(a netip.Addr) []byte {
	if !a.IsValid() {
		return make([]byte, 4)
	}
	return a.AsSlice()
}

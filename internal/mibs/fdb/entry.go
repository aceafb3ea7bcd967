package fdb

import (
	"github.com/packetflux/agentx-subagent/internal/axvalue"
	"github.com/packetflux/agentx-subagent/internal/mibtree"
	"github.com/packetflux/agentx-subagent/internal/oid"
)

// fdbTableOID is dot1qTpFdbTable's entry OID, pinned by
// original_source/tests/namespace/test_fdb.py's literal
// (1,3,6,1,2,1,17,7,1,2,2,1,...).
var fdbTableOID = oid.MustParse(".1.3.6.1.2.1.17.7.1.2.2.1")

func column(u *Updater, col uint32, fn func(Row) (axvalue.Value, error)) mibtree.Subtree {
	return mibtree.Subtree{
		OID: fdbTableOID.Append(col),
		Index: mibtree.ColumnIndex[Row]{
			Keys:   u.keys,
			Lookup: u.row,
			Col:    fn,
		},
	}
}

// Entries returns dot1qTpFdbPort and dot1qTpFdbStatus wired to u.
func Entries(u *Updater) []mibtree.Entry {
	return []mibtree.Entry{
		column(u, 2, func(r Row) (axvalue.Value, error) { return axvalue.IntValue(int32(r.Port)), nil }),
		column(u, 3, func(r Row) (axvalue.Value, error) { return axvalue.IntValue(int32(r.Status)), nil }),
	}
}

package mibtree

import (
	"sort"

	"github.com/packetflux/agentx-subagent/internal/axvalue"
	"github.com/packetflux/agentx-subagent/internal/oid"
)

// ColumnIndex adapts one shared, pre-sorted row-key slice plus a
// per-column accessor into an Index. A multi-column table (ifTable,
// entPhysicalTable, the FDB and route tables, ...) publishes one sorted
// key slice and one row lookup per update cycle; each column's Subtree
// then wraps the same ColumnIndex with only Col changed, instead of every
// column re-implementing FirstSubID/NextSubID's binary search.
type ColumnIndex[K any] struct {
	// Keys returns the current sorted slice of row keys (one or more
	// sub-ids each, e.g. vlan+mac for the FDB table). It
	// must reflect the most recently published snapshot and must already
	// be sorted ascending by oid.OID.Less.
	Keys func() []oid.OID
	// Lookup resolves one row key to its row value.
	Lookup func(oid.OID) (K, bool)
	// Col extracts this column's value from a row.
	Col func(K) (axvalue.Value, error)
}

func (c ColumnIndex[K]) FirstSubID() (oid.OID, bool) {
	keys := c.Keys()
	if len(keys) == 0 {
		return nil, false
	}
	return keys[0], true
}

func (c ColumnIndex[K]) NextSubID(sub oid.OID) (oid.OID, bool) {
	keys := c.Keys()
	idx := sort.Search(len(keys), func(i int) bool { return sub.Less(keys[i]) })
	if idx >= len(keys) {
		return nil, false
	}
	return keys[idx], true
}

func (c ColumnIndex[K]) Get(sub oid.OID) (axvalue.Value, bool, error) {
	row, ok := c.Lookup(sub)
	if !ok {
		return axvalue.Value{}, false, nil
	}
	v, err := c.Col(row)
	if err != nil {
		return axvalue.Value{}, false, err
	}
	return v, true, nil
}

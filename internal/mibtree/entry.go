// Package mibtree implements the composite, immutable OID-to-entry
// dispatch map: an ordered union of every MIB module's bindings, with
// exact lookup and lexicographic successor.
//
// The read-path shape (walk an ordered set of OID-prefixed bindings,
// advance to "the next thing after here") is grounded on damianoneill/net's
// snmp/session.go Walk/BulkWalk helpers, generalized from walking a remote
// agent's tree over the wire to walking our own in-memory tree.
package mibtree

import (
	"github.com/packetflux/agentx-subagent/internal/axvalue"
	"github.com/packetflux/agentx-subagent/internal/oid"
)

// Entry is a binding contributed by a MIB module: either a Scalar or a
// Subtree, distinguished by IsSubtree.
type Entry interface {
	// Prefix is the entry's OID. For a Scalar this is the full instance
	// OID (including the trailing .0, or whatever fixed sub_id the
	// module uses). For a Subtree it is the container OID under which
	// the entry's Index supplies live instances.
	Prefix() oid.OID
	IsSubtree() bool
}

// Scalar is a singleton value at a fixed OID.
type Scalar struct {
	OID oid.OID
	Get func() (axvalue.Value, error)
}

func (s Scalar) Prefix() oid.OID { return s.OID }
func (s Scalar) IsSubtree() bool { return false }

// Index is the live, ordered instance set a Subtree entry's updater
// publishes: an ordered set of sub_ids under the entry's prefix, a getter
// from sub_id to value, and successor/first navigation so mibtree.Tree
// never needs to enumerate the whole index to answer a GetNext.
type Index interface {
	// FirstSubID returns the smallest live sub_id, or ok=false if the
	// index is currently empty.
	FirstSubID() (sub oid.OID, ok bool)
	// NextSubID returns the smallest live sub_id strictly greater than
	// sub, or ok=false if sub is the last (or not found and nothing
	// follows it).
	NextSubID(sub oid.OID) (next oid.OID, ok bool)
	// Get returns the value at sub_id, or ok=false if sub_id is not
	// currently live.
	Get(sub oid.OID) (v axvalue.Value, ok bool, err error)
}

// Subtree is a column (or a whole table) whose live instances are
// supplied by an Index backed by an updater's published snapshot.
type Subtree struct {
	OID   oid.OID
	Index Index
}

func (s Subtree) Prefix() oid.OID { return s.OID }
func (s Subtree) IsSubtree() bool { return true }

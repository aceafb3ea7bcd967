package mibtree

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/packetflux/agentx-subagent/internal/axvalue"
	"github.com/packetflux/agentx-subagent/internal/oid"
)

// Result classifies the outcome of a Lookup or Successor call.
type Result int

const (
	// Found: a live value was produced.
	Found Result = iota
	// NoSuchObject: the OID is not covered by any registered entry at all.
	NoSuchObject
	// NoSuchInstance: the OID falls within a subtree's prefix but names no
	// live sub_id.
	NoSuchInstance
	// EndOfMibView: a successor walk ran past the last entry in the tree.
	EndOfMibView
)

// Tree is the immutable, ordered composition of every MIB module's
// entries, built once at startup.
type Tree struct {
	entries []Entry // sorted ascending by Prefix()
}

// Build composes entries into a Tree, sorted by OID. It panics if any two
// entries collide: identical prefixes, or one entry's prefix is a proper
// prefix of another's unless the shorter one is a Subtree. A collision is
// a startup-time programming error that must fail startup, not a runtime
// condition to recover from.
func Build(entries []Entry) *Tree {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Prefix().Less(sorted[j].Prefix()) })

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Prefix().Equal(cur.Prefix()) {
			panic(errors.Errorf("mibtree: duplicate entry at %s", cur.Prefix()))
		}
		if prev.Prefix().IsPrefixOf(cur.Prefix()) && !prev.IsSubtree() {
			panic(errors.Errorf("mibtree: entry %s shadows scalar entry %s", cur.Prefix(), prev.Prefix()))
		}
	}
	return &Tree{entries: sorted}
}

// Lookup resolves o to a value, classifying the outcome.
func (t *Tree) Lookup(o oid.OID) (axvalue.Value, Result) {
	e, ok := t.findCovering(o)
	if !ok {
		return axvalue.Value{}, NoSuchObject
	}
	switch ent := e.(type) {
	case Scalar:
		if !ent.OID.Equal(o) {
			return axvalue.Value{}, NoSuchObject
		}
		v, err := ent.Get()
		if err != nil {
			return axvalue.Value{}, NoSuchInstance
		}
		return v, Found
	case Subtree:
		if len(o) <= len(ent.OID) {
			return axvalue.Value{}, NoSuchInstance
		}
		sub := o[len(ent.OID):]
		v, ok, err := ent.Index.Get(sub)
		if err != nil || !ok {
			return axvalue.Value{}, NoSuchInstance
		}
		return v, Found
	default:
		return axvalue.Value{}, NoSuchObject
	}
}

// findCovering returns the entry whose prefix equals o or is a proper
// prefix of o, if any.
func (t *Tree) findCovering(o oid.OID) (Entry, bool) {
	for _, e := range t.entries {
		p := e.Prefix()
		if p.Equal(o) || (e.IsSubtree() && p.IsPrefixOf(o) && len(o) > len(p)) {
			return e, true
		}
	}
	return nil, false
}

// Successor implements successor(o, include_self): the
// lexicographically next live OID/value pair after o (or at o, when
// include_self is true and o names a live instance).
func (t *Tree) Successor(o oid.OID, includeSelf bool) (oid.OID, axvalue.Value, Result) {
	for _, e := range t.entries {
		p := e.Prefix()
		switch ent := e.(type) {
		case Scalar:
			if o.Less(p) || (includeSelf && o.Equal(p)) {
				v, err := ent.Get()
				if err != nil {
					continue
				}
				return p, v, Found
			}
			// o >= p (and not an include-self match): this scalar cannot
			// satisfy o, try the next entry.
			continue

		case Subtree:
			switch {
			case p.IsPrefixOf(o) && len(o) > len(p):
				sub := o[len(p):]
				if includeSelf {
					if v, ok, err := ent.Index.Get(sub); err == nil && ok {
						return p.Clone().Append(sub...), v, Found
					}
				}
				next, ok := ent.Index.NextSubID(sub)
				if !ok {
					continue
				}
				v, ok, err := ent.Index.Get(next)
				if err != nil || !ok {
					continue
				}
				return p.Clone().Append(next...), v, Found

			case o.Less(p) || o.Equal(p):
				first, ok := ent.Index.FirstSubID()
				if !ok {
					continue
				}
				v, ok, err := ent.Index.Get(first)
				if err != nil || !ok {
					continue
				}
				return p.Clone().Append(first...), v, Found

			default:
				// o is past everything this subtree could contain.
				continue
			}
		}
	}
	return nil, axvalue.Value{}, EndOfMibView
}

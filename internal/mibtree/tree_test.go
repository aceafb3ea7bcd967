package mibtree_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetflux/agentx-subagent/internal/axvalue"
	"github.com/packetflux/agentx-subagent/internal/mibtree"
	"github.com/packetflux/agentx-subagent/internal/oid"
)

// fakeIndex is a simple in-memory Index over a fixed set of single-element
// sub_ids, ordered by oid.OID.Less, for exercising Tree without pulling in
// a real updater.
type fakeIndex struct {
	subs   []oid.OID
	values map[string]axvalue.Value
}

func newFakeIndex(ids map[uint32]axvalue.Value) *fakeIndex {
	fi := &fakeIndex{values: make(map[string]axvalue.Value)}
	for id, v := range ids {
		sub := oid.OID{id}
		fi.subs = append(fi.subs, sub)
		fi.values[sub.String()] = v
	}
	sort.Slice(fi.subs, func(i, j int) bool { return fi.subs[i].Less(fi.subs[j]) })
	return fi
}

func (fi *fakeIndex) FirstSubID() (oid.OID, bool) {
	if len(fi.subs) == 0 {
		return nil, false
	}
	return fi.subs[0], true
}

func (fi *fakeIndex) NextSubID(sub oid.OID) (oid.OID, bool) {
	for _, s := range fi.subs {
		if sub.Less(s) {
			return s, true
		}
	}
	return nil, false
}

func (fi *fakeIndex) Get(sub oid.OID) (axvalue.Value, bool, error) {
	v, ok := fi.values[sub.String()]
	return v, ok, nil
}

func buildTestTree(t *testing.T) *mibtree.Tree {
	t.Helper()
	scalar := mibtree.Scalar{
		OID: oid.MustParse(".1.3.6.1.2.1.1.3.0"),
		Get: func() (axvalue.Value, error) { return axvalue.TimeTicksValue(1000), nil },
	}
	idx := newFakeIndex(map[uint32]axvalue.Value{
		1: axvalue.OctetStringValue([]byte("Ethernet0")),
		5: axvalue.OctetStringValue([]byte("Ethernet4")),
	})
	subtree := mibtree.Subtree{
		OID:   oid.MustParse(".1.3.6.1.2.1.2.2.1.2"),
		Index: idx,
	}
	return mibtree.Build([]mibtree.Entry{scalar, subtree})
}

func TestLookupScalarHit(t *testing.T) {
	tree := buildTestTree(t)
	v, res := tree.Lookup(oid.MustParse(".1.3.6.1.2.1.1.3.0"))
	require.Equal(t, mibtree.Found, res)
	assert.Equal(t, axvalue.TimeTicks, v.Kind)
}

func TestLookupSubtreeHitAndMiss(t *testing.T) {
	tree := buildTestTree(t)

	v, res := tree.Lookup(oid.MustParse(".1.3.6.1.2.1.2.2.1.2.1"))
	require.Equal(t, mibtree.Found, res)
	assert.Equal(t, []byte("Ethernet0"), v.Bytes)

	_, res = tree.Lookup(oid.MustParse(".1.3.6.1.2.1.2.2.1.2.2"))
	assert.Equal(t, mibtree.NoSuchInstance, res)

	_, res = tree.Lookup(oid.MustParse(".1.3.6.1.2.1.2.2.1.2"))
	assert.Equal(t, mibtree.NoSuchInstance, res)

	_, res = tree.Lookup(oid.MustParse(".9.9.9"))
	assert.Equal(t, mibtree.NoSuchObject, res)
}

func TestSuccessorWalksWholeTree(t *testing.T) {
	tree := buildTestTree(t)

	// Before everything: first successor is the scalar.
	o, v, res := tree.Successor(oid.MustParse(".1.3.6.1.2.1.1"), false)
	require.Equal(t, mibtree.Found, res)
	assert.True(t, o.Equal(oid.MustParse(".1.3.6.1.2.1.1.3.0")))
	assert.Equal(t, axvalue.TimeTicks, v.Kind)

	// At the subtree root, successor is the first live column entry.
	o, _, res = tree.Successor(oid.MustParse(".1.3.6.1.2.1.2.2.1.2"), false)
	require.Equal(t, mibtree.Found, res)
	assert.True(t, o.Equal(oid.MustParse(".1.3.6.1.2.1.2.2.1.2.1")))

	// Mid-subtree, successor advances to the next live sub_id.
	o, _, res = tree.Successor(oid.MustParse(".1.3.6.1.2.1.2.2.1.2.1"), false)
	require.Equal(t, mibtree.Found, res)
	assert.True(t, o.Equal(oid.MustParse(".1.3.6.1.2.1.2.2.1.2.5")))

	// include_self on a live instance returns that instance itself.
	o, _, res = tree.Successor(oid.MustParse(".1.3.6.1.2.1.2.2.1.2.1"), true)
	require.Equal(t, mibtree.Found, res)
	assert.True(t, o.Equal(oid.MustParse(".1.3.6.1.2.1.2.2.1.2.1")))

	// Past the last entry: end_of_mib_view.
	_, _, res = tree.Successor(oid.MustParse(".1.3.6.1.2.1.2.2.1.2.5"), false)
	assert.Equal(t, mibtree.EndOfMibView, res)
}

func TestBuildPanicsOnDuplicatePrefix(t *testing.T) {
	scalar := mibtree.Scalar{OID: oid.MustParse(".1.3.6.1.2.1.1.1.0"), Get: func() (axvalue.Value, error) { return axvalue.Value{}, nil }}
	assert.Panics(t, func() {
		mibtree.Build([]mibtree.Entry{scalar, scalar})
	})
}

func TestBuildPanicsOnScalarShadowing(t *testing.T) {
	shallow := mibtree.Scalar{OID: oid.MustParse(".1.3.6.1.2.1.1"), Get: func() (axvalue.Value, error) { return axvalue.Value{}, nil }}
	deep := mibtree.Scalar{OID: oid.MustParse(".1.3.6.1.2.1.1.1.0"), Get: func() (axvalue.Value, error) { return axvalue.Value{}, nil }}
	assert.Panics(t, func() {
		mibtree.Build([]mibtree.Entry{shallow, deep})
	})
}

package axsession_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetflux/agentx-subagent/internal/axpdu"
	"github.com/packetflux/agentx-subagent/internal/axsession"
	"github.com/packetflux/agentx-subagent/internal/axvalue"
	"github.com/packetflux/agentx-subagent/internal/mibtree"
	"github.com/packetflux/agentx-subagent/internal/oid"
)

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

func buildTree() *mibtree.Tree {
	idx := newFakeIndex(map[uint32]axvalue.Value{
		1: axvalue.OctetStringValue([]byte("Ethernet0")),
		5: axvalue.OctetStringValue([]byte("Ethernet4")),
	})
	subtree := mibtree.Subtree{OID: oid.MustParse(".1.3.6.1.2.1.2.2.1.2"), Index: idx}
	return mibtree.Build([]mibtree.Entry{subtree})
}

func TestDispatchGetHitAndMiss(t *testing.T) {
	tree := buildTree()
	resp := axsession.Dispatch(tree, axpdu.Header{}, axpdu.GetBody{
		OIDs: []oid.OID{
			oid.MustParse(".1.3.6.1.2.1.2.2.1.2.1"),
			oid.MustParse(".9.9.9"),
		},
	})
	require.Len(t, resp.VarBinds, 2)
	assert.Equal(t, axvalue.OctetString, resp.VarBinds[0].Value.Kind)
	assert.Equal(t, axvalue.NoSuchObject, resp.VarBinds[1].Value.Kind)
}

func TestDispatchGetNextEndOfMibView(t *testing.T) {
	tree := buildTree()
	resp := axsession.Dispatch(tree, axpdu.Header{}, axpdu.GetNextBody{
		Ranges: []axpdu.SearchRange{
			{Start: oid.MustParse(".1.3.6.1.2.1.2.2.1.2.5")},
		},
	})
	require.Len(t, resp.VarBinds, 1)
	assert.Equal(t, axvalue.EndOfMibView, resp.VarBinds[0].Value.Kind)
}

func TestDispatchGetBulkMonotonic(t *testing.T) {
	tree := buildTree()
	resp := axsession.Dispatch(tree, axpdu.Header{}, axpdu.GetBulkBody{
		NonRepeaters:   0,
		MaxRepetitions: 5,
		Ranges: []axpdu.SearchRange{
			{Start: oid.MustParse(".1.3.6.1.2.1.2.2.1.2")},
		},
	})
	require.True(t, len(resp.VarBinds) >= 2)
	for i := 1; i < len(resp.VarBinds); i++ {
		if resp.VarBinds[i].Value.Kind == axvalue.EndOfMibView {
			continue
		}
		assert.True(t, resp.VarBinds[i-1].Name.Less(resp.VarBinds[i].Name))
	}
}

func TestDispatchIgnoredSetIsNotWritable(t *testing.T) {
	tree := buildTree()
	resp := axsession.Dispatch(tree, axpdu.Header{}, axpdu.IgnoredSetBody{})
	assert.Equal(t, axpdu.ErrNotWritable, resp.Error)
}

func TestDispatchPing(t *testing.T) {
	tree := buildTree()
	resp := axsession.Dispatch(tree, axpdu.Header{}, axpdu.PingBody{})
	assert.Equal(t, axpdu.ErrNone, resp.Error)
}

package fdb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetflux/agentx-subagent/internal/dbstore"
	"github.com/packetflux/agentx-subagent/internal/mibs/fdb"
	"github.com/packetflux/agentx-subagent/internal/mibtree"
	"github.com/packetflux/agentx-subagent/internal/oid"
)

type fakeClient struct {
	hash map[string]map[string]string
	keys map[string][]string
}

func (f *fakeClient) Namespace() string                                { return "" }
func (f *fakeClient) Connect(ctx context.Context, dbName string) error { return nil }
func (f *fakeClient) Close() error                                     { return nil }
func (f *fakeClient) GetAll(ctx context.Context, dbName, key string) (map[string]string, error) {
	return f.hash[dbName+"|"+key], nil
}
func (f *fakeClient) Keys(ctx context.Context, dbName, pattern string) ([]string, error) {
	return f.keys[dbName+"|"+pattern], nil
}
func (f *fakeClient) SubscribeKeyspace(ctx context.Context, dbName, pattern string) (<-chan dbstore.Event, error) {
	ch := make(chan dbstore.Event)
	close(ch)
	return ch, nil
}

func TestUpdaterResolvesFdbEntry(t *testing.T) {
	fdbKey := `ASIC_STATE:SAI_OBJECT_TYPE_FDB_ENTRY:{"bvid":"oid:0x26000000000600","mac":"7c:fe:90:80:9f:04"}`
	c := &fakeClient{
		hash: map[string]map[string]string{
			"COUNTERS_DB|COUNTERS_BRIDGE_PORT_NAME_MAP":           {"Ethernet0": "oid:0x3a00000000061a"},
			"ASIC_DB|ASIC_STATE:SAI_OBJECT_TYPE_VLAN:oid:0x26000000000600": {"SAI_VLAN_ATTR_VLAN_ID": "1000"},
			"ASIC_DB|" + fdbKey: {
				"SAI_FDB_ENTRY_ATTR_BRIDGE_PORT_ID": "oid:0x3a00000000061a",
				"SAI_FDB_ENTRY_ATTR_TYPE":           "SAI_FDB_ENTRY_TYPE_DYNAMIC",
			},
		},
		keys: map[string][]string{
			"ASIC_DB|ASIC_STATE:SAI_OBJECT_TYPE_FDB_ENTRY:*": {fdbKey},
		},
	}
	ns := dbstore.NewNamespace([]dbstore.Client{c})
	u := fdb.New(ns)

	require.NoError(t, u.Reinit(context.Background()))
	require.NoError(t, u.Update(context.Background()))

	tree := mibtree.Build(fdb.Entries(u))

	v, res := tree.Lookup(oid.MustParse(".1.3.6.1.2.1.17.7.1.2.2.1.2.1000.124.254.144.128.159.4"))
	require.Equal(t, mibtree.Found, res)
	assert.Equal(t, int64(1), v.Int) // Ethernet0 -> ifIndex 1

	v, res = tree.Lookup(oid.MustParse(".1.3.6.1.2.1.17.7.1.2.2.1.3.1000.124.254.144.128.159.4"))
	require.Equal(t, mibtree.Found, res)
	assert.Equal(t, int64(fdb.StatusLearned), v.Int)
}

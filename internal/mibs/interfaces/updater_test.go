package interfaces_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetflux/agentx-subagent/internal/dbstore"
	"github.com/packetflux/agentx-subagent/internal/mibs/interfaces"
	"github.com/packetflux/agentx-subagent/internal/mibtree"
	"github.com/packetflux/agentx-subagent/internal/oid"
)

type fakeClient struct {
	ns   string
	hash map[string]map[string]string
	keys map[string][]string
}

func (f *fakeClient) Namespace() string                                { return f.ns }
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

func TestUpdaterBuildsPortRowWithCounters(t *testing.T) {
	c := &fakeClient{
		ns: "",
		hash: map[string]map[string]string{
			"APPL_DB|PORT_TABLE:Ethernet0": {
				"alias":        "etp1",
				"mtu":          "9100",
				"speed":        "100000",
				"admin_status": "up",
				"oper_status":  "up",
				"mac":          "00:11:22:33:44:55",
			},
			"COUNTERS_DB|COUNTERS_PORT_NAME_MAP": {"Ethernet0": "oid:0x1000000000022"},
			"COUNTERS_DB|COUNTERS:oid:0x1000000000022": {
				"SAI_PORT_STAT_IF_IN_OCTETS":  "12345",
				"SAI_PORT_STAT_IF_OUT_OCTETS": "6789",
			},
		},
		keys: map[string][]string{
			"APPL_DB|PORT_TABLE:*": {"PORT_TABLE:Ethernet0"},
			"APPL_DB|LAG_TABLE:*":  {},
			"APPL_DB|VLAN_TABLE:*": {},
		},
	}
	ns := dbstore.NewNamespace([]dbstore.Client{c})
	u := interfaces.New(ns)

	require.NoError(t, u.Reinit(context.Background()))
	require.NoError(t, u.Update(context.Background()))

	tree := mibtree.Build(interfaces.Entries(u))

	v, res := tree.Lookup(oid.MustParse(".1.3.6.1.2.1.2.2.1.2.1"))
	require.Equal(t, mibtree.Found, res)
	assert.Equal(t, []byte("etp1"), v.Bytes)

	v, res = tree.Lookup(oid.MustParse(".1.3.6.1.2.1.2.2.1.10.1"))
	require.Equal(t, mibtree.Found, res)
	assert.Equal(t, int64(12345), v.Int)

	v, res = tree.Lookup(oid.MustParse(".1.3.6.1.2.1.2.2.1.8.1"))
	require.Equal(t, mibtree.Found, res)
	assert.Equal(t, int64(interfaces.OperUp), v.Int)
}

func TestRFC2863StatusMapping(t *testing.T) {
	assert.Equal(t, interfaces.OperUp, interfaces.RFC2863Status("up"))
	assert.Equal(t, interfaces.OperDown, interfaces.RFC2863Status("down"))
	assert.Equal(t, interfaces.OperUnknown, interfaces.RFC2863Status("weird"))
}

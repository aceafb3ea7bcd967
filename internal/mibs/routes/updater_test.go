package routes_test

import (
	"context"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetflux/agentx-subagent/internal/dbstore"
	"github.com/packetflux/agentx-subagent/internal/mibs/routes"
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

// TestUpdaterBuildsDefaultRouteRow mirrors
// original_source/tests/test_rfc4292.py's test_RouteUpdater_route_has_next_hop_and_iframe:
// a default route with one next-hop and one ifname produces exactly one row,
// at the (0,0,0,0, 0,0,0,0, 0, 10,0,0,1) ipCidrRouteTable index.
func TestUpdaterBuildsDefaultRouteRow(t *testing.T) {
	c := &fakeClient{
		hash: map[string]map[string]string{
			"APPL_DB|ROUTE_TABLE:0.0.0.0/0": {"nexthop": "10.0.0.1", "ifname": "Ethernet0"},
		},
		keys: map[string][]string{
			"APPL_DB|ROUTE_TABLE:*": {"ROUTE_TABLE:0.0.0.0/0"},
		},
	}
	ns := dbstore.NewNamespace([]dbstore.Client{c})
	u := routes.New(ns)

	require.NoError(t, u.Reinit(context.Background()))
	require.NoError(t, u.Update(context.Background()))

	route, ok := u.Lookup(netip.MustParsePrefix("0.0.0.0/0"))
	require.True(t, ok)
	assert.Equal(t, []string{"Ethernet0"}, route.IfNames)
	require.Len(t, route.NextHops, 1)
	assert.Equal(t, "10.0.0.1", route.NextHops[0].String())

	tree := mibtree.Build(routes.Entries(u))
	v, res := tree.Lookup(oid.MustParse(".1.3.6.1.2.1.4.24.4.1.4.0.0.0.0.0.0.0.0.0.10.0.0.1"))
	require.Equal(t, mibtree.Found, res)
	assert.Equal(t, []byte{10, 0, 0, 1}, v.Bytes)
}

// TestUpdaterSkipsRouteMissingNextHop mirrors
// test_RouteUpdater_route_no_next_hop: a route with ifname but no nexthop
// produces zero rows.
func TestUpdaterSkipsRouteMissingNextHop(t *testing.T) {
	c := &fakeClient{
		hash: map[string]map[string]string{
			"APPL_DB|ROUTE_TABLE:0.0.0.0/0": {"ifname": "Ethernet0"},
		},
		keys: map[string][]string{
			"APPL_DB|ROUTE_TABLE:*": {"ROUTE_TABLE:0.0.0.0/0"},
		},
	}
	ns := dbstore.NewNamespace([]dbstore.Client{c})
	u := routes.New(ns)

	require.NoError(t, u.Reinit(context.Background()))
	require.NoError(t, u.Update(context.Background()))

	_, ok := u.Lookup(netip.MustParsePrefix("0.0.0.0/0"))
	assert.False(t, ok)
}

// TestUpdaterSkipsRouteMissingIfname mirrors test_RouteUpdater_route_no_iframe.
func TestUpdaterSkipsRouteMissingIfname(t *testing.T) {
	c := &fakeClient{
		hash: map[string]map[string]string{
			"APPL_DB|ROUTE_TABLE:0.0.0.0/0": {"nexthop": "10.0.0.1"},
		},
		keys: map[string][]string{
			"APPL_DB|ROUTE_TABLE:*": {"ROUTE_TABLE:0.0.0.0/0"},
		},
	}
	ns := dbstore.NewNamespace([]dbstore.Client{c})
	u := routes.New(ns)

	require.NoError(t, u.Reinit(context.Background()))
	require.NoError(t, u.Update(context.Background()))

	_, ok := u.Lookup(netip.MustParsePrefix("0.0.0.0/0"))
	assert.False(t, ok)
}

package dbstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetflux/agentx-subagent/internal/dbstore"
)

type mockClient struct {
	ns    string
	all   map[string]map[string]string
	keys  []string
	keysErr error
}

func (m *mockClient) Namespace() string { return m.ns }
func (m *mockClient) Connect(ctx context.Context, dbName string) error { return nil }
func (m *mockClient) Close() error { return nil }

func (m *mockClient) GetAll(ctx context.Context, dbName, key string) (map[string]string, error) {
	if v, ok := m.all[key]; ok {
		return v, nil
	}
	return map[string]string{}, nil
}

func (m *mockClient) Keys(ctx context.Context, dbName, pattern string) ([]string, error) {
	if m.keysErr != nil {
		return nil, m.keysErr
	}
	return m.keys, nil
}

func (m *mockClient) SubscribeKeyspace(ctx context.Context, dbName, pattern string) (<-chan dbstore.Event, error) {
	ch := make(chan dbstore.Event)
	close(ch)
	return ch, nil
}

func TestNewNamespaceOrdersHostFirst(t *testing.T) {
	a := &mockClient{ns: "asic1"}
	host := &mockClient{ns: ""}
	b := &mockClient{ns: "asic2"}

	ns := dbstore.NewNamespace([]dbstore.Client{a, host, b})
	require.NotNil(t, ns.Host())
	assert.Equal(t, "", ns.Host().Namespace())
	nonHost := ns.NonHost()
	require.Len(t, nonHost, 2)
	assert.Equal(t, "asic1", nonHost[0].Namespace())
	assert.Equal(t, "asic2", nonHost[1].Namespace())
}

func TestKeysConcatenatesInOrder(t *testing.T) {
	host := &mockClient{ns: "", keys: []string{"a", "b"}}
	other := &mockClient{ns: "asic1", keys: []string{"c"}}
	ns := dbstore.NewNamespace([]dbstore.Client{other, host})

	ks, err := ns.Keys(context.Background(), "DB", "*")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ks)
}

func TestGetAllMergesLastWriterWins(t *testing.T) {
	host := &mockClient{ns: "", all: map[string]map[string]string{
		"k": {"field1": "host-value", "field2": "host-only"},
	}}
	other := &mockClient{ns: "asic1", all: map[string]map[string]string{
		"k": {"field1": "other-value"},
	}}
	ns := dbstore.NewNamespace([]dbstore.Client{host, other})

	merged, err := ns.GetAll(context.Background(), "DB", "k")
	require.NoError(t, err)
	assert.Equal(t, "other-value", merged["field1"]) // last client (non-host) wins
	assert.Equal(t, "host-only", merged["field2"])
}

func TestGetAllSingleBackendPassesThrough(t *testing.T) {
	host := &mockClient{ns: "", all: map[string]map[string]string{}}
	ns := dbstore.NewNamespace([]dbstore.Client{host})

	got, err := ns.GetAll(context.Background(), "DB", "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestGetSyncFromAllNamespaceSkipsHost(t *testing.T) {
	host := &mockClient{ns: ""}
	a := &mockClient{ns: "asic1"}
	b := &mockClient{ns: "asic2"}
	ns := dbstore.NewNamespace([]dbstore.Client{host, a, b})

	var seen []string
	maps, err := ns.GetSyncFromAllNamespace(context.Background(), func(ctx context.Context, c dbstore.Client) ([]map[string]string, error) {
		seen = append(seen, c.Namespace())
		return []map[string]string{{c.Namespace(): "1"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"asic1", "asic2"}, seen)
	require.Len(t, maps, 1)
	assert.Equal(t, "1", maps[0]["asic1"])
	assert.Equal(t, "1", maps[0]["asic2"])
}

package system_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetflux/agentx-subagent/internal/dbstore"
	"github.com/packetflux/agentx-subagent/internal/mibs/system"
	"github.com/packetflux/agentx-subagent/internal/mibtree"
	"github.com/packetflux/agentx-subagent/internal/oid"
)

type fakeClient struct {
	hash map[string]map[string]string
}

func (f *fakeClient) Namespace() string                                { return "" }
func (f *fakeClient) Connect(ctx context.Context, dbName string) error { return nil }
func (f *fakeClient) Close() error                                     { return nil }
func (f *fakeClient) GetAll(ctx context.Context, dbName, key string) (map[string]string, error) {
	return f.hash[dbName+"|"+key], nil
}
func (f *fakeClient) Keys(ctx context.Context, dbName, pattern string) ([]string, error) {
	return nil, nil
}
func (f *fakeClient) SubscribeKeyspace(ctx context.Context, dbName, pattern string) (<-chan dbstore.Event, error) {
	ch := make(chan dbstore.Event)
	close(ch)
	return ch, nil
}

func TestUpdaterReportsSysNameFromDeviceMetadata(t *testing.T) {
	c := &fakeClient{
		hash: map[string]map[string]string{
			"CONFIG_DB|DEVICE_METADATA|localhost": {"hostname": "test_hostname", "platform": "x86_64-dell"},
		},
	}
	ns := dbstore.NewNamespace([]dbstore.Client{c})
	u := system.New(ns)

	require.NoError(t, u.Reinit(context.Background()))
	require.NoError(t, u.Update(context.Background()))

	tree := mibtree.Build(system.Entries(u))

	v, res := tree.Lookup(oid.MustParse(".1.3.6.1.2.1.1.5.0"))
	require.Equal(t, mibtree.Found, res)
	assert.Equal(t, []byte("test_hostname"), v.Bytes)

	v, res = tree.Lookup(oid.MustParse(".1.3.6.1.2.1.1.1.0"))
	require.Equal(t, mibtree.Found, res)
	assert.Equal(t, []byte("SONiC Software (x86_64-dell)"), v.Bytes)
}

func TestSysUpTimeAdvancesWithElapsedTime(t *testing.T) {
	ns := dbstore.NewNamespace([]dbstore.Client{&fakeClient{hash: map[string]map[string]string{}}})
	u := system.New(ns)
	require.NoError(t, u.Update(context.Background()))

	tree := mibtree.Build(system.Entries(u))
	v1, _ := tree.Lookup(oid.MustParse(".1.3.6.1.2.1.1.3.0"))

	time.Sleep(15 * time.Millisecond)

	v2, _ := tree.Lookup(oid.MustParse(".1.3.6.1.2.1.1.3.0"))
	assert.Greater(t, v2.Int, v1.Int)
}

package bgpcli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetflux/agentx-subagent/internal/bgpcli"
	"github.com/packetflux/agentx-subagent/internal/oid"
)

const ipv4Summary = "BGP router identifier 10.0.0.1, local AS number 65100\n" +
	"RIB entries 10, using 1000 bytes of memory\n" +
	"Peers 2, using 2000 bytes of memory\n" +
	"\n" +
	"Neighbor        V         AS MsgRcvd MsgSent   TblVer  InQ OutQ Up/Down  State/PfxRcd\n" +
	"10.0.0.2        4      65200     100     100        0    0    0 01:02:03            5\n" +
	"*10.0.0.3       4      65300       0       0        0    0    0    never Idle (Admin)\n" +
	"\n" +
	"Total number of neighbors 2\n"

func TestParseBGPSummaryIPv4Rows(t *testing.T) {
	rows, err := bgpcli.ParseBGPSummary(ipv4Summary)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "10.0.0.2", rows[0]["Neighbor"])
	assert.Equal(t, "5", rows[0]["State/PfxRcd"])

	assert.Equal(t, "*10.0.0.3", rows[1]["Neighbor"])
	assert.Equal(t, "Idle (Admin)", rows[1]["State/PfxRcd"])
}

func TestParseBGPSummaryNoNeighborsQuagga(t *testing.T) {
	rows, err := bgpcli.ParseBGPSummary("No IPv6 neighbor is configured\n")
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestParseBGPSummaryNoNeighborsFRRouting(t *testing.T) {
	rows, err := bgpcli.ParseBGPSummary("% No BGP neighbors found\n")
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestParseBGPSummaryLineWrap(t *testing.T) {
	summary := "Neighbor        V         AS MsgRcvd MsgSent   TblVer  InQ OutQ Up/Down  State/PfxRcd\n" +
		"2001:db8::ffff:ffff:ffff:ffff\n" +
		"                4      65400     100     100        0    0    0 01:02:03            3\n" +
		"\n"
	rows, err := bgpcli.ParseBGPSummary(summary)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2001:db8::ffff:ffff:ffff:ffff", rows[0]["Neighbor"])
	assert.Equal(t, "3", rows[0]["State/PfxRcd"])
}

func TestPeerTupleEstablishedNumericPfxRcd(t *testing.T) {
	suffix, status, ok := bgpcli.PeerTuple(map[string]string{
		"Neighbor":     "10.0.0.2",
		"State/PfxRcd": "5",
	})
	require.True(t, ok)
	assert.Equal(t, 6, status)
	assert.Equal(t, oid.OID{1, 4, 10, 0, 0, 2}, suffix)
}

func TestPeerTupleDynamicNeighborStripsStar(t *testing.T) {
	suffix, status, ok := bgpcli.PeerTuple(map[string]string{
		"Neighbor":     "*10.0.0.3",
		"State/PfxRcd": "Idle (Admin)",
	})
	require.True(t, ok)
	assert.Equal(t, 1, status)
	assert.Equal(t, oid.OID{1, 4, 10, 0, 0, 3}, suffix)
}

func TestPeerTupleIPv6(t *testing.T) {
	suffix, status, ok := bgpcli.PeerTuple(map[string]string{
		"Neighbor":     "2001:db8::1",
		"State/PfxRcd": "Established",
	})
	require.True(t, ok)
	assert.Equal(t, 6, status)
	require.Len(t, suffix, 2+16)
	assert.Equal(t, uint32(2), suffix[0])
	assert.Equal(t, uint32(16), suffix[1])
}

func TestPeerTupleUnknownStateIsSkipped(t *testing.T) {
	_, _, ok := bgpcli.PeerTuple(map[string]string{
		"Neighbor":     "10.0.0.2",
		"State/PfxRcd": "Clearing",
	})
	assert.False(t, ok)
}

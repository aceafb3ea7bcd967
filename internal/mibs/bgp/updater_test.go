package bgp_test

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/packetflux/agentx-subagent/internal/mibs/bgp"
	"github.com/packetflux/agentx-subagent/internal/oid"
)

// fakeVtysh simulates enough of a Quagga vtysh session to exercise
// SessionUpdater.Update end to end: banner, password prompt, one ipv4
// summary with a single established peer, and an empty ipv6 table.
func fakeVtysh(t *testing.T, ln net.Listener, done chan<- struct{}) {
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	r := bufio.NewReader(conn)

	conn.Write([]byte("Hello, this is Quagga (version 0.99.24.1)\r\nswitch# "))
	readLine(t, r) // "zebra"
	conn.Write([]byte("switch# "))

	readLine(t, r) // "show ip bgp summary"
	summary := "Neighbor        V         AS MsgRcvd MsgSent   TblVer  InQ OutQ Up/Down  State/PfxRcd\r\n" +
		"10.0.0.2        4      65200     100     100        0    0    0 01:02:03            5\r\n" +
		"\r\nswitch# "
	conn.Write([]byte(summary))

	readLine(t, r) // "show ipv6 bgp summary"
	conn.Write([]byte("No IPv6 neighbor is configured\r\nswitch# "))

	close(done)
}

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimRight(line, "\r\n")
}

func TestSessionUpdaterUpdatePublishesEstablishedPeer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	done := make(chan struct{})
	go fakeVtysh(t, ln, done)

	u := bgp.New("tcp", ln.Addr().String())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, u.Update(ctx))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fake vtysh server never finished")
	}

	first, ok := u.FirstSubID()
	require.True(t, ok)
	require.Equal(t, oid.OID{1, 4, 10, 0, 0, 2}, first)

	v, ok, err := u.Get(first)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(6), v.Int)

	_, ok = u.NextSubID(first)
	require.False(t, ok)

	require.NoError(t, u.Close())
}

package axsession_test

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetflux/agentx-subagent/internal/axpdu"
	"github.com/packetflux/agentx-subagent/internal/axsession"
	"github.com/packetflux/agentx-subagent/internal/axvalue"
	"github.com/packetflux/agentx-subagent/internal/mibtree"
	"github.com/packetflux/agentx-subagent/internal/oid"
)

// fakeMaster plays the master-agent side of one AgentX connection: accept,
// answer open and register with success, send one get and check that the
// subagent answers it with an OctetString varbind, then close.
func fakeMaster(t *testing.T, ln net.Listener, done chan<- struct{}) {
	conn, err := ln.Accept()
	require.NoError(t, err)
	defer conn.Close()
	r := bufio.NewReader(conn)

	openPDU, err := axpdu.ReadPDU(r)
	require.NoError(t, err)
	require.Equal(t, axpdu.TypeOpen, openPDU.Header.Type)
	replyOpen := openPDU.Header
	replyOpen.Type = axpdu.TypeResponse
	replyOpen.SessionID = 42
	wire, err := axpdu.Encode(replyOpen, axpdu.ResponseBody{Error: axpdu.ErrNone})
	require.NoError(t, err)
	_, err = conn.Write(wire)
	require.NoError(t, err)

	regPDU, err := axpdu.ReadPDU(r)
	require.NoError(t, err)
	require.Equal(t, axpdu.TypeRegister, regPDU.Header.Type)
	replyReg := regPDU.Header
	replyReg.Type = axpdu.TypeResponse
	wire, err = axpdu.Encode(replyReg, axpdu.ResponseBody{Error: axpdu.ErrNone})
	require.NoError(t, err)
	_, err = conn.Write(wire)
	require.NoError(t, err)

	getHeader := axpdu.Header{
		Version: axpdu.AgentXVersion, Type: axpdu.TypeGet, Flags: axpdu.FlagNetworkByteOrder,
		SessionID: 42, TransactionID: 1, PacketID: 100,
	}
	wire, err = axpdu.Encode(getHeader, axpdu.GetBody{OIDs: []oid.OID{oid.MustParse(".1.3.6.1.2.1.2.2.1.2.1")}})
	require.NoError(t, err)
	_, err = conn.Write(wire)
	require.NoError(t, err)

	respPDU, err := axpdu.ReadPDU(r)
	require.NoError(t, err)
	require.Equal(t, axpdu.TypeResponse, respPDU.Header.Type)
	rb, ok := respPDU.Body.(axpdu.ResponseBody)
	require.True(t, ok)
	require.Len(t, rb.VarBinds, 1)
	require.Equal(t, axvalue.OctetString, rb.VarBinds[0].Value.Kind)

	close(done)
}

func TestSessionOpenRegisterServeGet(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	done := make(chan struct{})
	go fakeMaster(t, ln, done)

	idx := fakeIndex1()
	subtree := mibtree.Subtree{OID: oid.MustParse(".1.3.6.1.2.1.2.2.1.2"), Index: idx}
	tree := mibtree.Build([]mibtree.Entry{subtree})

	roots := []axsession.RegisterSpec{{Subtree: oid.MustParse(".1.3.6.1.2.1.2")}}
	s := axsession.NewSession("tcp", ln.Addr().String(), tree, roots, axsession.WithAgentTimeout(2*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fake master did not see expected PDU sequence")
	}
	cancel()
	<-errCh
}

func fakeIndex1() mibtree.Index {
	return &simpleIdx{subs: []oid.OID{{1}}, val: axvalue.OctetStringValue([]byte("Ethernet0"))}
}

type simpleIdx struct {
	subs []oid.OID
	val  axvalue.Value
}

func (s *simpleIdx) FirstSubID() (oid.OID, bool) { return s.subs[0], true }
func (s *simpleIdx) NextSubID(sub oid.OID) (oid.OID, bool) { return nil, false }
func (s *simpleIdx) Get(sub oid.OID) (axvalue.Value, bool, error) { return s.val, true, nil }

func TestStateStringer(t *testing.T) {
	assert.Equal(t, "established", axsession.Established.String())
	assert.Equal(t, "disconnected", axsession.Disconnected.String())
}

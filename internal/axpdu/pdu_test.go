package axpdu_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetflux/agentx-subagent/internal/axpdu"
	"github.com/packetflux/agentx-subagent/internal/axvalue"
	"github.com/packetflux/agentx-subagent/internal/oid"
)

func roundTrip(t *testing.T, h axpdu.Header, body interface{}) axpdu.PDU {
	t.Helper()
	wire, err := axpdu.Encode(h, body)
	require.NoError(t, err)

	r := bufio.NewReader(bytes.NewReader(wire))
	pdu, err := axpdu.ReadPDU(r)
	require.NoError(t, err)
	return pdu
}

func TestOpenRoundTrip(t *testing.T) {
	h := axpdu.Header{Version: axpdu.AgentXVersion, Type: axpdu.TypeOpen, Flags: axpdu.FlagNetworkByteOrder, SessionID: 0, TransactionID: 1, PacketID: 1}
	body := axpdu.OpenBody{Timeout: 5, ID: oid.MustParse(".1.3.6.1.4.1.6027.1"), Descr: []byte("subagent")}

	pdu := roundTrip(t, h, body)
	got, ok := pdu.Body.(axpdu.OpenBody)
	require.True(t, ok)
	assert.Equal(t, body.Timeout, got.Timeout)
	assert.True(t, body.ID.Equal(got.ID))
	assert.Equal(t, body.Descr, got.Descr)
}

func TestRegisterRoundTripWithUpperBound(t *testing.T) {
	h := axpdu.Header{Version: axpdu.AgentXVersion, Type: axpdu.TypeRegister, SessionID: 7, TransactionID: 2, PacketID: 3}
	body := axpdu.RegisterBody{
		Timeout: 5, Priority: 127, RangeSubid: 2,
		Subtree: oid.MustParse(".1.3.6.1.2.1.2.2.1"), UpperBound: 10,
	}
	pdu := roundTrip(t, h, body)
	got, ok := pdu.Body.(axpdu.RegisterBody)
	require.True(t, ok)
	assert.Equal(t, body.Priority, got.Priority)
	assert.Equal(t, body.RangeSubid, got.RangeSubid)
	assert.Equal(t, body.UpperBound, got.UpperBound)
	assert.True(t, body.Subtree.Equal(got.Subtree))
}

func TestGetBulkRoundTrip(t *testing.T) {
	h := axpdu.Header{Version: axpdu.AgentXVersion, Type: axpdu.TypeGetBulk, Flags: axpdu.FlagNetworkByteOrder, SessionID: 1, TransactionID: 1, PacketID: 9}
	body := axpdu.GetBulkBody{
		NonRepeaters: 1, MaxRepetitions: 10,
		Ranges: []axpdu.SearchRange{
			{Start: oid.MustParse(".1.3.6.1.2.1.2.2.1.1"), End: oid.MustParse(".1.3.6.1.2.1.2.3")},
		},
	}
	pdu := roundTrip(t, h, body)
	got, ok := pdu.Body.(axpdu.GetBulkBody)
	require.True(t, ok)
	assert.Equal(t, body.NonRepeaters, got.NonRepeaters)
	assert.Equal(t, body.MaxRepetitions, got.MaxRepetitions)
	require.Len(t, got.Ranges, 1)
	assert.True(t, body.Ranges[0].Start.Equal(got.Ranges[0].Start))
	assert.True(t, body.Ranges[0].End.Equal(got.Ranges[0].End))
}

func TestResponseRoundTripAllValueKinds(t *testing.T) {
	h := axpdu.Header{Version: axpdu.AgentXVersion, Type: axpdu.TypeResponse, Flags: axpdu.FlagNetworkByteOrder, SessionID: 1, TransactionID: 1, PacketID: 2}
	body := axpdu.ResponseBody{
		SysUpTime: 12345, Error: axpdu.ErrNone,
		VarBinds: []axpdu.VarBind{
			{Name: oid.MustParse(".1.3.6.1.2.1.1.3.0"), Value: axvalue.TimeTicksValue(99)},
			{Name: oid.MustParse(".1.3.6.1.2.1.2.2.1.2.1"), Value: axvalue.OctetStringValue([]byte("eth0"))},
			{Name: oid.MustParse(".1.3.6.1.2.1.2.2.1.8.1"), Value: axvalue.IntValue(1)},
			{Name: oid.MustParse(".1.3.6.1.2.1.2.2.1.10.1"), Value: axvalue.Counter32Value(42)},
			{Name: oid.MustParse(".1.3.6.1.2.1.31.1.1.1.6.1"), Value: axvalue.Counter64Value(1 << 40)},
			{Name: oid.MustParse(".1.3.6.1.2.1.4.20.1.1"), Value: axvalue.IPAddressValue([]byte{10, 0, 0, 1})},
			{Name: oid.MustParse(".1.3.6.1.2.1.1.99.0"), Value: axvalue.NullValue()},
			{Name: oid.MustParse(".1.3.6.1.2.1.1.100.0"), Value: axvalue.NoSuchInstanceValue()},
		},
	}
	pdu := roundTrip(t, h, body)
	got, ok := pdu.Body.(axpdu.ResponseBody)
	require.True(t, ok)
	assert.Equal(t, body.SysUpTime, got.SysUpTime)
	require.Len(t, got.VarBinds, len(body.VarBinds))
	for i, vb := range body.VarBinds {
		assert.True(t, vb.Name.Equal(got.VarBinds[i].Name), "varbind %d name", i)
		assert.Equal(t, vb.Value.Kind, got.VarBinds[i].Value.Kind, "varbind %d kind", i)
	}
}

func TestPingRoundTrip(t *testing.T) {
	h := axpdu.Header{Version: axpdu.AgentXVersion, Type: axpdu.TypePing, SessionID: 4, TransactionID: 1, PacketID: 1}
	pdu := roundTrip(t, h, axpdu.PingBody{})
	_, ok := pdu.Body.(axpdu.PingBody)
	assert.True(t, ok)
}

func TestMalformedBodyIsParseError(t *testing.T) {
	h := axpdu.Header{Version: axpdu.AgentXVersion, Type: axpdu.TypeResponse, SessionID: 1, TransactionID: 1, PacketID: 1, PayloadLength: 3}
	wire := append(h.Marshal(), []byte{1, 2, 3}...)
	r := bufio.NewReader(bytes.NewReader(wire))
	_, err := axpdu.ReadPDU(r)
	require.Error(t, err)
	assert.True(t, axpdu.IsParseError(err))
}

func TestMalformedHeaderIsNotParseError(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte{9, 1, 1, 0, 0, 0, 0, 0}))
	_, err := axpdu.ReadPDU(r)
	require.Error(t, err)
	assert.False(t, axpdu.IsParseError(err))
}

func TestIgnoredSetBodiesRoundTrip(t *testing.T) {
	for _, typ := range []axpdu.Type{axpdu.TypeTestSet, axpdu.TypeCommitSet, axpdu.TypeUndoSet, axpdu.TypeCleanupSet} {
		h := axpdu.Header{Version: axpdu.AgentXVersion, Type: typ, SessionID: 1, TransactionID: 1, PacketID: 1}
		pdu := roundTrip(t, h, axpdu.IgnoredSetBody{})
		_, ok := pdu.Body.(axpdu.IgnoredSetBody)
		assert.True(t, ok)
	}
}

package axsession

import (
	"bufio"
	"context"
	"math/rand"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/packetflux/agentx-subagent/internal/axpdu"
	"github.com/packetflux/agentx-subagent/internal/mibtree"
	"github.com/packetflux/agentx-subagent/internal/oid"
)

// State is one of the session FSM's states.
type State int

const (
	Disconnected State = iota
	Opening
	Registering
	Established
	Closing
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Opening:
		return "opening"
	case Registering:
		return "registering"
	case Established:
		return "established"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}

// RegisterSpec is one subtree this subagent registers with the master
// agent on every (re)connect.
type RegisterSpec struct {
	Subtree  oid.OID
 Priority uint8 // : always 127 unless a module requests otherwise
	Timeout  uint8
}

// DefaultPriority is the priority every module registers at unless it
// asks for another.
const DefaultPriority uint8 = 127

// Option configures a Session, grounded on damianoneill/net's
// snmp/serverfactory.go NewServer(...ServerOption) functional-options
// constructor.
type Option func(*Session)

// WithTrace installs diagnostic hooks, merged over the defaults.
func WithTrace(t *Trace) Option {
	return func(s *Session) {
		merged, err := WithOverrides(t)
		if err == nil {
			s.trace = merged
		}
	}
}

// WithAgentTimeout overrides the keepalive timeout (default 5s, the
// AgentX request timeout default).
func WithAgentTimeout(d time.Duration) Option {
	return func(s *Session) { s.agentTimeout = d }
}

// WithDescr sets the subagent description string sent in the open PDU.
func WithDescr(descr string) Option {
	return func(s *Session) { s.descr = descr }
}

// WithSubagentOID sets the OID the open PDU identifies this subagent by.
func WithSubagentOID(o oid.OID) Option {
	return func(s *Session) { s.subagentOID = o }
}

// Session drives one AgentX connection's lifecycle: dial, open, register
// every root, then serve requests until the connection drops or ctx is
// canceled, reconnecting with backoff in between. Grounded on
// snmp/session.go's retry-on-timeout read/write loop for the I/O shape.
type Session struct {
	network, address string
	tree              *mibtree.Tree
	roots             []RegisterSpec

	descr       string
	subagentOID oid.OID

	agentTimeout time.Duration
	trace        *Trace
	rnd          *rand.Rand

	state State

	conn          net.Conn
	r             *bufio.Reader
	sessionID     uint32
	transactionID uint32
	packetID      uint32
}

// NewSession builds a Session dialing network/address (e.g. "tcp",
// "host:705" or "unix", "/var/agentx/master.sock") and registering roots
// on every connect.
func NewSession(network, address string, tree *mibtree.Tree, roots []RegisterSpec, opts ...Option) *Session {
	s := &Session{
		network:      network,
		address:      address,
		tree:         tree,
		roots:        roots,
		agentTimeout: 5 * time.Second,
		trace:        DefaultTrace(),
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
		state:        Disconnected,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drives the session until ctx is canceled: connect, open, register,
// serve, and on any failure cycle disconnected -> backoff -> disconnected,
// retrying the open.
func (s *Session) Run(ctx context.Context) error {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		err := s.connectAndServe(ctx)
		if ctx.Err() != nil {
			return nil
		}
		s.trace.error(err)
		delay := Backoff(attempt, s.rnd)
		attempt++
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return nil
		}
	}
}

func (s *Session) setState(to State) {
	s.trace.stateChange(s.state, to)
	s.state = to
}

func (s *Session) connectAndServe(ctx context.Context) error {
	s.setState(Opening)
	s.trace.connectStart(s.address)
	conn, err := (&net.Dialer{}).DialContext(ctx, s.network, s.address)
	s.trace.connectDone(s.address, err)
	if err != nil {
		s.setState(Disconnected)
		return errors.Wrap(err, "axsession: dial")
	}
	s.conn = conn
	s.r = bufio.NewReader(conn)
	defer func() {
		s.conn.Close()
		s.conn = nil
	}()

	if err := s.open(ctx); err != nil {
		s.setState(Disconnected)
		return err
	}

	s.setState(Registering)
	for _, root := range s.roots {
		if err := s.register(root); err != nil {
			s.setState(Closing)
			s.closeSession(axpdu.CloseReasonOther)
			s.setState(Disconnected)
			return err
		}
	}

	s.setState(Established)
	err = s.serve(ctx)
	s.setState(Disconnected)
	return err
}

func (s *Session) nextHeader(typ axpdu.Type, flags byte) axpdu.Header {
	s.packetID++
	return axpdu.Header{
		Version:       axpdu.AgentXVersion,
		Type:          typ,
		Flags:         flags | axpdu.FlagNetworkByteOrder,
		SessionID:     s.sessionID,
		TransactionID: s.transactionID,
		PacketID:      s.packetID,
	}
}

func (s *Session) writePDU(h axpdu.Header, body interface{}) error {
	wire, err := axpdu.Encode(h, body)
	if err != nil {
		return errors.Wrap(err, "axsession: encode")
	}
	if _, err := s.conn.Write(wire); err != nil {
		return errors.Wrap(err, "axsession: write")
	}
	s.trace.pduSent(h)
	return nil
}

func (s *Session) readPDU() (axpdu.PDU, error) {
	pdu, err := axpdu.ReadPDU(s.r)
	if err != nil {
		return axpdu.PDU{}, err
	}
	s.trace.pduRecv(pdu.Header)
	return pdu, nil
}

func (s *Session) open(ctx context.Context) error {
	h := s.nextHeader(axpdu.TypeOpen, 0)
	if err := s.writePDU(h, axpdu.OpenBody{Timeout: 5, ID: s.subagentOID, Descr: []byte(s.descr)}); err != nil {
		return err
	}
	pdu, err := s.readPDU()
	if err != nil {
		return errors.Wrap(err, "axsession: open response")
	}
	resp, ok := pdu.Body.(axpdu.ResponseBody)
	if !ok {
		return errors.New("axsession: open: unexpected response body")
	}
	if resp.Error != axpdu.ErrNone {
		return errors.Errorf("axsession: open failed: error=%d", resp.Error)
	}
	s.sessionID = pdu.Header.SessionID
	return nil
}

func (s *Session) register(root RegisterSpec) error {
	priority := root.Priority
	if priority == 0 {
		priority = DefaultPriority
	}
	h := s.nextHeader(axpdu.TypeRegister, 0)
	body := axpdu.RegisterBody{Timeout: root.Timeout, Priority: priority, Subtree: root.Subtree}
	if err := s.writePDU(h, body); err != nil {
		return err
	}
	pdu, err := s.readPDU()
	if err != nil {
		return errors.Wrap(err, "axsession: register response")
	}
	resp, ok := pdu.Body.(axpdu.ResponseBody)
	if !ok {
		return errors.New("axsession: register: unexpected response body")
	}
	if resp.Error != axpdu.ErrNone {
		return errors.Errorf("axsession: register %s failed: error=%d", root.Subtree, resp.Error)
	}
	return nil
}

func (s *Session) closeSession(reason byte) {
	h := s.nextHeader(axpdu.TypeClose, 0)
	_ = s.writePDU(h, axpdu.CloseBody{Reason: reason})
}

// serve reads and answers request PDUs until the connection fails, a
// peer-initiated close arrives, or ctx is canceled. Keepalive: if no PDU
// arrives within agentTimeout, a ping is sent; if no reply arrives within
// half that, the session is torn down.
func (s *Session) serve(ctx context.Context) error {
	type readResult struct {
		pdu axpdu.PDU
		err error
	}
	pdus := make(chan readResult, 1)
	go func() {
		for {
			pdu, err := s.readPDU()
			pdus <- readResult{pdu, err}
			if err != nil && !axpdu.IsParseError(err) {
				return
			}
		}
	}()

	timer := time.NewTimer(s.agentTimeout)
	defer timer.Stop()
	awaitingPingReply := false

	for {
		select {
		case <-ctx.Done():
			s.closeSession(axpdu.CloseReasonShutdown)
			return nil

		case rr := <-pdus:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.agentTimeout)
			awaitingPingReply = false

			if rr.err != nil {
				if axpdu.IsParseError(rr.err) {
					h := s.nextHeader(axpdu.TypeResponse, 0)
					h.SessionID = s.sessionID
					_ = s.writePDU(h, axpdu.ResponseBody{Error: axpdu.ErrParseError, ErrorIndex: 0})
					continue
				}
				return rr.err
			}

			if rr.pdu.Header.Type == axpdu.TypeClose {
				return nil
			}

			resp := Dispatch(s.tree, rr.pdu.Header, rr.pdu.Body)
			replyHeader := rr.pdu.Header
			replyHeader.Type = axpdu.TypeResponse
			if err := s.writePDU(replyHeader, resp); err != nil {
				return err
			}

		case <-timer.C:
			if awaitingPingReply {
				return errors.New("axsession: ping timeout")
			}
			h := s.nextHeader(axpdu.TypePing, 0)
			if err := s.writePDU(h, axpdu.PingBody{}); err != nil {
				return err
			}
			awaitingPingReply = true
			timer.Reset(s.agentTimeout / 2)
		}
	}
}

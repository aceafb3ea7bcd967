package axsession

import (
	"log"

	"github.com/imdario/mergo"

	"github.com/packetflux/agentx-subagent/internal/axpdu"
)

// Trace carries diagnostic hooks a caller can observe session lifecycle
// and I/O through, adapted directly from damianoneill/net's snmp/trace.go
// SessionTrace (ConnectStart/Done, Error, WriteDone, ReadDone) and the
// default/diagnostic/no-op hook-set variants in snmp/serverhooks.go.
// Every field is optional; nil hooks are no-ops.
type Trace struct {
	ConnectStart func(addr string)
	ConnectDone  func(addr string, err error)
	StateChange  func(from, to State)
	PDUSent      func(h axpdu.Header)
	PDURecv      func(h axpdu.Header)
	Error        func(err error)
}

// DefaultTrace is the zero-value, all-hooks-nil Trace.
func DefaultTrace() *Trace { return &Trace{} }

// LoggingTrace reports connection lifecycle and error events via the
// standard log package, matching snmp/serverhooks.go's DefaultServerHooks.
func LoggingTrace() *Trace {
	return &Trace{
		ConnectStart: func(addr string) {
			log.Printf("AgentX-ConnectStart target:%s\n", addr)
		},
		ConnectDone: func(addr string, err error) {
			log.Printf("AgentX-ConnectDone target:%s err:%v\n", addr, err)
		},
		StateChange: func(from, to State) {
			log.Printf("AgentX-StateChange from:%s to:%s\n", from, to)
		},
		Error: func(err error) {
			log.Printf("AgentX-Error err:%v\n", err)
		},
	}
}

// WithOverrides merges non-nil fields of override onto a copy of the
// default trace, exactly as snmp/serverfactory.go merges caller-supplied
// hooks over defaults via mergo.Merge(..., mergo.WithOverride).
func WithOverrides(override *Trace) (*Trace, error) {
	merged := DefaultTrace()
	if override == nil {
		return merged, nil
	}
	if err := mergo.Merge(merged, override, mergo.WithOverride); err != nil {
		return nil, err
	}
	return merged, nil
}

func (t *Trace) connectStart(addr string) {
	if t != nil && t.ConnectStart != nil {
		t.ConnectStart(addr)
	}
}

func (t *Trace) connectDone(addr string, err error) {
	if t != nil && t.ConnectDone != nil {
		t.ConnectDone(addr, err)
	}
}

func (t *Trace) stateChange(from, to State) {
	if t != nil && t.StateChange != nil {
		t.StateChange(from, to)
	}
}

func (t *Trace) pduSent(h axpdu.Header) {
	if t != nil && t.PDUSent != nil {
		t.PDUSent(h)
	}
}

func (t *Trace) pduRecv(h axpdu.Header) {
	if t != nil && t.PDURecv != nil {
		t.PDURecv(h)
	}
}

func (t *Trace) error(err error) {
	if t != nil && t.Error != nil && err != nil {
		t.Error(err)
	}
}

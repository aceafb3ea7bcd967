// Package axsession implements the AgentX session state machine:
// open/register/ping/dispatch/close/reconnect over a stream socket,
// grounded on damianoneill/net's snmp/session.go retry-on-timeout read/write
// loop, adapted to a reader-goroutine-feeding-a-channel shape (needed
// here, unlike a synchronous request/response client, because the
// subagent must also originate unsolicited pings and react to the
// master agent at any time).
package axsession

import (
	"github.com/packetflux/agentx-subagent/internal/axpdu"
	"github.com/packetflux/agentx-subagent/internal/axvalue"
	"github.com/packetflux/agentx-subagent/internal/mibtree"
)

// Dispatch answers one established-state request PDU against tree,
// implementing the per-PDU-type handling table. It never touches the
// network; the session loop is responsible for framing the result PDU
// and writing it, which keeps this function directly testable.
func Dispatch(tree *mibtree.Tree, header axpdu.Header, body interface{}) axpdu.ResponseBody {
	switch b := body.(type) {
	case axpdu.GetBody:
		return dispatchGet(tree, b)
	case axpdu.GetNextBody:
		return dispatchGetNext(tree, b.Ranges)
	case axpdu.GetBulkBody:
		return dispatchGetBulk(tree, b)
	case axpdu.IgnoredSetBody:
		return axpdu.ResponseBody{Error: axpdu.ErrNotWritable, ErrorIndex: 1}
	case axpdu.PingBody:
		return axpdu.ResponseBody{Error: axpdu.ErrNone}
	default:
		return axpdu.ResponseBody{Error: axpdu.ErrGenErr, ErrorIndex: 1}
	}
}

func dispatchGet(tree *mibtree.Tree, b axpdu.GetBody) axpdu.ResponseBody {
	resp := axpdu.ResponseBody{Error: axpdu.ErrNone}
	for _, o := range b.OIDs {
		v, res := tree.Lookup(o)
		switch res {
		case mibtree.Found:
			resp.VarBinds = append(resp.VarBinds, axpdu.VarBind{Name: o, Value: v})
		case mibtree.NoSuchInstance:
			resp.VarBinds = append(resp.VarBinds, axpdu.VarBind{Name: o, Value: axvalue.NoSuchInstanceValue()})
		default: // NoSuchObject
			resp.VarBinds = append(resp.VarBinds, axpdu.VarBind{Name: o, Value: axvalue.NoSuchObjectValue()})
		}
	}
	return resp
}

func dispatchGetNext(tree *mibtree.Tree, ranges []axpdu.SearchRange) axpdu.ResponseBody {
	resp := axpdu.ResponseBody{Error: axpdu.ErrNone}
	for _, r := range ranges {
		resp.VarBinds = append(resp.VarBinds, nextVarBind(tree, r))
	}
	return resp
}

// nextVarBind resolves one GetNext-style range to a single varbind,
// honoring the range's End bound: if the resulting OID is at or past
// end, the varbind reports end_of_mib_view.
func nextVarBind(tree *mibtree.Tree, r axpdu.SearchRange) axpdu.VarBind {
	o, v, res := tree.Successor(r.Start, r.Include)
	if res != mibtree.Found {
		return axpdu.VarBind{Name: r.Start, Value: axvalue.EndOfMibViewValue()}
	}
	if len(r.End) > 0 && !o.Less(r.End) {
		return axpdu.VarBind{Name: r.Start, Value: axvalue.EndOfMibViewValue()}
	}
	return axpdu.VarBind{Name: o, Value: v}
}

func dispatchGetBulk(tree *mibtree.Tree, b axpdu.GetBulkBody) axpdu.ResponseBody {
	resp := axpdu.ResponseBody{Error: axpdu.ErrNone}

	nonRep := int(b.NonRepeaters)
	if nonRep > len(b.Ranges) {
		nonRep = len(b.Ranges)
	}
	for i := 0; i < nonRep; i++ {
		resp.VarBinds = append(resp.VarBinds, nextVarBind(tree, b.Ranges[i]))
	}

	repeating := b.Ranges[nonRep:]
	cursors := make([]axpdu.SearchRange, len(repeating))
	copy(cursors, repeating)
	done := make([]bool, len(repeating))

	for rep := 0; rep < int(b.MaxRepetitions); rep++ {
		allDone := true
		for i := range cursors {
			if done[i] {
				continue
			}
			vb := nextVarBind(tree, cursors[i])
			resp.VarBinds = append(resp.VarBinds, vb)
			if vb.Value.Kind == axvalue.EndOfMibView {
				done[i] = true
				continue
			}
			allDone = false
			cursors[i] = axpdu.SearchRange{Start: vb.Name, Include: false, End: cursors[i].End}
		}
		if allDone {
			break
		}
	}
	return resp
}

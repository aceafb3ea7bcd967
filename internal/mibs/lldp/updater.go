// Package lldp implements the IEEE 802.1AB LLDP-MIB local-chassis,
// local-port and remote-systems tables, grounded on
// original_source/mibs/ieee802_1ab.py's LLDPLocalSystemDataUpdater,
// LocPortUpdater and LLDPUpdater.
package lldp

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/packetflux/agentx-subagent/internal/dbstore"
	"github.com/packetflux/agentx-subagent/internal/mibs/interfaces"
	"github.com/packetflux/agentx-subagent/internal/oid"
	"github.com/packetflux/agentx-subagent/internal/updater"
)

const appDB = "APPL_DB"
const locChassisTable = "LOC_CHASSIS_TABLE"

// PortRow is one local/remote port's LLDP-relevant data, keyed by ifIndex.
type PortRow struct {
	IfIndex int
	IfName  string
	Alias       string            // lldpLocPortId
	Description string            // lldpLocPortDesc
	Remote      map[string]string // raw LLDP_ENTRY_TABLE hash, nil if no remote neighbor
}

type snapshot struct {
	subs    []oid.OID
	rows    map[int]PortRow
	chassis map[string]string
}

// Updater scans APPL_DB's PORT_TABLE on the first cycle after each Reinit,
// reads LOC_CHASSIS_TABLE every cycle, and incrementally tracks
// LLDP_ENTRY_TABLE through a keyspace subscription,
// matching LocPortUpdater.update_data's non-blocking pubsub drain.
type Updater struct {
	ns *dbstore.Namespace

	events <-chan dbstore.Event
	rows   map[int]PortRow // ifIndex -> row, mutated in place across cycles
	snap   updater.Snapshot[snapshot]
}

func New(ns *dbstore.Namespace) *Updater {
	return &Updater{ns: ns}
}

func (u *Updater) Name() string { return "lldp" }

func (u *Updater) Reinit(ctx context.Context) error {
	u.rows = nil
	u.events = nil
	return nil
}

func (u *Updater) Update(ctx context.Context) error {
	if u.rows == nil {
		if err := u.rebuild(ctx); err != nil {
			return err
		}
	}
	if u.events == nil {
		host := u.ns.Host()
		if host != nil {
			ch, err := host.SubscribeKeyspace(ctx, appDB, "LLDP_ENTRY_TABLE:*")
			if err == nil {
				u.events = ch
			}
		}
	}
	u.drainEvents(ctx)

	chassis, err := u.ns.GetAll(ctx, appDB, locChassisTable)
	if err != nil {
		return err
	}

	subs := make([]oid.OID, 0, len(u.rows))
	for idx := range u.rows {
		subs = append(subs, oid.OID{uint32(idx)})
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Less(subs[j]) })

	rows := make(map[int]PortRow, len(u.rows))
	for k, v := range u.rows {
		rows[k] = v
	}
	u.snap.Store(snapshot{subs: subs, rows: rows, chassis: chassis})
	return nil
}

// rebuild does a full PORT_TABLE scan, matching reinit_data's first pass.
func (u *Updater) rebuild(ctx context.Context) error {
	keys, err := u.ns.Keys(ctx, appDB, "PORT_TABLE:*")
	if err != nil {
		return err
	}
	rows := make(map[int]PortRow)
	for _, key := range keys {
		name := strings.TrimPrefix(key, "PORT_TABLE:")
		idx, ok := interfaces.IfIndex(name)
		if !ok {
			continue
		}
		rows[idx] = u.loadPort(ctx, idx, name)
	}
	u.rows = rows
	return nil
}

func (u *Updater) loadPort(ctx context.Context, idx int, name string) PortRow {
	row := PortRow{IfIndex: idx, IfName: name}
	if fields, err := u.ns.GetAll(ctx, appDB, "PORT_TABLE:"+name); err == nil {
		row.Alias = fields["alias"]
		row.Description = fields["description"]
	}
	if rem, err := u.ns.GetAll(ctx, appDB, "LLDP_ENTRY_TABLE:"+name); err == nil && len(rem) > 0 {
		row.Remote = rem
	}
	return row
}

// drainEvents applies any pending keyspace notifications non-blockingly,
// matching update_data's "while True: msg = pubsub.get_message(); if not
// msg: break" loop.
func (u *Updater) drainEvents(ctx context.Context) {
	if u.events == nil {
		return
	}
	for {
		select {
		case ev, ok := <-u.events:
			if !ok {
				u.events = nil
				return
			}
			u.applyEvent(ctx, ev)
		default:
			return
		}
	}
}

func (u *Updater) applyEvent(ctx context.Context, ev dbstore.Event) {
	name := strings.TrimPrefix(ev.Key, "LLDP_ENTRY_TABLE:")
	idx, ok := interfaces.IfIndex(name)
	if !ok {
		return
	}
	row, known := u.rows[idx]
	if !known {
		row = PortRow{IfIndex: idx, IfName: name}
	}
	switch ev.Kind {
	case dbstore.EventDel, dbstore.EventExpired:
		row.Remote = nil
	case dbstore.EventSet:
		if rem, err := u.ns.GetAll(ctx, appDB, ev.Key); err == nil {
			row.Remote = rem
		}
	}
	u.rows[idx] = row
}

func (u *Updater) Close() error { return nil }

func (u *Updater) row(sub oid.OID) (PortRow, bool) {
	if len(sub) != 1 {
		return PortRow{}, false
	}
	s := u.snap.Load()
	r, ok := s.rows[int(sub[0])]
	return r, ok
}

func (u *Updater) keys() []oid.OID { return u.snap.Load().subs }

// remoteKeys restricts keys() to ports that currently carry LLDP neighbor
// data, so lldpRemTable only reports ports with a live connection, per
// "one or more rows per physical network connection known to this agent".
func (u *Updater) remoteKeys() []oid.OID {
	s := u.snap.Load()
	out := make([]oid.OID, 0, len(s.subs))
	for _, sub := range s.subs {
		if len(sub) == 1 {
			if r, ok := s.rows[int(sub[0])]; ok && hasRemote(r) {
				out = append(out, sub)
			}
		}
	}
	return out
}

func (u *Updater) chassisField(name string) string { return u.snap.Load().chassis[name] }

func (u *Updater) chassisInt(name string) int64 {
	n, _ := strconv.ParseInt(u.snap.Load().chassis[name], 10, 64)
	return n
}

func remoteField(r PortRow, name string) string {
	if r.Remote == nil {
		return ""
	}
	return r.Remote[name]
}

func remoteInt(r PortRow, name string) int64 {
	n, _ := strconv.ParseInt(remoteField(r, name), 10, 64)
	return n
}

// hasRemote reports whether r carries LLDP neighbor data, gating the
// remote-systems table to only ports with a live LLDP peer (lldpRemTable's
// "one row per... network connection known to this agent").
func hasRemote(r PortRow) bool { return r.Remote != nil }

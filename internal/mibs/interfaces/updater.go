package interfaces

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/packetflux/agentx-subagent/internal/dbstore"
	"github.com/packetflux/agentx-subagent/internal/oid"
	"github.com/packetflux/agentx-subagent/internal/updater"
)

// ethernetRE matches SONiC front-panel port names, grounded on
// port_util.SONIC_ETHERNET_RE_PATTERN ("EthernetN").
var ethernetRE = regexp.MustCompile(`^Ethernet(\d+)$`)
var lagRE = regexp.MustCompile(`^PortChannel(\d+)$`)
var vlanRE = regexp.MustCompile(`^Vlan(\d+)$`)

// oidIndex derives the sub_id for an interface name: trailing port number
// plus one for a front-panel port (Ethernet0 is 1), 1000+channel for a
// LAG, 2000+vlan for a VLAN SVI, 10000 flat for the single management
// interface (eth0).
func oidIndex(name string) (int, kind, bool) {
	if name == "eth0" {
		return managementBase, kindManagement, true
	}
	if m := ethernetRE.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n + 1, kindFrontPanel, true
	}
	if m := lagRE.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		return lagBase + n, kindLAG, true
	}
	if m := vlanRE.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		return vlanBase + n, kindVLAN, true
	}
	return 0, 0, false
}

const (
	appDB     = "APPL_DB"
	configDB  = "CONFIG_DB"
	countersDB = "COUNTERS_DB"
)

// IfIndex resolves name to its ifIndex using the same rules as the
// interface table itself, for other MIB modules (routes) that reference
// an interface by name and need its ifIndex without re-deriving it.
func IfIndex(name string) (int, bool) {
	idx, _, ok := oidIndex(name)
	return idx, ok
}

type snapshot struct {
	subs []oid.OID
	rows map[uint32]Row
}

// Updater reads PORT_TABLE/LAG_TABLE/VLAN_TABLE/MGMT_PORT_TABLE and the
// per-port COUNTERS_DB hash every cycle and republishes one Row per
// known interface, grounded on init_sync_d_interface_tables et al.
type Updater struct {
	ns *dbstore.Namespace

	counterNameMap map[string]string // if_name -> COUNTERS_DB key (sai id)
	snap           updater.Snapshot[snapshot]
}

// New builds an Updater reading from ns.
func New(ns *dbstore.Namespace) *Updater {
	return &Updater{ns: ns}
}

func (u *Updater) Name() string { return "interfaces" }

// Reinit rebuilds the COUNTERS_PORT_NAME_MAP (if_name -> sai id), matching
// init_sync_d_interface_tables' periodic re-derivation of the interface
// oid/name maps.
func (u *Updater) Reinit(ctx context.Context) error {
	fields, err := u.ns.GetAll(ctx, countersDB, "COUNTERS_PORT_NAME_MAP")
	if err != nil {
		return err
	}
	u.counterNameMap = fields
	return nil
}

func (u *Updater) Update(ctx context.Context) error {
	keys, err := u.ns.Keys(ctx, appDB, "PORT_TABLE:*")
	if err != nil {
		return err
	}
	lagKeys, err := u.ns.Keys(ctx, appDB, "LAG_TABLE:*")
	if err != nil {
		return err
	}
	vlanKeys, err := u.ns.Keys(ctx, appDB, "VLAN_TABLE:*")
	if err != nil {
		return err
	}

	rows := make(map[uint32]Row)
	var subs []oid.OID

	addRow := func(prefix string, dbName string, key string) {
		name := strings.TrimPrefix(key, prefix)
		idx, k, ok := oidIndex(name)
		if !ok {
			return
		}
		fields, err := u.ns.GetAll(ctx, dbName, key)
		if err != nil {
			return
		}
		row := u.buildRow(ctx, k, name, idx, fields)
		sub := oid.OID{uint32(idx)}
		rows[uint32(idx)] = row
		subs = append(subs, sub)
	}

	for _, k := range keys {
		addRow("PORT_TABLE:", appDB, k)
	}
	for _, k := range lagKeys {
		addRow("LAG_TABLE:", appDB, k)
	}
	for _, k := range vlanKeys {
		addRow("VLAN_TABLE:", appDB, k)
	}

	// eth0 is a single CONFIG_DB-sourced management row (MGMT_PORT_TABLE
	// uses '|' as its separator, not ':' — see mgmt_if_entry_table).
	if fields, err := u.ns.GetAll(ctx, configDB, "MGMT_PORT|eth0"); err == nil && len(fields) > 0 {
		idx, k, _ := oidIndex("eth0")
		row := u.buildRow(ctx, k, "eth0", idx, fields)
		rows[uint32(idx)] = row
		subs = append(subs, oid.OID{uint32(idx)})
	}

	sort.Slice(subs, func(i, j int) bool { return subs[i].Less(subs[j]) })
	u.snap.Store(snapshot{subs: subs, rows: rows})
	return nil
}

func (u *Updater) buildRow(ctx context.Context, k kind, name string, idx int, fields map[string]string) Row {
	row := Row{
		Kind:        k,
		Name:        name,
		Alias:       orDefault(fields["alias"], name),
		Index:       idx,
		MTU:         int(parseCounter(fields, "mtu")),
		AdminStatus: adminStatusOf(fields["admin_status"]),
		OperStatus:  RFC2863Status(fields["oper_status"]),
		PhysAddress: parseMAC(fields["mac"]),
	}
	if speed, err := strconv.ParseInt(fields["speed"], 10, 64); err == nil {
		row.SpeedMbps = speed
	}

	if saiID, ok := u.counterNameMap[name]; ok {
		counters, err := u.ns.GetAll(ctx, countersDB, fmt.Sprintf("COUNTERS:%s", saiID))
		if err == nil {
			row.InOctets = parseCounter(counters, "SAI_PORT_STAT_IF_IN_OCTETS")
			row.InUcast = parseCounter(counters, "SAI_PORT_STAT_IF_IN_UCAST_PKTS")
			row.InErrors = parseCounter(counters, "SAI_PORT_STAT_IF_IN_ERRORS")
			row.OutOctets = parseCounter(counters, "SAI_PORT_STAT_IF_OUT_OCTETS")
			row.OutUcast = parseCounter(counters, "SAI_PORT_STAT_IF_OUT_UCAST_PKTS")
			row.OutErrors = parseCounter(counters, "SAI_PORT_STAT_IF_OUT_ERRORS")
		}
	}
	return row
}

func adminStatusOf(raw string) int {
	if raw == "up" {
		return AdminUp
	}
	return AdminDown
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseMAC(s string) []byte {
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return nil
	}
	out := make([]byte, 6)
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return nil
		}
		out[i] = byte(n)
	}
	return out
}

func (u *Updater) Close() error { return nil }

// row looks up the published row for sub, for the ColumnIndex entries
// built in entry.go.
func (u *Updater) row(sub oid.OID) (Row, bool) {
	if len(sub) != 1 {
		return Row{}, false
	}
	s := u.snap.Load()
	r, ok := s.rows[sub[0]]
	return r, ok
}

func (u *Updater) keys() []oid.OID {
	return u.snap.Load().subs
}

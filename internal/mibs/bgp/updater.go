// Package bgp implements the Cisco BGP4 MIB's peer-state subtree
// (cbgpPeer2State, .1.3.6.1.4.1.9.9.187.1.2.5.1.3), grounded on
// original_source/src/sonic_ax_impl/mibs/vendor/cisco/bgp4.py's
// BgpSessionUpdater: a cooperative updater that owns a quagga/FRRouting
// vtysh session, reconnecting on failure, and exposes a sorted sub_id
// index over the live peer set for GetNext's binary-search walk.
package bgp

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/packetflux/agentx-subagent/internal/axvalue"
	"github.com/packetflux/agentx-subagent/internal/bgpcli"
	"github.com/packetflux/agentx-subagent/internal/oid"
	"github.com/packetflux/agentx-subagent/internal/updater"
)

// SubtreeOID is the Cisco BGP4 MIB's cbgpPeer2State column.
var SubtreeOID = oid.MustParse(".1.3.6.1.4.1.9.9.187.1.2.5.1.3")

type snapshot struct {
	subs   []oid.OID
	status map[string]int
}

// SessionUpdater polls the routing daemon's vtysh port for BGP neighbor
// summaries and republishes a sorted peer-state index, matching
// BgpSessionUpdater.update_data: reconnect-and-auth lazily, merge ipv4 and
// ipv6 neighbor tables (ipv4 entries win on a shared key, matching
// QuaggaClient.union_bgp_sessions), and convert each surviving row via
// bgpcli.PeerTuple.
type SessionUpdater struct {
	network, address string

	client *bgpcli.Client
	snap   updater.Snapshot[snapshot]
}

// New builds a SessionUpdater dialing the routing daemon's vtysh port at
// network/address (e.g. "tcp", "127.0.0.1:2605", matching
// QuaggaClient.HOST/PORT).
func New(network, address string) *SessionUpdater {
	return &SessionUpdater{network: network, address: address}
}

func (u *SessionUpdater) Name() string { return "bgp-sessions" }

// Reinit is a no-op; this updater has no topology cache to rebuild,
// matching BgpSessionUpdater.reinit_data.
func (u *SessionUpdater) Reinit(ctx context.Context) error { return nil }

func (u *SessionUpdater) Update(ctx context.Context) error {
	if u.client == nil {
		c, err := bgpcli.Dial(ctx, u.network, u.address)
		if err != nil {
			return errors.Wrap(err, "bgp: dial")
		}
		if _, err := c.Auth(bgpcli.DefaultPassword); err != nil {
			_ = c.Close()
			return errors.Wrap(err, "bgp: auth")
		}
		u.client = c
	}

	ipv4, err := u.client.ShowBGPSummary("ip")
	if err != nil {
		u.dropConn()
		return errors.Wrap(err, "bgp: show ip bgp summary")
	}
	ipv6, err := u.client.ShowBGPSummary("ipv6")
	if err != nil {
		u.dropConn()
		return errors.Wrap(err, "bgp: show ipv6 bgp summary")
	}

	rows4, err := bgpcli.ParseBGPSummary(ipv4)
	if err != nil {
		u.dropConn()
		return errors.Wrap(err, "bgp: parse ipv4 summary")
	}
	rows6, err := bgpcli.ParseBGPSummary(ipv6)
	if err != nil {
		u.dropConn()
		return errors.Wrap(err, "bgp: parse ipv6 summary")
	}

	merged := make(map[string]map[string]string, len(rows4)+len(rows6))
	for _, r := range rows6 {
		merged[r["Neighbor"]] = r
	}
	for _, r := range rows4 {
		merged[r["Neighbor"]] = r
	}

	status := make(map[string]int, len(merged))
	subs := make([]oid.OID, 0, len(merged))
	for _, row := range merged {
		suffix, st, ok := bgpcli.PeerTuple(row)
		if !ok {
			continue
		}
		subs = append(subs, suffix)
		status[suffix.String()] = st
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Less(subs[j]) })

	u.snap.Store(snapshot{subs: subs, status: status})
	return nil
}

func (u *SessionUpdater) dropConn() {
	if u.client != nil {
		_ = u.client.Close()
		u.client = nil
	}
}

func (u *SessionUpdater) Close() error {
	if u.client == nil {
		return nil
	}
	err := u.client.Close()
	u.client = nil
	return err
}

// FirstSubID implements mibtree.Index.
func (u *SessionUpdater) FirstSubID() (oid.OID, bool) {
	s := u.snap.Load()
	if len(s.subs) == 0 {
		return nil, false
	}
	return s.subs[0], true
}

// NextSubID implements mibtree.Index with a binary search over the sorted
// peer list, mirroring BgpSessionUpdater.get_next's bisect_right.
func (u *SessionUpdater) NextSubID(sub oid.OID) (oid.OID, bool) {
	s := u.snap.Load()
	idx := sort.Search(len(s.subs), func(i int) bool { return sub.Less(s.subs[i]) })
	if idx >= len(s.subs) {
		return nil, false
	}
	return s.subs[idx], true
}

// Get implements mibtree.Index.
func (u *SessionUpdater) Get(sub oid.OID) (axvalue.Value, bool, error) {
	s := u.snap.Load()
	st, ok := s.status[sub.String()]
	if !ok {
		return axvalue.Value{}, false, nil
	}
	return axvalue.IntValue(int32(st)), true, nil
}

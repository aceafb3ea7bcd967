// Package system implements MIB-II's system group (sysDescr, sysObjectID,
// sysUpTime, sysName), grounded on
// original_source/tests/test_sysname.py's expected sysName behavior.
// rfc1213.py's own source was not available in original_source, so
// sysDescr/sysObjectID/sysUpTime follow RFC 1213's standard fixed
// semantics directly rather than a ported file.
package system

import (
	"context"
	"time"

	"github.com/packetflux/agentx-subagent/internal/dbstore"
	"github.com/packetflux/agentx-subagent/internal/oid"
	"github.com/packetflux/agentx-subagent/internal/updater"
)

const configDB = "CONFIG_DB"

// enterpriseOID is the sysObjectID this agent reports: the private
// enterprise arc a subagent built by this process would register under,
// with no further specialization.
var enterpriseOID = oid.MustParse(".1.3.6.1.4.1.99999.1")

type snapshot struct {
	hostname string
	platform string
}

// Updater reads CONFIG_DB's DEVICE_METADATA|localhost hostname/platform
// fields each cycle and reports process uptime from the moment it was
// constructed, matching sysUpTime's "time since last reinitialization of
// the network management portion of the system" for this subagent.
type Updater struct {
	ns      *dbstore.Namespace
	started time.Time
	now     func() time.Time
	snap    updater.Snapshot[snapshot]
}

func New(ns *dbstore.Namespace) *Updater {
	return &Updater{ns: ns, started: time.Now(), now: time.Now}
}

func (u *Updater) Name() string { return "system" }

func (u *Updater) Reinit(ctx context.Context) error { return nil }

func (u *Updater) Update(ctx context.Context) error {
	fields, err := u.ns.GetAll(ctx, configDB, "DEVICE_METADATA|localhost")
	if err != nil {
		return err
	}
	u.snap.Store(snapshot{hostname: fields["hostname"], platform: fields["platform"]})
	return nil
}

func (u *Updater) Close() error { return nil }

func (u *Updater) sysName() string { return u.snap.Load().hostname }

func (u *Updater) sysDescr() string {
	platform := u.snap.Load().platform
	if platform == "" {
		return "SONiC Software"
	}
	return "SONiC Software (" + platform + ")"
}

// sysUpTime reports hundredths of a second since construction, wrapping
// at 2^32 per TimeTicks' defined range.
func (u *Updater) sysUpTime() uint32 {
	elapsed := u.now().Sub(u.started)
	return uint32(elapsed.Milliseconds() / 10)
}

package bgp

import "github.com/packetflux/agentx-subagent/internal/mibtree"

// Entry returns the mibtree.Subtree wiring SubtreeOID to u as its Index.
func Entry(u *SessionUpdater) mibtree.Subtree {
	return mibtree.Subtree{OID: SubtreeOID, Index: u}
}

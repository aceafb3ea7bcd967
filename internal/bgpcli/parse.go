package bgpcli

import (
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/packetflux/agentx-subagent/internal/oid"
)

// DefaultPassword is the credential vtysh expects for an unauthenticated
// local socket, grounded on QuaggaClient.auth's hardcoded "zebra".
const DefaultPassword = "zebra"

// StateCode maps a BGP neighbor's textual State/PfxRcd column to its
// bgpPeerState integer, grounded on quaggaclient.py's STATE_CODE. A
// numeric PfxRcd value (the session is Established and printing a prefix
// count instead of a state name) maps to 6 (established) by the caller,
// not through this table.
var StateCode = map[string]int{
	"Idle":          1,
	"Idle (Admin)":  1,
	"Connect":       2,
	"Active":        3,
	"OpenSent":      4,
	"OpenConfirm":   5,
	"Established":   6,
}

var wsRE = regexp.MustCompile(`\s+`)

// ParseBGPSummary parses "show [ip|ipv6] bgp summary" output into one map
// per neighbor row, keyed by the table's own header columns (Neighbor, V,
// AS, MsgRcvd, ..., State/PfxRcd, ...). It mirrors
// parse_bgp_summary line for line: skip to the header, bail out early on
// the two "no neighbors" banners, join line-wrapped rows (a row with no
// spaces is a lone neighbor address that overflowed the column and wraps
// onto the next line), and split each row with the header's column count
// so "Idle (Admin)" survives as one field in State/PfxRcd.
func ParseBGPSummary(summary string) ([]map[string]string, error) {
	lines := splitLines(summary)
	n := len(lines)

	li := 0
	for li < n {
		l := lines[li]
		switch {
		case strings.HasPrefix(l, "Neighbor        "):
			goto header
		case strings.HasPrefix(l, "No IPv"):
			return nil, nil
		case strings.HasPrefix(l, "% No BGP neighbors found"):
			return nil, nil
		case (strings.HasSuffix(l, "> ") || strings.HasSuffix(l, "# ")) && li == n-1:
			return nil, nil
		}
		li++
	}
	return nil, errors.Errorf("bgpcli: no table header found: %q", summary)

header:
	if li >= n {
		return nil, errors.Errorf("bgpcli: no table header found: %q", summary)
	}
	headerFields := wsRE.Split(strings.TrimRight(lines[li], " \t\r"), -1)
	headerFields = trimLeadingEmpty(headerFields)
	hn := len(headerFields)
	li++

	var rows []map[string]string
	for li < n {
		l := lines[li]
		li++
		if l == "" {
			break
		}

		if !strings.Contains(l, " ") {
			if li >= n {
				return nil, errors.Errorf("bgpcli: unexpected line wrap at EOF")
			}
			l += lines[li]
			li++
		}

		fields := splitN(strings.TrimRight(l, " \t\r"), hn)
		if len(fields) != hn {
			return nil, errors.Errorf("bgpcli: unexpected row in table: %q", l)
		}
		row := make(map[string]string, hn)
		for i, h := range headerFields {
			row[h] = fields[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}

func trimLeadingEmpty(fields []string) []string {
	i := 0
	for i < len(fields) && fields[i] == "" {
		i++
	}
	return fields[i:]
}

// splitN splits s on runs of whitespace into at most n fields, the way
// Python's re.split(pattern, s, maxsplit=n-1) does: the first n-1 fields
// are single tokens, and the nth field is whatever remains (so a
// multi-word value like "Idle (Admin)" survives intact in the final
// column).
func splitN(s string, n int) []string {
	fields := trimLeadingEmpty(wsRE.Split(s, n))
	if len(fields) < n {
		return fields
	}
	return fields
}

// PeerTuple derives the OID sub-identifier suffix and bgpPeerState for one
// parsed summary row, grounded on bgp_peer_tuple. ok is false when the
// state column is neither numeric (an established session's PfxRcd count)
// nor a recognized STATE_CODE name, matching the Python function's
// `return None, None`.
func PeerTuple(row map[string]string) (suffix oid.OID, status int, ok bool) {
	neighbor := row["Neighbor"]
	state := row["State/PfxRcd"]

	neighbor = strings.TrimPrefix(neighbor, "*")

	ip := net.ParseIP(neighbor)
	if ip == nil {
		return nil, 0, false
	}

	var head oid.OID
	var packed []byte
	if v4 := ip.To4(); v4 != nil {
		head = oid.OID{1, 4}
		packed = v4
	} else {
		head = oid.OID{2, 16}
		packed = ip.To16()
	}

	if _, err := strconv.Atoi(state); err == nil {
		status = 6
	} else if code, found := StateCode[state]; found {
		status = code
	} else {
		return nil, 0, false
	}

	suffix = head
	for _, b := range packed {
		suffix = suffix.Append(uint32(b))
	}
	return suffix, status, true
}

// Package oid implements the Object Identifier type used throughout the
// dispatch engine: parsing, textual formatting, ordering, and the AgentX
// pad-to-4 rule.
package oid

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// InternetPrefix is prepended to a "bare" textual OID (no leading dot).
var InternetPrefix = OID{1, 3, 6, 1}

// OID is an ordered tuple of non-negative sub-identifiers. Canonical
// ordering is lexicographic over the tuple. Values are copied, never
// aliased, by the functions in this package.
type OID []uint32

// Parse converts a textual OID into its tuple form.
//
// A bare OID (no leading dot) has the internet prefix (1,3,6,1) prepended.
// A dotted OID (leading dot) is taken literally. A trailing dot, an empty
// group, or any non-digit component is invalid.
func Parse(s string) (OID, error) {
	if s == "" {
		return OID{}, nil
	}

	literal := strings.HasPrefix(s, ".")
	body := s
	if literal {
		body = s[1:]
	}
	if body == "" || strings.HasSuffix(body, ".") || strings.Contains(body, "..") {
		return nil, errors.Errorf("invalid OID string %q", s)
	}

	parts := strings.Split(body, ".")
	out := make(OID, 0, len(parts)+len(InternetPrefix))
	if !literal {
		out = append(out, InternetPrefix...)
	}
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid OID component %q in %q", p, s)
		}
		out = append(out, uint32(n))
	}
	return out, nil
}

// MustParse is Parse, panicking on error. Intended for tests and static
// MIB-module declarations where the OID literal is known-good.
func MustParse(s string) OID {
	o, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return o
}

// String renders the canonical dotted textual form, always with a leading
// dot so the output round-trips through Parse unambiguously.
func (o OID) String() string {
	if len(o) == 0 {
		return "."
	}
	var b strings.Builder
	for _, sub := range o {
		b.WriteByte('.')
		b.WriteString(strconv.FormatUint(uint64(sub), 10))
	}
	return b.String()
}

// Clone returns an independent copy.
func (o OID) Clone() OID {
	out := make(OID, len(o))
	copy(out, o)
	return out
}

// Append returns a new OID with sub-identifiers appended; o is not mutated.
func (o OID) Append(subs ...uint32) OID {
	out := make(OID, len(o), len(o)+len(subs))
	copy(out, o)
	return append(out, subs...)
}

// Equal reports whether o and other name the same OID.
func (o OID) Equal(other OID) bool {
	if len(o) != len(other) {
		return false
	}
	for i := range o {
		if o[i] != other[i] {
			return false
		}
	}
	return true
}

// Less reports whether o sorts strictly before other in the canonical
// lexicographic tuple ordering.
func (o OID) Less(other OID) bool {
	n := len(o)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if o[i] != other[i] {
			return o[i] < other[i]
		}
	}
	return len(o) < len(other)
}

// IsPrefixOf reports whether o is a (non-strict) prefix of other: every
// sub-identifier of o matches the corresponding sub-identifier of other, and
// o is no longer than other.
func (o OID) IsPrefixOf(other OID) bool {
	if len(o) > len(other) {
		return false
	}
	for i := range o {
		if o[i] != other[i] {
			return false
		}
	}
	return true
}

// Successor returns the lexicographically immediate next OID: o with one
// extra trailing zero sub-identifier appended. This is the OID that is
// strictly greater than o but less than any OID formed by appending a
// non-zero sub-identifier to o, matching the semantics required for
// lexicographic tree walks (see mibtree.Tree.Successor).
func (o OID) Successor() OID {
	return o.Append(0)
}

// Pad4 returns the number of zero bytes needed to round length up to a
// multiple of 4: Pad4(9) == 3, Pad4(20) == 0.
func Pad4(length int) int {
	r := length % 4
	if r == 0 {
		return 0
	}
	return 4 - r
}

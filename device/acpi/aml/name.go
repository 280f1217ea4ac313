package aml

import "strings"

// nameLen is the fixed width of an AML NameSeg in bytes.
const nameLen = 4

// Name is a 4-byte, underscore-padded AML name segment.
type Name [nameLen]byte

// rootName is the well-known name of the namespace root ('\').
var rootName = Name{'\\', '_', '_', '_'}

// NewName pads s with trailing underscores (or truncates it) to build a
// valid 4-byte Name. Callers are expected to pass already-validated NameSeg
// bytes; this helper exists mainly so Go code (predefined objects, tests, the
// CLI) can spell names as ordinary strings.
func NewName(s string) Name {
	var n Name
	for i := range n {
		n[i] = '_'
	}
	copy(n[:], s)
	return n
}

// String trims trailing underscores for display purposes.
func (n Name) String() string {
	return strings.TrimRight(string(n[:]), "_")
}

// Equal compares two names with trailing underscores treated as
// insignificant, so "PCI_" and "PCI" name the same object.
func (n Name) Equal(other Name) bool {
	return n.String() == other.String()
}

// isLeadNameChar reports whether b can start a NameSeg (A-Z or '_').
func isLeadNameChar(b byte) bool {
	return (b >= 'A' && b <= 'Z') || b == '_'
}

// isNameChar reports whether b can appear after the first byte of a NameSeg.
func isNameChar(b byte) bool {
	return isLeadNameChar(b) || (b >= '0' && b <= '9')
}

// NameString is a decoded AML NameString: zero or more leading '^' (parent
// prefixes), an absolute marker, and zero or more 4-byte name segments.
type NameString struct {
	// Absolute is true if the NameString began with '\'.
	Absolute bool

	// ParentLevels counts leading '^' characters.
	ParentLevels int

	// Segments holds the decoded NameSeg sequence; empty for the null name
	// or a bare sequence of carets / the lone root prefix.
	Segments []Name
}

// IsNull reports whether this is the AML "null name" (NullName, 0x00): no
// segments, not absolute, no parent prefixes.
func (ns NameString) IsNull() bool {
	return !ns.Absolute && ns.ParentLevels == 0 && len(ns.Segments) == 0
}

// String renders the NameString in dotted form, mostly for diagnostics.
func (ns NameString) String() string {
	var b strings.Builder
	if ns.Absolute {
		b.WriteByte('\\')
	}
	for i := 0; i < ns.ParentLevels; i++ {
		b.WriteByte('^')
	}
	for i, seg := range ns.Segments {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.String())
	}
	return b.String()
}

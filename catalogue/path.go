// Package catalogue implements RegisterPath and RegisterCatalogue
// (spec.md §3): the canonical register name type and the immutable
// path-to-info map a backend returns.
//
// Grounded on asdu/identifier.go's comparable-value-type idiom for
// CommonAddr/InfoObjAddr (RegisterPath is likewise a thin comparable
// wrapper, not a bare string, so catalogue lookups stay type-safe).
package catalogue

import "strings"

// Path is a canonical, slash-separated register name (spec.md §3). Two
// paths compare equal iff their normalised forms are identical:
// collapsed "//" runs and no trailing "/".
type Path string

// NewPath normalises raw into canonical form.
func NewPath(raw string) Path {
	if raw == "" {
		return ""
	}
	leadingSlash := strings.HasPrefix(raw, "/")
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == '/' })
	joined := strings.Join(parts, "/")
	if leadingSlash {
		joined = "/" + joined
	}
	return Path(joined)
}

// Join composes p with child segments, inserting exactly one "/" between
// each, and normalises the result.
func (p Path) Join(children ...string) Path {
	segs := append([]string{string(p)}, children...)
	return NewPath(strings.Join(segs, "/"))
}

// String returns the canonical form.
func (p Path) String() string { return string(p) }

// Base returns the final path segment.
func (p Path) Base() string {
	s := strings.TrimPrefix(string(p), "/")
	if s == "" {
		return ""
	}
	segs := strings.Split(s, "/")
	return segs[len(segs)-1]
}

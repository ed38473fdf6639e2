// Package lfpath implements the bounded, ASCII, NUL-terminated path strings
// spec.md §4.7 describes, plus two orderings ("string order" and
// "medium-iteration order").
package lfpath

import (
	"strings"

	"github.com/dargueta/littlefs/lferrors"
)

// MaxLength is the longest a path's bytes may be, not counting the
// terminating NUL the on-medium form implies (spec invariant 5).
const MaxLength = 255

// Path is a validated, absolute-or-relative, ASCII, slash-separated path.
// The zero value is not a valid Path; use [New].
type Path string

// New validates s against spec invariant 5 (ASCII, non-NUL, length <= 255)
// and returns it as a [Path]. The literal components "." and ".." are not
// resolved here or anywhere else in the core — they are ordinary names.
func New(s string) (Path, error) {
	if len(s) > MaxLength {
		return "", lferrors.WithMessage(
			lferrors.NameTooLong,
			"path exceeds the maximum of 255 bytes",
		)
	}
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b == 0 {
			return "", lferrors.WithMessage(lferrors.Invalid, "path contains an embedded NUL byte")
		}
		if b > 0x7F {
			return "", lferrors.WithMessage(lferrors.Invalid, "path contains a non-ASCII byte")
		}
	}
	return Path(s), nil
}

// IsAbsolute reports whether the path begins with a slash.
func (p Path) IsAbsolute() bool {
	return strings.HasPrefix(string(p), "/")
}

// IsEmpty reports whether the path has zero length.
func (p Path) IsEmpty() bool {
	return len(p) == 0
}

// FileName returns the last non-slash component, or ("", false) for the
// empty path, the root path, or a path ending in a slash (spec §4.7).
func (p Path) FileName() (Path, bool) {
	s := string(p)
	if s == "" {
		return "", false
	}
	idx := strings.LastIndexByte(s, '/')
	if idx == -1 {
		return p, true
	}
	if idx == len(s)-1 {
		// Trailing slash: no file name component.
		return "", false
	}
	return Path(s[idx+1:]), true
}

// Parent strips the final slash-plus-component, returning ("", false) for
// the root path or a path with no slash in it.
func (p Path) Parent() (Path, bool) {
	s := string(p)
	idx := strings.LastIndexByte(s, '/')
	if idx == -1 {
		return "", false
	}
	if idx == 0 {
		if len(s) == 1 {
			// Parent of "/" is none.
			return "", false
		}
		return "/", true
	}
	if idx == len(s)-1 {
		trimmed, _ := New(s[:idx])
		return trimmed.Parent()
	}
	return Path(s[:idx]), true
}

// Components splits the path into its non-empty, non-slash components, in
// left-to-right order. A leading "/" is reported as its own "/" component to
// match littlefs2's `Path::iter` (see original_source core/src/path.rs).
func (p Path) Components() []Path {
	s := string(p)
	var out []Path
	if strings.HasPrefix(s, "/") {
		out = append(out, "/")
	}
	for _, part := range strings.Split(s, "/") {
		if part != "" {
			out = append(out, Path(part))
		}
	}
	return out
}

// Join adjoins rhs to p with exactly one separating slash.
func (p Path) Join(rhs Path) Path {
	if p.IsEmpty() {
		return rhs
	}
	if strings.HasSuffix(string(p), "/") {
		return Path(string(p) + string(rhs))
	}
	return Path(string(p) + "/" + string(rhs))
}

// Compare orders two paths the way a plain string comparison would. It
// differs from [Path.CompareMediumOrder] only when one path is a prefix of
// the other.
func (p Path) Compare(other Path) int {
	return strings.Compare(string(p), string(other))
}

// CompareMediumOrder orders two paths the way the on-medium log does: a
// byte-wise comparison where, if one path is a prefix of the other, the
// LONGER path sorts first. This matches littlefs's `cmp_lfs` (see
// original_source core/src/path.rs). Directory iteration in the root
// package does not sort by it: entries come back in the order they were
// added to the directory's log.
func (p Path) CompareMediumOrder(other Path) int {
	a, b := string(p), string(other)
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	if cmp := strings.Compare(a[:minLen], b[:minLen]); cmp != 0 {
		return cmp
	}
	// Equal up to minLen: the longer one precedes the shorter one, i.e. it
	// compares as "less".
	switch {
	case len(a) > len(b):
		return -1
	case len(a) < len(b):
		return 1
	default:
		return 0
	}
}

func (p Path) String() string {
	return string(p)
}

package merkle

import (
	"fmt"
	"strings"
)

// pathSeparator separates path segments in input paths. Paths are
// always relative and never empty.
const pathSeparator = "/"

// splitPath splits off the first segment of p. rest is empty when p is
// a single segment.
func splitPath(p string) (first, rest string) {
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i], p[i+1:]
	}
	return p, ""
}

// validatePath rejects paths that cannot name a tree entry: empty
// paths, absolute paths, empty segments, "."/".." segments, and
// segments containing NUL. No filesystem permits NUL in a name, and
// the canonicalization keys rely on NUL-free names.
func validatePath(p string) error {
	if p == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	for _, seg := range strings.Split(p, pathSeparator) {
		switch seg {
		case "":
			return fmt.Errorf("%w: %q contains an empty segment", ErrInvalidPath, p)
		case ".", "..":
			return fmt.Errorf("%w: %q contains %q", ErrInvalidPath, p, seg)
		}
		if strings.IndexByte(seg, 0) >= 0 {
			return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidPath, p)
		}
	}
	return nil
}

// comparePaths orders paths segment-wise lexicographically. This
// differs from plain string comparison when a segment contains bytes
// that sort before the separator: "a/x" precedes "a!b" because the
// segment "a" precedes "a!b".
func comparePaths(a, b string) int {
	for a != "" && b != "" {
		aSeg, aRest := splitPath(a)
		bSeg, bRest := splitPath(b)
		if c := strings.Compare(aSeg, bSeg); c != 0 {
			return c
		}
		a, b = aRest, bRest
	}
	return strings.Compare(a, b)
}

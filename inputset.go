package merkle

import (
	"fmt"
	"slices"
	"strings"
)

// InputEntry binds a relative path to an Input. A nil Input means the
// path holds zero-length content; the entry still occupies its name in
// the tree.
type InputEntry struct {
	Path  string
	Input Input
}

// InputSet is a validated, sorted mapping from relative path to Input.
// It is the boundary where path problems are rejected: duplicate paths,
// invalid paths, and file/directory conflicts fail here, so
// [Repository.BuildFromInputs] can trust the ordering unconditionally.
type InputSet struct {
	entries []InputEntry
}

// NewInputSet validates and sorts entries into an InputSet.
//
// Paths are ordered segment-wise lexicographically. Two entries with
// the same path return [ErrDuplicatePath]; a path that is also a
// directory prefix of another path returns [ErrPathConflict].
func NewInputSet(entries ...InputEntry) (*InputSet, error) {
	es := slices.Clone(entries)
	for i := range es {
		if err := validatePath(es[i].Path); err != nil {
			return nil, err
		}
	}
	slices.SortFunc(es, func(a, b InputEntry) int {
		return comparePaths(a.Path, b.Path)
	})
	for i := 1; i < len(es); i++ {
		prev, cur := es[i-1].Path, es[i].Path
		if cur == prev {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePath, cur)
		}
		if strings.HasPrefix(cur, prev+pathSeparator) {
			return nil, fmt.Errorf("%w: %q is a file but %q needs it as a directory", ErrPathConflict, prev, cur)
		}
	}
	return &InputSet{entries: es}, nil
}

// Len returns the number of entries.
func (s *InputSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries returns the sorted entries. The returned slice is the
// caller's to keep.
func (s *InputSet) Entries() []InputEntry {
	if s == nil {
		return nil
	}
	return slices.Clone(s.entries)
}

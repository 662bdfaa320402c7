package merkle

import (
	"fmt"
	"slices"
)

// Node is a canonical, immutable tree node: either a leaf wrapping a
// single Input, or a directory of uniquely named children sorted by
// name. Within one Repository, structurally equal nodes are always the
// same instance, so pointer identity is structural identity and shared
// subtrees are observable across independent builds.
type Node struct {
	// id is assigned by the interner before publication and never
	// changes. It is the stable structural identity used in parent keys.
	id uint64

	leaf    bool
	input   Input        // leaf only; nil is the zero-length sentinel
	entries []ChildEntry // directory only; sorted by name, names unique
}

// ChildEntry names one child inside a directory node.
type ChildEntry struct {
	Name  string
	Child *Node
}

// IsLeaf reports whether the node wraps an Input rather than children.
func (n *Node) IsLeaf() bool {
	return n.leaf
}

// Input returns the leaf's input reference. It is nil both for
// directories and for leaves bound to the zero-length sentinel; use
// [Node.IsLeaf] to distinguish.
func (n *Node) Input() Input {
	return n.input
}

// ChildEntries returns the directory's entries in name order. The
// returned slice is the caller's to keep; leaves return nil.
func (n *Node) ChildEntries() []ChildEntry {
	return slices.Clone(n.entries)
}

// describe names the node in error messages.
func (n *Node) describe() string {
	switch {
	case n.leaf && n.input != nil:
		return fmt.Sprintf("leaf %q", n.input.ID())
	case n.leaf:
		return "empty leaf"
	default:
		return fmt.Sprintf("directory with %d entries", len(n.entries))
	}
}

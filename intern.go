package merkle

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// interner is the canonicalization table: one representative Node per
// structural key, shared by every build on the repository for its whole
// lifetime. Entries accumulate monotonically and are never replaced.
type interner struct {
	nodes  sync.Map // structural key (string) -> *Node
	nextID atomic.Uint64
}

// intern publishes candidate under key, or returns the representative
// already there. LoadOrStore makes the check-and-insert atomic per key,
// so two concurrent builds of an equal subtree always converge on one
// instance. The candidate's id is assigned before publication; a losing
// candidate's id is simply discarded with it.
func (t *interner) intern(key string, candidate *Node) *Node {
	if existing, ok := t.nodes.Load(key); ok {
		return existing.(*Node)
	}
	candidate.id = t.nextID.Add(1)
	actual, _ := t.nodes.LoadOrStore(key, candidate)
	return actual.(*Node)
}

// leafKey is the structural key of a leaf: the input's stable identity,
// or a distinct sentinel tag for zero-length content.
func leafKey(in Input) string {
	if in == nil {
		return "empty"
	}
	return "leaf\x00" + in.ID()
}

// directoryKey is the structural key of a directory: the ordered
// (name, canonical child id) sequence. Children are already canonical
// when the key is computed, so equal sequences imply equal subtrees.
// NUL separates fields; validatePath guarantees names contain neither
// NUL nor the path separator, so the key is injective.
func directoryKey(entries []ChildEntry) string {
	var sb strings.Builder
	sb.WriteString("dir")
	for _, e := range entries {
		sb.WriteByte(0)
		sb.WriteString(e.Name)
		sb.WriteByte(0)
		sb.WriteString(strconv.FormatUint(e.Child.id, 10))
	}
	return sb.String()
}

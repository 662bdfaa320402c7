package merkle

// BuildFromInputs assembles the canonical tree for a set of inputs and
// returns its root directory node. An empty or nil set yields a
// directory with zero entries.
//
// Every directory and leaf passes through the intern table before being
// attached to its parent, so parent-level canonicalization always
// observes already-canonical children. Building is pure bookkeeping; no
// content is read until [Repository.ComputeMerkleDigests].
func (r *Repository) BuildFromInputs(set *InputSet) *Node {
	var entries []InputEntry
	if set != nil {
		entries = set.entries
	}
	return r.buildDirectory(entries)
}

// buildDirectory builds one directory level from entries whose paths
// are relative to it. Entries arrive sorted segment-wise, so all paths
// sharing a first segment form one contiguous run: a run of one with an
// empty remainder becomes a leaf, anything else recurses with the
// segment stripped.
func (r *Repository) buildDirectory(entries []InputEntry) *Node {
	var children []ChildEntry
	for i := 0; i < len(entries); {
		first, rest := splitPath(entries[i].Path)
		if rest == "" {
			children = append(children, ChildEntry{Name: first, Child: r.internLeaf(entries[i].Input)})
			i++
			continue
		}

		sub := []InputEntry{{Path: rest, Input: entries[i].Input}}
		j := i + 1
		for ; j < len(entries); j++ {
			seg, segRest := splitPath(entries[j].Path)
			if seg != first {
				break
			}
			sub = append(sub, InputEntry{Path: segRest, Input: entries[j].Input})
		}
		children = append(children, ChildEntry{Name: first, Child: r.buildDirectory(sub)})
		i = j
	}
	return r.interner.intern(directoryKey(children), &Node{entries: children})
}

// internLeaf returns the canonical leaf for an input reference.
func (r *Repository) internLeaf(in Input) *Node {
	return r.interner.intern(leafKey(in), &Node{leaf: true, input: in})
}

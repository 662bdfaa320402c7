package merkle

import "sync"

// reverseIndex maps digests back to the data that produced them: the
// serialized descriptor, or the original input whose raw bytes hash to
// the digest. It grows monotonically; a published mapping is never
// replaced.
type reverseIndex struct {
	mu          sync.Mutex
	descriptors map[Digest]*Descriptor
	inputs      map[Digest]Input
	order       []Digest // descriptor registration order, pre-order per computed root
}

func (x *reverseIndex) init() {
	x.descriptors = make(map[Digest]*Descriptor)
	x.inputs = make(map[Digest]Input)
}

// addDescriptor registers a descriptor, reporting whether it was new.
func (x *reverseIndex) addDescriptor(d *Descriptor) bool {
	if _, ok := x.descriptors[d.digest]; ok {
		return false
	}
	x.descriptors[d.digest] = d
	x.order = append(x.order, d.digest)
	return true
}

// addInput registers the input behind a raw content digest.
func (x *reverseIndex) addInput(d Digest, in Input) {
	if _, ok := x.inputs[d]; !ok {
		x.inputs[d] = in
	}
}

// registerTree records every descriptor and input reachable from root
// in the reverse index, pre-order, so descriptors resolve in an order
// where each parent precedes its children (or the child was registered
// by an earlier walk). Called after the root's digests are fully
// computed, so a descriptor already present implies its whole subtree
// is present and recursion can stop there.
func (r *Repository) registerTree(root *Node) {
	r.reverse.mu.Lock()
	defer r.reverse.mu.Unlock()

	var visit func(n *Node)
	visit = func(n *Node) {
		v, ok := r.nodeStates.Load(n)
		if !ok {
			return
		}
		st := v.(nodeState)
		if !r.reverse.addDescriptor(st.desc) {
			return
		}
		if n.leaf {
			if n.input != nil {
				if d, ok := r.contentDigests.Load(n.input.ID()); ok {
					r.reverse.addInput(d.(Digest), n.input)
				}
			}
			return
		}
		for _, e := range n.entries {
			visit(e.Child)
		}
	}
	visit(root)
}

// DataFromDigests partitions digests into the raw inputs and serialized
// descriptors that produced them, using the reverse index built by
// ComputeMerkleDigests. Typically the argument is the subset of
// [Repository.AllDigests] a remote store reported missing.
//
// Descriptors come back in registration order (pre-order from each
// computed root), so a consumer uploading them in reverse always has a
// child present before any descriptor referencing it. Inputs come back
// in the argument's order. Unknown digests are silently omitted from
// both lists; when one digest is claimed by both a descriptor and raw
// content, the descriptor wins.
func (r *Repository) DataFromDigests(digests []Digest) ([]Input, []*Descriptor) {
	want := make(map[Digest]struct{}, len(digests))
	for _, d := range digests {
		want[d] = struct{}{}
	}

	r.reverse.mu.Lock()
	defer r.reverse.mu.Unlock()

	var descriptors []*Descriptor
	for _, dg := range r.reverse.order {
		if _, ok := want[dg]; !ok {
			continue
		}
		descriptors = append(descriptors, r.reverse.descriptors[dg])
		delete(want, dg)
	}

	var inputs []Input
	for _, dg := range digests {
		if _, ok := want[dg]; !ok {
			continue
		}
		if in, ok := r.reverse.inputs[dg]; ok {
			inputs = append(inputs, in)
			delete(want, dg)
		}
	}
	return inputs, descriptors
}

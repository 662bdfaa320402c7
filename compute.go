package merkle

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// nodeState is the memoized result of digesting one canonical node: the
// node's merkle digest and the descriptor whose bytes produced it.
type nodeState struct {
	digest Digest
	desc   *Descriptor
}

// ComputeMerkleDigests hashes every node reachable from root and caches
// the results. Leaf content digests, leaf descriptors, and directory
// descriptors are computed bottom-up, memoized per canonical node, and
// registered in the reverse index for [Repository.DataFromDigests].
//
// Independent subtrees are digested in parallel; concurrent content
// reads are bounded by WithHashConcurrency. A read failure aborts the
// call with the originating error, but digests already computed for
// unaffected siblings stay cached and valid.
func (r *Repository) ComputeMerkleDigests(ctx context.Context, root *Node) error {
	if _, err := r.computeNode(ctx, root); err != nil {
		return err
	}
	r.registerTree(root)
	return nil
}

// MerkleDigest returns the cached digest of a node's descriptor.
// Querying a node not yet covered by ComputeMerkleDigests is a contract
// violation and returns [ErrDigestNotComputed]; the digest is never
// computed on demand.
func (r *Repository) MerkleDigest(node *Node) (Digest, error) {
	if v, ok := r.nodeStates.Load(node); ok {
		return v.(nodeState).digest, nil
	}
	return Digest{}, fmt.Errorf("%w: %s", ErrDigestNotComputed, node.describe())
}

// ContentDigest returns the cached raw content digest for an input. A
// nil input is the zero-length sentinel and always resolves.
func (r *Repository) ContentDigest(in Input) (Digest, error) {
	if in == nil {
		return r.emptyDigest, nil
	}
	if v, ok := r.contentDigests.Load(in.ID()); ok {
		return v.(Digest), nil
	}
	return Digest{}, fmt.Errorf("%w: input %q", ErrDigestNotComputed, in.ID())
}

// AllDigests returns the distinct digests of everything reachable from
// root: one descriptor digest per node and one content digest per leaf,
// in deterministic pre-order. Structurally shared subtrees contribute
// once, and digest-equal blobs collapse even when they came from
// distinct inputs.
func (r *Repository) AllDigests(root *Node) ([]Digest, error) {
	seen := make(map[Digest]struct{})
	visited := make(map[*Node]struct{})
	var out []Digest

	add := func(d Digest) {
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}

	var visit func(n *Node) error
	visit = func(n *Node) error {
		if _, ok := visited[n]; ok {
			return nil
		}
		visited[n] = struct{}{}

		d, err := r.MerkleDigest(n)
		if err != nil {
			return err
		}
		add(d)

		if n.leaf {
			content, err := r.ContentDigest(n.input)
			if err != nil {
				return err
			}
			add(content)
			return nil
		}
		for _, e := range n.entries {
			if err := visit(e.Child); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(root); err != nil {
		return nil, err
	}
	return out, nil
}

// computeNode digests one node, memoized by canonical identity. The
// singleflight keyed by intern id collapses concurrent computation of
// the same node across overlapping ComputeMerkleDigests calls.
//
// A waiter can receive the winner's context error when the winner's
// call was canceled by an unrelated failing input; retryShared makes
// the waiter rerun the flight under its own context so a healthy call
// never aborts on another call's cancellation.
func (r *Repository) computeNode(ctx context.Context, n *Node) (nodeState, error) {
	if v, ok := r.nodeStates.Load(n); ok {
		return v.(nodeState), nil
	}
	key := strconv.FormatUint(n.id, 10)
	for {
		v, err, _ := r.nodeGroup.Do(key, func() (any, error) {
			if v, ok := r.nodeStates.Load(n); ok {
				return v.(nodeState), nil
			}
			var st nodeState
			var err error
			if n.leaf {
				st, err = r.computeLeaf(ctx, n)
			} else {
				st, err = r.computeDirectory(ctx, n)
			}
			if err != nil {
				return nodeState{}, err
			}
			r.nodeStates.Store(n, st)
			return st, nil
		})
		if err == nil {
			return v.(nodeState), nil
		}
		if !retryShared(ctx, err) {
			return nodeState{}, err
		}
		r.nodeGroup.Forget(key)
	}
}

// retryShared reports whether a singleflight error is another call's
// cancellation rather than ours: the error is a context error but our
// own context is still alive.
func retryShared(ctx context.Context, err error) bool {
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return ctx.Err() == nil
}

// computeLeaf digests the leaf's content, then the file descriptor
// pointing at it.
func (r *Repository) computeLeaf(ctx context.Context, n *Node) (nodeState, error) {
	content, err := r.computeContent(ctx, n.input)
	if err != nil {
		return nodeState{}, err
	}
	meta := FileMetadata{
		Digest: string(content.Hash),
		Size:   content.Size,
	}
	if n.input != nil {
		meta.Executable = inputExecutable(n.input)
	}
	desc, err := encodeDescriptor(r.algorithm, MediaTypeFile, meta)
	if err != nil {
		return nodeState{}, err
	}
	return nodeState{digest: desc.digest, desc: desc}, nil
}

// computeDirectory digests all children first (in parallel), then the
// directory listing built from their digests. The listing is ordered by
// name, so its bytes are a pure function of the subtree.
func (r *Repository) computeDirectory(ctx context.Context, n *Node) (nodeState, error) {
	states := make([]nodeState, len(n.entries))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range n.entries {
		g.Go(func() error {
			st, err := r.computeNode(gctx, e.Child)
			if err != nil {
				return err
			}
			states[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nodeState{}, err
	}

	dir := Directory{Entries: make([]DirEntry, len(n.entries))}
	for i, e := range n.entries {
		kind := KindDirectory
		if e.Child.leaf {
			kind = KindFile
		}
		dir.Entries[i] = DirEntry{
			Name:   e.Name,
			Kind:   kind,
			Digest: string(states[i].digest.Hash),
			Size:   states[i].digest.Size,
		}
	}
	desc, err := encodeDescriptor(r.algorithm, MediaTypeDirectory, dir)
	if err != nil {
		return nodeState{}, err
	}
	return nodeState{digest: desc.digest, desc: desc}, nil
}

// computeContent digests an input's raw bytes, memoized by input
// identity so shared inputs are read once across all builds.
func (r *Repository) computeContent(ctx context.Context, in Input) (Digest, error) {
	if in == nil {
		return r.emptyDigest, nil
	}
	key := in.ID()
	if v, ok := r.contentDigests.Load(key); ok {
		return v.(Digest), nil
	}
	for {
		v, err, _ := r.contentGroup.Do(key, func() (any, error) {
			if v, ok := r.contentDigests.Load(key); ok {
				return v, nil
			}
			d, err := r.hashInput(ctx, in)
			if err != nil {
				return nil, err
			}
			r.contentDigests.Store(key, d)
			return d, nil
		})
		if err == nil {
			return v.(Digest), nil
		}
		if !retryShared(ctx, err) {
			return Digest{}, fmt.Errorf("digest input %q: %w", key, err)
		}
		r.contentGroup.Forget(key)
	}
}

// hashInput produces the content digest for one input, preferring a
// pre-computed digest from the source when available.
func (r *Repository) hashInput(ctx context.Context, in Input) (Digest, error) {
	if ds, ok := r.source.(DigestSource); ok {
		d, known, err := ds.InputDigest(ctx, in)
		if err != nil {
			return Digest{}, err
		}
		if known && d.Hash.Algorithm() == r.algorithm {
			return d, nil
		}
	}

	if err := r.hashSem.Acquire(ctx, 1); err != nil {
		return Digest{}, err
	}
	defer r.hashSem.Release(1)

	rc, err := r.source.Open(ctx, in)
	if err != nil {
		return Digest{}, err
	}
	defer rc.Close()

	d, err := DigestFromReader(r.algorithm, rc)
	if err != nil {
		return Digest{}, err
	}
	r.log().Debug("hashed input", "input", in.ID(), "digest", d.Hash, "size", d.Size)
	return d, nil
}

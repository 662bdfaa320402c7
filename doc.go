// Package merkle builds canonical, content-addressed directory trees
// over sets of build inputs and reconciles them against a
// content-addressable store (CAS).
//
// A [Repository] interns structurally equal subtrees so that repeated
// content is represented, hashed, and transferred once, no matter how
// many builds reference it. Digests are computed lazily and memoized
// per canonical node, and a reverse index maps any digest back to the
// serialized descriptor or raw input that produced it.
//
// # Quick Start
//
// Build a tree and compute its digests:
//
//	src := merkle.NewFSSource(os.DirFS("./out"))
//	set, err := src.Scan()
//	if err != nil {
//	    return err
//	}
//	repo := merkle.New(src)
//	root := repo.BuildFromInputs(set)
//	if err := repo.ComputeMerkleDigests(ctx, root); err != nil {
//	    return err
//	}
//	digests, err := repo.AllDigests(root)
//
// Resolve the digests a remote store is missing back to uploadable
// data:
//
//	inputs, descriptors := repo.DataFromDigests(missing)
//
// The [github.com/meigma/merkle/cas] subpackage drives this exchange
// against any ORAS content.Storage, pushing only blobs the store does
// not already hold.
//
// # Two-Tier Addressing
//
// Every tree node contributes a descriptor blob (a directory listing,
// or file metadata pointing at raw content), and every leaf
// additionally contributes its raw content blob. The two are
// separately addressable: a remote executor fetches directory metadata
// and file bytes as distinct objects, so both digests appear in
// [Repository.AllDigests] and both resolve through
// [Repository.DataFromDigests].
package merkle

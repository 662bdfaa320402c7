package merkle

import (
	"context"
	"io"
)

// Input references external content that can be bound into a tree as a
// leaf. The ID must be stable for the lifetime of the process: two
// Inputs referencing the same logical content report the same ID, and
// canonicalization treats them as one leaf.
//
// An Input is never mutated once bound into a tree.
type Input interface {
	// ID returns the stable identity of the referenced content.
	ID() string
}

// ExecutableInput is optionally implemented by Inputs that carry an
// executable bit. The bit travels in the leaf descriptor, not the raw
// content, so equal bytes with different modes still share one content
// blob.
type ExecutableInput interface {
	Input
	Executable() bool
}

// ContentSource provides the bytes behind an Input. A source is queried
// during digest computation only; read failures surface as
// ComputeMerkleDigests errors.
type ContentSource interface {
	// Open returns a reader over the input's content. The caller closes it.
	Open(ctx context.Context, in Input) (io.ReadCloser, error)
}

// DigestSource is optionally implemented by ContentSources that know
// content digests without reading bytes (e.g. a build cache that
// already hashed its outputs). A repository consults it before falling
// back to Open; digests computed with a different algorithm are
// ignored.
type DigestSource interface {
	// InputDigest returns the pre-computed digest for in, if known.
	InputDigest(ctx context.Context, in Input) (Digest, bool, error)
}

// inputExecutable reads the optional executable bit off an Input.
func inputExecutable(in Input) bool {
	if ei, ok := in.(ExecutableInput); ok {
		return ei.Executable()
	}
	return false
}

package merkle

import "errors"

// Sentinel errors for repository operations.
var (
	// ErrInvalidPath is returned when an input path is empty, absolute,
	// or contains empty, ".", or ".." segments.
	ErrInvalidPath = errors.New("merkle: invalid path")

	// ErrDuplicatePath is returned when two input entries share a path.
	ErrDuplicatePath = errors.New("merkle: duplicate path")

	// ErrPathConflict is returned when a path is used both as a file and
	// as a directory prefix of another path.
	ErrPathConflict = errors.New("merkle: path conflict")

	// ErrDigestNotComputed is returned when a digest is queried before
	// ComputeMerkleDigests covered the node.
	ErrDigestNotComputed = errors.New("merkle: digest not computed")

	// ErrUnsupportedInput is returned when a ContentSource is asked to
	// open an Input type it does not recognize.
	ErrUnsupportedInput = errors.New("merkle: unsupported input")

	// ErrMediaType is returned when descriptor bytes are decoded as the
	// wrong descriptor kind.
	ErrMediaType = errors.New("merkle: unexpected media type")
)

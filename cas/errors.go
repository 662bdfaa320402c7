package cas

import "errors"

// Sentinel errors for CAS exchange operations.
var (
	// ErrUnknownKind is returned when a directory listing references a
	// child of a kind this package does not understand.
	ErrUnknownKind = errors.New("cas: unknown entry kind")

	// ErrDigestMismatch is returned when fetched bytes do not match the
	// digest they were addressed by.
	ErrDigestMismatch = errors.New("cas: digest mismatch")
)

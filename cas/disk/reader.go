package disk

import (
	"errors"
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"
)

// ErrDigestMismatch is returned when blob bytes do not match the digest
// that addresses them, on write or on read-back.
var ErrDigestMismatch = errors.New("disk: digest mismatch")

// verifyReadCloser re-hashes blob bytes as they are read and fails the
// read that reaches EOF if the digest does not match. Corruption at
// rest surfaces as an error instead of silently wrong content.
type verifyReadCloser struct {
	r        io.Reader
	closer   io.Closer
	expected digest.Digest
	verifier digest.Verifier
}

func newVerifyReadCloser(r io.Reader, expected digest.Digest, closer io.Closer) io.ReadCloser {
	verifier := expected.Verifier()
	return &verifyReadCloser{
		r:        io.TeeReader(r, verifier),
		closer:   closer,
		expected: expected,
		verifier: verifier,
	}
}

func (v *verifyReadCloser) Read(p []byte) (int, error) {
	n, err := v.r.Read(p)
	if errors.Is(err, io.EOF) && !v.verifier.Verified() {
		return n, fmt.Errorf("blob %s: %w", v.expected, ErrDigestMismatch)
	}
	return n, err
}

func (v *verifyReadCloser) Close() error {
	return v.closer.Close()
}

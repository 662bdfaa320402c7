package merkle

import (
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"
)

// Digest identifies a byte sequence by its hash and length. Two digests
// are equal iff both match, so the zero allocation Go comparison is the
// equality relation and Digest can key maps directly.
type Digest struct {
	Hash digest.Digest
	Size int64
}

// DigestFromBytes computes the digest of data using algo.
func DigestFromBytes(algo digest.Algorithm, data []byte) Digest {
	return Digest{
		Hash: algo.FromBytes(data),
		Size: int64(len(data)),
	}
}

// DigestFromReader computes the digest of everything readable from r,
// counting bytes as it hashes.
func DigestFromReader(algo digest.Algorithm, r io.Reader) (Digest, error) {
	digester := algo.Digester()
	n, err := io.Copy(digester.Hash(), r)
	if err != nil {
		return Digest{}, fmt.Errorf("hash content: %w", err)
	}
	return Digest{Hash: digester.Digest(), Size: n}, nil
}

// IsZero reports whether d is the zero value (no digest, not the digest
// of zero bytes).
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// String renders the digest as "algorithm:hex/size".
func (d Digest) String() string {
	return fmt.Sprintf("%s/%d", d.Hash, d.Size)
}

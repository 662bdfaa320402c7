package merkle

import (
	"log/slog"

	"github.com/opencontainers/go-digest"
)

// Option configures a Repository.
type Option func(*Repository)

// WithAlgorithm sets the digest algorithm. The default is
// digest.Canonical (SHA-256). Changing the algorithm changes every
// digest the repository produces, so all parties exchanging digests
// must agree on it.
func WithAlgorithm(algo digest.Algorithm) Option {
	return func(r *Repository) {
		if algo.Available() {
			r.algorithm = algo
		}
	}
}

// WithHashConcurrency bounds the number of inputs hashed in parallel
// during ComputeMerkleDigests. Values < 1 are ignored. The default is
// GOMAXPROCS.
func WithHashConcurrency(n int) Option {
	return func(r *Repository) {
		if n >= 1 {
			r.hashConcurrency = int64(n)
		}
	}
}

// WithLogger sets the logger for repository operations. By default
// nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

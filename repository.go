package merkle

import (
	"log/slog"
	"runtime"
	"sync"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Repository interns tree nodes and caches their digests for the
// lifetime of the instance. It is the sole owner of all canonical
// nodes, cached digests, and the reverse index; callers only ever hold
// read-only references (root nodes and digest values).
//
// A Repository is safe for concurrent use: independent subtrees may be
// built and digested fully in parallel, and state only accumulates,
// never invalidates.
type Repository struct {
	source          ContentSource
	algorithm       digest.Algorithm
	hashConcurrency int64
	logger          *slog.Logger

	interner       interner
	nodeStates     sync.Map // *Node -> nodeState
	contentDigests sync.Map // Input.ID() -> Digest
	nodeGroup      singleflight.Group
	contentGroup   singleflight.Group
	reverse        reverseIndex

	hashSem     *semaphore.Weighted
	emptyDigest Digest
}

// New creates a repository that reads leaf content from source.
func New(source ContentSource, opts ...Option) *Repository {
	r := &Repository{
		source:          source,
		algorithm:       digest.Canonical,
		hashConcurrency: int64(runtime.GOMAXPROCS(0)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.hashSem = semaphore.NewWeighted(r.hashConcurrency)
	r.emptyDigest = DigestFromBytes(r.algorithm, nil)
	r.reverse.init()
	return r
}

// Algorithm returns the digest algorithm the repository hashes with.
func (r *Repository) Algorithm() digest.Algorithm {
	return r.algorithm
}

// Source returns the content source leaf bytes are read from.
func (r *Repository) Source() ContentSource {
	return r.source
}

// log returns the logger, falling back to a discard logger if nil.
func (r *Repository) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

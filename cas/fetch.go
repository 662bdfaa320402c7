package cas

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2/content"

	"github.com/meigma/merkle"
)

// Tree is a directory hierarchy rebuilt from descriptor blobs in a CAS,
// indexed by digest so callers can traverse it without re-fetching.
// File entries list their metadata only; raw content is not fetched.
type Tree struct {
	// RootDigest addresses the root directory descriptor.
	RootDigest merkle.Digest
	// Root is the decoded root directory listing.
	Root *merkle.Directory
	// Directories and Files hold every reachable descriptor, keyed by
	// the descriptor's own digest.
	Directories map[merkle.Digest]*merkle.Directory
	Files       map[merkle.Digest]*merkle.FileMetadata
}

// Fetcher retrieves descriptor blobs from a CAS and rebuilds trees.
type Fetcher struct {
	store  content.Fetcher
	logger *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFetchLogger sets the logger for fetch operations.
func WithFetchLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a fetcher reading descriptor blobs from store.
func NewFetcher(store content.Fetcher, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{store: store}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// log returns the logger, falling back to a discard logger if nil.
func (f *Fetcher) log() *slog.Logger {
	if f.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return f.logger
}

// Tree fetches the directory descriptor at root and walks breadth-first
// through every referenced descriptor, verifying each blob against its
// digest. Shared subtrees are fetched once.
func (f *Fetcher) Tree(ctx context.Context, root merkle.Digest) (*Tree, error) {
	tree := &Tree{
		RootDigest:  root,
		Directories: make(map[merkle.Digest]*merkle.Directory),
		Files:       make(map[merkle.Digest]*merkle.FileMetadata),
	}

	queue := []merkle.Digest{root}
	for len(queue) > 0 {
		dg := queue[0]
		queue = queue[1:]
		if _, ok := tree.Directories[dg]; ok {
			continue
		}

		data, err := f.fetchVerified(ctx, OCIDescriptor(dg, merkle.MediaTypeDirectory))
		if err != nil {
			return nil, fmt.Errorf("fetch directory %s: %w", dg.Hash, err)
		}
		dir, err := merkle.DecodeDirectory(data)
		if err != nil {
			return nil, err
		}
		tree.Directories[dg] = dir
		if dg == root {
			tree.Root = dir
		}

		for _, e := range dir.Entries {
			childDigest := e.ChildDigest()
			switch e.Kind {
			case merkle.KindDirectory:
				queue = append(queue, childDigest)
			case merkle.KindFile:
				if _, ok := tree.Files[childDigest]; ok {
					continue
				}
				data, err := f.fetchVerified(ctx, OCIDescriptor(childDigest, merkle.MediaTypeFile))
				if err != nil {
					return nil, fmt.Errorf("fetch file %q: %w", e.Name, err)
				}
				meta, err := merkle.DecodeFile(data)
				if err != nil {
					return nil, err
				}
				tree.Files[childDigest] = meta
			default:
				return nil, fmt.Errorf("%w: %q for entry %q", ErrUnknownKind, e.Kind, e.Name)
			}
		}
	}

	f.log().Debug("fetched tree",
		"root", root.Hash,
		"directories", len(tree.Directories),
		"files", len(tree.Files),
	)
	return tree, nil
}

// fetchVerified reads one blob fully and checks it against the digest
// it was addressed by.
func (f *Fetcher) fetchVerified(ctx context.Context, desc ocispec.Descriptor) ([]byte, error) {
	rc, err := f.store.Fetch(ctx, desc)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, desc.Size+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != desc.Size || desc.Digest.Algorithm().FromBytes(data) != desc.Digest {
		return nil, fmt.Errorf("%w: %s", ErrDigestMismatch, desc.Digest)
	}
	return data, nil
}

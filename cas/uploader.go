package cas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/errdef"

	"github.com/meigma/merkle"
)

// defaultConcurrency bounds parallel existence probes and content
// pushes when WithConcurrency is not given.
const defaultConcurrency = 8

// Uploader reconciles computed trees against a CAS, pushing only blobs
// the store does not already hold. It is safe for concurrent use; a
// blob pushed by a racing uploader counts as already present.
type Uploader struct {
	repo        *merkle.Repository
	store       content.Storage
	concurrency int
	logger      *slog.Logger
}

// NewUploader creates an uploader moving blobs from repo's content
// source into store.
func NewUploader(repo *merkle.Repository, store content.Storage, opts ...UploaderOption) *Uploader {
	u := &Uploader{
		repo:        repo,
		store:       store,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// log returns the logger, falling back to a discard logger if nil.
func (u *Uploader) log() *slog.Logger {
	if u.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return u.logger
}

// Stats summarizes one Sync.
type Stats struct {
	// Checked is the number of distinct digests reachable from the root.
	Checked int
	// Missing is how many of those the store did not have.
	Missing int
	// Descriptors and Contents count the blobs actually pushed.
	Descriptors int
	Contents    int
	// Bytes is the total uncompressed size pushed.
	Bytes int64
}

// Sync uploads everything reachable from root that the store is
// missing. The root's digests must already be computed via
// ComputeMerkleDigests.
//
// Content blobs are pushed in parallel first, then descriptors
// children-before-parents, so a reader that can resolve a descriptor
// can always resolve everything it references.
func (u *Uploader) Sync(ctx context.Context, root *merkle.Node) (Stats, error) {
	digests, err := u.repo.AllDigests(root)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Checked: len(digests)}

	missing, err := u.probe(ctx, digests)
	if err != nil {
		return stats, err
	}
	stats.Missing = len(missing)
	if len(missing) == 0 {
		u.log().Info("sync complete", "checked", stats.Checked, "missing", 0)
		return stats, nil
	}

	inputs, descriptors := u.repo.DataFromDigests(missing)

	if err := u.pushContents(ctx, missing, inputs, &stats); err != nil {
		return stats, err
	}
	if err := u.pushDescriptors(ctx, descriptors, &stats); err != nil {
		return stats, err
	}

	u.log().Info("sync complete",
		"checked", stats.Checked,
		"missing", stats.Missing,
		"descriptors", stats.Descriptors,
		"contents", stats.Contents,
		"bytes", stats.Bytes,
	)
	return stats, nil
}

// probe asks the store which digests it already holds.
func (u *Uploader) probe(ctx context.Context, digests []merkle.Digest) ([]merkle.Digest, error) {
	var mu sync.Mutex
	var missing []merkle.Digest
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for _, d := range digests {
		g.Go(func() error {
			ok, err := u.store.Exists(gctx, OCIDescriptor(d, merkle.MediaTypeContent))
			if err != nil {
				return fmt.Errorf("probe %s: %w", d.Hash, err)
			}
			if !ok {
				mu.Lock()
				missing = append(missing, d)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return missing, nil
}

// pushContents uploads raw input bytes in parallel, plus the empty blob
// when the zero-length sentinel's digest is missing but claimed by no
// input.
func (u *Uploader) pushContents(ctx context.Context, missing []merkle.Digest, inputs []merkle.Input, stats *Stats) error {
	var pushed, bytesPushed atomic.Int64
	covered := make(map[merkle.Digest]struct{}, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for _, in := range inputs {
		d, err := u.repo.ContentDigest(in)
		if err != nil {
			return err
		}
		covered[d] = struct{}{}
		g.Go(func() error {
			rc, err := u.repo.Source().Open(gctx, in)
			if err != nil {
				return fmt.Errorf("open input %q: %w", in.ID(), err)
			}
			defer rc.Close()
			err = u.store.Push(gctx, ContentBlob(d), rc)
			switch {
			case errors.Is(err, errdef.ErrAlreadyExists):
				return nil
			case err != nil:
				return fmt.Errorf("push content %s: %w", d.Hash, err)
			}
			pushed.Add(1)
			bytesPushed.Add(d.Size)
			u.log().Debug("pushed content", "input", in.ID(), "digest", d.Hash, "size", d.Size)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// A missing zero-size digest resolves to no input: it is the content
	// of the empty sentinel, pushed literally.
	empty := merkle.DigestFromBytes(u.repo.Algorithm(), nil)
	for _, d := range missing {
		if d != empty {
			continue
		}
		if _, ok := covered[d]; ok {
			break
		}
		err := u.store.Push(ctx, ContentBlob(empty), bytes.NewReader(nil))
		if err != nil && !errors.Is(err, errdef.ErrAlreadyExists) {
			return fmt.Errorf("push empty content: %w", err)
		}
		if err == nil {
			pushed.Add(1)
		}
		break
	}

	stats.Contents = int(pushed.Load())
	stats.Bytes += bytesPushed.Load()
	return nil
}

// pushDescriptors uploads descriptor blobs children-first. Descriptors
// arrive in pre-order, so the reverse is a valid upload order: every
// digest a descriptor references is already in the store when the
// descriptor lands.
func (u *Uploader) pushDescriptors(ctx context.Context, descriptors []*merkle.Descriptor, stats *Stats) error {
	for i := len(descriptors) - 1; i >= 0; i-- {
		desc := descriptors[i]
		data := desc.Data()
		err := u.store.Push(ctx, DescriptorBlob(desc), bytes.NewReader(data))
		switch {
		case errors.Is(err, errdef.ErrAlreadyExists):
			continue
		case err != nil:
			return fmt.Errorf("push descriptor %s: %w", desc.Digest().Hash, err)
		}
		stats.Descriptors++
		stats.Bytes += int64(len(data))
		u.log().Debug("pushed descriptor", "digest", desc.Digest().Hash, "media_type", desc.MediaType())
	}
	return nil
}

// Package disk provides a local disk-backed content-addressable store
// implementing the ORAS content.Storage interface.
//
// Blobs are stored as individual files sharded by digest prefix, with
// larger blobs zstd-compressed at rest. Digests always address the
// uncompressed bytes; content is verified while being written and again
// while being read back.
package disk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2/errdef"
)

const (
	defaultShardPrefixLen = 2
	defaultDirPerm        = 0o755
	defaultFilePerm       = 0o644

	// defaultCompressMin is the minimum blob size that gets compressed
	// at rest. Small blobs (descriptors, mostly) are not worth the
	// round trip.
	defaultCompressMin = 4 << 10 // 4KB

	// zstExt marks compressed blob files.
	zstExt = ".zst"
)

// Store is a disk-backed CAS. It is safe for concurrent use: writes go
// through a temp file and rename, and a blob is never modified once
// published.
type Store struct {
	dir            string
	shardPrefixLen int
	dirPerm        os.FileMode
	compressMin    int64 // < 0 disables compression
	logger         *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithShardPrefixLen sets the number of hex characters used for
// subdirectory sharding. Use 0 to disable sharding. Defaults to 2.
func WithShardPrefixLen(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.shardPrefixLen = n
		}
	}
}

// WithCompressMin sets the minimum blob size compressed at rest.
// Negative values disable compression entirely.
func WithCompressMin(n int64) Option {
	return func(s *Store) {
		s.compressMin = n
	}
}

// WithDirPerm sets the permissions for created directories.
func WithDirPerm(mode os.FileMode) Option {
	return func(s *Store) {
		s.dirPerm = mode
	}
}

// WithLogger sets the logger for store operations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		dir:            dir,
		shardPrefixLen: defaultShardPrefixLen,
		dirPerm:        defaultDirPerm,
		compressMin:    defaultCompressMin,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return s, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (s *Store) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}

// blobPath returns the uncompressed storage path for a digest.
func (s *Store) blobPath(dg digest.Digest) string {
	encoded := dg.Encoded()
	if s.shardPrefixLen > 0 && len(encoded) > s.shardPrefixLen {
		return filepath.Join(s.dir, dg.Algorithm().String(), encoded[:s.shardPrefixLen], encoded)
	}
	return filepath.Join(s.dir, dg.Algorithm().String(), encoded)
}

// Exists reports whether the store holds the blob, in either plain or
// compressed form.
func (s *Store) Exists(_ context.Context, target ocispec.Descriptor) (bool, error) {
	path := s.blobPath(target.Digest)
	for _, p := range []string{path, path + zstExt} {
		if _, err := os.Stat(p); err == nil {
			return true, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("stat blob: %w", err)
		}
	}
	return false, nil
}

// Push stores the blob, verifying it against the expected digest while
// writing. A blob already present returns errdef.ErrAlreadyExists.
func (s *Store) Push(_ context.Context, expected ocispec.Descriptor, content io.Reader) error {
	if err := expected.Digest.Validate(); err != nil {
		return fmt.Errorf("invalid digest: %w", err)
	}
	path := s.blobPath(expected.Digest)
	compress := s.compressMin >= 0 && expected.Size >= s.compressMin
	final := path
	if compress {
		final += zstExt
	}
	if s.present(path) {
		return fmt.Errorf("blob %s: %w", expected.Digest, errdef.ErrAlreadyExists)
	}
	if err := os.MkdirAll(filepath.Dir(path), s.dirPerm); err != nil {
		return fmt.Errorf("create shard dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "push-*")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := s.writeBlob(tmp, expected, content, compress); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp blob: %w", err)
	}
	if err := os.Chmod(tmp.Name(), defaultFilePerm); err != nil {
		return fmt.Errorf("chmod blob: %w", err)
	}

	// A racing push of the same digest wrote identical content, so either
	// rename outcome is fine; report the race as already-exists.
	if s.present(path) {
		return fmt.Errorf("blob %s: %w", expected.Digest, errdef.ErrAlreadyExists)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return fmt.Errorf("publish blob: %w", err)
	}
	s.log().Debug("stored blob", "digest", expected.Digest, "size", expected.Size, "compressed", compress)
	return nil
}

// present reports whether either variant of the blob path exists.
func (s *Store) present(path string) bool {
	for _, p := range []string{path, path + zstExt} {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

// writeBlob streams content into f, verifying digest and size, and
// compressing when asked.
func (s *Store) writeBlob(f *os.File, expected ocispec.Descriptor, content io.Reader, compress bool) error {
	var w io.Writer = f
	var zw *zstd.Encoder
	if compress {
		var err error
		zw, err = zstd.NewWriter(f)
		if err != nil {
			return fmt.Errorf("create compressor: %w", err)
		}
		w = zw
	}

	verifier := expected.Digest.Verifier()
	n, err := io.Copy(w, io.TeeReader(content, verifier))
	if err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("finish compression: %w", err)
		}
	}
	if n != expected.Size || !verifier.Verified() {
		return fmt.Errorf("blob %s: %w", expected.Digest, ErrDigestMismatch)
	}
	return nil
}

// Fetch returns a reader over the blob's uncompressed bytes, verifying
// them against the digest as they are read. An absent blob returns
// errdef.ErrNotFound.
func (s *Store) Fetch(_ context.Context, target ocispec.Descriptor) (io.ReadCloser, error) {
	path := s.blobPath(target.Digest)

	if f, err := os.Open(path); err == nil {
		return newVerifyReadCloser(f, target.Digest, f), nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("open blob: %w", err)
	}

	f, err := os.Open(path + zstExt)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("blob %s: %w", target.Digest, errdef.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	zr, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create decompressor: %w", err)
	}
	return newVerifyReadCloser(zr, target.Digest, closerFunc(func() error {
		zr.Close()
		return f.Close()
	})), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

package merkle

import (
	"fmt"
	"slices"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/merkle/internal/codec"
)

// Child kinds inside a directory listing.
const (
	KindFile      = "file"
	KindDirectory = "directory"
)

// Media types for the blobs a repository produces. Directory listings
// and file metadata are addressed separately from the raw content they
// describe.
const (
	MediaTypeDirectory = "application/vnd.meigma.merkle.directory.v1+cbor"
	MediaTypeFile      = "application/vnd.meigma.merkle.file.v1+cbor"
	MediaTypeContent   = "application/vnd.meigma.merkle.content.v1"
)

// DirEntry is one child reference inside a directory listing: the
// child's name, its kind, and the digest of the child's own descriptor.
type DirEntry struct {
	Name   string `cbor:"name"`
	Kind   string `cbor:"kind"`
	Digest string `cbor:"digest"`
	Size   int64  `cbor:"size"`
}

// ChildDigest returns the entry's child descriptor digest.
func (e DirEntry) ChildDigest() Digest {
	return Digest{Hash: digest.Digest(e.Digest), Size: e.Size}
}

// Directory is the decoded form of a directory descriptor: the ordered
// (name, kind, digest) listing of its children.
type Directory struct {
	Entries []DirEntry `cbor:"entries"`
}

// FileMetadata is the decoded form of a file descriptor. It points at
// the raw content digest; the executable bit travels here rather than
// with the content, so equal bytes with different modes share one
// content blob.
type FileMetadata struct {
	Digest     string `cbor:"digest"`
	Size       int64  `cbor:"size"`
	Executable bool   `cbor:"executable,omitempty"`
}

// ContentDigest returns the raw content digest the metadata points at.
func (m FileMetadata) ContentDigest() Digest {
	return Digest{Hash: digest.Digest(m.Digest), Size: m.Size}
}

// Descriptor is a serialized directory listing or file metadata object
// together with the digest of its canonical encoding. Descriptors are
// the structural blobs of the tree: uploading one per reachable node,
// plus the raw content blobs, reproduces the whole tree remotely.
type Descriptor struct {
	mediaType string
	digest    Digest
	data      []byte
}

// MediaType returns [MediaTypeDirectory] or [MediaTypeFile].
func (d *Descriptor) MediaType() string {
	return d.mediaType
}

// Digest returns the digest of the descriptor's canonical encoding.
func (d *Descriptor) Digest() Digest {
	return d.digest
}

// Data returns the canonical encoded bytes.
func (d *Descriptor) Data() []byte {
	return slices.Clone(d.data)
}

// Directory decodes the descriptor as a directory listing. Returns
// [ErrMediaType] for file descriptors.
func (d *Descriptor) Directory() (*Directory, error) {
	if d.mediaType != MediaTypeDirectory {
		return nil, fmt.Errorf("%w: %s", ErrMediaType, d.mediaType)
	}
	return DecodeDirectory(d.data)
}

// File decodes the descriptor as file metadata. Returns [ErrMediaType]
// for directory descriptors.
func (d *Descriptor) File() (*FileMetadata, error) {
	if d.mediaType != MediaTypeFile {
		return nil, fmt.Errorf("%w: %s", ErrMediaType, d.mediaType)
	}
	return DecodeFile(d.data)
}

// DecodeDirectory decodes directory descriptor bytes.
func DecodeDirectory(data []byte) (*Directory, error) {
	var dir Directory
	if err := codec.Unmarshal(data, &dir); err != nil {
		return nil, fmt.Errorf("decode directory descriptor: %w", err)
	}
	return &dir, nil
}

// DecodeFile decodes file descriptor bytes.
func DecodeFile(data []byte) (*FileMetadata, error) {
	var meta FileMetadata
	if err := codec.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode file descriptor: %w", err)
	}
	return &meta, nil
}

// encodeDescriptor serializes v deterministically and wraps it with the
// digest of its bytes.
func encodeDescriptor(algo digest.Algorithm, mediaType string, v any) (*Descriptor, error) {
	data, err := codec.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode descriptor: %w", err)
	}
	return &Descriptor{
		mediaType: mediaType,
		digest:    DigestFromBytes(algo, data),
		data:      data,
	}, nil
}

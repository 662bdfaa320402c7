package cas

import (
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/meigma/merkle"
)

// OCIDescriptor bridges a merkle digest into the OCI descriptor the
// ORAS storage interfaces address blobs by.
func OCIDescriptor(d merkle.Digest, mediaType string) ocispec.Descriptor {
	return ocispec.Descriptor{
		MediaType: mediaType,
		Digest:    d.Hash,
		Size:      d.Size,
	}
}

// DescriptorBlob addresses a serialized tree descriptor as an OCI blob.
func DescriptorBlob(d *merkle.Descriptor) ocispec.Descriptor {
	return OCIDescriptor(d.Digest(), d.MediaType())
}

// ContentBlob addresses raw leaf content as an OCI blob.
func ContentBlob(d merkle.Digest) ocispec.Descriptor {
	return OCIDescriptor(d, merkle.MediaTypeContent)
}

package merkle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorKindMismatch(t *testing.T) {
	t.Parallel()

	r := New(newMemSource())
	root := r.BuildFromInputs(mustSet(t,
		InputEntry{Path: "a/foo", Input: &memInput{name: "foo", data: "1"}},
	))
	require.NoError(t, r.ComputeMerkleDigests(context.Background(), root))

	digests, err := r.AllDigests(root)
	require.NoError(t, err)
	_, descriptors := r.DataFromDigests(digests)
	require.Len(t, descriptors, 3)

	var dirDesc, fileDesc *Descriptor
	for _, d := range descriptors {
		switch d.MediaType() {
		case MediaTypeDirectory:
			dirDesc = d
		case MediaTypeFile:
			fileDesc = d
		}
	}
	require.NotNil(t, dirDesc)
	require.NotNil(t, fileDesc)

	_, err = dirDesc.File()
	assert.ErrorIs(t, err, ErrMediaType)
	_, err = fileDesc.Directory()
	assert.ErrorIs(t, err, ErrMediaType)
}

func TestDescriptorDataIsCanonical(t *testing.T) {
	t.Parallel()

	// Two repositories building the same logical tree produce
	// byte-identical descriptors.
	build := func() *Descriptor {
		r := New(newMemSource())
		root := r.BuildFromInputs(mustSet(t,
			InputEntry{Path: "pkg/one", Input: &memInput{name: "pkg/one", data: "1"}},
			InputEntry{Path: "pkg/two", Input: &memInput{name: "pkg/two", data: "2"}},
		))
		require.NoError(t, r.ComputeMerkleDigests(context.Background(), root))
		rootDigest, err := r.MerkleDigest(root)
		require.NoError(t, err)
		_, descriptors := r.DataFromDigests([]Digest{rootDigest})
		require.Len(t, descriptors, 1)
		return descriptors[0]
	}

	first := build()
	second := build()
	assert.Equal(t, first.Data(), second.Data())
	assert.Equal(t, first.Digest(), second.Digest())
}

func TestDescriptorDataIsACopy(t *testing.T) {
	t.Parallel()

	r := New(newMemSource())
	root := r.BuildFromInputs(mustSet(t))
	require.NoError(t, r.ComputeMerkleDigests(context.Background(), root))
	rootDigest, err := r.MerkleDigest(root)
	require.NoError(t, err)
	_, descriptors := r.DataFromDigests([]Digest{rootDigest})
	require.Len(t, descriptors, 1)

	data := descriptors[0].Data()
	for i := range data {
		data[i] = 0xFF
	}
	assert.NotEqual(t, data, descriptors[0].Data())
}

func TestDecodeDirectoryRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := DecodeDirectory([]byte{0xFF, 0x00, 0x12})
	assert.Error(t, err)
}

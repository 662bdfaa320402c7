package cas

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2/content/memory"

	"github.com/meigma/merkle"
	"github.com/meigma/merkle/internal/testutil"
)

// buildComputedTree builds and digests a small tree over in-memory inputs.
func buildComputedTree(t *testing.T, files map[string]string) (*merkle.Repository, *merkle.Node) {
	t.Helper()
	set, err := testutil.BuildSet(files)
	require.NoError(t, err)
	repo := merkle.New(testutil.NewSource())
	root := repo.BuildFromInputs(set)
	require.NoError(t, repo.ComputeMerkleDigests(context.Background(), root))
	return repo, root
}

func TestSyncPushesEverythingOnce(t *testing.T) {
	t.Parallel()

	repo, root := buildComputedTree(t, map[string]string{
		"src/main.go": "package main",
		"src/util.go": "package main // util",
		"docs/README": "readme",
	})
	store := memory.New()
	u := NewUploader(repo, store)

	stats, err := u.Sync(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, stats.Checked, stats.Missing)
	assert.Equal(t, 6, stats.Descriptors) // root, src, docs + 3 files
	assert.Equal(t, 3, stats.Contents)
	assert.Positive(t, stats.Bytes)

	// Everything reachable now exists in the store.
	digests, err := repo.AllDigests(root)
	require.NoError(t, err)
	for _, d := range digests {
		ok, err := store.Exists(context.Background(), OCIDescriptor(d, merkle.MediaTypeContent))
		require.NoError(t, err)
		assert.True(t, ok, "missing %s", d)
	}

	// A second sync finds nothing to do.
	stats, err = u.Sync(context.Background(), root)
	require.NoError(t, err)
	assert.Zero(t, stats.Missing)
	assert.Zero(t, stats.Descriptors)
	assert.Zero(t, stats.Contents)
}

func TestSyncSkipsPresentBlobs(t *testing.T) {
	t.Parallel()

	shared := map[string]string{"lib/common.a": "object code"}
	repo, root1 := buildComputedTree(t, shared)
	store := memory.New()
	u := NewUploader(repo, store)

	_, err := u.Sync(context.Background(), root1)
	require.NoError(t, err)

	// A second build sharing the lib subtree only uploads its delta.
	set, err := testutil.BuildSet(map[string]string{
		"lib/common.a": "object code",
		"bin/app":      "binary",
	})
	require.NoError(t, err)
	root2 := repo.BuildFromInputs(set)
	require.NoError(t, repo.ComputeMerkleDigests(context.Background(), root2))

	stats, err := u.Sync(context.Background(), root2)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Descriptors) // new root, bin dir, app file
	assert.Equal(t, 1, stats.Contents)    // binary only
}

func TestSyncEmptySentinel(t *testing.T) {
	t.Parallel()

	set, err := merkle.NewInputSet(
		merkle.InputEntry{Path: "out/marker"},
	)
	require.NoError(t, err)
	repo := merkle.New(testutil.NewSource())
	root := repo.BuildFromInputs(set)
	require.NoError(t, repo.ComputeMerkleDigests(context.Background(), root))

	store := memory.New()
	stats, err := NewUploader(repo, store).Sync(context.Background(), root)
	require.NoError(t, err)

	// The zero-length sentinel has no input, but its content blob is
	// still uploaded so the tree is fully resolvable remotely.
	assert.Equal(t, 1, stats.Contents)
	empty := merkle.DigestFromBytes(repo.Algorithm(), nil)
	rc, err := store.Fetch(context.Background(), ContentBlob(empty))
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestSyncBeforeCompute(t *testing.T) {
	t.Parallel()

	set, err := testutil.BuildSet(map[string]string{"a/b": "c"})
	require.NoError(t, err)
	repo := merkle.New(testutil.NewSource())
	root := repo.BuildFromInputs(set)

	_, err = NewUploader(repo, memory.New()).Sync(context.Background(), root)
	assert.ErrorIs(t, err, merkle.ErrDigestNotComputed)
}

func TestSyncReadFailure(t *testing.T) {
	t.Parallel()

	src := testutil.NewSource()
	in := &testutil.Input{Name: "big", Data: []byte("payload")}
	set, err := merkle.NewInputSet(merkle.InputEntry{Path: "out/big", Input: in})
	require.NoError(t, err)
	repo := merkle.New(src)
	root := repo.BuildFromInputs(set)
	require.NoError(t, repo.ComputeMerkleDigests(context.Background(), root))

	// The digest was computed, but the content is gone by upload time.
	readErr := io.ErrUnexpectedEOF
	src.FailWith("big", readErr)

	_, err = NewUploader(repo, memory.New()).Sync(context.Background(), root)
	assert.ErrorIs(t, err, readErr)
}

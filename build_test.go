package merkle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFromInputsStructure(t *testing.T) {
	t.Parallel()

	r := New(newMemSource())
	root := r.BuildFromInputs(mustSet(t,
		InputEntry{Path: "b/deep/leaf", Input: &memInput{name: "leaf"}},
		InputEntry{Path: "a/foo", Input: &memInput{name: "foo"}},
		InputEntry{Path: "a/bar", Input: &memInput{name: "bar"}},
	))

	require.False(t, root.IsLeaf())
	entries := root.ChildEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Name)
	assert.Equal(t, "b", entries[1].Name)

	a := entries[0].Child
	aEntries := a.ChildEntries()
	require.Len(t, aEntries, 2)
	assert.Equal(t, "bar", aEntries[0].Name)
	assert.Equal(t, "foo", aEntries[1].Name)
	assert.True(t, aEntries[0].Child.IsLeaf())

	deep := child(t, child(t, root, "b"), "deep")
	leaf := child(t, deep, "leaf")
	require.True(t, leaf.IsLeaf())
	assert.Equal(t, "leaf", leaf.Input().ID())
}

func TestBuildFromInputsEmpty(t *testing.T) {
	t.Parallel()

	r := New(newMemSource())

	root := r.BuildFromInputs(mustSet(t))
	require.False(t, root.IsLeaf())
	assert.Empty(t, root.ChildEntries())

	// nil set behaves like the empty set and yields the same canonical node.
	assert.Same(t, root, r.BuildFromInputs(nil))
}

func TestBuildFromInputsNilInput(t *testing.T) {
	t.Parallel()

	r := New(newMemSource())
	root := r.BuildFromInputs(mustSet(t,
		InputEntry{Path: "a/foo", Input: &memInput{name: "foo", data: "1"}},
		InputEntry{Path: "a/bar"},
	))

	// The absent input still occupies its name in the directory.
	a := child(t, root, "a")
	bar := child(t, a, "bar")
	require.True(t, bar.IsLeaf())
	assert.Nil(t, bar.Input())
}

func TestSubtreeReuse(t *testing.T) {
	t.Parallel()

	fooCc := &memInput{name: "a/foo.cc"}
	fooH := &memInput{name: "a/foo.h"}
	bar := &memInput{name: "b/bar.txt"}
	baz := &memInput{name: "c/baz.txt"}

	r := New(newMemSource())
	root1 := r.BuildFromInputs(mustSet(t,
		InputEntry{Path: "a/foo.cc", Input: fooCc},
		InputEntry{Path: "a/foo.h", Input: fooH},
		InputEntry{Path: "b/bar.txt", Input: bar},
	))
	root2 := r.BuildFromInputs(mustSet(t,
		InputEntry{Path: "a/foo.cc", Input: fooCc},
		InputEntry{Path: "a/foo.h", Input: fooH},
		InputEntry{Path: "c/baz.txt", Input: baz},
	))

	// The "a" subtree is the same node instance across both builds.
	assert.Same(t, child(t, root1, "a"), child(t, root2, "a"))
	assert.NotSame(t, root1, root2)
}

func TestBuildConcurrentCanonicalization(t *testing.T) {
	t.Parallel()

	r := New(newMemSource())
	shared := &memInput{name: "shared"}

	const builders = 32
	roots := make([]*Node, builders)
	var wg sync.WaitGroup
	for i := range builders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			roots[i] = r.BuildFromInputs(mustSet(t,
				InputEntry{Path: "pkg/lib/shared.a", Input: shared},
				InputEntry{Path: "pkg/empty"},
			))
		}()
	}
	wg.Wait()

	for i := 1; i < builders; i++ {
		assert.Same(t, roots[0], roots[i])
	}
}

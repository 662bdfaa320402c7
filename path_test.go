package merkle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"single segment", "foo", nil},
		{"nested", "a/b/c", nil},
		{"dot in name", "foo.h", nil},
		{"hidden file", ".config", nil},
		{"empty", "", ErrInvalidPath},
		{"absolute", "/foo", ErrInvalidPath},
		{"trailing separator", "foo/", ErrInvalidPath},
		{"double separator", "a//b", ErrInvalidPath},
		{"dot segment", "a/./b", ErrInvalidPath},
		{"dotdot segment", "a/../b", ErrInvalidPath},
		{"lone dotdot", "..", ErrInvalidPath},
		{"nul in segment", "d/a\x001\x00b", ErrInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validatePath(tt.path)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestComparePaths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"equal", "a/b", "a/b", 0},
		{"sibling order", "a/bar", "a/foo", -1},
		{"prefix first", "a", "a/b", -1},
		{"deeper later", "a/b/c", "a/c", -1},
		{"segment-wise beats string-wise", "a/x", "a!b", -1},
		{"reversed", "b", "a", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, comparePaths(tt.a, tt.b))
			assert.Equal(t, -tt.want, comparePaths(tt.b, tt.a))
		})
	}
}

func TestSplitPath(t *testing.T) {
	t.Parallel()

	first, rest := splitPath("a/b/c")
	assert.Equal(t, "a", first)
	assert.Equal(t, "b/c", rest)

	first, rest = splitPath("leaf")
	assert.Equal(t, "leaf", first)
	assert.Empty(t, rest)
}

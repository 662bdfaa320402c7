package merkle

import (
	"context"
	"fmt"
	"io"
	"io/fs"
)

// FileInput is an Input backed by a path inside an fs.FS. Its identity
// is the path, so the same path always canonicalizes to the same leaf.
type FileInput struct {
	path string
	exec bool
}

// NewFileInput creates a file input for a path.
func NewFileInput(path string, executable bool) FileInput {
	return FileInput{path: path, exec: executable}
}

// ID returns the file path.
func (i FileInput) ID() string { return i.path }

// Path returns the file path relative to the source filesystem.
func (i FileInput) Path() string { return i.path }

// Executable reports whether the file carries an executable bit.
func (i FileInput) Executable() bool { return i.exec }

// FSSource reads input content from an fs.FS. It implements
// [ContentSource] for [FileInput] inputs.
type FSSource struct {
	fsys fs.FS
}

// NewFSSource creates a source over fsys.
func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// Open returns a reader over the file's content.
func (s *FSSource) Open(_ context.Context, in Input) (io.ReadCloser, error) {
	fi, ok := in.(FileInput)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedInput, in)
	}
	f, err := s.fsys.Open(fi.path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", fi.path, err)
	}
	return f, nil
}

// Scan walks the filesystem and returns an InputSet covering every
// regular file, with executable bits taken from the file mode. Symlinks
// and other irregular files are skipped.
func (s *FSSource) Scan() (*InputSet, error) {
	var entries []InputEntry
	err := fs.WalkDir(s.fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		exec := info.Mode()&0o111 != 0
		entries = append(entries, InputEntry{
			Path:  path,
			Input: NewFileInput(path, exec),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan filesystem: %w", err)
	}
	return NewInputSet(entries...)
}

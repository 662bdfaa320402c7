// Package testutil provides in-memory inputs and content sources shared
// by tests across packages.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/meigma/merkle"
)

// Input is an in-memory test input. Its identity is its name.
type Input struct {
	Name string
	Data []byte
	Exec bool
}

// ID returns the input's name.
func (i *Input) ID() string { return i.Name }

// Executable reports the input's executable bit.
func (i *Input) Executable() bool { return i.Exec }

// Source serves Input content from memory. It implements
// merkle.ContentSource and records open counts per input.
type Source struct {
	mu    sync.Mutex
	opens map[string]int
	fail  map[string]error
}

// NewSource creates an empty in-memory source.
func NewSource() *Source {
	return &Source{
		opens: make(map[string]int),
		fail:  make(map[string]error),
	}
}

// Open returns a reader over the input's data, or the failure
// configured with FailWith.
func (s *Source) Open(_ context.Context, in merkle.Input) (io.ReadCloser, error) {
	ti, ok := in.(*Input)
	if !ok {
		return nil, fmt.Errorf("testutil: unsupported input %T", in)
	}
	s.mu.Lock()
	s.opens[ti.Name]++
	err := s.fail[ti.Name]
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(ti.Data)), nil
}

// FailWith makes every future Open of the named input return err.
func (s *Source) FailWith(name string, err error) {
	s.mu.Lock()
	s.fail[name] = err
	s.mu.Unlock()
}

// Opens returns how many times the named input was opened.
func (s *Source) Opens(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens[name]
}

// BuildSet is a convenience over merkle.NewInputSet for path -> content
// maps. An empty content string still produces a real input, not the
// zero-length sentinel.
func BuildSet(files map[string]string) (*merkle.InputSet, error) {
	entries := make([]merkle.InputEntry, 0, len(files))
	for path, content := range files {
		entries = append(entries, merkle.InputEntry{
			Path:  path,
			Input: &Input{Name: path, Data: []byte(content)},
		})
	}
	return merkle.NewInputSet(entries...)
}

package model

import (
	"errors"
	"fmt"
)

// Store is the read-only vector store: token name -> embedding. Vectors live in
// one contiguous row-major matrix. A Store is safe for concurrent readers and
// must not be modified after it is returned by a loader.
type Store struct {
	dim   int
	ids   map[string]int
	names []string
	data  []float32
}

func newStore() *Store {
	return &Store{ids: make(map[string]int)}
}

// NewStore builds a store from an in-memory table. All vectors must share one
// non-zero dimension.
func NewStore(vectors map[string][]float32) (*Store, error) {
	s := newStore()
	for name, vec := range vectors {
		if err := s.add(name, vec); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) add(name string, vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("token %q has no embedding values", name)
	}
	if s.dim == 0 {
		s.dim = len(vec)
	}
	if len(vec) != s.dim {
		return &DimensionError{Token: name, Expected: s.dim, Actual: len(vec)}
	}
	if _, ok := s.ids[name]; ok {
		return fmt.Errorf("duplicate token %q", name)
	}

	s.ids[name] = len(s.names)
	s.names = append(s.names, name)
	s.data = append(s.data, vec...)
	return nil
}

// Dim returns the embedding dimension.
func (s *Store) Dim() int { return s.dim }

// Len returns the number of tokens with an embedding.
func (s *Store) Len() int { return len(s.names) }

// Lookup returns the embedding of name. The returned slice aliases the store
// and must not be modified.
func (s *Store) Lookup(name string) ([]float32, bool) {
	i, ok := s.ids[name]
	if !ok {
		return nil, false
	}
	return s.data[i*s.dim : (i+1)*s.dim : (i+1)*s.dim], true
}

// Name returns the token stored at row i.
func (s *Store) Name(i int) string { return s.names[i] }

// DimensionError reports an embedding whose length differs from the rest.
type DimensionError struct {
	Token    string
	Expected int
	Actual   int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("token %q: dimension mismatch: expected %d, got %d", e.Token, e.Expected, e.Actual)
}

var errEmptyModel = errors.New("model has no embeddings")

package snapshotstore

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// MemoryStore keeps snapshot documents in memory. Use in tests.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = data
	return nil
}

func (s *MemoryStore) Get(name string, w io.Writer) error {
	s.mu.Lock()
	data, ok := s.docs[name]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("snapshot not found: %s", name)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

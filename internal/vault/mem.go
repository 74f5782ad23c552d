package vault

import (
	"fmt"
	"sync"
)

// MemStore keeps documents in memory.
type MemStore struct {
	mu   sync.RWMutex
	docs map[string]string
}

// NewMemStore returns a store preloaded with docs (path -> content).
func NewMemStore(docs map[string]string) *MemStore {
	s := &MemStore{docs: make(map[string]string, len(docs))}
	for p, text := range docs {
		s.docs[p] = text
	}
	return s
}

func (s *MemStore) Exists(p string) (bool, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[clean]
	return ok, nil
}

func (s *MemStore) Read(p string) (string, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.docs[clean]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotExist, p)
	}
	return text, nil
}

func (s *MemStore) Create(p, text string) error {
	clean, err := CleanPath(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[clean]; ok {
		return fmt.Errorf("%w: %s", ErrExists, p)
	}
	s.docs[clean] = text
	return nil
}

func (s *MemStore) Write(p, text string) error {
	clean, err := CleanPath(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[clean] = text
	return nil
}

func (s *MemStore) List(dir string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listKeys(s.docs, dir), nil
}

// Snapshot returns a copy of all documents.
func (s *MemStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.docs))
	for p, text := range s.docs {
		out[p] = text
	}
	return out
}

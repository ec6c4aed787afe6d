package memory

import (
	"context"
	"sync"

	"github.com/aretw0/posegraph/pkg/domain"
)

// Store implements ports.DigestStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]uint64
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]uint64),
	}
}

// Append records the next digest of a run.
func (s *Store) Append(ctx context.Context, runID string, digest uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[runID] = append(s.data[runID], digest)
	return nil
}

// Load retrieves a copy of the digests of a run.
func (s *Store) Load(ctx context.Context, runID string) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	digests, ok := s.data[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	out := make([]uint64, len(digests))
	copy(out, digests)
	return out, nil
}

// Delete removes the run.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

// List returns recorded runs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]string, 0, len(s.data))
	for id := range s.data {
		runs = append(runs, id)
	}
	return runs, nil
}

package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/posegraph/pkg/domain"
)

// Store implements ports.DigestStore using the local filesystem.
// Each run is one JSON array of digests in BasePath.
type Store struct {
	BasePath string
	mu       sync.Mutex
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".posegraph/runs".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".posegraph", "runs")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(runID string) string {
	return filepath.Join(s.BasePath, runID+".json")
}

// Append adds one digest to the run file, rewriting it atomically.
func (s *Store) Append(ctx context.Context, runID string, digest uint64) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	digests, err := s.read(runID)
	if err != nil && !errors.Is(err, domain.ErrRunNotFound) {
		return err
	}
	return s.write(runID, append(digests, digest))
}

// write persists the digests via temp file, fsync and rename.
func (s *Store) write(runID string, digests []uint64) error {
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure run directory: %w", err)
	}

	data, err := json.Marshal(digests)
	if err != nil {
		return fmt.Errorf("failed to marshal digests: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+runID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename does not replace on Windows.
	dest := s.path(runID)
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to remove existing run file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func (s *Store) read(runID string) ([]uint64, error) {
	data, err := os.ReadFile(s.path(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}
	var digests []uint64
	if err := json.Unmarshal(data, &digests); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", runID, err)
	}
	return digests, nil
}

// Load retrieves the digests of a run.
func (s *Store) Load(ctx context.Context, runID string) ([]uint64, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(runID)
}

// Delete removes the run file.
func (s *Store) Delete(ctx context.Context, runID string) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(runID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete run file: %w", err)
	}
	return nil
}

// List returns all recorded run IDs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var runs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		runs = append(runs, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(runs)
	return runs, nil
}

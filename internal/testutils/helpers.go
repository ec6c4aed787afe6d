package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo creates a temporary directory and initializes a Loam repository in it.
// It returns the absolute path to the temp dir and the initialized repository.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// WriteFiles writes each named document under dir, creating parent folders.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644), "writing %s", name)
	}
}

// ClipsYAML is a small clip library with one track: "idle" holds x=0 for two
// frames and "walk" ramps x through 0..3.
const ClipsYAML = `tracks: 1
clips:
  - name: idle
    frames:
      - [{t: [0, 0, 0]}]
      - [{t: [0, 0, 0]}]
  - name: walk
    frames:
      - [{t: [0, 0, 0]}]
      - [{t: [1, 0, 0]}]
      - [{t: [2, 0, 0]}]
      - [{t: [3, 0, 0]}]
`

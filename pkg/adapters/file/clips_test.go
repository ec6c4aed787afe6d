package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/posegraph/internal/testutils"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClips(t *testing.T) {
	lib, err := ParseClips([]byte(`
tracks: 2
clips:
  - name: wave
    mask: [1]
    frames:
      - [{}, {t: [0, 1.5, 0]}]
      - [{}, {t: [0, 2, 0], r: [0, 0, 0.6, 0.8], s: [2, 2, 2]}]
`))
	require.NoError(t, err)
	assert.Equal(t, 2, lib.TrackCount())

	clip, err := lib.GetClip("wave")
	require.NoError(t, err)
	assert.Equal(t, 2, clip.Len())
	assert.False(t, clip.Mask().Has(0))
	assert.True(t, clip.Mask().Has(1))

	first := clip.Frame(0)
	assert.Equal(t, domain.Identity(), first.Tracks[0])
	assert.Equal(t, fixed.MustParse("1.5"), first.Tracks[1].Translation.Y)

	second := clip.Frame(1).Tracks[1]
	assert.Equal(t, fixed.MustParse("0.6"), second.Rotation.Z)
	assert.Equal(t, fixed.MustParse("0.8"), second.Rotation.W)
	assert.Equal(t, fixed.FromInt(2), second.Scale.X)
}

func TestParseClips_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no tracks", "clips: []"},
		{"missing name", "tracks: 1\nclips:\n  - frames: [[{}]]\n"},
		{"duplicate", "tracks: 1\nclips:\n  - {name: a, frames: [[{}]]}\n  - {name: a, frames: [[{}]]}\n"},
		{"track count", "tracks: 2\nclips:\n  - {name: a, frames: [[{}]]}\n"},
		{"mask range", "tracks: 1\nclips:\n  - {name: a, mask: [3], frames: [[{}]]}\n"},
		{"short vector", "tracks: 1\nclips:\n  - {name: a, frames: [[{t: [1, 2]}]]}\n"},
		{"bad number", "tracks: 1\nclips:\n  - {name: a, frames: [[{t: [1, x, 2]}]]}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseClips([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadClips(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{DefaultClipsFile: testutils.ClipsYAML})

	lib, err := LoadClips(filepath.Join(dir, DefaultClipsFile))
	require.NoError(t, err)

	names, err := lib.ListClips()
	require.NoError(t, err)
	assert.Equal(t, []string{"idle", "walk"}, names)

	walk, err := lib.GetClip("walk")
	require.NoError(t, err)
	assert.Equal(t, fixed.FromInt(3), walk.Frame(3).Tracks[0].Translation.X)

	_, err = LoadClips(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

package replay_test

import (
	"context"
	"testing"

	"github.com/aretw0/posegraph/pkg/adapters/memory"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/aretw0/posegraph/pkg/replay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pose(x int, tracks ...int) domain.PoseOutput {
	p := domain.NewPose(3)
	p.Mask = domain.NewTrackMask(tracks...)
	for _, t := range tracks {
		p.Tracks[t].Translation.X = fixed.FromInt(x)
	}
	return p
}

func TestDigest_IgnoresUnmaskedTracks(t *testing.T) {
	a := pose(1, 0, 2)
	b := a.Clone()
	b.Tracks[1].Translation.Y = fixed.FromInt(99)

	assert.True(t, a.Equal(b))
	assert.Equal(t, replay.Digest(a), replay.Digest(b))
}

func TestDigest_SensitiveToValueAndMask(t *testing.T) {
	base := replay.Digest(pose(1, 0))

	nudged := pose(1, 0)
	nudged.Tracks[0].Rotation.W++ // one ulp
	assert.NotEqual(t, base, replay.Digest(nudged))

	assert.NotEqual(t, base, replay.Digest(pose(1, 1)))
	assert.NotEqual(t, base, replay.Digest(pose(1, 0, 1)))
}

func TestRecorderAndCompare(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	record := func(run string, xs ...int) {
		rec, err := replay.NewRecorder(ctx, store, run)
		require.NoError(t, err)
		for _, x := range xs {
			_, err := rec.Record(ctx, pose(x, 0))
			require.NoError(t, err)
		}
		assert.Equal(t, len(xs), rec.Count())
	}

	record("a", 1, 2, 3)
	record("b", 1, 2, 3)
	record("c", 1, 5, 3)
	record("d", 1, 2)

	res, err := replay.Compare(ctx, store, "a", "b")
	require.NoError(t, err)
	assert.True(t, res.Equal())
	assert.Equal(t, "identical (3 ticks)", res.String())

	res, err = replay.Compare(ctx, store, "a", "c")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Tick)

	res, err = replay.Compare(ctx, store, "a", "d")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Tick)
	assert.Contains(t, res.String(), "length differs")

	_, err = replay.Verify(ctx, store, "a", "c")
	assert.ErrorIs(t, err, replay.ErrDiverged)

	_, err = replay.Compare(ctx, store, "a", "missing")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestNewRecorder_ResetsRun(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Append(ctx, "run", 42))

	rec, err := replay.NewRecorder(ctx, store, "run")
	require.NoError(t, err)
	_, err = rec.Record(ctx, pose(0, 0))
	require.NoError(t, err)

	got, err := store.Load(ctx, "run")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = replay.NewRecorder(ctx, store, "")
	assert.Error(t, err)
}

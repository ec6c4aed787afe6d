package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackMask_SetOperations(t *testing.T) {
	a := domain.NewTrackMask(0, 2, 70)
	b := domain.NewTrackMask(2, 3)

	assert.True(t, a.Has(70))
	assert.False(t, a.Has(1))
	assert.False(t, a.Has(-1))
	assert.Equal(t, []int{0, 2, 3, 70}, a.Union(b).Tracks())
	assert.Equal(t, []int{2}, a.Intersect(b).Tracks())
	assert.Equal(t, 3, a.Len())
	assert.True(t, domain.TrackMask{}.IsEmpty())
}

func TestTrackMask_Immutable(t *testing.T) {
	a := domain.NewTrackMask(1)
	_ = a.Union(domain.NewTrackMask(5))
	assert.Equal(t, []int{1}, a.Tracks())
}

func TestTrackMask_EqualIgnoresTrailingWords(t *testing.T) {
	wide := domain.NewTrackMask(1, 100).Intersect(domain.NewTrackMask(1))
	assert.True(t, wide.Equal(domain.NewTrackMask(1)))
	assert.False(t, wide.Equal(domain.NewTrackMask(2)))
}

func TestTrackMask_JSON(t *testing.T) {
	data, err := json.Marshal(domain.NewTrackMask(4, 1))
	require.NoError(t, err)
	assert.JSONEq(t, `[1,4]`, string(data))

	var m domain.TrackMask
	require.NoError(t, json.Unmarshal([]byte(`[3, 0]`), &m))
	assert.Equal(t, "{0,3}", m.String())
}

func TestFullMask(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, domain.FullMask(3).Tracks())
	assert.True(t, domain.FullMask(0).IsEmpty())
}

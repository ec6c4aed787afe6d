package blend_test

import (
	"testing"

	"github.com/aretw0/posegraph/pkg/blend"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/stretchr/testify/assert"
)

func pose(n int, mask domain.TrackMask, x fixed.Num) domain.PoseOutput {
	p := domain.NewPose(n)
	for i := range p.Tracks {
		p.Tracks[i].Translation.X = x
	}
	p.Mask = mask
	return p
}

func TestLinear_Boundaries(t *testing.T) {
	b := blend.NewLinear()
	full := domain.FullMask(3)
	pa := pose(3, full, fixed.FromInt(2))
	pb := pose(3, full, fixed.FromInt(6))
	pa.Tracks[1].Rotation = domain.Quat{Z: fixed.MustParse("0.6"), W: fixed.MustParse("0.8")}

	assert.True(t, b.Blend(pa, pb, fixed.Zero, full).Equal(pa))
	assert.True(t, b.Blend(pa, pb, fixed.One, full).Equal(pb))
	assert.True(t, b.Blend(pa, pb, fixed.FromInt(-3), full).Equal(pa), "weights are clamped")

	mid := b.Blend(pa, pb, fixed.Half, full)
	assert.Equal(t, fixed.FromInt(4), mid.Tracks[0].Translation.X)
}

func TestLinear_MaskSemantics(t *testing.T) {
	b := blend.NewLinear()
	pa := pose(4, domain.NewTrackMask(0, 1), fixed.One)
	pb := pose(4, domain.NewTrackMask(1, 2), fixed.FromInt(3))

	out := b.Blend(pa, pb, fixed.Half, domain.NewTrackMask(0, 1, 2, 3))
	assert.Equal(t, []int{0, 1, 2}, out.Mask.Tracks())
	assert.Equal(t, fixed.One, out.Tracks[0].Translation.X, "only a defines track 0")
	assert.Equal(t, fixed.FromInt(2), out.Tracks[1].Translation.X)
	assert.Equal(t, fixed.FromInt(3), out.Tracks[2].Translation.X, "only b defines track 2")

	narrowed := b.Blend(pa, pb, fixed.Half, domain.NewTrackMask(1))
	assert.Equal(t, []int{1}, narrowed.Mask.Tracks())
}

func TestLinear_RotationTakesShortestArc(t *testing.T) {
	a := domain.IdentityQuat
	flipped := domain.Quat{W: fixed.NegOne}

	assert.Equal(t, domain.IdentityQuat, blend.Nlerp(a, flipped, fixed.Half))

	quarter := blend.Nlerp(a, domain.Quat{Z: fixed.One}, fixed.Half)
	assert.InDelta(t, 0.7071, quarter.Z.Float(), 1e-4)
	assert.InDelta(t, 0.7071, quarter.W.Float(), 1e-4)
}

func TestLinear_BlendTrackMatchesBlend(t *testing.T) {
	b := blend.NewLinear()
	full := domain.FullMask(3)
	pa := pose(3, full, fixed.MustParse("-1.25"))
	pb := pose(3, domain.NewTrackMask(0, 2), fixed.MustParse("7.5"))
	pa.Tracks[2].Rotation = domain.Quat{X: fixed.MustParse("0.28"), W: fixed.MustParse("0.96")}

	for _, w := range []fixed.Num{fixed.Zero, fixed.FromRatio(1, 3), fixed.Half, fixed.One} {
		whole := b.Blend(pa, pb, w, full)
		for track := 0; track < 3; track++ {
			single := b.BlendTrack(pa.Track(track), pb.Track(track), w, full, track)
			assert.Equal(t, whole.Track(track), single, "track %d weight %s", track, w)
		}
	}
}

func TestLinear_BlendTrackOutsideMask(t *testing.T) {
	b := blend.NewLinear()
	pa := pose(2, domain.FullMask(2), fixed.One)

	out := b.BlendTrack(pa.Track(0), pa.Track(0), fixed.Half, domain.NewTrackMask(1), 0)
	assert.False(t, out.Valid())
	assert.Equal(t, domain.Identity(), out.Transform)
}

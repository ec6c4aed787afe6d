// Package blend provides the default pose blend primitive.
package blend

import (
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
)

// Linear interpolates translation and scale linearly and rotation by
// normalized linear interpolation along the shorter arc.
//
// For each track in mask: when both poses define it the transforms are
// interpolated, when only one does that pose's transform is taken as is. The
// output mask is mask ∩ (a.Mask ∪ b.Mask). A weight of 0 yields a and a weight
// of 1 yields b, bit for bit.
type Linear struct{}

// NewLinear returns the default blender.
func NewLinear() *Linear { return &Linear{} }

func (Linear) Blend(a, b domain.PoseOutput, weight fixed.Num, mask domain.TrackMask) domain.PoseOutput {
	weight = weight.Unit()
	n := max(len(a.Tracks), len(b.Tracks))

	out := domain.NewPose(n)
	active := mask.Intersect(a.Mask.Union(b.Mask)).Intersect(domain.FullMask(n))
	for _, t := range active.Tracks() {
		inA := t < len(a.Tracks) && a.Mask.Has(t)
		inB := t < len(b.Tracks) && b.Mask.Has(t)
		out.Tracks[t] = pick(a.Tracks, b.Tracks, t, inA, inB, weight)
	}
	out.Mask = active
	return out
}

func (Linear) BlendTrack(a, b domain.SingleTrackOutput, weight fixed.Num, mask domain.TrackMask, track int) domain.SingleTrackOutput {
	weight = weight.Unit()
	inA := a.Track == track && a.Valid()
	inB := b.Track == track && b.Valid()

	if !mask.Has(track) || (!inA && !inB) {
		return domain.SingleTrackOutput{Track: track, Transform: domain.Identity()}
	}

	var t domain.Transform
	switch {
	case inA && inB:
		t = Transform(a.Transform, b.Transform, weight)
	case inA:
		t = a.Transform
	default:
		t = b.Transform
	}
	return domain.SingleTrackOutput{Track: track, Transform: t, Mask: domain.NewTrackMask(track)}
}

func pick(a, b []domain.Transform, t int, inA, inB bool, w fixed.Num) domain.Transform {
	switch {
	case inA && inB:
		return Transform(a[t], b[t], w)
	case inA:
		return a[t]
	default:
		return b[t]
	}
}

// Transform interpolates two transforms. w is expected in [0,1].
func Transform(a, b domain.Transform, w fixed.Num) domain.Transform {
	switch w {
	case fixed.Zero:
		return a
	case fixed.One:
		return b
	}
	return domain.Transform{
		Translation: Vec3(a.Translation, b.Translation, w),
		Rotation:    Nlerp(a.Rotation, b.Rotation, w),
		Scale:       Vec3(a.Scale, b.Scale, w),
	}
}

func Vec3(a, b domain.Vec3, w fixed.Num) domain.Vec3 {
	return domain.Vec3{
		X: fixed.Lerp(a.X, b.X, w),
		Y: fixed.Lerp(a.Y, b.Y, w),
		Z: fixed.Lerp(a.Z, b.Z, w),
	}
}

// Nlerp interpolates rotations along the shorter arc and renormalizes.
// A degenerate result falls back to a.
func Nlerp(a, b domain.Quat, w fixed.Num) domain.Quat {
	dot := fixed.Mul(a.X, b.X) + fixed.Mul(a.Y, b.Y) + fixed.Mul(a.Z, b.Z) + fixed.Mul(a.W, b.W)
	if dot < 0 {
		b = domain.Quat{X: -b.X, Y: -b.Y, Z: -b.Z, W: -b.W}
	}

	q := domain.Quat{
		X: fixed.Lerp(a.X, b.X, w),
		Y: fixed.Lerp(a.Y, b.Y, w),
		Z: fixed.Lerp(a.Z, b.Z, w),
		W: fixed.Lerp(a.W, b.W, w),
	}
	norm := fixed.Sqrt(fixed.Mul(q.X, q.X) + fixed.Mul(q.Y, q.Y) + fixed.Mul(q.Z, q.Z) + fixed.Mul(q.W, q.W))
	if norm == 0 {
		return a
	}
	return domain.Quat{
		X: fixed.Div(q.X, norm),
		Y: fixed.Div(q.Y, norm),
		Z: fixed.Div(q.Z, norm),
		W: fixed.Div(q.W, norm),
	}
}

package domain

import "github.com/aretw0/posegraph/pkg/fixed"

// Vec3 is a fixed-point 3D vector.
type Vec3 struct {
	X fixed.Num `json:"x" yaml:"x"`
	Y fixed.Num `json:"y" yaml:"y"`
	Z fixed.Num `json:"z" yaml:"z"`
}

// Quat is a fixed-point rotation quaternion.
type Quat struct {
	X fixed.Num `json:"x" yaml:"x"`
	Y fixed.Num `json:"y" yaml:"y"`
	Z fixed.Num `json:"z" yaml:"z"`
	W fixed.Num `json:"w" yaml:"w"`
}

// IdentityQuat is the zero rotation.
var IdentityQuat = Quat{W: fixed.One}

// Transform is the local transform of one track.
type Transform struct {
	Translation Vec3 `json:"translation"`
	Rotation    Quat `json:"rotation"`
	Scale       Vec3 `json:"scale"`
}

// Identity returns the rest transform: no offset, no rotation, unit scale.
func Identity() Transform {
	return Transform{
		Rotation: IdentityQuat,
		Scale:    Vec3{X: fixed.One, Y: fixed.One, Z: fixed.One},
	}
}

// PoseOutput is a full multi-track pose.
// Tracks has one entry per track of the owning tree; only entries whose index
// is in Mask are meaningful. Poses handed out by the graph are shared with its
// caches and must be treated as read-only.
type PoseOutput struct {
	Tracks []Transform `json:"tracks"`
	Mask   TrackMask   `json:"mask"`
}

// NewPose returns a pose of n identity tracks with an empty mask.
func NewPose(n int) PoseOutput {
	tracks := make([]Transform, n)
	for i := range tracks {
		tracks[i] = Identity()
	}
	return PoseOutput{Tracks: tracks}
}

// Track extracts one track as a sparse output. Out-of-range tracks come back
// as identity with an empty mask.
func (p PoseOutput) Track(track int) SingleTrackOutput {
	if track < 0 || track >= len(p.Tracks) {
		return SingleTrackOutput{Track: track, Transform: Identity()}
	}
	out := SingleTrackOutput{Track: track, Transform: p.Tracks[track]}
	if p.Mask.Has(track) {
		out.Mask = NewTrackMask(track)
	}
	return out
}

// Clone returns a deep copy.
func (p PoseOutput) Clone() PoseOutput {
	tracks := make([]Transform, len(p.Tracks))
	copy(tracks, p.Tracks)
	return PoseOutput{Tracks: tracks, Mask: p.Mask}
}

// Equal compares masks and the masked transforms.
func (p PoseOutput) Equal(o PoseOutput) bool {
	if !p.Mask.Equal(o.Mask) {
		return false
	}
	for _, t := range p.Mask.Tracks() {
		if t >= len(p.Tracks) || t >= len(o.Tracks) || p.Tracks[t] != o.Tracks[t] {
			return false
		}
	}
	return true
}

// SingleTrackOutput is the transform of one track, as returned by the sparse query path.
// Mask holds the track index when the transform is meaningful and is empty otherwise.
type SingleTrackOutput struct {
	Track     int       `json:"track"`
	Transform Transform `json:"transform"`
	Mask      TrackMask `json:"mask"`
}

// Valid reports whether the transform is defined for the track.
func (s SingleTrackOutput) Valid() bool { return s.Mask.Has(s.Track) }

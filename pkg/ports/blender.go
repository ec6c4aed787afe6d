package ports

import (
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
)

// PoseBlender is the pose interpolation primitive used by every composition node.
// The weight is the share of b: weight 0 must return a and weight 1 must return b
// for every track both poses define.
type PoseBlender interface {
	// Blend interpolates full poses over the tracks in mask.
	Blend(a, b domain.PoseOutput, weight fixed.Num, mask domain.TrackMask) domain.PoseOutput

	// BlendTrack interpolates a single track; it must agree with Blend on that track.
	BlendTrack(a, b domain.SingleTrackOutput, weight fixed.Num, mask domain.TrackMask, track int) domain.SingleTrackOutput
}

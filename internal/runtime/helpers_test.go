package runtime_test

import (
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/aretw0/posegraph/pkg/ports"
)

const trackCount = 2

// ramp builds a clip whose frame i translates every track to X = base + i.
// Track 1 also rotates a little per frame so rotation blending is exercised.
func ramp(name string, frames, base int) *domain.Clip {
	poses := make([]domain.PoseOutput, frames)
	for i := range poses {
		p := domain.NewPose(trackCount)
		for t := range p.Tracks {
			p.Tracks[t].Translation.X = fixed.FromInt(base + i)
			p.Tracks[t].Translation.Y = fixed.FromInt(t)
		}
		p.Tracks[1].Rotation = domain.Quat{Z: fixed.FromRatio(i, 10), W: fixed.One}
		poses[i] = p
	}
	return domain.NewClip(name, domain.FullMask(trackCount), poses...)
}

// at returns a full pose translated to (x, y) on every track.
func at(x, y fixed.Num) domain.PoseOutput {
	p := domain.NewPose(trackCount)
	for t := range p.Tracks {
		p.Tracks[t].Translation.X = x
		p.Tracks[t].Translation.Y = y
	}
	p.Mask = domain.FullMask(trackCount)
	return p
}

func xOf(p domain.PoseOutput) fixed.Num { return p.Tracks[0].Translation.X }

type eventLog struct {
	events []domain.FrameEvent
}

func (l *eventLog) Emit(ev domain.FrameEvent) { l.events = append(l.events, ev) }

func (l *eventLog) names() []string {
	out := make([]string, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Event)
	}
	return out
}

// countingBlender wraps a blender and counts calls.
type countingBlender struct {
	ports.PoseBlender
	calls int
}

func (c *countingBlender) Blend(a, b domain.PoseOutput, w fixed.Num, m domain.TrackMask) domain.PoseOutput {
	c.calls++
	return c.PoseBlender.Blend(a, b, w, m)
}

func (c *countingBlender) BlendTrack(a, b domain.SingleTrackOutput, w fixed.Num, m domain.TrackMask, track int) domain.SingleTrackOutput {
	c.calls++
	return c.PoseBlender.BlendTrack(a, b, w, m, track)
}

package domain

import "fmt"

// Clip is a read-only sampled animation: one pose per frame over a fixed set of tracks.
type Clip struct {
	ClipName string
	Frames   []PoseOutput
	TrackSet TrackMask
}

// NewClip builds a clip and stamps every frame with the clip's mask.
func NewClip(name string, mask TrackMask, frames ...PoseOutput) *Clip {
	stamped := make([]PoseOutput, len(frames))
	for i, f := range frames {
		stamped[i] = PoseOutput{Tracks: f.Tracks, Mask: mask}
	}
	return &Clip{ClipName: name, Frames: stamped, TrackSet: mask}
}

func (c *Clip) Name() string { return c.ClipName }

func (c *Clip) Len() int { return len(c.Frames) }

func (c *Clip) Mask() TrackMask { return c.TrackSet }

// Frame returns the pose at frame i, clamped to the valid range.
func (c *Clip) Frame(i int) PoseOutput {
	if len(c.Frames) == 0 {
		return PoseOutput{}
	}
	if i < 0 {
		i = 0
	}
	if i >= len(c.Frames) {
		i = len(c.Frames) - 1
	}
	return c.Frames[i]
}

// Validate checks that every frame carries trackCount tracks.
func (c *Clip) Validate(trackCount int) error {
	for i, f := range c.Frames {
		if len(f.Tracks) != trackCount {
			return fmt.Errorf("clip %q frame %d: %w (got %d, want %d)", c.ClipName, i, ErrTrackCount, len(f.Tracks), trackCount)
		}
	}
	return nil
}

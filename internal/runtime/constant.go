package runtime

import (
	"fmt"

	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
)

// Constant returns a fixed pose and never advances. It always reports itself
// as holding at its end, so overlays and transitions that use it finish at once.
type Constant struct {
	node
	pose domain.PoseOutput
}

// AddConstant registers a constant leaf.
func (t *Tree) AddConstant(name string, pose domain.PoseOutput) (*Constant, error) {
	if len(pose.Tracks) != t.trackCount {
		return nil, fmt.Errorf("constant %q: %w (got %d, want %d)", name, domain.ErrTrackCount, len(pose.Tracks), t.trackCount)
	}
	n, err := t.register(name, domain.KindConstant, func(base node) Node {
		return &Constant{node: base, pose: pose.Clone()}
	})
	if err != nil {
		return nil, err
	}
	return n.(*Constant), nil
}

// Set replaces the pose. The new pose is visible from the next stamp on.
func (c *Constant) Set(pose domain.PoseOutput) error {
	if len(pose.Tracks) != c.tree.trackCount {
		return fmt.Errorf("constant %q: %w", c.name, domain.ErrTrackCount)
	}
	c.pose = pose.Clone()
	c.tree.invalidateMasks()
	return nil
}

func (c *Constant) Mask() domain.TrackMask { return c.pose.Mask }

func (c *Constant) PlayState() domain.PlayState { return domain.PlayOnce }
func (c *Constant) SetPlayState(domain.PlayState) {}
func (c *Constant) Holding() bool               { return true }
func (c *Constant) Ratio() fixed.Num            { return fixed.One }
func (c *Constant) Frame() int                  { return 0 }
func (c *Constant) Reset()                      {}

func (c *Constant) tick(uint64, bool, fixed.Num) error { return nil }

func (c *Constant) compute(uint64) (domain.PoseOutput, error) { return c.pose, nil }

func (c *Constant) computeTrack(_ uint64, track int) (domain.SingleTrackOutput, error) {
	return c.pose.Track(track), nil
}

package runtime

import (
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
)

// Crossfade switches between two children over a fixed number of ticks.
//
// Each running tick moves an integer counter one step toward switchTicks (flag
// set) or 0 (flag clear); the weight is counter/switchTicks. A child whose side
// is fully blended out is not ticked at all, so its time state freezes.
type Crossfade struct {
	composite
	switchTicks int
	flag        bool
	counter     int
}

// AddCrossfade registers a crossfade. switchTicks below 1 is treated as 1.
// The initial flag decides which child starts fully active.
func (t *Tree) AddCrossfade(name string, a, b Handle, switchTicks int, flag bool) (*Crossfade, error) {
	if err := t.checkChildren(domain.Slots[domain.KindCrossfade], a, b); err != nil {
		return nil, err
	}
	ticks := max(switchTicks, 1)
	n, err := t.register(name, domain.KindCrossfade, func(base node) Node {
		c := &Crossfade{composite: composite{base}, switchTicks: ticks, flag: flag}
		if flag {
			c.counter = ticks
		}
		c.children = []Handle{a, b}
		return c
	})
	if err != nil {
		return nil, err
	}
	return n.(*Crossfade), nil
}

// SetFlag selects the target child: false for a, true for b.
func (c *Crossfade) SetFlag(toB bool) { c.flag = toB }

func (c *Crossfade) Flag() bool { return c.flag }

// Weight returns the share of b in [0,1].
func (c *Crossfade) Weight() fixed.Num { return fixed.FromRatio(c.counter, c.switchTicks) }

func (c *Crossfade) SwitchTicks() int { return c.switchTicks }

func (c *Crossfade) tick(stamp uint64, run bool, step fixed.Num) error {
	if run {
		switch {
		case c.flag && c.counter < c.switchTicks:
			c.counter++
			if c.counter == c.switchTicks {
				c.tree.emitState(stamp, c, "b")
			}
		case !c.flag && c.counter > 0:
			c.counter--
			if c.counter == 0 {
				c.tree.emitState(stamp, c, "a")
			}
		}
	}

	if c.counter < c.switchTicks {
		if err := c.tree.UpdateTick(c.children[0], stamp, run, step); err != nil {
			return err
		}
	}
	if c.counter > 0 {
		if err := c.tree.UpdateTick(c.children[1], stamp, run, step); err != nil {
			return err
		}
	}
	return nil
}

func (c *Crossfade) compute(stamp uint64) (domain.PoseOutput, error) {
	switch c.counter {
	case 0:
		return c.tree.GetOutput(c.children[0], stamp)
	case c.switchTicks:
		return c.tree.GetOutput(c.children[1], stamp)
	}
	a, err := c.tree.GetOutput(c.children[0], stamp)
	if err != nil {
		return domain.PoseOutput{}, err
	}
	b, err := c.tree.GetOutput(c.children[1], stamp)
	if err != nil {
		return domain.PoseOutput{}, err
	}
	return c.tree.blender.Blend(a, b, c.Weight(), c.Mask()), nil
}

func (c *Crossfade) computeTrack(stamp uint64, track int) (domain.SingleTrackOutput, error) {
	switch c.counter {
	case 0:
		return c.tree.GetOutputTrack(c.children[0], stamp, track)
	case c.switchTicks:
		return c.tree.GetOutputTrack(c.children[1], stamp, track)
	}
	a, err := c.tree.GetOutputTrack(c.children[0], stamp, track)
	if err != nil {
		return domain.SingleTrackOutput{}, err
	}
	b, err := c.tree.GetOutputTrack(c.children[1], stamp, track)
	if err != nil {
		return domain.SingleTrackOutput{}, err
	}
	return c.tree.blender.BlendTrack(a, b, c.Weight(), c.Mask(), track), nil
}

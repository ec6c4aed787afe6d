package runtime

import (
	"fmt"

	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
)

// Grid blends nine children laid out on a 3×3 grid over [-1,1]².
//
// Children are indexed like domain.GridSlots: cell (x, y) sits at
// (y+1)*3 + (x+1). The quadrant is picked from the sign of each weight
// component (zero counts as positive); the result is a bilinear blend of the
// quadrant's four corners, two blends along X and one along Y.
type Grid struct {
	composite
	wx, wy fixed.Num
}

// AddGrid registers a nine-point blend. Every slot must be filled.
func (t *Tree) AddGrid(name string, slots [9]Handle, wx, wy fixed.Num) (*Grid, error) {
	if err := t.checkChildren(domain.GridSlots[:], slots[:]...); err != nil {
		return nil, err
	}
	n, err := t.register(name, domain.KindGrid, func(base node) Node {
		base.children = append([]Handle(nil), slots[:]...)
		return &Grid{composite: composite{base}, wx: wx.Signed(), wy: wy.Signed()}
	})
	if err != nil {
		return nil, err
	}
	return n.(*Grid), nil
}

// Weight returns the 2D weight.
func (n *Grid) Weight() (fixed.Num, fixed.Num) { return n.wx, n.wy }

// SetWeight clamps both components to [-1,1].
func (n *Grid) SetWeight(x, y fixed.Num) {
	n.wx, n.wy = x.Signed(), y.Signed()
}

func (n *Grid) validate() error {
	if len(n.children) != len(domain.GridSlots) {
		return fmt.Errorf("%w: grid has %d of 9 children", domain.ErrMissingChild, len(n.children))
	}
	return n.tree.checkChildren(domain.GridSlots[:], n.children...)
}

func (n *Grid) tick(stamp uint64, run bool, step fixed.Num) error {
	if err := n.validate(); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := n.tree.UpdateTick(c, stamp, run, step); err != nil {
			return err
		}
	}
	return nil
}

func (n *Grid) at(x, y int) Handle {
	return n.children[(y+1)*3+(x+1)]
}

// corners returns the quadrant's cells as center, x-neighbour, y-neighbour and
// diagonal, along with the absolute X and Y weights.
func (n *Grid) corners() (c, ex, ny, diag Handle, ax, ay fixed.Num) {
	sx, sy := 1, 1
	if n.wx < 0 {
		sx = -1
	}
	if n.wy < 0 {
		sy = -1
	}
	return n.at(0, 0), n.at(sx, 0), n.at(0, sy), n.at(sx, sy), n.wx.Abs(), n.wy.Abs()
}

func (n *Grid) compute(stamp uint64) (domain.PoseOutput, error) {
	if err := n.validate(); err != nil {
		return domain.PoseOutput{}, err
	}
	c, ex, ny, diag, ax, ay := n.corners()
	mask := n.Mask()

	var poses [4]domain.PoseOutput
	for i, h := range []Handle{c, ex, ny, diag} {
		p, err := n.tree.GetOutput(h, stamp)
		if err != nil {
			return domain.PoseOutput{}, err
		}
		poses[i] = p
	}

	row0 := n.tree.blend(poses[0], poses[1], ax, mask)
	rowY := n.tree.blend(poses[2], poses[3], ax, mask)
	return n.tree.blend(row0, rowY, ay, mask), nil
}

func (n *Grid) computeTrack(stamp uint64, track int) (domain.SingleTrackOutput, error) {
	if err := n.validate(); err != nil {
		return domain.SingleTrackOutput{}, err
	}
	c, ex, ny, diag, ax, ay := n.corners()
	mask := n.Mask()

	var tracks [4]domain.SingleTrackOutput
	for i, h := range []Handle{c, ex, ny, diag} {
		p, err := n.tree.GetOutputTrack(h, stamp, track)
		if err != nil {
			return domain.SingleTrackOutput{}, err
		}
		tracks[i] = p
	}

	row0 := n.tree.blendTrack(tracks[0], tracks[1], ax, mask, track)
	rowY := n.tree.blendTrack(tracks[2], tracks[3], ax, mask, track)
	return n.tree.blendTrack(row0, rowY, ay, mask, track), nil
}

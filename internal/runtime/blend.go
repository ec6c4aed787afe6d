package runtime

import (
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
)

// Binary blends two children by a weight in [0,1]. Both children always run.
type Binary struct {
	composite
	weight fixed.Num
}

// AddBinary registers a binary blend of a and b.
func (t *Tree) AddBinary(name string, a, b Handle, weight fixed.Num) (*Binary, error) {
	if err := t.checkChildren(domain.Slots[domain.KindBinary], a, b); err != nil {
		return nil, err
	}
	n, err := t.register(name, domain.KindBinary, func(base node) Node {
		base.children = []Handle{a, b}
		return &Binary{composite: composite{base}, weight: weight.Unit()}
	})
	if err != nil {
		return nil, err
	}
	return n.(*Binary), nil
}

func (n *Binary) Weight() fixed.Num { return n.weight }

// SetWeight clamps w to [0,1].
func (n *Binary) SetWeight(w fixed.Num) { n.weight = w.Unit() }

func (n *Binary) tick(stamp uint64, run bool, step fixed.Num) error {
	for _, c := range n.children {
		if err := n.tree.UpdateTick(c, stamp, run, step); err != nil {
			return err
		}
	}
	return nil
}

func (n *Binary) compute(stamp uint64) (domain.PoseOutput, error) {
	a, err := n.tree.GetOutput(n.children[0], stamp)
	if err != nil {
		return domain.PoseOutput{}, err
	}
	b, err := n.tree.GetOutput(n.children[1], stamp)
	if err != nil {
		return domain.PoseOutput{}, err
	}
	return n.tree.blend(a, b, n.weight, n.Mask()), nil
}

func (n *Binary) computeTrack(stamp uint64, track int) (domain.SingleTrackOutput, error) {
	a, err := n.tree.GetOutputTrack(n.children[0], stamp, track)
	if err != nil {
		return domain.SingleTrackOutput{}, err
	}
	b, err := n.tree.GetOutputTrack(n.children[1], stamp, track)
	if err != nil {
		return domain.SingleTrackOutput{}, err
	}
	return n.tree.blendTrack(a, b, n.weight, n.Mask(), track), nil
}

// Axis blends a mid child toward high for positive weights and toward low for
// negative ones. All three children are ticked.
type Axis struct {
	composite
	weight fixed.Num
}

// AddAxis registers a three-point blend.
func (t *Tree) AddAxis(name string, mid, high, low Handle, weight fixed.Num) (*Axis, error) {
	if err := t.checkChildren(domain.Slots[domain.KindAxis], mid, high, low); err != nil {
		return nil, err
	}
	n, err := t.register(name, domain.KindAxis, func(base node) Node {
		base.children = []Handle{mid, high, low}
		return &Axis{composite: composite{base}, weight: weight.Signed()}
	})
	if err != nil {
		return nil, err
	}
	return n.(*Axis), nil
}

func (n *Axis) Weight() fixed.Num { return n.weight }

// SetWeight clamps w to [-1,1].
func (n *Axis) SetWeight(w fixed.Num) { n.weight = w.Signed() }

func (n *Axis) tick(stamp uint64, run bool, step fixed.Num) error {
	for _, c := range n.children {
		if err := n.tree.UpdateTick(c, stamp, run, step); err != nil {
			return err
		}
	}
	return nil
}

// side picks the child blended against mid and the blend weight.
func (n *Axis) side() (Handle, fixed.Num) {
	if n.weight > 0 {
		return n.children[1], n.weight
	}
	return n.children[2], n.weight.Abs()
}

func (n *Axis) compute(stamp uint64) (domain.PoseOutput, error) {
	mid, err := n.tree.GetOutput(n.children[0], stamp)
	if err != nil {
		return domain.PoseOutput{}, err
	}
	if n.weight == 0 {
		return mid, nil
	}
	other, w := n.side()
	out, err := n.tree.GetOutput(other, stamp)
	if err != nil {
		return domain.PoseOutput{}, err
	}
	return n.tree.blend(mid, out, w, n.Mask()), nil
}

func (n *Axis) computeTrack(stamp uint64, track int) (domain.SingleTrackOutput, error) {
	mid, err := n.tree.GetOutputTrack(n.children[0], stamp, track)
	if err != nil {
		return domain.SingleTrackOutput{}, err
	}
	if n.weight == 0 {
		return mid, nil
	}
	other, w := n.side()
	out, err := n.tree.GetOutputTrack(other, stamp, track)
	if err != nil {
		return domain.SingleTrackOutput{}, err
	}
	return n.tree.blendTrack(mid, out, w, n.Mask(), track), nil
}

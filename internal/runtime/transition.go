package runtime

import (
	"fmt"

	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
)

// Transition is a two-state machine that plays a dedicated transition leaf when
// moving between its A and B children.
//
// While transitioning, with r the transition leaf's playback ratio and w the
// window: r < w blends from the source state into the clip by r/w, r > 1-w
// blends from the clip toward the target state by (1-r)/w, and in between the
// clip plays alone. The transition ends once the leaf holds at its last frame.
type Transition struct {
	composite
	window fixed.Num
	state  domain.TransitionState
	toB    bool
}

// MaxWindow bounds the blend window on either end of a transition clip.
const MaxWindow = fixed.Half

// AddTransition registers a transition. aToB and bToA must be leaves and are
// switched to Once playback. The initial flag selects the starting state.
func (t *Tree) AddTransition(name string, a, b, aToB, bToA Handle, window fixed.Num, flag bool) (*Transition, error) {
	slots := domain.Slots[domain.KindTransition]
	if err := t.checkChildren(slots, a, b, aToB, bToA); err != nil {
		return nil, err
	}
	for i, h := range []Handle{aToB, bToA} {
		l, err := t.leaf(h)
		if err != nil {
			return nil, fmt.Errorf("slot %q: %w", slots[2+i], err)
		}
		l.SetPlayState(domain.PlayOnce)
	}

	n, err := t.register(name, domain.KindTransition, func(base node) Node {
		base.children = []Handle{a, b, aToB, bToA}
		tr := &Transition{composite: composite{base}, window: window.Clamp(fixed.Zero, MaxWindow), state: domain.StateA, toB: flag}
		if flag {
			tr.state = domain.StateB
		}
		return tr
	})
	if err != nil {
		return nil, err
	}
	return n.(*Transition), nil
}

// SetFlag requests state B (true) or A (false). It is ignored while a
// transition is in progress or when the node already rests in that state.
func (tr *Transition) SetFlag(toB bool) {
	if tr.state == domain.StateTransitioning || toB == tr.toB {
		return
	}
	tr.toB = toB
	tr.leafAt(2).Reset()
	tr.leafAt(3).Reset()
	tr.state = domain.StateTransitioning
	tr.tree.emitState(tr.tree.stamp, tr, string(tr.state))
}

// State returns the current mode.
func (tr *Transition) State() domain.TransitionState { return tr.state }

// Flag returns the requested target: true for B.
func (tr *Transition) Flag() bool { return tr.toB }

func (tr *Transition) Window() fixed.Num { return tr.window }

func (tr *Transition) leafAt(i int) Leaf {
	return tr.tree.nodes[tr.children[i]].(Leaf)
}

// active returns the slot index of the transition leaf in use.
func (tr *Transition) active() int {
	if tr.toB {
		return 2
	}
	return 3
}

func (tr *Transition) tick(stamp uint64, run bool, step fixed.Num) error {
	if tr.state == domain.StateTransitioning && run && tr.leafAt(tr.active()).Holding() {
		tr.state = domain.StateA
		if tr.toB {
			tr.state = domain.StateB
		}
		tr.tree.emitState(stamp, tr, string(tr.state))
	}

	runs := [4]bool{}
	if tr.state == domain.StateTransitioning {
		runs[0], runs[1] = run, run
		runs[tr.active()] = run
	} else if tr.toB {
		runs[1] = run
	} else {
		runs[0] = run
	}

	for i, c := range tr.children {
		if err := tr.tree.UpdateTick(c, stamp, runs[i], step); err != nil {
			return err
		}
	}
	return nil
}

// plan decides which children contribute and by how much. With one source
// the output is that child alone.
func (tr *Transition) plan() (from, to int, w fixed.Num, single bool) {
	switch tr.state {
	case domain.StateA:
		return 0, 0, 0, true
	case domain.StateB:
		return 1, 0, 0, true
	}

	clip := tr.active()
	source, target := 0, 1
	if !tr.toB {
		source, target = 1, 0
	}
	r := tr.leafAt(clip).Ratio()

	switch {
	case tr.window == 0:
		return clip, 0, 0, true
	case r < tr.window:
		return source, clip, fixed.Div(r, tr.window), false
	case r > fixed.One-tr.window:
		return clip, target, fixed.Div(fixed.One-r, tr.window), false
	}
	return clip, 0, 0, true
}

func (tr *Transition) compute(stamp uint64) (domain.PoseOutput, error) {
	from, to, w, single := tr.plan()
	a, err := tr.tree.GetOutput(tr.children[from], stamp)
	if err != nil || single {
		return a, err
	}
	b, err := tr.tree.GetOutput(tr.children[to], stamp)
	if err != nil {
		return domain.PoseOutput{}, err
	}
	return tr.tree.blend(a, b, w, tr.Mask()), nil
}

func (tr *Transition) computeTrack(stamp uint64, track int) (domain.SingleTrackOutput, error) {
	from, to, w, single := tr.plan()
	a, err := tr.tree.GetOutputTrack(tr.children[from], stamp, track)
	if err != nil || single {
		return a, err
	}
	b, err := tr.tree.GetOutputTrack(tr.children[to], stamp, track)
	if err != nil {
		return domain.SingleTrackOutput{}, err
	}
	return tr.tree.blendTrack(a, b, w, tr.Mask(), track), nil
}

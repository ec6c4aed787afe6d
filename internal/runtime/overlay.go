package runtime

import (
	"fmt"

	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
)

// Overlay fades a one-shot leaf over a base node.
//
// Start arms the overlay. While armed and running, a fade counter ramps from 0
// up to fadeTicks and the output is blend(base, shot, fade/fadeTicks). Once the
// shot holds at its last frame, EndKeep pins the fade at full while EndRecover
// ramps it back down; the overlay disarms itself when the counter returns to 0.
type Overlay struct {
	composite
	policy    domain.EndPolicy
	fadeTicks int

	armed      bool
	recovering bool
	fade       int
}

// AddOverlay registers an overlay. The shot must be a leaf and is switched to
// Once playback. fadeTicks below 1 is treated as 1.
func (t *Tree) AddOverlay(name string, base, shot Handle, policy domain.EndPolicy, fadeTicks int) (*Overlay, error) {
	if err := t.checkChildren(domain.Slots[domain.KindOverlay], base, shot); err != nil {
		return nil, err
	}
	l, err := t.leaf(shot)
	if err != nil {
		return nil, fmt.Errorf("slot %q: %w", domain.SlotShot, err)
	}
	if policy == "" {
		policy = domain.EndRecover
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("invalid end policy %q", policy)
	}
	l.SetPlayState(domain.PlayOnce)

	n, err := t.register(name, domain.KindOverlay, func(b node) Node {
		b.children = []Handle{base, shot}
		return &Overlay{composite: composite{b}, policy: policy, fadeTicks: max(fadeTicks, 1)}
	})
	if err != nil {
		return nil, err
	}
	return n.(*Overlay), nil
}

// Start arms the overlay and rewinds the shot.
func (o *Overlay) Start() {
	o.armed = true
	o.recovering = false
	o.fade = 0
	o.shot().Reset()
	o.tree.emitState(o.tree.stamp, o, "armed")
}

// Stop disarms the overlay at once.
func (o *Overlay) Stop() {
	if !o.armed {
		return
	}
	o.disarm(o.tree.stamp)
}

func (o *Overlay) disarm(stamp uint64) {
	o.armed = false
	o.recovering = false
	o.fade = 0
	o.tree.emitState(stamp, o, "disarmed")
}

// Armed reports whether the shot is playing or fading.
func (o *Overlay) Armed() bool { return o.armed }

// Fade returns the current blend weight of the shot.
func (o *Overlay) Fade() fixed.Num { return fixed.FromRatio(o.fade, o.fadeTicks) }

// Recovering reports whether the shot is fading back out.
func (o *Overlay) Recovering() bool { return o.recovering }

func (o *Overlay) Policy() domain.EndPolicy { return o.policy }

func (o *Overlay) FadeTicks() int { return o.fadeTicks }

func (o *Overlay) shot() Leaf {
	return o.tree.nodes[o.children[1]].(Leaf)
}

func (o *Overlay) tick(stamp uint64, run bool, step fixed.Num) error {
	if run && o.armed {
		if o.shot().Holding() {
			switch o.policy {
			case domain.EndKeep:
				o.fade = o.fadeTicks
			case domain.EndRecover:
				if !o.recovering {
					o.recovering = true
					o.tree.emitState(stamp, o, "recovering")
				}
			}
		}

		switch {
		case o.recovering:
			o.fade--
			if o.fade <= 0 {
				o.disarm(stamp)
			}
		case o.fade < o.fadeTicks:
			o.fade++
		}
	}

	if err := o.tree.UpdateTick(o.children[0], stamp, run, step); err != nil {
		return err
	}
	return o.tree.UpdateTick(o.children[1], stamp, run && o.armed, step)
}

func (o *Overlay) compute(stamp uint64) (domain.PoseOutput, error) {
	base, err := o.tree.GetOutput(o.children[0], stamp)
	if err != nil {
		return domain.PoseOutput{}, err
	}
	if !o.armed || o.fade == 0 {
		return base, nil
	}
	shot, err := o.tree.GetOutput(o.children[1], stamp)
	if err != nil {
		return domain.PoseOutput{}, err
	}
	// Tracks the shot does not animate keep the base transform even at full fade.
	return o.tree.blender.Blend(base, shot, o.Fade(), o.Mask()), nil
}

func (o *Overlay) computeTrack(stamp uint64, track int) (domain.SingleTrackOutput, error) {
	base, err := o.tree.GetOutputTrack(o.children[0], stamp, track)
	if err != nil {
		return domain.SingleTrackOutput{}, err
	}
	if !o.armed || o.fade == 0 {
		return base, nil
	}
	shot, err := o.tree.GetOutputTrack(o.children[1], stamp, track)
	if err != nil {
		return domain.SingleTrackOutput{}, err
	}
	return o.tree.blender.BlendTrack(base, shot, o.Fade(), o.Mask(), track), nil
}

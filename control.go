package posegraph

import (
	"fmt"

	"github.com/aretw0/posegraph/internal/runtime"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
)

// node resolves nodeID and asserts it to T.
func node[T any](e *Engine, nodeID string) (T, error) {
	var zero T
	n, ok := e.tree.Lookup(nodeID)
	if !ok {
		return zero, fmt.Errorf("%w: %q", domain.ErrUnknownNode, nodeID)
	}
	t, ok := n.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %s", domain.ErrWrongKind, nodeID, n.Kind())
	}
	return t, nil
}

// StartOverlay arms an overlay and restarts its shot.
func (e *Engine) StartOverlay(nodeID string) error {
	o, err := node[*runtime.Overlay](e, nodeID)
	if err != nil {
		return err
	}
	o.Start()
	return nil
}

// StopOverlay disarms an overlay immediately.
func (e *Engine) StopOverlay(nodeID string) error {
	o, err := node[*runtime.Overlay](e, nodeID)
	if err != nil {
		return err
	}
	o.Stop()
	return nil
}

// SetFlag steers a crossfade or a transition node toward B (true) or A.
func (e *Engine) SetFlag(nodeID string, toB bool) error {
	type flagged interface{ SetFlag(bool) }
	n, err := node[flagged](e, nodeID)
	if err != nil {
		return err
	}
	n.SetFlag(toB)
	return nil
}

// SetWeight sets the weight of a binary or axis blend. Values are clamped
// to the node's range.
func (e *Engine) SetWeight(nodeID string, w fixed.Num) error {
	type weighted interface{ SetWeight(fixed.Num) }
	n, err := node[weighted](e, nodeID)
	if err != nil {
		return err
	}
	n.SetWeight(w)
	return nil
}

// SetWeight2D sets the weight of a grid blend.
func (e *Engine) SetWeight2D(nodeID string, x, y fixed.Num) error {
	g, err := node[*runtime.Grid](e, nodeID)
	if err != nil {
		return err
	}
	g.SetWeight(x, y)
	return nil
}

// SetSpeed changes the playback rate of an animation leaf.
func (e *Engine) SetSpeed(nodeID string, speed fixed.Num) error {
	a, err := node[*runtime.Animation](e, nodeID)
	if err != nil {
		return err
	}
	a.SetSpeed(speed)
	return nil
}

// SetPlayState changes the playback policy of a leaf.
func (e *Engine) SetPlayState(nodeID string, play domain.PlayState) error {
	if !play.Valid() {
		return fmt.Errorf("invalid play state %q", play)
	}
	l, err := node[runtime.Leaf](e, nodeID)
	if err != nil {
		return err
	}
	l.SetPlayState(play)
	return nil
}

// OnFrame registers an event on an animation leaf.
func (e *Engine) OnFrame(nodeID string, frame int, event string) error {
	a, err := node[*runtime.Animation](e, nodeID)
	if err != nil {
		return err
	}
	a.OnFrame(frame, event)
	return nil
}

// Inspect returns a status snapshot of every node in definition order.
func (e *Engine) Inspect() []domain.NodeStatus {
	out := make([]domain.NodeStatus, 0, len(e.defs))
	for _, d := range e.defs {
		n, ok := e.tree.Lookup(d.ID)
		if !ok {
			continue
		}
		out = append(out, status(d, n))
	}
	return out
}

// InspectNode returns the status of one node.
func (e *Engine) InspectNode(nodeID string) (domain.NodeStatus, error) {
	for _, d := range e.defs {
		if d.ID != nodeID {
			continue
		}
		if n, ok := e.tree.Lookup(d.ID); ok {
			return status(d, n), nil
		}
	}
	return domain.NodeStatus{}, fmt.Errorf("%w: %q", domain.ErrUnknownNode, nodeID)
}

func status(d domain.NodeDef, n runtime.Node) domain.NodeStatus {
	s := domain.NodeStatus{ID: d.ID, Kind: n.Kind(), Inputs: d.Inputs}

	if l, ok := n.(runtime.Leaf); ok {
		s.Play = l.PlayState()
		s.Frame = l.Frame()
		s.Holding = l.Holding()
		s.Ratio = l.Ratio()
		s.Clip = d.Clip
	}

	switch v := n.(type) {
	case *runtime.Animation:
		s.Speed = v.Speed()
	case *runtime.Binary:
		s.Weight = v.Weight()
	case *runtime.Axis:
		s.Weight = v.Weight()
	case *runtime.Grid:
		s.Weight, s.WeightY = v.Weight()
	case *runtime.Overlay:
		s.Weight = v.Fade()
		s.Armed = v.Armed()
		s.Recovering = v.Recovering()
	case *runtime.Crossfade:
		s.Weight = v.Weight()
		s.Flag = v.Flag()
	case *runtime.Transition:
		s.Flag = v.Flag()
		s.State = string(v.State())
	}
	return s
}

package runtime

import (
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
)

// Node is a vertex of the pose graph. The set of implementations is closed:
// the evaluation methods are unexported and only this package provides nodes.
type Node interface {
	Handle() Handle
	Name() string
	Kind() domain.NodeKind
	// Mask returns the tracks the node can define.
	Mask() domain.TrackMask
	// Children returns child handles in slot order.
	Children() []Handle

	tick(stamp uint64, run bool, step fixed.Num) error
	compute(stamp uint64) (domain.PoseOutput, error)
	computeTrack(stamp uint64, track int) (domain.SingleTrackOutput, error)
}

// Leaf is a time-driven source node.
type Leaf interface {
	Node
	PlayState() domain.PlayState
	// SetPlayState changes the playback policy. Leaves without time ignore it.
	SetPlayState(domain.PlayState)
	// Holding reports whether a Once leaf rests on its final frame.
	Holding() bool
	// Ratio is the playback progress in [0,1].
	Ratio() fixed.Num
	// Frame returns the current frame index.
	Frame() int
	// Reset rewinds to frame 0 and clears holding-at-end.
	Reset()
}

type node struct {
	tree     *Tree
	handle   Handle
	name     string
	kind     domain.NodeKind
	children []Handle
}

func (n *node) Handle() Handle        { return n.handle }
func (n *node) Name() string          { return n.name }
func (n *node) Kind() domain.NodeKind { return n.kind }

func (n *node) Children() []Handle {
	out := make([]Handle, len(n.children))
	copy(out, n.children)
	return out
}

// composite is the shared part of every composition node.
type composite struct {
	node
}

// Mask is the union of the children's masks.
func (c *composite) Mask() domain.TrackMask {
	return c.tree.compositeMask(c.handle, c.children)
}

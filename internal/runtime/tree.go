package runtime

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/posegraph/internal/logging"
	"github.com/aretw0/posegraph/pkg/blend"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/aretw0/posegraph/pkg/ports"
)

// Handle addresses a node inside its Tree.
type Handle int32

// NoHandle marks an empty child slot.
const NoHandle Handle = -1

// Tree owns the nodes of one actor's animation graph.
//
// Nodes live in an arena and refer to their children by Handle, so a node with
// several parents is still a single entry. Per-tick memoization uses flat stamp
// arrays indexed by handle: a node is ticked at most once and computed at most
// once for any stamp, whichever parent reaches it first.
//
// A Tree is not safe for concurrent use.
type Tree struct {
	trackCount int
	blender    ports.PoseBlender
	sink       ports.EventSink
	hooks      domain.LifecycleHooks
	logger     *slog.Logger

	nodes    []Node
	names    map[string]Handle
	leaves   []Handle
	ticked   []uint64
	computed []uint64
	cache    []domain.PoseOutput

	// Composite masks are cached per handle and stay valid while maskAt[h]
	// equals maskGen. Rebinding a leaf bumps maskGen.
	masks   []domain.TrackMask
	maskAt  []uint64
	maskGen uint64

	root  Handle
	stamp uint64
}

// Option configures a Tree.
type Option func(*Tree)

// WithBlender replaces the default linear blender.
func WithBlender(b ports.PoseBlender) Option {
	return func(t *Tree) {
		t.blender = b
	}
}

// WithEventSink sets the receiver of frame events.
func WithEventSink(s ports.EventSink) Option {
	return func(t *Tree) {
		t.sink = s
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(t *Tree) {
		t.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tree) {
		t.logger = logger
	}
}

// NewTree creates an empty tree whose poses carry trackCount tracks.
func NewTree(trackCount int, opts ...Option) *Tree {
	t := &Tree{
		trackCount: trackCount,
		names:      make(map[string]Handle),
		root:       NoHandle,
		maskGen:    1,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.blender == nil {
		t.blender = blend.NewLinear()
	}
	if t.logger == nil {
		t.logger = logging.NewNop()
	}
	return t
}

// TrackCount returns the number of tracks of every pose in the tree.
func (t *Tree) TrackCount() int { return t.trackCount }

// Stamp returns the highest stamp the tree has evaluated.
func (t *Tree) Stamp() uint64 { return t.stamp }

// Root returns the root handle, or NoHandle if none is set.
func (t *Tree) Root() Handle { return t.root }

// SetRoot selects the node driven by Advance.
func (t *Tree) SetRoot(h Handle) error {
	if _, err := t.Node(h); err != nil {
		return err
	}
	t.root = h
	return nil
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node stored at h.
func (t *Tree) Node(h Handle) (Node, error) {
	if h < 0 || int(h) >= len(t.nodes) {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidHandle, h)
	}
	return t.nodes[h], nil
}

// Lookup finds a node by name.
func (t *Tree) Lookup(name string) (Node, bool) {
	h, ok := t.names[name]
	if !ok {
		return nil, false
	}
	return t.nodes[h], true
}

// Nodes returns all nodes in creation order, children before parents.
func (t *Tree) Nodes() []Node {
	out := make([]Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Leaves returns the leaf registry.
func (t *Tree) Leaves() []Leaf {
	out := make([]Leaf, 0, len(t.leaves))
	for _, h := range t.leaves {
		out = append(out, t.nodes[h].(Leaf))
	}
	return out
}

// ResetLeaves rewinds every registered leaf to frame 0 and clears holding-at-end.
func (t *Tree) ResetLeaves() {
	for _, l := range t.Leaves() {
		l.Reset()
	}
}

// --- Evaluation ---

// UpdateTick is the first pass of the split evaluation style: it lets node h
// advance its time state for stamp and propagate run/step to its children.
// Repeated calls with the same stamp are no-ops; the first caller's run flag wins.
func (t *Tree) UpdateTick(h Handle, stamp uint64, run bool, step fixed.Num) error {
	n, err := t.enter(h, stamp)
	if err != nil {
		return err
	}
	if t.ticked[h] == stamp {
		return nil
	}
	t.ticked[h] = stamp

	if t.hooks.OnNodeTick != nil {
		t.hooks.OnNodeTick(&domain.NodeEvent{Stamp: stamp, NodeID: n.Name(), Kind: n.Kind(), Run: run})
	}
	if err := n.tick(stamp, run, step); err != nil {
		return fmt.Errorf("node %q: %w", n.Name(), err)
	}
	return nil
}

// GetOutput is the second pass of the split evaluation style. The result is
// memoized per stamp.
func (t *Tree) GetOutput(h Handle, stamp uint64) (domain.PoseOutput, error) {
	n, err := t.enter(h, stamp)
	if err != nil {
		return domain.PoseOutput{}, err
	}
	if t.computed[h] == stamp {
		if t.hooks.OnCacheHit != nil {
			t.hooks.OnCacheHit(&domain.NodeEvent{Stamp: stamp, NodeID: n.Name(), Kind: n.Kind()})
		}
		return t.cache[h], nil
	}

	out, err := n.compute(stamp)
	if err != nil {
		return domain.PoseOutput{}, fmt.Errorf("node %q: %w", n.Name(), err)
	}
	t.cache[h] = out
	t.computed[h] = stamp

	if t.hooks.OnNodeCompute != nil {
		t.hooks.OnNodeCompute(&domain.NodeEvent{Stamp: stamp, NodeID: n.Name(), Kind: n.Kind()})
	}
	return out, nil
}

// UpdateOutput is the combined evaluation style: tick then compute.
func (t *Tree) UpdateOutput(h Handle, stamp uint64, run bool, step fixed.Num) (domain.PoseOutput, error) {
	if err := t.UpdateTick(h, stamp, run, step); err != nil {
		return domain.PoseOutput{}, err
	}
	return t.GetOutput(h, stamp)
}

// GetOutputTrack answers a sparse query for one track. If node h already has a
// full output for stamp that output is reused; otherwise the node's algorithm
// runs for the single track and nothing is cached.
func (t *Tree) GetOutputTrack(h Handle, stamp uint64, track int) (domain.SingleTrackOutput, error) {
	n, err := t.enter(h, stamp)
	if err != nil {
		return domain.SingleTrackOutput{}, err
	}
	if t.computed[h] == stamp {
		return t.cache[h].Track(track), nil
	}
	out, err := n.computeTrack(stamp, track)
	if err != nil {
		return domain.SingleTrackOutput{}, fmt.Errorf("node %q: %w", n.Name(), err)
	}
	return out, nil
}

// Advance runs one evaluation pass from the root with the next stamp.
func (t *Tree) Advance(run bool, step fixed.Num) (domain.PoseOutput, error) {
	if t.root == NoHandle {
		return domain.PoseOutput{}, fmt.Errorf("%w: tree has no root", domain.ErrInvalidHandle)
	}
	return t.UpdateOutput(t.root, t.stamp+1, run, step)
}

func (t *Tree) enter(h Handle, stamp uint64) (Node, error) {
	if stamp == 0 {
		return nil, domain.ErrInvalidStamp
	}
	n, err := t.Node(h)
	if err != nil {
		return nil, err
	}
	if stamp > t.stamp {
		t.stamp = stamp
	}
	return n, nil
}

// --- Construction helpers ---

func (t *Tree) register(name string, kind domain.NodeKind, build func(base node) Node) (Node, error) {
	h := Handle(len(t.nodes))
	if name == "" {
		name = fmt.Sprintf("%s#%d", kind, h)
	}
	if _, dup := t.names[name]; dup {
		return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateNode, name)
	}

	n := build(node{tree: t, handle: h, name: name, kind: kind})
	t.nodes = append(t.nodes, n)
	t.names[name] = h
	t.ticked = append(t.ticked, 0)
	t.computed = append(t.computed, 0)
	t.cache = append(t.cache, domain.PoseOutput{})
	t.masks = append(t.masks, domain.TrackMask{})
	t.maskAt = append(t.maskAt, 0)
	if _, ok := n.(Leaf); ok {
		t.leaves = append(t.leaves, h)
	}
	return n, nil
}

func (t *Tree) checkChildren(slots []string, children ...Handle) error {
	for i, c := range children {
		if c == NoHandle {
			return fmt.Errorf("%w: slot %q", domain.ErrMissingChild, slots[i])
		}
		if _, err := t.Node(c); err != nil {
			return fmt.Errorf("slot %q: %w", slots[i], err)
		}
	}
	return nil
}

func (t *Tree) leaf(h Handle) (Leaf, error) {
	n, err := t.Node(h)
	if err != nil {
		return nil, err
	}
	l, ok := n.(Leaf)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %s", domain.ErrNotLeaf, n.Name(), n.Kind())
	}
	return l, nil
}

// compositeMask returns the union of the children's masks for node h. Each
// node's mask is worked out at most once per mask generation, so a DAG with
// shared children costs one pass over its nodes.
func (t *Tree) compositeMask(h Handle, children []Handle) domain.TrackMask {
	if t.maskAt[h] == t.maskGen {
		return t.masks[h]
	}
	var m domain.TrackMask
	for _, c := range children {
		if c >= 0 && int(c) < len(t.nodes) {
			m = m.Union(t.nodes[c].Mask())
		}
	}
	t.masks[h] = m
	t.maskAt[h] = t.maskGen
	return m
}

// invalidateMasks drops every cached composite mask after a leaf's mask changed.
func (t *Tree) invalidateMasks() { t.maskGen++ }

// --- Blend helpers ---

// blend passes a or b through untouched at the ends of [0,1].
func (t *Tree) blend(a, b domain.PoseOutput, w fixed.Num, mask domain.TrackMask) domain.PoseOutput {
	switch {
	case w <= fixed.Zero:
		return a
	case w >= fixed.One:
		return b
	}
	return t.blender.Blend(a, b, w, mask)
}

func (t *Tree) blendTrack(a, b domain.SingleTrackOutput, w fixed.Num, mask domain.TrackMask, track int) domain.SingleTrackOutput {
	switch {
	case w <= fixed.Zero:
		return a
	case w >= fixed.One:
		return b
	}
	return t.blender.BlendTrack(a, b, w, mask, track)
}

// --- Events ---

func (t *Tree) emitFrame(stamp uint64, name string, frame int, event string) {
	ev := domain.FrameEvent{Stamp: stamp, Node: name, Frame: frame, Event: event}
	if t.sink != nil {
		t.sink.Emit(ev)
	}
	if t.hooks.OnFrameEvent != nil {
		t.hooks.OnFrameEvent(&ev)
	}
}

func (t *Tree) emitState(stamp uint64, n Node, state string) {
	t.logger.Debug("node state changed", "node", n.Name(), "kind", n.Kind(), "state", state, "stamp", stamp)
	if t.hooks.OnStateChange != nil {
		t.hooks.OnStateChange(&domain.StateEvent{Stamp: stamp, NodeID: n.Name(), Kind: n.Kind(), State: state})
	}
}

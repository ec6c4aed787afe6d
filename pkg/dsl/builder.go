package dsl

import (
	"fmt"
	"sort"

	"github.com/aretw0/posegraph/pkg/adapters/memory"
	"github.com/aretw0/posegraph/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	nodes map[string]*NodeBuilder
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a node of the given kind.
// If the node already exists, it returns the existing builder with its kind replaced.
func (b *Builder) Add(id string, kind domain.NodeKind) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		nb.node.Kind = kind
		return nb
	}
	nb := &NodeBuilder{
		node: domain.NodeDef{
			ID:   id,
			Kind: kind,
		},
	}
	b.nodes[id] = nb
	return nb
}

// Animation adds a clip-playing leaf.
func (b *Builder) Animation(id string) *NodeBuilder {
	return b.Add(id, domain.KindAnimation)
}

// Constant adds a leaf frozen on one frame of a clip.
func (b *Builder) Constant(id, clip string, frame int) *NodeBuilder {
	nb := b.Add(id, domain.KindConstant)
	nb.node.Clip = clip
	nb.node.Frame = frame
	return nb
}

// Binary adds a two-way blend.
func (b *Builder) Binary(id, a, bb string) *NodeBuilder {
	return b.Add(id, domain.KindBinary).
		Input(domain.SlotA, a).
		Input(domain.SlotB, bb)
}

// Axis adds a signed one-dimensional blend.
func (b *Builder) Axis(id, mid, high, low string) *NodeBuilder {
	return b.Add(id, domain.KindAxis).
		Input(domain.SlotMid, mid).
		Input(domain.SlotHigh, high).
		Input(domain.SlotLow, low)
}

// Grid adds a 3x3 blend; fill its cells with Cell.
func (b *Builder) Grid(id string) *NodeBuilder {
	return b.Add(id, domain.KindGrid)
}

// Overlay adds a one-shot overlay of shot on top of base.
func (b *Builder) Overlay(id, base, shot string) *NodeBuilder {
	return b.Add(id, domain.KindOverlay).
		Input(domain.SlotBase, base).
		Input(domain.SlotShot, shot)
}

// Crossfade adds a timed switch between a and b.
func (b *Builder) Crossfade(id, a, bb string, switchTicks int) *NodeBuilder {
	nb := b.Add(id, domain.KindCrossfade).
		Input(domain.SlotA, a).
		Input(domain.SlotB, bb)
	nb.node.SwitchTicks = switchTicks
	return nb
}

// Transition adds a two-state machine with dedicated transition leaves.
func (b *Builder) Transition(id, a, bb, aToB, bToA string) *NodeBuilder {
	return b.Add(id, domain.KindTransition).
		Input(domain.SlotA, a).
		Input(domain.SlotB, bb).
		Input(domain.SlotAToB, aToB).
		Input(domain.SlotBToA, bToA)
}

// Defs returns the node definitions sorted by id.
func (b *Builder) Defs() []domain.NodeDef {
	ids := make([]string, 0, len(b.nodes))
	for id := range b.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	defs := make([]domain.NodeDef, 0, len(ids))
	for _, id := range ids {
		defs = append(defs, b.nodes[id].Def())
	}
	return defs
}

// Build compiles the graph into a memory loader.
func (b *Builder) Build() (*memory.Loader, error) {
	loader, err := memory.NewFromDefs(b.Defs()...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}

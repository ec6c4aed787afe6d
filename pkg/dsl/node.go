package dsl

import (
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
)

// NodeBuilder provides a fluent API for configuring a node.
// Setters that do not apply to the node's kind are kept but ignored at build time.
type NodeBuilder struct {
	node domain.NodeDef
}

// Input wires child to the named slot.
func (n *NodeBuilder) Input(slot, child string) *NodeBuilder {
	if n.node.Inputs == nil {
		n.node.Inputs = make(map[string]string)
	}
	n.node.Inputs[slot] = child
	return n
}

// Cell wires a grid cell, x and y in {-1, 0, 1}.
func (n *NodeBuilder) Cell(x, y int, child string) *NodeBuilder {
	return n.Input(domain.GridSlots[(y+1)*3+(x+1)], child)
}

// Clip binds the leaf to a clip from the library.
func (n *NodeBuilder) Clip(name string) *NodeBuilder {
	n.node.Clip = name
	return n
}

// Play sets the playback policy.
func (n *NodeBuilder) Play(p domain.PlayState) *NodeBuilder {
	n.node.Play = p
	return n
}

// Speed sets the playback rate multiplier.
func (n *NodeBuilder) Speed(s fixed.Num) *NodeBuilder {
	n.node.Speed = s
	return n
}

// On registers an event for when playback lands on frame.
func (n *NodeBuilder) On(frame int, event string) *NodeBuilder {
	if n.node.Events == nil {
		n.node.Events = make(map[int][]string)
	}
	n.node.Events[frame] = append(n.node.Events[frame], event)
	return n
}

// Weight sets the blend weight; for grids it is the X weight.
func (n *NodeBuilder) Weight(w fixed.Num) *NodeBuilder {
	n.node.Weight = w
	return n
}

// Weight2D sets both grid weights.
func (n *NodeBuilder) Weight2D(x, y fixed.Num) *NodeBuilder {
	n.node.Weight = x
	n.node.WeightY = y
	return n
}

// Recover makes an overlay fade back out once its shot ends.
func (n *NodeBuilder) Recover(fadeTicks int) *NodeBuilder {
	n.node.Policy = domain.EndRecover
	n.node.FadeTicks = fadeTicks
	return n
}

// Keep makes an overlay pin its shot's last frame.
func (n *NodeBuilder) Keep(fadeTicks int) *NodeBuilder {
	n.node.Policy = domain.EndKeep
	n.node.FadeTicks = fadeTicks
	return n
}

// Window sets the transition blend window.
func (n *NodeBuilder) Window(w fixed.Num) *NodeBuilder {
	n.node.Window = w
	return n
}

// Flag sets the initial target of a crossfade or transition (true means B).
func (n *NodeBuilder) Flag(toB bool) *NodeBuilder {
	n.node.Flag = toB
	return n
}

// Meta attaches a metadata entry.
func (n *NodeBuilder) Meta(key, value string) *NodeBuilder {
	if n.node.Metadata == nil {
		n.node.Metadata = make(map[string]string)
	}
	n.node.Metadata[key] = value
	return n
}

// Def returns a copy of the definition built so far.
func (n *NodeBuilder) Def() domain.NodeDef {
	d := n.node
	if n.node.Inputs != nil {
		d.Inputs = make(map[string]string, len(n.node.Inputs))
		for k, v := range n.node.Inputs {
			d.Inputs[k] = v
		}
	}
	return d
}

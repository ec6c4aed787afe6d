package domain

import "github.com/aretw0/posegraph/pkg/fixed"

// NodeKind selects the evaluation algorithm of a node.
type NodeKind string

const (
	// KindAnimation plays one clip (leaf).
	KindAnimation NodeKind = "animation"
	// KindConstant returns one precomputed pose (leaf).
	KindConstant NodeKind = "constant"
	// KindBinary blends two children by one weight in [0,1].
	KindBinary NodeKind = "binary"
	// KindAxis blends mid/high/low by one weight in [-1,1].
	KindAxis NodeKind = "axis"
	// KindGrid blends a 3x3 grid of children by a 2D weight.
	KindGrid NodeKind = "grid"
	// KindOverlay fades a one-shot leaf over a base node.
	KindOverlay NodeKind = "overlay"
	// KindCrossfade switches between two children over a fixed number of ticks.
	KindCrossfade NodeKind = "crossfade"
	// KindTransition is a two-state machine with dedicated transition clips.
	KindTransition NodeKind = "transition"
)

// IsLeaf reports whether nodes of this kind are time-driven sources.
func (k NodeKind) IsLeaf() bool {
	return k == KindAnimation || k == KindConstant
}

// Valid reports whether k is one of the known kinds.
func (k NodeKind) Valid() bool {
	_, ok := Slots[k]
	return ok
}

// Input slot names, per kind.
const (
	SlotA    = "a"
	SlotB    = "b"
	SlotMid  = "mid"
	SlotHigh = "high"
	SlotLow  = "low"
	SlotBase = "base"
	SlotShot = "shot"
	SlotAToB = "a_to_b"
	SlotBToA = "b_to_a"

	SlotCenter    = "c"
	SlotNorth     = "n"
	SlotNorthEast = "ne"
	SlotEast      = "e"
	SlotSouthEast = "se"
	SlotSouth     = "s"
	SlotSouthWest = "sw"
	SlotWest      = "w"
	SlotNorthWest = "nw"
)

// GridSlots lists the grid slots row by row from south-west to north-east, so
// that the slot for cell (x, y) in {-1,0,1}^2 sits at index (y+1)*3 + (x+1).
var GridSlots = [9]string{
	SlotSouthWest, SlotSouth, SlotSouthEast,
	SlotWest, SlotCenter, SlotEast,
	SlotNorthWest, SlotNorth, SlotNorthEast,
}

// Slots lists the required input slots of every kind in evaluation order.
var Slots = map[NodeKind][]string{
	KindAnimation:  nil,
	KindConstant:   nil,
	KindBinary:     {SlotA, SlotB},
	KindAxis:       {SlotMid, SlotHigh, SlotLow},
	KindGrid:       GridSlots[:],
	KindOverlay:    {SlotBase, SlotShot},
	KindCrossfade:  {SlotA, SlotB},
	KindTransition: {SlotA, SlotB, SlotAToB, SlotBToA},
}

// LeafSlots lists the slots that must be wired to leaf nodes.
var LeafSlots = map[NodeKind][]string{
	KindOverlay:    {SlotShot},
	KindTransition: {SlotAToB, SlotBToA},
}

// PlayState is the playback policy of a leaf.
type PlayState string

const (
	PlayLoop     PlayState = "loop"
	PlayOnce     PlayState = "once"
	PlayPingPong PlayState = "pingpong"
)

func (p PlayState) Valid() bool {
	switch p {
	case PlayLoop, PlayOnce, PlayPingPong:
		return true
	}
	return false
}

// EndPolicy decides what an overlay does once its shot holds at the last frame.
type EndPolicy string

const (
	// EndRecover fades the shot back out and returns control to the base node.
	EndRecover EndPolicy = "recover"
	// EndKeep pins the shot's last frame on top of the base node.
	EndKeep EndPolicy = "keep"
)

func (p EndPolicy) Valid() bool {
	return p == EndRecover || p == EndKeep
}

// TransitionState is the mode of a two-state transition node.
type TransitionState string

const (
	StateA             TransitionState = "a"
	StateB             TransitionState = "b"
	StateTransitioning TransitionState = "transitioning"
)

// NodeDef is the declarative description of one node.
// Fields not used by the node's kind are ignored.
type NodeDef struct {
	ID   string   `json:"id" yaml:"id" mapstructure:"id"`
	Kind NodeKind `json:"kind" yaml:"kind" mapstructure:"kind"`

	// Inputs maps slot names to child node IDs.
	Inputs map[string]string `json:"inputs,omitempty" yaml:"inputs,omitempty" mapstructure:"inputs"`

	// Leaf configuration
	Clip  string    `json:"clip,omitempty" yaml:"clip,omitempty" mapstructure:"clip"`
	Frame int       `json:"frame,omitempty" yaml:"frame,omitempty" mapstructure:"frame"` // constant: which clip frame to freeze
	Play  PlayState `json:"play,omitempty" yaml:"play,omitempty" mapstructure:"play"`
	Speed fixed.Num `json:"speed,omitempty" yaml:"speed,omitempty" mapstructure:"speed"` // zero means 1x

	// Events maps frame indices to event identifiers, fired in order.
	Events map[int][]string `json:"events,omitempty" yaml:"events,omitempty" mapstructure:"events"`

	// Blend configuration
	Weight  fixed.Num `json:"weight,omitempty" yaml:"weight,omitempty" mapstructure:"weight"`
	WeightY fixed.Num `json:"weight_y,omitempty" yaml:"weight_y,omitempty" mapstructure:"weight_y"`

	// Stateful node configuration
	Policy      EndPolicy `json:"policy,omitempty" yaml:"policy,omitempty" mapstructure:"policy"`
	FadeTicks   int       `json:"fade_ticks,omitempty" yaml:"fade_ticks,omitempty" mapstructure:"fade_ticks"`
	SwitchTicks int       `json:"switch_ticks,omitempty" yaml:"switch_ticks,omitempty" mapstructure:"switch_ticks"`
	Window      fixed.Num `json:"window,omitempty" yaml:"window,omitempty" mapstructure:"window"`
	Flag        bool      `json:"flag,omitempty" yaml:"flag,omitempty" mapstructure:"flag"`

	// Metadata allows for extensible key-value pairs.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty" mapstructure:"metadata"`
}

// Children returns the child IDs in the kind's slot order. Missing slots are empty strings.
func (n NodeDef) Children() []string {
	slots := Slots[n.Kind]
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = n.Inputs[s]
	}
	return out
}

package domain

import "github.com/aretw0/posegraph/pkg/fixed"

// NodeStatus is a read-only snapshot of one node for inspection tools.
// Only the fields meaningful for Kind are set.
type NodeStatus struct {
	ID     string            `json:"id"`
	Kind   NodeKind          `json:"kind"`
	Inputs map[string]string `json:"inputs,omitempty"`

	// Leaves
	Clip    string    `json:"clip,omitempty"`
	Play    PlayState `json:"play,omitempty"`
	Frame   int       `json:"frame"`
	Holding bool      `json:"holding,omitempty"`
	Ratio   fixed.Num `json:"ratio"`
	Speed   fixed.Num `json:"speed,omitempty"`

	// Blends and stateful nodes
	Weight     fixed.Num `json:"weight"`
	WeightY    fixed.Num `json:"weight_y,omitempty"`
	Armed      bool      `json:"armed,omitempty"`
	Recovering bool      `json:"recovering,omitempty"`
	Flag       bool      `json:"flag,omitempty"`
	State      string    `json:"state,omitempty"`
}

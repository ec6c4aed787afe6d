package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/posegraph/internal/presentation/graph"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		defs     []domain.NodeDef
		contains []string
		absent   []string
	}{
		{
			name: "Leaf Shapes",
			defs: []domain.NodeDef{
				{ID: "walk", Kind: domain.KindAnimation, Clip: "walk_cycle"},
				{ID: "tpose", Kind: domain.KindConstant},
			},
			contains: []string{
				`walk(["walk <br/> walk_cycle"])`,
				`tpose[/"tpose"/]`,
			},
		},
		{
			name: "Blend Shapes And Slot Edges",
			defs: []domain.NodeDef{
				{ID: "mix", Kind: domain.KindBinary, Inputs: map[string]string{"a": "idle", "b": "walk"}},
			},
			contains: []string{
				`mix{{"mix"}}`,
				`mix -- "a" --> idle`,
				`mix -- "b" --> walk`,
			},
		},
		{
			name: "Leaf Slots Are Dotted",
			defs: []domain.NodeDef{
				{ID: "wave", Kind: domain.KindOverlay, Policy: domain.EndKeep, Inputs: map[string]string{"base": "loco", "shot": "hand"}},
			},
			contains: []string{
				`wave[["wave <br/> keep"]]`,
				`wave -- "base" --> loco`,
				`wave -- "shot" -.-> hand`,
			},
		},
		{
			name: "ID Sanitization",
			defs: []domain.NodeDef{
				{ID: "upper/arm-l.md", Kind: domain.KindCrossfade, Inputs: map[string]string{"a": "x.y", "b": "binary#3"}},
			},
			contains: []string{
				`upper_arm_l_md{"upper/arm-l.md"}`,
				`upper_arm_l_md -- "a" --> x_y`,
				`upper_arm_l_md -- "b" --> binary_3`,
			},
		},
		{
			name: "Missing Slots Are Skipped",
			defs: []domain.NodeDef{
				{ID: "half", Kind: domain.KindBinary, Inputs: map[string]string{"a": "idle"}},
			},
			contains: []string{`half -- "a" --> idle`},
			absent:   []string{`"b"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.defs, nil)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, s := range tt.contains {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, got, s)
			}
			assert.NotContains(t, got, "classDef")
		})
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	defs := []domain.NodeDef{
		{ID: "idle", Kind: domain.KindAnimation},
		{ID: "root", Kind: domain.KindCrossfade, Inputs: map[string]string{"a": "idle", "b": "idle"}},
	}
	got := graph.GenerateMermaid(defs, &graph.GraphOverlay{Root: "root", Active: []string{"root", "root", ""}})

	assert.Contains(t, got, "classDef root")
	assert.Contains(t, got, "class root root;")
	assert.Equal(t, 1, strings.Count(got, "class root active;"))
}

func TestActiveNodes(t *testing.T) {
	statuses := []domain.NodeStatus{
		{ID: "idle", Kind: domain.KindAnimation, Holding: true},
		{ID: "shot", Kind: domain.KindOverlay, Armed: true},
		{ID: "calm", Kind: domain.KindOverlay},
		{ID: "fade", Kind: domain.KindCrossfade, Flag: true},
		{ID: "door", Kind: domain.KindTransition},
	}
	assert.Equal(t, []string{"shot", "fade"}, graph.ActiveNodes(statuses))
}

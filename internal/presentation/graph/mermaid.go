package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/posegraph/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	Root string
	// Active lists nodes currently driving their output: armed overlays,
	// crossfades and transitions targeting B.
	Active []string
}

// GenerateMermaid produces a Mermaid flowchart from node definitions.
// Shapes follow the node kind:
// - Animation: (["Stadium"])
// - Constant: [/Parallelogram/]
// - Binary, Axis, Grid: {{Hexagon}}
// - Overlay: [[Subroutine]]
// - Crossfade, Transition: {Rhombus}
// Edges point from a parent to its children and carry the slot name.
func GenerateMermaid(defs []domain.NodeDef, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, def := range defs {
		safeID := sanitizeMermaidID(def.ID)
		opener, closer := shape(def.Kind)

		label := def.ID
		switch def.Kind {
		case domain.KindAnimation, domain.KindConstant:
			if def.Clip != "" {
				label = fmt.Sprintf("%s <br/> %s", def.ID, def.Clip)
			}
		case domain.KindOverlay:
			if def.Policy != "" {
				label = fmt.Sprintf("%s <br/> %s", def.ID, def.Policy)
			}
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escape(label), closer)

		for i, child := range def.Children() {
			if child == "" {
				continue
			}
			arrow := "-->"
			if isLeafSlot(def.Kind, domain.Slots[def.Kind][i]) {
				arrow = "-.->"
			}
			fmt.Fprintf(&sb, "    %s -- \"%s\" %s %s\n", safeID, domain.Slots[def.Kind][i], arrow, sanitizeMermaidID(child))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast on light fills in both themes.
		sb.WriteString("    classDef root fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef active fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Active {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !seen[safeID] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s active;\n", safeID)
			}
		}
		if overlay.Root != "" {
			fmt.Fprintf(&sb, "    class %s root;\n", sanitizeMermaidID(overlay.Root))
		}
	}

	return sb.String()
}

func shape(kind domain.NodeKind) (string, string) {
	switch kind {
	case domain.KindAnimation:
		return "([", "])"
	case domain.KindConstant:
		return "[/", "/]"
	case domain.KindBinary, domain.KindAxis, domain.KindGrid:
		return "{{", "}}"
	case domain.KindOverlay:
		return "[[", "]]"
	case domain.KindCrossfade, domain.KindTransition:
		return "{", "}"
	}
	return "[", "]"
}

func isLeafSlot(kind domain.NodeKind, slot string) bool {
	for _, s := range domain.LeafSlots[kind] {
		if s == slot {
			return true
		}
	}
	return false
}

// ActiveNodes picks the nodes to highlight from an inspection snapshot.
func ActiveNodes(statuses []domain.NodeStatus) []string {
	var out []string
	for _, s := range statuses {
		switch s.Kind {
		case domain.KindOverlay:
			if s.Armed {
				out = append(out, s.ID)
			}
		case domain.KindCrossfade, domain.KindTransition:
			if s.Flag {
				out = append(out, s.ID)
			}
		}
	}
	return out
}

func escape(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "#", "_")
	return s
}

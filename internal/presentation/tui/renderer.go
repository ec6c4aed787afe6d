package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// StatusTable formats an inspection snapshot as a markdown table.
func StatusTable(title string, statuses []domain.NodeStatus) string {
	var sb strings.Builder
	if title != "" {
		fmt.Fprintf(&sb, "## %s\n\n", title)
	}
	sb.WriteString("| node | kind | state |\n")
	sb.WriteString("| --- | --- | --- |\n")
	for _, s := range statuses {
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", s.ID, s.Kind, describe(s))
	}
	return sb.String()
}

// PoseTable formats the masked tracks of a pose as a markdown table.
func PoseTable(stamp uint64, pose domain.PoseOutput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### tick %d\n\n", stamp)
	sb.WriteString("| track | translation | rotation | scale |\n")
	sb.WriteString("| --- | --- | --- | --- |\n")
	for _, t := range pose.Mask.Tracks() {
		if t >= len(pose.Tracks) {
			continue
		}
		tr := pose.Tracks[t]
		fmt.Fprintf(&sb, "| %d | %s %s %s | %s %s %s %s | %s %s %s |\n", t,
			tr.Translation.X, tr.Translation.Y, tr.Translation.Z,
			tr.Rotation.X, tr.Rotation.Y, tr.Rotation.Z, tr.Rotation.W,
			tr.Scale.X, tr.Scale.Y, tr.Scale.Z)
	}
	return sb.String()
}

func describe(s domain.NodeStatus) string {
	switch s.Kind {
	case domain.KindAnimation:
		out := fmt.Sprintf("%s frame %d (%s) x%s", s.Clip, s.Frame, s.Play, s.Speed)
		if s.Holding {
			out += ", holding"
		}
		return out
	case domain.KindConstant:
		return fmt.Sprintf("%s frame %d", s.Clip, s.Frame)
	case domain.KindBinary, domain.KindAxis:
		return fmt.Sprintf("weight %s", s.Weight)
	case domain.KindGrid:
		return fmt.Sprintf("weight %s, %s", s.Weight, s.WeightY)
	case domain.KindOverlay:
		switch {
		case s.Recovering:
			return fmt.Sprintf("recovering, fade %s", s.Weight)
		case s.Armed:
			return fmt.Sprintf("armed, fade %s", s.Weight)
		}
		return "idle"
	case domain.KindCrossfade:
		return fmt.Sprintf("to_b=%t, weight %s", s.Flag, s.Weight)
	case domain.KindTransition:
		return fmt.Sprintf("%s, to_b=%t", s.State, s.Flag)
	}
	return ""
}

package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the posegraph banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{`  _ __   ___  ___  ___  __ _ _ __ __ _ _ __ | |__`, "#34d399"},
		{` | '_ \ / _ \/ __|/ _ \/ _' | '__/ _' | '_ \| '_ \`, "#2dd4bf"},
		{` | |_) | (_) \__ \  __/ (_| | | | (_| | |_) | | | |`, "#22d3ee"},
		{` | .__/ \___/|___/\___|\__, |_|  \__,_| .__/|_| |_|`, "#38bdf8"},
		{` |_|                   |___/          |_|`, "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Highlight colors s for a terminal, or returns it unchanged when the output
// has no color support.
func Highlight(s string, color string) string {
	p := termenv.ColorProfile()
	if p == termenv.Ascii {
		return s
	}
	return termenv.String(s).Foreground(p.Color(color)).Bold().String()
}

/*
Package posegraph is a deterministic animation pose-graph evaluation engine.

A graph is a DAG of nodes. Leaves produce poses from time (clip playback, or a
constant pose); interior nodes blend their children's poses (two-way, signed
axis, 3x3 grid) or switch between them over time (one-shot overlay, timed
crossfade, two-state transition with dedicated transition clips). Every tick
advances time once and evaluates each reachable node at most once, even when
it is shared by several parents. All arithmetic is fixed point, so a graph fed
the same inputs yields bit-identical poses on every machine.

# Usage

By default the Engine reads one node per document from a directory (Markdown
frontmatter, YAML or JSON, through Loam) and the clip library from
clips.yaml in the same directory:

	eng, err := posegraph.New("./character")
	if err != nil {
		log.Fatal(err)
	}

	for i := 0; i < 60; i++ {
		pose, err := eng.Tick(true, fixed.One)
		if err != nil {
			log.Fatal(err)
		}
		_ = pose // hand the tracks to the renderer
	}

	_ = eng.StartOverlay("wave")
	_ = eng.SetFlag("stance", true)

Graphs can also be built in code with pkg/dsl and injected with WithLoader and
WithClipLibrary.
*/
package posegraph

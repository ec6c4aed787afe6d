package runtime_test

import (
	"testing"

	"github.com/aretw0/posegraph/internal/runtime"
	"github.com/aretw0/posegraph/pkg/adapters/memory"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/aretw0/posegraph/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func library() *memory.ClipLibrary {
	return memory.NewClipLibrary(trackCount,
		ramp("walk", 8, 0),
		ramp("run", 6, 40),
		ramp("jump", 4, 80),
		ramp("enter", 5, 120),
		ramp("leave", 5, 160),
		ramp("poses", 3, -10),
	)
}

// fullGraph uses every node kind, with shared children.
func fullGraph() []domain.NodeDef {
	grid := map[string]string{}
	for i, slot := range domain.GridSlots {
		switch i % 3 {
		case 0:
			grid[slot] = "walk"
		case 1:
			grid[slot] = "run"
		default:
			grid[slot] = "lean"
		}
	}
	return []domain.NodeDef{
		{ID: "walk", Kind: domain.KindAnimation, Clip: "walk", Events: map[int][]string{3: {"foot_l"}, 7: {"foot_r"}}},
		{ID: "run", Kind: domain.KindAnimation, Clip: "run", Play: domain.PlayPingPong, Speed: fixed.MustParse("1.5")},
		{ID: "lean", Kind: domain.KindConstant, Clip: "poses", Frame: 2},
		{ID: "jump", Kind: domain.KindAnimation, Clip: "jump"},
		{ID: "enter", Kind: domain.KindAnimation, Clip: "enter"},
		{ID: "leave", Kind: domain.KindAnimation, Clip: "leave"},
		{ID: "axis", Kind: domain.KindAxis, Inputs: map[string]string{"mid": "walk", "high": "run", "low": "lean"}, Weight: fixed.MustParse("-0.3")},
		{ID: "grid", Kind: domain.KindGrid, Inputs: grid, Weight: fixed.MustParse("0.6"), WeightY: fixed.MustParse("-0.45")},
		{ID: "mix", Kind: domain.KindBinary, Inputs: map[string]string{"a": "axis", "b": "grid"}, Weight: fixed.MustParse("0.35")},
		{ID: "switch", Kind: domain.KindCrossfade, Inputs: map[string]string{"a": "mix", "b": "walk"}, SwitchTicks: 5},
		{ID: "wave", Kind: domain.KindOverlay, Inputs: map[string]string{"base": "switch", "shot": "jump"}, FadeTicks: 2},
		{ID: "root", Kind: domain.KindTransition, Inputs: map[string]string{"a": "wave", "b": "run", "a_to_b": "enter", "b_to_a": "leave"}, Window: fixed.MustParse("0.2")},
	}
}

func TestBuild_FullGraph(t *testing.T) {
	log := &eventLog{}
	tree, err := runtime.Build(fullGraph(), "root", library(), runtime.WithEventSink(log))
	require.NoError(t, err)

	assert.Equal(t, 12, tree.Len())
	assert.Len(t, tree.Leaves(), 6)

	root, err := tree.Node(tree.Root())
	require.NoError(t, err)
	assert.Equal(t, "root", root.Name())
	assert.Equal(t, domain.KindTransition, root.Kind())

	// Children come before parents.
	seen := map[runtime.Handle]bool{}
	for _, n := range tree.Nodes() {
		for _, c := range n.Children() {
			assert.True(t, seen[c], "%s built before its child", n.Name())
		}
		seen[n.Handle()] = true
	}

	jump, ok := tree.Lookup("jump")
	require.True(t, ok)
	assert.Equal(t, domain.PlayOnce, jump.(runtime.Leaf).PlayState())

	lean, _ := tree.Lookup("lean")
	out, err := tree.UpdateOutput(lean.Handle(), 1, true, fixed.One)
	require.NoError(t, err)
	assert.Equal(t, fixed.FromInt(-8), xOf(out))

	for i := 0; i < 8; i++ {
		_, err := tree.Advance(true, fixed.One)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"foot_l", "foot_r"}, log.names())
}

func TestBuild_Errors(t *testing.T) {
	_, err := runtime.Build(fullGraph(), "root", nil)
	assert.Error(t, err)

	defs := fullGraph()
	defs[6].Inputs = map[string]string{"mid": "walk", "high": "run"}
	_, err = runtime.Build(defs, "root", library())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingChild)
	assert.Len(t, schema.ValidationErrors(err), 1)

	_, err = runtime.Build(fullGraph(), "nowhere", library())
	assert.ErrorIs(t, err, domain.ErrUnknownNode)
}

// The single-track path must agree bit for bit with the full evaluation.
func TestSparseQueryMirrorsFullOutput(t *testing.T) {
	full, err := runtime.Build(fullGraph(), "root", library())
	require.NoError(t, err)
	sparse, err := runtime.Build(fullGraph(), "root", library())
	require.NoError(t, err)

	control := func(tree *runtime.Tree, stamp uint64) {
		n := func(name string) runtime.Node {
			node, ok := tree.Lookup(name)
			require.True(t, ok)
			return node
		}
		switch stamp {
		case 2:
			n("switch").(*runtime.Crossfade).SetFlag(true)
			n("wave").(*runtime.Overlay).Start()
		case 4:
			n("root").(*runtime.Transition).SetFlag(true)
		case 12:
			n("root").(*runtime.Transition).SetFlag(false)
		}
	}

	for stamp := uint64(1); stamp <= 20; stamp++ {
		control(full, stamp)
		control(sparse, stamp)

		whole, err := full.UpdateOutput(full.Root(), stamp, true, fixed.One)
		require.NoError(t, err)
		require.NoError(t, sparse.UpdateTick(sparse.Root(), stamp, true, fixed.One))

		for track := 0; track < trackCount; track++ {
			single, err := sparse.GetOutputTrack(sparse.Root(), stamp, track)
			require.NoError(t, err)
			assert.Equal(t, whole.Track(track), single, "stamp %d track %d", stamp, track)

			cached, err := full.GetOutputTrack(full.Root(), stamp, track)
			require.NoError(t, err)
			assert.Equal(t, whole.Track(track), cached)
		}
	}
}

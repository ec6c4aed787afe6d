package runtime_test

import (
	"testing"

	"github.com/aretw0/posegraph/internal/runtime"
	"github.com/aretw0/posegraph/pkg/blend"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinary_Boundaries(t *testing.T) {
	tree := runtime.NewTree(trackCount)
	a, err := tree.AddAnimation("a", ramp("a", 4, 0), domain.PlayLoop, 0)
	require.NoError(t, err)
	b, err := tree.AddAnimation("b", ramp("b", 4, 20), domain.PlayLoop, 0)
	require.NoError(t, err)
	mix, err := tree.AddBinary("mix", a.Handle(), b.Handle(), fixed.Zero)
	require.NoError(t, err)

	tests := []struct {
		weight fixed.Num
		want   runtime.Handle
	}{
		{fixed.Zero, a.Handle()},
		{fixed.One, b.Handle()},
		{fixed.FromInt(-4), a.Handle()},
		{fixed.FromInt(4), b.Handle()},
	}
	for i, tt := range tests {
		stamp := uint64(i + 1)
		mix.SetWeight(tt.weight)
		out, err := tree.UpdateOutput(mix.Handle(), stamp, true, fixed.One)
		require.NoError(t, err)
		child, err := tree.GetOutput(tt.want, stamp)
		require.NoError(t, err)
		assert.Equal(t, child, out, "weight %s", tt.weight)
	}

	mix.SetWeight(fixed.Half)
	out, err := tree.UpdateOutput(mix.Handle(), 10, true, fixed.One)
	require.NoError(t, err)
	assert.Equal(t, fixed.FromInt(10)+fixed.FromInt(a.Frame()), xOf(out))
}

func TestAxis_SignSymmetry(t *testing.T) {
	build := func() (*runtime.Tree, *runtime.Axis, *runtime.Binary, *runtime.Binary) {
		tree := runtime.NewTree(trackCount)
		mid, _ := tree.AddConstant("mid", at(fixed.FromInt(1), fixed.Zero))
		high, _ := tree.AddConstant("high", at(fixed.FromInt(9), fixed.One))
		low, _ := tree.AddConstant("low", at(fixed.FromInt(-7), fixed.NegOne))
		axis, err := tree.AddAxis("axis", mid.Handle(), high.Handle(), low.Handle(), fixed.Zero)
		require.NoError(t, err)
		up, err := tree.AddBinary("up", mid.Handle(), high.Handle(), fixed.Zero)
		require.NoError(t, err)
		down, err := tree.AddBinary("down", mid.Handle(), low.Handle(), fixed.Zero)
		require.NoError(t, err)
		return tree, axis, up, down
	}

	weights := []fixed.Num{
		fixed.Zero, fixed.Half, fixed.One, -fixed.Half, fixed.NegOne,
		fixed.FromRatio(1, 3), fixed.FromRatio(-2, 7), fixed.FromInt(3),
	}
	for i, w := range weights {
		tree, axis, up, down := build()
		stamp := uint64(i + 1)
		axis.SetWeight(w)

		got, err := tree.UpdateOutput(axis.Handle(), stamp, true, fixed.One)
		require.NoError(t, err)

		var want domain.PoseOutput
		switch {
		case axis.Weight() > 0:
			up.SetWeight(axis.Weight())
			want, err = tree.UpdateOutput(up.Handle(), stamp, true, fixed.One)
		case axis.Weight() < 0:
			down.SetWeight(axis.Weight().Abs())
			want, err = tree.UpdateOutput(down.Handle(), stamp, true, fixed.One)
		default:
			mid, _ := tree.Lookup("mid")
			want, err = tree.GetOutput(mid.Handle(), stamp)
		}
		require.NoError(t, err)
		assert.Equal(t, want, got, "weight %s", w)
	}
}

func TestAxis_TicksAllChildren(t *testing.T) {
	tree := runtime.NewTree(trackCount)
	mid, _ := tree.AddAnimation("mid", ramp("mid", 5, 0), domain.PlayLoop, 0)
	high, _ := tree.AddAnimation("high", ramp("high", 5, 0), domain.PlayLoop, 0)
	low, _ := tree.AddAnimation("low", ramp("low", 5, 0), domain.PlayLoop, 0)
	axis, err := tree.AddAxis("axis", mid.Handle(), high.Handle(), low.Handle(), fixed.Half)
	require.NoError(t, err)

	_, err = tree.UpdateOutput(axis.Handle(), 1, true, fixed.One)
	require.NoError(t, err)
	assert.Equal(t, 1, low.Frame(), "unused side still advances")
	assert.Equal(t, 1, high.Frame())
}

func gridTree(t *testing.T, b *countingBlender) (*runtime.Tree, *runtime.Grid) {
	t.Helper()
	tree := runtime.NewTree(trackCount, runtime.WithBlender(b))
	var slots [9]runtime.Handle
	for y := -1; y <= 1; y++ {
		for x := -1; x <= 1; x++ {
			c, err := tree.AddConstant("", at(fixed.FromInt(x), fixed.FromInt(y)))
			require.NoError(t, err)
			slots[(y+1)*3+(x+1)] = c.Handle()
		}
	}
	g, err := tree.AddGrid("grid", slots, fixed.Zero, fixed.Zero)
	require.NoError(t, err)
	return tree, g
}

func TestGrid_BilinearQuadrants(t *testing.T) {
	tree, g := gridTree(t, &countingBlender{PoseBlender: blend.NewLinear()})

	weights := [][2]fixed.Num{
		{fixed.Zero, fixed.Zero},
		{fixed.Half, fixed.Half},
		{-fixed.Half / 2, fixed.MustParse("0.75")},
		{fixed.Half, fixed.NegOne},
		{fixed.NegOne, fixed.NegOne},
		{fixed.FromRatio(-1, 3), fixed.FromRatio(2, 5)},
		{fixed.FromInt(2), fixed.FromInt(-2)},
	}
	for i, w := range weights {
		g.SetWeight(w[0], w[1])
		out, err := tree.UpdateOutput(g.Handle(), uint64(i+1), true, fixed.One)
		require.NoError(t, err)

		wx, wy := g.Weight()
		for track := 0; track < trackCount; track++ {
			assert.Equal(t, wx, out.Tracks[track].Translation.X, "x for %v", w)
			assert.Equal(t, wy, out.Tracks[track].Translation.Y, "y for %v", w)
			assert.Equal(t, domain.IdentityQuat, out.Tracks[track].Rotation)
		}
	}
}

func TestGrid_FailsFastOnMissingChild(t *testing.T) {
	b := &countingBlender{PoseBlender: blend.NewLinear()}
	tree := runtime.NewTree(trackCount, runtime.WithBlender(b))
	c, err := tree.AddConstant("c", at(fixed.Zero, fixed.Zero))
	require.NoError(t, err)

	for missing := range domain.GridSlots {
		var slots [9]runtime.Handle
		for i := range slots {
			slots[i] = c.Handle()
		}
		slots[missing] = runtime.NoHandle

		_, err := tree.AddGrid("", slots, fixed.Half, fixed.Half)
		require.ErrorIs(t, err, domain.ErrMissingChild)
		assert.Contains(t, err.Error(), domain.GridSlots[missing])
	}
	assert.Zero(t, b.calls, "no blend math before the configuration check")
	assert.Equal(t, 1, tree.Len())
}

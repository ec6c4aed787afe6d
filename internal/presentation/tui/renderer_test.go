package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/posegraph/internal/presentation/tui"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTable(t *testing.T) {
	got := tui.StatusTable("graph", []domain.NodeStatus{
		{ID: "walk", Kind: domain.KindAnimation, Clip: "walk", Frame: 3, Play: domain.PlayLoop, Speed: fixed.One},
		{ID: "mix", Kind: domain.KindBinary, Weight: fixed.Half},
		{ID: "wave", Kind: domain.KindOverlay, Armed: true, Weight: fixed.One},
		{ID: "door", Kind: domain.KindTransition, State: "transitioning", Flag: true},
	})

	assert.Contains(t, got, "## graph")
	assert.Contains(t, got, "| walk | animation | walk frame 3 (loop) x1 |")
	assert.Contains(t, got, "| mix | binary | weight 0.5 |")
	assert.Contains(t, got, "| wave | overlay | armed, fade 1 |")
	assert.Contains(t, got, "| door | transition | transitioning, to_b=true |")
}

func TestPoseTable(t *testing.T) {
	pose := domain.NewPose(2)
	pose.Mask = domain.NewTrackMask(1)
	pose.Tracks[1].Translation.X = fixed.MustParse("-0.25")

	got := tui.PoseTable(7, pose)
	assert.Contains(t, got, "### tick 7")
	assert.Contains(t, got, "| 1 | -0.25 0 0 | 0 0 0 1 | 1 1 1 |")
	assert.NotContains(t, got, "| 0 |")
}

func TestRenderer(t *testing.T) {
	render := tui.NewRenderer()
	out, err := render("# hello")
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|___/")
}

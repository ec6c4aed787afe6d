package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/posegraph/internal/testutils"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/aretw0/posegraph/pkg/ports"
	"github.com/aretw0/posegraph/pkg/replay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walkRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{
		"clips.yaml": testutils.ClipsYAML,
		"walk.md":    "---\nkind: animation\nclip: walk\nevents:\n  - {frame: 2, event: foot}\n---\n",
	})
	return dir
}

type jsonTick struct {
	Stamp  uint64              `json:"stamp"`
	Digest string              `json:"digest"`
	Events []domain.FrameEvent `json:"events"`
	Pose   struct {
		Tracks []struct {
			Translation struct {
				X json.Number `json:"x"`
			} `json:"translation"`
		} `json:"tracks"`
	} `json:"pose"`
}

func decodeTicks(t *testing.T, out *bytes.Buffer) []jsonTick {
	t.Helper()
	var ticks []jsonTick
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		var jt jsonTick
		require.NoError(t, json.Unmarshal(sc.Bytes(), &jt), sc.Text())
		ticks = append(ticks, jt)
	}
	return ticks
}

func TestParseScript(t *testing.T) {
	actions, err := ParseScript([]string{"3:start:wave", "1:weight:look=0.5,-1", "3:flag:mode=true", "1:speed:walk=2"})
	require.NoError(t, err)
	require.Len(t, actions, 4)

	assert.Equal(t, Action{Tick: 1, Op: "weight", Node: "look", Value: "0.5,-1"}, actions[0])
	assert.Equal(t, "speed", actions[1].Op)
	assert.Equal(t, "start", actions[2].Op, "order within a tick is kept")
	assert.Equal(t, "flag", actions[3].Op)
	assert.Equal(t, 3, lastTick(actions))

	x, y, twoD, err := actions[0].weights()
	require.NoError(t, err)
	assert.True(t, twoD)
	assert.Equal(t, fixed.Half, x)
	assert.Equal(t, fixed.FromInt(-1), y)
}

func TestParseScript_Errors(t *testing.T) {
	for _, entry := range []string{
		"start:wave",
		"0:start:wave",
		"x:start:wave",
		"1:start:",
		"1:jump:wave",
		"1:flag:mode=maybe",
		"1:weight:mix=1e2",
		"1:speed:walk=",
		"1:play:walk=backwards",
	} {
		_, err := ParseScript([]string{entry})
		assert.Error(t, err, entry)
	}
}

func TestExecute_JSON(t *testing.T) {
	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{RepoPath: walkRepo(t), Ticks: 3, JSON: true}, &out)
	require.NoError(t, err)

	ticks := decodeTicks(t, &out)
	require.Len(t, ticks, 3)
	for i, want := range []string{"1", "2", "3"} {
		assert.Equal(t, uint64(i+1), ticks[i].Stamp)
		assert.Equal(t, want, ticks[i].Pose.Tracks[0].Translation.X.String())
		assert.Len(t, ticks[i].Digest, 16)
	}
	assert.Empty(t, ticks[0].Events)
	assert.Equal(t, []domain.FrameEvent{{Stamp: 2, Node: "walk", Frame: 2, Event: "foot"}}, ticks[1].Events)
}

func TestExecute_ScriptSetsTickCount(t *testing.T) {
	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		RepoPath: walkRepo(t),
		JSON:     true,
		Script:   []string{"2:speed:walk=0.5"},
	}, &out)
	require.NoError(t, err)

	ticks := decodeTicks(t, &out)
	require.Len(t, ticks, 2)
	assert.Equal(t, "1", ticks[0].Pose.Tracks[0].Translation.X.String())
	// half speed from frame 1 lands on 1.5, which samples frame 1
	assert.Equal(t, "1", ticks[1].Pose.Tracks[0].Translation.X.String())
}

func TestExecute_Text(t *testing.T) {
	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{RepoPath: walkRepo(t), Ticks: 2}, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, ">>> Evaluating 'walk' (1 tracks).")
	assert.Contains(t, text, "### tick 1")
	assert.Contains(t, text, "| 0 | 2 0 0 | 0 0 0 1 | 1 1 1 |")
	assert.Contains(t, text, ">>> event 'foot' from walk at frame 2")
	assert.Contains(t, text, "digest ")
}

func TestExecute_Errors(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	assert.Error(t, Execute(ctx, RunOptions{RepoPath: walkRepo(t), Ticks: -1}, &out))
	assert.Error(t, Execute(ctx, RunOptions{RepoPath: walkRepo(t), Script: []string{"bad"}}, &out))
	assert.Error(t, Execute(ctx, RunOptions{RepoPath: walkRepo(t), Watch: true, JSON: true}, &out))
	assert.Error(t, Execute(ctx, RunOptions{RepoPath: t.TempDir()}, &out), "missing clips.yaml")
	assert.ErrorIs(t,
		Execute(ctx, RunOptions{RepoPath: walkRepo(t), Script: []string{"1:start:walk"}}, &out),
		domain.ErrWrongKind)
}

func TestExecute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	assert.NoError(t, Execute(ctx, RunOptions{RepoPath: walkRepo(t), Ticks: 5}, &out), "interruption exits cleanly")
}

func TestRecordAndVerify(t *testing.T) {
	ctx := context.Background()
	repo := walkRepo(t)
	store := StoreOptions{Path: t.TempDir()}
	record := func(id string, script ...string) {
		var out bytes.Buffer
		require.NoError(t, Execute(ctx, RunOptions{RepoPath: repo, Ticks: 4, Record: id, Store: store, Script: script}, &out))
		assert.Contains(t, out.String(), "Recorded 4 ticks as run '"+id+"'.")
	}
	record("first")
	record("second")
	record("fast", "1:speed:walk=2")

	var out bytes.Buffer
	require.NoError(t, Verify(ctx, store, "first", "second", &out))
	assert.Equal(t, "first vs second: identical (4 ticks)\n", out.String())

	out.Reset()
	err := Verify(ctx, store, "first", "fast", &out)
	assert.ErrorIs(t, err, replay.ErrDiverged)
	assert.Contains(t, out.String(), "tick 0:")

	assert.Error(t, Verify(ctx, store, "first", "missing", &out))

	out.Reset()
	require.NoError(t, ListRuns(ctx, store, &out))
	assert.Equal(t, "- fast (4 ticks)\n- first (4 ticks)\n- second (4 ticks)\n", out.String())

	require.NoError(t, DeleteRun(ctx, store, "fast"))
	out.Reset()
	require.NoError(t, ListRuns(ctx, store, &out))
	assert.NotContains(t, out.String(), "fast")
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	_, _, err := OpenStore(StoreOptions{Backend: "s3"})
	assert.Error(t, err)
}

func TestNewFactory(t *testing.T) {
	var sinks []string
	factory, err := NewFactory(FactoryOptions{
		RepoPath: walkRepo(t),
		Sink: func(actorID string) ports.EventSink {
			sinks = append(sinks, actorID)
			return nil
		},
	})
	require.NoError(t, err)

	a, err := factory("a")
	require.NoError(t, err)
	b, err := factory("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, sinks)

	_, err = a.Tick(true, fixed.One)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), a.Stamp())
	assert.Equal(t, uint64(0), b.Stamp(), "actors do not share state")
	assert.Equal(t, "walk", b.Root())

	_, err = NewFactory(FactoryOptions{RepoPath: t.TempDir()})
	assert.Error(t, err)
}

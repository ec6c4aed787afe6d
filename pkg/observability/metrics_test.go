package observability_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	h := m.Hooks()

	ev := &domain.NodeEvent{Stamp: 1, NodeID: "mix", Kind: domain.KindBinary, Run: true}
	h.OnNodeTick(ev)
	h.OnNodeCompute(ev)
	h.OnCacheHit(ev)
	h.OnCacheHit(ev)
	h.OnFrameEvent(&domain.FrameEvent{Stamp: 1, Node: "walk", Frame: 3, Event: "foot_l"})
	h.OnStateChange(&domain.StateEvent{Stamp: 1, NodeID: "wave", Kind: domain.KindOverlay, State: "armed"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeTicks.WithLabelValues("mix", "binary")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeComputes.WithLabelValues("mix", "binary")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("mix", "binary")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FrameEvents.WithLabelValues("walk", "foot_l")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StateChanges.WithLabelValues("wave", "armed")))

	count, err := testutil.GatherAndCount(reg, "posegraph_cache_hits_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_ObserveTick(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	boom := errors.New("boom")
	assert.NoError(t, m.ObserveTick(func() error { return nil }))
	assert.ErrorIs(t, m.ObserveTick(func() error { return boom }), boom)

	count, err := testutil.GatherAndCount(reg, "posegraph_tick_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewMetrics_Unregistered(t *testing.T) {
	assert.NotPanics(t, func() {
		observability.NewMetrics(nil)
		observability.NewMetrics(nil)
	})
}

func TestChain(t *testing.T) {
	var order []string
	a := domain.LifecycleHooks{OnFrameEvent: func(*domain.FrameEvent) { order = append(order, "a") }}
	b := domain.LifecycleHooks{
		OnFrameEvent: func(*domain.FrameEvent) { order = append(order, "b") },
		OnNodeTick:   func(*domain.NodeEvent) { order = append(order, "tick") },
	}

	h := observability.Chain(a, domain.LifecycleHooks{}, b)
	h.OnFrameEvent(&domain.FrameEvent{})
	h.OnNodeTick(&domain.NodeEvent{})

	assert.Equal(t, []string{"a", "b", "tick"}, order)
	assert.Nil(t, h.OnStateChange)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	h := observability.LogHooks(logger)

	h.OnNodeTick(&domain.NodeEvent{NodeID: "quiet"})
	h.OnFrameEvent(&domain.FrameEvent{Node: "walk", Frame: 3, Event: "foot_l"})

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "frame_event")
	assert.Contains(t, out, "event=foot_l")
}

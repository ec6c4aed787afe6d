package observability

import (
	"time"

	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the evaluation counters of one or more graphs.
type Metrics struct {
	NodeTicks    *prometheus.CounterVec
	NodeComputes *prometheus.CounterVec
	CacheHits    *prometheus.CounterVec
	FrameEvents  *prometheus.CounterVec
	StateChanges *prometheus.CounterVec
	TickDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodeTicks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "posegraph_node_ticks_total",
				Help: "Nodes ticked, once per stamp",
			},
			[]string{"node_id", "kind"},
		),
		NodeComputes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "posegraph_node_computes_total",
				Help: "Node outputs computed (cache misses)",
			},
			[]string{"node_id", "kind"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "posegraph_cache_hits_total",
				Help: "Node outputs served from the per-stamp cache",
			},
			[]string{"node_id", "kind"},
		),
		FrameEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "posegraph_frame_events_total",
				Help: "Frame events emitted by animation leaves",
			},
			[]string{"node_id", "event"},
		),
		StateChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "posegraph_state_changes_total",
				Help: "Mode changes of overlay, crossfade and transition nodes",
			},
			[]string{"node_id", "state"},
		),
		TickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "posegraph_tick_duration_seconds",
				Help:    "Wall time of one tick plus output evaluation",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.NodeTicks, m.NodeComputes, m.CacheHits, m.FrameEvents, m.StateChanges, m.TickDuration)
	}
	return m
}

// Hooks returns lifecycle hooks feeding the counters.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeTick: func(e *domain.NodeEvent) {
			m.NodeTicks.WithLabelValues(e.NodeID, string(e.Kind)).Inc()
		},
		OnNodeCompute: func(e *domain.NodeEvent) {
			m.NodeComputes.WithLabelValues(e.NodeID, string(e.Kind)).Inc()
		},
		OnCacheHit: func(e *domain.NodeEvent) {
			m.CacheHits.WithLabelValues(e.NodeID, string(e.Kind)).Inc()
		},
		OnFrameEvent: func(e *domain.FrameEvent) {
			m.FrameEvents.WithLabelValues(e.Node, e.Event).Inc()
		},
		OnStateChange: func(e *domain.StateEvent) {
			m.StateChanges.WithLabelValues(e.NodeID, e.State).Inc()
		},
	}
}

// ObserveTick times fn and records its duration.
func (m *Metrics) ObserveTick(fn func() error) error {
	start := time.Now()
	err := fn()
	m.TickDuration.Observe(time.Since(start).Seconds())
	return err
}

package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/posegraph/pkg/domain"
)

// LogHooks logs frame events and state changes at Info, and per-node
// evaluation at Debug.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	ctx := context.Background()
	node := func(msg string) func(*domain.NodeEvent) {
		return func(e *domain.NodeEvent) {
			if !logger.Enabled(ctx, slog.LevelDebug) {
				return
			}
			logger.Debug(msg, "stamp", e.Stamp, "node_id", e.NodeID, "kind", e.Kind, "run", e.Run)
		}
	}
	return domain.LifecycleHooks{
		OnNodeTick:    node("node_tick"),
		OnNodeCompute: node("node_compute"),
		OnCacheHit:    node("cache_hit"),
		OnFrameEvent: func(e *domain.FrameEvent) {
			logger.Info("frame_event", "stamp", e.Stamp, "node_id", e.Node, "frame", e.Frame, "event", e.Event)
		},
		OnStateChange: func(e *domain.StateEvent) {
			logger.Info("state_change", "stamp", e.Stamp, "node_id", e.NodeID, "kind", e.Kind, "state", e.State)
		},
	}
}

// Chain fans every callback out to all given hook sets, in order.
func Chain(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnNodeTick = chain(out.OnNodeTick, h.OnNodeTick)
		out.OnNodeCompute = chain(out.OnNodeCompute, h.OnNodeCompute)
		out.OnCacheHit = chain(out.OnCacheHit, h.OnCacheHit)
		out.OnFrameEvent = chain(out.OnFrameEvent, h.OnFrameEvent)
		out.OnStateChange = chain(out.OnStateChange, h.OnStateChange)
	}
	return out
}

func chain[E any](a, b func(*E)) func(*E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(e *E) {
		a(e)
		b(e)
	}
}

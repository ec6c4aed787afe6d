package domain

// FrameEvent is emitted when an animation leaf lands on a frame with registered events.
type FrameEvent struct {
	Stamp uint64 `json:"stamp"`
	Node  string `json:"node"`
	Frame int    `json:"frame"`
	Event string `json:"event"`
}

// NodeEvent describes one evaluation step of a node.
type NodeEvent struct {
	Stamp  uint64   `json:"stamp"`
	NodeID string   `json:"node_id"`
	Kind   NodeKind `json:"kind"`
	Run    bool     `json:"run,omitempty"`
}

// StateEvent describes a change of a stateful node's mode, e.g. an overlay
// arming or a transition settling on its target state.
type StateEvent struct {
	Stamp  uint64   `json:"stamp"`
	NodeID string   `json:"node_id"`
	Kind   NodeKind `json:"kind"`
	State  string   `json:"state"`
}

// LifecycleHooks defines callbacks for graph observability.
// Hooks run synchronously inside the evaluation pass and must not call back into the graph.
type LifecycleHooks struct {
	OnNodeTick    func(*NodeEvent)
	OnNodeCompute func(*NodeEvent)
	OnCacheHit    func(*NodeEvent)
	OnFrameEvent  func(*FrameEvent)
	OnStateChange func(*StateEvent)
}

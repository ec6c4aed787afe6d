package ports

import "context"

// GraphLoader defines how the engine retrieves node definitions.
// This allows the storage layer (Loam, FS, Memory) to be decoupled.
type GraphLoader interface {
	// GetNode retrieves the raw definition of a node by ID.
	// It returns the raw bytes (which the compiler will parse) or an error.
	GetNode(id string) ([]byte, error)

	// ListNodes returns the IDs of all nodes available in the graph.
	// This is used to build the whole graph and by introspection tools (e.g. 'posegraph graph').
	ListNodes() ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying graph changes.
	Watch(ctx context.Context) (<-chan string, error)
}

package posegraph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/loam"
	"github.com/aretw0/posegraph/internal/compiler"
	"github.com/aretw0/posegraph/internal/runtime"
	"github.com/aretw0/posegraph/pkg/adapters/file"
	loamAdapter "github.com/aretw0/posegraph/pkg/adapters/loam"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/aretw0/posegraph/pkg/ports"
)

// DefaultRoot is the node evaluated when no root is configured and the
// graph has a node with this id.
const DefaultRoot = "root"

// Engine is the high-level entry point for the posegraph library.
// It compiles a graph from a loader and a clip library and evaluates it
// tick by tick. An Engine is not safe for concurrent use; see pkg/session.
type Engine struct {
	tree    *runtime.Tree
	loader  ports.GraphLoader
	clips   ports.ClipLibrary
	defs    []domain.NodeDef
	root    string
	blender ports.PoseBlender
	sink    ports.EventSink
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	Name    string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a custom GraphLoader, bypassing the default Loam initialization.
func WithLoader(l ports.GraphLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithClipLibrary injects the clip library, bypassing clips.yaml.
func WithClipLibrary(c ports.ClipLibrary) Option {
	return func(e *Engine) {
		e.clips = c
	}
}

// WithBlender replaces the default linear pose blender.
func WithBlender(b ports.PoseBlender) Option {
	return func(e *Engine) {
		e.blender = b
	}
}

// WithEventSink receives frame events as they are emitted.
func WithEventSink(s ports.EventSink) Option {
	return func(e *Engine) {
		e.sink = s
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRoot selects the node evaluated by Tick.
func WithRoot(nodeID string) Option {
	return func(e *Engine) {
		e.root = nodeID
	}
}

// New initializes a new Engine.
// By default, it reads node documents from a Loam repository at repoPath and
// the clip library from repoPath/clips.yaml. With WithLoader and
// WithClipLibrary, repoPath can be empty.
func New(repoPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if repoPath != "" {
		absPath, err := filepath.Abs(repoPath)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(absPath)
		repoPath = absPath
	}

	if eng.loader == nil {
		if repoPath == "" {
			return nil, fmt.Errorf("repoPath is required when no custom loader is provided")
		}
		// Strict mode makes every adapter return json.Number; the engine never writes.
		repo, err := loam.Init(repoPath,
			loam.WithStrict(true),
			loam.WithReadOnly(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize loam: %w", err)
		}
		eng.loader = loamAdapter.New(loam.NewTypedRepository[loamAdapter.NodeMetadata](repo))
	}

	if eng.clips == nil {
		if repoPath == "" {
			return nil, fmt.Errorf("repoPath is required when no clip library is provided")
		}
		lib, err := file.LoadClips(filepath.Join(repoPath, file.DefaultClipsFile))
		if err != nil {
			return nil, err
		}
		eng.clips = lib
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("graph", eng.Name)
	}

	if err := eng.Reload(); err != nil {
		return nil, err
	}
	return eng, nil
}

// Reload re-reads every node from the loader and rebuilds the graph.
// Playback state and the tick stamp start over. On error the previous graph
// stays in place.
func (e *Engine) Reload() error {
	defs, err := compiler.NewParser().LoadAll(e.loader)
	if err != nil {
		return err
	}

	root := e.root
	if root == "" {
		if root, err = InferRoot(defs); err != nil {
			return err
		}
	}

	opts := []runtime.Option{
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithLogger(e.logger),
	}
	if e.blender != nil {
		opts = append(opts, runtime.WithBlender(e.blender))
	}
	if e.sink != nil {
		opts = append(opts, runtime.WithEventSink(e.sink))
	}

	tree, err := runtime.Build(defs, root, e.clips, opts...)
	if err != nil {
		return err
	}

	e.tree, e.defs, e.root = tree, defs, root
	e.logger.Info("graph loaded", "nodes", len(defs), "root", root, "tracks", e.clips.TrackCount())
	return nil
}

// InferRoot picks the evaluation root of a graph: the node named "root" if
// present, otherwise the only node no other node references.
func InferRoot(defs []domain.NodeDef) (string, error) {
	referenced := make(map[string]bool)
	for _, d := range defs {
		if d.ID == DefaultRoot {
			return DefaultRoot, nil
		}
		for _, ref := range d.Inputs {
			referenced[ref] = true
		}
	}

	var candidates []string
	for _, d := range defs {
		if !referenced[d.ID] {
			candidates = append(candidates, d.ID)
		}
	}
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return "", fmt.Errorf("cannot infer root: every node is referenced")
	}
	return "", fmt.Errorf("cannot infer root: %d unreferenced nodes %v, set one explicitly", len(candidates), candidates)
}

// Tick advances the graph by step and returns the root pose.
// run=false resets the leaves reached by the pass.
func (e *Engine) Tick(run bool, step fixed.Num) (domain.PoseOutput, error) {
	return e.tree.Advance(run, step)
}

// Output returns the root pose of the last tick without advancing time.
func (e *Engine) Output() (domain.PoseOutput, error) {
	h, err := e.handle(e.root)
	if err != nil {
		return domain.PoseOutput{}, err
	}
	return e.tree.GetOutput(h, e.tree.Stamp())
}

// QueryTrack evaluates one track of the root pose for the last tick.
func (e *Engine) QueryTrack(track int) (domain.SingleTrackOutput, error) {
	return e.QueryNodeTrack(e.root, track)
}

// QueryNodeTrack evaluates one track of any node for the last tick.
func (e *Engine) QueryNodeTrack(nodeID string, track int) (domain.SingleTrackOutput, error) {
	h, err := e.handle(nodeID)
	if err != nil {
		return domain.SingleTrackOutput{}, err
	}
	return e.tree.GetOutputTrack(h, e.tree.Stamp(), track)
}

// Stamp returns the stamp of the last tick, 0 before the first one.
func (e *Engine) Stamp() uint64 { return e.tree.Stamp() }

// Root returns the id of the evaluated node.
func (e *Engine) Root() string { return e.root }

// TrackCount returns the number of tracks of every pose.
func (e *Engine) TrackCount() int { return e.tree.TrackCount() }

// ResetLeaves rewinds every leaf of the graph.
func (e *Engine) ResetLeaves() { e.tree.ResetLeaves() }

// Definitions returns the node definitions the graph was built from.
func (e *Engine) Definitions() []domain.NodeDef {
	out := make([]domain.NodeDef, len(e.defs))
	copy(out, e.defs)
	return out
}

// Watch returns a channel that signals when the underlying graph changes.
// Returns error if the loader does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	if w, ok := e.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current loader does not support watching")
}

// Loader returns the underlying GraphLoader used by the engine.
func (e *Engine) Loader() ports.GraphLoader {
	return e.loader
}

// Clips returns the clip library used by the engine.
func (e *Engine) Clips() ports.ClipLibrary {
	return e.clips
}

func (e *Engine) handle(nodeID string) (runtime.Handle, error) {
	n, ok := e.tree.Lookup(nodeID)
	if !ok {
		return runtime.NoHandle, fmt.Errorf("%w: %q", domain.ErrUnknownNode, nodeID)
	}
	return n.Handle(), nil
}

package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/posegraph"
	"github.com/aretw0/posegraph/pkg/domain"
	"github.com/aretw0/posegraph/pkg/observability"
	"github.com/aretw0/posegraph/pkg/ports"
	"github.com/aretw0/posegraph/pkg/session"
)

// createEngine initializes an engine with standard CLI conventions.
func createEngine(repoPath, root string, logger *slog.Logger, hooks domain.LifecycleHooks, sink ports.EventSink) (*posegraph.Engine, error) {
	engineOpts := []posegraph.Option{
		posegraph.WithLogger(logger),
		posegraph.WithLifecycleHooks(hooks),
	}
	if sink != nil {
		engineOpts = append(engineOpts, posegraph.WithEventSink(sink))
	}
	if root != "" {
		engineOpts = append(engineOpts, posegraph.WithRoot(root))
	}

	engine, err := posegraph.New(repoPath, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}

// FactoryOptions configures the engines built for spawned actors.
type FactoryOptions struct {
	RepoPath string
	Root     string
	Debug    bool
	Metrics  *observability.Metrics
	// Sink returns the event sink of an actor, or nil.
	Sink func(actorID string) ports.EventSink
}

// NewFactory loads the graph once and returns a session factory that builds
// an independent engine per actor from the same definitions and clips.
func NewFactory(opts FactoryOptions) (session.Factory, error) {
	logger := createLogger(opts.Debug)
	template, err := createEngine(opts.RepoPath, opts.Root, logger, domain.LifecycleHooks{}, nil)
	if err != nil {
		return nil, err
	}

	hooks := createDebugHooks(logger, opts.Debug)
	if opts.Metrics != nil {
		hooks = observability.Chain(hooks, opts.Metrics.Hooks())
	}

	return func(actorID string) (*posegraph.Engine, error) {
		engineOpts := []posegraph.Option{
			posegraph.WithLoader(template.Loader()),
			posegraph.WithClipLibrary(template.Clips()),
			posegraph.WithRoot(template.Root()),
			posegraph.WithLogger(logger.With("actor_id", actorID)),
			posegraph.WithLifecycleHooks(hooks),
		}
		if opts.Sink != nil {
			if sink := opts.Sink(actorID); sink != nil {
				engineOpts = append(engineOpts, posegraph.WithEventSink(sink))
			}
		}
		return posegraph.New("", engineOpts...)
	}, nil
}

// Load builds an engine for read-only commands such as validate, graph and inspect.
func Load(repoPath, root string, debug bool) (*posegraph.Engine, error) {
	logger := createLogger(debug)
	return createEngine(repoPath, root, logger, createDebugHooks(logger, debug), nil)
}

package cli

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/posegraph/internal/presentation/tui"
)

// RunWatch evaluates the graph in development mode, rebuilding it and
// running the ticks again whenever a graph document or clips.yaml changes.
func RunWatch(ctx context.Context, opts RunOptions, script []Action, out io.Writer) error {
	logger := createLogger(opts.Debug)
	if opts.Pretty {
		tui.PrintBanner(out)
	}

	logger.Info("Starting Watcher", "path", opts.RepoPath)
	for {
		if !runWatchIteration(ctx, opts, script, out, logger) {
			return nil
		}
		logger.Info("Watcher restarting")
	}
}

func runWatchIteration(ctx context.Context, opts RunOptions, script []Action, out io.Writer, logger *slog.Logger) bool {
	// Cancelled on reload without cancelling the parent signal context.
	iterCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := &eventBuffer{}
	engine, err := createEngine(opts.RepoPath, opts.Root, logger, createDebugHooks(logger, opts.Debug), events)
	if err != nil {
		logger.Error("Engine initialization failed", "err", err)
		printSystemMessage(out, "Graph failed to load: %v", err)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(2 * time.Second):
			return true
		}
	}

	watchCh, err := engine.Watch(iterCtx)
	if err != nil {
		logger.Warn("Hot reload unavailable", "err", err)
	}

	if err := evaluate(iterCtx, engine, opts, script, nil, events, newPrinter(out, opts)); err != nil && !isInterrupted(err) {
		printSystemMessage(out, "Evaluation failed: %v", err)
	}
	if watchCh == nil {
		return false
	}

	printSystemMessage(out, "Waiting for changes...")
	select {
	case <-ctx.Done():
		logger.Info("Stopping watcher")
		return false
	case event, ok := <-watchCh:
		if !ok {
			return false
		}
		logger.Info("Change detected, triggering reload", "event", event)
		printSystemMessage(out, "Change detected in '%s'.", event)
		// Delay slightly to ensure file system is stable
		time.Sleep(100 * time.Millisecond)
		return true
	}
}

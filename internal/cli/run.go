package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/posegraph/pkg/fixed"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	RepoPath string
	Root     string
	Ticks    int
	Step     fixed.Num
	// Script holds control actions as "TICK:OP:NODE[=VALUE]".
	Script []string
	JSON   bool
	// Pretty renders pose tables through glamour.
	Pretty bool
	Watch  bool
	Debug  bool
	// Record stores the digest of every tick under this run id.
	Record string
	Store  StoreOptions
}

// Execute handles the 'run' command logic, dispatching to Session or Watch mode.
func Execute(ctx context.Context, opts RunOptions, out io.Writer) error {
	if opts.Ticks < 0 {
		return fmt.Errorf("--ticks must not be negative")
	}
	if opts.Step == 0 {
		opts.Step = fixed.One
	}
	script, err := ParseScript(opts.Script)
	if err != nil {
		return err
	}

	if opts.Watch {
		if opts.JSON {
			return fmt.Errorf("--watch and --json cannot be used together")
		}
		return RunWatch(ctx, opts, script, out)
	}
	return RunSession(ctx, opts, script, out)
}

package main

import (
	"context"
	"os"

	"github.com/aretw0/posegraph/internal/cli"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Evaluate the graph for a number of ticks",
	Long: `Builds the graph and prints the root pose of every tick.

Controls can be scripted with --at TICK:OP:NODE[=VALUE], applied right before
that tick is evaluated:

  --at 3:start:wave          arm an overlay
  --at 6:stop:wave           disarm it
  --at 2:flag:mode=true      steer a crossfade or transition toward B
  --at 1:weight:mix=0.25     set a blend weight (x or x,y for a grid)
  --at 4:speed:walk=1.5      change an animation's playback rate
  --at 4:play:walk=once      change an animation's play state`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ticks, _ := cmd.Flags().GetInt("ticks")
		stepText, _ := cmd.Flags().GetString("step")
		script, _ := cmd.Flags().GetStringArray("at")
		jsonMode, _ := cmd.Flags().GetBool("json")
		plain, _ := cmd.Flags().GetBool("plain")
		watchMode, _ := cmd.Flags().GetBool("watch")
		record, _ := cmd.Flags().GetString("record")

		step, err := fixed.Parse(stepText)
		if err != nil {
			return err
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		return cli.Execute(ctx, cli.RunOptions{
			RepoPath: repoPath(cmd, args),
			Root:     rootNode(cmd),
			Ticks:    ticks,
			Step:     step,
			Script:   script,
			JSON:     jsonMode,
			Pretty:   !plain && !jsonMode && cli.IsTerminal(os.Stdout),
			Watch:    watchMode,
			Debug:    debugEnabled(cmd),
			Record:   record,
			Store:    storeOptions(cmd),
		}, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntP("ticks", "n", 0, "Number of ticks to evaluate (default: up to the last scripted tick, at least 1)")
	runCmd.Flags().String("step", "1", "Frames advanced per tick, as a decimal")
	runCmd.Flags().StringArray("at", nil, "Scripted control TICK:OP:NODE[=VALUE] (repeatable)")
	runCmd.Flags().Bool("json", false, "Print one JSON object per tick (NDJSON)")
	runCmd.Flags().Bool("plain", false, "Print raw markdown tables even on a terminal")
	runCmd.Flags().BoolP("watch", "w", false, "Re-run on every change to the graph directory")
	runCmd.Flags().String("record", "", "Record tick digests under this run id")
	addStoreFlags(runCmd)
}

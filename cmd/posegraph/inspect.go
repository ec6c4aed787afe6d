package main

import (
	"fmt"
	"os"

	"github.com/aretw0/posegraph/internal/cli"
	"github.com/aretw0/posegraph/internal/presentation/tui"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [dir]",
	Short: "Show the state of every node",
	RunE: func(cmd *cobra.Command, args []string) error {
		ticks, _ := cmd.Flags().GetInt("ticks")
		plain, _ := cmd.Flags().GetBool("plain")

		eng, err := cli.Load(repoPath(cmd, args), rootNode(cmd), debugEnabled(cmd))
		if err != nil {
			return err
		}
		for i := 0; i < ticks; i++ {
			if _, err := eng.Tick(true, fixed.One); err != nil {
				return err
			}
		}

		md := tui.StatusTable(fmt.Sprintf("%s at tick %d", eng.Root(), eng.Stamp()), eng.Inspect())
		if !plain && cli.IsTerminal(os.Stdout) {
			if rendered, err := tui.NewRenderer()(md); err == nil {
				md = rendered
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntP("ticks", "n", 0, "Ticks to evaluate before inspecting")
	inspectCmd.Flags().Bool("plain", false, "Print the raw markdown table")
}

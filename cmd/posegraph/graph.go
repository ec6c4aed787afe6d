package main

import (
	"fmt"

	"github.com/aretw0/posegraph/internal/cli"
	"github.com/aretw0/posegraph/internal/presentation/graph"
	"github.com/aretw0/posegraph/pkg/fixed"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [dir]",
	Short: "Export the graph as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart (graph TD) of the node definitions. With --ticks,
the graph is evaluated first and the nodes driving their second input are
highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ticks, _ := cmd.Flags().GetInt("ticks")

		eng, err := cli.Load(repoPath(cmd, args), rootNode(cmd), debugEnabled(cmd))
		if err != nil {
			return err
		}
		for i := 0; i < ticks; i++ {
			if _, err := eng.Tick(true, fixed.One); err != nil {
				return err
			}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(eng.Definitions(), &graph.GraphOverlay{
			Root:   eng.Root(),
			Active: graph.ActiveNodes(eng.Inspect()),
		}))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().IntP("ticks", "n", 0, "Ticks to evaluate before drawing")
}

package main

import (
	"fmt"

	"github.com/aretw0/posegraph/internal/cli"
	"github.com/aretw0/posegraph/pkg/schema"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check the graph for consistency",
	Long: `Loads every node document and the clip library, and reports unknown kinds,
missing or dangling children, cycles and bad clip references.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := cli.Load(repoPath(cmd, args), rootNode(cmd), debugEnabled(cmd))
		if err != nil {
			errs := schema.ValidationErrors(err)
			if len(errs) > 1 {
				for _, e := range errs {
					fmt.Fprintf(cmd.ErrOrStderr(), "- %v\n", e)
				}
				return fmt.Errorf("validation failed: %d problems", len(errs))
			}
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Graph is valid: %d nodes, root '%s', %d tracks.\n",
			len(eng.Definitions()), eng.Root(), eng.TrackCount())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

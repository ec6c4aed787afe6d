package main

import (
	"fmt"

	"github.com/aretw0/posegraph/internal/cli"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <run-a> <run-b>",
	Short: "Check that two recorded runs produced identical poses",
	Long: `Compares the per-tick pose digests of two runs recorded with 'run --record'
or 'serve --record', and reports the first tick where they differ.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Verify(cmd.Context(), storeOptions(cmd), args[0], args[1], cmd.OutOrStdout())
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage recorded runs",
}

var runsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ListRuns(cmd.Context(), storeOptions(cmd), cmd.OutOrStdout())
	},
}

var runsRmCmd = &cobra.Command{
	Use:   "rm <run-id>...",
	Short: "Remove recorded runs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			if err := cli.DeleteRun(cmd.Context(), storeOptions(cmd), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Run '%s' removed.\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsLsCmd, runsRmCmd)

	addStoreFlags(verifyCmd)
	addStoreFlags(runsLsCmd)
	addStoreFlags(runsRmCmd)
}

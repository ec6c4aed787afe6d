package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/posegraph"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of posegraph",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("posegraph version %s\n", strings.TrimSpace(posegraph.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/posegraph/internal/cli"
	"github.com/aretw0/posegraph/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "posegraph",
	Short: "posegraph evaluates animation pose graphs",
	Long: `posegraph builds a blend tree of animation nodes from Markdown, YAML or JSON
documents plus a clips.yaml library, and evaluates it tick by tick in
deterministic fixed-point arithmetic.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing the graph documents and clips.yaml")
	rootCmd.PersistentFlags().String("root", "", "Root node id (default: 'root' or the single unreferenced node)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level written to stderr: debug, info, warn or error")
}

// repoPath resolves the graph directory from --dir or the first argument.
func repoPath(cmd *cobra.Command, args []string) string {
	dir, _ := cmd.Flags().GetString("dir")
	if !cmd.Flags().Changed("dir") && len(args) > 0 {
		dir = args[0]
	}
	return dir
}

func rootNode(cmd *cobra.Command) string {
	root, _ := cmd.Flags().GetString("root")
	return root
}

func debugEnabled(cmd *cobra.Command) bool {
	level, _ := cmd.Flags().GetString("log-level")
	lvl, err := logging.ParseLevel(level)
	return err == nil && level != "" && lvl <= slog.LevelDebug
}

// newLogger builds the stderr logger of long-running commands. Without
// --log-level it logs at info.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.New(lvl), nil
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", "file", "Digest store backend: 'file' or 'redis'")
	cmd.Flags().String("store-dir", "", "Run directory of the file store (default .posegraph/runs)")
	cmd.Flags().String("redis-addr", "localhost:6379", "Redis address")
	cmd.Flags().String("redis-password", "", "Redis password")
	cmd.Flags().Int("redis-db", 0, "Redis database")
	cmd.Flags().Duration("ttl", 0, "Expiry of recorded runs in Redis (0 keeps them)")
}

func storeOptions(cmd *cobra.Command) cli.StoreOptions {
	var o cli.StoreOptions
	o.Backend, _ = cmd.Flags().GetString("store")
	o.Path, _ = cmd.Flags().GetString("store-dir")
	o.RedisAddr, _ = cmd.Flags().GetString("redis-addr")
	o.RedisPassword, _ = cmd.Flags().GetString("redis-password")
	o.RedisDB, _ = cmd.Flags().GetInt("redis-db")
	o.TTL, _ = cmd.Flags().GetDuration("ttl")
	return o
}

// tacmap analyzes grid-world game maps: it decomposes terrain into navigable
// regions, choke points and ramps, and answers tactical queries about them.
//
// Usage:
//
//	tacmap analyze <map.yaml>          - Decompose a map and save the snapshot
//	tacmap inspect <map.yaml>          - Show the saved decomposition
//	tacmap path <map.yaml> x,y x,y     - Find a cell path between two cells
//	tacmap runs                        - List recent analysis runs
//
// Global flags:
//
//	--config <path>     - Config file (default: search order, then embedded)
//	--db <path>         - Run index database (default: ~/.tacmap/runs.db)
//	--snapshots <path>  - Snapshot directory (default: ~/.tacmap/snapshots)
//	--verbose           - Debug logging
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/anvoron/tacmap/internal/config"
)

var (
	// Global flags
	flagConfig    string
	flagDBPath    string
	flagSnapshots string
	flagVerbose   bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tacmap",
	Short: "Tactical map analysis for grid-world game agents",
	Long: `tacmap converts a raw walkability grid into a graph of navigable regions
connected through choke points and ramps, caches paths between cells, and
scores regions for force, value and threat.

Available commands:
  analyze  - Decompose a map and persist the snapshot
  inspect  - Show a saved decomposition
  path     - Find a walkable cell path between two cells
  runs     - List recent analysis runs

Examples:
  tacmap analyze maps/highlands.yaml
  tacmap inspect maps/highlands.yaml
  tacmap path maps/highlands.yaml 3,4 27,18
  tacmap runs`,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.tacmap/runs.db", "Path to run index database")
	rootCmd.PersistentFlags().StringVar(&flagSnapshots, "snapshots", "", "Snapshot directory (default: ~/.tacmap/snapshots)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Debug logging")

	// Add subcommands
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(runsCmd)
}

// newLogger builds the CLI logger; all diagnostics go to stderr so command
// output stays parseable.
func newLogger() *log.Logger {
	opts := log.Options{Prefix: "tacmap"}
	if flagVerbose {
		opts.Level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, opts)
}

// loadConfig resolves the effective config, falling back to the embedded
// defaults when no file is found.
func loadConfig(logger *log.Logger) config.Config {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		logger.Warn("cannot load config, using defaults", "err", err)
		return config.DefaultConfig()
	}
	return cfg
}

// snapshotDir resolves the snapshot directory flag, defaulting under the
// user's home.
func snapshotDir() string {
	if flagSnapshots != "" {
		return flagSnapshots
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "snapshots"
	}
	return filepath.Join(home, ".tacmap", "snapshots")
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anvoron/tacmap/internal/storage"
)

var flagRunsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent analysis runs",
	Long: `Show the most recent map analysis runs recorded in the run index.

Examples:
  tacmap runs
  tacmap runs --limit 5`,
	Run: runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 20, "Maximum number of runs to show")
}

func runRuns(cmd *cobra.Command, args []string) {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening run index: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	runs, err := store.RecentRuns(flagRunsLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving runs: %v\n", err)
		os.Exit(1)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Run 'tacmap analyze <map.yaml>' to record the first one.")
		return
	}

	// Calculate column width for map ids
	maxIDLen := 3 // "MAP" header
	for _, r := range runs {
		if len(r.MapID) > maxIDLen {
			maxIDLen = len(r.MapID)
		}
	}

	fmt.Printf("  %-*s  %-7s  %-5s  %-6s  %-5s  %-8s  %s\n", maxIDLen, "MAP", "REGIONS", "RAMPS", "CHOKES", "NOISE", "DURATION", "WHEN")
	fmt.Printf("  %-*s  %-7s  %-5s  %-6s  %-5s  %-8s  %s\n", maxIDLen, "---", "-------", "-----", "------", "-----", "--------", "----")
	for _, r := range runs {
		fmt.Printf("  %-*s  %-7d  %-5d  %-6d  %-5d  %-8s  %s\n",
			maxIDLen, r.MapID, r.Regions, r.Ramps, r.ChokePoints, r.NoiseCells,
			fmt.Sprintf("%dms", r.DurationMS),
			r.CreatedAt.Format("2006-01-02 15:04"))
	}
}

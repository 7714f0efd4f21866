package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anvoron/tacmap/internal/atlas"
	"github.com/anvoron/tacmap/internal/core"
	"github.com/anvoron/tacmap/internal/snapshot"
	"github.com/anvoron/tacmap/internal/terrain"
)

var pathCmd = &cobra.Command{
	Use:   "path <map.yaml> <x,y> <x,y>",
	Short: "Find a walkable cell path between two cells",
	Long: `Compute the shortest walkable path between two cells of a map. A saved
snapshot is reused when valid; otherwise the map is decomposed on the fly.

Examples:
  tacmap path maps/highlands.yaml 3,4 27,18`,
	Args: cobra.ExactArgs(3),
	Run:  runPath,
}

func runPath(cmd *cobra.Command, args []string) {
	logger := newLogger()
	cfg := loadConfig(logger)

	t, err := terrain.LoadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading map: %v\n", err)
		os.Exit(1)
	}
	from, err := parseCell(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	to, err := parseCell(args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	a := atlas.New(t, cfg, logger)
	if data, err := snapshot.Load(snapshotDir(), t); err == nil {
		if err := a.Restore(data); err != nil {
			fmt.Fprintf(os.Stderr, "Error restoring snapshot: %v\n", err)
			os.Exit(1)
		}
		logger.Debug("restored from snapshot", "map", t.ID())
	} else {
		logger.Debug("no usable snapshot, analyzing", "err", err)
		if _, err := a.Analyze(); err != nil {
			fmt.Fprintf(os.Stderr, "Error analyzing map: %v\n", err)
			os.Exit(1)
		}
	}

	cells, err := a.Path(from, to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "No path from %v to %v: %v\n", from, to, err)
		os.Exit(1)
	}

	fmt.Printf("Path from (%d,%d) to (%d,%d): %d cells\n", from.X, from.Y, to.X, to.Y, len(cells))
	steps := make([]string, len(cells))
	for i, c := range cells {
		steps[i] = fmt.Sprintf("(%d,%d)", c.X, c.Y)
	}
	fmt.Println(strings.Join(steps, " -> "))
}

// parseCell parses "x,y" into a cell.
func parseCell(s string) (core.Cell, error) {
	var x, y int
	if _, err := fmt.Sscanf(s, "%d,%d", &x, &y); err != nil {
		return core.Cell{}, fmt.Errorf("invalid cell %q, expected x,y", s)
	}
	return core.C(x, y), nil
}

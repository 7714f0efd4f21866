package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/anvoron/tacmap/internal/atlas"
	"github.com/anvoron/tacmap/internal/snapshot"
	"github.com/anvoron/tacmap/internal/storage"
	"github.com/anvoron/tacmap/internal/terrain"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <map.yaml>",
	Short: "Decompose a map and persist the snapshot",
	Long: `Load a map file, decompose it into regions, ramps and choke points,
save the snapshot and its raster image, and record the run.

Examples:
  tacmap analyze maps/highlands.yaml
  tacmap analyze maps/highlands.yaml --snapshots ./out`,
	Args: cobra.ExactArgs(1),
	Run:  runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) {
	logger := newLogger()
	cfg := loadConfig(logger)

	t, err := terrain.LoadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading map: %v\n", err)
		os.Exit(1)
	}

	a := atlas.New(t, cfg, logger)
	started := time.Now()
	data, err := a.Analyze()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error analyzing map: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(started)

	path, err := snapshot.Save(snapshotDir(), t, data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error saving snapshot: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening run index: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if _, err := store.SaveRun(storage.Run{
		MapID:        t.ID(),
		TerrainHash:  t.Hash(),
		Regions:      len(data.Regions),
		Ramps:        len(data.Ramps),
		ChokePoints:  len(data.ChokePoints),
		NoiseCells:   len(data.Noise),
		DurationMS:   elapsed.Milliseconds(),
		SnapshotPath: path,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error recording run: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Analyzed %s (%dx%d) in %s\n", t.ID(), t.Width(), t.Height(), elapsed.Round(time.Millisecond))
	fmt.Println()
	fmt.Printf("  Regions:      %d\n", len(data.Regions))
	fmt.Printf("  Ramps:        %d\n", len(data.Ramps))
	fmt.Printf("  Choke points: %d\n", len(data.ChokePoints))
	fmt.Printf("  Noise cells:  %d\n", len(data.Noise))
	fmt.Println()
	fmt.Printf("Snapshot: %s\n", path)
	fmt.Printf("Raster:   %s\n", snapshot.ImagePath(snapshotDir(), t.ID()))
}

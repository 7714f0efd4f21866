package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/anvoron/tacmap/internal/snapshot"
	"github.com/anvoron/tacmap/internal/terrain"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <map.yaml>",
	Short: "Show a saved decomposition",
	Long: `Load the persisted snapshot for a map and print its regions and
choke points. The snapshot must match the current map file; re-run
'tacmap analyze' after editing the map.

Examples:
  tacmap inspect maps/highlands.yaml`,
	Args: cobra.ExactArgs(1),
	Run:  runInspect,
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
)

func runInspect(cmd *cobra.Command, args []string) {
	t, err := terrain.LoadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading map: %v\n", err)
		os.Exit(1)
	}

	data, err := snapshot.Load(snapshotDir(), t)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading snapshot: %v\n", err)
		fmt.Fprintf(os.Stderr, "Run 'tacmap analyze %s' first.\n", args[0])
		os.Exit(1)
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("%s (%dx%d)", t.Name(), t.Width(), t.Height())))
	fmt.Println()

	regions := table.New().
		Headers("ID", "KIND", "CELLS", "CENTROID", "RESOURCES").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, r := range data.Regions {
		resources := "-"
		if r.Expand != nil {
			resources = fmt.Sprintf("%d", r.Expand.TotalResources())
		}
		regions.Row(
			fmt.Sprintf("%d", r.ID),
			r.Kind.String(),
			fmt.Sprintf("%d", r.Size()),
			fmt.Sprintf("(%.1f, %.1f)", r.Centroid.X, r.Centroid.Y),
			resources,
		)
	}
	fmt.Println(regions.Render())

	if len(data.ChokePoints) > 0 {
		fmt.Println()
		chokes := table.New().
			Headers("START", "END", "LENGTH", "EDGE", "CONNECTS").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return lipgloss.NewStyle().Padding(0, 1)
			})
		for _, cp := range data.ChokePoints {
			chokes.Row(
				fmt.Sprintf("(%d, %d)", cp.Start.X, cp.Start.Y),
				fmt.Sprintf("(%d, %d)", cp.End.X, cp.End.Y),
				fmt.Sprintf("%.1f", cp.Length),
				fmt.Sprintf("%d cells", len(cp.Edge)),
				fmt.Sprintf("%d <-> %d", cp.Regions[0], cp.Regions[1]),
			)
		}
		fmt.Println(chokes.Render())
	}

	if len(data.Ramps) > 0 || len(data.Noise) > 0 {
		fmt.Println()
		fmt.Printf("Ramps: %d   Noise cells: %d\n", len(data.Ramps), len(data.Noise))
	}
}

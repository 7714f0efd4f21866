package eval

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/anvoron/tacmap/internal/config"
	"github.com/anvoron/tacmap/internal/core"
	"github.com/anvoron/tacmap/internal/region"
)

// testGraph is two rooms on a 7x3 grid joined by a choke, with an expand
// location in the west room.
func testGraph(t *testing.T) *region.Graph {
	t.Helper()
	block := func(x0, y0, x1, y1 int) []core.Cell {
		var out []core.Cell
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				out = append(out, core.C(x, y))
			}
		}
		return out
	}
	d := &region.Data{
		Regions: []*region.Region{
			{
				ID: 0, Kind: region.KindExpand,
				Cells:    block(0, 0, 2, 2),
				Centroid: core.P(1.5, 1.5),
				Expand: &region.ExpandLocation{
					Base:     core.C(1, 1),
					Minerals: []region.Resource{{Pos: core.C(0, 1), Amount: 2000}},
				},
			},
			{
				ID: 1, Kind: region.KindOpenGround,
				Cells:    block(4, 0, 6, 2),
				Centroid: core.P(5.5, 1.5),
			},
		},
		ChokePoints: []*region.ChokePoint{{
			Start: core.C(2, 1), End: core.C(4, 1), Length: 2,
			Edge:    []core.Cell{core.C(2, 1), core.C(3, 1), core.C(4, 1)},
			Regions: [2]int{0, 1},
		}},
	}
	d.Canonicalize()
	g, err := region.NewGraph(d, 7, 3)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	return g
}

func testBoard(t *testing.T) *Board {
	t.Helper()
	b := NewBoard(config.DefaultConfig().Eval, log.New(io.Discard))
	b.Init(testGraph(t))
	return b
}

func TestQueriesBeforeFirstUpdate(t *testing.T) {
	b := testBoard(t)
	if _, err := b.Force(0, SideSelf, false); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Force before update: err = %v, want ErrNotReady", err)
	}
	if _, err := b.Threat(0, SideEnemy, true); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Threat before update: err = %v, want ErrNotReady", err)
	}

	unseeded := NewBoard(config.DefaultConfig().Eval, log.New(io.Discard))
	if err := unseeded.Update(Snapshot{}); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Update before Init: err = %v, want ErrNotReady", err)
	}
}

func TestForceAccumulation(t *testing.T) {
	b := testBoard(t)
	err := b.Update(Snapshot{Tick: 7, Units: []Unit{
		{Pos: core.C(1, 1), Side: SideSelf, Class: "fighter", Combat: 10},
		{Pos: core.C(2, 2), Side: SideSelf, Class: "fighter", Combat: 10},
		{Pos: core.C(5, 1), Side: SideSelf, Class: "worker", Combat: 4, Economic: 8},
	}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	// Two fighters at weight 1.0.
	if got, _ := b.Force(0, SideSelf, false); got != 20 {
		t.Errorf("Force(0) = %v, want 20", got)
	}
	// One worker at weight 0.25.
	if got, _ := b.Force(1, SideSelf, false); got != 1 {
		t.Errorf("Force(1) = %v, want 1", got)
	}
	if got, _ := b.Value(1, SideSelf, false); got != 2 {
		t.Errorf("Value(1) = %v, want 2", got)
	}
	// The enemy fielded nothing.
	if got, _ := b.Force(0, SideEnemy, false); got != 0 {
		t.Errorf("enemy Force(0) = %v, want 0", got)
	}
	if b.Tick() != 7 {
		t.Errorf("Tick() = %d, want 7", b.Tick())
	}
}

func TestNormalizedScores(t *testing.T) {
	b := testBoard(t)
	if err := b.Update(Snapshot{Units: []Unit{
		{Pos: core.C(1, 1), Side: SideSelf, Class: "fighter", Combat: 10},
		{Pos: core.C(5, 1), Side: SideSelf, Class: "fighter", Combat: 5},
	}}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	attained := false
	for _, id := range []int{0, 1} {
		got, err := b.Force(id, SideSelf, true)
		if err != nil {
			t.Fatalf("Force(%d): %v", id, err)
		}
		if got < 0 || got > 1 {
			t.Errorf("normalized Force(%d) = %v, outside [0,1]", id, got)
		}
		if got == 1 {
			attained = true
		}
	}
	if !attained {
		t.Error("no region attains normalized force 1")
	}

	// With no enemy units all enemy scores normalize to 0.
	if got, _ := b.Force(0, SideEnemy, true); got != 0 {
		t.Errorf("enemy normalized force = %v, want 0", got)
	}
}

func TestExpandResourceBonus(t *testing.T) {
	b := testBoard(t)
	if err := b.Update(Snapshot{Units: []Unit{
		{Pos: core.C(1, 1), Side: SideSelf, Class: ClassBase, Economic: 100},
	}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	// 100 base worth + 0.001 * 2000 remaining minerals.
	if got, _ := b.Value(0, SideSelf, false); math.Abs(got-102) > 1e-9 {
		t.Errorf("Value(0) = %v, want 102", got)
	}

	// The same base without holding the expand region earns no bonus.
	if err := b.Update(Snapshot{Units: []Unit{
		{Pos: core.C(5, 1), Side: SideSelf, Class: ClassBase, Economic: 100},
	}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got, _ := b.Value(1, SideSelf, false); got != 100 {
		t.Errorf("Value(1) = %v, want 100", got)
	}
}

func TestThreatIsNotForce(t *testing.T) {
	b := testBoard(t)
	if err := b.Update(Snapshot{Units: []Unit{
		{Pos: core.C(5, 1), Side: SideEnemy, Class: "fighter", Combat: 12},
		{Pos: core.C(1, 1), Side: SideSelf, Class: "worker", Economic: 8},
	}}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// No enemy stands in region 0, yet its threat is positive: pressure
	// radiates from the enemy force next door.
	enemyForce, _ := b.Force(0, SideEnemy, false)
	threat, _ := b.Threat(0, SideSelf, false)
	if enemyForce != 0 {
		t.Fatalf("enemy Force(0) = %v, want 0", enemyForce)
	}
	if threat <= 0 {
		t.Fatalf("Threat(0) = %v, want positive", threat)
	}

	// The region the enemy occupies is strictly more threatened.
	far, _ := b.Threat(0, SideSelf, false)
	near, _ := b.Threat(1, SideSelf, false)
	if near <= far {
		t.Errorf("Threat(1)=%v should exceed Threat(0)=%v", near, far)
	}
}

func TestUnplaceableUnitIsSkipped(t *testing.T) {
	b := testBoard(t)
	// Cell (3,0) belongs to no region; the unit must be dropped, not fatal.
	if err := b.Update(Snapshot{Units: []Unit{
		{Pos: core.C(3, 0), Side: SideSelf, Class: "fighter", Combat: 10},
		{Pos: core.C(1, 1), Side: SideSelf, Class: "fighter", Combat: 5},
	}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got, _ := b.Force(0, SideSelf, false); got != 5 {
		t.Errorf("Force(0) = %v, want 5 (stray unit skipped)", got)
	}
}

func TestUnknownRegionQuery(t *testing.T) {
	b := testBoard(t)
	if err := b.Update(Snapshot{}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := b.Force(42, SideSelf, false); err == nil {
		t.Fatal("expected error for unknown region id")
	}
}

func TestLabels(t *testing.T) {
	b := testBoard(t)
	cases := map[float64]string{
		30: "Lethal",
		24: "Lethal",
		15: "Strong",
		5:  "Neutral",
		1:  "Weak",
		0:  "Weak",
	}
	for force, want := range cases {
		if got := b.Label(force); got != want {
			t.Errorf("Label(%v) = %q, want %q", force, got, want)
		}
	}
}

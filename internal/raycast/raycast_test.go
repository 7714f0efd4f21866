package raycast

import (
	"math"
	"slices"
	"testing"

	"github.com/anvoron/tacmap/internal/core"
)

func collect(seq func(func(Step) bool)) []Step {
	var out []Step
	seq(func(s Step) bool {
		out = append(out, s)
		return true
	})
	return out
}

func cells(steps []Step) []core.Cell {
	out := make([]core.Cell, len(steps))
	for i, s := range steps {
		out[i] = s.Cell
	}
	return out
}

func TestCastHorizontal(t *testing.T) {
	steps := collect(Cast(core.C(0, 2).Center(), core.C(4, 2).Center(), nil))
	want := []core.Cell{core.C(0, 2), core.C(1, 2), core.C(2, 2), core.C(3, 2), core.C(4, 2)}
	if !slices.Equal(cells(steps), want) {
		t.Fatalf("horizontal ray visited %v, want %v", cells(steps), want)
	}

	// Boundary hits land on integer x, centered y.
	for i, s := range steps[1:] {
		if s.Hit.X != float64(i+1) || s.Hit.Y != 2.5 {
			t.Errorf("step %d hit = %v, want (%d, 2.5)", i+1, s.Hit, i+1)
		}
	}
}

func TestCastVerticalUp(t *testing.T) {
	steps := collect(Cast(core.C(1, 3).Center(), core.C(1, 0).Center(), nil))
	want := []core.Cell{core.C(1, 3), core.C(1, 2), core.C(1, 1), core.C(1, 0)}
	if !slices.Equal(cells(steps), want) {
		t.Fatalf("vertical ray visited %v, want %v", cells(steps), want)
	}
}

func TestCastDiagonalIsDeterministic(t *testing.T) {
	from := core.C(0, 0).Center()
	to := core.C(5, 3).Center()

	a := cells(collect(Cast(from, to, nil)))
	b := cells(collect(Cast(from, to, nil)))
	if !slices.Equal(a, b) {
		t.Fatalf("identical casts disagree: %v vs %v", a, b)
	}

	if a[0] != core.C(0, 0) || a[len(a)-1] != core.C(5, 3) {
		t.Fatalf("ray should span origin to destination, got %v", a)
	}
	// Each step moves to an edge-adjacent cell.
	for i := 1; i < len(a); i++ {
		d := core.Abs(a[i].X-a[i-1].X) + core.Abs(a[i].Y-a[i-1].Y)
		if d != 1 {
			t.Fatalf("step %d jumps from %v to %v", i, a[i-1], a[i])
		}
	}
}

func TestCastExactCornerTie(t *testing.T) {
	// A perfect 45-degree ray through cell corners exercises the tie rule.
	a := cells(collect(Cast(core.C(0, 0).Center(), core.C(3, 3).Center(), nil)))
	b := cells(collect(Cast(core.C(0, 0).Center(), core.C(3, 3).Center(), nil)))
	if !slices.Equal(a, b) {
		t.Fatalf("tie resolution is not deterministic: %v vs %v", a, b)
	}
	if a[0] != core.C(0, 0) || a[len(a)-1] != core.C(3, 3) {
		t.Fatalf("diagonal ray endpoints wrong: %v", a)
	}
}

func TestCastStopPredicate(t *testing.T) {
	wall := core.C(2, 2)
	steps := collect(Cast(core.C(0, 2).Center(), core.C(4, 2).Center(), func(c core.Cell) bool {
		return c == wall
	}))
	got := cells(steps)
	if got[len(got)-1] != wall {
		t.Fatalf("ray should stop at the wall cell, last visited %v", got[len(got)-1])
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 cells up to the wall, got %v", got)
	}
}

func TestCastDegenerate(t *testing.T) {
	c := core.C(2, 2)
	steps := collect(Cast(c.Center(), c.Center(), nil))
	if len(steps) != 1 || steps[0].Cell != c {
		t.Fatalf("zero-length ray should yield only the origin cell, got %v", cells(steps))
	}
}

func TestCastDirLeavesBounds(t *testing.T) {
	steps := collect(CastDir(core.C(1, 1).Center(), 0, 5, 5, nil))
	want := []core.Cell{core.C(1, 1), core.C(2, 1), core.C(3, 1), core.C(4, 1)}
	if !slices.Equal(cells(steps), want) {
		t.Fatalf("eastward ray visited %v, want %v", cells(steps), want)
	}

	up := collect(CastDir(core.C(2, 2).Center(), -math.Pi/2, 5, 5, nil))
	wantUp := []core.Cell{core.C(2, 2), core.C(2, 1), core.C(2, 0)}
	if !slices.Equal(cells(up), wantUp) {
		t.Fatalf("northward ray visited %v, want %v", cells(up), wantUp)
	}
}

func TestCastDirStops(t *testing.T) {
	n := 0
	CastDir(core.C(0, 0).Center(), 0, 100, 1, func(c core.Cell) bool {
		return c.X >= 3
	})(func(s Step) bool {
		n++
		return true
	})
	if n != 4 {
		t.Fatalf("expected 4 steps (cells 0..3), got %d", n)
	}
}

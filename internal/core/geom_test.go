package core

import (
	"math"
	"slices"
	"testing"
)

func TestCellCenter(t *testing.T) {
	c := C(3, 7)
	p := c.Center()
	if p.X != 3.5 || p.Y != 7.5 {
		t.Errorf("Center of (3,7) should be (3.5,7.5), got (%v,%v)", p.X, p.Y)
	}
}

func TestPointCell(t *testing.T) {
	cases := []struct {
		p    Point
		want Cell
	}{
		{P(3.5, 7.5), C(3, 7)},
		{P(0.0, 0.0), C(0, 0)},
		{P(4.0, 2.0), C(4, 2)}, // boundary belongs to the positive side
		{P(-0.5, 1.2), C(-1, 1)},
	}
	for _, tc := range cases {
		if got := tc.p.Cell(); got != tc.want {
			t.Errorf("Cell(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestCenterRoundTrip(t *testing.T) {
	for y := -2; y < 5; y++ {
		for x := -2; x < 5; x++ {
			c := C(x, y)
			if got := c.Center().Cell(); got != c {
				t.Fatalf("Center().Cell() round trip failed for %v: got %v", c, got)
			}
		}
	}
}

func TestLessYXOrdering(t *testing.T) {
	cells := []Cell{C(2, 1), C(0, 2), C(1, 1), C(5, 0)}
	slices.SortFunc(cells, CompareYX)

	want := []Cell{C(5, 0), C(1, 1), C(2, 1), C(0, 2)}
	for i := range want {
		if cells[i] != want[i] {
			t.Fatalf("sorted[%d] = %v, want %v (full: %v)", i, cells[i], want[i], cells)
		}
	}

	for i := 1; i < len(cells); i++ {
		if LessYX(cells[i], cells[i-1]) {
			t.Errorf("LessYX inconsistent with CompareYX at index %d", i)
		}
	}
}

func TestDist(t *testing.T) {
	if d := C(0, 0).Dist(C(3, 4)); d != 5 {
		t.Errorf("Dist((0,0),(3,4)) = %v, want 5", d)
	}
	if d := P(1, 1).Dist(P(1, 1)); d != 0 {
		t.Errorf("Dist of identical points = %v, want 0", d)
	}
}

func TestAngle(t *testing.T) {
	if a := P(0, 0).Angle(P(1, 0)); a != 0 {
		t.Errorf("Angle east = %v, want 0", a)
	}
	if a := P(0, 0).Angle(P(0, 1)); math.Abs(a-math.Pi/2) > 1e-12 {
		t.Errorf("Angle south = %v, want pi/2", a)
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, 0, 3) != 3 {
		t.Error("Clamp above max failed")
	}
	if Clamp(-1, 0, 3) != 0 {
		t.Error("Clamp below min failed")
	}
	if Clamp(2, 0, 3) != 2 {
		t.Error("Clamp in range failed")
	}
}

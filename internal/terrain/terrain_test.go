package terrain

import (
	"testing"

	"github.com/anvoron/tacmap/internal/core"
)

const testMapYAML = `
id: test-map
name: Test Map
size: {w: 6, h: 4}
rows:
  - "######"
  - "#..12#"
  - "#.o.~#"
  - "######"
bases:
  - x: 1
    y: 1
    minerals:
      - {x: 2, y: 1, amount: 1500}
`

func mustParse(t *testing.T, src string) *Terrain {
	t.Helper()
	tr, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	return tr
}

func TestParseBasics(t *testing.T) {
	tr := mustParse(t, testMapYAML)

	if tr.ID() != "test-map" || tr.Name() != "Test Map" {
		t.Errorf("identity mismatch: %q / %q", tr.ID(), tr.Name())
	}
	if tr.Width() != 6 || tr.Height() != 4 {
		t.Errorf("size mismatch: %dx%d", tr.Width(), tr.Height())
	}

	if tr.Walkable(core.C(0, 0)) {
		t.Error("cliff should not be walkable")
	}
	if tr.Walkable(core.C(4, 2)) {
		t.Error("water should not be walkable")
	}
	if !tr.Walkable(core.C(1, 1)) {
		t.Error("ground should be walkable")
	}
	if tr.Walkable(core.C(-1, 0)) || tr.Walkable(core.C(6, 0)) {
		t.Error("out of bounds should not be walkable")
	}

	if h := tr.HeightAt(core.C(3, 1)); h != 1 {
		t.Errorf("height at (3,1) = %v, want 1", h)
	}
	if h := tr.HeightAt(core.C(4, 1)); h != 2 {
		t.Errorf("height at (4,1) = %v, want 2", h)
	}

	if len(tr.Bases()) != 1 {
		t.Fatalf("expected 1 base, got %d", len(tr.Bases()))
	}
	if tr.Bases()[0].Cell() != core.C(1, 1) {
		t.Errorf("base cell = %v", tr.Bases()[0].Cell())
	}
}

func TestRocksAndGeneration(t *testing.T) {
	tr := mustParse(t, testMapYAML)
	rock := core.C(2, 2)

	if !tr.Walkable(rock) {
		t.Fatal("rock cell should be statically walkable")
	}
	if tr.Passable(rock) {
		t.Fatal("rock cell should not be passable while the rock stands")
	}

	gen := tr.Generation()
	if !tr.ClearRock(rock) {
		t.Fatal("ClearRock should report a change")
	}
	if tr.Generation() != gen+1 {
		t.Errorf("generation should bump on clear: %d -> %d", gen, tr.Generation())
	}
	if !tr.Passable(rock) {
		t.Error("cell should be passable after clearing")
	}

	// Clearing an already-clear cell is a no-op.
	if tr.ClearRock(rock) {
		t.Error("second ClearRock should report no change")
	}
	if tr.Generation() != gen+1 {
		t.Error("generation should not bump on a no-op clear")
	}
}

func TestHashStability(t *testing.T) {
	a := mustParse(t, testMapYAML)
	b := mustParse(t, testMapYAML)
	if a.Hash() != b.Hash() {
		t.Error("two loads of the same map should hash identically")
	}

	// A different map must hash differently.
	other := mustParse(t, `
id: other
name: Other
size: {w: 2, h: 2}
rows:
  - ".."
  - ".."
`)
	if a.Hash() == other.Hash() {
		t.Error("different maps should not collide")
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"id: a\nsize: {w: 2, h: 2}\nrows: [\"..\"]",         // row count mismatch
		"id: a\nsize: {w: 3, h: 1}\nrows: [\"..\"]",         // row width mismatch
		"id: a\nsize: {w: 2, h: 1}\nrows: [\".X\"]",         // unknown glyph
		"id: a\nsize: {w: 0, h: 1}\nrows: []",               // invalid size
		"id: a\nsize: {w: 2, h: 1}\nrows: [\"..\"]\nbases: [{x: 9, y: 9}]", // base out of bounds
	}
	for i, src := range cases {
		if _, err := Parse([]byte(src)); err == nil {
			t.Errorf("case %d: expected an error", i)
		}
	}
}

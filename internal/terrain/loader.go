package terrain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlMap is the on-disk YAML structure for a map file.
type yamlMap struct {
	ID    string   `yaml:"id"`
	Name  string   `yaml:"name"`
	Size  yamlSize `yaml:"size"`
	Rows  []string `yaml:"rows"`
	Bases []Base   `yaml:"bases,omitempty"`
}

type yamlSize struct {
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// Row glyphs:
//
//	'#'  cliff (never walkable)
//	'~'  water (never walkable)
//	'.'  walkable ground at height 0
//	0-9  walkable ground at that height
//	'o'  destructible rock on walkable ground at height 0
func LoadFile(path string) (*Terrain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("terrain: reading map %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("terrain: parsing map %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a YAML map document into a Terrain.
func Parse(data []byte) (*Terrain, error) {
	var ym yamlMap
	if err := yaml.Unmarshal(data, &ym); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}

	if ym.Size.W <= 0 || ym.Size.H <= 0 {
		return nil, fmt.Errorf("invalid size %dx%d", ym.Size.W, ym.Size.H)
	}
	if len(ym.Rows) != ym.Size.H {
		return nil, fmt.Errorf("expected %d rows, got %d", ym.Size.H, len(ym.Rows))
	}

	t := &Terrain{
		id:     ym.ID,
		name:   ym.Name,
		w:      ym.Size.W,
		h:      ym.Size.H,
		walk:   make([]bool, ym.Size.W*ym.Size.H),
		height: make([]float64, ym.Size.W*ym.Size.H),
		rock:   make([]bool, ym.Size.W*ym.Size.H),
		bases:  ym.Bases,
	}

	for y, row := range ym.Rows {
		if len(row) != ym.Size.W {
			return nil, fmt.Errorf("row %d: expected width %d, got %d", y, ym.Size.W, len(row))
		}
		for x := 0; x < len(row); x++ {
			i := y*ym.Size.W + x
			switch ch := row[x]; {
			case ch == '#' || ch == '~':
				// unwalkable, height stays 0
			case ch == '.':
				t.walk[i] = true
			case ch >= '0' && ch <= '9':
				t.walk[i] = true
				t.height[i] = float64(ch - '0')
			case ch == 'o':
				t.walk[i] = true
				t.rock[i] = true
			default:
				return nil, fmt.Errorf("row %d col %d: unknown glyph %q", y, x, ch)
			}
		}
	}

	for _, b := range ym.Bases {
		if !t.InBounds(b.Cell()) {
			return nil, fmt.Errorf("base at (%d,%d) is out of bounds", b.X, b.Y)
		}
	}

	t.hash = t.computeHash()
	return t, nil
}

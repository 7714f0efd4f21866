// Package region holds the result of terrain decomposition: regions, ramps,
// choke points and the navigable graph built from them. Entities are
// immutable after decomposition except for the obstruction flag on regions.
package region

import (
	"fmt"
	"slices"

	"github.com/anvoron/tacmap/internal/core"
)

// Kind classifies a region.
type Kind uint8

const (
	KindOpenGround Kind = iota
	KindRamp
	KindExpand
	KindObstructed
)

var kindNames = map[Kind]string{
	KindOpenGround: "open_ground",
	KindRamp:       "ramp",
	KindExpand:     "expand",
	KindObstructed: "obstructed",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText serializes the kind as its stable string name.
func (k Kind) MarshalText() ([]byte, error) {
	s, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("region: unknown kind %d", uint8(k))
	}
	return []byte(s), nil
}

// UnmarshalText parses a kind from its string name.
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("region: unknown kind %q", string(text))
}

// Resource is a mineral field or gas geyser inside an expand location.
type Resource struct {
	Pos    core.Cell `json:"pos"`
	Amount int       `json:"amount"`
}

// ExpandLocation is a base-building position with its resource cluster,
// owned one-to-one by an expand-kind region.
type ExpandLocation struct {
	Base     core.Cell  `json:"base"`
	Minerals []Resource `json:"minerals,omitempty"`
	Geysers  []Resource `json:"geysers,omitempty"`
}

// TotalResources returns the summed remaining amounts of the cluster.
func (e *ExpandLocation) TotalResources() int {
	total := 0
	for _, r := range e.Minerals {
		total += r.Amount
	}
	for _, r := range e.Geysers {
		total += r.Amount
	}
	return total
}

// Region is a maximal connected component of walkable terrain treated as one
// tactical unit of space. Cells are kept sorted y-then-x.
type Region struct {
	ID       int             `json:"id"`
	Kind     Kind            `json:"kind"`
	Cells    []core.Cell     `json:"cells"`
	Centroid core.Point      `json:"centroid"`
	Expand   *ExpandLocation `json:"expand,omitempty"`

	// obstructed is runtime state, seeded from Kind at graph construction
	// and toggled when destructible rocks are cleared. Never serialized.
	obstructed bool

	links []*Link
}

// Obstructed reports whether the region is currently blocked.
func (r *Region) Obstructed() bool { return r.obstructed }

// Size returns the number of cells in the region.
func (r *Region) Size() int { return len(r.Cells) }

// Link is a region-to-region edge. Via is the choke point carrying the edge,
// or nil when the regions touch directly (ramp adjacency).
type Link struct {
	To          *Region
	Via         *ChokePoint
	traversable bool
}

// Traversable reports whether the link can currently be crossed.
func (l *Link) Traversable() bool { return l.traversable }

// ChokePoint is the minimal-width walkable passage connecting two regions.
// Edge is always non-empty and contains only cells that were walkable and
// unobstructed at construction time.
type ChokePoint struct {
	Start   core.Cell   `json:"start"`
	End     core.Cell   `json:"end"`
	Length  float64     `json:"length"`
	Edge    []core.Cell `json:"edge"`
	Regions [2]int      `json:"regions"`
}

// Ramp is a walkable slope connecting two height levels. It mirrors the
// cells of its ramp-kind region; the region carries the graph node, the ramp
// carries the serialized cell set.
type Ramp struct {
	ID    int         `json:"id"`
	Cells []core.Cell `json:"cells"`
}

// Centroid returns the mean center of the ramp's cells.
func (r Ramp) Centroid() core.Point {
	if len(r.Cells) == 0 {
		return core.Point{}
	}
	var sx, sy float64
	for _, c := range r.Cells {
		p := c.Center()
		sx += p.X
		sy += p.Y
	}
	n := float64(len(r.Cells))
	return core.P(sx/n, sy/n)
}

// Data is the deterministic, ready-to-persist aggregate of a decomposition.
type Data struct {
	Regions     []*Region     `json:"regions"`
	Ramps       []Ramp        `json:"ramps"`
	Noise       []core.Cell   `json:"noise"`
	ChokePoints []*ChokePoint `json:"chokePoints"`
}

// Canonicalize applies the mandated sort keys: regions by id with cells
// y-then-x, ramps internally y-then-x and listed by centroid y-then-x, noise
// y-then-x, choke points by start y-then-x. Two decompositions of the same
// map canonicalize to identical aggregates.
func (d *Data) Canonicalize() {
	slices.SortFunc(d.Regions, func(a, b *Region) int { return a.ID - b.ID })
	for _, r := range d.Regions {
		slices.SortFunc(r.Cells, core.CompareYX)
	}
	for i := range d.Ramps {
		slices.SortFunc(d.Ramps[i].Cells, core.CompareYX)
	}
	slices.SortFunc(d.Ramps, func(a, b Ramp) int {
		ca, cb := a.Centroid(), b.Centroid()
		if ca.Y != cb.Y {
			if ca.Y < cb.Y {
				return -1
			}
			return 1
		}
		switch {
		case ca.X < cb.X:
			return -1
		case ca.X > cb.X:
			return 1
		}
		return a.ID - b.ID
	})
	slices.SortFunc(d.Noise, core.CompareYX)
	slices.SortFunc(d.ChokePoints, func(a, b *ChokePoint) int { return core.CompareYX(a.Start, b.Start) })
}

// Equal reports field-by-field equality of two canonicalized aggregates.
func (d *Data) Equal(other *Data) bool {
	if len(d.Regions) != len(other.Regions) ||
		len(d.Ramps) != len(other.Ramps) ||
		len(d.Noise) != len(other.Noise) ||
		len(d.ChokePoints) != len(other.ChokePoints) {
		return false
	}
	for i, r := range d.Regions {
		o := other.Regions[i]
		if r.ID != o.ID || r.Kind != o.Kind || r.Centroid != o.Centroid ||
			!slices.Equal(r.Cells, o.Cells) || !expandEqual(r.Expand, o.Expand) {
			return false
		}
	}
	for i, r := range d.Ramps {
		if r.ID != other.Ramps[i].ID || !slices.Equal(r.Cells, other.Ramps[i].Cells) {
			return false
		}
	}
	if !slices.Equal(d.Noise, other.Noise) {
		return false
	}
	for i, c := range d.ChokePoints {
		o := other.ChokePoints[i]
		if c.Start != o.Start || c.End != o.End || c.Length != o.Length ||
			c.Regions != o.Regions || !slices.Equal(c.Edge, o.Edge) {
			return false
		}
	}
	return true
}

func expandEqual(a, b *ExpandLocation) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return a.Base == b.Base && slices.Equal(a.Minerals, b.Minerals) && slices.Equal(a.Geysers, b.Geysers)
}

package region

import (
	"fmt"
	"slices"

	"github.com/anvoron/tacmap/internal/core"
)

// Graph owns the regions and choke points of a decomposition and answers
// position-to-region and reachability queries. Region identities never
// change after construction; obstruction toggles flip link traversability
// in place.
type Graph struct {
	w, h    int
	regions []*Region
	byID    map[int]*Region
	byCell  []int32 // row-major cell -> region id, -1 for none
	chokes  []*ChokePoint

	gen uint64
}

// NewGraph builds the navigable graph from a canonicalized decomposition.
// Neighbor links are inserted in centroid-distance order, which fixes the
// tie-break order of breadth-first region paths.
func NewGraph(data *Data, w, h int) (*Graph, error) {
	g := &Graph{
		w:      w,
		h:      h,
		byID:   make(map[int]*Region, len(data.Regions)),
		byCell: make([]int32, w*h),
		chokes: data.ChokePoints,
	}
	for i := range g.byCell {
		g.byCell[i] = -1
	}

	for _, r := range data.Regions {
		if len(r.Cells) == 0 {
			return nil, fmt.Errorf("region: region %d has no cells", r.ID)
		}
		if _, dup := g.byID[r.ID]; dup {
			return nil, fmt.Errorf("region: duplicate region id %d", r.ID)
		}
		r.links = nil
		r.obstructed = r.Kind == KindObstructed
		g.byID[r.ID] = r
		g.regions = append(g.regions, r)
		for _, c := range r.Cells {
			if c.X < 0 || c.X >= w || c.Y < 0 || c.Y >= h {
				return nil, fmt.Errorf("region: region %d cell %v out of bounds", r.ID, c)
			}
			i := c.Y*w + c.X
			if g.byCell[i] != -1 {
				return nil, fmt.Errorf("region: cell %v assigned to both region %d and %d", c, g.byCell[i], r.ID)
			}
			g.byCell[i] = int32(r.ID)
		}
	}

	type pair struct{ a, b int }
	seen := make(map[pair]bool)
	addLink := func(a, b *Region, via *ChokePoint) {
		key := pair{a.ID, b.ID}
		if key.a > key.b {
			key.a, key.b = key.b, key.a
		}
		if seen[key] {
			return
		}
		seen[key] = true
		a.links = append(a.links, &Link{To: b, Via: via})
		b.links = append(b.links, &Link{To: a, Via: via})
	}

	for _, cp := range data.ChokePoints {
		if len(cp.Edge) == 0 {
			return nil, fmt.Errorf("region: choke point at %v has an empty edge", cp.Start)
		}
		a, ok := g.byID[cp.Regions[0]]
		if !ok {
			return nil, fmt.Errorf("region: choke point at %v references unknown region %d", cp.Start, cp.Regions[0])
		}
		b, ok := g.byID[cp.Regions[1]]
		if !ok {
			return nil, fmt.Errorf("region: choke point at %v references unknown region %d", cp.Start, cp.Regions[1])
		}
		addLink(a, b, cp)
	}

	// Ramp regions touch their plateaus directly: link any two regions with
	// edge-adjacent cells when at least one of them is a ramp.
	for _, r := range g.regions {
		if r.Kind != KindRamp {
			continue
		}
		for _, c := range r.Cells {
			for _, n := range [4]core.Cell{{X: c.X + 1, Y: c.Y}, {X: c.X - 1, Y: c.Y}, {X: c.X, Y: c.Y + 1}, {X: c.X, Y: c.Y - 1}} {
				if n.X < 0 || n.X >= w || n.Y < 0 || n.Y >= h {
					continue
				}
				id := g.byCell[n.Y*w+n.X]
				if id == -1 || int(id) == r.ID {
					continue
				}
				addLink(r, g.byID[int(id)], nil)
			}
		}
	}

	for _, r := range g.regions {
		slices.SortFunc(r.links, func(a, b *Link) int {
			da := r.Centroid.Dist(a.To.Centroid)
			db := r.Centroid.Dist(b.To.Centroid)
			switch {
			case da < db:
				return -1
			case da > db:
				return 1
			}
			return a.To.ID - b.To.ID
		})
		for _, l := range r.links {
			l.traversable = !r.obstructed && !l.To.obstructed
		}
	}

	return g, nil
}

// RegionOf returns the region owning the cell, or nil when the cell belongs
// to no region (noise, unwalkable ground, out of bounds).
func (g *Graph) RegionOf(c core.Cell) *Region {
	if c.X < 0 || c.X >= g.w || c.Y < 0 || c.Y >= g.h {
		return nil
	}
	id := g.byCell[c.Y*g.w+c.X]
	if id == -1 {
		return nil
	}
	return g.byID[int(id)]
}

// Region returns a region by id, or nil.
func (g *Graph) Region(id int) *Region { return g.byID[id] }

// Regions returns all regions ordered by id.
func (g *Graph) Regions() []*Region { return g.regions }

// ChokePoints returns all choke points in canonical order.
func (g *Graph) ChokePoints() []*ChokePoint { return g.chokes }

// NeighborsOf returns every topological neighbor, traversable or not.
func (g *Graph) NeighborsOf(r *Region) []*Region {
	out := make([]*Region, 0, len(r.links))
	for _, l := range r.links {
		out = append(out, l.To)
	}
	return out
}

// ReachableNeighborsOf returns the neighbors whose links can currently be
// crossed. Always a subset of NeighborsOf.
func (g *Graph) ReachableNeighborsOf(r *Region) []*Region {
	var out []*Region
	for _, l := range r.links {
		if l.traversable {
			out = append(out, l.To)
		}
	}
	return out
}

// Links exposes a region's neighbor links in construction order.
func (g *Graph) Links(r *Region) []*Link { return r.links }

// FindRegionPath returns the first shortest region path from one region to
// another over reachable links, both endpoints included. Ties are broken by
// the fixed link order. Returns nil when no path exists.
func (g *Graph) FindRegionPath(from, to *Region) []*Region {
	if from == nil || to == nil {
		return nil
	}
	if from == to {
		return []*Region{from}
	}
	parent := map[int]*Region{from.ID: nil}
	queue := []*Region{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, l := range cur.links {
			if !l.traversable {
				continue
			}
			if _, visited := parent[l.To.ID]; visited {
				continue
			}
			parent[l.To.ID] = cur
			if l.To == to {
				var path []*Region
				for r := to; r != nil; r = parent[r.ID] {
					path = append(path, r)
				}
				slices.Reverse(path)
				return path
			}
			queue = append(queue, l.To)
		}
	}
	return nil
}

// SetObstructed toggles a region's obstruction flag and flips the
// traversability of every link touching it, symmetrically on both endpoints.
// Returns true when anything changed; the generation is bumped only then.
func (g *Graph) SetObstructed(id int, obstructed bool) bool {
	r, ok := g.byID[id]
	if !ok || r.obstructed == obstructed {
		return false
	}
	r.obstructed = obstructed
	for _, l := range r.links {
		l.traversable = !r.obstructed && !l.To.obstructed
		for _, back := range l.To.links {
			if back.To == r {
				back.traversable = l.traversable
			}
		}
	}
	g.gen++
	return true
}

// Generation returns a counter that increases on every obstruction change.
func (g *Graph) Generation() uint64 { return g.gen }
